package repository

import (
	"context"
	"time"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/google/uuid"
)

// AccountStore is the durable map of accounts keyed by id. It holds no
// business rules: callers validate inside the mutate callback.
type AccountStore interface {
	// Get returns a copy of the account or domain.ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*account.Account, error)
	// Create inserts a new account or fails with domain.ErrAlreadyExists.
	Create(ctx context.Context, a *account.Account) error
	// Update applies mutate to a copy of the stored account and persists it
	// only if the stored version still equals expectedVersion, otherwise it
	// returns domain.ErrConflict. A mutate error aborts without writing.
	// On success the returned account carries the bumped Version and UpdatedAt.
	Update(
		ctx context.Context,
		id uuid.UUID,
		expectedVersion uint64,
		mutate func(a *account.Account) error,
	) (*account.Account, error)
}

// TransactionLog is the append-only record of completed operations.
type TransactionLog interface {
	// Append stores tx. It fails only on storage errors.
	Append(ctx context.Context, tx *account.Transaction) error
	// ListByAccount returns transactions where id is source or destination,
	// with Timestamp strictly after since (zero time lists everything),
	// ordered by Timestamp then ID.
	ListByAccount(ctx context.Context, id uuid.UUID, since time.Time) ([]*account.Transaction, error)
}
