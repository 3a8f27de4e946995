package repository

import (
	"context"
	"time"

	"github.com/amirasaad/ledger/pkg/domain"
	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type accountStore struct {
	db       *gorm.DB
	rowLocks bool
}

// NewAccountStore creates an AccountStore on db. With rowLocks the read in
// Update takes SELECT ... FOR UPDATE, which only has an effect inside a
// transaction on dialects that support it.
func NewAccountStore(db *gorm.DB, rowLocks bool) repository.AccountStore {
	return &accountStore{db: db, rowLocks: rowLocks}
}

func (r *accountStore) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	var m Account
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	}); err != nil {
		return nil, err
	}
	a, err := toAccountDomain(&m)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	return a, nil
}

func (r *accountStore) Create(ctx context.Context, a *account.Account) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(toAccountModel(a)).Error
	})
}

func (r *accountStore) Update(
	ctx context.Context,
	id uuid.UUID,
	expectedVersion uint64,
	mutate func(a *account.Account) error,
) (*account.Account, error) {
	q := r.db.WithContext(ctx)
	if r.rowLocks {
		q = q.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}
	var m Account
	if err := WrapError(func() error {
		return q.Where("id = ?", id).First(&m).Error
	}); err != nil {
		return nil, err
	}
	if m.Version != expectedVersion {
		return nil, domain.ErrConflict
	}
	cur, err := toAccountDomain(&m)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	next := cur.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.ID = id
	next.Version = cur.Version + 1
	if !next.UpdatedAt.After(cur.UpdatedAt) {
		next.UpdatedAt = account.NextTimestamp(time.Now(), cur.UpdatedAt)
	}

	res := r.db.WithContext(ctx).
		Model(&Account{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]any{
			"balance":    next.Balance.Minor(),
			"status":     string(next.Status),
			"version":    next.Version,
			"updated_at": next.UpdatedAt.UTC(),
		})
	if err := mapError(res.Error); err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrConflict
	}
	return next, nil
}
