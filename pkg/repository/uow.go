package repository

import "context"

// UnitOfWork is the transaction boundary shared by the AccountStore and the
// TransactionLog. Everything written through the stores handed out inside Do
// becomes visible together when fn returns nil, and not at all otherwise.
//
// Outside Do the accessors return stores that read committed state.
type UnitOfWork interface {
	// Do executes fn within a transaction boundary. If fn returns an error,
	// every write made through the provided UnitOfWork is discarded.
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	AccountStore() (AccountStore, error)
	TransactionLog() (TransactionLog, error)
}
