package repository

import (
	"context"

	"github.com/amirasaad/ledger/pkg/repository"
	"gorm.io/gorm"
)

// UoW provides the transaction boundary and store access in one abstraction.
// Stores handed out inside Do share the transaction session, so the balance
// update and the log append commit or roll back together.
type UoW struct {
	db       *gorm.DB
	tx       *gorm.DB
	rowLocks bool
}

// Option configures a UoW.
type Option func(*UoW)

// WithRowLocks makes account updates read with SELECT ... FOR UPDATE.
func WithRowLocks(enabled bool) Option {
	return func(u *UoW) {
		u.rowLocks = enabled
	}
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB, opts ...Option) *UoW {
	u := &UoW{db: db}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Do runs fn in a database transaction. Nested calls join the outer one.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if u.tx != nil {
		return fn(u)
	}
	var fnErr error
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(&UoW{db: u.db, tx: tx, rowLocks: u.rowLocks})
		return fnErr
	})
	if err != nil && fnErr == nil {
		// begin or commit failed
		return mapError(err)
	}
	return err
}

func (u *UoW) session() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

// AccountStore returns an AccountStore bound to the current session.
func (u *UoW) AccountStore() (repository.AccountStore, error) {
	return NewAccountStore(u.session(), u.rowLocks && u.tx != nil), nil
}

// TransactionLog returns a TransactionLog bound to the current session.
func (u *UoW) TransactionLog() (repository.TransactionLog, error) {
	return NewTransactionLog(u.session()), nil
}

var _ repository.UnitOfWork = (*UoW)(nil)
