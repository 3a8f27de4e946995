package memory

import (
	"context"
	"slices"
	"time"

	"github.com/amirasaad/ledger/pkg/domain"
	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/repository"
	"github.com/google/uuid"
)

type staged struct {
	account     *account.Account
	baseVersion uint64
	created     bool
}

// txn collects writes until commit. A txn belongs to one goroutine.
type txn struct {
	accounts map[uuid.UUID]*staged
	txs      []*account.Transaction
}

// UoW implements repository.UnitOfWork over a Store.
type UoW struct {
	store *Store
	tx    *txn
}

// NewUoW creates a unit of work over s.
func NewUoW(s *Store) *UoW {
	return &UoW{store: s}
}

// Do runs fn against a fresh set of staged writes and commits them together.
// Nested calls join the enclosing unit of work.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if u.tx != nil {
		return fn(u)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	t := &txn{accounts: make(map[uuid.UUID]*staged)}
	if err := fn(&UoW{store: u.store, tx: t}); err != nil {
		return err
	}
	return u.store.commit(t)
}

// AccountStore returns the account store bound to this unit of work.
func (u *UoW) AccountStore() (repository.AccountStore, error) {
	return &accountStore{uow: u}, nil
}

// TransactionLog returns the transaction log bound to this unit of work.
func (u *UoW) TransactionLog() (repository.TransactionLog, error) {
	return &transactionLog{uow: u}, nil
}

var _ repository.UnitOfWork = (*UoW)(nil)

// autocommit runs op in its own unit of work when the store was obtained
// outside Do.
func autocommit[T any](ctx context.Context, u *UoW, op func(u *UoW) (T, error)) (T, error) {
	if u.tx != nil {
		return op(u)
	}
	var out T
	err := u.Do(ctx, func(inner repository.UnitOfWork) error {
		var err error
		out, err = op(inner.(*UoW))
		return err
	})
	return out, err
}

type accountStore struct {
	uow *UoW
}

func (r *accountStore) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.uow.tx != nil {
		if st, ok := r.uow.tx.accounts[id]; ok {
			return st.account.Clone(), nil
		}
	}
	return r.uow.store.account(id)
}

func (r *accountStore) Create(ctx context.Context, a *account.Account) error {
	_, err := autocommit(ctx, r.uow, func(u *UoW) (struct{}, error) {
		if _, ok := u.tx.accounts[a.ID]; ok || u.store.exists(a.ID) {
			return struct{}{}, domain.ErrAlreadyExists
		}
		u.tx.accounts[a.ID] = &staged{account: a.Clone(), created: true}
		return struct{}{}, nil
	})
	return err
}

func (r *accountStore) Update(
	ctx context.Context,
	id uuid.UUID,
	expectedVersion uint64,
	mutate func(a *account.Account) error,
) (*account.Account, error) {
	return autocommit(ctx, r.uow, func(u *UoW) (*account.Account, error) {
		st, ok := u.tx.accounts[id]
		var cur *account.Account
		if ok {
			cur = st.account
		} else {
			var err error
			if cur, err = u.store.account(id); err != nil {
				return nil, err
			}
			st = &staged{baseVersion: cur.Version}
		}
		if cur.Version != expectedVersion {
			return nil, domain.ErrConflict
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
		st.account = next
		u.tx.accounts[id] = st
		return next.Clone(), nil
	})
}

type transactionLog struct {
	uow *UoW
}

func (l *transactionLog) Append(ctx context.Context, tx *account.Transaction) error {
	_, err := autocommit(ctx, l.uow, func(u *UoW) (struct{}, error) {
		u.tx.txs = append(u.tx.txs, tx.Clone())
		return struct{}{}, nil
	})
	return err
}

func (l *transactionLog) ListByAccount(
	ctx context.Context,
	id uuid.UUID,
	since time.Time,
) ([]*account.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := l.uow.store.transactions(id, since)
	if l.uow.tx == nil || len(l.uow.tx.txs) == 0 {
		return out, nil
	}
	for _, tx := range l.uow.tx.txs {
		if tx.Involves(id) && (since.IsZero() || tx.Timestamp.After(since)) {
			out = append(out, tx.Clone())
		}
	}
	slices.SortFunc(out, compareTransactions)
	return out, nil
}
