// Package memory keeps accounts and transactions in process memory. It backs
// tests and single-process deployments that do not need durability.
package memory

import (
	"slices"
	"sync"
	"time"

	"github.com/amirasaad/ledger/pkg/domain"
	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/google/uuid"
)

// Store holds committed state. Writes reach it only through a UoW commit,
// which applies every staged change under a single write lock.
type Store struct {
	mu        sync.RWMutex
	accounts  map[uuid.UUID]*account.Account
	byAccount map[uuid.UUID][]*account.Transaction
	count     int
}

// New creates an empty store.
func New() *Store {
	return &Store{
		accounts:  make(map[uuid.UUID]*account.Account),
		byAccount: make(map[uuid.UUID][]*account.Transaction),
	}
}

// Len returns the number of committed transactions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

func (s *Store) account(id uuid.UUID) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a.Clone(), nil
}

func (s *Store) exists(id uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.accounts[id]
	return ok
}

func (s *Store) transactions(id uuid.UUID, since time.Time) []*account.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterSince(s.byAccount[id], since)
}

func (s *Store) commit(t *txn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, st := range t.accounts {
		cur, ok := s.accounts[id]
		switch {
		case st.created && ok:
			return domain.ErrAlreadyExists
		case !st.created && !ok:
			return domain.ErrNotFound
		case !st.created && cur.Version != st.baseVersion:
			return domain.ErrConflict
		}
	}
	for id, st := range t.accounts {
		s.accounts[id] = st.account.Clone()
	}
	for _, tx := range t.txs {
		s.index(tx)
	}
	return nil
}

func (s *Store) index(tx *account.Transaction) {
	ids := make([]uuid.UUID, 0, 2)
	if tx.SourceAccountID != nil {
		ids = append(ids, *tx.SourceAccountID)
	}
	if tx.DestinationAccountID != nil && (tx.SourceAccountID == nil || *tx.DestinationAccountID != *tx.SourceAccountID) {
		ids = append(ids, *tx.DestinationAccountID)
	}
	for _, id := range ids {
		s.byAccount[id] = insertOrdered(s.byAccount[id], tx)
	}
	s.count++
}

func compareTransactions(a, b *account.Transaction) int {
	if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
		return c
	}
	return slices.Compare(a.ID[:], b.ID[:])
}

// insertOrdered keeps list sorted. Appends normally arrive in order, so the
// walk back only covers out-of-order imports.
func insertOrdered(list []*account.Transaction, tx *account.Transaction) []*account.Transaction {
	i := len(list)
	for i > 0 && compareTransactions(list[i-1], tx) > 0 {
		i--
	}
	return slices.Insert(list, i, tx)
}

func filterSince(list []*account.Transaction, since time.Time) []*account.Transaction {
	out := make([]*account.Transaction, 0, len(list))
	for _, tx := range list {
		if since.IsZero() || tx.Timestamp.After(since) {
			out = append(out, tx.Clone())
		}
	}
	return out
}
