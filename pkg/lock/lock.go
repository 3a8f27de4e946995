// Package lock serializes mutations per account.
//
// Every Manager takes the locks for one operation in a single canonical order
// (UUID byte order, equal to the lexicographic order of the canonical string
// form). Two operations that share accounts therefore always contend on the
// same first lock, which rules out deadlock between transfers running in
// opposite directions.
package lock

import (
	"bytes"
	"context"
	"slices"

	"github.com/google/uuid"
)

// Handle releases the locks taken by one Acquire. Release is idempotent.
type Handle interface {
	Release()
}

// Manager grants exclusive access to a set of accounts.
type Manager interface {
	// Acquire blocks until every id is held, the manager's wait bound elapses
	// (domain.ErrBusy) or ctx is done (ctx.Err()). On failure nothing is held.
	Acquire(ctx context.Context, ids ...uuid.UUID) (Handle, error)
}

// Canonical returns ids without duplicates, sorted in acquisition order.
func Canonical(ids []uuid.UUID) []uuid.UUID {
	out := slices.Clone(ids)
	slices.SortFunc(out, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	return slices.Compact(out)
}
