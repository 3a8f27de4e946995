package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amirasaad/ledger/pkg/domain"
	"github.com/google/uuid"
)

// slot is a one-token semaphore. refs counts holders and waiters so idle
// slots can be dropped from the map.
type slot struct {
	ch   chan struct{}
	refs int
}

// Local is an in-process Manager.
type Local struct {
	mu      sync.Mutex
	slots   map[uuid.UUID]*slot
	timeout time.Duration
}

// NewLocal creates a Local manager whose Acquire gives up after timeout.
func NewLocal(timeout time.Duration) *Local {
	return &Local{
		slots:   make(map[uuid.UUID]*slot),
		timeout: timeout,
	}
}

func (m *Local) ref(id uuid.UUID) *slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		m.slots[id] = s
	}
	s.refs++
	return s
}

func (m *Local) unref(id uuid.UUID, s *slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(m.slots, id)
	}
}

// Acquire takes every id in canonical order.
func (m *Local) Acquire(ctx context.Context, ids ...uuid.UUID) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ordered := Canonical(ids)
	timer := time.NewTimer(m.timeout)
	defer timer.Stop()

	h := &localHandle{m: m}
	for _, id := range ordered {
		s := m.ref(id)
		select {
		case s.ch <- struct{}{}:
			h.held = append(h.held, held{id: id, slot: s})
		case <-ctx.Done():
			m.unref(id, s)
			h.Release()
			return nil, ctx.Err()
		case <-timer.C:
			m.unref(id, s)
			h.Release()
			return nil, fmt.Errorf("%w: timed out after %s waiting for account %s", domain.ErrBusy, m.timeout, id)
		}
	}
	return h, nil
}

// Held reports how many accounts currently have a holder or waiter.
func (m *Local) Held() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}

var _ Manager = (*Local)(nil)

type held struct {
	id   uuid.UUID
	slot *slot
}

type localHandle struct {
	m    *Local
	once sync.Once
	held []held
}

func (h *localHandle) Release() {
	h.once.Do(func() {
		for i := len(h.held) - 1; i >= 0; i-- {
			<-h.held[i].slot.ch
			h.m.unref(h.held[i].id, h.held[i].slot)
		}
		h.held = nil
	})
}
