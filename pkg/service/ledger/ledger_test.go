package ledger_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/amirasaad/ledger/infra/eventbus"
	"github.com/amirasaad/ledger/infra/repository/memory"
	"github.com/amirasaad/ledger/pkg/domain"
	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/domain/money"
	"github.com/amirasaad/ledger/pkg/lock"
	"github.com/amirasaad/ledger/pkg/repository"
	"github.com/amirasaad/ledger/pkg/service/ledger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	svc   *ledger.Service
	uow   *memory.UoW
	locks *lock.Local
	bus   *eventbus.MemoryEventBus
}

func newFixture(t *testing.T, opts ...func(*ledger.Deps)) *fixture {
	t.Helper()
	f := &fixture{
		uow:   memory.NewUoW(memory.New()),
		locks: lock.NewLocal(time.Second),
		bus:   eventbus.NewWithMemory(discard),
	}
	deps := ledger.Deps{Uow: f.uow, Locks: f.locks, Bus: f.bus, Logger: discard}
	for _, opt := range opts {
		opt(&deps)
	}
	if l, ok := deps.Locks.(*lock.Local); ok {
		f.locks = l
	}
	f.svc = ledger.New(deps)
	return f
}

// seed stores an account directly, without an opening transaction, so
// history assertions count only what the test does.
func (f *fixture) seed(t *testing.T, typ account.Type, balance string) uuid.UUID {
	t.Helper()
	a, err := account.New().
		WithOwnerRef(uuid.New()).
		WithType(typ).
		WithBalance(money.MustParse(balance)).
		Build()
	require.NoError(t, err)
	store, err := f.uow.AccountStore()
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), a))
	return a.ID
}

func (f *fixture) balance(t *testing.T, id uuid.UUID) money.Amount {
	t.Helper()
	b, err := f.svc.GetBalance(context.Background(), id)
	require.NoError(t, err)
	return b
}

func (f *fixture) history(t *testing.T, id uuid.UUID) []*account.Transaction {
	t.Helper()
	h, err := f.svc.GetHistory(context.Background(), id, time.Time{})
	require.NoError(t, err)
	return h
}

func (f *fixture) setStatus(t *testing.T, id uuid.UUID, s account.Status) {
	t.Helper()
	_, err := f.svc.SetStatus(context.Background(), id, s)
	require.NoError(t, err)
}

func TestDeposit(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	id := f.seed(t, account.TypeChecking, "1000.00")

	res, err := f.svc.Deposit(context.Background(), id, money.MustParse("500.00"))
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("1500.00"), res.Balance)
	assert.Equal(t, money.MustParse("1500.00"), f.balance(t, id))

	h := f.history(t, id)
	require.Len(t, h, 1)
	tx := h[0]
	assert.Equal(t, res.Transaction.ID, tx.ID)
	assert.Equal(t, account.KindDeposit, tx.Kind)
	assert.Equal(t, account.TransactionCompleted, tx.Status)
	assert.Equal(t, money.MustParse("500.00"), tx.Amount)
	assert.Nil(t, tx.SourceAccountID)
	require.NotNil(t, tx.DestinationAccountID)
	assert.Equal(t, id, *tx.DestinationAccountID)
	require.NotNil(t, tx.DestinationBalanceAfter)
	assert.Equal(t, money.MustParse("1500.00"), *tx.DestinationBalanceAfter)
}

func TestWithdraw(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	id := f.seed(t, account.TypeChecking, "100.00")

	res, err := f.svc.Withdraw(context.Background(), id, money.MustParse("40.00"))
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("60.00"), res.Balance)

	h := f.history(t, id)
	require.Len(t, h, 1)
	assert.Equal(t, account.KindWithdraw, h[0].Kind)
	require.NotNil(t, h[0].SourceAccountID)
	assert.Equal(t, id, *h[0].SourceAccountID)
}

func TestWithdraw_InsufficientFunds(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	id := f.seed(t, account.TypeChecking, "100.00")

	_, err := f.svc.Withdraw(context.Background(), id, money.MustParse("500.00"))
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	assert.Equal(t, money.MustParse("100.00"), f.balance(t, id))
	assert.Empty(t, f.history(t, id))
	assert.Empty(t, f.bus.Published())
}

func TestWithdraw_SavingsFloor(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	id := f.seed(t, account.TypeSavings, "150.00")

	_, err := f.svc.Withdraw(context.Background(), id, money.MustParse("50.01"))
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	res, err := f.svc.Withdraw(context.Background(), id, money.MustParse("50.00"))
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("100.00"), res.Balance)
}

func TestTransfer(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	a := f.seed(t, account.TypeChecking, "1000.00")
	b := f.seed(t, account.TypeChecking, "500.00")

	res, err := f.svc.Transfer(context.Background(), a, b, money.MustParse("300.00"))
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("700.00"), res.SourceBalance)
	assert.Equal(t, money.MustParse("800.00"), res.DestinationBalance)
	assert.Equal(t, money.MustParse("700.00"), f.balance(t, a))
	assert.Equal(t, money.MustParse("800.00"), f.balance(t, b))

	ha, hb := f.history(t, a), f.history(t, b)
	require.Len(t, ha, 1)
	require.Len(t, hb, 1)
	assert.Equal(t, ha[0].ID, hb[0].ID)

	tx := ha[0]
	assert.Equal(t, account.KindTransfer, tx.Kind)
	assert.Equal(t, account.TransactionCompleted, tx.Status)
	assert.Equal(t, money.MustParse("300.00"), tx.Amount)
	assert.Equal(t, a, *tx.SourceAccountID)
	assert.Equal(t, b, *tx.DestinationAccountID)
	assert.Equal(t, money.MustParse("-300.00"), tx.Delta(a))
	assert.Equal(t, money.MustParse("300.00"), tx.Delta(b))
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	a := f.seed(t, account.TypeSavings, "150.00")
	b := f.seed(t, account.TypeChecking, "20.00")

	_, err := f.svc.Transfer(context.Background(), a, b, money.MustParse("50.01"))
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	assert.Equal(t, money.MustParse("150.00"), f.balance(t, a))
	assert.Equal(t, money.MustParse("20.00"), f.balance(t, b))
	assert.Empty(t, f.history(t, a))
	assert.Empty(t, f.history(t, b))
	assert.Empty(t, f.bus.Published())
	assert.Equal(t, 0, f.locks.Held())
}

// stallingUoW holds the first committed-state read of one account until
// release is closed, after signalling on stalled.
type stallingUoW struct {
	repository.UnitOfWork
	target  uuid.UUID
	once    sync.Once
	stalled chan struct{}
	release chan struct{}
}

func (u *stallingUoW) AccountStore() (repository.AccountStore, error) {
	store, err := u.UnitOfWork.AccountStore()
	if err != nil {
		return nil, err
	}
	return &stallingStore{AccountStore: store, uow: u}, nil
}

type stallingStore struct {
	repository.AccountStore
	uow *stallingUoW
}

func (s *stallingStore) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	acc, err := s.AccountStore.Get(ctx, id)
	if id == s.uow.target {
		s.uow.once.Do(func() {
			close(s.uow.stalled)
			<-s.uow.release
		})
	}
	return acc, err
}

func TestGetBalance_AfterCommitSeesCommit(t *testing.T) {
	t.Parallel()
	var slow *stallingUoW
	f := newFixture(t, func(d *ledger.Deps) {
		slow = &stallingUoW{
			UnitOfWork: d.Uow,
			stalled:    make(chan struct{}),
			release:    make(chan struct{}),
		}
		d.Uow = slow
	})
	ctx := context.Background()
	a := f.seed(t, account.TypeChecking, "1000.00")
	b := f.seed(t, account.TypeChecking, "500.00")
	slow.target = b

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		// Started before the transfer, so the old balance is a valid answer.
		_, err := f.svc.GetBalance(ctx, b)
		assert.NoError(t, err)
	}()
	<-slow.stalled

	_, err := f.svc.Transfer(ctx, a, b, money.MustParse("300.00"))
	require.NoError(t, err)

	time.AfterFunc(100*time.Millisecond, func() { close(slow.release) })
	balA, err := f.svc.GetBalance(ctx, a)
	require.NoError(t, err)
	balB, err := f.svc.GetBalance(ctx, b)
	require.NoError(t, err)
	wg.Wait()

	assert.Equal(t, money.MustParse("700.00"), balA)
	assert.Equal(t, money.MustParse("800.00"), balB)
	assert.Equal(t, money.MustParse("1500.00"), balA+balB)
}

func TestInvalidArguments(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	a := f.seed(t, account.TypeChecking, "100.00")
	b := f.seed(t, account.TypeChecking, "100.00")
	ctx := context.Background()

	tests := []struct {
		name string
		op   func() error
		want error
	}{
		{"negative deposit", func() error {
			_, err := f.svc.Deposit(ctx, a, money.MustParse("-5"))
			return err
		}, domain.ErrInvalidArgument},
		{"zero deposit", func() error {
			_, err := f.svc.Deposit(ctx, a, money.Zero)
			return err
		}, domain.ErrInvalidArgument},
		{"zero withdraw", func() error {
			_, err := f.svc.Withdraw(ctx, a, money.Zero)
			return err
		}, domain.ErrInvalidArgument},
		{"negative transfer", func() error {
			_, err := f.svc.Transfer(ctx, a, b, money.MustParse("-1"))
			return err
		}, domain.ErrInvalidArgument},
		{"same account", func() error {
			_, err := f.svc.Transfer(ctx, a, a, money.MustParse("10"))
			return err
		}, domain.ErrSameAccount},
		{"unknown account", func() error {
			_, err := f.svc.Deposit(ctx, uuid.New(), money.MustParse("10"))
			return err
		}, domain.ErrNotFound},
		{"unknown transfer destination", func() error {
			_, err := f.svc.Transfer(ctx, a, uuid.New(), money.MustParse("10"))
			return err
		}, domain.ErrNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, tc.op(), tc.want)
		})
	}

	assert.Equal(t, money.MustParse("100.00"), f.balance(t, a))
	assert.Equal(t, money.MustParse("100.00"), f.balance(t, b))
	assert.Empty(t, f.history(t, a))
	assert.Empty(t, f.history(t, b))
	assert.Equal(t, 0, f.locks.Held())
}

func TestInactiveAccounts(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	active := f.seed(t, account.TypeChecking, "100.00")
	blocked := f.seed(t, account.TypeChecking, "100.00")
	closed := f.seed(t, account.TypeChecking, "100.00")
	f.setStatus(t, blocked, account.StatusBlocked)
	f.setStatus(t, closed, account.StatusClosed)

	_, err := f.svc.Deposit(ctx, blocked, money.MustParse("1"))
	require.ErrorIs(t, err, domain.ErrAccountNotActive)
	_, err = f.svc.Withdraw(ctx, closed, money.MustParse("1"))
	require.ErrorIs(t, err, domain.ErrAccountNotActive)
	_, err = f.svc.Transfer(ctx, active, blocked, money.MustParse("1"))
	require.ErrorIs(t, err, domain.ErrAccountNotActive)
	_, err = f.svc.Transfer(ctx, closed, active, money.MustParse("1"))
	require.ErrorIs(t, err, domain.ErrAccountNotActive)

	for _, id := range []uuid.UUID{active, blocked, closed} {
		assert.Equal(t, money.MustParse("100.00"), f.balance(t, id))
		assert.Empty(t, f.history(t, id))
	}

	_, err = f.svc.SetStatus(ctx, closed, account.StatusActive)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	f.setStatus(t, blocked, account.StatusActive)
	_, err = f.svc.Deposit(ctx, blocked, money.MustParse("1"))
	require.NoError(t, err)
}

func TestEventsPublished(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	a := f.seed(t, account.TypeChecking, "100.00")
	b := f.seed(t, account.TypeChecking, "0")

	_, err := f.svc.Transfer(context.Background(), a, b, money.MustParse("25"))
	require.NoError(t, err)
	f.setStatus(t, b, account.StatusBlocked)

	events := f.bus.Published()
	require.Len(t, events, 2)

	committed, ok := events[0].(account.TransactionCommitted)
	require.True(t, ok)
	assert.Equal(t, account.KindTransfer, committed.Transaction.Kind)
	assert.Equal(t, money.MustParse("75"), committed.Balances[a])
	assert.Equal(t, money.MustParse("25"), committed.Balances[b])

	changed, ok := events[1].(account.StatusChanged)
	require.True(t, ok)
	assert.Equal(t, account.StatusActive, changed.From)
	assert.Equal(t, account.StatusBlocked, changed.To)
}

func TestTimestampsStrictlyIncrease(t *testing.T) {
	t.Parallel()
	frozen := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, func(d *ledger.Deps) {
		d.Clock = func() time.Time { return frozen }
	})
	a := f.seed(t, account.TypeChecking, "100.00")
	b := f.seed(t, account.TypeChecking, "100.00")
	ctx := context.Background()

	for range 5 {
		_, err := f.svc.Deposit(ctx, a, money.MustParse("1"))
		require.NoError(t, err)
		_, err = f.svc.Transfer(ctx, b, a, money.MustParse("1"))
		require.NoError(t, err)
	}

	h := f.history(t, a)
	require.Len(t, h, 10)
	for i := 1; i < len(h); i++ {
		assert.True(t, h[i].Timestamp.After(h[i-1].Timestamp), "entry %d not after entry %d", i, i-1)
	}

	since, err := f.svc.GetHistory(ctx, a, h[4].Timestamp)
	require.NoError(t, err)
	assert.Len(t, since, 5)
	assert.Equal(t, h[5].ID, since[0].ID)
}

func TestGetHistory_UnknownAccount(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	_, err := f.svc.GetHistory(context.Background(), uuid.New(), time.Time{})
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.GetBalance(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBusyWhenLockHeld(t *testing.T) {
	t.Parallel()
	f := newFixture(t, func(d *ledger.Deps) {
		d.Locks = lock.NewLocal(20 * time.Millisecond)
	})
	a := f.seed(t, account.TypeChecking, "100.00")
	b := f.seed(t, account.TypeChecking, "100.00")

	h, err := f.locks.Acquire(context.Background(), b)
	require.NoError(t, err)

	start := time.Now()
	_, err = f.svc.Transfer(context.Background(), a, b, money.MustParse("10"))
	require.ErrorIs(t, err, domain.ErrBusy)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, 1, f.locks.Held(), "lock on the free account must not leak")

	h.Release()
	assert.Equal(t, money.MustParse("100.00"), f.balance(t, a))
	assert.Equal(t, money.MustParse("100.00"), f.balance(t, b))
	assert.Empty(t, f.history(t, a))

	_, err = f.svc.Transfer(context.Background(), a, b, money.MustParse("10"))
	require.NoError(t, err)
}

func TestCancelWhileWaitingForLock(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	id := f.seed(t, account.TypeChecking, "100.00")

	h, err := f.locks.Acquire(context.Background(), id)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Deposit(ctx, id, money.MustParse("10"))
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("deposit did not observe cancellation")
	}
	h.Release()

	assert.Equal(t, money.MustParse("100.00"), f.balance(t, id))
	assert.Empty(t, f.history(t, id))
}

func TestCancelledBeforeStart(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	id := f.seed(t, account.TypeChecking, "100.00")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.svc.Deposit(ctx, id, money.MustParse("10"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.history(t, id))
}

// cancellingUoW cancels the caller's context as soon as the unit of work
// starts, i.e. after the locks are held.
type cancellingUoW struct {
	*memory.UoW
	cancel context.CancelFunc
}

func (u *cancellingUoW) Do(ctx context.Context, fn func(repository.UnitOfWork) error) error {
	u.cancel()
	return u.UoW.Do(ctx, fn)
}

func TestCancelAfterLocksHeldCompletes(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	id := f.seed(t, account.TypeChecking, "100.00")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := ledger.New(ledger.Deps{
		Uow:    &cancellingUoW{UoW: f.uow, cancel: cancel},
		Locks:  f.locks,
		Logger: discard,
	})

	res, err := svc.Deposit(ctx, id, money.MustParse("10"))
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("110.00"), res.Balance)
	assert.Len(t, f.history(t, id), 1)
}

// failingLogUoW wraps a unit of work so that appends fail.
type failingLogUoW struct {
	repository.UnitOfWork
}

func (u failingLogUoW) Do(ctx context.Context, fn func(repository.UnitOfWork) error) error {
	return u.UnitOfWork.Do(ctx, func(inner repository.UnitOfWork) error {
		return fn(failingLogUoW{inner})
	})
}

func (u failingLogUoW) TransactionLog() (repository.TransactionLog, error) {
	return failingLog{}, nil
}

type failingLog struct{}

func (failingLog) Append(context.Context, *account.Transaction) error {
	return domain.StorageError(errors.New("disk full"))
}

func (failingLog) ListByAccount(context.Context, uuid.UUID, time.Time) ([]*account.Transaction, error) {
	return nil, nil
}

func TestAppendFailureRollsBack(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	a := f.seed(t, account.TypeChecking, "100.00")
	b := f.seed(t, account.TypeChecking, "100.00")
	svc := ledger.New(ledger.Deps{
		Uow:    failingLogUoW{f.uow},
		Locks:  f.locks,
		Bus:    f.bus,
		Logger: discard,
	})

	_, err := svc.Transfer(context.Background(), a, b, money.MustParse("30"))
	require.ErrorIs(t, err, domain.ErrStorageFailure)
	_, err = svc.Deposit(context.Background(), a, money.MustParse("30"))
	require.ErrorIs(t, err, domain.ErrStorageFailure)

	assert.Equal(t, money.MustParse("100.00"), f.balance(t, a))
	assert.Equal(t, money.MustParse("100.00"), f.balance(t, b))
	assert.Empty(t, f.history(t, a))
	assert.Empty(t, f.history(t, b))
	assert.Empty(t, f.bus.Published())
	assert.Equal(t, 0, f.locks.Held())
}

func TestConcurrentDeposits(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	id := f.seed(t, account.TypeChecking, "0")

	const n = 100
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Deposit(context.Background(), id, money.MustParse("1.00"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, money.MustParse("100.00"), f.balance(t, id))
	assert.Len(t, f.history(t, id), n)
}

func TestOppositeTransfersDoNotDeadlock(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	a := f.seed(t, account.TypeChecking, "1000.00")
	b := f.seed(t, account.TypeChecking, "1000.00")

	const n = 50
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.svc.Transfer(context.Background(), a, b, money.MustParse("1"))
			assert.NoError(t, err, "a->b #%d", i)
		}()
		go func() {
			defer wg.Done()
			_, err := f.svc.Transfer(context.Background(), b, a, money.MustParse("2"))
			assert.NoError(t, err, "b->a #%d", i)
		}()
	}
	wg.Wait()

	assert.Equal(t, money.MustParse("1050.00"), f.balance(t, a))
	assert.Equal(t, money.MustParse("950.00"), f.balance(t, b))
}

func TestConservationUnderConcurrency(t *testing.T) {
	t.Parallel()
	f := newFixture(t, func(d *ledger.Deps) {
		d.Locks = lock.NewLocal(5 * time.Second)
	})
	ctx := context.Background()

	ids := make([]uuid.UUID, 4)
	initial := make(map[uuid.UUID]money.Amount, len(ids))
	for i := range ids {
		ids[i] = f.seed(t, account.TypeChecking, "100.00")
		initial[ids[i]] = money.MustParse("100.00")
	}

	var (
		mu        sync.Mutex
		deposited money.Amount
		withdrawn money.Amount
		wg        sync.WaitGroup
	)
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := rand.New(rand.NewPCG(uint64(w), 42))
			for range 50 {
				amt := money.FromMinor(r.Int64N(5000) + 1)
				src := ids[r.IntN(len(ids))]
				dst := ids[r.IntN(len(ids))]
				switch r.IntN(3) {
				case 0:
					if _, err := f.svc.Deposit(ctx, src, amt); err == nil {
						mu.Lock()
						deposited += amt
						mu.Unlock()
					}
				case 1:
					if _, err := f.svc.Withdraw(ctx, src, amt); err == nil {
						mu.Lock()
						withdrawn += amt
						mu.Unlock()
					} else {
						assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
					}
				default:
					_, err := f.svc.Transfer(ctx, src, dst, amt)
					if err != nil && !errors.Is(err, domain.ErrInsufficientFunds) {
						assert.ErrorIs(t, err, domain.ErrSameAccount)
					}
				}
			}
		}()
	}
	wg.Wait()

	var start, end money.Amount
	for _, id := range ids {
		start += initial[id]
		bal := f.balance(t, id)
		end += bal
		assert.False(t, bal.IsNegative())

		replayed := initial[id]
		for _, tx := range f.history(t, id) {
			replayed += tx.Delta(id)
		}
		assert.Equal(t, bal, replayed, "history of %s does not explain its balance", id)
	}
	assert.Equal(t, start+deposited-withdrawn, end)
	assert.Equal(t, 0, f.locks.Held())
}

// A reader must never see a transfer half applied: once the record is
// visible the destination credit is too, and vice versa.
func TestTransferVisibleAtomically(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	a := f.seed(t, account.TypeChecking, "1000.00")
	b := f.seed(t, account.TypeChecking, "0")
	amt := money.MustParse("1.00")

	transfersInto := func() int64 {
		n := int64(0)
		for _, tx := range f.history(t, b) {
			if tx.Kind == account.KindTransfer {
				n++
			}
		}
		return n
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 200 {
			_, err := f.svc.Transfer(ctx, a, b, amt)
			assert.NoError(t, err)
		}
		close(done)
	}()

	for {
		select {
		case <-done:
			wg.Wait()
			assert.Equal(t, money.MustParse("200.00"), f.balance(t, b))
			assert.Equal(t, int64(200), transfersInto())
			return
		default:
		}

		seen := transfersInto()
		bal := f.balance(t, b)
		require.GreaterOrEqual(t, bal.Minor(), seen*amt.Minor(), "record visible before its credit")

		bal = f.balance(t, b)
		seen = transfersInto()
		require.GreaterOrEqual(t, seen*amt.Minor(), bal.Minor(), "credit visible before its record")
	}
}
