// Package ledger implements the balance-mutation engine: deposits, withdrawals
// and transfers under per-account locks, each committed together with its
// transaction record in one unit of work.
//
// Operation shape:
//
//  1. validate arguments (no lock, no I/O)
//  2. check the accounts exist (accounts are never deleted, so this cannot race)
//  3. acquire the account locks in canonical order, bounded by the lock timeout
//  4. detach from cancellation; past this point the operation runs to the end
//  5. in one unit of work: re-read, check status and floor, update, append
//  6. release the locks, publish the committed event
//
// The engine never retries. Busy and Conflict are reported to the caller.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/amirasaad/ledger/pkg/domain"
	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/domain/money"
	"github.com/amirasaad/ledger/pkg/eventbus"
	"github.com/amirasaad/ledger/pkg/lock"
	"github.com/amirasaad/ledger/pkg/repository"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Deps are the collaborators of a Service. Bus and Clock are optional.
type Deps struct {
	Uow    repository.UnitOfWork
	Locks  lock.Manager
	Bus    eventbus.Bus
	Logger *slog.Logger
	Clock  func() time.Time
}

// Service is the ledger engine.
type Service struct {
	uow    repository.UnitOfWork
	locks  lock.Manager
	bus    eventbus.Bus
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Service.
func New(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	return &Service{
		uow:    deps.Uow,
		locks:  deps.Locks,
		bus:    deps.Bus,
		logger: logger.With("service", "ledger"),
		now:    now,
	}
}

// Result is the outcome of a deposit or withdrawal.
type Result struct {
	Transaction *account.Transaction
	Balance     money.Amount
}

// TransferResult is the outcome of a transfer.
type TransferResult struct {
	Transaction        *account.Transaction
	SourceBalance      money.Amount
	DestinationBalance money.Amount
}

// Deposit credits amount to the account.
func (s *Service) Deposit(ctx context.Context, accountID uuid.UUID, amount money.Amount) (*Result, error) {
	logger := s.logger.With("op", "deposit", "account_id", accountID, "amount", amount.String())
	logger.Info("Deposit started")

	if err := account.ValidateAmount(amount); err != nil {
		logger.Warn("Deposit rejected: invalid amount", "error", err)
		return nil, err
	}

	var res *Result
	err := s.locked(ctx, []uuid.UUID{accountID}, func(ctx context.Context, uow repository.UnitOfWork) error {
		store, txLog, err := stores(uow)
		if err != nil {
			return err
		}
		acc, err := store.Get(ctx, accountID)
		if err != nil {
			return err
		}
		ts := s.commitTime(acc)
		updated, err := store.Update(ctx, accountID, acc.Version, func(a *account.Account) error {
			if err := a.Credit(amount); err != nil {
				return err
			}
			a.UpdatedAt = ts
			return nil
		})
		if err != nil {
			return err
		}
		tx := account.NewDeposit(updated, amount, ts)
		if err := txLog.Append(ctx, tx); err != nil {
			return err
		}
		res = &Result{Transaction: tx, Balance: updated.Balance}
		return nil
	})
	if err != nil {
		s.logFailure(logger, "Deposit", err)
		return nil, err
	}

	s.publish(ctx, account.TransactionCommitted{
		Transaction: res.Transaction,
		Balances:    map[uuid.UUID]money.Amount{accountID: res.Balance},
	})
	logger.Info("Deposit successful", "transaction_id", res.Transaction.ID, "balance", res.Balance.String())
	return res, nil
}

// Withdraw debits amount from the account if its floor allows it.
func (s *Service) Withdraw(ctx context.Context, accountID uuid.UUID, amount money.Amount) (*Result, error) {
	logger := s.logger.With("op", "withdraw", "account_id", accountID, "amount", amount.String())
	logger.Info("Withdraw started")

	if err := account.ValidateAmount(amount); err != nil {
		logger.Warn("Withdraw rejected: invalid amount", "error", err)
		return nil, err
	}

	var res *Result
	err := s.locked(ctx, []uuid.UUID{accountID}, func(ctx context.Context, uow repository.UnitOfWork) error {
		store, txLog, err := stores(uow)
		if err != nil {
			return err
		}
		acc, err := store.Get(ctx, accountID)
		if err != nil {
			return err
		}
		ts := s.commitTime(acc)
		updated, err := store.Update(ctx, accountID, acc.Version, func(a *account.Account) error {
			if err := a.Debit(amount); err != nil {
				return err
			}
			a.UpdatedAt = ts
			return nil
		})
		if err != nil {
			return err
		}
		tx := account.NewWithdraw(updated, amount, ts)
		if err := txLog.Append(ctx, tx); err != nil {
			return err
		}
		res = &Result{Transaction: tx, Balance: updated.Balance}
		return nil
	})
	if err != nil {
		s.logFailure(logger, "Withdraw", err)
		return nil, err
	}

	s.publish(ctx, account.TransactionCommitted{
		Transaction: res.Transaction,
		Balances:    map[uuid.UUID]money.Amount{accountID: res.Balance},
	})
	logger.Info("Withdraw successful", "transaction_id", res.Transaction.ID, "balance", res.Balance.String())
	return res, nil
}

// Transfer moves amount from sourceID to destID. The debit, the credit and
// the single TRANSFER record commit together or not at all.
func (s *Service) Transfer(
	ctx context.Context,
	sourceID, destID uuid.UUID,
	amount money.Amount,
) (*TransferResult, error) {
	logger := s.logger.With(
		"op", "transfer",
		"source_account_id", sourceID,
		"destination_account_id", destID,
		"amount", amount.String(),
	)
	logger.Info("Transfer started")

	if err := account.ValidateAmount(amount); err != nil {
		logger.Warn("Transfer rejected: invalid amount", "error", err)
		return nil, err
	}
	if sourceID == destID {
		logger.Warn("Transfer rejected: same account", "error", domain.ErrSameAccount)
		return nil, domain.ErrSameAccount
	}

	var res *TransferResult
	err := s.locked(ctx, []uuid.UUID{sourceID, destID}, func(ctx context.Context, uow repository.UnitOfWork) error {
		store, txLog, err := stores(uow)
		if err != nil {
			return err
		}
		src, err := store.Get(ctx, sourceID)
		if err != nil {
			return err
		}
		dst, err := store.Get(ctx, destID)
		if err != nil {
			return err
		}
		if err := src.EnsureActive(); err != nil {
			return err
		}
		if err := dst.EnsureActive(); err != nil {
			return err
		}
		ts := s.commitTime(src, dst)

		debited, err := store.Update(ctx, sourceID, src.Version, func(a *account.Account) error {
			if err := a.Debit(amount); err != nil {
				return err
			}
			a.UpdatedAt = ts
			return nil
		})
		if err != nil {
			return err
		}
		credited, err := store.Update(ctx, destID, dst.Version, func(a *account.Account) error {
			if err := a.Credit(amount); err != nil {
				return err
			}
			a.UpdatedAt = ts
			return nil
		})
		if err != nil {
			return err
		}
		tx := account.NewTransfer(debited, credited, amount, ts)
		if err := txLog.Append(ctx, tx); err != nil {
			return err
		}
		res = &TransferResult{
			Transaction:        tx,
			SourceBalance:      debited.Balance,
			DestinationBalance: credited.Balance,
		}
		return nil
	})
	if err != nil {
		s.logFailure(logger, "Transfer", err)
		return nil, err
	}

	s.publish(ctx, account.TransactionCommitted{
		Transaction: res.Transaction,
		Balances: map[uuid.UUID]money.Amount{
			sourceID: res.SourceBalance,
			destID:   res.DestinationBalance,
		},
	})
	logger.Info("Transfer successful",
		"transaction_id", res.Transaction.ID,
		"source_balance", res.SourceBalance.String(),
		"destination_balance", res.DestinationBalance.String(),
	)
	return res, nil
}

// GetBalance returns the last committed balance. It takes no lock.
//
// Every call does its own store read, so the result never predates a commit
// that returned before the call started.
func (s *Service) GetBalance(ctx context.Context, accountID uuid.UUID) (money.Amount, error) {
	acc, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return money.Zero, err
	}
	return acc.Balance, nil
}

// GetAccount returns a snapshot of the committed account.
func (s *Service) GetAccount(ctx context.Context, accountID uuid.UUID) (*account.Account, error) {
	store, err := s.uow.AccountStore()
	if err != nil {
		return nil, err
	}
	return store.Get(ctx, accountID)
}

// GetHistory lists the account's transactions with a timestamp after since,
// oldest first. A zero since lists everything.
func (s *Service) GetHistory(ctx context.Context, accountID uuid.UUID, since time.Time) ([]*account.Transaction, error) {
	if _, err := s.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	txLog, err := s.uow.TransactionLog()
	if err != nil {
		return nil, err
	}
	return txLog.ListByAccount(ctx, accountID, since)
}

// SetStatus moves the account to status. No money moves, so no transaction
// is recorded.
func (s *Service) SetStatus(ctx context.Context, accountID uuid.UUID, status account.Status) (*account.Account, error) {
	logger := s.logger.With("op", "set_status", "account_id", accountID, "status", status)
	logger.Info("SetStatus started")

	if _, err := account.ParseStatus(string(status)); err != nil {
		logger.Warn("SetStatus rejected: invalid status", "error", err)
		return nil, err
	}

	var (
		from    account.Status
		updated *account.Account
	)
	err := s.locked(ctx, []uuid.UUID{accountID}, func(ctx context.Context, uow repository.UnitOfWork) error {
		store, err := uow.AccountStore()
		if err != nil {
			return err
		}
		acc, err := store.Get(ctx, accountID)
		if err != nil {
			return err
		}
		from = acc.Status
		ts := s.commitTime(acc)
		updated, err = store.Update(ctx, accountID, acc.Version, func(a *account.Account) error {
			if err := a.TransitionTo(status); err != nil {
				return err
			}
			a.UpdatedAt = ts
			return nil
		})
		return err
	})
	if err != nil {
		s.logFailure(logger, "SetStatus", err)
		return nil, err
	}

	s.publish(ctx, account.StatusChanged{
		AccountID: accountID,
		From:      from,
		To:        updated.Status,
		ChangedAt: updated.UpdatedAt,
	})
	logger.Info("SetStatus successful", "from", from)
	return updated, nil
}

// locked runs fn in a unit of work while holding the locks of ids.
func (s *Service) locked(
	ctx context.Context,
	ids []uuid.UUID,
	fn func(ctx context.Context, uow repository.UnitOfWork) error,
) error {
	store, err := s.uow.AccountStore()
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		g.Go(func() error {
			_, err := store.Get(gctx, id)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	h, err := s.locks.Acquire(ctx, ids...)
	if err != nil {
		return err
	}
	defer h.Release()

	ctx = context.WithoutCancel(ctx)
	return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		return fn(ctx, uow)
	})
}

// commitTime is the timestamp for a commit touching accs, strictly after
// every earlier commit on each of them.
func (s *Service) commitTime(accs ...*account.Account) time.Time {
	prev := make([]time.Time, 0, len(accs))
	for _, a := range accs {
		prev = append(prev, a.UpdatedAt)
	}
	return account.NextTimestamp(s.now(), prev...)
}

// publish emits a post-commit event. The commit already happened, so a
// failure is logged and otherwise ignored.
func (s *Service) publish(ctx context.Context, e eventbus.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Emit(context.WithoutCancel(ctx), e); err != nil {
		s.logger.Error("Failed to publish event", "type", e.Type(), "error", err)
	}
}

func (s *Service) logFailure(logger *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrStorageFailure):
		logger.Error(op+" failed: storage error", "error", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.Info(op+" abandoned: context done before locks were held", "error", err)
	default:
		logger.Warn(op+" rejected", "error", err)
	}
}

func stores(uow repository.UnitOfWork) (repository.AccountStore, repository.TransactionLog, error) {
	store, err := uow.AccountStore()
	if err != nil {
		return nil, nil, err
	}
	txLog, err := uow.TransactionLog()
	if err != nil {
		return nil, nil, err
	}
	return store, txLog, nil
}
