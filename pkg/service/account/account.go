// Package account provisions accounts. Balance mutations belong to the
// ledger service; this package only opens accounts and reads their details.
package account

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/domain/money"
	"github.com/amirasaad/ledger/pkg/eventbus"
	"github.com/amirasaad/ledger/pkg/repository"
	"github.com/google/uuid"
)

// Deps are the collaborators of a Service. Bus and Clock are optional.
type Deps struct {
	Uow    repository.UnitOfWork
	Bus    eventbus.Bus
	Logger *slog.Logger
	Clock  func() time.Time
}

// Service opens accounts.
type Service struct {
	uow    repository.UnitOfWork
	bus    eventbus.Bus
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new Service with the provided dependencies.
func NewService(deps Deps) *Service {
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
		bus:    deps.Bus,
		logger: logger.With("service", "account"),
		now:    now,
	}
}

// OpenRequest describes a new account.
type OpenRequest struct {
	OwnerRef       uuid.UUID
	Type           account.Type
	InitialBalance money.Amount
}

// Open creates an ACTIVE account. A positive initial balance is recorded as
// an opening DEPOSIT in the same unit of work, so the account's history
// always explains its balance.
func (s *Service) Open(ctx context.Context, req OpenRequest) (a *account.Account, err error) {
	logger := s.logger.With("owner_ref", req.OwnerRef, "type", req.Type, "initial_balance", req.InitialBalance.String())
	logger.Info("Open started")

	if req.Type == "" {
		req.Type = account.TypeChecking
	}
	opened := account.NextTimestamp(s.now())
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		store, err := uow.AccountStore()
		if err != nil {
			return err
		}
		a, err = account.New().
			WithOwnerRef(req.OwnerRef).
			WithType(req.Type).
			WithBalance(req.InitialBalance).
			WithCreatedAt(opened).
			WithUpdatedAt(opened).
			Build()
		if err != nil {
			return err
		}
		if err := store.Create(ctx, a); err != nil {
			return err
		}
		if !req.InitialBalance.IsPositive() {
			return nil
		}
		txLog, err := uow.TransactionLog()
		if err != nil {
			return err
		}
		return txLog.Append(ctx, account.NewDeposit(a, req.InitialBalance, opened))
	})
	if err != nil {
		logger.Error("Open failed", "error", err)
		return nil, err
	}

	if s.bus != nil {
		evt := account.AccountOpened{
			AccountID:      a.ID,
			OwnerRef:       a.OwnerRef,
			AccountType:    a.Type,
			InitialBalance: a.Balance,
			OpenedAt:       a.CreatedAt,
		}
		if err := s.bus.Emit(context.WithoutCancel(ctx), evt); err != nil {
			logger.Error("Failed to publish event", "type", evt.Type(), "error", err)
		}
	}
	logger.Info("Open successful", "account_id", a.ID)
	return a, nil
}
