package app

import (
	"context"
	"log/slog"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/eventbus"
)

// setupEventBus registers the in-process event handlers.
func (a *App) setupEventBus() {
	bus := a.Deps.EventBus
	if bus == nil {
		return
	}
	logger := a.Deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("handler", "audit")

	bus.Register(account.EventTransactionCommitted, auditTransaction(logger))
	bus.Register(account.EventAccountOpened, auditAccountOpened(logger))
	bus.Register(account.EventStatusChanged, auditStatusChanged(logger))
}

func auditTransaction(logger *slog.Logger) eventbus.HandlerFunc {
	return func(ctx context.Context, e eventbus.Event) error {
		evt, ok := e.(account.TransactionCommitted)
		if !ok || evt.Transaction == nil {
			logger.Warn("unexpected event payload", "type", e.Type())
			return nil
		}
		tx := evt.Transaction
		logger.InfoContext(ctx, "transaction committed",
			"transaction_id", tx.ID,
			"kind", tx.Kind,
			"amount", tx.Amount.String(),
			"timestamp", tx.Timestamp,
		)
		return nil
	}
}

func auditAccountOpened(logger *slog.Logger) eventbus.HandlerFunc {
	return func(ctx context.Context, e eventbus.Event) error {
		if evt, ok := e.(account.AccountOpened); ok {
			logger.InfoContext(ctx, "account opened",
				"account_id", evt.AccountID,
				"type", evt.AccountType,
				"initial_balance", evt.InitialBalance.String(),
			)
		}
		return nil
	}
}

func auditStatusChanged(logger *slog.Logger) eventbus.HandlerFunc {
	return func(ctx context.Context, e eventbus.Event) error {
		if evt, ok := e.(account.StatusChanged); ok {
			logger.InfoContext(ctx, "account status changed",
				"account_id", evt.AccountID,
				"from", evt.From,
				"to", evt.To,
			)
		}
		return nil
	}
}
