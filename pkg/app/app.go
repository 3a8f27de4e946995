package app

import (
	"errors"
	"log/slog"

	"github.com/amirasaad/ledger/pkg/config"
	"github.com/amirasaad/ledger/pkg/eventbus"
	"github.com/amirasaad/ledger/pkg/lock"
	"github.com/amirasaad/ledger/pkg/repository"
	"github.com/amirasaad/ledger/pkg/service/account"
	"github.com/amirasaad/ledger/pkg/service/ledger"
)

// Deps contains the infrastructure the services are built on.
type Deps struct {
	Uow      repository.UnitOfWork
	Locks    lock.Manager
	EventBus eventbus.Bus
	Logger   *slog.Logger
	// Closers release connections opened for the deps, in reverse order.
	Closers []func() error
}

type App struct {
	Deps           *Deps
	Config         *config.App
	LedgerService  *ledger.Service
	AccountService *account.Service
}

func New(deps *Deps, cfg *config.App) *App {
	app := &App{
		Deps:   deps,
		Config: cfg,
	}
	app.setupEventBus()

	app.LedgerService = ledger.New(ledger.Deps{
		Uow:    deps.Uow,
		Locks:  deps.Locks,
		Bus:    deps.EventBus,
		Logger: deps.Logger,
	})
	app.AccountService = account.NewService(account.Deps{
		Uow:    deps.Uow,
		Bus:    deps.EventBus,
		Logger: deps.Logger,
	})
	return app
}

// Close releases everything in Deps.Closers.
func (a *App) Close() error {
	var errs []error
	for i := len(a.Deps.Closers) - 1; i >= 0; i-- {
		if err := a.Deps.Closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
