package initializer

import (
	"fmt"
	"log/slog"

	"github.com/amirasaad/ledger/infra"
	infra_eventbus "github.com/amirasaad/ledger/infra/eventbus"
	infra_lock "github.com/amirasaad/ledger/infra/lock"
	infra_repository "github.com/amirasaad/ledger/infra/repository"
	"github.com/amirasaad/ledger/infra/repository/memory"
	"github.com/amirasaad/ledger/pkg/app"
	"github.com/amirasaad/ledger/pkg/config"
	"github.com/amirasaad/ledger/pkg/eventbus"
	"github.com/amirasaad/ledger/pkg/lock"
	"github.com/amirasaad/ledger/pkg/repository"
	"github.com/redis/go-redis/v9"
)

// InitializeDependencies initializes all the application dependencies
func InitializeDependencies(cfg *config.App) (
	deps *app.Deps,
	err error,
) {
	return initialize(cfg, setupLogger(cfg.Log))
}

func initialize(cfg *config.App, logger *slog.Logger) (deps *app.Deps, err error) {
	deps = &app.Deps{Logger: logger}
	defer func() {
		if err != nil {
			// Close whatever was opened before the failure.
			_ = (&app.App{Deps: deps}).Close()
			deps = nil
		}
	}()

	deps.Uow, err = initStore(cfg, deps, logger)
	if err != nil {
		return deps, fmt.Errorf("failed to initialize store: %w", err)
	}

	deps.Locks, err = initLocks(cfg, deps, logger)
	if err != nil {
		return deps, fmt.Errorf("failed to initialize lock manager: %w", err)
	}

	deps.EventBus, err = initEventBus(cfg, deps, logger)
	if err != nil {
		return deps, fmt.Errorf("failed to initialize event bus: %w", err)
	}
	return deps, nil
}

func initStore(cfg *config.App, deps *app.Deps, logger *slog.Logger) (repository.UnitOfWork, error) {
	if cfg.DB.Driver == config.DriverMemory {
		logger.Warn("Using in-memory store; data is lost on restart")
		return memory.NewUoW(memory.New()), nil
	}

	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	deps.Closers = append(deps.Closers, sqlDB.Close)

	logger.Info("Database connected", "driver", cfg.DB.Driver, "row_locks", cfg.DB.RowLocks)
	return infra_repository.NewUoW(db, infra_repository.WithRowLocks(cfg.DB.RowLocks)), nil
}

func initLocks(cfg *config.App, deps *app.Deps, logger *slog.Logger) (lock.Manager, error) {
	if cfg.Lock.Backend != config.LockRedis {
		return lock.NewLocal(cfg.Lock.Timeout), nil
	}

	opt, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opt.PoolSize = cfg.Redis.PoolSize
	opt.DialTimeout = cfg.Redis.DialTimeout
	opt.ReadTimeout = cfg.Redis.ReadTimeout
	opt.WriteTimeout = cfg.Redis.WriteTimeout
	client := redis.NewClient(opt)
	deps.Closers = append(deps.Closers, client.Close)

	logger.Info("Using Redis lock manager", "prefix", cfg.Redis.KeyPrefix, "ttl", cfg.Lock.TTL)
	return infra_lock.NewRedis(client, infra_lock.RedisConfig{
		Prefix:        cfg.Redis.KeyPrefix,
		Timeout:       cfg.Lock.Timeout,
		TTL:           cfg.Lock.TTL,
		RetryInterval: cfg.Lock.RetryInterval,
	}, logger), nil
}

func initEventBus(cfg *config.App, deps *app.Deps, logger *slog.Logger) (eventbus.Bus, error) {
	if cfg.EventBus.Driver != config.BusKafka {
		return infra_eventbus.NewWithMemory(logger), nil
	}

	k := cfg.EventBus.Kafka
	bus, err := infra_eventbus.NewWithKafka(infra_eventbus.KafkaConfig{
		Brokers:      k.Brokers,
		Topic:        k.Topic,
		Async:        k.Async,
		BatchTimeout: k.BatchTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	deps.Closers = append(deps.Closers, bus.Close)

	logger.Info("Using Kafka event bus", "brokers", k.Brokers, "topic", k.Topic)
	return bus, nil
}
