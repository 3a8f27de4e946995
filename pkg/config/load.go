package config

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func Load(envFilePath ...string) (*App, error) {
	logger := slog.Default()
	logger.Info("Loading environment variables")

	if len(envFilePath) == 0 {
		logger.Debug("No environment file specified, trying default .env")
		if err := godotenv.Load(); err != nil {
			logger.Warn("No .env file found in current directory")
		}
		return loadFromEnv()
	}

	// Try each provided path until we find a valid one
	for _, path := range envFilePath {
		logger.Debug("Looking for environment file", "path", path)
		foundPath, err := findEnvFile(path)
		if err != nil {
			logger.Debug("Environment file not found", "path", path, "error", err)
			continue
		}

		logger.Info("Loading environment from file", "path", foundPath)
		if err := godotenv.Load(foundPath); err != nil {
			logger.Error("Failed to load environment file", "path", foundPath, "error", err)
			continue
		}
		return loadFromEnv()
	}

	logger.Info("No valid environment files found, using process environment")
	return loadFromEnv()
}

func loadFromEnv() (*App, error) {
	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Default().Info("App config loaded",
		"env", cfg.Env,
		"db_driver", cfg.DB.Driver,
		"db", maskValue(cfg.DB.Url),
		"lock_backend", cfg.Lock.Backend,
		"lock_timeout", cfg.Lock.Timeout,
		"redis", maskValue(cfg.Redis.URL),
		"eventbus_driver", cfg.EventBus.Driver,
		"rate_limit_max_requests", cfg.RateLimit.MaxRequests,
		"rate_limit_window", cfg.RateLimit.Window,
	)
	return &cfg, nil
}

// Validate rejects unknown drivers and settings that cannot work together.
func (c *App) Validate() error {
	if !slices.Contains([]string{DriverMemory, DriverPostgres, DriverSQLite}, c.DB.Driver) {
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DB.Driver)
	}
	if c.DB.Driver != DriverMemory && c.DB.Url == "" {
		return fmt.Errorf("DATABASE_URL is required for driver %q", c.DB.Driver)
	}
	if !slices.Contains([]string{LockMemory, LockRedis}, c.Lock.Backend) {
		return fmt.Errorf("unsupported LOCK_BACKEND %q", c.Lock.Backend)
	}
	if c.Lock.Timeout <= 0 {
		return fmt.Errorf("LOCK_TIMEOUT must be positive, got %s", c.Lock.Timeout)
	}
	if c.Lock.Backend == LockRedis && c.DB.Driver == DriverMemory {
		return fmt.Errorf("LOCK_BACKEND %q needs a shared database, not %q", LockRedis, DriverMemory)
	}
	if !slices.Contains([]string{BusMemory, BusKafka}, c.EventBus.Driver) {
		return fmt.Errorf("unsupported EVENTBUS_DRIVER %q", c.EventBus.Driver)
	}
	return nil
}

func maskValue(key string) string {
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}
