package infra

import (
	"errors"
	"fmt"

	"github.com/amirasaad/ledger/infra/repository"
	"github.com/amirasaad/ledger/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite" // Sqlite driver based on CGO
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDBConnection opens the SQL database named by cnf and, when enabled,
// migrates the ledger tables: versioned migrations on Postgres, gorm
// AutoMigrate on SQLite.
func NewDBConnection(
	cnf *config.DB,
	appEnv string,
) (*gorm.DB, error) {
	databaseUrl := cnf.Url
	if databaseUrl == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	var dialector gorm.Dialector
	switch cnf.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(databaseUrl)
	case config.DriverSQLite:
		dialector = sqlite.Open(databaseUrl)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cnf.Driver)
	}

	var logMode logger.LogLevel
	if appEnv == "development" {
		logMode = logger.Info
	} else {
		logMode = logger.Silent
	}

	connection, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logMode),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := connection.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cnf.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cnf.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cnf.ConnMaxLifetime)

	if !cnf.AutoMigrate {
		return connection, nil
	}
	if cnf.Driver == config.DriverPostgres {
		err = RunMigrations(connection)
	} else {
		err = connection.AutoMigrate(repository.Models()...)
	}
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return connection, nil
}
