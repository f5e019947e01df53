// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping for SQLite (pure
// Go driver) and PostgreSQL, plus schema migrations.
package repo

import (
	"fmt"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	zlog "github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-leads-backend/internal/domain"
)

// Supported values for config.DBDriver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// sqlitePragmas are applied by the driver to every pooled connection.
// _txlock=immediate makes BEGIN take the write lock up front so concurrent
// read-then-write transactions queue on busy_timeout instead of failing.
var sqlitePragmas = []string{
	"_pragma=journal_mode(WAL)",
	"_pragma=synchronous(NORMAL)",
	"_pragma=foreign_keys(ON)",
	"_pragma=busy_timeout(5000)",
	"_txlock=immediate",
}

// gormLogger routes GORM's warnings (slow queries, errors) through zerolog.
func gormLogger() logger.Interface {
	return logger.New(stdlog.New(zlog.Logger, "", 0), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// Open connects to the configured driver, installs the GORM tracing plugin
// and tunes the pool.
func Open(driver, dsn string) (*gorm.DB, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverSQLite:
		return OpenSQLite(dsn)
	case DriverPostgres:
		return OpenPostgres(dsn)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}

// OpenSQLite opens (or creates) a SQLite database at path.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if !strings.HasPrefix(path, "file:") && path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if _, err := os.Stat(dir); err != nil {
				return nil, err
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(SQLiteDSN(path)), &gorm.Config{
		Logger:         gormLogger(),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	if err := instrument(db, 10); err != nil {
		return nil, err
	}
	return db, nil
}

// SQLiteDSN appends the connection pragmas to path.
func SQLiteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(sqlitePragmas, "&")
}

// OpenPostgres connects through the pgx-backed GORM driver.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLogger(),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	if err := instrument(db, 25); err != nil {
		return nil, err
	}
	return db, nil
}

func instrument(db *gorm.DB, maxOpen int) error {
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(maxOpen)
		sqlDB.SetMaxIdleConns(maxOpen)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return nil
}

// activeInterestIndex guarantees at most one non-cancelled interest per
// (job, provider). Both SQLite and PostgreSQL accept partial indexes.
const activeInterestIndex = `CREATE UNIQUE INDEX IF NOT EXISTS ux_interest_active
ON interests (job_id, provider_id) WHERE status <> 'CANCELLED'`

// AutoMigrate creates or updates every table plus the indexes GORM tags
// cannot express.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.Job{},
		&domain.Interest{},
		&domain.ProviderProfile{},
		&domain.Wallet{},
		&domain.WalletTransaction{},
		&domain.SequenceCounter{},
		&domain.Idempotency{},
	); err != nil {
		return err
	}
	return db.Exec(activeInterestIndex).Error
}
