package db

import (
	"fmt"
	"log"
	"regexp"
	"time"

	"github.com/diewo77/quincaillerie/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	connectAttempts = 10
	connectBackoff  = 2 * time.Second
)

var passwordRe = regexp.MustCompile(`(password=)(\S+)`)

// Connect opens the configured database, retrying while Postgres starts up.
// Duplicate-key errors are translated to gorm.ErrDuplicatedKey.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel), TranslateError: true}

	attempts := connectAttempts
	if cfg.Driver == DriverSQLite {
		attempts = 1
	}
	var db *gorm.DB
	for i := 1; i <= attempts; i++ {
		db, err = gorm.Open(dialector, gcfg)
		if err == nil {
			err = db.Exec("SELECT 1").Error
		}
		if err == nil {
			break
		}
		log.Printf("[DB] connection attempt %d/%d failed: %v", i, attempts, err)
		if i < attempts {
			time.Sleep(connectBackoff)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}
	if cfg.Driver == DriverSQLite {
		// SQLite allows a single writer; serialize through one connection.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		log.Printf("[DB] Using sqlite file %s", cfg.SQLitePath)
	} else {
		log.Printf("[DB] Using DSN: %s", passwordRe.ReplaceAllString(cfg.DSN(), "${1}***"))
	}
	return db, nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverPostgres, "":
		return postgres.Open(cfg.DSN()), nil
	case DriverSQLite:
		return sqlite.Open(cfg.SQLitePath + "?_foreign_keys=on&_busy_timeout=5000"), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
}
