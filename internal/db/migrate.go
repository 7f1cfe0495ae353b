package db

import (
	"errors"
	"fmt"
	"log"

	"github.com/diewo77/quincaillerie/internal/config"
	"github.com/diewo77/quincaillerie/internal/models"
	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/gorm"
)

// Migrate brings the schema up to date. With MIGRATIONS enabled on Postgres the
// versioned SQL files are applied; otherwise GORM AutoMigrate is used.
func Migrate(db *gorm.DB, dbCfg config.DatabaseConfig, appCfg config.AppConfig) error {
	if appCfg.Migrations && dbCfg.Driver != DriverSQLite {
		log.Printf("[DB] Running SQL migrations from %s", appCfg.MigrationsDir)
		if err := runSQLMigrations(appCfg.MigrationsDir, dbCfg.URL()); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		for _, m := range models.All() {
			if err := db.AutoMigrate(m); err != nil {
				return fmt.Errorf("automigrate %T: %w", m, err)
			}
		}
	}
	// sanity check: ensure required core tables exist
	for _, table := range []string{"users", "orders", "payments", "sequences", "outbox_events"} {
		if !db.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// runSQLMigrations executes migrations in dir using golang-migrate file source.
func runSQLMigrations(dir, url string) error {
	m, err := migrate.New("file://"+dir, url)
	if err != nil {
		return err
	}
	defer m.Close()
	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
