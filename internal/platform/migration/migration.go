// Package migration applies the embedded schema migrations.
package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Files exposes the migration sources.
func Files() (fs.FS, error) {
	return fs.Sub(embeddedMigrations, migrationsDir)
}

// Run brings the schema behind pool up to date.
func Run(pool *pgxpool.Pool) error {
	if pool == nil {
		return errors.New("migration: pool is required")
	}
	db := stdlib.OpenDBFromPool(pool)
	defer func() { _ = db.Close() }()
	return RunMigrations(db)
}

// RunMigrations applies every pending up migration to db.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration: database handle is required")
	}
	sub, err := Files()
	if err != nil {
		return fmt.Errorf("migration: open migrations: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("migration: create source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("migration: create driver: %w", err)
	}
	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migration: create migrator: %w", err)
	}
	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration: apply: %w", err)
	}
	return nil
}
