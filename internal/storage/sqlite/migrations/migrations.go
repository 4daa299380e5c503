// Package migrations has the job journal schema and the migrator that applies it.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/slok/galgo/internal/log"
)

//go:embed sql/*.sql
var schemaFiles embed.FS

// MigratorConfig is the configuration of the Migrator.
type MigratorConfig struct {
	DB     *sql.DB
	Logger log.Logger
}

func (c *MigratorConfig) defaults() error {
	if c.DB == nil {
		return fmt.Errorf("db is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "migrations.Migrator"})

	return nil
}

// Migrator applies the job journal schema migrations.
type Migrator struct {
	db     *sql.DB
	logger log.Logger
}

// NewMigrator creates a new migrator.
func NewMigrator(cfg MigratorConfig) (*Migrator, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Migrator{db: cfg.DB, logger: cfg.Logger}, nil
}

// Up applies the pending migrations, an up to date schema is not an error.
func (m *Migrator) Up(ctx context.Context) error {
	err := m.withInstance(ctx, func(inst *migrate.Migrate) error { return inst.Up() })
	if err != nil {
		return fmt.Errorf("could not apply migrations: %w", err)
	}

	m.logger.Debugf("Journal schema up to date")
	return nil
}

// Down reverts every migration, removing the journal tables.
func (m *Migrator) Down(ctx context.Context) error {
	err := m.withInstance(ctx, func(inst *migrate.Migrate) error { return inst.Down() })
	if err != nil {
		return fmt.Errorf("could not revert migrations: %w", err)
	}

	m.logger.Debugf("Journal schema removed")
	return nil
}

// Version returns the applied schema version, 0 when nothing is applied.
func (m *Migrator) Version(ctx context.Context) (uint, error) {
	var version uint
	err := m.withInstance(ctx, func(inst *migrate.Migrate) error {
		v, dirty, err := inst.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return nil
		}
		if err != nil {
			return err
		}
		if dirty {
			return fmt.Errorf("schema version %d is dirty", v)
		}
		version = v
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("could not get schema version: %w", err)
	}

	return version, nil
}

func (m *Migrator) withInstance(ctx context.Context, fn func(*migrate.Migrate) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	driver, err := sqlite3.WithInstance(m.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("could not create driver: %w", err)
	}

	src, err := iofs.New(schemaFiles, "sql")
	if err != nil {
		return fmt.Errorf("could not load embedded schema: %w", err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			m.logger.Warningf("Could not close schema source: %s", err)
		}
	}()

	inst, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	if err := fn(inst); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}
