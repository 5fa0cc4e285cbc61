package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"

	"pet-pedigree/internal/adapters/storage/postgres/migrations"
	"pet-pedigree/internal/platform/logger"
)

var gooseOnce sync.Once
var gooseErr error

// goose usa estado global: se configura una sola vez.
func setupGoose() error {
	gooseOnce.Do(func() {
		goose.SetBaseFS(migrations.FS)
		gooseErr = goose.SetDialect("postgres")
	})
	return gooseErr
}

// Migrator aplica el esquema embebido.
type Migrator struct {
	db  *sql.DB
	log logger.Logger
}

func NewMigrator(db *sql.DB, log logger.Logger) *Migrator {
	if log == nil {
		log = logger.Nop()
	}
	return &Migrator{db: db, log: log.With(map[string]any{"component": "migrator"})}
}

func (m *Migrator) Up(ctx context.Context) error {
	if err := setupGoose(); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	m.log.Info("running database migrations", nil)
	if err := goose.UpContext(ctx, m.db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	v, _ := m.Version(ctx)
	m.log.Info("migrations completed", map[string]any{"version": v})
	return nil
}

// Down revierte la última migración.
func (m *Migrator) Down(ctx context.Context) error {
	if err := setupGoose(); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	m.log.Info("rolling back last migration", nil)
	if err := goose.DownContext(ctx, m.db, "."); err != nil {
		return fmt.Errorf("rollback migration: %w", err)
	}
	return nil
}

// Status imprime el estado de cada migración (goose loguea a stdout).
func (m *Migrator) Status(ctx context.Context) error {
	if err := setupGoose(); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.StatusContext(ctx, m.db, "."); err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	return nil
}

func (m *Migrator) Version(ctx context.Context) (int64, error) {
	if err := setupGoose(); err != nil {
		return 0, fmt.Errorf("set dialect: %w", err)
	}
	v, err := goose.GetDBVersionContext(ctx, m.db)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return v, nil
}
