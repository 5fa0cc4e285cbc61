package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	memlocks "pet-pedigree/internal/adapters/locks/memory"
	redislocks "pet-pedigree/internal/adapters/locks/redis"
	pg "pet-pedigree/internal/adapters/storage/postgres"
	"pet-pedigree/internal/domain/events"
	"pet-pedigree/internal/domain/pedigree"
	"pet-pedigree/internal/platform/config"
	"pet-pedigree/internal/platform/logger"
	platformredis "pet-pedigree/internal/platform/redis"
	"pet-pedigree/internal/ports/locks"
)

var errNoDatabase = errors.New("DB_DSN is required")

// env es lo que comparten los subcomandos: config, logger y la base abierta.
type env struct {
	cfg config.Config
	log logger.Logger
	db  *sql.DB
}

func (e *env) close() {
	if e.db != nil {
		_ = e.db.Close()
	}
	_ = e.log.Sync()
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    "pedigreectl",
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if cfg.Database.DSN == "" {
		return nil, errNoDatabase
	}
	db, err := pg.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &env{cfg: cfg, log: log, db: db}, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pedigreectl",
		Short:         "Operational tasks for the pet pedigree store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd(), newRepairCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect the database schema",
	}

	step := func(use, short string, fn func(context.Context, *pg.Migrator) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(c *cobra.Command, _ []string) error {
				e, err := openEnv(c.Context())
				if err != nil {
					return err
				}
				defer e.close()
				return fn(c.Context(), pg.NewMigrator(e.db, e.log))
			},
		}
	}

	cmd.AddCommand(
		step("up", "Apply all pending migrations", func(ctx context.Context, m *pg.Migrator) error {
			return m.Up(ctx)
		}),
		step("down", "Roll back the last migration", func(ctx context.Context, m *pg.Migrator) error {
			return m.Down(ctx)
		}),
		step("status", "Print the status of every migration", func(ctx context.Context, m *pg.Migrator) error {
			return m.Status(ctx)
		}),
	)
	return cmd
}

type repairFlags struct {
	dryRun   bool
	pageSize int
}

func newRepairCmd() *cobra.Command {
	var flags repairFlags
	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Fix one-sided, dangling and duplicate pedigree references",
		Long: `Walk every pet and restore the parent/child symmetry.

The pass is idempotent: a second run over a clean store changes nothing.
Pets with more than two parents are reported but left untouched.

Examples:
  pedigreectl repair --dry-run
  pedigreectl repair --page-size 500`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			e, err := openEnv(c.Context())
			if err != nil {
				return err
			}
			defer e.close()

			locker, closeLocker, err := newLocker(c.Context(), e)
			if err != nil {
				return err
			}
			defer closeLocker()

			svc := pedigree.NewService(pg.NewPetsRepo(e.db), locker,
				pedigree.WithLogger(e.log.With(map[string]any{"component": "repair"})),
				pedigree.WithActivity(events.NewService(pg.NewEventsRepo(e.db))),
				pedigree.WithOpTimeout(e.cfg.OpTimeout),
			)
			return runRepair(c.Context(), c.OutOrStdout(), svc, flags)
		},
	}
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "report what would change without writing")
	cmd.Flags().IntVar(&flags.pageSize, "page-size", 200, "pets read per page")
	return cmd
}

// newLocker usa Redis si está configurado: el repair puede correr con el API arriba.
func newLocker(ctx context.Context, e *env) (locks.Locker, func(), error) {
	rdb, err := platformredis.New(ctx, e.cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if rdb == nil {
		e.log.Warn("REDIS_URL not set, repair only locks against itself", nil)
		return memlocks.NewLocker(), func() {}, nil
	}
	l := redislocks.NewLocker(rdb.Client, e.cfg.Locks.TTL,
		redislocks.WithRetryWait(e.cfg.Locks.RetryWait),
		redislocks.WithLogger(e.log),
	)
	return l, func() { _ = rdb.Close() }, nil
}

func runRepair(ctx context.Context, out io.Writer, svc *pedigree.Service, flags repairFlags) error {
	report, err := svc.Repair(ctx, pedigree.RepairOptions{DryRun: flags.dryRun, PageSize: flags.pageSize})
	if err != nil {
		return fmt.Errorf("repair: %w", err)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if report.Failed > 0 {
		return fmt.Errorf("repair: %d pets could not be fixed", report.Failed)
	}
	return nil
}
