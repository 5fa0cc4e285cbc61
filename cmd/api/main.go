package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"pet-pedigree/internal/adapters/auth/session"
	pg "pet-pedigree/internal/adapters/storage/postgres"
	"pet-pedigree/internal/platform/config"
	"pet-pedigree/internal/platform/logger"
	platformredis "pet-pedigree/internal/platform/redis"
	"pet-pedigree/internal/ports/auth"
	"pet-pedigree/internal/router"
)

//	@title			Pet Pedigree API
//	@version		1.0
//	@description	Relaciones padre/hijo entre mascotas, placeholders e historial de pedigree.
//	@BasePath		/

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pet-pedigree: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.Log.App,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.Database.DSN != "" {
		db, err = pg.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		if cfg.Database.MigrateOnStart {
			if err := pg.NewMigrator(db, log).Up(ctx); err != nil {
				return err
			}
		}
	} else {
		log.Warn("DB_DSN not set, using in-memory stores", nil)
	}

	rdb, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	opts := router.Options{
		DB:            db,
		Logger:        log,
		OpTimeout:     cfg.OpTimeout,
		LockTTL:       cfg.Locks.TTL,
		LockRetryWait: cfg.Locks.RetryWait,
	}
	if rdb != nil {
		defer rdb.Close()
		opts.Redis = rdb.Client
	} else {
		log.Warn("REDIS_URL not set, using in-process locks (single replica only)", nil)
	}

	verifier, err := newVerifier(cfg.Auth)
	if err != nil {
		return err
	}
	if verifier == nil {
		log.Warn("AUTH_BASE_URL not set, accepting X-Debug-User-ID (dev mode)", nil)
	}
	opts.AuthVerifier = verifier

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	opts.Registry = reg

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.NewRouter(opts),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr, "env": cfg.Environment})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newVerifier devuelve nil si no hay proveedor de sesión configurado (modo dev).
func newVerifier(cfg config.AuthConfig) (auth.AuthVerifier, error) {
	if cfg.BaseURL == "" {
		return nil, nil
	}
	client, err := session.NewClient(session.Config{
		BaseURL:      cfg.BaseURL,
		APIKey:       cfg.APIKey,
		APIKeyHeader: cfg.APIKeyHeader,
		Timeout:      cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return session.NewVerifier(client), nil
}
