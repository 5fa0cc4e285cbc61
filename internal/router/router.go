package router

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"

	memlocks "pet-pedigree/internal/adapters/locks/memory"
	redislocks "pet-pedigree/internal/adapters/locks/redis"
	mem "pet-pedigree/internal/adapters/storage/memory"
	pg "pet-pedigree/internal/adapters/storage/postgres"
	_ "pet-pedigree/internal/docs"
	"pet-pedigree/internal/domain/events"
	"pet-pedigree/internal/domain/pedigree"
	"pet-pedigree/internal/domain/pets"
	"pet-pedigree/internal/middleware"
	"pet-pedigree/internal/platform/logger"
	"pet-pedigree/internal/platform/metrics"
	"pet-pedigree/internal/ports/auth"
	"pet-pedigree/internal/ports/locks"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Opcional: si viene, los locks de pedigree van por Redis (varias réplicas).
	Redis *goredis.Client

	Logger logger.Logger

	// nil => registry propio; /metrics expone lo que haya en él.
	Registry *prometheus.Registry

	OpTimeout     time.Duration
	LockTTL       time.Duration
	LockRetryWait time.Duration
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recover(log))

	r.Use(middleware.AuthContext(opts.AuthVerifier, log))

	r.Get("/health", healthHandler(opts.DB, opts.Redis))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	var (
		petRepo   pets.Repository
		eventRepo events.Repository
		locker    locks.Locker
	)

	if opts.DB != nil {
		petRepo = pg.NewPetsRepo(opts.DB)
		eventRepo = pg.NewEventsRepo(opts.DB)
	} else {
		petRepo = mem.NewPetRepo()
		eventRepo = mem.NewEventRepo()
	}

	if opts.Redis != nil {
		locker = redislocks.NewLocker(opts.Redis, opts.LockTTL,
			redislocks.WithRetryWait(opts.LockRetryWait),
			redislocks.WithLogger(log),
		)
	} else {
		locker = memlocks.NewLocker()
	}

	// Services por módulo
	petsSvc := pets.NewService(petRepo)
	eventsSvc := events.NewService(eventRepo)
	pedigreeSvc := pedigree.NewService(petRepo, locker,
		pedigree.WithLogger(log.With(map[string]any{"component": "pedigree"})),
		pedigree.WithMetrics(metrics.New(reg)),
		pedigree.WithActivity(eventsSvc),
		pedigree.WithOpTimeout(opts.OpTimeout),
	)

	// Rutas por módulo
	pets.RegisterRoutes(r, petsSvc)
	pedigree.RegisterRoutes(r, pedigreeSvc, petsSvc)
	events.RegisterRoutes(r, eventsSvc, petsSvc)

	return r
}

func healthHandler(db *sql.DB, rdb *goredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
