package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config agrupa la configuración del servicio. Todo viene de env vars;
// si existe un .env en el cwd se carga primero (sin pisar variables ya seteadas).
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	Port        string `env:"PORT" envDefault:"8080"`

	Log LogConfig

	Database DatabaseConfig

	Redis RedisConfig

	Locks LockConfig

	Auth AuthConfig

	// Timeout por operación de pedigree. Se aplica antes de la primera escritura.
	OpTimeout time.Duration `env:"OP_TIMEOUT" envDefault:"5s"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
	App    string `env:"APP_NAME" envDefault:"pet-pedigree"`
}

type DatabaseConfig struct {
	// Vacío => stores in-memory (modo dev).
	DSN            string `env:"DB_DSN"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"false"`
}

type RedisConfig struct {
	// Vacío => locks in-process.
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"2s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"1s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"1s"`
}

type LockConfig struct {
	TTL       time.Duration `env:"LOCK_TTL" envDefault:"10s"`
	RetryWait time.Duration `env:"LOCK_RETRY_WAIT" envDefault:"25ms"`
}

type AuthConfig struct {
	// Vacío => modo dev: el usuario sale del header X-Debug-User-ID.
	BaseURL      string        `env:"AUTH_BASE_URL"`
	APIKey       string        `env:"AUTH_API_KEY"`
	APIKeyHeader string        `env:"AUTH_API_KEY_HEADER" envDefault:"X-Api-Key"`
	Timeout      time.Duration `env:"AUTH_TIMEOUT" envDefault:"5s"`
}

func (c Config) Addr() string {
	return ":" + c.Port
}

// Load lee .env (opcional) y parsea el entorno.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse solo lee variables de entorno (sin .env). Útil en tests con t.Setenv.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.OpTimeout <= 0 {
		return Config{}, fmt.Errorf("OP_TIMEOUT must be positive")
	}
	if cfg.Locks.TTL <= cfg.OpTimeout {
		return Config{}, fmt.Errorf("LOCK_TTL (%s) must be greater than OP_TIMEOUT (%s)", cfg.Locks.TTL, cfg.OpTimeout)
	}
	return cfg, nil
}
