// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"crimelense/internal/persist"
	"crimelense/pkg/validation"
)

// Store backends for the durable session record.
const (
	StoreBadger   = "badger"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Auth modes.
const (
	AuthOpen      = "open"
	AuthDirectory = "directory"
)

// Analysis backends.
const (
	AnalysisLocal = "local"
	AnalysisKafka = "kafka"
)

// Config is the complete process configuration.
type Config struct {
	Port            string        `validate:"required,numeric"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
	ConnectAttempts int           `validate:"gte=1"`

	JWTSecret     string        `validate:"required"`
	TokenLifetime time.Duration `validate:"gt=0"`

	StoreBackend string `validate:"oneof=badger redis postgres memory"`
	SessionKey   string `validate:"notblank"`
	BadgerPath   string `validate:"required_if=StoreBackend badger"`
	DatabaseURL  string `validate:"required_if=StoreBackend postgres,required_if=AuthMode directory"`
	RedisAddr    string `validate:"required_if=StoreBackend redis,required_if=HotspotBackend redis"`

	AuthMode string `validate:"oneof=open directory"`

	AnalysisBackend   string        `validate:"oneof=local kafka"`
	KafkaBrokers      []string      `validate:"required_if=AnalysisBackend kafka,dive,hostname_port"`
	RunWorker         bool
	WorkerConcurrency int           `validate:"gte=1"`
	AnalysisTimeout   time.Duration `validate:"gt=0"`
	ScreenLimit       int           `validate:"gte=0"`
	PredictionLatency time.Duration `validate:"gte=0"`
	RouteLatency      time.Duration `validate:"gte=0"`
	CompareLatency    time.Duration `validate:"gte=0"`

	HotspotBackend string `validate:"oneof=memory redis"`
	SeedHotspots   bool
}

// Load reads an optional .env file (or the given files), then the
// environment, and validates the result. Variables already set in the
// environment win over the files.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	} else {
		log.Println("[config] loaded env file")
	}

	p := &parser{}
	cfg := &Config{
		Port:            env("PORT", "8080"),
		ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		ConnectAttempts: p.int("CONNECT_ATTEMPTS", 10),

		JWTSecret:     env("JWT_SECRET", ""),
		TokenLifetime: p.duration("TOKEN_LIFETIME", 24*time.Hour),

		StoreBackend: env("STORE_BACKEND", StoreBadger),
		SessionKey:   env("SESSION_KEY", persist.DefaultKey),
		BadgerPath:   env("BADGER_PATH", "./data/session"),
		DatabaseURL:  env("DATABASE_URL", ""),
		RedisAddr:    env("REDIS_ADDR", ""),

		AuthMode: env("AUTH_MODE", AuthOpen),

		AnalysisBackend:   env("ANALYSIS_BACKEND", AnalysisLocal),
		KafkaBrokers:      list(env("KAFKA_BROKERS", "")),
		RunWorker:         p.bool("RUN_WORKER", true),
		WorkerConcurrency: p.int("WORKER_CONCURRENCY", 8),
		AnalysisTimeout:   p.duration("ANALYSIS_TIMEOUT", 30*time.Second),
		ScreenLimit:       p.int("SCREEN_LIMIT", 1000),
		PredictionLatency: p.duration("PREDICTION_LATENCY", 1500*time.Millisecond),
		RouteLatency:      p.duration("ROUTE_LATENCY", 2*time.Second),
		CompareLatency:    p.duration("COMPARE_LATENCY", time.Second),

		HotspotBackend: env("HOTSPOT_BACKEND", "memory"),
		SeedHotspots:   p.bool("SEED_HOTSPOTS", true),
	}
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags of c.
func (c *Config) Validate() error {
	fields, err := validation.Struct(c)
	if err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if len(fields) == 0 {
		return nil
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Field+" ("+f.Rule+")")
	}
	return fmt.Errorf("invalid config: %s", strings.Join(parts, ", "))
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func list(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parser collects malformed values instead of silently falling back.
type parser struct{ errs []error }

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

func (p *parser) int(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func (p *parser) bool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return b
}
