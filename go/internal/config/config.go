package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/mcdev12/racecycles/go/internal/kvstore"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when CONFIG_PATH is unset.
const DefaultPath = "config.yaml"

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Store    StoreConfig    `yaml:"store"`
	Postgres PostgresConfig `yaml:"postgres"`
	NATS     NATSConfig     `yaml:"nats"`
	Race     RaceConfig     `yaml:"race"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

type StoreConfig struct {
	Backend  string `yaml:"backend"`
	Path     string `yaml:"path"`
	Key      string `yaml:"key"`
	RedisURL string `yaml:"redis_url"`
}

type NATSConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	StreamName    string `yaml:"stream_name"`
	SubjectPrefix string `yaml:"subject_prefix"`
	PublishTicks  bool   `yaml:"publish_ticks"`
}

type RaceConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	MinRate      float64       `yaml:"min_rate"`
	MaxRate      float64       `yaml:"max_rate"`
}

// Default returns the configuration used when no file or env overrides exist.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     10 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Store: StoreConfig{
			Backend:  kvstore.BackendBadger,
			Key:      "racingUsers",
			RedisURL: "redis://localhost:6379/0",
		},
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "postgres",
			Database: "racecycles",
			SSLMode:  "disable",
		},
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			StreamName:    "STATION_EVENTS",
			SubjectPrefix: "stations.events",
		},
		Race: RaceConfig{
			TickInterval: time.Second,
			MinRate:      0.5,
			MaxRate:      1.0,
		},
	}
}

// Load reads .env, then the YAML file at path (if present), then environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Info().Str("path", path).Msg("no config file, using defaults")
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyStoreDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	c.Store.Backend = getEnv("STORE_BACKEND", c.Store.Backend)
	c.Store.Path = getEnv("STORE_PATH", c.Store.Path)
	c.Store.Key = getEnv("STORE_KEY", c.Store.Key)
	c.Store.RedisURL = getEnv("REDIS_URL", c.Store.RedisURL)
	c.Postgres.applyEnv()

	if url := os.Getenv("NATS_URL"); url != "" {
		c.NATS.URL = url
		c.NATS.Enabled = true
	}

	if raw := os.Getenv("TICK_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid TICK_INTERVAL %q: %w", raw, err)
		}
		c.Race.TickInterval = d
	}
	return nil
}

func (c *Config) applyStoreDefaults() {
	if c.Store.Path != "" {
		return
	}
	switch c.Store.Backend {
	case kvstore.BackendBadger:
		c.Store.Path = "./data/badger"
	case kvstore.BackendSQLite:
		c.Store.Path = "./data/racecycles.db"
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	switch c.Store.Backend {
	case kvstore.BackendMemory, kvstore.BackendBadger, kvstore.BackendSQLite,
		kvstore.BackendPostgres, kvstore.BackendRedis:
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}
	if c.Store.Key == "" {
		return errors.New("store.key is required")
	}
	if c.Race.TickInterval <= 0 {
		return fmt.Errorf("race.tick_interval must be positive, got %s", c.Race.TickInterval)
	}
	if c.Race.MinRate < 0 || c.Race.MaxRate < c.Race.MinRate {
		return fmt.Errorf("race rates must satisfy 0 <= min_rate <= max_rate, got %v..%v", c.Race.MinRate, c.Race.MaxRate)
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		return errors.New("nats.url is required when nats is enabled")
	}
	return nil
}

// StoreOptions translates the store section for kvstore.Open
func (c *Config) StoreOptions() kvstore.Options {
	opts := kvstore.Options{Backend: c.Store.Backend, Path: c.Store.Path}
	switch c.Store.Backend {
	case kvstore.BackendPostgres:
		opts.DSN = c.Postgres.DSN()
	case kvstore.BackendRedis:
		opts.DSN = c.Store.RedisURL
	}
	return opts
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
