// Package config loads lovecontract settings.
//
// Settings come from three layers, later layers winning:
//
//  1. Built-in defaults ([Default])
//  2. A TOML file (--config, or $XDG_CONFIG_HOME/lovecontract/config.toml when present)
//  3. Environment variables prefixed with LOVECONTRACT_, e.g.
//     LOVECONTRACT_STORE_DRIVER=postgres or LOVECONTRACT_SERVER_ADDR=:9000
//
// The merged result is validated before it is returned.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/lovecontract/pkg/contract"
	"github.com/matzehuels/lovecontract/pkg/errors"
	"github.com/matzehuels/lovecontract/pkg/session"
)

const (
	appName   = "lovecontract"
	envPrefix = "LOVECONTRACT_"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMongo    = "mongo"
)

// Drivers lists every supported store driver.
var Drivers = []string{DriverMemory, DriverFile, DriverSQLite, DriverPostgres, DriverRedis, DriverMongo}

// Config is the full application configuration.
type Config struct {
	Server  ServerConfig  `toml:"server" envPrefix:"SERVER_"`
	Store   StoreConfig   `toml:"store" envPrefix:"STORE_"`
	Session SessionConfig `toml:"session" envPrefix:"SESSION_"`
	Log     LogConfig     `toml:"log" envPrefix:"LOG_"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `toml:"addr" env:"ADDR"`
	ReadTimeout     time.Duration `toml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `toml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	Metrics         bool          `toml:"metrics" env:"METRICS"`
	SecureCookies   bool          `toml:"secure_cookies" env:"SECURE_COOKIES"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Driver string `toml:"driver" env:"DRIVER"`

	// Path is the database file for sqlite and the directory for file.
	Path string `toml:"path" env:"PATH"`

	// URL is the connection string for postgres, redis and mongo.
	URL string `toml:"url" env:"URL"`

	// Database is the MongoDB database name.
	Database string `toml:"database" env:"DATABASE"`

	// Key is the record key of the contract.
	Key string `toml:"key" env:"KEY"`

	RetryAttempts int           `toml:"retry_attempts" env:"RETRY_ATTEMPTS"`
	RetryDelay    time.Duration `toml:"retry_delay" env:"RETRY_DELAY"`
	Timeout       time.Duration `toml:"timeout" env:"TIMEOUT"`
}

// SessionConfig configures signing sessions.
type SessionConfig struct {
	IdleTTL             time.Duration `toml:"idle_ttl" env:"IDLE_TTL"`
	EvictInterval       time.Duration `toml:"evict_interval" env:"EVICT_INTERVAL"`
	MaxSessions         int           `toml:"max_sessions" env:"MAX_SESSIONS"`
	Rollback            bool          `toml:"rollback" env:"ROLLBACK"`
	EnvelopeDelay       time.Duration `toml:"envelope_delay" env:"ENVELOPE_DELAY"`
	CelebrationDuration time.Duration `toml:"celebration_duration" env:"CELEBRATION_DURATION"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level" env:"LEVEL"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Metrics:         true,
		},
		Store: StoreConfig{
			Driver:        DriverSQLite,
			Path:          filepath.Join(DataDir(), "contract.db"),
			Database:      appName,
			Key:           contract.DocumentID,
			RetryAttempts: 3,
			RetryDelay:    200 * time.Millisecond,
			Timeout:       10 * time.Second,
		},
		Session: SessionConfig{
			IdleTTL:             30 * time.Minute,
			EvictInterval:       time.Minute,
			MaxSessions:         session.DefaultMaxSessions,
			EnvelopeDelay:       contract.EnvelopeDelay,
			CelebrationDuration: contract.CelebrationDuration,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load builds the configuration from defaults, the TOML file at path and the
// environment. An empty path uses the default config file if it exists; an
// explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
			}
		} else if explicit {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "read config %s", path)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse environment")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverFile, DriverSQLite:
		if strings.TrimSpace(c.Store.Path) == "" {
			return errors.New(errors.ErrCodeInvalidInput, "store.path is required for the %s driver", c.Store.Driver)
		}
	case DriverPostgres, DriverRedis, DriverMongo:
		if strings.TrimSpace(c.Store.URL) == "" {
			return errors.New(errors.ErrCodeInvalidInput, "store.url is required for the %s driver", c.Store.Driver)
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown store driver %q (want one of %s)",
			c.Store.Driver, strings.Join(Drivers, ", "))
	}

	if err := errors.ValidateKey(c.Store.Key); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "store.key")
	}
	if c.Store.RetryAttempts < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "store.retry_attempts must be at least 1")
	}
	if c.Session.IdleTTL <= 0 || c.Session.EvictInterval <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "session.idle_ttl and session.evict_interval must be positive")
	}
	if c.Session.MaxSessions < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "session.max_sessions must be at least 1")
	}
	if c.Session.EnvelopeDelay < 0 || c.Session.CelebrationDuration < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "session delays cannot be negative")
	}
	if _, err := c.Log.ParseLevel(); err != nil {
		return err
	}
	return nil
}

// ParseLevel returns the configured log level.
func (l LogConfig) ParseLevel() (log.Level, error) {
	level, err := log.ParseLevel(l.Level)
	if err != nil {
		return log.InfoLevel, errors.Wrap(errors.ErrCodeInvalidInput, err, "log.level")
	}
	return level, nil
}

// String renders the configuration as TOML.
func (c Config) String() string {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return b.String()
}

// DefaultPath returns the default config file location using the XDG
// standard (~/.config/lovecontract/config.toml).
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName, "config.toml")
}

// DataDir returns the data directory using the XDG standard
// (~/.local/share/lovecontract/).
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return appName
	}
	return filepath.Join(home, ".local", "share", appName)
}
