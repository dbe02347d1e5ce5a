package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
)

const (
	defaultHost            = "0.0.0.0"
	defaultPort            = "5000"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 5 * time.Second
	defaultMaxBodyBytes    = 1 << 20
	defaultCORSOrigin      = "*"
)

// Config holds everything main needs to start the service.
type Config struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
	CORSOrigin      string
	Log             LogConfig
}

// LogConfig controls the logging package.
type LogConfig struct {
	Level string
	File  string
	Debug bool
}

// Address returns host:port for http.Server.
func (c Config) Address() string {
	return c.Host + ":" + c.Port
}

// Load reads the optional .env files and then the process environment.
// A missing .env file is not an error.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return Config{}, errors.Wrapf(err, "loading %s", f)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an environment lookup function.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Config{
		Host:       stringOr(lookup, "SERVER_HOST", defaultHost),
		Port:       stringOr(lookup, "SERVER_PORT", defaultPort),
		CORSOrigin: stringOr(lookup, "CORS_ALLOWED_ORIGIN", defaultCORSOrigin),
		Log: LogConfig{
			Level: stringOr(lookup, "LOG_LEVEL", "info"),
			File:  stringOr(lookup, "LOG_FILE", ""),
		},
	}

	if _, err := strconv.ParseUint(cfg.Port, 10, 16); err != nil {
		return Config{}, errors.Newf("SERVER_PORT must be a port number, got %q", cfg.Port)
	}

	var err error
	if cfg.ReadTimeout, err = durationOr(lookup, "READ_TIMEOUT", defaultReadTimeout); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = durationOr(lookup, "WRITE_TIMEOUT", defaultWriteTimeout); err != nil {
		return Config{}, err
	}
	if cfg.IdleTimeout, err = durationOr(lookup, "IDLE_TIMEOUT", defaultIdleTimeout); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = durationOr(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout); err != nil {
		return Config{}, err
	}

	cfg.MaxBodyBytes = defaultMaxBodyBytes
	if v, ok := lookup("MAX_BODY_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return Config{}, errors.Newf("MAX_BODY_BYTES must be a positive integer, got %q", v)
		}
		cfg.MaxBodyBytes = n
	}

	if v, ok := lookup("DEBUG"); ok && v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, errors.Newf("DEBUG must be a boolean, got %q", v)
		}
		cfg.Log.Debug = debug
	}

	return cfg, nil
}

func stringOr(lookup func(string) (string, bool), key, def string) string {
	if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func durationOr(lookup func(string) (string, bool), key string, def time.Duration) (time.Duration, error) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, errors.Newf("%s must be a non-negative duration, got %q", key, v)
	}
	return d, nil
}
