package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ErrNoDataSource means no database settings were found in the environment.
var ErrNoDataSource = errors.New("config: no data source configured")

// EnvConfig holds settings read from the environment.
type EnvConfig struct {
	DB_DRIVER            string
	DB_DSN               string
	DB_HOST              string
	DB_PORT              int
	DB_USER              string
	DB_PASSWORD          string
	DB_NAME              string
	DB_SSL_MODE          string
	DB_MAX_OPEN_CONNS    int
	DB_MAX_IDLE_CONNS    int
	DB_CONN_MAX_LIFETIME time.Duration
	DB_CONNECT_RETRIES   int
	DB_CONNECT_BACKOFF   time.Duration

	LOG_FILE_PATH string
	LOG_LEVEL     string

	APP_PORT       string
	QUERY_DIR      string
	EXPORT_PROFILE string
}

// DefaultEnvConfig is populated by LoadEnvConfig.
var DefaultEnvConfig = defaults()

func defaults() EnvConfig {
	return EnvConfig{
		DB_DRIVER:            "mysql",
		DB_SSL_MODE:          "disable",
		DB_MAX_OPEN_CONNS:    1,
		DB_MAX_IDLE_CONNS:    1,
		DB_CONN_MAX_LIFETIME: 5 * time.Minute,
		DB_CONNECT_RETRIES:   3,
		DB_CONNECT_BACKOFF:   500 * time.Millisecond,
		LOG_LEVEL:            "info",
		APP_PORT:             "8080",
		QUERY_DIR:            "queries",
	}
}

// LoadEnvConfig reads the optional env files (".env" when none are given)
// and then the process environment into DefaultEnvConfig. Variables already
// set in the environment win over file values.
func LoadEnvConfig(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err == nil {
			files = []string{".env"}
		}
	}
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
	}

	cfg, err := FromEnv(os.Getenv)
	if err != nil {
		return err
	}
	DefaultEnvConfig = cfg
	return nil
}

// FromEnv builds an EnvConfig from a lookup function such as os.Getenv.
func FromEnv(getenv func(string) string) (EnvConfig, error) {
	cfg := defaults()
	var errs []error

	str := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(dst *int, key string) {
		if v := getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(dst *time.Duration, key string) {
		if v := getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str(&cfg.DB_DRIVER, "DB_DRIVER")
	str(&cfg.DB_DSN, "DB_DSN")
	str(&cfg.DB_HOST, "DB_HOST")
	num(&cfg.DB_PORT, "DB_PORT")
	str(&cfg.DB_USER, "DB_USER")
	str(&cfg.DB_PASSWORD, "DB_PASSWORD")
	str(&cfg.DB_NAME, "DB_NAME")
	str(&cfg.DB_SSL_MODE, "DB_SSL_MODE")
	num(&cfg.DB_MAX_OPEN_CONNS, "DB_MAX_OPEN_CONNS")
	num(&cfg.DB_MAX_IDLE_CONNS, "DB_MAX_IDLE_CONNS")
	dur(&cfg.DB_CONN_MAX_LIFETIME, "DB_CONN_MAX_LIFETIME")
	num(&cfg.DB_CONNECT_RETRIES, "DB_CONNECT_RETRIES")
	dur(&cfg.DB_CONNECT_BACKOFF, "DB_CONNECT_BACKOFF")
	str(&cfg.LOG_FILE_PATH, "LOG_FILE_PATH")
	str(&cfg.LOG_LEVEL, "LOG_LEVEL")
	str(&cfg.APP_PORT, "APP_PORT")
	str(&cfg.QUERY_DIR, "QUERY_DIR")
	str(&cfg.EXPORT_PROFILE, "EXPORT_PROFILE")

	if len(errs) > 0 {
		return cfg, fmt.Errorf("invalid environment: %w", errors.Join(errs...))
	}
	return cfg, nil
}

// HasDataSource reports whether enough settings exist to reach a database.
func (c EnvConfig) HasDataSource() bool {
	if c.DB_DSN != "" {
		return true
	}
	if c.DB_DRIVER == "sqlite" {
		return c.DB_NAME != ""
	}
	return c.DB_HOST != "" && c.DB_NAME != ""
}

// Validate returns ErrNoDataSource when HasDataSource is false.
func (c EnvConfig) Validate() error {
	if !c.HasDataSource() {
		return fmt.Errorf("%w: set DB_DSN or DB_HOST and DB_NAME", ErrNoDataSource)
	}
	return nil
}
