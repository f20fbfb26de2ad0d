package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/locvowork/sql2xlsx/internal/config"
	"github.com/locvowork/sql2xlsx/internal/logger"
	"github.com/locvowork/sql2xlsx/pkg/retry"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// ErrUnknownDriver is returned for a driver name other than the supported ones.
var ErrUnknownDriver = errors.New("database: unknown driver")

// Config describes how to reach the database.
type Config struct {
	Driver          string
	DSN             string
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectRetries  int
	ConnectBackoff  time.Duration
}

// ConfigFromEnv maps environment settings onto a Config.
func ConfigFromEnv(env config.EnvConfig) Config {
	return Config{
		Driver:          env.DB_DRIVER,
		DSN:             env.DB_DSN,
		Host:            env.DB_HOST,
		Port:            env.DB_PORT,
		User:            env.DB_USER,
		Password:        env.DB_PASSWORD,
		DBName:          env.DB_NAME,
		SSLMode:         env.DB_SSL_MODE,
		MaxOpenConns:    env.DB_MAX_OPEN_CONNS,
		MaxIdleConns:    env.DB_MAX_IDLE_CONNS,
		ConnMaxLifetime: env.DB_CONN_MAX_LIFETIME,
		ConnectRetries:  env.DB_CONNECT_RETRIES,
		ConnectBackoff:  env.DB_CONNECT_BACKOFF,
	}
}

// DataSourceName returns the registered driver name and connection string.
func (c Config) DataSourceName() (string, string, error) {
	switch c.Driver {
	case DriverPostgres:
		if c.DSN != "" {
			return DriverPostgres, c.DSN, nil
		}
		port := c.Port
		if port == 0 {
			port = 5432
		}
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		parts := []string{
			"host=" + quotePQ(c.Host),
			fmt.Sprintf("port=%d", port),
			"dbname=" + quotePQ(c.DBName),
			"sslmode=" + quotePQ(sslMode),
		}
		if c.User != "" {
			parts = append(parts, "user="+quotePQ(c.User))
		}
		if c.Password != "" {
			parts = append(parts, "password="+quotePQ(c.Password))
		}
		return DriverPostgres, strings.Join(parts, " "), nil

	case DriverMySQL, "":
		var mc *mysql.Config
		if c.DSN != "" {
			parsed, err := mysql.ParseDSN(c.DSN)
			if err != nil {
				return "", "", fmt.Errorf("parse mysql dsn: %w", err)
			}
			mc = parsed
		} else {
			port := c.Port
			if port == 0 {
				port = 3306
			}
			mc = mysql.NewConfig()
			mc.User = c.User
			mc.Passwd = c.Password
			mc.Net = "tcp"
			mc.Addr = fmt.Sprintf("%s:%d", c.Host, port)
			mc.DBName = c.DBName
		}
		// DATETIME columns decode to time.Time
		mc.ParseTime = true
		return DriverMySQL, mc.FormatDSN(), nil

	case DriverSQLite:
		if c.DSN != "" {
			return DriverSQLite, c.DSN, nil
		}
		return DriverSQLite, c.DBName, nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrUnknownDriver, c.Driver)
}

func quotePQ(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// NewDB opens a pool and verifies it with a ping. Connection failures are
// retried with exponential backoff, since connecting has no side effects.
func NewDB(ctx context.Context, cfg Config) (*sql.DB, error) {
	driver, dsn, err := cfg.DataSourceName()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	backoff := cfg.ConnectBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	err = retry.Do(ctx, db.PingContext,
		retry.WithRetry(cfg.ConnectRetries, retry.ExponentialBackoff(backoff)),
		retry.WithMaxWait(30*time.Second),
		retry.WithOnRetry(func(attempt int, err error, wait time.Duration) {
			logger.WarnLog(ctx, "connect attempt %d to %s failed: %v; retrying in %s", attempt, driver, err, wait)
		}),
	)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	logger.DebugLog(ctx, "connected to %s", driver)
	return db, nil
}
