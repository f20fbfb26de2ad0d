package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/sql2xlsx/internal/config"
)

func TestDataSourceName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		cfg        Config
		wantDriver string
		wantDSN    string
		wantErr    error
	}{
		{
			name:       "postgres fields",
			cfg:        Config{Driver: DriverPostgres, Host: "db", User: "app", Password: "p w", DBName: "sales"},
			wantDriver: DriverPostgres,
			wantDSN:    "host=db port=5432 dbname=sales sslmode=disable user=app password='p w'",
		},
		{
			name:       "postgres dsn passthrough",
			cfg:        Config{Driver: DriverPostgres, DSN: "postgres://u@h/d"},
			wantDriver: DriverPostgres,
			wantDSN:    "postgres://u@h/d",
		},
		{
			name:       "mysql fields",
			cfg:        Config{Driver: DriverMySQL, Host: "db", Port: 3307, User: "app", Password: "pw", DBName: "sales"},
			wantDriver: DriverMySQL,
			wantDSN:    "app:pw@tcp(db:3307)/sales?parseTime=true",
		},
		{
			name:       "mysql dsn gets parseTime",
			cfg:        Config{Driver: DriverMySQL, DSN: "app@tcp(db:3306)/sales"},
			wantDriver: DriverMySQL,
			wantDSN:    "app@tcp(db:3306)/sales?parseTime=true",
		},
		{
			name:       "sqlite file",
			cfg:        Config{Driver: DriverSQLite, DBName: "data.db"},
			wantDriver: DriverSQLite,
			wantDSN:    "data.db",
		},
		{
			name:    "unknown",
			cfg:     Config{Driver: "oracle"},
			wantErr: ErrUnknownDriver,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			driver, dsn, err := tt.cfg.DataSourceName()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDriver, driver)
			assert.Equal(t, tt.wantDSN, dsn)
		})
	}
}

func TestNewDBSQLite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := NewDB(context.Background(), Config{Driver: DriverSQLite, DBName: path})
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow("SELECT 1 + 1").Scan(&n))
	assert.Equal(t, 2, n)
}

func TestNewDBGivesUpAfterRetries(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Driver:         DriverPostgres,
		Host:           "127.0.0.1",
		Port:           1,
		DBName:         "none",
		ConnectRetries: 1,
		ConnectBackoff: time.Millisecond,
	}
	_, err := NewDB(context.Background(), cfg)
	assert.Error(t, err)
}

func TestConfigFromEnv(t *testing.T) {
	t.Parallel()

	cfg := ConfigFromEnv(config.EnvConfig{DB_DRIVER: "sqlite", DB_NAME: "x.db", DB_CONNECT_RETRIES: 2})
	assert.Equal(t, Config{Driver: "sqlite", DBName: "x.db", ConnectRetries: 2}, cfg)
}
