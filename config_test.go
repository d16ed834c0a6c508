package gorecord_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickamy/gorecord"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gorecord.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigFileThenEnvironment(t *testing.T) {
	path := writeFile(t, `{
  // local development database
  "driver": "sqlite3",
  "database": "app.db",
  "max_open_conns": 4,
  "slow_query": "250ms",
}`)
	t.Setenv("GORECORD_DATABASE", "override.db")
	t.Setenv("GORECORD_QUERY_LOG", "always")
	t.Setenv("GORECORD_CONN_MAX_LIFETIME", "1m")

	cfg, err := gorecord.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.Driver)
	assert.Equal(t, "override.db", cfg.Database)
	assert.Equal(t, 4, cfg.MaxOpenConns)
	assert.Equal(t, gorecord.Duration(250*time.Millisecond), cfg.SlowQuery)
	assert.Equal(t, gorecord.Duration(time.Minute), cfg.ConnMaxLifetime)
	assert.Equal(t, "always", cfg.QueryLog)
	// untouched defaults survive
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, "utf8mb4", cfg.Charset)

	dsn, err := cfg.DataSourceName()
	require.NoError(t, err)
	assert.Equal(t, "override.db", dsn)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name    string
		content string
	}{
		{name: "unsupported driver", content: `{"driver": "oracle"}`},
		{name: "empty driver", content: `{"driver": ""}`},
		{name: "bad query log", content: `{"query_log": "verbose"}`},
		{name: "bad duration", content: `{"slow_query": "soon"}`},
		{name: "not json", content: `driver = mysql`},
	}
	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := gorecord.LoadConfig(writeFile(t, tc.content))
			require.Error(t, err)
		})
	}

	_, err := gorecord.LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestDataSourceName(t *testing.T) {
	t.Parallel()

	t.Run("mysql", func(t *testing.T) {
		t.Parallel()

		cfg := gorecord.DefaultConfig()
		cfg.Password = "secret"
		dsn, err := cfg.DataSourceName()
		require.NoError(t, err)

		parsed, err := mysql.ParseDSN(dsn)
		require.NoError(t, err)
		assert.Equal(t, "root", parsed.User)
		assert.Equal(t, "secret", parsed.Passwd)
		assert.Equal(t, "localhost:3306", parsed.Addr)
		assert.Equal(t, "test", parsed.DBName)
		assert.Contains(t, dsn, "charset=utf8mb4")
	})

	t.Run("pgx", func(t *testing.T) {
		t.Parallel()

		cfg := gorecord.Config{Driver: "pgx", Host: "db", Port: 5432, User: "app", Password: "secret", Database: "shop"}
		dsn, err := cfg.DataSourceName()
		require.NoError(t, err)
		assert.Equal(t, "postgres://app:secret@db:5432/shop", dsn)
	})

	t.Run("explicit dsn wins", func(t *testing.T) {
		t.Parallel()

		cfg := gorecord.Config{Driver: "mysql", DSN: "u:p@unix(/tmp/mysql.sock)/db", Host: "ignored"}
		dsn, err := cfg.DataSourceName()
		require.NoError(t, err)
		assert.Equal(t, "u:p@unix(/tmp/mysql.sock)/db", dsn)
	})

	t.Run("sqlite memory", func(t *testing.T) {
		t.Parallel()

		dsn, err := gorecord.Config{Driver: "sqlite3"}.DataSourceName()
		require.NoError(t, err)
		assert.Equal(t, ":memory:", dsn)
	})
}

func TestOpen(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := gorecord.DefaultConfig()
	cfg.Driver = "sqlite3"
	cfg.Database = ""
	cfg.LogLevel = "off"
	db, err := gorecord.Open(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	assert.Equal(t, `"customers"`, db.QuoteIdentifier("customers"))
	assert.False(t, db.InsertReturning())

	unreachable := gorecord.DefaultConfig()
	unreachable.Host = "127.0.0.1"
	unreachable.Port = 1
	unreachable.LogLevel = "off"
	_, err = gorecord.Open(ctx, unreachable)
	require.ErrorIs(t, err, gorecord.ErrConnection)
}
