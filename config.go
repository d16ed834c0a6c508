package gorecord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/hashicorp/go-hclog"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/jmoiron/sqlx"
	"github.com/kelseyhightower/envconfig"
	"github.com/tailscale/hujson"
)

// EnvPrefix prefixes the environment variables read by LoadConfig.
const EnvPrefix = "GORECORD"

// Duration is a time.Duration read from strings such as "4s" or "250ms".
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config describes the store connection and the logging of a process.
type Config struct {
	Driver   string `json:"driver" envconfig:"DRIVER"` // mysql, pgx or sqlite3
	DSN      string `json:"dsn" envconfig:"DSN"`       // used as is when set
	Host     string `json:"host" envconfig:"HOST"`
	Port     int    `json:"port" envconfig:"PORT"`
	Database string `json:"database" envconfig:"DATABASE"`
	User     string `json:"user" envconfig:"USER"`
	Password string `json:"password" envconfig:"PASSWORD"`
	Charset  string `json:"charset" envconfig:"CHARSET"`

	MaxOpenConns    int      `json:"max_open_conns" envconfig:"MAX_OPEN_CONNS"`
	MaxIdleConns    int      `json:"max_idle_conns" envconfig:"MAX_IDLE_CONNS"`
	ConnMaxLifetime Duration `json:"conn_max_lifetime" envconfig:"CONN_MAX_LIFETIME"`

	LogLevel  string   `json:"log_level" envconfig:"LOG_LEVEL"`
	QueryLog  string   `json:"query_log" envconfig:"QUERY_LOG"` // none, slow or always
	SlowQuery Duration `json:"slow_query" envconfig:"SLOW_QUERY"`
}

// DefaultConfig returns the configuration used for anything not set by the
// config file or the environment.
func DefaultConfig() Config {
	return Config{
		Driver:    "mysql",
		Host:      "localhost",
		Port:      3306,
		Database:  "test",
		User:      "root",
		Charset:   "utf8mb4",
		LogLevel:  "info",
		QueryLog:  QueryLogSlow.String(),
		SlowQuery: Duration(DefaultSlowQuery),
	}
}

// LoadConfig reads the JSON (comments and trailing commas allowed) file at
// path over DefaultConfig, then applies GORECORD_* environment variables. An
// empty path skips the file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("gorecord: failed to read config: %w", err)
		}
		standardized, err := hujson.Standardize(data)
		if err != nil {
			return Config{}, fmt.Errorf("gorecord: invalid config %s: %w", path, err)
		}
		if err := json.Unmarshal(standardized, &cfg); err != nil {
			return Config{}, fmt.Errorf("gorecord: invalid config %s: %w", path, err)
		}
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("gorecord: invalid environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that cannot be defaulted.
func (c Config) Validate() error {
	switch c.Driver {
	case "mysql", "pgx", "sqlite3":
	case "":
		return errors.New("gorecord: driver is required")
	default:
		return fmt.Errorf("gorecord: unsupported driver %q", c.Driver)
	}
	if _, err := ParseQueryLogLevel(c.QueryLog); err != nil {
		return err
	}
	return nil
}

// DataSourceName returns DSN when set, else builds one for the driver.
func (c Config) DataSourceName() (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}
	switch c.Driver {
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = c.User
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
		mc.DBName = c.Database
		dsn := mc.FormatDSN()
		if c.Charset == "" {
			return dsn, nil
		}
		// charset is a connection option, not a session variable
		parsed, err := mysql.ParseDSN(dsn + "?charset=" + url.QueryEscape(c.Charset))
		if err != nil {
			return "", fmt.Errorf("gorecord: invalid mysql settings: %w", err)
		}
		return parsed.FormatDSN(), nil
	case "pgx":
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(c.User, c.Password),
			Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
			Path:   "/" + c.Database,
		}
		return u.String(), nil
	case "sqlite3":
		if c.Database == "" {
			return ":memory:", nil
		}
		return c.Database, nil
	}
	return "", fmt.Errorf("gorecord: unsupported driver %q", c.Driver)
}

// Logger returns an hclog logger at the configured level.
func (c Config) Logger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "gorecord",
		Level:  hclog.LevelFromString(c.LogLevel),
		Output: os.Stderr,
	})
}

// DiagnosticsOptions returns the query log settings as diagnostics options.
func (c Config) DiagnosticsOptions(logger hclog.Logger) []DiagnosticsOption {
	level, _ := ParseQueryLogLevel(c.QueryLog)
	return []DiagnosticsOption{
		WithDiagnosticsLogger(logger),
		WithQueryLog(level, time.Duration(c.SlowQuery)),
	}
}

// Open connects to the store described by cfg and verifies the connection.
// opts are applied after the logger built from cfg.
func Open(ctx context.Context, cfg Config, opts ...Option) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dsn, err := cfg.DataSourceName()
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, newError(KindConnection, "Open", "cannot open "+cfg.Driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime))
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, newError(KindConnection, "Open", "ping failed", err)
	}
	return WrapSqlx(db, append([]Option{WithLogger(cfg.Logger())}, opts...)...), nil
}
