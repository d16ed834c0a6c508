package gorecord

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cast"

	"github.com/mickamy/gorecord/internal/ident"
	"github.com/mickamy/gorecord/internal/query"
)

// DB executes entity statements through a *sqlx.DB. It implements Executor,
// IdentifierQuoter and ReturningInserter. A DB is safe for concurrent use,
// but one Statement must be consumed before its owner issues the next one.
type DB struct {
	db        *sqlx.DB
	quote     rune
	returning bool
	logger    hclog.Logger
	diag      *Diagnostics
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger failures are reported to.
func WithLogger(l hclog.Logger) Option {
	return func(db *DB) {
		if l != nil {
			db.logger = l.Named("gorecord.db")
		}
	}
}

// WithDiagnostics records timers, memory checkpoints and a query log entry
// for every statement into d.
func WithDiagnostics(d *Diagnostics) Option {
	return func(db *DB) { db.diag = d }
}

// WrapDB attaches gorecord to an open *sql.DB. driverName selects the
// placeholder style and the identifier quoting ("mysql", "pgx", "sqlite3").
func WrapDB(db *sql.DB, driverName string, opts ...Option) *DB {
	return WrapSqlx(sqlx.NewDb(db, driverName), opts...)
}

// WrapSqlx is like WrapDB for an existing *sqlx.DB.
func WrapSqlx(db *sqlx.DB, opts ...Option) *DB {
	d := &DB{
		db:     db,
		quote:  ident.DoubleQuote,
		logger: hclog.NewNullLogger(),
	}
	switch db.DriverName() {
	case "mysql", "nrmysql":
		d.quote = ident.Backtick
	case "pgx", "pgx/v5", "postgres", "cloudsqlpostgres", "nrpostgres", "cockroach":
		d.returning = true
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Unwrap returns the underlying *sqlx.DB.
func (db *DB) Unwrap() *sqlx.DB {
	return db.db
}

// Diagnostics returns the diagnostics the DB records into, or nil.
func (db *DB) Diagnostics() *Diagnostics {
	return db.diag
}

func (db *DB) Close() error {
	return db.db.Close()
}

// QuoteIdentifier quotes a possibly schema-qualified name for the driver.
func (db *DB) QuoteIdentifier(name string) string {
	return ident.QuoteQualified(ident.SplitQualified(name), db.quote)
}

// InsertReturning reports whether generated identifiers are read through
// INSERT ... RETURNING.
func (db *DB) InsertReturning() bool {
	return db.returning
}

// Query executes q with the named parameters in params. Statements recognised
// as INSERT, UPDATE or DELETE without RETURNING are executed; everything else
// is queried and its rows are left to the returned Statement.
func (db *DB) Query(ctx context.Context, q string, prepared bool, params Params) (Statement, error) {
	args, err := bindParams(params)
	if err != nil {
		db.logger.Error("failed to bind parameters", "query", q, "error", err)
		return nil, err
	}
	bound, values, err := sqlx.Named(q, args)
	if err != nil {
		err = newError(KindBinding, "DB.Query", "cannot bind named parameters", err)
		db.logger.Error("failed to bind parameters", "query", q, "error", err)
		return nil, err
	}

	observe := db.diag != nil && !extractSkip(ctx)
	label := extractLabel(ctx, q)
	if observe {
		db.diag.StartTimer(label)
		db.diag.MemoryCheckpoint(label + "-start")
	}

	var stmt Statement
	if prepared {
		stmt, err = db.prepared(ctx, q, args)
	} else {
		stmt, err = db.direct(ctx, db.db.Rebind(bound), values)
	}

	if observe {
		db.diag.StopTimer(label)
		db.diag.MemoryCheckpoint(label + "-end")
		db.diag.RecordQuery(label, q, args, err)
	}
	if err != nil {
		db.logger.Error("statement failed", "query", q, "kind", KindOf(err).String(), "error", err)
		return nil, err
	}
	return stmt, nil
}

// executes reports whether q should run through Exec rather than Query.
func executes(q string) bool {
	dml, ok := query.ParseDML(q)
	return ok && !dml.HasReturning
}

func (db *DB) prepared(ctx context.Context, q string, args map[string]any) (Statement, error) {
	ns, err := db.db.PrepareNamedContext(ctx, q)
	if err != nil {
		return nil, classify("DB.Query", KindQuery, "prepare failed", err)
	}
	if executes(q) {
		res, err := ns.ExecContext(ctx, args)
		_ = ns.Close()
		if err != nil {
			return nil, classify("DB.Query", KindQuery, "execute failed", err)
		}
		return &statement{result: res}, nil
	}
	rows, err := ns.QueryxContext(ctx, args)
	if err != nil {
		_ = ns.Close()
		return nil, classify("DB.Query", KindQuery, "query failed", err)
	}
	return &statement{rows: rows, stmt: ns}, nil
}

func (db *DB) direct(ctx context.Context, q string, values []any) (Statement, error) {
	if executes(q) {
		res, err := db.db.ExecContext(ctx, q, values...)
		if err != nil {
			return nil, classify("DB.Query", KindQuery, "execute failed", err)
		}
		return &statement{result: res}, nil
	}
	rows, err := db.db.QueryxContext(ctx, q, values...)
	if err != nil {
		return nil, classify("DB.Query", KindQuery, "query failed", err)
	}
	return &statement{rows: rows}, nil
}

// bindParams strips the ':' prefix from parameter names and converts every
// value to the type it is bound as: int64, bool, NULL or string.
func bindParams(params Params) (map[string]any, error) {
	out := make(map[string]any, len(params))
	for k, v := range params {
		name := strings.TrimPrefix(k, ":")
		b, err := bindValue(v)
		if err != nil {
			return nil, newError(KindBinding, "DB.Query", fmt.Sprintf("cannot bind parameter %q", name), err)
		}
		out[name] = b
	}
	return out, nil
}

func bindValue(v any) (any, error) {
	if vr, ok := v.(driver.Valuer); ok {
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return nil, nil
		}
		dv, err := vr.Value()
		if err != nil {
			return nil, err
		}
		v = dv
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil, nil
	}

	switch x := rv.Interface().(type) {
	case []byte:
		return string(x), nil
	case time.Time:
		return x.Format(time.DateTime), nil
	}

	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("value %d overflows int64", u)
		}
		return int64(u), nil
	case reflect.String:
		return rv.String(), nil
	}
	return cast.ToStringE(rv.Interface())
}
