package gorecord

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// Kind classifies an Error independently of the underlying driver.
type Kind uint32

const (
	KindUnknown           Kind = iota
	KindConnection             // store unreachable or credentials rejected
	KindQuery                  // malformed statement or execution failure
	KindBinding                // a parameter could not be bound
	KindFetch                  // result materialization failed after execute
	KindImmutableField         // write to id through Set
	KindMissingIdentifier      // identifier-dependent operation without an id
	KindInvalidColumns         // empty column specification or unusable field name
	KindInvalidFormat          // date, phone or money input rejected in strict mode
)

var kindText = map[Kind]string{
	KindUnknown:           "unknown error",
	KindConnection:        "connection error",
	KindQuery:             "query error",
	KindBinding:           "binding error",
	KindFetch:             "fetch error",
	KindImmutableField:    "immutable field",
	KindMissingIdentifier: "missing identifier",
	KindInvalidColumns:    "invalid columns",
	KindInvalidFormat:     "invalid format",
}

func (k Kind) String() string {
	if s, ok := kindText[k]; ok {
		return s
	}
	return kindText[KindUnknown]
}

// Errors returned from this package may be tested against these errors
// with errors.Is.
var (
	ErrConnection        = &Error{Kind: KindConnection}
	ErrQuery             = &Error{Kind: KindQuery}
	ErrBinding           = &Error{Kind: KindBinding}
	ErrFetch             = &Error{Kind: KindFetch}
	ErrImmutableField    = &Error{Kind: KindImmutableField}
	ErrMissingIdentifier = &Error{Kind: KindMissingIdentifier}
	ErrInvalidColumns    = &Error{Kind: KindInvalidColumns}
	ErrInvalidFormat     = &Error{Kind: KindInvalidFormat}
)

// Error is the error type returned by entities and the executor.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "Entity.Save" or "DB.Query"
	Msg  string
	Err  error // underlying driver error, if any
}

func newError(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("gorecord: ")
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Msg != "" {
		b.WriteString(e.Msg)
	} else {
		b.WriteString(e.Kind.String())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinel errors by kind, so errors.Is(err, ErrQuery) holds for
// any query failure regardless of operation or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Op == "" && t.Msg == "" && t.Err == nil {
		return t.Kind == e.Kind
	}
	return t == e
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// classify wraps a driver error, promoting it to KindConnection when the
// store is unreachable or rejected the credentials.
func classify(op string, fallback Kind, msg string, err error) *Error {
	if isConnectionError(err) {
		return newError(KindConnection, op, msg, err)
	}
	return newError(fallback, op, msg, err)
}

func isConnectionError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1044, 1045, 1049: // access denied, bad credentials, unknown database
			return true
		}
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "28") || pgErr.Code == "3D000"
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrCantOpen || liteErr.Code == sqlite3.ErrNotADB
	}
	return false
}
