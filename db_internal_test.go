package gorecord

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"net"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

type status int

type stringer struct{}

func (stringer) String() string { return "stringer" }

func TestBindValue(t *testing.T) {
	t.Parallel()

	n := 9
	var nilInt *int
	var nilLoc *time.Location

	tcs := []struct {
		name    string
		in      any
		want    any
		wantErr bool
	}{
		{name: "nil", in: nil, want: nil},
		{name: "int", in: 5, want: int64(5)},
		{name: "int8", in: int8(-3), want: int64(-3)},
		{name: "uint32", in: uint32(7), want: int64(7)},
		{name: "uint64 in range", in: uint64(math.MaxInt64), want: int64(math.MaxInt64)},
		{name: "uint64 overflow", in: uint64(math.MaxInt64) + 1, wantErr: true},
		{name: "named int", in: status(2), want: int64(2)},
		{name: "bool", in: true, want: true},
		{name: "string", in: "x", want: "x"},
		{name: "bytes", in: []byte("raw"), want: "raw"},
		{name: "pointer", in: &n, want: int64(9)},
		{name: "nil pointer", in: nilInt, want: nil},
		{name: "nil location", in: nilLoc, want: nil},
		{name: "float", in: 12.5, want: "12.5"},
		{name: "time", in: time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC), want: "2023-11-14 22:13:20"},
		{name: "stringer", in: stringer{}, want: "stringer"},
		{name: "invalid sentinel", in: Invalid, want: nil},
		{name: "struct", in: struct{ A int }{1}, wantErr: true},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := bindValue(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("bindValue(%#v) = %#v, want error", tc.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("bindValue(%#v) unexpected error: %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("bindValue(%#v) = %#v (%T), want %#v (%T)", tc.in, got, got, tc.want, tc.want)
			}
		})
	}
}

func TestBindParamsStripsPrefix(t *testing.T) {
	t.Parallel()

	got, err := bindParams(Params{":id": 1, "name": "a"})
	if err != nil {
		t.Fatalf("bindParams: %v", err)
	}
	if len(got) != 2 || got["id"] != int64(1) || got["name"] != "a" {
		t.Fatalf("bindParams = %#v", got)
	}

	_, err = bindParams(Params{"bad": make(chan int)})
	if !errors.Is(err, ErrBinding) {
		t.Fatalf("bindParams(chan) error = %v, want ErrBinding", err)
	}
}

func TestIsConnectionError(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "bad conn", err: fmt.Errorf("exec: %w", driver.ErrBadConn), want: true},
		{name: "mysql invalid conn", err: mysql.ErrInvalidConn, want: true},
		{name: "net op error", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, want: true},
		{name: "mysql access denied", err: &mysql.MySQLError{Number: 1045}, want: true},
		{name: "mysql unknown database", err: &mysql.MySQLError{Number: 1049}, want: true},
		{name: "mysql duplicate key", err: &mysql.MySQLError{Number: 1062}, want: false},
		{name: "postgres auth", err: &pgconn.PgError{Code: "28P01"}, want: true},
		{name: "postgres connection failure", err: &pgconn.PgError{Code: "08006"}, want: true},
		{name: "postgres unique violation", err: &pgconn.PgError{Code: "23505"}, want: false},
		{name: "sqlite cannot open", err: sqlite3.Error{Code: sqlite3.ErrCantOpen}, want: true},
		{name: "sqlite constraint", err: sqlite3.Error{Code: sqlite3.ErrConstraint}, want: false},
		{name: "deadline", err: context.DeadlineExceeded, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := isConnectionError(tc.err); got != tc.want {
				t.Fatalf("isConnectionError(%v) = %t, want %t", tc.err, got, tc.want)
			}
		})
	}
}
