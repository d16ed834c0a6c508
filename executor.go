package gorecord

import (
	"context"
)

// Params maps named statement parameters to their values. Keys are written
// without the leading ':'; a leading ':' is tolerated and stripped.
type Params map[string]any

// Executor runs one statement at a time against a relational store.
// *DB is the package's implementation; entities only depend on this interface.
type Executor interface {
	// Query executes query with named parameters. When prepared is true the
	// statement is prepared on the server before parameters are bound.
	Query(ctx context.Context, query string, prepared bool, params Params) (Statement, error)
}

// Statement is the handle of an executed query. Rows are materialized lazily
// by Single or All, both of which release the underlying resources.
type Statement interface {
	// Single returns the next row, or a nil map when there is none.
	Single() (map[string]any, error)
	// All returns every remaining row in order.
	All() ([]map[string]any, error)
	// RowCount returns the rows affected by a write, or the rows read so far
	// for a query.
	RowCount() (int64, error)
	// LastInsertID returns the identifier generated by the store for an insert.
	LastInsertID() (any, error)
	Close() error
}

// IdentifierQuoter is implemented by executors that know how their dialect
// quotes table and column names.
type IdentifierQuoter interface {
	QuoteIdentifier(name string) string
}

// ReturningInserter is implemented by executors whose store reports generated
// identifiers through INSERT ... RETURNING instead of LastInsertID.
type ReturningInserter interface {
	InsertReturning() bool
}
