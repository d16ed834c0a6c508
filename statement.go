package gorecord

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// statement is the Statement returned by DB. It owns either a result set
// (and the prepared statement behind it) or an Exec result.
type statement struct {
	rows   *sqlx.Rows
	stmt   *sqlx.NamedStmt
	result sql.Result
	read   int64
	closed bool
}

func (s *statement) Single() (map[string]any, error) {
	if s.rows == nil || s.closed {
		return nil, nil
	}
	defer s.Close()

	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			return nil, classify("Statement.Single", KindFetch, "reading rows failed", err)
		}
		return nil, nil
	}
	return s.scan("Statement.Single")
}

func (s *statement) All() ([]map[string]any, error) {
	if s.rows == nil || s.closed {
		return nil, nil
	}
	defer s.Close()

	var out []map[string]any
	for s.rows.Next() {
		row, err := s.scan("Statement.All")
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := s.rows.Err(); err != nil {
		return nil, classify("Statement.All", KindFetch, "reading rows failed", err)
	}
	return out, nil
}

// scan reads the current row. Byte slices are returned as strings.
func (s *statement) scan(op string) (map[string]any, error) {
	row := make(map[string]any)
	if err := s.rows.MapScan(row); err != nil {
		return nil, classify(op, KindFetch, "scan failed", err)
	}
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			row[k] = string(b)
		}
	}
	s.read++
	return row, nil
}

func (s *statement) RowCount() (int64, error) {
	if s.result == nil {
		return s.read, nil
	}
	n, err := s.result.RowsAffected()
	if err != nil {
		return 0, classify("Statement.RowCount", KindFetch, "rows affected unavailable", err)
	}
	return n, nil
}

func (s *statement) LastInsertID() (any, error) {
	if s.result == nil {
		return nil, newError(KindFetch, "Statement.LastInsertID", "statement produced no insert result", nil)
	}
	id, err := s.result.LastInsertId()
	if err != nil {
		return nil, classify("Statement.LastInsertID", KindFetch, "last insert id unavailable", err)
	}
	return id, nil
}

// Close releases the rows and the prepared statement. It is safe to call
// more than once.
func (s *statement) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var errs []error
	if s.rows != nil {
		errs = append(errs, s.rows.Close())
	}
	if s.stmt != nil {
		errs = append(errs, s.stmt.Close())
	}
	return errors.Join(errs...)
}
