package gorecord_test

import (
	"context"
	"maps"
	"strings"

	"github.com/mickamy/gorecord"
)

// call is one statement received by recorder.
type call struct {
	SQL      string
	Prepared bool
	Params   gorecord.Params
}

// recorder is an in-memory Executor that records every statement and
// answers from canned rows.
type recorder struct {
	calls  []call
	rows   []map[string]any // returned in order by Single
	nextID any              // returned by LastInsertID
	err    error            // returned by Query when set
}

func (r *recorder) Query(_ context.Context, q string, prepared bool, params gorecord.Params) (gorecord.Statement, error) {
	r.calls = append(r.calls, call{SQL: q, Prepared: prepared, Params: maps.Clone(params)})
	if r.err != nil {
		return nil, r.err
	}
	st := &cannedStatement{id: r.nextID}
	if len(r.rows) > 0 {
		st.row = r.rows[0]
		r.rows = r.rows[1:]
	}
	return st, nil
}

func (r *recorder) statements() []string {
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.SQL
	}
	return out
}

type cannedStatement struct {
	row    map[string]any
	id     any
	closed bool
}

func (s *cannedStatement) Single() (map[string]any, error) {
	row := s.row
	s.row = nil
	return row, nil
}

func (s *cannedStatement) All() ([]map[string]any, error) {
	if s.row == nil {
		return nil, nil
	}
	row := s.row
	s.row = nil
	return []map[string]any{row}, nil
}

func (s *cannedStatement) RowCount() (int64, error) { return 1, nil }

func (s *cannedStatement) LastInsertID() (any, error) { return s.id, nil }

func (s *cannedStatement) Close() error {
	s.closed = true
	return nil
}

// quotingRecorder quotes identifiers with backticks and reads generated ids
// through RETURNING.
type quotingRecorder struct {
	recorder
	returning bool
}

func (r *quotingRecorder) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, ".", "`.`") + "`"
}

func (r *quotingRecorder) InsertReturning() bool { return r.returning }

// loaded returns an entity of desc fetched from row through a fresh recorder.
func loaded(desc *gorecord.Descriptor, row map[string]any) (*gorecord.Entity, *recorder) {
	rec := &recorder{rows: []map[string]any{row}}
	e := gorecord.NewEntity(desc, rec)
	if ok, err := e.Fetch(context.Background(), row["id"]); err != nil || !ok {
		panic("gorecord_test: fetching canned row failed")
	}
	rec.calls = nil
	return e, rec
}
