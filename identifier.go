package gorecord

import (
	"fmt"
	"strings"

	"github.com/mickamy/gorecord/internal/ident"
)

// columnList normalises a column specification: a comma separated string or a
// slice of names. "*" selects every column.
func columnList(columns any) ([]string, error) {
	var raw []string
	switch v := columns.(type) {
	case string:
		raw = strings.Split(v, ",")
	case []string:
		raw = v
	case nil:
	default:
		return nil, newError(KindInvalidColumns, "Entity.FetchColumns", fmt.Sprintf("unsupported column specification %T", columns), nil)
	}

	cols := make([]string, 0, len(raw))
	for _, c := range raw {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if c != "*" && !ident.Valid(c) {
			return nil, newError(KindInvalidColumns, "Entity.FetchColumns", fmt.Sprintf("invalid column name %q", c), nil)
		}
		cols = append(cols, c)
	}
	if len(cols) == 0 {
		return nil, newError(KindInvalidColumns, "Entity.FetchColumns", "empty column specification", nil)
	}
	return cols, nil
}

// checkFields rejects field names that cannot be written into a statement.
func checkFields(op string, fields []string) error {
	for _, f := range fields {
		if !ident.Valid(f) {
			return newError(KindInvalidColumns, op, fmt.Sprintf("invalid field name %q", f), nil)
		}
	}
	return nil
}

// quote renders a table or column name for the entity's executor. Executors
// that do not quote identifiers get the name unchanged.
func (e *Entity) quote(name string) string {
	if name == "*" {
		return name
	}
	if q, ok := e.exec.(IdentifierQuoter); ok {
		return q.QuoteIdentifier(name)
	}
	return name
}

func (e *Entity) quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = e.quote(n)
	}
	return out
}

// missingID reports whether v cannot identify a row.
func missingID(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
