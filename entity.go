package gorecord

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
)

// InvalidValue is the type of Invalid.
type InvalidValue struct{}

// Invalid is stored in place of a date, phone or money value that could not be
// formatted. It is bound to the store as NULL.
var Invalid = InvalidValue{}

// IsInvalid reports whether v is the Invalid sentinel.
func IsInvalid(v any) bool {
	_, ok := v.(InvalidValue)
	return ok
}

func (InvalidValue) Value() (driver.Value, error) { return nil, nil }

func (InvalidValue) String() string { return "" }

// MarshalJSON renders Invalid as false.
func (InvalidValue) MarshalJSON() ([]byte, error) { return []byte("false"), nil }

// Field is a name/value pair applied by Fill.
type Field struct {
	Name  string
	Value any
}

// Entity is the in-memory state of one row of the descriptor's table.
// An Entity is not safe for concurrent use.
type Entity struct {
	desc *Descriptor
	exec Executor

	original map[string]any
	working  map[string]any
	keys     []string // working keys in first-write order
}

// NewEntity returns an empty, not yet persisted entity.
func NewEntity(desc *Descriptor, exec Executor) *Entity {
	return &Entity{
		desc:     desc,
		exec:     exec,
		original: map[string]any{},
		working:  map[string]any{},
	}
}

// Descriptor returns the entity type description.
func (e *Entity) Descriptor() *Descriptor {
	return e.desc
}

// ID returns the persisted identifier, or nil when the entity has none.
func (e *Entity) ID() any {
	if id, ok := e.original[IDField]; ok {
		return id
	}
	return e.working[IDField]
}

// Set writes value to field, converting it to its stored form first.
// The id field cannot be written.
func (e *Entity) Set(field string, value any) error {
	if field == IDField {
		return newError(KindImmutableField, "Entity.Set", fmt.Sprintf("field %q cannot be written", field), nil)
	}
	stored, valid := e.desc.store(field, value)
	if !valid && e.desc.strict {
		return newError(KindInvalidFormat, "Entity.Set",
			fmt.Sprintf("invalid %s value for field %q: %v", e.desc.Kind(field), field, value), nil)
	}
	e.put(field, stored)
	return nil
}

// Fill calls Set for each field in order and stops at the first error.
func (e *Entity) Fill(fields ...Field) error {
	for _, f := range fields {
		if err := e.Set(f.Name, f.Value); err != nil {
			return err
		}
	}
	return nil
}

// FillMap calls Set for each pair of m in sorted key order.
func (e *Entity) FillMap(m map[string]any) error {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		if err := e.Set(k, m[k]); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the display form of field, or nil when the field is unset.
func (e *Entity) Get(field string) any {
	stored, ok := e.working[field]
	if !ok {
		return nil
	}
	return e.desc.display(field, stored)
}

// Raw returns the stored form of field without display formatting.
func (e *Entity) Raw(field string) (any, bool) {
	v, ok := e.working[field]
	return v, ok
}

// Keys returns the field names of the entity in write order.
func (e *Entity) Keys() []string {
	return slices.Clone(e.keys)
}

// ToArray returns the display form of every field.
func (e *Entity) ToArray() map[string]any {
	out := make(map[string]any, len(e.working))
	for _, k := range e.keys {
		out[k] = e.Get(k)
	}
	return out
}

func (e *Entity) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ToArray())
}

// String renders ToArray as a JSON object.
func (e *Entity) String() string {
	b, err := e.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("gorecord: %s: %v", e.desc.table, err)
	}
	return string(b)
}

func (e *Entity) put(field string, v any) {
	if _, ok := e.working[field]; !ok {
		e.keys = append(e.keys, field)
	}
	e.working[field] = v
}

// load replaces both snapshots with row.
func (e *Entity) load(row map[string]any) {
	e.original = make(map[string]any, len(row))
	e.working = make(map[string]any, len(row))
	e.keys = rowKeys(row)
	for k, v := range row {
		v = e.desc.canonical(k, v)
		e.original[k] = v
		e.working[k] = v
	}
}

// merge overwrites the given columns in both snapshots.
func (e *Entity) merge(row map[string]any) {
	for _, k := range rowKeys(row) {
		v := e.desc.canonical(k, row[k])
		e.put(k, v)
		e.original[k] = v
	}
}

// rowKeys orders the columns of a fetched row: id first, then by name.
func rowKeys(row map[string]any) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		if k != IDField {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := row[IDField]; ok {
		keys = append([]string{IDField}, keys...)
	}
	return keys
}
