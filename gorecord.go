// Package gorecord maps one database row to an in-memory entity, tracks which
// fields changed since the row was loaded and persists only those fields.
package gorecord

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mickamy/gorecord/internal/format"
)

// IDField is the primary key column every entity is keyed by.
const IDField = "id"

// FieldKind selects the formatter applied to a field on write and read.
type FieldKind uint8

const (
	FieldPlain FieldKind = iota
	FieldDate
	FieldPhone
	FieldMoney
)

func (k FieldKind) String() string {
	switch k {
	case FieldDate:
		return "date"
	case FieldPhone:
		return "phone"
	case FieldMoney:
		return "money"
	default:
		return "plain"
	}
}

// FormatConfig defines the display formats of an entity type.
type FormatConfig struct {
	DatePattern string         // PHP date() style tokens, e.g. "d/m/Y" (default)
	PhoneMask   string         // 'X' per digit, e.g. "XXX XXX XXXX" (default)
	MoneySymbol string         // appended to amounts, "€" by default
	Location    *time.Location // zone dates are interpreted in, UTC by default
	Now         func() time.Time
}

// Descriptor describes one entity type: its table, the classification of its
// fields and their formats. A Descriptor is immutable and meant to be shared by
// every Entity of that type.
type Descriptor struct {
	table  string
	kinds  map[string]FieldKind
	format format.Options
	strict bool
}

// DescriptorOption configures a Descriptor.
type DescriptorOption func(*descriptorOptions)

type descriptorOptions struct {
	dates  []string
	phones []string
	moneys []string
	format FormatConfig
	strict bool
}

// WithDateFields classifies fields stored as YYYY-MM-DD.
func WithDateFields(fields ...string) DescriptorOption {
	return func(o *descriptorOptions) { o.dates = append(o.dates, fields...) }
}

// WithPhoneFields classifies fields validated and stored as phone numbers.
func WithPhoneFields(fields ...string) DescriptorOption {
	return func(o *descriptorOptions) { o.phones = append(o.phones, fields...) }
}

// WithMoneyFields classifies fields stored as "<amount> <symbol>".
func WithMoneyFields(fields ...string) DescriptorOption {
	return func(o *descriptorOptions) { o.moneys = append(o.moneys, fields...) }
}

// WithFormat overrides the default formats. Empty fields keep their default.
func WithFormat(cfg FormatConfig) DescriptorOption {
	return func(o *descriptorOptions) { o.format = cfg }
}

// WithStrictFormatting makes Set fail with ErrInvalidFormat instead of storing
// Invalid when a classified field rejects its input.
func WithStrictFormatting() DescriptorOption {
	return func(o *descriptorOptions) { o.strict = true }
}

// NewDescriptor creates a Descriptor for table. A field may belong to at most
// one classification.
func NewDescriptor(table string, opts ...DescriptorOption) (*Descriptor, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return nil, errors.New("gorecord: empty table name")
	}

	var o descriptorOptions
	for _, opt := range opts {
		opt(&o)
	}

	d := &Descriptor{
		table: table,
		kinds: make(map[string]FieldKind),
		format: format.Options{
			DatePattern: o.format.DatePattern,
			PhoneMask:   o.format.PhoneMask,
			MoneySymbol: o.format.MoneySymbol,
			Location:    o.format.Location,
			Now:         o.format.Now,
		}.WithDefaults(),
		strict: o.strict,
	}
	for _, group := range []struct {
		kind   FieldKind
		fields []string
	}{
		{FieldDate, o.dates},
		{FieldPhone, o.phones},
		{FieldMoney, o.moneys},
	} {
		for _, f := range group.fields {
			if prev, ok := d.kinds[f]; ok && prev != group.kind {
				return nil, newError(KindInvalidColumns, "NewDescriptor",
					fmt.Sprintf("field %q classified as both %s and %s", f, prev, group.kind), nil)
			}
			d.kinds[f] = group.kind
		}
	}
	return d, nil
}

// MustDescriptor is like NewDescriptor but panics on error. It is meant for
// package-level descriptor variables.
func MustDescriptor(table string, opts ...DescriptorOption) *Descriptor {
	d, err := NewDescriptor(table, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

// Table returns the (possibly schema-qualified) table name.
func (d *Descriptor) Table() string {
	return d.table
}

// Kind returns the classification of field.
func (d *Descriptor) Kind(field string) FieldKind {
	return d.kinds[field]
}

// Strict reports whether invalid formatted input is rejected.
func (d *Descriptor) Strict() bool {
	return d.strict
}

// Format returns the effective formats, defaults applied.
func (d *Descriptor) Format() FormatConfig {
	return FormatConfig{
		DatePattern: d.format.DatePattern,
		PhoneMask:   d.format.PhoneMask,
		MoneySymbol: d.format.MoneySymbol,
		Location:    d.format.Location,
		Now:         d.format.Now,
	}
}

// store converts v into its canonical form for field.
func (d *Descriptor) store(field string, v any) (any, bool) {
	kind := d.kinds[field]
	if kind == FieldPlain {
		return v, true
	}
	if v == nil {
		return nil, true
	}
	if IsInvalid(v) {
		return Invalid, false
	}
	switch kind {
	case FieldDate:
		return storedForm(format.StoreDate(v, d.format))
	case FieldPhone:
		return storedForm(format.Phone(v, d.format.PhoneMask))
	case FieldMoney:
		return storedForm(format.Money(v, d.format.MoneySymbol))
	}
	return v, true
}

// canonical converts a value read from the store into the stored form Set
// would produce, so that dirty checks compare like with like. Values the
// formatter rejects are kept as read.
func (d *Descriptor) canonical(field string, v any) any {
	if d.kinds[field] == FieldPlain || v == nil {
		return v
	}
	if s, ok := d.store(field, v); ok {
		return s
	}
	return v
}

// display converts a stored value of field into its display form.
func (d *Descriptor) display(field string, stored any) any {
	kind := d.kinds[field]
	if kind == FieldPlain || stored == nil || IsInvalid(stored) {
		return stored
	}
	var (
		s     string
		valid bool
	)
	switch kind {
	case FieldDate:
		s, valid = format.DisplayDate(stored, d.format)
	case FieldPhone:
		s, valid = format.Phone(stored, d.format.PhoneMask)
	case FieldMoney:
		s, valid = format.Money(stored, d.format.MoneySymbol)
	}
	if !valid {
		return Invalid
	}
	return s
}

func storedForm(s string, valid bool) (any, bool) {
	if !valid {
		return Invalid, false
	}
	return s, true
}
