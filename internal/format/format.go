// Package format converts field values between their stored (canonical) form
// and their display form. Every function reports failure with a false second
// result instead of an error; callers decide how a failure is surfaced.
package format

import (
	"time"
)

// Defaults used when an Options field is left empty.
const (
	DefaultDatePattern = "d/m/Y"
	DefaultPhoneMask   = "XXX XXX XXXX"
	DefaultMoneySymbol = "€"

	// CanonicalDatePattern is the stored form of every date field.
	CanonicalDatePattern = "Y-m-d"
)

// MaxTimestampHorizon bounds how far in the future a numeric input may point
// and still be read as a Unix timestamp.
const MaxTimestampHorizon = 20

// Options carries the per-entity-type formatting configuration.
type Options struct {
	DatePattern string
	PhoneMask   string
	MoneySymbol string
	Location    *time.Location
	Now         func() time.Time
}

// WithDefaults returns a copy of o with every empty field set to its default.
func (o Options) WithDefaults() Options {
	if o.DatePattern == "" {
		o.DatePattern = DefaultDatePattern
	}
	if o.PhoneMask == "" {
		o.PhoneMask = DefaultPhoneMask
	}
	if o.MoneySymbol == "" {
		o.MoneySymbol = DefaultMoneySymbol
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
