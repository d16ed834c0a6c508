package gorecord

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestColumnList(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name    string
		in      any
		want    []string
		wantErr bool
	}{
		{name: "single", in: "email", want: []string{"email"}},
		{name: "comma separated", in: "name, email ,phone", want: []string{"name", "email", "phone"}},
		{name: "slice", in: []string{"name", " total "}, want: []string{"name", "total"}},
		{name: "star", in: "*", want: []string{"*"}},
		{name: "blank string", in: "  ", wantErr: true},
		{name: "only commas", in: ", ,", wantErr: true},
		{name: "empty slice", in: []string{}, wantErr: true},
		{name: "nil", in: nil, wantErr: true},
		{name: "injection", in: "name; DROP TABLE users", wantErr: true},
		{name: "unsupported type", in: 42, wantErr: true},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := columnList(tc.in)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidColumns) {
					t.Fatalf("columnList(%#v) error = %v, want ErrInvalidColumns", tc.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("columnList(%#v) unexpected error: %v", tc.in, err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("columnList(%#v) = %#v, want %#v", tc.in, got, tc.want)
			}
		})
	}
}

func TestMissingID(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name string
		in   any
		want bool
	}{
		{name: "nil", in: nil, want: true},
		{name: "empty string", in: "", want: true},
		{name: "blank string", in: "  ", want: true},
		{name: "zero int", in: 0, want: false},
		{name: "int", in: int64(5), want: false},
		{name: "uuid string", in: "0b6c3e4a", want: false},
	}
	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := missingID(tc.in); got != tc.want {
				t.Fatalf("missingID(%#v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestSameValue(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name string
		a, b any
		want bool
	}{
		{name: "equal strings", a: "x", b: "x", want: true},
		{name: "bytes and string", a: []byte("x"), b: "x", want: true},
		{name: "int widths", a: int32(5), b: int64(5), want: true},
		{name: "int and uint", a: 5, b: uint8(5), want: true},
		{name: "int and string", a: 5, b: "5", want: false},
		{name: "both nil", a: nil, b: nil, want: true},
		{name: "nil and value", a: nil, b: "", want: false},
		{name: "invalid sentinel", a: Invalid, b: Invalid, want: true},
		{name: "slices", a: []int{1, 2}, b: []int{1, 2}, want: true},
		{name: "nan", a: math.NaN(), b: math.NaN(), want: true},
		{name: "nan widths", a: float32(math.NaN()), b: math.NaN(), want: true},
		{name: "nan and number", a: math.NaN(), b: 1.5, want: false},
	}
	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := sameValue(tc.a, tc.b); got != tc.want {
				t.Fatalf("sameValue(%#v, %#v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}
