package gorecord_test

import (
	"testing"

	"github.com/mickamy/gorecord"
)

type Customer struct{}

type OrderLine struct{}

type HTTPRequestLog struct{}

type Person struct{}

type legacyAccount struct{}

func (legacyAccount) TableName() string { return "crm.accounts" }

type pointerNamer struct{}

func (*pointerNamer) TableName() string { return "pointer_named" }

type blankNamer struct{}

func (blankNamer) TableName() string { return "  " }

func TestTableName(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name    string
		target  any
		want    string
		wantErr bool
	}{
		{name: "string", target: " shop.orders ", want: "shop.orders"},
		{name: "struct", target: Customer{}, want: "customers"},
		{name: "pointer", target: &OrderLine{}, want: "order_lines"},
		{name: "acronym", target: HTTPRequestLog{}, want: "http_request_logs"},
		{name: "irregular plural", target: Person{}, want: "people"},
		{name: "table namer", target: legacyAccount{}, want: "crm.accounts"},
		{name: "pointer receiver namer", target: pointerNamer{}, want: "pointer_named"},
		{name: "nil pointer namer", target: (*pointerNamer)(nil), want: "pointer_named"},
		{name: "blank namer", target: blankNamer{}, wantErr: true},
		{name: "nil", target: nil, wantErr: true},
		{name: "empty string", target: " ", wantErr: true},
		{name: "anonymous struct", target: struct{ ID int }{}, wantErr: true},
		{name: "unsupported", target: 42, wantErr: true},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := gorecord.TableName(tc.target)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("TableName(%#v) = %q, want error", tc.target, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("TableName(%#v) unexpected error: %v", tc.target, err)
			}
			if got != tc.want {
				t.Fatalf("TableName(%#v) = %q, want %q", tc.target, got, tc.want)
			}
		})
	}
}

func TestNewDescriptorFor(t *testing.T) {
	t.Parallel()

	d, err := gorecord.NewDescriptorFor(&Customer{}, gorecord.WithPhoneFields("phone"))
	if err != nil {
		t.Fatalf("NewDescriptorFor: %v", err)
	}
	if d.Table() != "customers" || d.Kind("phone") != gorecord.FieldPhone {
		t.Fatalf("NewDescriptorFor = %q/%v", d.Table(), d.Kind("phone"))
	}
}
