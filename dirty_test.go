package gorecord_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mickamy/gorecord"
)

func TestGetDirty(t *testing.T) {
	t.Parallel()

	orders := gorecord.MustDescriptor("orders", gorecord.WithMoneyFields("total"))

	tcs := []struct {
		name     string
		original map[string]any // nil for a new entity
		writes   []gorecord.Field
		want     map[string]any
	}{
		{
			name:     "changed field",
			original: map[string]any{"id": int64(1), "name": "A"},
			writes:   []gorecord.Field{{Name: "name", Value: "B"}},
			want:     map[string]any{"name": "B"},
		},
		{
			name:     "rewritten with the same value",
			original: map[string]any{"id": int64(1), "name": "A"},
			writes:   []gorecord.Field{{Name: "name", Value: "A"}},
			want:     map[string]any{},
		},
		{
			name:     "added field",
			original: map[string]any{"id": int64(1), "name": "A"},
			writes:   []gorecord.Field{{Name: "email", Value: "a@example.com"}},
			want:     map[string]any{"email": "a@example.com"},
		},
		{
			name:     "integer widths compare equal",
			original: map[string]any{"id": int64(1), "qty": int64(4)},
			writes:   []gorecord.Field{{Name: "qty", Value: 4}},
			want:     map[string]any{},
		},
		{
			name:     "store bytes compare as strings",
			original: map[string]any{"id": int64(1), "code": []byte("x1")},
			writes:   []gorecord.Field{{Name: "code", Value: "x1"}},
			want:     map[string]any{},
		},
		{
			name:     "compared in stored form",
			original: map[string]any{"id": int64(1), "total": "12,50 €"},
			writes:   []gorecord.Field{{Name: "total", Value: 12.5}},
			want:     map[string]any{},
		},
		{
			name:     "stored form differs",
			original: map[string]any{"id": int64(5), "total": "10,00"},
			writes:   []gorecord.Field{{Name: "total", Value: "12,50"}},
			want:     map[string]any{"total": "12,50 €"},
		},
		{
			name:   "new entity is entirely dirty",
			writes: []gorecord.Field{{Name: "name", Value: "X"}, {Name: "total", Value: 3}},
			want:   map[string]any{"name": "X", "total": "3,00 €"},
		},
		{
			name: "new entity without writes",
			want: map[string]any{},
		},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var e *gorecord.Entity
			if tc.original != nil {
				e, _ = loaded(orders, tc.original)
			} else {
				e = gorecord.NewEntity(orders, &recorder{})
			}
			if err := e.Fill(tc.writes...); err != nil {
				t.Fatalf("Fill: %v", err)
			}

			got := e.GetDirty()
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("GetDirty mismatch (-want +got):\n%s", diff)
			}
			if dirty := e.IsDirty(); dirty != (len(tc.want) > 0) {
				t.Fatalf("IsDirty = %t, want %t", dirty, len(tc.want) > 0)
			}
		})
	}
}
