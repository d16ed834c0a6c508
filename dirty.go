package gorecord

import (
	"math"
	"reflect"
)

// IsDirty reports whether the working fields differ from the last persisted
// state, including fields that were never persisted.
func (e *Entity) IsDirty() bool {
	return len(e.dirtyKeys()) > 0
}

// GetDirty returns the fields whose stored value differs from the last
// persisted state. A never persisted entity returns every field.
func (e *Entity) GetDirty() map[string]any {
	keys := e.dirtyKeys()
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		out[k] = e.working[k]
	}
	return out
}

// dirtyKeys returns the dirty field names in write order.
func (e *Entity) dirtyKeys() []string {
	var keys []string
	for _, k := range e.keys {
		if len(e.original) == 0 {
			keys = append(keys, k)
			continue
		}
		prev, ok := e.original[k]
		if !ok || !sameValue(prev, e.working[k]) {
			keys = append(keys, k)
		}
	}
	return keys
}

// sameValue compares two stored values the way the store would see them:
// byte slices equal their string form, integers compare across widths and NaN
// equals NaN.
func sameValue(a, b any) bool {
	a, b = normalize(a), normalize(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if fa, ok := a.(float64); ok && math.IsNaN(fa) {
		return math.IsNaN(b.(float64))
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

func normalize(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint:
		if uint64(x) <= 1<<63-1 {
			return int64(x)
		}
		return uint64(x)
	case uint64:
		if x <= 1<<63-1 {
			return int64(x)
		}
		return x
	case float32:
		return float64(x)
	}
	return v
}
