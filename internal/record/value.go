package record

import (
	"fmt"
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface for snapshot field values.
// Only StringValue, IntValue, and BoolValue implement it.
// NO floats - floats break canonical JSON determinism.
type Value interface {
	snapshotValue() // sealed
}

// StringValue is a string snapshot field.
type StringValue string

func (StringValue) snapshotValue() {}

// IntValue is an integer snapshot field. Always int64, never float64.
type IntValue int64

func (IntValue) snapshotValue() {}

// BoolValue is a boolean snapshot field.
type BoolValue bool

func (BoolValue) snapshotValue() {}

// Snapshot is a flat field map capturing entity state before or after a
// mutation. Snapshots are opaque to the core beyond canonical
// serialization: callers of the manual audit operation supply their own,
// and the other operations build theirs from the entity fields they
// touched.
//
// Use SortedKeys for deterministic iteration.
type Snapshot map[string]Value

// Fields builds a Snapshot from alternating key, value arguments.
// Values must be string, int64, int, or bool. Panics on odd argument
// counts or unsupported types - misuse is a programming error, not a
// runtime condition.
func Fields(kv ...any) Snapshot {
	if len(kv)%2 != 0 {
		panic("record.Fields: odd number of arguments")
	}
	snap := make(Snapshot, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("record.Fields: key %v is not a string", kv[i]))
		}
		switch v := kv[i+1].(type) {
		case string:
			snap[key] = StringValue(v)
		case int64:
			snap[key] = IntValue(v)
		case int:
			snap[key] = IntValue(v)
		case bool:
			snap[key] = BoolValue(v)
		case Value:
			snap[key] = v
		default:
			panic(fmt.Sprintf("record.Fields: unsupported value type %T for key %q", kv[i+1], key))
		}
	}
	return snap
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings uses UTF-8 byte order, which differs for characters
// outside the BMP, so the comparison must go through utf16.Encode.
func (s Snapshot) SortedKeys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// Clone returns a deep copy. Queries hand snapshots back to callers as
// copies so the stored trail can never be mutated through a read.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// compareKeysRFC8785 compares strings by UTF-16 code units as required
// by RFC 8785. utf16.Encode handles surrogate pairs correctly.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	for i := 0; i < len(a16) && i < len(b16); i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}
