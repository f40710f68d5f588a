// Package metadata models the key/value metadata attached to log records and
// converts it to and from the single-line JSON blob stored in log files.
package metadata

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"
)

var (
	// ErrMalformed is returned when a blob is not a single JSON object.
	ErrMalformed = errors.New("malformed metadata")

	// ErrUnsupportedLeaf is returned when a value has no metadata representation.
	ErrUnsupportedLeaf = errors.New("unsupported metadata leaf type")
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindString Kind = iota + 1
	KindScalar      // stringified number or boolean
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is one metadata value: a string, a stringified scalar, an ordered
// list of values or a nested map. The zero Value is invalid.
type Value struct {
	kind  Kind
	text  string
	items []Value
	m     Map
}

// Map is a metadata mapping. Keys are unique; encoding sorts them.
type Map map[string]Value

// String returns a string leaf.
func String(s string) Value { return Value{kind: KindString, text: s} }

// Scalar returns a leaf holding the printed form of a primitive value,
// e.g. "42" or "true". Text that is not a JSON number or boolean, such as
// "NaN", is returned as a String leaf so it reads back unchanged.
func Scalar(s string) Value {
	if !isLiteral(s) {
		return String(s)
	}
	return Value{kind: KindScalar, text: s}
}

// List returns an ordered list value.
func List(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindList, items: cp}
}

// Nested returns a map value.
func Nested(m Map) Value {
	if m == nil {
		m = Map{}
	}
	return Value{kind: KindMap, m: m}
}

// From converts a Go value into a Value. Strings, durations and times
// become String leaves. Finite numbers and booleans become Scalar leaves.
// Slices of any and string maps recurse. Anything else fails with
// ErrUnsupportedLeaf.
func From(v any) (Value, error) {
	switch t := v.(type) {
	case Value:
		return t, nil
	case string:
		return String(t), nil
	case time.Duration, time.Time:
		return String(cast.ToString(t)), nil
	case fmt.Stringer:
		return String(t.String()), nil
	case Map:
		return Nested(t), nil
	case []string:
		items := make([]Value, len(t))
		for i, s := range t {
			items[i] = String(s)
		}
		return List(items...), nil
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			iv, err := From(item)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			items[i] = iv
		}
		return List(items...), nil
	case map[string]any:
		m := make(Map, len(t))
		for k, item := range t {
			iv, err := From(item)
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			m[k] = iv
		}
		return Nested(m), nil
	case map[string]string:
		m := make(Map, len(t))
		for k, s := range t {
			m[k] = String(s)
		}
		return Nested(m), nil
	}

	switch v.(type) {
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
		float32, float64:
		s, err := cast.ToStringE(v)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrUnsupportedLeaf, err)
		}
		return Scalar(s), nil
	}
	return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedLeaf, v)
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// Text returns the leaf text of a String or Scalar value.
func (v Value) Text() (string, bool) {
	if v.kind == KindString || v.kind == KindScalar {
		return v.text, true
	}
	return "", false
}

// Items returns the elements of a List value.
func (v Value) Items() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.items
}

// Map returns the entries of a Map value.
func (v Value) Map() Map {
	if v.kind != KindMap {
		return nil
	}
	return v.m
}

// String returns the printed form of v: leaves print their text, lists and
// maps print their encoded form.
func (v Value) String() string {
	switch v.kind {
	case KindString, KindScalar:
		return v.text
	default:
		var b strings.Builder
		if err := writeValue(&b, v); err != nil {
			return "<invalid>"
		}
		return b.String()
	}
}

// Equal reports whether v and o hold the same variant and contents.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString, KindScalar:
		return v.text == o.text
	case KindList:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case KindMap:
		return v.m.Equal(o.m)
	}
	return true
}

// Equal reports whether m and o have the same keys and equal values.
func (m Map) Equal(o Map) bool {
	if len(m) != len(o) {
		return false
	}
	for k, v := range m {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Keys returns the keys of m in ascending order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy of m.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Merge returns a copy of m with the entries of o added, o winning on
// conflicting keys.
func (m Map) Merge(o Map) Map {
	out := m.Clone()
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Leaves calls fn with the text of every String and Scalar leaf in m,
// descending into lists and nested maps. Iteration stops when fn returns
// false.
func (m Map) Leaves(fn func(text string) bool) bool {
	for _, v := range m {
		if !v.leaves(fn) {
			return false
		}
	}
	return true
}

func (v Value) leaves(fn func(string) bool) bool {
	switch v.kind {
	case KindString, KindScalar:
		return fn(v.text)
	case KindList:
		for _, item := range v.items {
			if !item.leaves(fn) {
				return false
			}
		}
	case KindMap:
		return v.m.Leaves(fn)
	}
	return true
}
