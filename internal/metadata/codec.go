package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/buger/jsonparser"
)

// separatorRun is the record separator; it must never appear in a blob.
const separatorRun = ":::"

// Encode renders m as a single-line JSON object with keys in ascending
// order. The output is byte-stable for equal input.
func Encode(m Map) (string, error) {
	var b strings.Builder
	if err := writeMap(&b, m); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Decode parses a blob produced by Encode (or any single JSON object).
// JSON strings become String leaves; numbers and booleans become Scalar
// leaves holding their raw token.
func Decode(blob string) (Map, error) {
	data := []byte(strings.TrimSpace(blob))
	if len(data) == 0 || data[0] != '{' || !json.Valid(data) {
		return nil, fmt.Errorf("%w: %q", ErrMalformed, clip(blob))
	}
	return decodeObject(data)
}

func writeMap(b *strings.Builder, m Map) error {
	b.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			b.WriteByte(',')
		}
		writeString(b, k)
		b.WriteByte(':')
		if err := writeValue(b, m[k]); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
	}
	b.WriteByte('}')
	return nil
}

func writeValue(b *strings.Builder, v Value) error {
	switch v.kind {
	case KindString:
		writeString(b, v.text)
	case KindScalar:
		b.WriteString(v.text)
	case KindList:
		b.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := writeValue(b, item); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
		b.WriteByte(']')
	case KindMap:
		return writeMap(b, v.m)
	default:
		return fmt.Errorf("%w: zero value", ErrUnsupportedLeaf)
	}
	return nil
}

func writeString(b *strings.Builder, s string) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s) // strings always encode
	q := strings.TrimSuffix(buf.String(), "\n")
	if strings.Contains(q, separatorRun) {
		q = strings.ReplaceAll(q, ":", `\u003a`)
	}
	b.WriteString(q)
}

// isLiteral reports whether s can be emitted unquoted: a JSON number or
// boolean literal.
func isLiteral(s string) bool {
	if s == "true" || s == "false" {
		return true
	}
	if s == "" || !(s[0] == '-' || (s[0] >= '0' && s[0] <= '9')) {
		return false
	}
	return json.Valid([]byte(s))
}

func decodeObject(data []byte) (Map, error) {
	m := Map{}
	err := jsonparser.ObjectEach(data, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
		v, err := decodeValue(value, dt)
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		m[string(key)] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func decodeValue(value []byte, dt jsonparser.ValueType) (Value, error) {
	switch dt {
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return String(s), nil
	case jsonparser.Number, jsonparser.Boolean:
		return Scalar(string(value)), nil
	case jsonparser.Object:
		nested, err := decodeObject(value)
		if err != nil {
			return Value{}, err
		}
		return Nested(nested), nil
	case jsonparser.Array:
		items := []Value{}
		var inner error
		_, err := jsonparser.ArrayEach(value, func(item []byte, it jsonparser.ValueType, _ int, e error) {
			if inner != nil {
				return
			}
			if e != nil {
				inner = fmt.Errorf("%w: %v", ErrMalformed, e)
				return
			}
			v, err := decodeValue(item, it)
			if err != nil {
				inner = fmt.Errorf("index %d: %w", len(items), err)
				return
			}
			items = append(items, v)
		})
		if inner != nil {
			return Value{}, inner
		}
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return List(items...), nil
	default:
		return Value{}, fmt.Errorf("%w: %s", ErrUnsupportedLeaf, dt)
	}
}

func clip(s string) string {
	const max = 64
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
