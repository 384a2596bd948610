package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
	"strings"
)

// ErrInvalid is returned for any payload that is not a flat document of
// primitive values.
var ErrInvalid = errors.New("invalid settings document")

// Value is a sealed interface over the primitive setting variants.
// Only Bool, Number and String implement it.
type Value interface {
	settingValue()
}

// Bool is a boolean setting such as left_sidebar_open.
type Bool bool

func (Bool) settingValue() {}

// Number is a numeric setting such as left_width.
type Number float64

func (Number) settingValue() {}

// String is a string setting such as theme.
type String string

func (String) settingValue() {}

// Document is a flat settings document.
type Document map[string]Value

// Parse decodes a JSON object into a Document.
// The top level must be an object and every member a bool, number or string.
func Parse(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after document", ErrInvalid)
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level must be an object, got %s", ErrInvalid, jsonKind(raw))
	}
	return FromMap(obj)
}

// FromMap converts decoded JSON (or plain Go values) into a Document.
// Keys are checked in sorted order so the reported error is stable.
func FromMap(m map[string]any) (Document, error) {
	doc := make(Document, len(m))
	for _, k := range sortedKeys(m) {
		v, err := toValue(m[k])
		if err != nil {
			return nil, fmt.Errorf("%w: key %q: %v", ErrInvalid, k, err)
		}
		doc[k] = v
	}
	return doc, nil
}

func toValue(v any) (Value, error) {
	switch val := v.(type) {
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("number out of range: %s", val)
		}
		return Number(f), nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, fmt.Errorf("number must be finite")
		}
		return Number(val), nil
	case int:
		return Number(val), nil
	case int64:
		return Number(val), nil
	case nil:
		return nil, fmt.Errorf("null is not a setting value")
	case []any:
		return nil, fmt.Errorf("arrays are not setting values")
	case map[string]any:
		return nil, fmt.Errorf("nested objects are not setting values")
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Merge returns base with partial laid over it. Neither input is modified.
// The merge is shallow: a key present in partial replaces the base value.
func Merge(base, partial Document) Document {
	out := make(Document, len(base)+len(partial))
	maps.Copy(out, base)
	maps.Copy(out, partial)
	return out
}

// Clone returns a copy of d. Values are immutable, so a shallow copy suffices.
func (d Document) Clone() Document {
	if d == nil {
		return Document{}
	}
	return maps.Clone(d)
}

// Keys returns the document keys in sorted order.
func (d Document) Keys() []string {
	return sortedKeys(d)
}

// UnmarshalJSON implements json.Unmarshaler with the same rules as Parse.
func (d *Document) UnmarshalJSON(data []byte) error {
	doc, err := Parse(data)
	if err != nil {
		return err
	}
	*d = doc
	return nil
}

// MarshalJSON implements json.Marshaler. Output is canonical.
func (d Document) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(d)
}

// MarshalCanonical encodes d with sorted keys and no HTML escaping, so equal
// documents always produce identical bytes.
func MarshalCanonical(d Document) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalString(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := marshalValue(d[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case Bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case Number:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("number must be finite")
		}
		return json.Marshal(f)
	case String:
		return marshalString(string(val))
	default:
		return nil, fmt.Errorf("unknown setting value type %T", v)
	}
}

// marshalString encodes s as a JSON string without escaping <, > and &.
func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return []byte(strings.TrimSuffix(buf.String(), "\n")), nil
}

// sortedKeys returns the keys of m in sorted order.
func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
