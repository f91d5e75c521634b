package answer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces a deterministic JSON encoding for hashing
// and golden comparison. Unlike MarshalAnswer it guarantees:
//   - object keys sorted bytewise
//   - strings NFC-normalized, no HTML escaping
//   - doubles in shortest round-trip form
//
// Accepted inputs: Answer values, string, int, int64, float64, bool,
// []any, and map[string]any (nesting allowed for snapshot structures).
func MarshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical encoding")
	case Answer:
		return marshalCanonicalAnswer(val)
	case string:
		return marshalCanonicalString(val)
	case int:
		return []byte(strconv.FormatInt(int64(val), 10)), nil
	case int64:
		return []byte(strconv.FormatInt(val, 10)), nil
	case float64:
		return []byte(strconv.FormatFloat(val, 'g', -1, 64)), nil
	case bool:
		return []byte(strconv.FormatBool(val)), nil
	case []string:
		anys := make([]any, len(val))
		for i, s := range val {
			anys[i] = s
		}
		return marshalCanonicalList(anys)
	case []any:
		return marshalCanonicalList(val)
	case map[string]any:
		return marshalCanonicalObject(val)
	default:
		return nil, fmt.Errorf("unsupported type for canonical encoding: %T", v)
	}
}

func marshalCanonicalAnswer(a Answer) ([]byte, error) {
	switch v := a.(type) {
	case String:
		return marshalCanonicalString(string(v))
	case Int:
		return []byte(strconv.FormatInt(int64(v), 10)), nil
	case Double:
		return []byte(strconv.FormatFloat(float64(v), 'g', -1, 64)), nil
	case Bool:
		return []byte(strconv.FormatBool(bool(v))), nil
	default:
		return nil, fmt.Errorf("unknown Answer type: %T", a)
	}
}

// marshalCanonicalString encodes a string NFC-normalized and without
// HTML escaping, so the same logical text always yields the same bytes.
func marshalCanonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	// json.Encoder appends a trailing newline
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func marshalCanonicalList(list []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range list {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := MarshalCanonical(elem)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalCanonicalObject(obj map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := marshalCanonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')

		vb, err := MarshalCanonical(obj[k])
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
