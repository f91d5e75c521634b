package answer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// MarshalAnswer serializes an answer to JSON.
// Strings become JSON strings, Int/Double become numbers, Bool becomes
// a boolean. This is interchange output, not canonical - use
// MarshalCanonical for hashing and golden comparison.
func MarshalAnswer(a Answer) ([]byte, error) {
	switch v := a.(type) {
	case String:
		return json.Marshal(string(v))
	case Int:
		return json.Marshal(int64(v))
	case Double:
		return json.Marshal(float64(v))
	case Bool:
		return json.Marshal(bool(v))
	default:
		return nil, fmt.Errorf("unknown Answer type: %T", a)
	}
}

// UnmarshalAnswer decodes a JSON scalar into an Answer with strict
// variant detection.
//
// Rules:
//   - JSON strings decode as String
//   - numbers with a fraction or exponent decode as Double, others as Int
//   - booleans decode as Bool
//   - null, arrays, and objects are rejected
func UnmarshalAnswer(data []byte) (Answer, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	switch v := raw.(type) {
	case nil:
		return nil, fmt.Errorf("null is not a valid answer: only string, int, double, bool allowed")
	case string:
		return String(v), nil
	case bool:
		return Bool(v), nil
	case json.Number:
		s := string(v)
		if strings.ContainsAny(s, ".eE") {
			d, err := v.Float64()
			if err != nil {
				return nil, fmt.Errorf("invalid number %q: %w", s, err)
			}
			return Double(d), nil
		}
		n, err := v.Int64()
		if err != nil {
			return nil, fmt.Errorf("integer out of int64 range: %s", s)
		}
		return Int(n), nil
	default:
		return nil, fmt.Errorf("composite values are not valid answers: %T", raw)
	}
}

// FromGo converts a plain Go scalar (as produced by YAML or JSON
// decoding into any) to an Answer. Accepts string, bool, int, int64,
// and float64; float64 values that came from integer literals stay
// Double - callers that need Int should provide int inputs.
func FromGo(v any) (Answer, error) {
	switch val := v.(type) {
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case float64:
		return Double(val), nil
	default:
		return nil, fmt.Errorf("unsupported answer type: %T", v)
	}
}
