// Package payload reads the loosely structured JSON bodies sent by the
// browser front end, which does not always agree on field names or types.
package payload

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Object is a decoded JSON object.
type Object map[string]any

// Parse decodes body as a JSON object. Malformed or non-object input yields
// an empty object rather than an error.
func Parse(body []byte) Object {
	var obj Object
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		return Object{}
	}
	return obj
}

// ParseObject is like Parse but reports false for well-formed JSON that is
// not an object, such as an array or a bare string.
func ParseObject(body []byte) (Object, bool) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil || v == nil {
		return Object{}, true
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return Object(m), true
}

// Truthy follows JSON-ish truthiness: null, false, 0, "" and empty
// containers are false.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case map[string]any:
		return len(t) > 0
	case []any:
		return len(t) > 0
	}
	return true
}

// First returns the first present, non-empty value among keys.
func (o Object) First(keys ...string) (any, bool) {
	for _, k := range keys {
		v, ok := o[k]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func (o Object) String(keys ...string) string {
	v, ok := o.First(keys...)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// Decimal accepts JSON numbers and numeric strings; absent keys give zero.
func (o Object) Decimal(keys ...string) (decimal.Decimal, bool, error) {
	v, ok := o.First(keys...)
	if !ok {
		return decimal.Zero, false, nil
	}
	switch t := v.(type) {
	case float64:
		return decimal.NewFromFloat(t), true, nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return decimal.Zero, true, fmt.Errorf("%s: %q is not a number", keys[0], t)
		}
		return d, true, nil
	case bool:
		// falsy values count as absent, like the front end sends them
		if !t {
			return decimal.Zero, false, nil
		}
	}
	return decimal.Zero, true, fmt.Errorf("%s: expected a number", keys[0])
}

// Number returns a JSON number only; strings and other types are ignored.
func (o Object) Number(keys ...string) *float64 {
	v, ok := o.First(keys...)
	if !ok {
		return nil
	}
	if f, isNum := v.(float64); isNum {
		return &f
	}
	return nil
}

// Int reads a positive integer from a number or numeric string.
func (o Object) Int(def int, keys ...string) (int, error) {
	v, ok := o.First(keys...)
	if !ok {
		return def, nil
	}
	switch t := v.(type) {
	case float64:
		if t == 0 {
			return def, nil
		}
		return int(t), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not an integer", keys[0], t)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%s: expected an integer", keys[0])
}

// ID reads an optional positive identifier.
func (o Object) ID(keys ...string) *uint {
	v, ok := o.First(keys...)
	if !ok {
		return nil
	}
	var n uint64
	switch t := v.(type) {
	case float64:
		if t <= 0 {
			return nil
		}
		n = uint64(t)
	case string:
		parsed, err := strconv.ParseUint(strings.TrimSpace(t), 10, 64)
		if err != nil || parsed == 0 {
			return nil
		}
		n = parsed
	default:
		return nil
	}
	id := uint(n)
	return &id
}

func (o Object) Object(key string) (Object, bool) {
	m, ok := o[key].(map[string]any)
	return Object(m), ok
}

func (o Object) Objects(key string) []Object {
	arr, _ := o[key].([]any)
	out := make([]Object, 0, len(arr))
	for _, v := range arr {
		if m, ok := v.(map[string]any); ok {
			out = append(out, Object(m))
		}
	}
	return out
}
