// Package style defines the ordered style tree the engine compiles.
package style

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Object is an ordered mapping of style keys to values. Values are strings,
// numbers, nested *Object or, when decoded from YAML, nil and bool (which the
// engine rejects as terminals).
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject builds an object from alternating key/value pairs.
func NewObject(kv ...any) *Object {
	if len(kv)%2 != 0 {
		panic("style.NewObject: odd number of arguments")
	}
	o := &Object{values: make(map[string]any, len(kv)/2)}
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("style.NewObject: key %v is not a string", kv[i]))
		}
		o.Set(key, kv[i+1])
	}
	return o
}

// Set stores value under key. Existing keys keep their position.
func (o *Object) Set(key string, value any) *Object {
	if o.values == nil {
		o.values = make(map[string]any)
	}
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
	return o
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Len returns number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns keys in insertion order. The slice is a copy.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return append([]string(nil), o.keys...)
}

// Each calls fn for every entry in insertion order.
func (o *Object) Each(fn func(key string, value any)) {
	if o == nil {
		return
	}
	for _, k := range o.keys {
		fn(k, o.values[k])
	}
}

// FormatValue returns textual form of a terminal value as it appears in
// generated class names and plain declarations. It reports false for values
// that have no textual form (nil, bool and unsupported types).
func FormatValue(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case int:
		return strconv.Itoa(val), true
	case int8, int16, int32, int64:
		return fmt.Sprintf("%d", val), true
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val), true
	case float32:
		return formatFloat(float64(val), 32)
	case float64:
		return formatFloat(val, 64)
	case *Object:
		if val == nil {
			return "", false
		}
		var sb strings.Builder
		sb.WriteByte('{')
		for i, k := range val.keys {
			s, ok := FormatValue(val.values[k])
			if !ok {
				return "", false
			}
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(k)
			sb.WriteByte(':')
			sb.WriteString(s)
		}
		sb.WriteByte('}')
		return sb.String(), true
	default:
		return "", false
	}
}

// formatFloat writes numbers the way CSS expects them, without exponent.
// Infinities and NaN have no CSS form.
func formatFloat(f float64, bitSize int) (string, bool) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', -1, bitSize), true
}
