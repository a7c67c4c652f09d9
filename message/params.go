package message

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// GetParams returns the params bag.
func (r *Request) GetParams() map[string]any {
	return r.Params
}

// SetParams replaces the whole params bag.
func (r *Request) SetParams(params map[string]any) *Request {
	r.Params = params
	return r
}

// WithParams is an alias of SetParams.
func (r *Request) WithParams(params map[string]any) *Request {
	return r.SetParams(params)
}

// Set stores value under key in params.
func (r *Request) Set(key string, value any) *Request {
	if r.Params == nil {
		r.Params = map[string]any{}
	}
	r.Params[key] = value
	return r
}

// WithParam is an alias of Set.
func (r *Request) WithParam(key string, value any) *Request {
	return r.Set(key, value)
}

// Has reports whether params contains key.
func (r *Request) Has(key string) bool {
	_, ok := r.Params[key]
	return ok
}

// Get returns the param under key, or def when key is absent. A nil def
// and no default at all are the same thing.
func (r *Request) Get(key string, def any) any {
	if v, ok := r.Params[key]; ok {
		return v
	}
	return def
}

// GetString returns the param under key as a string. A missing key yields
// "", an explicit nil yields "null".
func (r *Request) GetString(key string) string {
	if !r.Has(key) {
		return ""
	}
	return toString(r.Get(key, nil))
}

// GetNumber returns the param under key as a float64. A missing key and
// values that are not numeric yield NaN; nil, false and blank strings
// yield 0.
func (r *Request) GetNumber(key string) float64 {
	if !r.Has(key) {
		return math.NaN()
	}
	return toNumber(r.Get(key, nil))
}

// GetBoolean reports whether the param under key is truthy: present, not
// nil, not false, not zero or NaN, not "".
func (r *Request) GetBoolean(key string) bool {
	return toBool(r.Get(key, nil))
}

// GetArray returns the param under key as a slice. A slice value is
// returned element by element, any other value is wrapped in a one-element
// slice. A missing key yields []any{nil}.
func (r *Request) GetArray(key string) []any {
	v := r.Get(key, nil)
	if s, ok := v.([]any); ok {
		return s
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return []any{v}
}

// HasExtra reports whether extra contains key.
func (r *Request) HasExtra(key string) bool {
	_, ok := r.Extra[key]
	return ok
}

// GetExtra returns the extra value under key, nil when absent.
func (r *Request) GetExtra(key string) any {
	return r.Extra[key]
}

// SetExtra stores value under key in extra.
func (r *Request) SetExtra(key string, value any) *Request {
	if r.Extra == nil {
		r.Extra = map[string]any{}
	}
	r.Extra[key] = value
	return r
}

// WithExtra is an alias of SetExtra.
func (r *Request) WithExtra(key string, value any) *Request {
	return r.SetExtra(key, value)
}

// CopyExtra replaces extra with a deep copy of other's extra. Derived
// envelopes share extra with their source; CopyExtra detaches them.
func (r *Request) CopyExtra(other *Request) {
	r.Extra = copyMap(other.Extra)
	if r.Extra == nil {
		r.Extra = map[string]any{}
	}
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

func toNumber(v any) float64 {
	switch t := v.(type) {
	case nil:
		return 0
	case bool:
		if t {
			return 1
		}
		return 0
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return 0
		}
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return math.NaN()
}

func toBool(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f := toNumber(t)
		return f != 0 && !math.IsNaN(f)
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		f := toNumber(v)
		return f != 0 && !math.IsNaN(f)
	}
	// Maps, slices and structs count as set.
	return true
}
