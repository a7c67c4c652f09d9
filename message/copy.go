package message

import (
	"maps"
	"reflect"
)

// Clone returns a deep copy of the envelope. Params, extra, populate and
// hops of the copy share nothing with the original.
func (r *Request) Clone() *Request {
	c := &Request{
		Command:   r.Command,
		Params:    copyMap(r.Params),
		Extra:     copyMap(r.Extra),
		Populate:  copyPopulate(r.Populate),
		ReqID:     r.ReqID,
		Now:       r.Now,
		RID:       r.RID,
		SID:       r.SID,
		UID:       copyUser(r.UID),
		Hops:      copyHops(r.Hops),
		Error:     r.Error,
		ErrorText: r.ErrorText,
	}
	if code, ok := r.Error.Get(); ok {
		c.Error = Some(copyValue(code))
	}
	return c
}

func (c Core) clone() Core {
	out := c
	if p, ok := c.Params.Get(); ok {
		out.Params = Some(copyMap(p))
	}
	if e, ok := c.Extra.Get(); ok {
		out.Extra = Some(copyMap(e))
	}
	if p, ok := c.Populate.Get(); ok {
		out.Populate = Some(copyPopulate(p))
	}
	if code, ok := c.Error.Get(); ok {
		out.Error = Some(copyValue(code))
	}
	out.UID = copyUser(c.UID)
	out.Hops = copyHops(c.Hops)
	return out
}

func copyPopulate(p []Populate) []Populate {
	if p == nil {
		return nil
	}
	out := make([]Populate, len(p))
	for i, entry := range p {
		out[i] = Populate{Request: entry.Request.clone(), Returns: entry.Returns}
	}
	return out
}

func copyUser(u Opt[User]) Opt[User] {
	if v, ok := u.Get(); ok {
		return Some(User{UID: copyValue(v.UID), Persistent: v.Persistent})
	}
	return u
}

func copyHops(h Opt[[]string]) Opt[[]string] {
	if v, ok := h.Get(); ok && v != nil {
		return Some(append([]string(nil), v...))
	}
	return h
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

// copyValue deep copies maps, slices and arrays. Pointers and other values
// are copied as is.
func copyValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	case map[string]string:
		return maps.Clone(t)
	case []string:
		return append([]string(nil), t...)
	}
	return copyReflect(reflect.ValueOf(v)).Interface()
}

func copyReflect(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), copyElem(iter.Value(), v.Type().Elem()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(copyElem(v.Index(i), v.Type().Elem()))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(copyElem(v.Index(i), v.Type().Elem()))
		}
		return out
	}
	return v
}

// copyElem copies a container element, unwrapping interface elements so
// nested map[string]any values are copied too.
func copyElem(v reflect.Value, typ reflect.Type) reflect.Value {
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Zero(typ)
		}
		return reflect.ValueOf(copyValue(v.Interface()))
	}
	return copyReflect(v)
}
