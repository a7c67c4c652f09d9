package message

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Wire field names.
const (
	FieldCommand   = "command"
	FieldNow       = "now"
	FieldParams    = "params"
	FieldExtra     = "extra"
	FieldReqID     = "reqid"
	FieldSID       = "sid"
	FieldRID       = "rid"
	FieldPopulate  = "populate"
	FieldError     = "error"
	FieldErrorText = "errorText"
	FieldUID       = "uid"
	FieldHops      = "hops"
)

// Core is the sparse form of an envelope: only the fields that are set.
//
// It is the input of New, the output of DataCore, and the shape nested in
// populate entries. On the wire it is a JSON object holding exactly the
// present fields; unknown keys are ignored when decoding.
type Core struct {
	Command   Opt[string]
	Now       Opt[int64]
	Params    Opt[map[string]any]
	Extra     Opt[map[string]any]
	ReqID     Opt[int64]
	SID       Opt[string]
	RID       Opt[string]
	Populate  Opt[[]Populate]
	Error     Opt[any]
	ErrorText Opt[string]
	UID       Opt[User]
	Hops      Opt[[]string]
}

// Each calls fn for every present field in wire order, stopping at the
// first error.
func (c Core) Each(fn func(key string, value any) error) error {
	type field struct {
		key   string
		value any
		ok    bool
	}
	fields := [...]field{
		{FieldCommand, c.Command.Value(), c.Command.IsSet()},
		{FieldNow, c.Now.Value(), c.Now.IsSet()},
		{FieldParams, c.Params.Value(), c.Params.IsSet()},
		{FieldExtra, c.Extra.Value(), c.Extra.IsSet()},
		{FieldReqID, c.ReqID.Value(), c.ReqID.IsSet()},
		{FieldSID, c.SID.Value(), c.SID.IsSet()},
		{FieldRID, c.RID.Value(), c.RID.IsSet()},
		{FieldPopulate, c.Populate.Value(), c.Populate.IsSet()},
		{FieldError, c.Error.Value(), c.Error.IsSet()},
		{FieldErrorText, c.ErrorText.Value(), c.ErrorText.IsSet()},
		{FieldUID, c.UID.Value(), c.UID.IsSet()},
		{FieldHops, c.Hops.Value(), c.Hops.IsSet()},
	}
	for _, f := range fields {
		if !f.ok {
			continue
		}
		if err := fn(f.key, f.value); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of present fields.
func (c Core) Len() int {
	n := 0
	c.Each(func(string, any) error {
		n++
		return nil
	})
	return n
}

// MarshalJSON encodes the present fields as a JSON object.
func (c Core) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	err := c.Each(func(key string, value any) error {
		b, err := marshal(value)
		if err != nil {
			return fmt.Errorf("message: encode %s: %w", key, err)
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.WriteString(`"` + key + `":`)
		buf.Write(b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, marking as present every known key
// it contains. JSON null decodes to an empty Core.
func (c *Core) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out Core
	for key, value := range raw {
		var err error
		switch key {
		case FieldCommand:
			out.Command, err = decodeOpt[string](value)
		case FieldNow:
			out.Now, err = decodeInt(value)
		case FieldParams:
			out.Params, err = decodeOpt[map[string]any](value)
		case FieldExtra:
			out.Extra, err = decodeOpt[map[string]any](value)
		case FieldReqID:
			out.ReqID, err = decodeInt(value)
		case FieldSID:
			out.SID, err = decodeOpt[string](value)
		case FieldRID:
			out.RID, err = decodeOpt[string](value)
		case FieldPopulate:
			out.Populate, err = decodeOpt[[]Populate](value)
		case FieldError:
			out.Error, err = decodeOpt[any](value)
		case FieldErrorText:
			out.ErrorText, err = decodeOpt[string](value)
		case FieldUID:
			out.UID, err = decodeOpt[User](value)
		case FieldHops:
			out.Hops, err = decodeOpt[[]string](value)
		}
		if err != nil {
			return fmt.Errorf("message: decode %s: %w", key, err)
		}
	}
	*c = out
	return nil
}

func decodeOpt[T any](data json.RawMessage) (Opt[T], error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return None[T](), err
	}
	return Some(v), nil
}

// decodeInt accepts any JSON number, truncating fractions (7.0, 1.5e3).
// null decodes to 0.
func decodeInt(data json.RawMessage) (Opt[int64], error) {
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return None[int64](), err
	}
	if n == "" {
		return Some(int64(0)), nil
	}
	if i, err := n.Int64(); err == nil {
		return Some(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return None[int64](), err
	}
	return Some(int64(f)), nil
}

// marshal is json.Marshal without HTML escaping, so "<", ">" and "&"
// reach the wire as written.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Encode returns the JSON wire form of c.
func (c Core) Encode() ([]byte, error) {
	return marshal(c)
}

// DataCore returns the sparse form of r: command and now always; params
// and extra when non-empty; reqid when positive; populate when non-empty;
// sid, rid, error, errorText, uid and hops when present.
func (r *Request) DataCore() Core {
	c := Core{
		Command:   Some(r.Command),
		Now:       Some(r.Now),
		SID:       r.SID,
		RID:       r.RID,
		Error:     r.Error,
		ErrorText: r.ErrorText,
		UID:       r.UID,
		Hops:      r.Hops,
	}
	if len(r.Params) > 0 {
		c.Params = Some(r.Params)
	}
	if len(r.Extra) > 0 {
		c.Extra = Some(r.Extra)
	}
	if r.ReqID > 0 {
		c.ReqID = Some(r.ReqID)
	}
	if len(r.Populate) > 0 {
		c.Populate = Some(r.Populate)
	}
	return c
}

// Data returns the wire string of r's core form. Values that cannot be
// encoded make it return "{}", which decodes back to an empty envelope.
func (r *Request) Data() string {
	b, err := r.DataCore().Encode()
	if err != nil {
		return "{}"
	}
	return string(b)
}

// DataClean returns a wire string safe for public clients: command, params
// (even when empty), now, reqid when positive and error when present.
// Routing ids, extra, user, hops and populate are left out.
func (r *Request) DataClean() string {
	params := r.Params
	if params == nil {
		params = map[string]any{}
	}
	c := Core{
		Command: Some(r.Command),
		Params:  Some(params),
		Now:     Some(r.Now),
		Error:   r.Error,
	}
	if r.ReqID > 0 {
		c.ReqID = Some(r.ReqID)
	}
	b, err := c.Encode()
	if err != nil {
		return "{}"
	}
	return string(b)
}

// MarshalJSON encodes r in its core form.
func (r *Request) MarshalJSON() ([]byte, error) {
	return r.DataCore().Encode()
}

// UnmarshalJSON replaces r with the envelope decoded from data.
func (r *Request) UnmarshalJSON(data []byte) error {
	var c Core
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	*r = *New(&c)
	return nil
}

// ParseFields decodes a wire string into its sparse form. Malformed input
// yields an empty Core.
func ParseFields(data string) Core {
	var c Core
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return Core{}
	}
	return c
}

// Parse decodes a wire string into an envelope. On malformed input it
// returns an empty envelope together with the decode error, so callers
// that only want a payload can ignore the error.
func Parse(data string) (*Request, error) {
	var c Core
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return New(nil), fmt.Errorf("message: parse: %w", err)
	}
	return New(&c), nil
}
