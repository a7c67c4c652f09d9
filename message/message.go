// Package message defines the envelope exchanged between services.
//
// Request is the "envelope" for every call: it carries the command and its
// params, routing ids (rid = where to send it, sid = where it came from),
// a correlation id and free-form extra metadata. Responses, errors and
// acknowledgements are derived from the envelope they answer so that the
// routing and correlation context travels back automatically.
//
//	caller ──Request{command, params, sid=A, reqid=7}──→ service B
//	caller ←──CreateResponse(result){rid=A, reqid=7}──── service B
//
// The envelope is a passive value owned by one goroutine at a time. It does
// no I/O; the codec package serializes it and transports are supplied by
// the integrator.
package message

import (
	"slices"
	"time"
)

// User identifies the end user or actor a request acts on behalf of.
type User struct {
	UID        any  `json:"uid"`
	Persistent bool `json:"persistent"`
}

// Populate declares a sub-request whose result the caller wants merged into
// the response under the Returns key.
type Populate struct {
	Request Core   `json:"request"`
	Returns string `json:"returns"`
}

// Request carries a single command, its reply, or its error.
//
//   - On request:  Command and Params are set; ReqID > 0 when the caller awaits a reply.
//   - On response: derived with CreateResponse or Acknowledge, RID points back at the caller.
//   - On error:    derived with CreateError, Error is present (its value may be anything).
type Request struct {
	Command  string         // Operation name, e.g. "user.get"
	Params   map[string]any // Operation arguments or result
	Extra    map[string]any // Out-of-band metadata (tracing, auth hints), shared with derived envelopes
	Populate []Populate     // Sub-requests to resolve alongside this one
	ReqID    int64          // Correlation id, 0 means fire-and-forget
	Now      int64          // Creation time in milliseconds since the epoch

	RID       Opt[string]   // Destination routing id
	SID       Opt[string]   // Source routing id
	UID       Opt[User]     // Associated user
	Hops      Opt[[]string] // Routing ids this envelope has traversed
	Error     Opt[any]      // Presence marks a failure
	ErrorText Opt[string]   // Human-readable error detail
}

// New builds an envelope from a sparse field-bag. A nil fields is the same
// as an empty one: command "", empty params and extra, reqid 0, now set to
// the current time.
func New(fields *Core) *Request {
	if fields == nil {
		fields = &Core{}
	}
	r := &Request{
		Command:   fields.Command.Value(),
		Params:    fields.Params.Value(),
		Extra:     fields.Extra.Value(),
		Populate:  fields.Populate.Value(),
		ReqID:     fields.ReqID.Value(),
		RID:       fields.RID,
		SID:       fields.SID,
		UID:       fields.UID,
		Hops:      fields.Hops,
		Error:     fields.Error,
		ErrorText: fields.ErrorText,
	}
	if r.Params == nil {
		r.Params = map[string]any{}
	}
	if r.Extra == nil {
		r.Extra = map[string]any{}
	}
	if r.Populate == nil {
		r.Populate = []Populate{}
	}
	if now, ok := fields.Now.Get(); ok {
		r.Now = now
	} else {
		r.Now = time.Now().UnixMilli()
	}
	return r
}

// SetCommand sets the command name.
func (r *Request) SetCommand(command string) *Request {
	r.Command = command
	return r
}

// WithCommand is an alias of SetCommand.
func (r *Request) WithCommand(command string) *Request {
	return r.SetCommand(command)
}

// WithService addresses the envelope to the given routing id.
func (r *Request) WithService(serviceID string) *Request {
	r.RID = Some(serviceID)
	return r
}

// IsError reports whether the envelope carries an error, whatever its value.
func (r *Request) IsError() bool {
	return r.Error.IsSet()
}

// GetError returns the error code, nil when absent.
func (r *Request) GetError() any {
	return r.Error.Value()
}

// NeedResponse reports whether the sender awaits a reply.
func (r *Request) NeedResponse() bool {
	return r.ReqID > 0
}

// ToUser associates the envelope with a user.
func (r *Request) ToUser(uid any, persistent bool) *Request {
	r.UID = Some(User{UID: uid, Persistent: persistent})
	return r
}

// AddPopulate appends sub's core form as a populate entry whose result
// belongs under returns.
func (r *Request) AddPopulate(sub *Request, returns string) *Request {
	r.Populate = append(r.Populate, Populate{
		Request: sub.DataCore(),
		Returns: returns,
	})
	return r
}

// AddHop records that the envelope passed through sid.
func (r *Request) AddHop(sid string) *Request {
	hops, _ := r.Hops.Get()
	r.Hops = Some(append(slices.Clip(hops), sid))
	return r
}

// HasHop reports whether the envelope already passed through sid.
func (r *Request) HasHop(sid string) bool {
	return slices.Contains(r.Hops.Value(), sid)
}
