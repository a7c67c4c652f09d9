package message

// CreateResponse builds the reply to r carrying params.
//
// The reply is addressed to r's sender, keeps r's command, reqid and extra
// (shared, not copied), and stays an error if r is one.
func (r *Request) CreateResponse(params map[string]any) *Request {
	resp := New(nil)
	if sid, ok := r.SID.Get(); ok {
		resp.RID = Some(sid)
	}
	resp.ReqID = r.ReqID
	r.carryUser(resp)
	resp.Params = params
	resp.Command = r.Command
	resp.Extra = r.Extra
	if r.IsError() {
		resp.Error = r.Error
	}
	return resp
}

// CreateError builds an error reply to r. text is attached only when
// non-empty.
//
// The error goes to r's rid when set, otherwise back to r's sid.
func (r *Request) CreateError(code any, text string) *Request {
	resp := New(nil)
	resp.Error = Some(code)
	if text != "" {
		resp.ErrorText = Some(text)
	}
	resp.Command = r.Command
	resp.ReqID = r.ReqID
	resp.Extra = r.Extra
	r.carryUser(resp)
	if rid, ok := r.RID.Get(); ok {
		resp.RID = Some(rid)
	} else if sid, ok := r.SID.Get(); ok {
		resp.RID = Some(sid)
	}
	return resp
}

// Acknowledge builds a minimal reply to r. A nil params leaves the reply
// with empty params.
func (r *Request) Acknowledge(params map[string]any) *Request {
	ack := New(nil)
	ack.ReqID = r.ReqID
	ack.Extra = r.Extra
	r.carryUser(ack)
	if sid, ok := r.SID.Get(); ok {
		ack.RID = Some(sid)
	}
	if params != nil {
		ack.Params = params
	}
	return ack
}

// carryUser forwards the user of r to a derived envelope that has no
// correlation id, so fire-and-forget replies can still be attributed.
// An explicit uid wins over extra["uid"].
func (r *Request) carryUser(to *Request) {
	if to.ReqID != 0 {
		return
	}
	if u, ok := r.UID.Get(); ok {
		to.UID = Some(u)
	} else if r.HasExtra("uid") {
		to.ToUser(r.GetExtra("uid"), false)
	}
}
