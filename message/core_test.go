package message

import (
	"encoding/json"
	"reflect"
	"sort"
	"testing"
)

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestPingWire(t *testing.T) {
	req := New(&Core{Command: Some("ping")})

	got := decodeWire(t, req.Data())

	if !reflect.DeepEqual(keys(got), []string{"command", "now"}) {
		t.Fatalf("expect only command and now, got %v", got)
	}
	if got["command"] != "ping" || got["now"] != float64(req.Now) {
		t.Fatalf("wire mismatch: got %v", got)
	}
}

func TestDataCorePresence(t *testing.T) {
	req := New(&Core{
		Command:   Some("full"),
		Params:    Some(map[string]any{"p": 1}),
		Extra:     Some(map[string]any{"e": 1}),
		ReqID:     Some(int64(2)),
		SID:       Some("s"),
		RID:       Some("r"),
		Error:     Some[any]("E"),
		ErrorText: Some("text"),
		UID:       Some(User{UID: "u"}),
		Hops:      Some([]string{"h"}),
	})
	req.AddPopulate(New(nil).WithCommand("sub"), "sub")

	got := decodeWire(t, req.Data())
	want := []string{"command", "error", "errorText", "extra", "hops", "now", "params", "populate", "reqid", "rid", "sid", "uid"}
	if !reflect.DeepEqual(keys(got), want) {
		t.Fatalf("keys mismatch: got %v, want %v", keys(got), want)
	}
	if got["uid"].(map[string]any)["persistent"] != false {
		t.Errorf("expect uid.persistent false, got %v", got["uid"])
	}
}

func TestDataCoreOmitsEmpty(t *testing.T) {
	req := New(&Core{
		Command: Some("c"),
		ReqID:   Some(int64(0)),
		Params:  Some(map[string]any{}),
		Extra:   Some(map[string]any{}),
	})

	c := req.DataCore()
	if c.Params.IsSet() || c.Extra.IsSet() || c.ReqID.IsSet() || c.Populate.IsSet() {
		t.Fatalf("expect empty params, extra, populate and zero reqid to be omitted, got %+v", c)
	}
}

func TestDataCoreKeepsPresentNilError(t *testing.T) {
	req := New(&Core{Error: Some[any](nil)})
	got := decodeWire(t, req.Data())
	v, ok := got["error"]
	if !ok || v != nil {
		t.Fatalf("expect error:null on the wire, got %v", got)
	}
}

func TestDataClean(t *testing.T) {
	req := New(&Core{
		Command: Some("pub"),
		Extra:   Some(map[string]any{"secret": 1}),
		SID:     Some("s"),
		RID:     Some("r"),
		UID:     Some(User{UID: "u"}),
		Hops:    Some([]string{"h"}),
		Error:   Some[any](3),
	})

	got := decodeWire(t, req.DataClean())
	want := map[string]any{
		"command": "pub",
		"params":  map[string]any{},
		"now":     float64(req.Now),
		"error":   float64(3),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DataClean mismatch: got %v, want %v", got, want)
	}

	req.ReqID = 5
	if got := decodeWire(t, req.DataClean()); got["reqid"] != float64(5) {
		t.Fatalf("expect reqid in clean form, got %v", got)
	}
}

func TestParseRoundTrip(t *testing.T) {
	req := New(&Core{Command: Some("svc.do"), SID: Some("a"), ReqID: Some(int64(11))}).
		WithParam("n", 1).
		SetExtra("trace", "t").
		ToUser("u", true).
		AddHop("x")
	errReq := req.CreateError(500, "boom")

	for _, src := range []*Request{req, errReq} {
		parsed, err := Parse(src.Data())
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if parsed.Data() != src.Data() {
			t.Errorf("round trip mismatch:\n got %s\nwant %s", parsed.Data(), src.Data())
		}
	}
}

func TestParseMalformed(t *testing.T) {
	for _, data := range []string{"", "not json", "[1,2]", "5", `{"reqid":"seven"}`} {
		req, err := Parse(data)
		if err == nil {
			t.Errorf("expect error for %q", data)
		}
		if req == nil || req.Command != "" || len(req.Params) != 0 || req.IsError() {
			t.Errorf("expect empty envelope for %q, got %+v", data, req)
		}
		if c := ParseFields(data); c.Len() != 0 {
			t.Errorf("expect empty core for %q, got %d fields", data, c.Len())
		}
	}
}

func TestParseNull(t *testing.T) {
	req, err := Parse("null")
	if err != nil {
		t.Fatalf("expect null to parse as empty, got %v", err)
	}
	if req.Command != "" || req.Now == 0 {
		t.Fatalf("expect empty envelope, got %+v", req)
	}
}

func TestParseIgnoresUnknownFields(t *testing.T) {
	req, err := Parse(`{"command":"c","now":1,"bogus":true,"params":{"a":"b"}}`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if req.Command != "c" || req.Now != 1 || req.GetString("a") != "b" {
		t.Fatalf("unexpected envelope: %+v", req)
	}
	if got := decodeWire(t, req.Data()); got["bogus"] != nil {
		t.Fatalf("expect unknown field to be dropped, got %v", got)
	}
}

func TestParseNullParams(t *testing.T) {
	req, err := Parse(`{"params":null,"extra":null}`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	req.Set("a", 1).SetExtra("b", 2)
	if req.Get("a", nil) != 1 || req.GetExtra("b") != 2 {
		t.Fatalf("expect usable params and extra, got %+v", req)
	}
}

func TestRequestJSON(t *testing.T) {
	type wrapper struct {
		Req *Request `json:"req"`
	}
	in := wrapper{Req: New(&Core{Command: Some("nested"), Now: Some(int64(10))})}

	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if string(b) != `{"req":{"command":"nested","now":10}}` {
		t.Fatalf("unexpected encoding: %s", b)
	}

	var out wrapper
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if out.Req.Command != "nested" || out.Req.Now != 10 {
		t.Fatalf("unexpected decoding: %+v", out.Req)
	}
}

func TestClone(t *testing.T) {
	req := New(nil).WithCommand("test").WithParam("test", "test2")
	clone := req.Clone()
	req.WithParam("test", "test3")

	want := map[string]any{"command": "test", "now": float64(req.Now), "params": map[string]any{"test": "test2"}}
	if got := decodeWire(t, clone.Data()); !reflect.DeepEqual(got, want) {
		t.Fatalf("clone mismatch: got %v, want %v", got, want)
	}
}

func TestCloneIsDeep(t *testing.T) {
	req := New(nil).
		WithParam("nested", map[string]any{"k": "v"}).
		WithParam("list", []any{1, map[string]any{"a": 1}}).
		SetExtra("trace", map[string]any{"id": "t"}).
		AddPopulate(New(nil).WithParam("id", 1), "sub").
		AddHop("h1").
		ToUser(map[string]any{"id": 1}, false)
	req.ErrorText = Some("kept")

	clone := req.Clone()

	clone.Params["nested"].(map[string]any)["k"] = "changed"
	clone.Params["list"].([]any)[1].(map[string]any)["a"] = 2
	clone.Extra["trace"].(map[string]any)["id"] = "changed"
	clone.Populate[0].Request.Params.Value()["id"] = 2
	clone.AddHop("h2")
	clone.UID.Value().UID.(map[string]any)["id"] = 2
	clone.Set("added", true)

	if req.Params["nested"].(map[string]any)["k"] != "v" {
		t.Error("nested params leaked into original")
	}
	if req.Params["list"].([]any)[1].(map[string]any)["a"] != 1 {
		t.Error("list params leaked into original")
	}
	if req.Extra["trace"].(map[string]any)["id"] != "t" {
		t.Error("extra leaked into original")
	}
	if req.Populate[0].Request.Params.Value()["id"] != 1 {
		t.Error("populate leaked into original")
	}
	if req.HasHop("h2") {
		t.Error("hops leaked into original")
	}
	if req.UID.Value().UID.(map[string]any)["id"] != 1 {
		t.Error("uid leaked into original")
	}
	if req.Has("added") {
		t.Error("new param leaked into original")
	}
	if clone.ErrorText.Value() != "kept" {
		t.Error("expect error text to be cloned")
	}

	req.Set("back", true)
	if clone.Has("back") {
		t.Error("original change leaked into clone")
	}
}

func TestParseFractionalNumbers(t *testing.T) {
	req, err := Parse(`{"command":"user.get","sid":"svcA","reqid":7.0,"now":1791961547018.5}`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if req.Command != "user.get" || req.SID.Value() != "svcA" {
		t.Fatalf("expect command and sid to survive, got %+v", req)
	}
	if req.ReqID != 7 {
		t.Errorf("ReqID mismatch: got %d, want 7", req.ReqID)
	}
	if req.Now != 1791961547018 {
		t.Errorf("Now mismatch: got %d, want 1791961547018", req.Now)
	}

	req, err = Parse(`{"command":"c","reqid":1.2e1,"now":null}`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if req.ReqID != 12 || req.Now != 0 {
		t.Errorf("expect reqid 12 and now 0, got %d %d", req.ReqID, req.Now)
	}
}

func TestDataKeepsHTMLCharacters(t *testing.T) {
	req := New(&Core{Command: Some("a<b>&c"), Now: Some(int64(1))}).
		WithParam("html", "<p>x & y</p>").
		AddPopulate(New(&Core{Command: Some("<sub>"), Now: Some(int64(2))}), "s&t")

	want := `{"command":"a<b>&c","now":1,"params":{"html":"<p>x & y</p>"},"populate":[{"request":{"command":"<sub>","now":2},"returns":"s&t"}]}`
	if got := req.Data(); got != want {
		t.Fatalf("Data mismatch:\n got %s\nwant %s", got, want)
	}
	if got := req.DataClean(); got != `{"command":"a<b>&c","now":1,"params":{"html":"<p>x & y</p>"}}` {
		t.Fatalf("DataClean mismatch: got %s", got)
	}
}

func TestDataCleanNilParams(t *testing.T) {
	resp := New(nil).CreateResponse(nil)
	got := decodeWire(t, resp.DataClean())
	if params, ok := got["params"].(map[string]any); !ok || len(params) != 0 {
		t.Fatalf("expect params to be an empty object, got %v", got["params"])
	}

	req := New(nil).SetParams(nil)
	if got := decodeWire(t, req.DataClean()); got["params"] == nil {
		t.Fatalf("expect params to be an empty object, got %v", got)
	}
}
