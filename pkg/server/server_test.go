package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"

	"github.com/chazu/figforge/pkg/design"
	"github.com/chazu/figforge/pkg/design/memory"
	"github.com/chazu/figforge/pkg/events"
	"github.com/chazu/figforge/pkg/imageload"
	"github.com/chazu/figforge/pkg/script"
	"github.com/chazu/figforge/pkg/shape"
)

type fixture struct {
	srv *Server
	doc *memory.Document
	hub *events.Hub
}

func newFixture(t *testing.T, loader shape.ImageLoader) *fixture {
	t.Helper()
	if loader == nil {
		loader = &imageload.Loader{}
	}
	doc := memory.New()
	hub := events.NewHub(16, nil)
	shapes := shape.New(doc, loader, nil)
	scripts := script.New(shapes, script.Options{OnChange: func(c script.Change) {
		hub.Notify(events.Type(c.Op), c.Summary)
	}})
	srv := New(Deps{Shapes: shapes, Scripts: scripts, Nodes: doc, Hub: hub})
	return &fixture{srv: srv, doc: doc, hub: hub}
}

func (f *fixture) do(t *testing.T, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) doJSON(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(t, method, path, "application/json", body)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func nextEvent(t *testing.T, sub *events.Subscription) events.Event {
	t.Helper()
	select {
	case ev := <-sub.C:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return events.Event{}
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateNode(t *testing.T) {
	f := newFixture(t, nil)
	sub := f.hub.Subscribe()
	defer sub.Close()

	rec := f.doJSON(t, http.MethodPost, "/nodes", `{
		"type": "rectangle",
		"properties": {"x": 100, "y": 200, "width": 300, "height": 400,
		               "fill": {"type": "SOLID", "color": {"r": 1, "g": 0, "b": 0}}}
	}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	got := decode[shape.Summary](t, rec)
	want := shape.Summary{ID: got.ID, Type: design.TypeRectangle, X: 100, Y: 200, Width: 300, Height: 400}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summary (-want +got):\n%s", diff)
	}

	ev := nextEvent(t, sub)
	if ev.Type != events.Created || ev.NodeID != got.ID {
		t.Errorf("event = %+v", ev)
	}

	n, _, _ := f.doc.NodeByID(context.Background(), got.ID)
	fills := n.(design.Geometry).Fills()
	if diff := cmp.Diff([]design.Paint{design.Solid(design.Color{R: 1})}, fills); diff != "" {
		t.Errorf("fills (-want +got):\n%s", diff)
	}
}

func TestCreateNodeErrors(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer failing.Close()

	tests := []struct {
		name   string
		body   string
		status int
		want   ErrorDetail
	}{
		{
			name:   "unsupported kind",
			body:   `{"type": "blob"}`,
			status: http.StatusBadRequest,
			want:   ErrorDetail{Kind: "unsupported_shape_kind", Message: "Unsupported shape type: blob", Shape: "blob"},
		},
		{
			name:   "missing line",
			body:   `{"type": "line", "properties": {}}`,
			status: http.StatusBadRequest,
			want: ErrorDetail{Kind: "missing_required_property", Message: "Line properties are required",
				Shape: "line", Property: "line"},
		},
		{
			name:   "missing type",
			body:   `{"properties": {}}`,
			status: http.StatusBadRequest,
			want:   ErrorDetail{Kind: "request", Message: "type is required"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			rec := f.doJSON(t, http.MethodPost, "/nodes", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body)
			}
			got := decode[ErrorBody](t, rec).Error
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("error (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("image fetch failure", func(t *testing.T) {
		f := newFixture(t, imageload.New(failing.Client(), 0))
		rec := f.doJSON(t, http.MethodPost, "/nodes",
			`{"type": "image", "properties": {"image": {"source": "`+failing.URL+`/a.png"}}}`)
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("status = %d, want 502", rec.Code)
		}
		got := decode[ErrorBody](t, rec).Error
		if got.Kind != "image_load_failure" || !strings.HasPrefix(got.Message, "Failed to load image: ") {
			t.Errorf("error = %+v", got)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		f := newFixture(t, nil)
		rec := f.doJSON(t, http.MethodPost, "/nodes", `{"type":`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestReadNode(t *testing.T) {
	f := newFixture(t, nil)
	created := decode[shape.Summary](t, f.doJSON(t, http.MethodPost, "/nodes", `{"type": "ellipse"}`))

	rec := f.do(t, http.MethodGet, "/nodes/"+created.ID, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if diff := cmp.Diff(created, decode[shape.Summary](t, rec)); diff != "" {
		t.Errorf("summary (-created +read):\n%s", diff)
	}

	rec = f.do(t, http.MethodGet, "/nodes/1:99", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	want := ErrorDetail{Kind: "node_not_found", Message: "Node not found: 1:99", NodeID: "1:99"}
	if diff := cmp.Diff(want, decode[ErrorBody](t, rec).Error); diff != "" {
		t.Errorf("error (-want +got):\n%s", diff)
	}
}

func TestModifyNode(t *testing.T) {
	f := newFixture(t, nil)
	created := decode[shape.Summary](t, f.doJSON(t, http.MethodPost, "/nodes", `{"type": "rectangle"}`))

	sub := f.hub.Subscribe(created.ID)
	defer sub.Close()

	rec := f.doJSON(t, http.MethodPatch, "/nodes/"+created.ID, `{"x": 12, "width": 50}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	got := decode[shape.Summary](t, rec)
	if got.X != 12 || got.Width != 50 || got.Height != 100 {
		t.Errorf("summary = %+v", got)
	}
	if ev := nextEvent(t, sub); ev.Type != events.Modified || ev.Summary.X != 12 {
		t.Errorf("event = %+v", ev)
	}

	rec = f.doJSON(t, http.MethodPatch, "/nodes/7:7", `{"x": 1}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestListNodes(t *testing.T) {
	f := newFixture(t, nil)
	for _, kind := range []string{"rectangle", "ellipse", "text"} {
		f.doJSON(t, http.MethodPost, "/nodes", `{"type": "`+kind+`"}`)
	}

	rec := f.do(t, http.MethodGet, "/nodes", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var types []design.NodeType
	for _, s := range decode[[]shape.Summary](t, rec) {
		types = append(types, s.Type)
	}
	want := []design.NodeType{design.TypeRectangle, design.TypeEllipse, design.TypeText}
	if diff := cmp.Diff(want, types); diff != "" {
		t.Errorf("types (-want +got):\n%s", diff)
	}
}

// pngLoader serves a fixed 2x2 PNG for every source.
type pngLoader struct{}

func (pngLoader) Load(context.Context, string) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func TestImageScaleModeReported(t *testing.T) {
	f := newFixture(t, pngLoader{})
	rec := f.doJSON(t, http.MethodPost, "/nodes",
		`{"type": "image", "properties": {"image": {"source": "https://example.test/a.png", "scaleMode": "TILE"}}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	created := decode[shape.Summary](t, rec)
	f.doJSON(t, http.MethodPost, "/nodes", `{"type": "rectangle"}`)

	read := decode[shape.Summary](t, f.do(t, http.MethodGet, "/nodes/"+created.ID, "", ""))
	list := decode[[]shape.Summary](t, f.do(t, http.MethodGet, "/nodes", "", ""))
	if len(list) != 2 {
		t.Fatalf("listed %d nodes, want 2", len(list))
	}

	for name, got := range map[string]design.ScaleMode{
		"create": created.ScaleMode,
		"read":   read.ScaleMode,
		"list":   list[0].ScaleMode,
	} {
		if got != design.ScaleTile {
			t.Errorf("%s scaleMode = %q, want TILE", name, got)
		}
	}
	if list[1].ScaleMode != "" {
		t.Errorf("plain rectangle reports scaleMode %q", list[1].ScaleMode)
	}
}

func TestRunScript(t *testing.T) {
	f := newFixture(t, nil)
	sub := f.hub.Subscribe()
	defer sub.Close()

	rec := f.do(t, http.MethodPost, "/scripts", "text/plain",
		`(def r (rectangle :width 10 :height 10)) (modify r :x 3)`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	resp := decode[ScriptResponse](t, rec)
	if resp.RunID == "" || len(resp.Changes) != 2 || len(resp.Errors) != 0 {
		t.Fatalf("response = %+v", resp)
	}
	if ev := nextEvent(t, sub); ev.Type != events.Created {
		t.Errorf("first event = %+v", ev)
	}
	if ev := nextEvent(t, sub); ev.Type != events.Modified || ev.Summary.X != 3 {
		t.Errorf("second event = %+v", ev)
	}
}

func TestRunScriptJSONWithErrors(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.doJSON(t, http.MethodPost, "/scripts", `{"source": "(ellipse) (star)"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	resp := decode[ScriptResponse](t, rec)
	if len(resp.Changes) != 1 || len(resp.Errors) == 0 {
		t.Fatalf("response = %+v", resp)
	}
	if !strings.Contains(resp.Errors[0].Message, "Star properties are required") {
		t.Errorf("error = %q", resp.Errors[0].Message)
	}
}

func TestRunScriptBodyLimit(t *testing.T) {
	big := strings.Repeat(" ", maxScriptBytes+1)
	tests := []struct {
		name        string
		contentType string
		body        string
		streamed    bool
	}{
		{"text", "text/plain", big, false},
		{"text streamed", "text/plain", big, true},
		{"json", "application/json", `{"source": "` + big + `"}`, false},
		{"json streamed", "application/json", `{"source": "` + big + `"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			req := httptest.NewRequest(http.MethodPost, "/scripts", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			if tt.streamed {
				req.ContentLength = -1
			}
			rec := httptest.NewRecorder()
			f.srv.ServeHTTP(rec, req)
			if rec.Code != http.StatusRequestEntityTooLarge {
				t.Fatalf("status = %d, want 413", rec.Code)
			}
			if f.doc.NodeCount() != 0 {
				t.Error("oversized script was evaluated")
			}
		})
	}
}

// stubScripts returns a fixed fatal error.
type stubScripts struct{ err error }

func (s stubScripts) Evaluate(context.Context, string) (*script.Result, []script.EvalError, error) {
	return nil, nil, s.err
}

func TestRunScriptFatal(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"timeout", &script.TimeoutError{Limit: time.Second}, http.StatusGatewayTimeout, "script_timeout"},
		{"superseded", script.ErrSuperseded, http.StatusConflict, "script_superseded"},
		{"canceled", context.Canceled, http.StatusServiceUnavailable, "canceled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(Deps{Shapes: shape.New(memory.New(), nil, nil), Scripts: stubScripts{tt.err}})
			req := httptest.NewRequest(http.MethodPost, "/scripts", strings.NewReader("(rectangle)"))
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := decode[ErrorBody](t, rec).Error.Kind; got != tt.kind {
				t.Errorf("kind = %q, want %q", got, tt.kind)
			}
		})
	}
}

func TestOptionalRoutes(t *testing.T) {
	srv := New(Deps{Shapes: shape.New(memory.New(), nil, nil)})
	for _, path := range []string{"/nodes", "/events"} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotImplemented {
			t.Errorf("GET %s status = %d, want 501", path, rec.Code)
		}
	}
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, http.MethodGet, "/nope", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if got := decode[ErrorBody](t, rec).Error.Kind; got != "request" {
		t.Errorf("kind = %q", got)
	}
}

func TestEventsWebsocket(t *testing.T) {
	f := newFixture(t, nil)
	ts := httptest.NewServer(f.srv)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/events", nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for f.hub.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	resp, err := http.Post(ts.URL+"/nodes", "application/json", strings.NewReader(`{"type": "text", "properties": {"text": "hi"}}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev events.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if ev.Type != events.Created || ev.Summary.Type != design.TypeText {
		t.Errorf("event = %+v", ev)
	}
}
