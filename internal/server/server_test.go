package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gametree-tools/gametree/pkg/cache"
	"github.com/gametree-tools/gametree/pkg/search"
)

const textbookJSON = `{
  "nodes": [
    {"id": 0, "type": "max"},
    {"id": 1, "type": "min"},
    {"id": 2, "type": "min"},
    {"id": 3, "type": "leaf", "value": 3},
    {"id": 4, "type": "leaf", "value": 5},
    {"id": 5, "type": "leaf", "value": 2},
    {"id": 6, "type": "leaf", "value": 9}
  ],
  "edges": [
    {"from": 0, "to": 1},
    {"from": 0, "to": 2},
    {"from": 1, "to": 3},
    {"from": 1, "to": 4},
    {"from": 2, "to": 5},
    {"from": 2, "to": 6}
  ]
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := New(log.New(io.Discard), cache.NewNullCache(), time.Hour)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) errorBody {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	return body
}

func TestEvaluate(t *testing.T) {
	ts := newTestServer(t)

	resp := post(t, ts, "/api/evaluate", textbookJSON)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("missing X-Request-Id header")
	}

	var res search.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if res.Value != 3 {
		t.Errorf("value = %g, want 3", res.Value)
	}
	if len(res.Path) != 3 || res.Path[0] != 0 {
		t.Errorf("path = %v, want root-to-leaf path of length 3", res.Path)
	}
	if len(res.Pruned) != 1 || res.Pruned[0].From != 2 || res.Pruned[0].To != 6 {
		t.Errorf("pruned = %v, want [{2 6}]", res.Pruned)
	}
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "MalformedJSON",
			body:       `{"nodes": [`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
		{
			name:       "BadEdge",
			body:       `{"nodes": [{"id": 0}], "edges": [{"from": 0, "to": 9}]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
		{
			name: "NoRoot",
			body: `{"nodes": [{"id": 0}, {"id": 1}],
			       "edges": [{"from": 0, "to": 1}, {"from": 1, "to": 0}]}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "NO_ROOT",
		},
		{
			name: "CycleBelowRoot",
			body: `{"nodes": [{"id": 0}, {"id": 1}, {"id": 2}],
			       "edges": [{"from": 0, "to": 1}, {"from": 1, "to": 2}, {"from": 2, "to": 1}]}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "DEPTH_EXCEEDED",
		},
	}

	ts := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts, "/api/evaluate", tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if body := decodeError(t, resp); string(body.Code) != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
		})
	}
}

func TestEvaluateBodyTooLarge(t *testing.T) {
	ts := newTestServer(t)

	// Pad past the 1 MiB body cap with whitespace, which is valid JSON
	// filler; the limit must trip before parsing does.
	body := textbookJSON + strings.Repeat(" ", 1<<20)
	resp := post(t, ts, "/api/evaluate", body)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", resp.StatusCode)
	}
	if b := decodeError(t, resp); !strings.Contains(b.Message, "exceeds") {
		t.Errorf("message = %q, want the limit spelled out", b.Message)
	}
}

func TestRenderDOT(t *testing.T) {
	ts := newTestServer(t)

	resp := post(t, ts, "/api/render?format=dot", textbookJSON)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/vnd.graphviz" {
		t.Errorf("content type = %q", ct)
	}

	dot, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	// The overlay is applied by default: the pruned edge 2->6 is dashed.
	for _, want := range []string{"digraph G {", `label="MAX 0"`, "2 -> 6 [color=firebrick, style=dashed];"} {
		if !strings.Contains(string(dot), want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestRenderWithoutOverlay(t *testing.T) {
	ts := newTestServer(t)

	resp := post(t, ts, "/api/render?format=dot&overlay=0", textbookJSON)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	dot, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if strings.Contains(string(dot), "firebrick") || strings.Contains(string(dot), "forestgreen") {
		t.Errorf("overlay colors present despite overlay=0:\n%s", dot)
	}
}

func TestRenderInvalidFormat(t *testing.T) {
	ts := newTestServer(t)

	resp := post(t, ts, "/api/render?format=gif", textbookJSON)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if body := decodeError(t, resp); string(body.Code) != "INVALID_FORMAT" {
		t.Errorf("code = %q, want INVALID_FORMAT", body.Code)
	}
}

func TestRenderCacheHit(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	s := New(log.New(io.Discard), fc, time.Hour)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	first := post(t, ts, "/api/render?format=dot", textbookJSON)
	firstBody, _ := io.ReadAll(first.Body)

	second := post(t, ts, "/api/render?format=dot", textbookJSON)
	secondBody, _ := io.ReadAll(second.Body)

	if string(firstBody) != string(secondBody) {
		t.Error("cached artifact differs from the first render")
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}
