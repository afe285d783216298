package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/topodraw/pkg/cache"
	"github.com/matzehuels/topodraw/pkg/convert"
	tderrors "github.com/matzehuels/topodraw/pkg/errors"
	"github.com/matzehuels/topodraw/pkg/observability"
)

const clos = `name: clos
topology:
  nodes:
    spine1:
      kind: nokia_srlinux
    spine2:
      kind: nokia_srlinux
    leaf1:
      kind: nokia_srlinux
    leaf2:
      kind: nokia_srlinux
    client1:
      kind: linux
    client2:
      kind: linux
  links:
    - endpoints: ["spine1:e1-1", "leaf1:e1-49"]
    - endpoints: ["spine1:e1-2", "leaf2:e1-49"]
    - endpoints: ["spine2:e1-1", "leaf1:e1-50"]
    - endpoints: ["spine2:e1-2", "leaf2:e1-50"]
    - endpoints: ["leaf1:e1-1", "client1:eth1"]
    - endpoints: ["leaf2:e1-1", "client2:eth1"]
`

const twoPages = `<mxfile>
  <diagram name="a"><mxGraphModel><root/></mxGraphModel></diagram>
  <diagram name="b"><mxGraphModel><root/></mxGraphModel></diagram>
</mxfile>`

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	t.Cleanup(observability.Reset)
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	runner := convert.NewRunner(c, nil, opts.Logger)
	srv := httptest.NewServer(New(runner, opts))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/octet-stream", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, Options{})
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if h := decode[HealthResponse](t, resp); h.Status != "ok" || h.Version == "" {
		t.Errorf("health = %+v", h)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
}

func TestThemes(t *testing.T) {
	srv := newTestServer(t, Options{})
	resp, err := http.Get(srv.URL + "/api/v1/themes")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	got := decode[ThemesResponse](t, resp)
	if len(got.Themes) == 0 || got.Themes[0] != "default" {
		t.Errorf("themes = %v", got.Themes)
	}
}

func TestDraw(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp := post(t, srv.URL+"/api/v1/draw?layout=horizontal", clos)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got := decode[DrawResponse](t, resp)
	if got.RequestID == "" || got.RequestID != resp.Header.Get(RequestIDHeader) {
		t.Errorf("request id %q does not match header %q", got.RequestID, resp.Header.Get(RequestIDHeader))
	}
	if !strings.HasPrefix(got.Diagram, "<mxfile") {
		t.Errorf("diagram = %.40q", got.Diagram)
	}
	if got.Levels["spine1"] != 1 || got.Levels["leaf2"] != 2 || got.Levels["client1"] != 3 {
		t.Errorf("levels = %v", got.Levels)
	}
	if got.Stats.Nodes != 6 || got.Stats.Links != 6 || got.Stats.Tiers != 3 {
		t.Errorf("stats = %+v", got.Stats)
	}
	if got.Warnings == nil || got.CacheHit {
		t.Errorf("warnings = %v, cache_hit = %v", got.Warnings, got.CacheHit)
	}

	again := decode[DrawResponse](t, post(t, srv.URL+"/api/v1/draw?layout=horizontal", clos))
	if !again.CacheHit {
		t.Error("second request missed the cache")
	}
	if again.Diagram != got.Diagram {
		t.Error("cached diagram differs")
	}
}

func TestDrawGrafana(t *testing.T) {
	srv := newTestServer(t, Options{})
	resp := post(t, srv.URL+"/api/v1/draw?grafana=true&interface_format=e1-{x}:ethernet-1/{x}", clos)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got := decode[DrawResponse](t, resp)
	if !strings.Contains(got.Panel, "spine1:ethernet-1/1") {
		t.Errorf("panel does not map interfaces:\n%s", got.Panel)
	}
	var dash map[string]any
	if err := json.Unmarshal(got.Dashboard, &dash); err != nil {
		t.Errorf("dashboard is not JSON: %v", err)
	}
}

func TestDrawErrors(t *testing.T) {
	srv := newTestServer(t, Options{MaxBodyBytes: 1024})

	tests := []struct {
		name   string
		query  string
		body   string
		status int
		code   tderrors.Code
	}{
		{"bad layout", "?layout=diagonal", clos, http.StatusBadRequest, tderrors.ErrCodeInvalidInput},
		{"bad theme", "?theme=nope", clos, http.StatusBadRequest, tderrors.ErrCodeInvalidStyle},
		{"bad bool", "?grafana=maybe", clos, http.StatusBadRequest, tderrors.ErrCodeInvalidInput},
		{"grafana without links", "?grafana=1&no_links=1", clos, http.StatusBadRequest, tderrors.ErrCodeInvalidInput},
		{"parse", "", "topology: [", http.StatusBadRequest, tderrors.ErrCodeParse},
		{"too large", "", strings.Repeat("#", 2048), http.StatusRequestEntityTooLarge, tderrors.ErrCodeTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv.URL+"/api/v1/draw"+tt.query, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			got := decode[ErrorResponse](t, resp)
			if got.Error.Code != tt.code {
				t.Errorf("code = %s, want %s (%s)", got.Error.Code, tt.code, got.Error.Message)
			}
			if got.RequestID == "" {
				t.Error("missing request id")
			}
		})
	}
}

func TestDrawOptionsBoolOrder(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"no_links=x&include_unlinked=y", "include_unlinked"},
		{"refresh=x&grafana=y&compress=z", "compress"},
		{"refresh=x&no_links=true", "refresh"},
	}
	for _, tt := range tests {
		q, err := url.ParseQuery(tt.query)
		if err != nil {
			t.Fatalf("ParseQuery(%q): %v", tt.query, err)
		}
		// Repeat to catch any dependence on map iteration order.
		for range 20 {
			_, err := drawOptions(q)
			if err == nil {
				t.Fatalf("drawOptions(%q) succeeded, want error", tt.query)
			}
			if msg := tderrors.UserMessage(err); !strings.Contains(msg, "parameter "+tt.want+":") {
				t.Errorf("drawOptions(%q) error = %q, want it to name %s", tt.query, msg, tt.want)
				break
			}
		}
	}
}

func TestExtractRoundTrip(t *testing.T) {
	srv := newTestServer(t, Options{})
	drawn := decode[DrawResponse](t, post(t, srv.URL+"/api/v1/draw", clos))

	resp := post(t, srv.URL+"/api/v1/extract?style=block&name=fabric", drawn.Diagram)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got := decode[ExtractResponse](t, resp)
	if got.Stats.Nodes != 6 || got.Stats.Links != 6 {
		t.Errorf("stats = %+v", got.Stats)
	}
	if !strings.HasPrefix(got.Topology, "name: fabric") {
		t.Errorf("topology does not start with the lab name:\n%s", got.Topology)
	}
	if strings.Contains(got.Topology, "endpoints: [") {
		t.Errorf("flow endpoints with style=block:\n%s", got.Topology)
	}
}

func TestExtractErrors(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp := post(t, srv.URL+"/api/v1/extract", twoPages)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("ambiguous: status = %d", resp.StatusCode)
	}
	if got := decode[ErrorResponse](t, resp); len(got.Error.Available) != 2 {
		t.Errorf("available = %v", got.Error.Available)
	}

	resp = post(t, srv.URL+"/api/v1/extract?diagram=c", twoPages)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("not found: status = %d", resp.StatusCode)
	}
	if got := decode[ErrorResponse](t, resp); got.Error.Code != tderrors.ErrCodeDiagramNotFound {
		t.Errorf("code = %s", got.Error.Code)
	}

	resp = post(t, srv.URL+"/api/v1/extract?style=zigzag", twoPages)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad style: status = %d", resp.StatusCode)
	}
}

func TestPreview(t *testing.T) {
	srv := newTestServer(t, Options{})
	resp := post(t, srv.URL+"/api/v1/preview", clos)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("content type = %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "<svg") || !strings.Contains(string(body), "spine1") {
		t.Errorf("unexpected preview:\n%.200s", body)
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, Options{})
	resp, err := http.Get(srv.URL + "/api/v1/draw")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}
