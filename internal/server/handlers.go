package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/matzehuels/topodraw/pkg/convert"
	"github.com/matzehuels/topodraw/pkg/drawio"
	tderrors "github.com/matzehuels/topodraw/pkg/errors"
	"github.com/matzehuels/topodraw/pkg/render/nodelink"
	"github.com/matzehuels/topodraw/pkg/style"
	"github.com/matzehuels/topodraw/pkg/topology"
)

// StatsBody mirrors convert.Stats in responses.
type StatsBody struct {
	Nodes      int     `json:"nodes"`
	Links      int     `json:"links"`
	Tiers      int     `json:"tiers,omitempty"`
	Crossings  int     `json:"crossings,omitempty"`
	Warnings   int     `json:"warnings"`
	DurationMS float64 `json:"duration_ms"`
}

func statsBody(s convert.Stats) StatsBody {
	return StatsBody{
		Nodes:      s.Nodes,
		Links:      s.Links,
		Tiers:      s.Tiers,
		Crossings:  s.Crossings,
		Warnings:   s.Warnings,
		DurationMS: float64(s.Duration.Microseconds()) / 1000,
	}
}

// DrawResponse is the payload of POST /api/v1/draw.
type DrawResponse struct {
	RequestID string             `json:"request_id"`
	Diagram   string             `json:"diagram"`
	Levels    map[string]int     `json:"levels"`
	Panel     string             `json:"panel,omitempty"`
	Dashboard json.RawMessage    `json:"dashboard,omitempty"`
	Warnings  []tderrors.Warning `json:"warnings"`
	Stats     StatsBody          `json:"stats"`
	CacheHit  bool               `json:"cache_hit"`
}

// ExtractResponse is the payload of POST /api/v1/extract.
type ExtractResponse struct {
	RequestID string             `json:"request_id"`
	Topology  string             `json:"topology"`
	Page      string             `json:"page,omitempty"`
	Warnings  []tderrors.Warning `json:"warnings"`
	Stats     StatsBody          `json:"stats"`
	CacheHit  bool               `json:"cache_hit"`
}

// =============================================================================
// Draw
// =============================================================================

func (s *Server) handleDraw(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	opts, err := drawOptions(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.runner.Draw(r.Context(), body, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DrawResponse{
		RequestID: RequestID(r.Context()),
		Diagram:   string(res.Diagram),
		Levels:    res.Assignment.Levels,
		Panel:     string(res.Panel),
		Dashboard: json.RawMessage(res.Dashboard),
		Warnings:  nonNil(res.Warnings),
		Stats:     statsBody(res.Stats),
		CacheHit:  res.CacheHit,
	})
}

// drawOptions maps query parameters onto convert.DrawOptions. Interactive
// prompting and environment expansion are not available over HTTP.
func drawOptions(q url.Values) (convert.DrawOptions, error) {
	var opts convert.DrawOptions
	var err error

	if opts.Style, err = style.Theme(q.Get("theme")); err != nil {
		return opts, err
	}
	if opts.Axis, err = style.ParseAxis(q.Get("layout")); err != nil {
		return opts, err
	}
	if opts.Align, err = drawio.ParseAlign(q.Get("align")); err != nil {
		return opts, err
	}
	for _, f := range []struct {
		name string
		dst  *bool
	}{
		{"include_unlinked", &opts.IncludeUnlinked},
		{"no_links", &opts.NoLinks},
		{"compress", &opts.Compress},
		{"grafana", &opts.Grafana},
		{"refresh", &opts.Refresh},
	} {
		if *f.dst, err = queryBool(q, f.name); err != nil {
			return opts, err
		}
	}
	opts.PageName = q.Get("page")
	opts.InterfaceFormat = q.Get("interface_format")
	return opts, nil
}

// =============================================================================
// Extract
// =============================================================================

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	endpoints, err := topology.ParseEndpointStyle(q.Get("style"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	refresh, err := queryBool(q, "refresh")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.runner.Extract(r.Context(), body, convert.ExtractOptions{
		Diagram:     q.Get("diagram"),
		DefaultKind: q.Get("default_kind"),
		Endpoints:   endpoints,
		Name:        q.Get("name"),
		Refresh:     refresh,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ExtractResponse{
		RequestID: RequestID(r.Context()),
		Topology:  string(res.Topology),
		Page:      res.Page,
		Warnings:  nonNil(res.Warnings),
		Stats:     statsBody(res.Stats),
		CacheHit:  res.CacheHit,
	})
}

// =============================================================================
// Preview
// =============================================================================

// handlePreview renders the tiers of a topology as SVG. The response body
// is the image itself; warnings are not reported.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	opts, err := drawOptions(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	detailed, err := queryBool(r.URL.Query(), "detailed")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.runner.Draw(r.Context(), body, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	dot := nodelink.ToDOT(res.Graph, res.Assignment, nodelink.Options{
		Axis:       opts.Axis,
		Interfaces: !opts.NoLinks,
		Detailed:   detailed,
		Resolver:   style.NewResolver(opts.Style),
	})
	svg, err := nodelink.Render(r.Context(), dot, nodelink.SVG)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

// =============================================================================
// Helpers
// =============================================================================

func queryBool(q url.Values, name string) (bool, error) {
	v := q.Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, tderrors.New(tderrors.ErrCodeInvalidInput, "query parameter %s: %q is not a boolean", name, v)
	}
	return b, nil
}

func nonNil(ws []tderrors.Warning) []tderrors.Warning {
	if ws == nil {
		return []tderrors.Warning{}
	}
	return ws
}
