// Package server exposes the conversions over HTTP.
//
// Routes:
//
//	POST /api/v1/draw      topology YAML in, draw.io XML (and Grafana artifacts) out
//	POST /api/v1/extract   draw.io XML in, topology YAML out
//	POST /api/v1/preview   topology YAML in, Graphviz SVG of the tiers out
//	GET  /api/v1/themes    names of the bundled styles
//	GET  /healthz          liveness and version
//	GET  /metrics          Prometheus metrics
//
// Options are query parameters; the request body is the source document.
// JSON responses carry a request id (also sent as X-Request-Id) and the
// warnings of the conversion. Errors are JSON too, with the error code of
// pkg/errors.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/topodraw/pkg/buildinfo"
	"github.com/matzehuels/topodraw/pkg/convert"
	tderrors "github.com/matzehuels/topodraw/pkg/errors"
	"github.com/matzehuels/topodraw/pkg/observability"
	"github.com/matzehuels/topodraw/pkg/style"
)

// DefaultMaxBodyBytes bounds request bodies.
const DefaultMaxBodyBytes = 8 << 20

// RequestIDHeader carries the request id in responses.
const RequestIDHeader = "X-Request-Id"

// Options configures the API server.
type Options struct {
	Logger *log.Logger
	// Metrics is served on /metrics. Nil leaves the route out.
	Metrics      *Metrics
	MaxBodyBytes int64
}

// Server holds the handler dependencies.
type Server struct {
	runner *convert.Runner
	opts   Options
	logger *log.Logger
}

// New builds the chi router.
func New(runner *convert.Runner, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	s := &Server{runner: runner, opts: opts, logger: opts.Logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestID)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/draw", s.handleDraw)
		r.Post("/extract", s.handleExtract)
		r.Post("/preview", s.handlePreview)
		r.Get("/themes", s.handleThemes)
	})
	return r
}

// =============================================================================
// Middleware
// =============================================================================

type ctxKey struct{}

// RequestID returns the id assigned to the request.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, route, status, time.Since(start))
		s.logger.Info("request",
			"id", RequestID(r.Context()),
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", time.Since(start))
	})
}

// =============================================================================
// Responses
// =============================================================================

// ErrorBody is the JSON error payload.
type ErrorBody struct {
	Code      tderrors.Code `json:"code"`
	Message   string        `json:"message"`
	Available []string      `json:"available,omitempty"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	RequestID string    `json:"request_id"`
	Error     ErrorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := tderrors.GetCode(err)
	if code == "" {
		code = tderrors.ErrCodeInternal
	}
	body := ErrorBody{Code: code, Message: tderrors.UserMessage(err)}

	var notFound *tderrors.DiagramNotFoundError
	var ambiguous *tderrors.AmbiguousDiagramError
	switch {
	case errors.As(err, &notFound):
		body.Available = notFound.Available
	case errors.As(err, &ambiguous):
		body.Available = ambiguous.Available
	}

	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", RequestID(r.Context()), "err", err)
	}
	writeJSON(w, status, ErrorResponse{RequestID: RequestID(r.Context()), Error: body})
}

func statusFor(code tderrors.Code) int {
	switch code {
	case tderrors.ErrCodeInvalidInput, tderrors.ErrCodeInvalidFormat, tderrors.ErrCodeInvalidStyle,
		tderrors.ErrCodeInvalidName, tderrors.ErrCodeInvalidPath, tderrors.ErrCodeParse:
		return http.StatusBadRequest
	case tderrors.ErrCodeDiagramNotFound, tderrors.ErrCodeNotFound, tderrors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case tderrors.ErrCodeAmbiguousDiagram:
		return http.StatusConflict
	case tderrors.ErrCodeTooLarge:
		return http.StatusRequestEntityTooLarge
	case tderrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// readBody reads the request body up to the configured limit.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, tderrors.New(tderrors.ErrCodeTooLarge, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, tderrors.Wrap(tderrors.ErrCodeInvalidInput, err, "read request body")
	}
	return data, nil
}

// =============================================================================
// Health and themes
// =============================================================================

// HealthResponse is the payload of /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: buildinfo.Version})
}

// ThemesResponse lists the bundled styles.
type ThemesResponse struct {
	RequestID string   `json:"request_id"`
	Themes    []string `json:"themes"`
}

func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ThemesResponse{RequestID: RequestID(r.Context()), Themes: style.Themes()})
}
