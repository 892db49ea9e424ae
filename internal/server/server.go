// Package server exposes the evaluation engine over HTTP.
//
// The HTTP API is the programmatic boundary the interactive front end
// talks to: it posts tree snapshots and receives evaluation results or
// rendered diagrams back. The server holds no tree state between
// requests; every request carries the full tree.
//
// Endpoints:
//
//	POST /api/evaluate        tree JSON in, evaluation result JSON out
//	POST /api/render          tree JSON in, svg/png/dot artifact out
//	GET  /healthz             liveness probe
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/gametree-tools/gametree/pkg/cache"
	apperrors "github.com/gametree-tools/gametree/pkg/errors"
	"github.com/gametree-tools/gametree/pkg/render/nodelink"
	"github.com/gametree-tools/gametree/pkg/search"
	"github.com/gametree-tools/gametree/pkg/tree"
	"github.com/gametree-tools/gametree/pkg/treeio"
)

// maxBodyBytes caps request bodies; interactively built trees are tiny.
const maxBodyBytes = 1 << 20

// Server is the HTTP front for the evaluation engine.
type Server struct {
	logger   *log.Logger
	cache    cache.Cache
	cacheTTL time.Duration
	router   chi.Router
}

// New creates a server. cache may be a NullCache when caching is
// disabled; ttl bounds the lifetime of cached artifacts.
func New(logger *log.Logger, c cache.Cache, ttl time.Duration) *Server {
	s := &Server{logger: logger, cache: c, cacheTTL: ttl}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/evaluate", s.handleEvaluate)
		r.Post("/render", s.handleRender)
	})

	s.router = r
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

// requestID attaches a fresh UUID to each request for log correlation.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(withRequestID(r.Context(), id)))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"id", requestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed", time.Since(start).Round(time.Millisecond))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleEvaluate runs the engine over the posted tree and returns the
// full evaluation result. Results are cached by tree hash; evaluation is
// deterministic, so a cached result is always current for its tree.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	t, raw, ok := s.readTree(w, r)
	if !ok {
		return
	}

	key := cache.ResultKey(cache.Hash(raw))
	if data, hit, err := s.cache.Get(r.Context(), key); err == nil && hit {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
		return
	}

	res, err := search.Evaluate(t)
	if err != nil {
		s.writeEvalError(w, err)
		return
	}
	data, err := treeio.MarshalResult(res)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError,
			apperrors.Wrap(apperrors.ErrCodeInternal, err, "encode result"))
		return
	}
	if err := s.cache.Set(r.Context(), key, data, s.cacheTTL); err != nil {
		s.logger.Warn("cache set failed", "err", err)
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// handleRender returns a rendered diagram of the posted tree. Query
// params: format=svg|png|dot (default svg), overlay=0 to skip the
// evaluation highlighting. Artifacts are cached by tree hash.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	t, raw, ok := s.readTree(w, r)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "svg"
	}
	contentType, ok := renderContentTypes[format]
	if !ok {
		s.writeError(w, http.StatusBadRequest,
			apperrors.New(apperrors.ErrCodeInvalidFormat, "invalid format %q (must be svg, png, or dot)", format))
		return
	}
	overlay := r.URL.Query().Get("overlay") != "0"

	key := cache.ArtifactKey(cache.Hash(raw), format, overlay)
	if data, hit, err := s.cache.Get(r.Context(), key); err == nil && hit {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(data)
		return
	}

	var ov nodelink.Overlay
	if overlay {
		res, err := search.Evaluate(t)
		if err != nil {
			s.writeEvalError(w, err)
			return
		}
		ov = nodelink.Overlay{Path: res.Path, Pruned: res.Pruned}
	}

	dot := nodelink.ToDOT(t, ov)
	var (
		data []byte
		err  error
	)
	switch format {
	case "svg":
		data, err = nodelink.RenderSVG(dot)
	case "png":
		data, err = nodelink.RenderPNG(dot)
	case "dot":
		data = []byte(dot)
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError,
			apperrors.Wrap(apperrors.ErrCodeInternal, err, "render %s", format))
		return
	}

	if err := s.cache.Set(r.Context(), key, data, s.cacheTTL); err != nil {
		s.logger.Warn("cache set failed", "err", err)
	}

	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(data)
}

var renderContentTypes = map[string]string{
	"svg": "image/svg+xml",
	"png": "image/png",
	"dot": "text/vnd.graphviz",
}

// readTree decodes the posted tree and reports errors to the client.
// It returns the raw body bytes for cache keying.
func (s *Server) readTree(w http.ResponseWriter, r *http.Request) (*tree.Tree, []byte, bool) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(body); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, http.StatusRequestEntityTooLarge,
				apperrors.New(apperrors.ErrCodeInvalidInput, "request body exceeds %d bytes", maxErr.Limit))
			return nil, nil, false
		}
		s.writeError(w, http.StatusBadRequest,
			apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "read body"))
		return nil, nil, false
	}
	t, err := treeio.ReadJSON(bytes.NewReader(buf.Bytes()))
	if err != nil {
		s.writeError(w, http.StatusBadRequest,
			apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "parse tree"))
		return nil, nil, false
	}
	return t, buf.Bytes(), true
}

// writeEvalError maps engine failures to HTTP responses. A tree without
// a root or one deep enough to trip the recursion guard is a semantic
// problem with the posted tree, not a malformed request, hence 422.
func (s *Server) writeEvalError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tree.ErrNoRoot):
		s.writeError(w, http.StatusUnprocessableEntity,
			apperrors.Wrap(apperrors.ErrCodeNoRoot, err, "tree has no root"))
	case errors.Is(err, search.ErrDepthExceeded):
		s.writeError(w, http.StatusUnprocessableEntity,
			apperrors.Wrap(apperrors.ErrCodeDepthExceeded, err, "tree too deep or cyclic"))
	default:
		s.writeError(w, http.StatusInternalServerError,
			apperrors.Wrap(apperrors.ErrCodeInternal, err, "evaluate"))
	}
}

// errorBody is the JSON shape of all error responses.
type errorBody struct {
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, err *apperrors.Error) {
	writeJSON(w, status, errorBody{Code: err.Code, Message: apperrors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
