// Package proxy exposes tool calls to browsers over HTTP. Each request runs
// one short-lived tool server session.
package proxy

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wagiedev/toolbridge-go/internal/catalog"
	"github.com/wagiedev/toolbridge-go/internal/config"
	"github.com/wagiedev/toolbridge-go/internal/errors"
)

// TimeoutMessage is returned with 504 when the tool server does not answer.
const TimeoutMessage = "Timeout waiting for MCP server response"

// maxBodySize limits POST /mcp-client bodies.
const maxBodySize = 1 << 20

// Server routes proxy requests.
type Server struct {
	log      *slog.Logger
	cfg      config.ProxyConfig
	caller   Caller
	registry *prometheus.Registry
	metrics  *metrics
	router   chi.Router
}

// New builds the proxy handler. Tool calls are forwarded to caller.
func New(cfg config.ProxyConfig, caller Caller, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	reg := prometheus.NewRegistry()

	s := &Server{
		log:      log.With("component", "proxy"),
		cfg:      cfg,
		caller:   caller,
		registry: reg,
		metrics:  newMetrics(reg),
	}

	s.router = s.routes()

	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(s.logRequests)

	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"*"},
		}))
	}

	r.Post("/mcp-client", s.handleCall)
	r.Get("/api/tools", s.handleTools)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if s.cfg.EnableMetrics {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	if s.cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.cfg.StaticDir)))
	}

	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type callRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  *int   `json:"code,omitempty"`
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	var req callRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})

		return
	}

	if req.Tool == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing tool"})

		return
	}

	log := s.log.With("tool", req.Tool, "request_id", chiMiddleware.GetReqID(r.Context()))
	log.Info("Received tool call", "args", req.Args)

	s.metrics.inflight.Inc()
	start := time.Now()

	raw, err := s.caller.Call(r.Context(), req.Tool, req.Args)

	elapsed := time.Since(start)
	s.metrics.inflight.Dec()

	if err != nil {
		outcome := s.writeCallError(w, r, log, err)
		s.metrics.observe(req.Tool, outcome, elapsed)

		return
	}

	outcome := resultOutcome(raw)
	s.metrics.observe(req.Tool, outcome, elapsed)

	log.Info("Tool call answered", "outcome", outcome, "elapsed", elapsed)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(raw); err != nil {
		log.Debug("Failed to write response", "error", err)
	}
}

// writeCallError maps a session error to a response and returns the outcome.
func (s *Server) writeCallError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) string {
	if rpcErr, ok := stderrors.AsType[*errors.RPCError](err); ok {
		log.Warn("Tool server returned an error", "code", rpcErr.Code, "message", rpcErr.Message)

		code := rpcErr.Code
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: rpcErr.Message, Code: &code})

		return outcomeRPCError
	}

	switch {
	case stderrors.Is(err, errors.ErrTimeout):
		log.Warn(TimeoutMessage, "error", err)
		writeJSON(w, http.StatusGatewayTimeout, errorResponse{Error: TimeoutMessage})

		return outcomeTimeout
	case r.Context().Err() != nil && stderrors.Is(err, context.Canceled):
		log.Info("Client went away before the tool answered")

		return outcomeCancelled
	default:
		log.Error("Tool call failed", "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})

		return outcomeFailed
	}
}

type toolInfo struct {
	catalog.Entry

	InputSchema any `json:"inputSchema"`
}

func (s *Server) handleTools(w http.ResponseWriter, _ *http.Request) {
	entries := catalog.All()

	out := make([]toolInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, toolInfo{Entry: e, InputSchema: e.InputSchema()})
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.log.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed", time.Since(start),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v)
}
