// Package httpapi exposes the dispatch pipeline over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sameehj/quadrant/pkg/strategy"
	"github.com/sameehj/quadrant/pkg/version"
)

const shutdownTimeout = 5 * time.Second

// Dispatcher is the piece of the pipeline the server needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, query string) (*strategy.Envelope, error)
}

// Server wraps an http.Server around a Dispatcher.
type Server struct {
	dispatcher Dispatcher
	logger     *zap.Logger
	srv        *http.Server
}

func NewServer(addr string, d Dispatcher, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{dispatcher: d, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/infer", s.handleInfer)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", s.handleIndex)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe blocks until Shutdown is called or the listener fails.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", zap.String("addr", s.srv.Addr))
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

// Handler returns the routing handler, for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

type inferRequest struct {
	Query string `json:"query"`
}

type inferResponse struct {
	ID        string `json:"id"`
	LatencyMS int64  `json:"latency_ms"`
	*strategy.Envelope
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleInfer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var req inferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query is required"})
		return
	}

	id := uuid.NewString()
	start := time.Now()

	env, err := s.dispatcher.Dispatch(r.Context(), req.Query)
	latency := time.Since(start)

	if err != nil {
		s.logger.Error("dispatch failed",
			zap.String("invocation", id),
			zap.Duration("latency", latency),
			zap.Error(err))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}

	s.logger.Info("query served",
		zap.String("invocation", id),
		zap.String("mode", string(env.Mode)),
		zap.Duration("latency", latency))

	writeJSON(w, http.StatusOK, inferResponse{
		ID:        id,
		LatencyMS: latency.Milliseconds(),
		Envelope:  env,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":   "quadrant",
		"version":   version.Version,
		"endpoints": []string{"POST /infer", "GET /health"},
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
