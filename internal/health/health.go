// Package health provides the HTTP health check endpoint for the search host.
//
// The health server runs on a separate port from the search API and provides:
// - GET /health, returning 503 Service Unavailable with body "starting"
// until plugins are loaded
// - 200 OK with body "ok <n> plugins" once the host is ready
//
// Configuration reloads mark the server not ready until the new plugin set
// is in place.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// Server provides health check endpoints
type Server struct {
	server  *http.Server
	ready   atomic.Bool
	plugins atomic.Int32
}

// New creates a new health server on the specified port
func New(port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		server: &http.Server{
			Addr:              ":" + strconv.Itoa(port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	mux.HandleFunc("/health", s.healthHandler)

	return s
}

// Start begins listening for health check requests
func (s *Server) Start() error {
	slog.Info("Starting health server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the health server
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// MarkReady records how many plugins are loaded and reports ready
func (s *Server) MarkReady(plugins int) {
	s.plugins.Store(int32(plugins))
	s.ready.Store(true)
	slog.Info("Health server marked as ready", "plugins", plugins)
}

// MarkNotReady causes /health to report 503 until MarkReady is called again
func (s *Server) MarkNotReady() {
	s.ready.Store(false)
	slog.Info("Health server marked as not ready")
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	body := "starting"
	status := http.StatusServiceUnavailable
	if s.ready.Load() {
		body = fmt.Sprintf("ok %d plugins", s.plugins.Load())
		status = http.StatusOK
	}

	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write([]byte(body)); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}
