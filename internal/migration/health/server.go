// Package health exposes the migration run over HTTP: liveness, progress,
// and Prometheus metrics.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coachbook/mover/internal/migration/orchestrator"
)

// Server provides HTTP endpoints for migration monitoring.
type Server struct {
	orch   *orchestrator.Orchestrator
	server *http.Server
}

// NewServer creates a new health server.
func NewServer(orch *orchestrator.Orchestrator, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		orch: orch,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/progress", s.handleProgress)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	state := s.orch.State()
	response := map[string]string{
		"status": "ok",
		"state":  state.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if state == orchestrator.StateAborted {
		response["status"] = "aborted"
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(response)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	payload := struct {
		State    string   `json:"state"`
		Progress any      `json:"progress"`
		Warnings []string `json:"warnings,omitempty"`
	}{
		State:    s.orch.State().String(),
		Progress: s.orch.Progress(),
		Warnings: s.orch.Warnings(),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}
