// Package api provides the arbiter's HTTP status surface.
// It exposes read-only fleet state and the Prometheus metrics endpoint.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/twaters/radiant/internal/domain"
)

// FleetView is the read side of the arbiter the HTTP surface needs.
type FleetView interface {
	Nodes() []domain.NodeStatus
	StateVersion() uint64
}

// Server is the arbiter HTTP status server.
type Server struct {
	fleet          FleetView
	metricsEnabled bool
}

// NewServer creates a new status server over the given fleet view.
func NewServer(fleet FleetView) *Server {
	return &Server{fleet: fleet}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Get("/api/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":        "radiant arbiter is running",
			"fleet_size":    len(s.fleet.Nodes()),
			"state_version": s.fleet.StateVersion(),
		})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/nodes", s.handleNodes)
		r.Get("/state", s.handleState)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// handleNodes lists the admitted fleet in admission order.
func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	nodes := s.fleet.Nodes()
	if nodes == nil {
		nodes = []domain.NodeStatus{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"nodes": nodes,
	})
}

// handleState reports the current snapshot version and membership, the
// same content the publisher broadcasts.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	nodes := s.fleet.Nodes()
	identities := make([]string, 0, len(nodes))
	for _, n := range nodes {
		identities = append(identities, n.Identity)
	}
	writeJSON(w, http.StatusOK, domain.StateSnapshot{
		Version: s.fleet.StateVersion(),
		Nodes:   identities,
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
