package api

import (
	"context"
	"net/http"
	"sort"
	"time"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

type ReadyResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]bool   `json:"checks"`
	Details   map[string]string `json:"details,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   s.version,
	}, http.StatusOK)
}

// handleReady runs every readiness check; any failure answers 503.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := ReadyResponse{
		Status:    "ready",
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]bool, len(names)),
	}
	status := http.StatusOK
	for _, name := range names {
		err := s.checks[name](ctx)
		resp.Checks[name] = err == nil
		if err != nil {
			if resp.Details == nil {
				resp.Details = make(map[string]string)
			}
			resp.Details[name] = err.Error()
			resp.Status = "not_ready"
			status = http.StatusServiceUnavailable
		}
	}
	WriteJSON(w, resp, status)
}
