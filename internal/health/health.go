package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/mwhitford/pgprobe/internal/probe"
)

// Status represents the health status of a component
type Status string

const (
	StatusUp       Status = "UP"
	StatusDown     Status = "DOWN"
	StatusDegraded Status = "DEGRADED"
)

// ComponentHealth represents the health of a single component
type ComponentHealth struct {
	Name           string    `json:"name"`
	Status         Status    `json:"status"`
	ResponseTimeMS int64     `json:"response_time_ms,omitempty"`
	Error          string    `json:"error,omitempty"`
	CheckTime      time.Time `json:"check_time"`
}

// HealthStatus represents the overall service health
type HealthStatus struct {
	Status     Status                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Uptime     string                     `json:"uptime"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// LivenessResponse represents the liveness check response
type LivenessResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Ready     bool   `json:"ready"`
	Status    Status `json:"status,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Checker interface for components that can report health
type Checker interface {
	HealthCheck(ctx context.Context) ComponentHealth
}

// Service manages health checks for the process
type Service struct {
	startTime time.Time
	checkers  map[string]Checker
	mu        sync.RWMutex
}

// NewService creates a new health check service
func NewService() *Service {
	return &Service{
		startTime: time.Now(),
		checkers:  make(map[string]Checker),
	}
}

// RegisterChecker registers a component health checker
func (s *Service) RegisterChecker(name string, checker Checker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers[name] = checker
}

// GetHealth returns the current health status. With detailed=false only the
// overall status is computed; component details are omitted from the result.
func (s *Service) GetHealth(ctx context.Context, detailed bool) HealthStatus {
	status := HealthStatus{
		Timestamp:  time.Now(),
		Uptime:     time.Since(s.startTime).Round(time.Second).String(),
		Components: make(map[string]ComponentHealth),
	}

	s.mu.RLock()
	checkers := make(map[string]Checker, len(s.checkers))
	for name, checker := range s.checkers {
		checkers[name] = checker
	}
	s.mu.RUnlock()

	overallStatus := StatusUp
	for name, checker := range checkers {
		health := checker.HealthCheck(ctx)
		status.Components[name] = health

		switch health.Status {
		case StatusDown:
			overallStatus = StatusDegraded
		case StatusDegraded:
			if overallStatus == StatusUp {
				overallStatus = StatusDegraded
			}
		}
	}

	if !detailed {
		status.Components = nil
	}

	status.Status = overallStatus
	return status
}

// DatabaseChecker reports the reachability of the probe target
type DatabaseChecker struct {
	prober Prober
}

// Prober runs a single connection check
type Prober interface {
	Check(ctx context.Context) probe.Result
}

// NewDatabaseChecker creates a health checker backed by the connection probe
func NewDatabaseChecker(prober Prober) *DatabaseChecker {
	return &DatabaseChecker{prober: prober}
}

// HealthCheck runs one connection check and maps its outcome to a status
func (d *DatabaseChecker) HealthCheck(ctx context.Context) ComponentHealth {
	health := ComponentHealth{
		Name:      "database",
		CheckTime: time.Now(),
		Status:    StatusUp,
	}

	result := d.prober.Check(ctx)
	health.ResponseTimeMS = result.Elapsed.Milliseconds()
	if !result.OK {
		health.Status = StatusDown
		health.Error = result.Message
	}

	return health
}

// Handler returns an HTTP handler for health checks
func (s *Service) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detailed := r.URL.Query().Get("detailed") == "true"
		health := s.GetHealth(r.Context(), detailed)

		w.Header().Set("Content-Type", "application/json")

		switch health.Status {
		case StatusUp, StatusDegraded:
			// Degraded still answers requests
			w.WriteHeader(http.StatusOK)
		case StatusDown:
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		if err := json.NewEncoder(w).Encode(health); err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// LivenessHandler returns a simple liveness check handler
func (s *Service) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		response := LivenessResponse{
			Status:    "alive",
			Timestamp: time.Now().Format(time.RFC3339),
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// ReadinessHandler returns a readiness check handler. The service is ready
// only when every registered component reports UP.
func (s *Service) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := s.GetHealth(r.Context(), false)

		w.Header().Set("Content-Type", "application/json")

		response := ReadinessResponse{
			Ready:     health.Status == StatusUp,
			Timestamp: time.Now().Format(time.RFC3339),
		}
		if response.Ready {
			w.WriteHeader(http.StatusOK)
		} else {
			response.Status = health.Status
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		if err := json.NewEncoder(w).Encode(response); err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}
