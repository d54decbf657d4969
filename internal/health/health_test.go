package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mwhitford/pgprobe/internal/probe"
)

// stubProber implements Prober for testing
type stubProber struct {
	result probe.Result
}

func (s *stubProber) Check(ctx context.Context) probe.Result {
	return s.result
}

// stubChecker implements Checker for testing
type stubChecker struct {
	health ComponentHealth
}

func (s *stubChecker) HealthCheck(ctx context.Context) ComponentHealth {
	return s.health
}

func TestNewService(t *testing.T) {
	service := NewService()

	if service == nil {
		t.Fatal("NewService returned nil")
	}

	if service.checkers == nil {
		t.Error("Checkers map not initialized")
	}
}

func TestService_RegisterChecker(t *testing.T) {
	service := NewService()
	checker := &stubChecker{}

	service.RegisterChecker("test-checker", checker)

	if len(service.checkers) != 1 {
		t.Errorf("Expected 1 checker, got %d", len(service.checkers))
	}
}

func TestService_GetHealth(t *testing.T) {
	service := NewService()

	service.RegisterChecker("healthy", &stubChecker{
		health: ComponentHealth{Name: "healthy", Status: StatusUp},
	})
	service.RegisterChecker("unhealthy", &stubChecker{
		health: ComponentHealth{Name: "unhealthy", Status: StatusDown, Error: "connection refused"},
	})

	health := service.GetHealth(context.Background(), true)

	if health.Status != StatusDegraded {
		t.Errorf("Expected status %v, got %v", StatusDegraded, health.Status)
	}

	if len(health.Components) != 2 {
		t.Errorf("Expected 2 components, got %d", len(health.Components))
	}

	if comp, ok := health.Components["unhealthy"]; ok {
		if comp.Status != StatusDown {
			t.Errorf("Expected unhealthy status %v, got %v", StatusDown, comp.Status)
		}
		if comp.Error == "" {
			t.Error("Expected error message for unhealthy component")
		}
	} else {
		t.Error("unhealthy component not found")
	}
}

func TestService_GetHealthSummary(t *testing.T) {
	service := NewService()
	service.RegisterChecker("db", &stubChecker{
		health: ComponentHealth{Name: "db", Status: StatusUp},
	})

	health := service.GetHealth(context.Background(), false)

	if health.Status != StatusUp {
		t.Errorf("Expected status %v, got %v", StatusUp, health.Status)
	}
	if health.Components != nil {
		t.Error("Summary health should omit component details")
	}
}

func TestDatabaseChecker_HealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		result     probe.Result
		wantStatus Status
		wantError  bool
	}{
		{
			name: "reachable database",
			result: probe.Result{
				OK:      true,
				Message: "connected to db.internal:5432/postgres in 42ms",
				Elapsed: 42 * time.Millisecond,
			},
			wantStatus: StatusUp,
		},
		{
			name: "unreachable database",
			result: probe.Result{
				OK:      false,
				Message: "connection failed: dial tcp: connection refused",
				Elapsed: 5 * time.Millisecond,
			},
			wantStatus: StatusDown,
			wantError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewDatabaseChecker(&stubProber{result: tt.result})

			health := checker.HealthCheck(context.Background())

			if health.Name != "database" {
				t.Errorf("Expected name 'database', got %v", health.Name)
			}
			if health.Status != tt.wantStatus {
				t.Errorf("Expected status %v, got %v", tt.wantStatus, health.Status)
			}
			if tt.wantError && health.Error == "" {
				t.Error("Expected non-empty error message")
			}
			if !tt.wantError && health.Error != "" {
				t.Errorf("Expected empty error, got %q", health.Error)
			}
		})
	}
}

func TestHandler(t *testing.T) {
	service := NewService()
	service.RegisterChecker("db", &stubChecker{
		health: ComponentHealth{Name: "db", Status: StatusUp},
	})

	req := httptest.NewRequest(http.MethodGet, "/health?detailed=true", nil)
	rec := httptest.NewRecorder()

	service.Handler()(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var health HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if health.Status != StatusUp {
		t.Errorf("Expected status %v, got %v", StatusUp, health.Status)
	}
	if _, ok := health.Components["db"]; !ok {
		t.Error("Expected db component in detailed response")
	}
}

func TestLivenessHandler(t *testing.T) {
	service := NewService()

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()

	service.LivenessHandler()(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	var response LivenessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Status != "alive" {
		t.Errorf("Expected status 'alive', got %v", response.Status)
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name      string
		checker   Checker
		wantCode  int
		wantReady bool
	}{
		{
			name:      "ready when all components up",
			checker:   &stubChecker{health: ComponentHealth{Name: "db", Status: StatusUp}},
			wantCode:  http.StatusOK,
			wantReady: true,
		},
		{
			name:      "not ready when a component is down",
			checker:   &stubChecker{health: ComponentHealth{Name: "db", Status: StatusDown}},
			wantCode:  http.StatusServiceUnavailable,
			wantReady: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewService()
			service.RegisterChecker("db", tt.checker)

			req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
			rec := httptest.NewRecorder()

			service.ReadinessHandler()(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("Expected status %d, got %d", tt.wantCode, rec.Code)
			}

			var response ReadinessResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if response.Ready != tt.wantReady {
				t.Errorf("Expected ready %v, got %v", tt.wantReady, response.Ready)
			}
		})
	}
}
