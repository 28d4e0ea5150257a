package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Routing.Debounce != 800*time.Millisecond {
		t.Errorf("expected 800ms debounce, got %v", cfg.Routing.Debounce)
	}
	if cfg.Routing.Timeout != 15*time.Second {
		t.Errorf("expected 15s timeout, got %v", cfg.Routing.Timeout)
	}
	if cfg.Status.Backend != "sqlite" {
		t.Errorf("expected sqlite status backend, got %s", cfg.Status.Backend)
	}
	if cfg.Analysis.CoverageRadiusM != 2000 {
		t.Errorf("expected 2000 m coverage radius, got %v", cfg.Analysis.CoverageRadiusM)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ROUTING_DEBOUNCE", "250ms")
	t.Setenv("STATUS_BACKEND", "redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("COVERAGE_RADIUS_M", "1500.5")
	t.Setenv("WORKER_COUNT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Routing.Debounce != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", cfg.Routing.Debounce)
	}
	if cfg.Status.Backend != "redis" || cfg.Redis.DB != 3 {
		t.Errorf("unexpected redis settings %+v / %+v", cfg.Status, cfg.Redis)
	}
	if cfg.Analysis.CoverageRadiusM != 1500.5 {
		t.Errorf("expected 1500.5, got %v", cfg.Analysis.CoverageRadiusM)
	}
	if cfg.Worker.Count != 2 {
		t.Errorf("expected fallback worker count 2, got %d", cfg.Worker.Count)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"SERVER_PORT", "70000"},
		{"LOG_LEVEL", "verbose"},
		{"STATUS_BACKEND", "etcd"},
		{"SYNC_INTERVAL", "10s"},
		{"ROUTING_TIMEOUT", "0s"},
		{"COVERAGE_RADIUS_M", "-5"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
