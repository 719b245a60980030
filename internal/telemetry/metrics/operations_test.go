package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewMetrics_DisabledReturnsNil(t *testing.T) {
	resetForTest()
	if pm, ok := NewMetrics().(*prometheusMetrics); !ok || pm != nil {
		t.Fatal("expected a nil *prometheusMetrics when registry not initialized")
	}
}

func TestNewMetrics_EnabledReturnsNonNil(t *testing.T) {
	resetForTest()
	InitRegistry()
	defer resetForTest()

	m := NewMetrics()
	if m == nil {
		t.Fatal("expected non-nil Metrics once InitRegistry has been called")
	}
}

func TestPrometheusMetrics_ObserveOperation(t *testing.T) {
	resetForTest()
	reg := InitRegistry()
	defer resetForTest()

	m := NewMetrics()
	m.ObserveOperation("set", 5*time.Millisecond, nil)
	m.ObserveOperation("get", 10*time.Millisecond, errors.New("boom"))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	foundTotal, foundDuration := false, false
	for _, mf := range mfs {
		switch mf.GetName() {
		case "sdl_operations_total":
			foundTotal = true
		case "sdl_operation_duration_milliseconds":
			foundDuration = true
		}
	}
	if !foundTotal {
		t.Error("expected sdl_operations_total metric")
	}
	if !foundDuration {
		t.Error("expected sdl_operation_duration_milliseconds metric")
	}
}

func TestPrometheusMetrics_ObserveDiscoveryEvent(t *testing.T) {
	resetForTest()
	reg := InitRegistry()
	defer resetForTest()

	m := NewMetrics()
	m.ObserveDiscoveryEvent("sentinel")
	m.ObserveDiscoveryEvent("sentinel")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	for _, mf := range mfs {
		if mf.GetName() == "sdl_discovery_events_total" {
			for _, fam := range mf.GetMetric() {
				if fam.GetCounter().GetValue() != 2 {
					t.Errorf("expected 2 discovery events, got %v", fam.GetCounter().GetValue())
				}
			}
			return
		}
	}
	t.Error("expected sdl_discovery_events_total metric")
}

func TestPrometheusMetrics_SetBackendReady(t *testing.T) {
	resetForTest()
	reg := InitRegistry()
	defer resetForTest()

	m := NewMetrics()
	m.SetBackendReady("policies", true)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	for _, mf := range mfs {
		if mf.GetName() == "sdl_backend_ready" {
			if len(mf.GetMetric()) > 0 && mf.GetMetric()[0].GetGauge().GetValue() != 1 {
				t.Errorf("expected ready=1, got %v", mf.GetMetric()[0].GetGauge().GetValue())
			}
			return
		}
	}
	t.Error("expected sdl_backend_ready metric")
}

func TestPrometheusMetrics_IncRetry(t *testing.T) {
	resetForTest()
	reg := InitRegistry()
	defer resetForTest()

	m := NewMetrics()
	m.IncRetry("sentinel_discovery")
	m.IncRetry("sentinel_discovery")
	m.IncRetry("sentinel_discovery")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	for _, mf := range mfs {
		if mf.GetName() == "sdl_retries_total" {
			if len(mf.GetMetric()) > 0 && mf.GetMetric()[0].GetCounter().GetValue() != 3 {
				t.Errorf("expected 3 retries, got %v", mf.GetMetric()[0].GetCounter().GetValue())
			}
			return
		}
	}
	t.Error("expected sdl_retries_total metric")
}

func TestNilMetrics_NoPanic(t *testing.T) {
	var m *prometheusMetrics
	m.ObserveOperation("get", time.Millisecond, nil)
	m.ObserveDiscoveryEvent("static")
	m.SetBackendReady("policies", false)
	m.IncRetry("sentinel_discovery")
}

// resetForTest clears package-level registry state between tests. Not
// exported: production callers never re-disable metrics mid-process.
func resetForTest() {
	mu.Lock()
	defer mu.Unlock()
	registry = (*prometheus.Registry)(nil)
	enabled = false
}
