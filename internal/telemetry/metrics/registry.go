// Package metrics provides Prometheus-backed instrumentation for the SDL
// client. Instrumentation is opt-in: until InitRegistry is called, every
// constructor returns nil and the Observe*/Inc* helpers below become no-ops,
// so a caller that never touches this package pays zero overhead.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu       sync.RWMutex
	registry *prometheus.Registry
	enabled  bool
)

// InitRegistry enables metrics collection and returns the registry new
// collectors should register against. Calling it more than once replaces
// the active registry; existing collector instances keep pointing at their
// original registry and stop being scraped.
func InitRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()

	registry = prometheus.NewRegistry()
	enabled = true
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// GetRegistry returns the active registry, or nil if metrics are disabled.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}
