// Package routing implements the namespace router and async storage facade:
// the single entry point an application binds to. Every call is routed to
// either the real backend handler or a no-op sink, chosen by each
// namespace's useDbBackend policy, mirroring AsyncStorageImpl's
// getOperationHandler/getRedisHandler/getDummyHandler pattern
// (original_source/src/asyncstorageimpl.cpp).
package routing

import (
	"time"

	"github.com/ricplt/sdlgo/internal/config"
	"github.com/ricplt/sdlgo/internal/reactor"
	"github.com/ricplt/sdlgo/internal/telemetry/metrics"
)

// RealHandler is the operation surface a namespace routed to the real
// backend is dispatched to (implemented by *backend.Handler).
type RealHandler interface {
	WaitReadyAsync(namespace string, cb func(error))
	SetAsync(namespace string, data map[string][]byte, cb func(error))
	SetIfAsync(namespace, key string, oldData, newData []byte, cb func(matched bool, err error))
	SetIfNotExistsAsync(namespace, key string, data []byte, cb func(created bool, err error))
	GetAsync(namespace string, keys []string, cb func(map[string][]byte, error))
	RemoveAsync(namespace string, keys []string, cb func(error))
	RemoveIfAsync(namespace, key string, data []byte, cb func(matched bool, err error))
	FindKeysAsync(namespace, prefix string, cb func([]string, error))
	RemoveAllAsync(namespace string, cb func(error))
}

// Storage is the namespace router and async public API surface: the J
// component of the design, the sole entry point applications bind to.
type Storage struct {
	engine      reactor.Engine
	namespaces  *config.NamespaceConfigurations
	realHandler RealHandler
	dummy       *dummyHandler
	metrics     metrics.Metrics

	newRealHandler func() RealHandler
}

// New builds a Storage that routes namespace lookups against namespaces and
// lazily constructs its real handler via newRealHandler on first routed
// call, mirroring the original's function-static lazy handler instances as
// an explicit per-facade field (spec.md §9's "global/static backend
// handler" design note). Every call goes through m unguarded, so m must not
// be a bare nil interface; the disabled value metrics.NewMetrics returns (a
// typed nil) is a valid no-op value.
func New(engine reactor.Engine, namespaces *config.NamespaceConfigurations, m metrics.Metrics, newRealHandler func() RealHandler) *Storage {
	return &Storage{
		engine:         engine,
		namespaces:     namespaces,
		dummy:          newDummyHandler(engine),
		metrics:        m,
		newRealHandler: newRealHandler,
	}
}

// observe times a routed op from start and records it under op once it
// completes, wrapping the caller's callback rather than replacing it.
func (s *Storage) observe(op string, start time.Time, err error) {
	s.metrics.ObserveOperation(op, time.Since(start), err)
}

// Fd returns the reactor fd so a caller can integrate this facade into its
// own event loop.
func (s *Storage) Fd() int {
	return s.engine.Fd()
}

// HandleEvents runs every ready reactor callback and timer.
func (s *Storage) HandleEvents() error {
	return s.engine.HandleEvents()
}

// useDbBackend reports whether namespace is routed to the real backend.
func (s *Storage) useDbBackend(namespace string) bool {
	entry, found := s.namespaces.Lookup(namespace)
	return found && entry.UseDbBackend
}

// handler returns the operation handler namespace routes to, constructing
// the real handler on first use.
func (s *Storage) handler(namespace string) RealHandler {
	if !s.useDbBackend(namespace) {
		return s.dummy
	}
	if s.realHandler == nil {
		s.realHandler = s.newRealHandler()
	}
	return s.realHandler
}

func (s *Storage) WaitReadyAsync(namespace string, cb func(error)) {
	start := time.Now()
	s.handler(namespace).WaitReadyAsync(namespace, func(err error) {
		s.observe("waitReady", start, err)
		cb(err)
	})
}

func (s *Storage) SetAsync(namespace string, data map[string][]byte, cb func(error)) {
	start := time.Now()
	s.handler(namespace).SetAsync(namespace, data, func(err error) {
		s.observe("set", start, err)
		cb(err)
	})
}

func (s *Storage) SetIfAsync(namespace, key string, oldData, newData []byte, cb func(matched bool, err error)) {
	start := time.Now()
	s.handler(namespace).SetIfAsync(namespace, key, oldData, newData, func(matched bool, err error) {
		s.observe("setIf", start, err)
		cb(matched, err)
	})
}

func (s *Storage) SetIfNotExistsAsync(namespace, key string, data []byte, cb func(created bool, err error)) {
	start := time.Now()
	s.handler(namespace).SetIfNotExistsAsync(namespace, key, data, func(created bool, err error) {
		s.observe("setIfNotExists", start, err)
		cb(created, err)
	})
}

func (s *Storage) GetAsync(namespace string, keys []string, cb func(map[string][]byte, error)) {
	start := time.Now()
	s.handler(namespace).GetAsync(namespace, keys, func(data map[string][]byte, err error) {
		s.observe("get", start, err)
		cb(data, err)
	})
}

func (s *Storage) RemoveAsync(namespace string, keys []string, cb func(error)) {
	start := time.Now()
	s.handler(namespace).RemoveAsync(namespace, keys, func(err error) {
		s.observe("remove", start, err)
		cb(err)
	})
}

func (s *Storage) RemoveIfAsync(namespace, key string, data []byte, cb func(matched bool, err error)) {
	start := time.Now()
	s.handler(namespace).RemoveIfAsync(namespace, key, data, func(matched bool, err error) {
		s.observe("removeIf", start, err)
		cb(matched, err)
	})
}

func (s *Storage) FindKeysAsync(namespace, prefix string, cb func([]string, error)) {
	start := time.Now()
	s.handler(namespace).FindKeysAsync(namespace, prefix, func(keys []string, err error) {
		s.observe("findKeys", start, err)
		cb(keys, err)
	})
}

func (s *Storage) RemoveAllAsync(namespace string, cb func(error)) {
	start := time.Now()
	s.handler(namespace).RemoveAllAsync(namespace, func(err error) {
		s.observe("removeAll", start, err)
		cb(err)
	})
}
