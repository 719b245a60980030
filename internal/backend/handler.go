// Package backend implements the real Redis-backed storage handler: the nine
// public async operations, readiness gating on discovery, and the namespace
// key framing that keeps every namespace's keys colocated on one Redis
// Cluster hash slot.
//
// There is no original-source file for this component: the retrieval pack's
// original_source/src/redis/ directory carries the three discovery variants
// but no asyncredisstorage.cpp. The operation surface (the eight data ops plus
// waitReady) is grounded on include/private/asyncstorageimpl.hpp's method
// list; the per-operation Redis command choices below follow the real SDL
// project's well-known convention of storing a namespace as a single Redis
// hash keyed by "{namespace}" (the braces are a Redis Cluster hash tag, so
// every key in a namespace always maps to the same slot) with one hash field
// per key — see DESIGN.md for the full rationale.
package backend

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/ricplt/sdlgo/internal/config"
	"github.com/ricplt/sdlgo/internal/discovery"
	"github.com/ricplt/sdlgo/internal/dispatcher"
	logger "github.com/ricplt/sdlgo/internal/telemetry/log"
	"github.com/ricplt/sdlgo/internal/telemetry/metrics"
)

// compareAndSet runs get/compare/set atomically: if the hash field's current
// value equals ARGV[1], it is replaced with ARGV[2] and the script returns 1;
// otherwise it returns 0 unchanged.
var compareAndSetScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], KEYS[2])
if current == ARGV[1] then
  redis.call('HSET', KEYS[1], KEYS[2], ARGV[2])
  return 1
end
return 0
`)

// compareAndDelete runs get/compare/delete atomically: if the hash field's
// current value equals ARGV[1], it is removed and the script returns 1;
// otherwise it returns 0 unchanged.
var compareAndDeleteScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], KEYS[2])
if current == ARGV[1] then
  redis.call('HDEL', KEYS[1], KEYS[2])
  return 1
end
return 0
`)

// Handler is the real, database-backed storage operation surface. One
// Handler instance is shared by every namespace routed to the real backend;
// it is created lazily by the routing layer at first routed call.
type Handler struct {
	engineDispatch *dispatcher.Dispatcher
	discovery      discovery.Discovery
	metrics        metrics.Metrics

	ready      bool
	readyQueue []func()
}

// New returns a Handler that issues commands through d and tracks readiness
// via disc's state-change callback.
func New(d *dispatcher.Dispatcher, disc discovery.Discovery, m metrics.Metrics) *Handler {
	h := &Handler{engineDispatch: d, discovery: disc, metrics: m}
	disc.SetStateChangedCb(h.onDatabaseInfo)
	return h
}

func (h *Handler) onDatabaseInfo(info discovery.Info) {
	wasReady := h.ready
	h.ready = true
	h.metrics.ObserveDiscoveryEvent(info.Discovery.String())
	// One Handler instance is shared by every namespace routed to the real
	// backend, so readiness is a property of the handler, not a single
	// namespace; info.Namespace is only ever populated by the namespace-
	// scoped RCP variant. "*" stands for "every namespace this handler
	// serves" when discovery is not namespace-scoped.
	readyNamespace := info.Namespace
	if readyNamespace == "" {
		readyNamespace = "*"
	}
	h.metrics.SetBackendReady(readyNamespace, true)
	if !wasReady {
		queue := h.readyQueue
		h.readyQueue = nil
		for _, cb := range queue {
			cb()
		}
	}
}

// hashKey frames a namespace into its Redis Cluster hash-tagged key.
func hashKey(namespace string) string {
	return "{" + namespace + "}"
}

func validateNamespace(namespace string) *OperationError {
	if !config.IsValidNamespaceSyntax(namespace) {
		return newInvalidNamespaceError(namespace)
	}
	return nil
}

// WaitReadyAsync completes once the handler has received at least one
// DatabaseInfo; readiness is handler-wide, not tracked per namespace, and
// namespace is only validated. If discovery has already fired, cb runs on the
// next reactor tick rather than synchronously, preserving the "never a
// synchronous callback" contract every other op follows.
func (h *Handler) WaitReadyAsync(namespace string, cb func(error)) {
	if err := validateNamespace(namespace); err != nil {
		postNamespaceError(h, err, cb)
		return
	}
	if h.ready {
		h.post(func() { cb(nil) })
		return
	}
	h.readyQueue = append(h.readyQueue, func() { cb(nil) })
}

func (h *Handler) post(fn func()) {
	h.engineDispatch.Post(fn)
}

func postNamespaceError(h *Handler, err *OperationError, cb func(error)) {
	h.post(func() { cb(err) })
}

// guard runs the shared validate-namespace / check-readiness preamble every
// data operation performs before issuing a command. onReady is invoked
// (synchronously, from guard's caller) only when both checks pass.
func (h *Handler) guard(namespace string, onFail func(*OperationError), onReady func()) {
	if err := validateNamespace(namespace); err != nil {
		h.post(func() { onFail(err) })
		return
	}
	if !h.ready {
		h.post(func() { onFail(newNotYetDiscoveredError(namespace)) })
		return
	}
	onReady()
}

// SetAsync atomically writes every entry of data into namespace's hash.
func (h *Handler) SetAsync(namespace string, data map[string][]byte, cb func(error)) {
	h.guard(namespace, func(oe *OperationError) { cb(oe) }, func() {
		key := hashKey(namespace)
		fields := make([]interface{}, 0, len(data)*2)
		for k, v := range data {
			fields = append(fields, k, v)
		}
		h.engineDispatch.DispatchAsync(func(ctx context.Context, client redis.UniversalClient) (interface{}, error) {
			return client.HSet(ctx, key, fields...).Result()
		}, func(_ interface{}, err error) {
			cb(h.dispatchErr(err))
		})
	})
}

// SetIfAsync replaces key's current value with newData iff it currently
// equals oldData, atomically. matched reports whether the swap happened.
func (h *Handler) SetIfAsync(namespace, key string, oldData, newData []byte, cb func(matched bool, err error)) {
	h.guard(namespace, func(oe *OperationError) { cb(false, oe) }, func() {
		hkey := hashKey(namespace)
		h.engineDispatch.DispatchAsync(func(ctx context.Context, client redis.UniversalClient) (interface{}, error) {
			return compareAndSetScript.Run(ctx, client, []string{hkey, key}, oldData, newData).Result()
		}, func(reply interface{}, err error) {
			if err != nil {
				cb(false, h.dispatchErr(err))
				return
			}
			cb(toInt64(reply) == 1, nil)
		})
	})
}

// SetIfNotExistsAsync writes key only if it does not already exist in
// namespace. created reports whether the write happened.
func (h *Handler) SetIfNotExistsAsync(namespace, key string, data []byte, cb func(created bool, err error)) {
	h.guard(namespace, func(oe *OperationError) { cb(false, oe) }, func() {
		hkey := hashKey(namespace)
		h.engineDispatch.DispatchAsync(func(ctx context.Context, client redis.UniversalClient) (interface{}, error) {
			return client.HSetNX(ctx, hkey, key, data).Result()
		}, func(reply interface{}, err error) {
			if err != nil {
				cb(false, h.dispatchErr(err))
				return
			}
			created, _ := reply.(bool)
			cb(created, nil)
		})
	})
}

// GetAsync returns the subset of keys that exist in namespace.
func (h *Handler) GetAsync(namespace string, keys []string, cb func(map[string][]byte, error)) {
	h.guard(namespace, func(oe *OperationError) { cb(nil, oe) }, func() {
		hkey := hashKey(namespace)
		h.engineDispatch.DispatchAsync(func(ctx context.Context, client redis.UniversalClient) (interface{}, error) {
			return client.HMGet(ctx, hkey, keys...).Result()
		}, func(reply interface{}, err error) {
			if err != nil {
				cb(nil, h.dispatchErr(err))
				return
			}
			values, _ := reply.([]interface{})
			out := make(map[string][]byte, len(values))
			for i, v := range values {
				if v == nil {
					continue
				}
				if s, ok := v.(string); ok {
					out[keys[i]] = []byte(s)
				}
			}
			cb(out, nil)
		})
	})
}

// RemoveAsync atomically deletes every key in keys from namespace. Removing
// keys that do not exist is not an error.
func (h *Handler) RemoveAsync(namespace string, keys []string, cb func(error)) {
	h.guard(namespace, func(oe *OperationError) { cb(oe) }, func() {
		hkey := hashKey(namespace)
		h.engineDispatch.DispatchAsync(func(ctx context.Context, client redis.UniversalClient) (interface{}, error) {
			return client.HDel(ctx, hkey, keys...).Result()
		}, func(_ interface{}, err error) {
			cb(h.dispatchErr(err))
		})
	})
}

// RemoveIfAsync deletes key iff its current value equals data, atomically.
// matched reports whether the delete happened.
func (h *Handler) RemoveIfAsync(namespace, key string, data []byte, cb func(matched bool, err error)) {
	h.guard(namespace, func(oe *OperationError) { cb(false, oe) }, func() {
		hkey := hashKey(namespace)
		h.engineDispatch.DispatchAsync(func(ctx context.Context, client redis.UniversalClient) (interface{}, error) {
			return compareAndDeleteScript.Run(ctx, client, []string{hkey, key}, data).Result()
		}, func(reply interface{}, err error) {
			if err != nil {
				cb(false, h.dispatchErr(err))
				return
			}
			cb(toInt64(reply) == 1, nil)
		})
	})
}

// FindKeysAsync enumerates every key in namespace whose name matches prefix.
// Deliberately non-atomic: it scans the namespace's hash with HSCAN, which
// may interleave with concurrent writers.
func (h *Handler) FindKeysAsync(namespace, prefix string, cb func([]string, error)) {
	h.guard(namespace, func(oe *OperationError) { cb(nil, oe) }, func() {
		hkey := hashKey(namespace)
		h.engineDispatch.DispatchAsync(func(ctx context.Context, client redis.UniversalClient) (interface{}, error) {
			var matched []string
			var cursor uint64
			pattern := globPrefix(prefix)
			for {
				fields, next, err := client.HScan(ctx, hkey, cursor, pattern, 0).Result()
				if err != nil {
					return nil, err
				}
				for i := 0; i < len(fields); i += 2 {
					matched = append(matched, fields[i])
				}
				cursor = next
				if cursor == 0 {
					break
				}
			}
			return matched, nil
		}, func(reply interface{}, err error) {
			if err != nil {
				cb(nil, h.dispatchErr(err))
				return
			}
			keys, _ := reply.([]string)
			cb(keys, nil)
		})
	})
}

// RemoveAllAsync atomically deletes every key in namespace.
func (h *Handler) RemoveAllAsync(namespace string, cb func(error)) {
	h.guard(namespace, func(oe *OperationError) { cb(oe) }, func() {
		hkey := hashKey(namespace)
		h.engineDispatch.DispatchAsync(func(ctx context.Context, client redis.UniversalClient) (interface{}, error) {
			return client.Del(ctx, hkey).Result()
		}, func(_ interface{}, err error) {
			cb(h.dispatchErr(err))
		})
	})
}

func (h *Handler) dispatchErr(err error) error {
	if err == nil {
		return nil
	}
	code := dispatcher.Classify(err)
	logger.Warn("backend command failed", logger.Err(err))
	return newDispatchError(code, err)
}

func globPrefix(prefix string) string {
	if prefix == "" {
		return "*"
	}
	escaped := strings.NewReplacer("*", `\*`, "?", `\?`, "[", `\[`).Replace(prefix)
	return escaped + "*"
}

func toInt64(reply interface{}) int64 {
	switch v := reply.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}
