package sdl

// AsyncStorage is the non-blocking public API surface: the single entry
// point an application integrates into its own reactor loop via Fd/
// HandleEvents, or hands to NewSyncStorage for a blocking facade.
//
// Every operation is non-suspending: it validates its namespace argument,
// may route to a no-op sink, and always completes exactly once via its
// callback from within a future HandleEvents call — never synchronously
// from within the call that issued it.
type AsyncStorage interface {
	// Fd returns the reactor file descriptor a caller can poll for
	// readiness (POLLIN) to know when HandleEvents has work to do.
	Fd() int

	// HandleEvents runs every ready reactor callback and timer, including
	// any completions of operations issued below.
	HandleEvents() error

	// WaitReady completes once discovery has produced a usable endpoint
	// set for ns. Every other operation below still fails fast with
	// NotConnected until this has happened at least once.
	WaitReady(ns Namespace, cb func(error))

	// Set atomically writes every entry of data into ns.
	Set(ns Namespace, data DataMap, cb func(error))

	// SetIf replaces key's current value with newData iff it currently
	// equals oldData. matched reports whether the swap happened.
	SetIf(ns Namespace, key Key, oldData, newData Data, cb func(matched bool, err error))

	// SetIfNotExists writes key only if it does not already exist in ns.
	// created reports whether the write happened.
	SetIfNotExists(ns Namespace, key Key, data Data, cb func(created bool, err error))

	// Get returns the subset of keys that exist in ns.
	Get(ns Namespace, keys Keys, cb func(DataMap, error))

	// Remove atomically deletes every key in keys from ns. Removing a key
	// that does not exist is not an error.
	Remove(ns Namespace, keys Keys, cb func(error))

	// RemoveIf deletes key iff its current value equals data. matched
	// reports whether the delete happened.
	RemoveIf(ns Namespace, key Key, data Data, cb func(matched bool, err error))

	// FindKeys enumerates every key in ns whose name matches prefix.
	// Deliberately non-atomic: results may reflect concurrent writes.
	FindKeys(ns Namespace, prefix string, cb func(Keys, error))

	// RemoveAll atomically deletes every key in ns.
	RemoveAll(ns Namespace, cb func(error))
}

// router is the subset of internal/routing.Storage that async.go depends
// on, named here so this package never imports internal/routing's
// RealHandler type directly into its public surface.
type router interface {
	Fd() int
	HandleEvents() error
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

// asyncStorage adapts an internal/routing.Storage into the public
// AsyncStorage surface, translating internal operation errors into the
// public Error/Kind taxonomy at the boundary.
type asyncStorage struct {
	r router
}

// newAsync wraps r as a public AsyncStorage.
func newAsync(r router) AsyncStorage {
	return &asyncStorage{r: r}
}

func (a *asyncStorage) Fd() int             { return a.r.Fd() }
func (a *asyncStorage) HandleEvents() error { return a.r.HandleEvents() }

func (a *asyncStorage) WaitReady(ns Namespace, cb func(error)) {
	a.r.WaitReadyAsync(ns, func(err error) { cb(mapOperationError(err)) })
}

func (a *asyncStorage) Set(ns Namespace, data DataMap, cb func(error)) {
	a.r.SetAsync(ns, data, func(err error) { cb(mapOperationError(err)) })
}

func (a *asyncStorage) SetIf(ns Namespace, key Key, oldData, newData Data, cb func(bool, error)) {
	a.r.SetIfAsync(ns, key, oldData, newData, func(matched bool, err error) {
		cb(matched, mapOperationError(err))
	})
}

func (a *asyncStorage) SetIfNotExists(ns Namespace, key Key, data Data, cb func(bool, error)) {
	a.r.SetIfNotExistsAsync(ns, key, data, func(created bool, err error) {
		cb(created, mapOperationError(err))
	})
}

func (a *asyncStorage) Get(ns Namespace, keys Keys, cb func(DataMap, error)) {
	a.r.GetAsync(ns, keys, func(m map[string][]byte, err error) {
		cb(DataMap(m), mapOperationError(err))
	})
}

func (a *asyncStorage) Remove(ns Namespace, keys Keys, cb func(error)) {
	a.r.RemoveAsync(ns, keys, func(err error) { cb(mapOperationError(err)) })
}

func (a *asyncStorage) RemoveIf(ns Namespace, key Key, data Data, cb func(bool, error)) {
	a.r.RemoveIfAsync(ns, key, data, func(matched bool, err error) {
		cb(matched, mapOperationError(err))
	})
}

func (a *asyncStorage) FindKeys(ns Namespace, prefix string, cb func(Keys, error)) {
	a.r.FindKeysAsync(ns, prefix, func(keys []string, err error) {
		cb(Keys(keys), mapOperationError(err))
	})
}

func (a *asyncStorage) RemoveAll(ns Namespace, cb func(error)) {
	a.r.RemoveAllAsync(ns, func(err error) { cb(mapOperationError(err)) })
}
