// Package sdl is the public entry point of the Shared Data Layer client: a
// uniform (namespace, key) key/value interface over a pluggable Redis-like
// backend, exposed both as a non-blocking async facade and as a blocking
// facade built atop it without spawning threads.
package sdl

// Namespace identifies a configuration and routing unit: every key belongs to
// exactly one namespace, and a namespace's policy decides whether it is
// backed by the real database or discarded by a no-op sink.
type Namespace = string

// Key is an opaque key within a Namespace.
type Key = string

// Data is an immutable byte sequence stored under a Key.
type Data = []byte

// DataMap maps Key to Data, used by multi-key reads and writes.
type DataMap map[Key]Data

// Keys is a set of Key, used by multi-key reads, removes and findKeys
// results.
type Keys = []Key
