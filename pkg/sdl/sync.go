package sdl

import (
	"golang.org/x/sys/unix"
)

// SyncStorage is the blocking public API surface: every method drives the
// reactor from the calling goroutine until its operation completes, without
// spawning a thread. A single SyncStorage is not safe for concurrent use by
// multiple callers — this is documented and enforced only by contract,
// mirroring SyncStorageImpl (original_source/src/syncstorageimpl.cpp).
type SyncStorage struct {
	async AsyncStorage

	synced  bool
	lastErr error
}

// NewSyncStorage wraps async as a blocking facade.
func NewSyncStorage(async AsyncStorage) *SyncStorage {
	return &SyncStorage{async: async}
}

// waitForCallback polls the async facade's fd with an indefinite timeout,
// calling HandleEvents on every POLLIN, until the in-flight operation has
// set s.synced. An unreachable backend blocks the caller indefinitely, per
// spec.md §5 — there is no user-visible cancellation or timeout here.
func (s *SyncStorage) waitForCallback() error {
	fd := s.async.Fd()
	pollFds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	for !s.synced {
		n, _ := unix.Poll(pollFds, -1)
		if n <= 0 {
			continue
		}
		if pollFds[0].Revents&unix.POLLIN != 0 {
			if err := s.async.HandleEvents(); err != nil {
				return err
			}
		}
	}
	return nil
}

// waitReady performs the mandatory waitReady round-trip every data operation
// issues first, so the first op on a namespace blocks until discovery has
// resolved.
func (s *SyncStorage) waitReady(ns Namespace) error {
	s.synced = false
	s.lastErr = nil
	s.async.WaitReady(ns, func(err error) {
		s.synced = true
		s.lastErr = err
	})
	if err := s.waitForCallback(); err != nil {
		return err
	}
	return s.lastErr
}

// Set atomically writes every entry of data into ns.
func (s *SyncStorage) Set(ns Namespace, data DataMap) error {
	if err := s.waitReady(ns); err != nil {
		return err
	}
	s.synced = false
	s.lastErr = nil
	s.async.Set(ns, data, func(err error) {
		s.synced = true
		s.lastErr = err
	})
	if err := s.waitForCallback(); err != nil {
		return err
	}
	return s.lastErr
}

// SetIf replaces key's current value with newData iff it currently equals
// oldData, and reports whether the swap happened.
func (s *SyncStorage) SetIf(ns Namespace, key Key, oldData, newData Data) (bool, error) {
	if err := s.waitReady(ns); err != nil {
		return false, err
	}
	var matched bool
	s.synced = false
	s.lastErr = nil
	s.async.SetIf(ns, key, oldData, newData, func(m bool, err error) {
		matched, s.synced, s.lastErr = m, true, err
	})
	if err := s.waitForCallback(); err != nil {
		return false, err
	}
	return matched, s.lastErr
}

// SetIfNotExists writes key only if it does not already exist in ns, and
// reports whether the write happened.
func (s *SyncStorage) SetIfNotExists(ns Namespace, key Key, data Data) (bool, error) {
	if err := s.waitReady(ns); err != nil {
		return false, err
	}
	var created bool
	s.synced = false
	s.lastErr = nil
	s.async.SetIfNotExists(ns, key, data, func(c bool, err error) {
		created, s.synced, s.lastErr = c, true, err
	})
	if err := s.waitForCallback(); err != nil {
		return false, err
	}
	return created, s.lastErr
}

// Get returns the subset of keys that exist in ns.
func (s *SyncStorage) Get(ns Namespace, keys Keys) (DataMap, error) {
	if err := s.waitReady(ns); err != nil {
		return nil, err
	}
	var result DataMap
	s.synced = false
	s.lastErr = nil
	s.async.Get(ns, keys, func(m DataMap, err error) {
		result, s.synced, s.lastErr = m, true, err
	})
	if err := s.waitForCallback(); err != nil {
		return nil, err
	}
	return result, s.lastErr
}

// Remove atomically deletes every key in keys from ns.
func (s *SyncStorage) Remove(ns Namespace, keys Keys) error {
	if err := s.waitReady(ns); err != nil {
		return err
	}
	s.synced = false
	s.lastErr = nil
	s.async.Remove(ns, keys, func(err error) {
		s.synced = true
		s.lastErr = err
	})
	if err := s.waitForCallback(); err != nil {
		return err
	}
	return s.lastErr
}

// RemoveIf deletes key iff its current value equals data, and reports
// whether the delete happened.
func (s *SyncStorage) RemoveIf(ns Namespace, key Key, data Data) (bool, error) {
	if err := s.waitReady(ns); err != nil {
		return false, err
	}
	var matched bool
	s.synced = false
	s.lastErr = nil
	s.async.RemoveIf(ns, key, data, func(m bool, err error) {
		matched, s.synced, s.lastErr = m, true, err
	})
	if err := s.waitForCallback(); err != nil {
		return false, err
	}
	return matched, s.lastErr
}

// FindKeys enumerates every key in ns whose name matches prefix.
// Deliberately non-atomic: results may reflect concurrent writes.
func (s *SyncStorage) FindKeys(ns Namespace, prefix string) (Keys, error) {
	if err := s.waitReady(ns); err != nil {
		return nil, err
	}
	var result Keys
	s.synced = false
	s.lastErr = nil
	s.async.FindKeys(ns, prefix, func(keys Keys, err error) {
		result, s.synced, s.lastErr = keys, true, err
	})
	if err := s.waitForCallback(); err != nil {
		return nil, err
	}
	return result, s.lastErr
}

// RemoveAll atomically deletes every key in ns.
func (s *SyncStorage) RemoveAll(ns Namespace) error {
	if err := s.waitReady(ns); err != nil {
		return err
	}
	s.synced = false
	s.lastErr = nil
	s.async.RemoveAll(ns, func(err error) {
		s.synced = true
		s.lastErr = err
	})
	if err := s.waitForCallback(); err != nil {
		return err
	}
	return s.lastErr
}
