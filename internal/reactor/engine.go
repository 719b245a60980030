// Package reactor implements the single-threaded cooperative scheduler the
// rest of the library is built on: a reactor owns one pollable file
// descriptor, a set of monitored fds, one-shot timers and a deferred
// callback queue, and runs every callback from inside HandleEvents. Nothing
// in this package spawns a goroutine of its own; the callers that do (the
// dispatcher and sentinel discovery) hand results back through PostCallback.
package reactor

import "time"

// Callback is invoked by the reactor from within HandleEvents. It never
// runs concurrently with another callback on the same Engine.
type Callback func()

// FDCallback is invoked when a monitored file descriptor becomes ready.
// events carries the readiness bitmask the engine observed (a subset of the
// events AddMonitoredFD was asked to watch for).
type FDCallback func(events int)

// Event bits accepted by AddMonitoredFD, matching POLLIN/POLLOUT.
const (
	EventRead  = 0x1
	EventWrite = 0x4
)

// Engine is the reactor contract every other component is built against.
// PollEngine is the production implementation; tests may substitute a fake
// that runs callbacks synchronously.
type Engine interface {
	// Fd returns the engine's own pollable descriptor, for embedding this
	// engine's readiness into an outer poll loop (the sync facade's use
	// case).
	Fd() int

	// HandleEvents drains every ready fd callback, expired timer and
	// queued deferred callback. It returns once nothing more is ready.
	HandleEvents() error

	// AddMonitoredFD registers fd for readiness notification on the given
	// event mask; cb fires from HandleEvents when fd becomes ready.
	AddMonitoredFD(fd int, events int, cb FDCallback) error

	// DeleteMonitoredFD stops monitoring fd. Deleting an fd that was never
	// added is a no-op.
	DeleteMonitoredFD(fd int) error

	// ArmTimer schedules cb to fire once, duration from now, in a future
	// HandleEvents call. Rearming owner replaces its previous deadline.
	ArmTimer(owner *Timer, duration time.Duration, cb Callback)

	// DisarmTimer cancels owner's pending timer, if any.
	DisarmTimer(owner *Timer)

	// PostCallback queues cb for invocation on the next HandleEvents call.
	// It is the only method on this interface safe to call from a
	// goroutine other than the one driving HandleEvents.
	PostCallback(cb Callback)

	// Close releases the engine's own fd (the self-pipe). Once closed the
	// engine must not be used again.
	Close() error
}
