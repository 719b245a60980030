// Package dispatcher bridges go-redis's blocking client calls into the
// single-threaded reactor model: every DispatchAsync call is queued to a
// single worker goroutine (WaitConnectedAsync's PING runs on a goroutine of
// its own) and its result is handed back to the caller's callback via
// Engine.PostCallback, so no callback ever fires from outside a
// handleEvents() invocation.
//
// This is the Go analogue of the original library's command dispatcher
// collaborator: the spec treats the dispatcher as an opaque, externally
// supplied component, and go-redis's redis.UniversalClient fills that role
// here. Dispatcher only owns the bridging discipline, not the wire protocol.
package dispatcher

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/ricplt/sdlgo/internal/reactor"
)

// dispatchQueueCapacity bounds how many dispatched ops may be pending behind
// the worker goroutine before DispatchAsync's channel send blocks the
// submitting (reactor) goroutine. Generous enough that a burst of ops issued
// within one HandleEvents tick never blocks the reactor in practice.
const dispatchQueueCapacity = 256

// job is a single dispatched call waiting on the worker's FIFO queue.
type job struct {
	fn func(ctx context.Context, client redis.UniversalClient) (interface{}, error)
	cb func(interface{}, error)
}

// Dispatcher issues redis.UniversalClient calls off the reactor goroutine and
// resumes the caller on the reactor via PostCallback. Calls are drained by a
// single worker goroutine in submission order, so callbacks for operations
// issued on one Dispatcher are delivered in that same order (spec §4.2,
// §8.2) even though go-redis's own connection pool would otherwise let two
// concurrent calls race to completion in either order. This mirrors the
// original library queuing commands on a single dispatcher/connection rather
// than fanning them out.
type Dispatcher struct {
	engine reactor.Engine
	client redis.UniversalClient
	jobs   chan job
}

// New returns a Dispatcher that drives client through engine, and starts its
// worker goroutine.
func New(engine reactor.Engine, client redis.UniversalClient) *Dispatcher {
	d := &Dispatcher{engine: engine, client: client, jobs: make(chan job, dispatchQueueCapacity)}
	go d.run()
	return d
}

// run drains d.jobs in FIFO order on a single goroutine, so two calls
// dispatched back-to-back always complete in submission order.
func (d *Dispatcher) run() {
	for j := range d.jobs {
		reply, err := j.fn(context.Background(), d.client)
		cb := j.cb
		d.engine.PostCallback(func() { cb(reply, err) })
	}
}

// Client returns the underlying redis.UniversalClient, for callers that need
// to build a command (pipeline, Eval script, Scan cursor) beyond what Do's
// single-call shape expresses.
func (d *Dispatcher) Client() redis.UniversalClient {
	return d.client
}

// Post defers fn to the next reactor tick without spawning a goroutine, for
// callers that need to complete a callback on the reactor without actually
// issuing a command (e.g. a validation failure caught before dispatch).
func (d *Dispatcher) Post(fn func()) {
	d.engine.PostCallback(fn)
}

// WaitConnectedAsync fires cb once the transport answers a PING, bridged back
// onto the reactor. A connection failure is reported as a non-nil error, not
// a panic or fatal abort: callers decide how to treat "not yet connected".
func (d *Dispatcher) WaitConnectedAsync(cb func(error)) {
	go func() {
		err := d.client.Ping(context.Background()).Err()
		d.engine.PostCallback(func() { cb(err) })
	}()
}

// DispatchAsync queues fn to run against the wrapped client on the worker
// goroutine and delivers its result to cb from within the reactor. Calls
// queue in the order DispatchAsync is invoked, so their callbacks are
// delivered in that same order. fn must not retain the context past its own
// return.
func (d *Dispatcher) DispatchAsync(fn func(ctx context.Context, client redis.UniversalClient) (interface{}, error), cb func(interface{}, error)) {
	d.jobs <- job{fn: fn, cb: cb}
}
