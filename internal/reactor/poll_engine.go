package reactor

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	logger "github.com/ricplt/sdlgo/internal/telemetry/log"
)

type fdRegistration struct {
	events int
	cb     FDCallback
}

type timerEntry struct {
	deadline time.Time
	cb       Callback
}

// PollEngine is the default Engine implementation, built on
// golang.org/x/sys/unix.Poll. Monitored fds and timers are only ever
// touched from the goroutine driving HandleEvents; PostCallback is the one
// method safe to call from elsewhere, and it works by writing a byte down a
// self-pipe so a concurrent Poll wakes up and drains the deferred queue.
type PollEngine struct {
	selfPipeRead  int
	selfPipeWrite int

	monitored map[int]fdRegistration
	timers    map[*Timer]timerEntry

	mu       sync.Mutex
	deferred []Callback
}

// NewPollEngine constructs a PollEngine and its self-pipe. The returned
// engine must be closed with Close when no longer needed.
func NewPollEngine() (*PollEngine, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, fmt.Errorf("reactor: creating self-pipe: %w", err)
	}
	return &PollEngine{
		selfPipeRead:  fds[0],
		selfPipeWrite: fds[1],
		monitored:     make(map[int]fdRegistration),
		timers:        make(map[*Timer]timerEntry),
	}, nil
}

// Fd implements Engine.
func (e *PollEngine) Fd() int {
	return e.selfPipeRead
}

// AddMonitoredFD implements Engine.
func (e *PollEngine) AddMonitoredFD(fd int, events int, cb FDCallback) error {
	if cb == nil {
		return fmt.Errorf("reactor: AddMonitoredFD(%d): nil callback", fd)
	}
	e.monitored[fd] = fdRegistration{events: events, cb: cb}
	return nil
}

// DeleteMonitoredFD implements Engine.
func (e *PollEngine) DeleteMonitoredFD(fd int) error {
	delete(e.monitored, fd)
	return nil
}

// ArmTimer implements Engine.
func (e *PollEngine) ArmTimer(owner *Timer, duration time.Duration, cb Callback) {
	e.timers[owner] = timerEntry{deadline: time.Now().Add(duration), cb: cb}
}

// DisarmTimer implements Engine.
func (e *PollEngine) DisarmTimer(owner *Timer) {
	delete(e.timers, owner)
}

// PostCallback implements Engine. Safe to call concurrently with
// HandleEvents from another goroutine.
func (e *PollEngine) PostCallback(cb Callback) {
	e.mu.Lock()
	e.deferred = append(e.deferred, cb)
	e.mu.Unlock()
	e.wake()
}

func (e *PollEngine) wake() {
	var b [1]byte
	_, err := unix.Write(e.selfPipeWrite, b[:])
	if err != nil && err != unix.EAGAIN {
		logger.Warn("reactor: self-pipe write failed", logger.Err(err))
	}
}

func (e *PollEngine) drainSelfPipe() {
	var buf [64]byte
	for {
		n, err := unix.Read(e.selfPipeRead, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

func (e *PollEngine) takeDeferred() []Callback {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.deferred) == 0 {
		return nil
	}
	cbs := e.deferred
	e.deferred = nil
	return cbs
}

func (e *PollEngine) runDeferred() {
	for _, cb := range e.takeDeferred() {
		cb()
	}
}

// nextTimeoutMillis returns the poll timeout in milliseconds until the
// earliest armed timer, -1 (block indefinitely) if none are armed.
func (e *PollEngine) nextTimeoutMillis() int {
	if len(e.timers) == 0 {
		return -1
	}
	now := time.Now()
	earliest := time.Time{}
	for _, t := range e.timers {
		if earliest.IsZero() || t.deadline.Before(earliest) {
			earliest = t.deadline
		}
	}
	remaining := earliest.Sub(now)
	if remaining <= 0 {
		return 0
	}
	// Round up so Poll never wakes before the deadline has passed.
	return int((remaining + time.Millisecond - 1) / time.Millisecond)
}

func (e *PollEngine) expireTimers() {
	now := time.Now()
	var fired []Callback
	for owner, entry := range e.timers {
		if !entry.deadline.After(now) {
			fired = append(fired, entry.cb)
			delete(e.timers, owner)
		}
	}
	for _, cb := range fired {
		cb()
	}
}

// HandleEvents implements Engine: it blocks until the self-pipe, a
// monitored fd, or the earliest timer is ready, then runs every callback
// that became runnable, including any deferred callbacks queued as a side
// effect of running them.
func (e *PollEngine) HandleEvents() error {
	e.runDeferred()

	pollFds := make([]unix.PollFd, 0, len(e.monitored)+1)
	pollFds = append(pollFds, unix.PollFd{Fd: int32(e.selfPipeRead), Events: unix.POLLIN})

	order := make([]int, 0, len(e.monitored))
	for fd, reg := range e.monitored {
		order = append(order, fd)
		pollFds = append(pollFds, unix.PollFd{Fd: int32(fd), Events: toPollEvents(reg.events)})
	}

	timeout := e.nextTimeoutMillis()
	_, err := pollRetryEINTR(pollFds, timeout)
	if err != nil {
		return fmt.Errorf("reactor: poll: %w", err)
	}

	if pollFds[0].Revents != 0 {
		e.drainSelfPipe()
	}
	for i, fd := range order {
		revents := pollFds[i+1].Revents
		if revents == 0 {
			continue
		}
		if reg, ok := e.monitored[fd]; ok {
			reg.cb(fromPollEvents(revents))
		}
	}

	e.expireTimers()
	e.runDeferred()
	return nil
}

func pollRetryEINTR(fds []unix.PollFd, timeout int) (int, error) {
	for {
		n, err := unix.Poll(fds, timeout)
		if err == unix.EINTR {
			continue
		}
		return n, err
	}
}

func toPollEvents(events int) int16 {
	var r int16
	if events&EventRead != 0 {
		r |= unix.POLLIN
	}
	if events&EventWrite != 0 {
		r |= unix.POLLOUT
	}
	return r
}

func fromPollEvents(revents int16) int {
	var r int
	if revents&unix.POLLIN != 0 {
		r |= EventRead
	}
	if revents&unix.POLLOUT != 0 {
		r |= EventWrite
	}
	return r
}

// Close releases the self-pipe. The engine must not be used afterward.
func (e *PollEngine) Close() error {
	_ = unix.Close(e.selfPipeWrite)
	return unix.Close(e.selfPipeRead)
}
