package reactor

import "time"

// Timer is a one-shot timer wrapper with idempotent disarm, ported from the
// original implementation's Timer/Engine split: Timer itself holds no
// deadline state, it only tracks whether it is currently armed and delegates
// scheduling to the Engine it was built against.
type Timer struct {
	engine Engine
	armed  bool
}

// NewTimer returns a Timer driven by engine.
func NewTimer(engine Engine) *Timer {
	return &Timer{engine: engine}
}

// Arm schedules cb to fire once after duration, replacing any previously
// armed deadline. Panics if cb is nil: a null callback is a programming
// error in the original, never a recoverable one here either.
func (t *Timer) Arm(duration time.Duration, cb Callback) {
	if cb == nil {
		panic("reactor: Timer.Arm called with a nil callback")
	}
	t.Disarm()
	t.engine.ArmTimer(t, duration, func() {
		t.armed = false
		cb()
	})
	t.armed = true
}

// Disarm cancels a pending deadline. Safe to call when not armed.
func (t *Timer) Disarm() {
	if !t.armed {
		return
	}
	t.engine.DisarmTimer(t)
	t.armed = false
}

// IsArmed reports whether a deadline is currently pending.
func (t *Timer) IsArmed() bool {
	return t.armed
}
