package reactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimer_ArmNilCallbackPanics(t *testing.T) {
	e := newTestEngine(t)
	timer := NewTimer(e)

	assert.Panics(t, func() {
		timer.Arm(0, nil)
	})
}

func TestTimer_DisarmWithoutArmIsNoop(t *testing.T) {
	e := newTestEngine(t)
	timer := NewTimer(e)

	assert.NotPanics(t, func() {
		timer.Disarm()
	})
	assert.False(t, timer.IsArmed())
}
