// Package mapping transforms the canonical pad state of an upstream gamepad
// into console-native Duke or Steel Battalion reports. The transforms are
// pure up to the per-slot Context, which carries modifier toggles and the
// virtual pointer driving the Battalion aiming axes.
package mapping

import (
	"time"

	"github.com/padlink/padlink/xid"
)

// Stick-invert modifier flags.
const (
	modRXInvert = 1 << 0
	modRYInvert = 1 << 1
)

// Deadzone and recentre hold for the virtual aiming pointer.
const (
	pointerDeadzone = 7500
	recentreHold    = 500 * time.Millisecond
)

// Context is per-slot mapping state that survives between frames.
type Context struct {
	modifiers uint8
	vmouseX   int32
	vmouseY   int32
	holdTimer time.Time

	now func() time.Time
}

// NewContext returns a Context with the aiming pointer centred.
func NewContext() *Context {
	c := &Context{
		vmouseX: xid.AimingMid,
		vmouseY: xid.AimingMid,
		now:     time.Now,
	}
	c.holdTimer = c.now()
	return c
}
