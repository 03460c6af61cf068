// Package xinput decodes the wire protocols of the supported upstream
// controller families into one canonical pad state and drives the per-device
// feedback state machine (rumble, LEDs, chatpad housekeeping).
package xinput

// PadState is the canonical controller state, normalized from whichever wire
// format the upstream device speaks. Values follow XInput's C API.
type PadState struct {
	// Button bitfield, see the Button* masks.
	Buttons uint16
	// Triggers: 0-255
	LT, RT uint8
	// Sticks: signed 16-bit values
	LX, LY int16
	RX, RY int16
}

// Family identifies one of the upstream wire-protocol variants this package
// understands. Decode dispatches on it exactly once per packet.
type Family uint8

const (
	FamilyUnknown Family = iota
	FamilyXboxOne
	Family360Wireless
	Family360Wired
	FamilyXboxOG
	FamilyKeyboard
	FamilyMouse
	Family8BitDoIdle
)

func (f Family) String() string {
	switch f {
	case FamilyXboxOne:
		return "xboxone"
	case Family360Wireless:
		return "360wireless"
	case Family360Wired:
		return "360wired"
	case FamilyXboxOG:
		return "xboxog"
	case FamilyKeyboard:
		return "keyboard"
	case FamilyMouse:
		return "mouse"
	case Family8BitDoIdle:
		return "8bitdo-idle"
	default:
		return "unknown"
	}
}
