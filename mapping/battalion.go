package mapping

import (
	"github.com/padlink/padlink/xid"
	"github.com/padlink/padlink/xinput"
)

// Battalion maps the canonical pad state onto the Steel Battalion cockpit
// report in slot. The previous feedback report couples back into the
// mapping: cockpit lamp nibbles resolve the overloaded X button and drive
// rumble intensity.
func Battalion(dev *xinput.Device, slot *xid.Slot, ctx *Context, sens *Sensitivity) {
	pad := &dev.Pad
	in := &slot.BattalionIn
	out := &slot.BattalionOut

	in.Buttons[0] = 0
	in.Buttons[1] = 0
	// Word 2 keeps the toggle-switch bank across frames; only the momentary
	// bits (comm 5, sight change) are cleared.
	in.Buttons[2] &= xid.ToggleMask

	for _, e := range padMap {
		if pad.Buttons&e.mask != 0 {
			in.Buttons[e.word] |= e.sb
		}
	}
	for _, e := range chatpadMap {
		if dev.IsChatpadPressed(e.code) {
			in.Buttons[e.word] |= e.sb
		}
	}
	for _, e := range chatpadToggleMap {
		if dev.WasChatpadPressed(e.code) {
			in.Buttons[e.word] ^= e.sb
		}
	}

	// The X button acts on whichever lit cockpit lamp claims it first
	if pad.Buttons&xinput.ButtonX != 0 {
		for _, e := range overloadMap {
			if e.lit(out) {
				in.Buttons[1] |= e.sb
				break
			}
		}
	}

	messenger := dev.IsChatpadPressed(xinput.ChatpadMessenger) ||
		pad.Buttons&xinput.ButtonBack != 0

	if messenger {
		for _, e := range chatpadAlt1Map {
			if dev.IsChatpadPressed(e.code) {
				in.Buttons[e.word] |= e.sb
			}
		}

		// D-pad edges walk the tuner dial, 0 at the 9 o'clock position
		// going clockwise
		if dev.WasPressed(xinput.ButtonDPadUp) || dev.WasPressed(xinput.ButtonDPadRight) {
			in.TunerDial++
		}
		if dev.WasPressed(xinput.ButtonDPadDown) || dev.WasPressed(xinput.ButtonDPadLeft) {
			in.TunerDial--
		}
		in.TunerDial = clampI8(in.TunerDial, 0, xid.TunerDialMax)
	} else if !dev.IsChatpadPressed(xinput.ChatpadOrange) {
		for _, e := range chatpadAlt2Map {
			if dev.IsChatpadPressed(e.code) {
				in.Buttons[e.word] |= e.sb
			}
		}

		// D-pad edges shift gears, suppressed while left/right are held so
		// rotating does not change gear by accident
		if pad.Buttons&(xinput.ButtonDPadLeft|xinput.ButtonDPadRight) == 0 {
			if dev.WasPressed(xinput.ButtonDPadUp) {
				in.GearLever++
			}
			if dev.WasPressed(xinput.ButtonDPadDown) {
				in.GearLever--
			}
			in.GearLever = clampI8(in.GearLever, xid.GearR, xid.Gear5)
		}
	}

	// Shift flips the whole switch bank
	if dev.WasChatpadPressed(xinput.ChatpadShift) {
		in.Buttons[2] ^= xid.ToggleMask
	}

	in.LeftPedal = uint16(pad.LT) << 8
	in.RightPedal = uint16(pad.RT) << 8
	if dev.IsChatpadPressed(xinput.ChatpadBack) {
		in.MiddlePedal = 0xFF00
	} else {
		in.MiddlePedal = 0
	}

	switch {
	case messenger:
		in.RotationLever = 0
	case pad.Buttons&xinput.ButtonDPadLeft != 0:
		in.RotationLever = -32768
	case pad.Buttons&xinput.ButtonDPadRight != 0:
		in.RotationLever = 32767
	default:
		in.RotationLever = 0
	}

	in.SightChangeX = pad.LX
	in.SightChangeY = -pad.LY - 1

	// The right stick moves the aiming point like a mouse cursor
	if abs32(int32(pad.RX)) > pointerDeadzone {
		ctx.vmouseX += int32(pad.RX) / int32(sens.Value())
	}
	if abs32(int32(pad.RY)) > pointerDeadzone {
		ctx.vmouseY -= int32(pad.RY) / int32(sens.Value())
	}
	ctx.vmouseX = clampI32(ctx.vmouseX, 0, 0xFFFF)
	ctx.vmouseY = clampI32(ctx.vmouseY, 0, 0xFFFF)

	// Holding the left stick in recentres the aiming point
	if pad.Buttons&xinput.ButtonLThumb != 0 {
		if ctx.now().Sub(ctx.holdTimer) > recentreHold {
			ctx.vmouseX = xid.AimingMid
			ctx.vmouseY = xid.AimingMid
		}
	} else {
		ctx.holdTimer = ctx.now()
	}

	in.AimingX = uint16(ctx.vmouseX)
	in.AimingY = uint16(ctx.vmouseY)

	// Rumble follows the lamps of the critical buttons
	rumble := out.ChaffExtinguisher |
		out.ChaffExtinguisher<<4 |
		out.Comm1MagazineChange<<4 |
		out.CockpitHatchEmergencyEject<<4
	dev.RumbleLeftReq = rumble
	dev.RumbleRightReq = rumble

	// Orange plus a digit key selects a pointer sensitivity preset
	if dev.IsChatpadPressed(xinput.ChatpadOrange) {
		for i, code := range digitKeys {
			if dev.WasChatpadPressed(code) {
				sens.set(sensitivityPresets[i])
				break
			}
		}
	}

	// Ignition together with the hatch bit or non-zero aiming trips an
	// in-game reset on some BIOSes
	if in.Buttons[0]&xid.SBC0Ignition != 0 {
		in.AimingX = 0
		in.AimingY = 0
		in.Buttons[0] &^= xid.SBC0CockpitHatch
	}
}

func clampI8(v, lo, hi int8) int8 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampI32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
