package mapping

import (
	"github.com/padlink/padlink/xid"
	"github.com/padlink/padlink/xinput"
)

// Duke maps the canonical pad state onto the Duke report in slot, and feeds
// the Duke rumble feedback back into the device's requested motor values.
func Duke(dev *xinput.Device, slot *xid.Slot, ctx *Context) {
	pad := &dev.Pad
	in := &slot.DukeIn

	in.Buttons = 0
	in.A, in.B, in.X, in.Y = 0, 0, 0, 0
	in.Black, in.White = 0, 0
	in.L, in.R = 0, 0

	if pad.Buttons&xinput.ButtonDPadUp != 0 {
		in.Buttons |= xid.DukeDUp
	}
	if pad.Buttons&xinput.ButtonDPadDown != 0 {
		in.Buttons |= xid.DukeDDown
	}
	if pad.Buttons&xinput.ButtonDPadLeft != 0 {
		in.Buttons |= xid.DukeDLeft
	}
	if pad.Buttons&xinput.ButtonDPadRight != 0 {
		in.Buttons |= xid.DukeDRight
	}
	if pad.Buttons&xinput.ButtonStart != 0 {
		in.Buttons |= xid.DukeStart
	}
	if pad.Buttons&xinput.ButtonBack != 0 {
		in.Buttons |= xid.DukeBack
	}
	if pad.Buttons&xinput.ButtonLThumb != 0 {
		in.Buttons |= xid.DukeLS
	}
	if pad.Buttons&xinput.ButtonRThumb != 0 {
		in.Buttons |= xid.DukeRS
	}

	// Digital sources drive the analog buttons at full scale
	if pad.Buttons&xinput.ButtonLShoulder != 0 {
		in.White = 0xFF
	}
	if pad.Buttons&xinput.ButtonRShoulder != 0 {
		in.Black = 0xFF
	}
	if pad.Buttons&xinput.ButtonA != 0 {
		in.A = 0xFF
	}
	if pad.Buttons&xinput.ButtonB != 0 {
		in.B = 0xFF
	}
	if pad.Buttons&xinput.ButtonX != 0 {
		in.X = 0xFF
	}
	if pad.Buttons&xinput.ButtonY != 0 {
		in.Y = 0xFF
	}

	in.LX, in.LY = pad.LX, pad.LY
	in.RX, in.RY = pad.RX, pad.RY
	in.L, in.R = pad.LT, pad.RT

	dev.ChatpadLEDReq = xinput.ChatpadGreen
	dev.RumbleLeftReq = uint8(slot.DukeOut.RumbleLow >> 8)
	dev.RumbleRightReq = uint8(slot.DukeOut.RumbleHigh >> 8)

	if ctx.modifiers&modRYInvert != 0 {
		in.RY = -pad.RY - 1
	}
	if ctx.modifiers&modRXInvert != 0 {
		in.RX = -pad.RX - 1
	}

	// Holding the right stick and tapping the D-pad toggles stick inversion
	if pad.Buttons&xinput.ButtonRThumb != 0 {
		if dev.WasPressed(xinput.ButtonDPadUp) || dev.WasPressed(xinput.ButtonDPadDown) {
			ctx.modifiers ^= modRYInvert
		}
		if dev.WasPressed(xinput.ButtonDPadLeft) || dev.WasPressed(xinput.ButtonDPadRight) {
			ctx.modifiers ^= modRXInvert
		}
	}
}
