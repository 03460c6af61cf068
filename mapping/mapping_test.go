package mapping

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/padlink/padlink/internal/eeprom"
	"github.com/padlink/padlink/xid"
	"github.com/padlink/padlink/xinput"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wirelessEP = xinput.Endpoint{Addr: 1, In: 0x81, Out: 0x01, Family: xinput.Family360Wireless}

type fixture struct {
	pool *xinput.Pool
	dev  *xinput.Device
	slot xid.Slot
	ctx  *Context
	sens *Sensitivity
	now  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pool := xinput.NewPool(logger)
	dev, _ := pool.Decode(wirelessEP, []byte{0x08, 0x80}, nil)
	require.NotNil(t, dev)

	f := &fixture{
		pool: pool,
		dev:  dev,
		slot: xid.NewSlot(),
		ctx:  NewContext(),
		sens: LoadSensitivity(eeprom.NewMemStore(), logger),
		now:  time.Now(),
	}
	f.ctx.now = func() time.Time { return f.now }
	f.ctx.holdTimer = f.now
	return f
}

// chatpad feeds a chatpad state frame through the wireless decoder.
func (f *fixture) chatpad(state [3]uint8) {
	data := make([]byte, 28)
	data[1] = 0x02
	copy(data[25:28], state[:])
	f.pool.Decode(wirelessEP, data, nil)
}

func TestDukeMapping(t *testing.T) {
	f := newFixture(t)
	f.dev.Pad = xinput.PadState{
		Buttons: xinput.ButtonStart | xinput.ButtonDPadLeft | xinput.ButtonA | xinput.ButtonLShoulder,
		LT:      0x40,
		RT:      0x80,
		LX:      1000, LY: -1000,
		RX: 2000, RY: -2000,
	}
	f.slot.DukeOut.RumbleLow = 0xCD00
	f.slot.DukeOut.RumbleHigh = 0x7700

	Duke(f.dev, &f.slot, f.ctx)

	in := f.slot.DukeIn
	assert.Equal(t, uint16(xid.DukeStart|xid.DukeDLeft), in.Buttons)
	assert.Equal(t, uint8(0xFF), in.A)
	assert.Equal(t, uint8(0), in.B)
	assert.Equal(t, uint8(0xFF), in.White)
	assert.Equal(t, uint8(0), in.Black)
	assert.Equal(t, uint8(0x40), in.L)
	assert.Equal(t, uint8(0x80), in.R)
	assert.Equal(t, int16(1000), in.LX)
	assert.Equal(t, int16(-2000), in.RY)

	// Duke rumble couples back to the upstream motors
	assert.Equal(t, uint8(0xCD), f.dev.RumbleLeftReq)
	assert.Equal(t, uint8(0x77), f.dev.RumbleRightReq)
	assert.Equal(t, uint8(xinput.ChatpadGreen), f.dev.ChatpadLEDReq)
}

func TestDukeStickInvertToggle(t *testing.T) {
	f := newFixture(t)
	f.dev.Pad.RY = 1000

	// Right stick held plus a d-pad up edge flips the Y axis
	f.dev.Pad.Buttons = xinput.ButtonRThumb | xinput.ButtonDPadUp
	Duke(f.dev, &f.slot, f.ctx)
	Duke(f.dev, &f.slot, f.ctx)
	assert.Equal(t, int16(-1001), f.slot.DukeIn.RY, "held d-pad toggles only once")

	// Release and press again to toggle back; the flip shows on the frame
	// after the edge
	f.dev.Pad.Buttons = xinput.ButtonRThumb
	Duke(f.dev, &f.slot, f.ctx)
	f.dev.Pad.Buttons = xinput.ButtonRThumb | xinput.ButtonDPadUp
	Duke(f.dev, &f.slot, f.ctx)
	Duke(f.dev, &f.slot, f.ctx)
	assert.Equal(t, int16(1000), f.slot.DukeIn.RY)
}

func TestBattalionPadButtons(t *testing.T) {
	f := newFixture(t)
	f.slot.Type = xid.TypeBattalion
	f.dev.Pad.Buttons = xinput.ButtonStart | xinput.ButtonA | xinput.ButtonGuide |
		xinput.ButtonLThumb | xinput.ButtonY

	Battalion(f.dev, &f.slot, f.ctx, f.sens)

	in := f.slot.BattalionIn
	assert.Equal(t, uint16(xid.SBC0Start|xid.SBC0RightJoyMainWeapon|xid.SBC0Eject), in.Buttons[0])
	assert.Equal(t, uint16(xid.SBC1Chaff), in.Buttons[1])
	assert.Equal(t, uint16(xid.SBC2LeftJoySightChange), in.Buttons[2])

	// Momentary word-2 bits clear once released, toggles would survive
	f.dev.Pad.Buttons = 0
	Battalion(f.dev, &f.slot, f.ctx, f.sens)
	assert.Zero(t, f.slot.BattalionIn.Buttons[2]&^uint16(xid.ToggleMask))
}

func TestBattalionToggleSwitches(t *testing.T) {
	f := newFixture(t)
	f.slot.Type = xid.TypeBattalion

	f.chatpad([3]uint8{0, xinput.ChatpadQ, 0})
	Battalion(f.dev, &f.slot, f.ctx, f.sens)
	assert.Equal(t, uint16(xid.SBC2ToggleOxygenSupply), f.slot.BattalionIn.Buttons[2])

	// Held key does not flip again
	Battalion(f.dev, &f.slot, f.ctx, f.sens)
	assert.Equal(t, uint16(xid.SBC2ToggleOxygenSupply), f.slot.BattalionIn.Buttons[2])

	// Release and press flips it back off
	f.chatpad([3]uint8{0, 0, 0})
	Battalion(f.dev, &f.slot, f.ctx, f.sens)
	f.chatpad([3]uint8{0, xinput.ChatpadQ, 0})
	Battalion(f.dev, &f.slot, f.ctx, f.sens)
	assert.Zero(t, f.slot.BattalionIn.Buttons[2])
}

func TestBattalionShiftFlipsBank(t *testing.T) {
	f := newFixture(t)
	f.slot.Type = xid.TypeBattalion

	f.chatpad([3]uint8{xinput.ChatpadShift, 0, 0})
	Battalion(f.dev, &f.slot, f.ctx, f.sens)
	assert.Equal(t, uint16(xid.ToggleMask), f.slot.BattalionIn.Buttons[2])
}

func TestBattalionOverloadedX(t *testing.T) {

	type testCase struct {
		name     string
		out      xid.BattalionOut
		expected uint16
	}

	testCases := []testCase{
		{
			name:     "no lamp lit",
			expected: 0,
		},
		{
			name:     "extinguisher lamp",
			out:      xid.BattalionOut{ChaffExtinguisher: 0x02},
			expected: xid.SBC1Extinguisher,
		},
		{
			name:     "magazine lamp",
			out:      xid.BattalionOut{Comm1MagazineChange: 0x0F},
			expected: xid.SBC1WeaponConMagazine,
		},
		{
			name:     "washing lamp",
			out:      xid.BattalionOut{WashingLineColorChange: 0x30},
			expected: xid.SBC1Washing,
		},
		{
			name: "first lit lamp wins",
			out: xid.BattalionOut{
				ChaffExtinguisher:      0x01,
				WashingLineColorChange: 0xF0,
			},
			expected: xid.SBC1Extinguisher,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.slot.Type = xid.TypeBattalion
			f.slot.BattalionOut = tc.out
			f.dev.Pad.Buttons = xinput.ButtonX

			Battalion(f.dev, &f.slot, f.ctx, f.sens)
			assert.Equal(t, tc.expected, f.slot.BattalionIn.Buttons[1])
		})
	}
}

func TestBattalionTunerDial(t *testing.T) {
	f := newFixture(t)
	f.slot.Type = xid.TypeBattalion

	// Messenger (Back held) routes the d-pad to the tuner dial
	f.dev.Pad.Buttons = xinput.ButtonBack | xinput.ButtonDPadUp
	Battalion(f.dev, &f.slot, f.ctx, f.sens)
	assert.Equal(t, int8(1), f.slot.BattalionIn.TunerDial)
	assert.Equal(t, int8(xid.GearN), f.slot.BattalionIn.GearLever, "gears untouched in messenger mode")

	// Clamped at the top
	for i := 0; i < 30; i++ {
		f.dev.Pad.Buttons = xinput.ButtonBack
		Battalion(f.dev, &f.slot, f.ctx, f.sens)
		f.dev.Pad.Buttons = xinput.ButtonBack | xinput.ButtonDPadRight
		Battalion(f.dev, &f.slot, f.ctx, f.sens)
	}
	assert.Equal(t, int8(xid.TunerDialMax), f.slot.BattalionIn.TunerDial)

	// Comm keys only exist in messenger mode
	f.chatpad([3]uint8{0, xinput.Chatpad1, 0})
	f.dev.Pad.Buttons = xinput.ButtonBack
	Battalion(f.dev, &f.slot, f.ctx, f.sens)
	assert.Equal(t, uint16(xid.SBC1Comm1), f.slot.BattalionIn.Buttons[1])
}

func TestBattalionGearLever(t *testing.T) {
	f := newFixture(t)
	f.slot.Type = xid.TypeBattalion

	f.dev.Pad.Buttons = xinput.ButtonDPadUp
	Battalion(f.dev, &f.slot, f.ctx, f.sens)
	assert.Equal(t, int8(xid.Gear1), f.slot.BattalionIn.GearLever)

	// Shifts are suppressed while rotating
	f.dev.Pad.Buttons = 0
	Battalion(f.dev, &f.slot, f.ctx, f.sens)
	f.dev.Pad.Buttons = xinput.ButtonDPadUp | xinput.ButtonDPadLeft
	Battalion(f.dev, &f.slot, f.ctx, f.sens)
	assert.Equal(t, int8(xid.Gear1), f.slot.BattalionIn.GearLever)
	assert.Equal(t, int16(-32768), f.slot.BattalionIn.RotationLever)

	// Clamped at reverse
	for i := 0; i < 10; i++ {
		f.dev.Pad.Buttons = 0
		Battalion(f.dev, &f.slot, f.ctx, f.sens)
		f.dev.Pad.Buttons = xinput.ButtonDPadDown
		Battalion(f.dev, &f.slot, f.ctx, f.sens)
	}
	assert.Equal(t, int8(xid.GearR), f.slot.BattalionIn.GearLever)
}

func TestBattalionAimingPointer(t *testing.T) {
	f := newFixture(t)
	f.slot.Type = xid.TypeBattalion

	// Inside the deadzone the pointer stays put
	f.dev.Pad.RX = 5000
	Battalion(f.dev, &f.slot, f.ctx, f.sens)
	assert.Equal(t, uint16(xid.AimingMid), f.slot.BattalionIn.AimingX)

	// Outside it moves by value over sensitivity
	f.dev.Pad.RX = 32000
	Battalion(f.dev, &f.slot, f.ctx, f.sens)
	expected := uint16(xid.AimingMid + 32000/int32(DefaultSensitivity))
	assert.Equal(t, expected, f.slot.BattalionIn.AimingX)

	// Y axis is inverted
	f.dev.Pad.RX = 0
	f.dev.Pad.RY = 32000
	Battalion(f.dev, &f.slot, f.ctx, f.sens)
	assert.Equal(t, uint16(xid.AimingMid-32000/int32(DefaultSensitivity)), f.slot.BattalionIn.AimingY)
}

func TestBattalionPointerRecentre(t *testing.T) {
	f := newFixture(t)
	f.slot.Type = xid.TypeBattalion
	f.ctx.vmouseX = 100
	f.ctx.vmouseY = 60000

	f.dev.Pad.Buttons = xinput.ButtonLThumb
	Battalion(f.dev, &f.slot, f.ctx, f.sens)
	assert.Equal(t, uint16(100), f.slot.BattalionIn.AimingX, "short hold does not recentre")

	f.now = f.now.Add(recentreHold + time.Millisecond)
	Battalion(f.dev, &f.slot, f.ctx, f.sens)
	assert.Equal(t, uint16(xid.AimingMid), f.slot.BattalionIn.AimingX)
	assert.Equal(t, uint16(xid.AimingMid), f.slot.BattalionIn.AimingY)
}

func TestBattalionPedalsAndRumble(t *testing.T) {
	f := newFixture(t)
	f.slot.Type = xid.TypeBattalion
	f.dev.Pad.LT = 0x55
	f.dev.Pad.RT = 0xAA
	f.chatpad([3]uint8{0, xinput.ChatpadBack, 0})
	f.slot.BattalionOut.ChaffExtinguisher = 0x03

	Battalion(f.dev, &f.slot, f.ctx, f.sens)

	in := f.slot.BattalionIn
	assert.Equal(t, uint16(0x5500), in.LeftPedal)
	assert.Equal(t, uint16(0xAA00), in.RightPedal)
	assert.Equal(t, uint16(0xFF00), in.MiddlePedal)
	assert.Equal(t, uint8(0x33), f.dev.RumbleLeftReq)
	assert.Equal(t, uint8(0x33), f.dev.RumbleRightReq)
}

func TestBattalionIgnitionClamp(t *testing.T) {
	f := newFixture(t)
	f.slot.Type = xid.TypeBattalion

	// Ignition (chatpad comma) and hatch (chatpad P) held together
	f.chatpad([3]uint8{0, xinput.ChatpadComma, xinput.ChatpadP})
	Battalion(f.dev, &f.slot, f.ctx, f.sens)

	in := f.slot.BattalionIn
	assert.NotZero(t, in.Buttons[0]&xid.SBC0Ignition)
	assert.Zero(t, in.Buttons[0]&xid.SBC0CockpitHatch)
	assert.Zero(t, in.AimingX)
	assert.Zero(t, in.AimingY)
}

func TestSensitivityPresetSelection(t *testing.T) {
	store := eeprom.NewMemStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := newFixture(t)
	f.slot.Type = xid.TypeBattalion
	f.sens = LoadSensitivity(store, logger)

	f.chatpad([3]uint8{xinput.ChatpadOrange, xinput.Chatpad1, 0})
	Battalion(f.dev, &f.slot, f.ctx, f.sens)
	assert.Equal(t, uint16(1200), f.sens.Value())

	// Persisted: a reload sees the chosen preset
	reloaded := LoadSensitivity(store, logger)
	assert.Equal(t, uint16(1200), reloaded.Value())
}

func TestLoadSensitivityRejectsCorruptValue(t *testing.T) {
	store := eeprom.NewMemStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// Initialized store with a zeroed sensitivity word: the magic byte is
	// valid but the value is not a preset.
	require.NoError(t, store.WriteU8(magicAddr, magicValue))
	require.NoError(t, store.WriteU16(sensitivityAddr, 0))

	sens := LoadSensitivity(store, logger)
	assert.Equal(t, uint16(DefaultSensitivity), sens.Value())

	// The default is written back so the image is repaired
	v, err := store.ReadU16(sensitivityAddr)
	require.NoError(t, err)
	assert.Equal(t, uint16(DefaultSensitivity), v)

	// Pointer movement divides by the sensitivity and must not fault
	f := newFixture(t)
	f.slot.Type = xid.TypeBattalion
	f.sens = sens
	f.dev.Pad.RX = 20000
	Battalion(f.dev, &f.slot, f.ctx, f.sens)
	assert.Equal(t, uint16(xid.AimingMid+20000/int32(DefaultSensitivity)), f.slot.BattalionIn.AimingX)
}

func TestLoadSensitivityInitializesStore(t *testing.T) {
	store := eeprom.NewMemStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s := LoadSensitivity(store, logger)
	assert.Equal(t, uint16(DefaultSensitivity), s.Value())

	magic, err := store.ReadU8(magicAddr)
	require.NoError(t, err)
	assert.Equal(t, uint8(magicValue), magic)

	v, err := store.ReadU16(sensitivityAddr)
	require.NoError(t, err)
	assert.Equal(t, uint16(DefaultSensitivity), v)
}
