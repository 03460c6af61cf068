// Package xid emulates original-Xbox XID accessories: the standard Duke
// gamepad and the Steel Battalion cockpit controller. Report byte layouts and
// the descriptor set are fixed contracts with the console.
package xid

import (
	"encoding/binary"
	"io"
)

// Wire sizes of the four report shapes.
const (
	DukeInLen       = 20
	DukeOutLen      = 6
	BattalionInLen  = 26
	BattalionOutLen = 22
)

// DukeIn is the gamepad report sent to the console.
type DukeIn struct {
	Buttons uint16 // Duke* digital masks
	// Analog buttons, 0x00 or 0xFF when driven from digital sources
	A, B, X, Y   uint8
	Black, White uint8
	L, R         uint8
	LX, LY       int16
	RX, RY       int16
}

// MarshalBinary encodes DukeIn into the fixed 20-byte report.
func (d *DukeIn) MarshalBinary() ([]byte, error) {
	b := make([]byte, DukeInLen)
	b[0] = 0x00
	b[1] = DukeInLen
	binary.LittleEndian.PutUint16(b[2:4], d.Buttons)
	b[4] = d.A
	b[5] = d.B
	b[6] = d.X
	b[7] = d.Y
	b[8] = d.Black
	b[9] = d.White
	b[10] = d.L
	b[11] = d.R
	binary.LittleEndian.PutUint16(b[12:14], uint16(d.LX))
	binary.LittleEndian.PutUint16(b[14:16], uint16(d.LY))
	binary.LittleEndian.PutUint16(b[16:18], uint16(d.RX))
	binary.LittleEndian.PutUint16(b[18:20], uint16(d.RY))
	return b, nil
}

// UnmarshalBinary decodes a 20-byte Duke report.
func (d *DukeIn) UnmarshalBinary(data []byte) error {
	if len(data) < DukeInLen {
		return io.ErrUnexpectedEOF
	}
	d.Buttons = binary.LittleEndian.Uint16(data[2:4])
	d.A = data[4]
	d.B = data[5]
	d.X = data[6]
	d.Y = data[7]
	d.Black = data[8]
	d.White = data[9]
	d.L = data[10]
	d.R = data[11]
	d.LX = int16(binary.LittleEndian.Uint16(data[12:14]))
	d.LY = int16(binary.LittleEndian.Uint16(data[14:16]))
	d.RX = int16(binary.LittleEndian.Uint16(data[16:18]))
	d.RY = int16(binary.LittleEndian.Uint16(data[18:20]))
	return nil
}

// DukeOut is the console's feedback report: two rumble motor values.
type DukeOut struct {
	RumbleLow  uint16 // large / low-frequency motor
	RumbleHigh uint16 // small / high-frequency motor
}

// MarshalBinary encodes DukeOut into the fixed 6-byte report.
func (d *DukeOut) MarshalBinary() ([]byte, error) {
	b := make([]byte, DukeOutLen)
	b[0] = 0x00
	b[1] = DukeOutLen
	binary.LittleEndian.PutUint16(b[2:4], d.RumbleLow)
	binary.LittleEndian.PutUint16(b[4:6], d.RumbleHigh)
	return b, nil
}

// UnmarshalBinary decodes a 6-byte Duke feedback report.
func (d *DukeOut) UnmarshalBinary(data []byte) error {
	if len(data) < DukeOutLen {
		return io.ErrUnexpectedEOF
	}
	d.RumbleLow = binary.LittleEndian.Uint16(data[2:4])
	d.RumbleHigh = binary.LittleEndian.Uint16(data[4:6])
	return nil
}

// BattalionIn is the cockpit controller report sent to the console.
type BattalionIn struct {
	Buttons       [3]uint16 // SBC0/SBC1/SBC2 masks
	AimingX       uint16
	AimingY       uint16
	RotationLever int16
	SightChangeX  int16
	SightChangeY  int16
	LeftPedal     uint16
	MiddlePedal   uint16
	RightPedal    uint16
	TunerDial     int8 // 0-15, 9 o'clock position going clockwise
	GearLever     int8 // GearR through Gear5
}

// MarshalBinary encodes BattalionIn into the fixed 26-byte report.
func (s *BattalionIn) MarshalBinary() ([]byte, error) {
	b := make([]byte, BattalionInLen)
	b[0] = 0x00
	b[1] = BattalionInLen
	binary.LittleEndian.PutUint16(b[2:4], s.Buttons[0])
	binary.LittleEndian.PutUint16(b[4:6], s.Buttons[1])
	binary.LittleEndian.PutUint16(b[6:8], s.Buttons[2])
	binary.LittleEndian.PutUint16(b[8:10], s.AimingX)
	binary.LittleEndian.PutUint16(b[10:12], s.AimingY)
	binary.LittleEndian.PutUint16(b[12:14], uint16(s.RotationLever))
	binary.LittleEndian.PutUint16(b[14:16], uint16(s.SightChangeX))
	binary.LittleEndian.PutUint16(b[16:18], uint16(s.SightChangeY))
	binary.LittleEndian.PutUint16(b[18:20], s.LeftPedal)
	binary.LittleEndian.PutUint16(b[20:22], s.MiddlePedal)
	binary.LittleEndian.PutUint16(b[22:24], s.RightPedal)
	b[24] = uint8(s.TunerDial)
	b[25] = uint8(s.GearLever)
	return b, nil
}

// UnmarshalBinary decodes a 26-byte Battalion report.
func (s *BattalionIn) UnmarshalBinary(data []byte) error {
	if len(data) < BattalionInLen {
		return io.ErrUnexpectedEOF
	}
	s.Buttons[0] = binary.LittleEndian.Uint16(data[2:4])
	s.Buttons[1] = binary.LittleEndian.Uint16(data[4:6])
	s.Buttons[2] = binary.LittleEndian.Uint16(data[6:8])
	s.AimingX = binary.LittleEndian.Uint16(data[8:10])
	s.AimingY = binary.LittleEndian.Uint16(data[10:12])
	s.RotationLever = int16(binary.LittleEndian.Uint16(data[12:14]))
	s.SightChangeX = int16(binary.LittleEndian.Uint16(data[14:16]))
	s.SightChangeY = int16(binary.LittleEndian.Uint16(data[16:18]))
	s.LeftPedal = binary.LittleEndian.Uint16(data[18:20])
	s.MiddlePedal = binary.LittleEndian.Uint16(data[20:22])
	s.RightPedal = binary.LittleEndian.Uint16(data[22:24])
	s.TunerDial = int8(data[24])
	s.GearLever = int8(data[25])
	return nil
}

// BattalionOut is the console's feedback report: LED brightness nibble pairs
// for the cockpit button lamps and gear display.
type BattalionOut struct {
	CockpitHatchEmergencyEject uint8
	StartIgnition              uint8
	MapZoomOpenClose           uint8
	SubMonitorModeSelect       uint8
	MainMonitorZoom            uint8
	ManipulatorFSS             uint8
	WashingLineColorChange     uint8
	ChaffExtinguisher          uint8
	OverrideTankDetach         uint8
	F1NightScope               uint8
	F3F2                       uint8
	SubWeaponMainWeapon        uint8
	Comm1MagazineChange        uint8
	Comm3Comm2                 uint8
	Comm5Comm4                 uint8
	GearR                      uint8
	Gear1GearN                 uint8
	Gear3Gear2                 uint8
	Gear5Gear4                 uint8
	Dummy                      uint8
}

// MarshalBinary encodes BattalionOut into the fixed 22-byte report.
func (s *BattalionOut) MarshalBinary() ([]byte, error) {
	b := make([]byte, BattalionOutLen)
	b[0] = 0x00
	b[1] = BattalionOutLen
	copy(b[2:], []byte{
		s.CockpitHatchEmergencyEject, s.StartIgnition, s.MapZoomOpenClose,
		s.SubMonitorModeSelect, s.MainMonitorZoom, s.ManipulatorFSS,
		s.WashingLineColorChange, s.ChaffExtinguisher, s.OverrideTankDetach,
		s.F1NightScope, s.F3F2, s.SubWeaponMainWeapon, s.Comm1MagazineChange,
		s.Comm3Comm2, s.Comm5Comm4, s.GearR, s.Gear1GearN, s.Gear3Gear2,
		s.Gear5Gear4, s.Dummy,
	})
	return b, nil
}

// UnmarshalBinary decodes a 22-byte Battalion feedback report.
func (s *BattalionOut) UnmarshalBinary(data []byte) error {
	if len(data) < BattalionOutLen {
		return io.ErrUnexpectedEOF
	}
	s.CockpitHatchEmergencyEject = data[2]
	s.StartIgnition = data[3]
	s.MapZoomOpenClose = data[4]
	s.SubMonitorModeSelect = data[5]
	s.MainMonitorZoom = data[6]
	s.ManipulatorFSS = data[7]
	s.WashingLineColorChange = data[8]
	s.ChaffExtinguisher = data[9]
	s.OverrideTankDetach = data[10]
	s.F1NightScope = data[11]
	s.F3F2 = data[12]
	s.SubWeaponMainWeapon = data[13]
	s.Comm1MagazineChange = data[14]
	s.Comm3Comm2 = data[15]
	s.Comm5Comm4 = data[16]
	s.GearR = data[17]
	s.Gear1GearN = data[18]
	s.Gear3Gear2 = data[19]
	s.Gear5Gear4 = data[20]
	s.Dummy = data[21]
	return nil
}
