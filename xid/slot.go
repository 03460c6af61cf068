package xid

import "fmt"

// Type is the target family a player slot presents to the console. The
// numeric values are wire contract: they travel in the low nibble of the bus
// status byte.
type Type uint8

const (
	TypeDisconnected Type = 0
	TypeDuke         Type = 1
	TypeBattalion    Type = 2
)

func (t Type) String() string {
	switch t {
	case TypeDuke:
		return "duke"
	case TypeBattalion:
		return "battalion"
	default:
		return "disconnected"
	}
}

// InLen returns the wire size of the inbound-to-console report for t, 0 when
// disconnected.
func (t Type) InLen() int {
	switch t {
	case TypeDuke:
		return DukeInLen
	case TypeBattalion:
		return BattalionInLen
	default:
		return 0
	}
}

// OutLen returns the wire size of the console feedback report for t.
func (t Type) OutLen() int {
	switch t {
	case TypeDuke:
		return DukeOutLen
	case TypeBattalion:
		return BattalionOutLen
	default:
		return 0
	}
}

// Slot holds one emulated player's state: the current target family and both
// report pairs, kept simultaneously so a family switch needs no reallocation.
type Slot struct {
	Type         Type
	DukeIn       DukeIn
	DukeOut      DukeOut
	BattalionIn  BattalionIn
	BattalionOut BattalionOut
}

// NewSlot returns a slot with the gear lever in neutral and the aiming axes
// centred, matching the console's expectation at power-on.
func NewSlot() Slot {
	return Slot{
		Type: TypeDuke,
		BattalionIn: BattalionIn{
			GearLever: GearN,
			AimingX:   AimingMid,
			AimingY:   AimingMid,
		},
	}
}

// InReport marshals the active inbound report, or nil when disconnected.
func (s *Slot) InReport() []byte {
	switch s.Type {
	case TypeDuke:
		b, _ := s.DukeIn.MarshalBinary()
		return b
	case TypeBattalion:
		b, _ := s.BattalionIn.MarshalBinary()
		return b
	default:
		return nil
	}
}

// OutReport marshals the active feedback report, or nil when disconnected.
func (s *Slot) OutReport() []byte {
	switch s.Type {
	case TypeDuke:
		b, _ := s.DukeOut.MarshalBinary()
		return b
	case TypeBattalion:
		b, _ := s.BattalionOut.MarshalBinary()
		return b
	default:
		return nil
	}
}

// ApplyIn unmarshals an inbound report received over the bus into the active
// report pair.
func (s *Slot) ApplyIn(data []byte) error {
	switch s.Type {
	case TypeDuke:
		return s.DukeIn.UnmarshalBinary(data)
	case TypeBattalion:
		return s.BattalionIn.UnmarshalBinary(data)
	default:
		return fmt.Errorf("slot disconnected")
	}
}

// ApplyOut unmarshals a feedback report into the active report pair.
func (s *Slot) ApplyOut(data []byte) error {
	switch s.Type {
	case TypeDuke:
		return s.DukeOut.UnmarshalBinary(data)
	case TypeBattalion:
		return s.BattalionOut.UnmarshalBinary(data)
	default:
		return fmt.Errorf("slot disconnected")
	}
}
