package xid

// XID accessory class as reported in the interface descriptor.
const (
	InterfaceClass    = 0x58
	InterfaceSubClass = 0x42
)

// Duke digital button masks (BattalionIn.Buttons-style word for DukeIn.Buttons).
const (
	DukeDUp    = 1 << 0
	DukeDDown  = 1 << 1
	DukeDLeft  = 1 << 2
	DukeDRight = 1 << 3
	DukeStart  = 1 << 4
	DukeBack   = 1 << 5
	DukeLS     = 1 << 6
	DukeRS     = 1 << 7
)

// Steel Battalion button masks, word 0.
const (
	SBC0RightJoyMainWeapon  = 0x0001
	SBC0RightJoyFire        = 0x0002
	SBC0RightJoyLockOn      = 0x0004
	SBC0Eject               = 0x0008
	SBC0CockpitHatch        = 0x0010
	SBC0Ignition            = 0x0020
	SBC0Start               = 0x0040
	SBC0MultiMonOpenClose   = 0x0080
	SBC0MultiMonMapZoom     = 0x0100
	SBC0MultiMonModeSelect  = 0x0200
	SBC0MultiMonSubMonitor  = 0x0400
	SBC0MainMonZoomIn       = 0x0800
	SBC0MainMonZoomOut      = 0x1000
	SBC0FunctionFSS         = 0x2000
	SBC0FunctionManipulator = 0x4000
	SBC0FunctionLineColor   = 0x8000
)

// Steel Battalion button masks, word 1.
const (
	SBC1Washing            = 0x0001
	SBC1Extinguisher       = 0x0002
	SBC1Chaff              = 0x0004
	SBC1FunctionTankDetach = 0x0008
	SBC1FunctionOverride   = 0x0010
	SBC1FunctionNightScope = 0x0020
	SBC1FunctionF1         = 0x0040
	SBC1FunctionF2         = 0x0080
	SBC1FunctionF3         = 0x0100
	SBC1WeaponConMain      = 0x0200
	SBC1WeaponConSub       = 0x0400
	SBC1WeaponConMagazine  = 0x0800
	SBC1Comm1              = 0x1000
	SBC1Comm2              = 0x2000
	SBC1Comm3              = 0x4000
	SBC1Comm4              = 0x8000
)

// Steel Battalion button masks, word 2. Bits 2-6 are the physical toggle
// switches; ToggleMask flips them en masse.
const (
	SBC2Comm5               = 0x0001
	SBC2LeftJoySightChange  = 0x0002
	SBC2ToggleFilterControl = 0x0004
	SBC2ToggleOxygenSupply  = 0x0008
	SBC2ToggleFuelFlowRate  = 0x0010
	SBC2ToggleBuffreMat     = 0x0020
	SBC2ToggleVTLocation    = 0x0040

	ToggleMask = 0xFFFC
)

// Gear lever positions: reverse, neutral, then first through fifth.
const (
	GearR = 7
	GearN = 8
	Gear1 = 9
	Gear2 = 10
	Gear3 = 11
	Gear4 = 12
	Gear5 = 13
)

// AimingMid is the centred value of the Battalion aiming axes.
const AimingMid = 32768

// TunerDialMax clamps the 4-bit tuner dial.
const TunerDialMax = 15

// XID extended descriptors, served on the vendor descriptor request. The
// console infers the report shapes from bytes 6-7 (in/out report lengths).
var (
	dukeDescXID = []byte{
		0x10, 0x42, 0x00, 0x01, 0x01, 0x02, 0x14, 0x06,
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	}
	battalionDescXID = []byte{
		0x10, 0x42, 0x00, 0x01, 0x80, 0x01, 0x1A, 0x16,
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	}
)

// Capability blobs, constant across both target families.
var (
	capabilitiesIn = []byte{
		0x00, 0x14, 0xFF, 0x00, 0xFF, 0xFF, 0xFF, 0xFF,
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
		0xFF, 0xFF, 0xFF, 0xFF,
	}
	capabilitiesOut = []byte{0x00, 0x06, 0xFF, 0xFF, 0xFF, 0xFF}
)
