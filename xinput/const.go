package xinput

// MaxGamepads bounds the upstream device pool. One slot per physically
// connected controller, matching the number of emulated console players.
const MaxGamepads = 4

// Button bitmasks for the canonical pad state (XInput compatible).
const (
	ButtonDPadUp    = 0x0001
	ButtonDPadDown  = 0x0002
	ButtonDPadLeft  = 0x0004
	ButtonDPadRight = 0x0008
	ButtonStart     = 0x0010
	ButtonBack      = 0x0020
	ButtonLThumb    = 0x0040 // Left stick button
	ButtonRThumb    = 0x0080 // Right stick button
	ButtonLShoulder = 0x0100 // Left bumper (LB)
	ButtonRShoulder = 0x0200 // Right bumper (RB)
	ButtonGuide     = 0x0400 // Xbox/Guide button (center logo)
	ButtonSync      = 0x0800
	ButtonA         = 0x1000
	ButtonB         = 0x2000
	ButtonX         = 0x4000
	ButtonY         = 0x8000
)

// Chatpad key codes as reported by the wireless receiver. Ordinary keys are
// identified by code value; codes below 17 are modifier bitflags checked
// against the live modifier byte instead.
const (
	Chatpad1 = 23
	Chatpad2 = 22
	Chatpad3 = 21
	Chatpad4 = 20
	Chatpad5 = 19
	Chatpad6 = 18
	Chatpad7 = 17
	Chatpad8 = 103
	Chatpad9 = 102
	Chatpad0 = 101

	ChatpadQ = 39
	ChatpadW = 38
	ChatpadE = 37
	ChatpadR = 36
	ChatpadT = 35
	ChatpadY = 34
	ChatpadU = 33
	ChatpadI = 118
	ChatpadO = 117
	ChatpadP = 100

	ChatpadA     = 55
	ChatpadS     = 54
	ChatpadD     = 53
	ChatpadF     = 52
	ChatpadG     = 51
	ChatpadH     = 50
	ChatpadJ     = 49
	ChatpadK     = 119
	ChatpadL     = 114
	ChatpadComma = 98

	ChatpadZ      = 70
	ChatpadX      = 69
	ChatpadC      = 68
	ChatpadV      = 67
	ChatpadB      = 66
	ChatpadN      = 65
	ChatpadM      = 82
	ChatpadPeriod = 83
	ChatpadEnter  = 99

	ChatpadLeft  = 85
	ChatpadSpace = 84
	ChatpadRight = 81
	ChatpadBack  = 113
)

// Chatpad modifier bitflags (live modifier byte in the chatpad report).
const (
	ChatpadShift     = 1
	ChatpadGreen     = 2
	ChatpadOrange    = 4
	ChatpadMessenger = 8
	ChatpadCapslock  = 0x20
)

// Wired 360 output commands.
var (
	wired360Rumble = []byte{0x00, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	wired360LED    = []byte{0x01, 0x03, 0x00}
)

// Xbox One output commands, including vendor quirk init sequences.
var (
	xboxoneStartInput = []byte{0x05, 0x20, 0x03, 0x01, 0x00}
	xboxoneSInit      = []byte{0x05, 0x20, 0x00, 0x0f, 0x06}
	xboxonePDPInit1   = []byte{0x0a, 0x20, 0x00, 0x03, 0x00, 0x01, 0x14}
	xboxonePDPInit2   = []byte{0x06, 0x30}
	xboxonePDPInit3   = []byte{0x06, 0x20, 0x00, 0x02, 0x01, 0x00}
	xboxoneRumble     = []byte{0x09, 0x00, 0x00, 0x09, 0x00, 0x0f, 0x00, 0x00, 0x00, 0x00, 0xFF, 0x00, 0xEB}
	xboxonePowerAInit1 = []byte{
		0x09, 0x00, 0x00, 0x09, 0x00, 0x0F, 0x00,
		0x00, 0x1D, 0x1D, 0xFF, 0x00, 0x00}
	xboxonePowerAInit2 = []byte{
		0x09, 0x00, 0x00, 0x09, 0x00, 0x0F, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
)

// Wireless 360 receiver commands.
var (
	wireless360LED = []byte{0x00, 0x00, 0x08, 0x40}
	// Sending 0x00, 0x00, 0x08, 0x00 permanently disables rumble until rumbleEnable is sent.
	wireless360RumbleEnable   = []byte{0x00, 0x00, 0x08, 0x01}
	wireless360Rumble         = []byte{0x00, 0x01, 0x0F, 0xC0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	wireless360InquirePresent = []byte{0x08, 0x00, 0x0F, 0xC0}
	wireless360ControllerInfo = []byte{0x00, 0x00, 0x00, 0x40}
	wireless360Unknown        = []byte{0x00, 0x00, 0x02, 0x80}
	wireless360PowerOff       = []byte{0x00, 0x00, 0x08, 0xC0}
	wireless360ChatpadInit    = []byte{0x00, 0x00, 0x0C, 0x1B}
	wireless360Keepalive1     = []byte{0x00, 0x00, 0x0C, 0x1F}
	wireless360Keepalive2     = []byte{0x00, 0x00, 0x0C, 0x1E}
)

// Original Xbox rumble command.
var xboxogRumble = []byte{0x00, 0x06, 0x00, 0x00, 0x00, 0x00}

// The chatpad feedbacks its currently lit LEDs as a bitmask of the modifier
// flags. chatpadLEDCtrl byte 3 is set to chatpadLEDOn[x] or chatpadLEDOff[x]
// to flip the respective LED.
var (
	chatpadLEDCtrl = []byte{0x00, 0x00, 0x0C, 0x00}
	chatpadLEDMask = []byte{ChatpadCapslock, ChatpadGreen, ChatpadOrange, ChatpadMessenger}
	chatpadLEDOn   = []byte{0x08, 0x09, 0x0A, 0x0B}
	chatpadLEDOff  = []byte{0x00, 0x01, 0x02, 0x03}
)
