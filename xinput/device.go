package xinput

import (
	"log/slog"
	"time"
)

// Device is one upstream controller's record: transport handles, the decoded
// canonical pad state, and the requested/actual feedback values the poll loop
// reconciles. A Device lives in a fixed Pool slot and is never relocated
// while its Addr is nonzero, so callers may hold the pointer for the
// controller's connected lifetime.
type Device struct {
	// Transport handles
	Addr    uint8 // upstream device address, 0 marks a free slot
	Itf     uint8
	InPipe  uint8
	OutPipe uint8
	Family  Family

	// Canonical controller state
	Pad         PadState
	prevButtons uint16 // previous-cycle digital mask for edge detection

	// Feedback, requested by the mapping layer and reconciled by PollFeedback
	RumbleLeftReq   uint8
	RumbleRightReq  uint8
	rumbleLeftAct   uint8
	rumbleRightAct  uint8
	LEDReq          uint8 // LED quadrant 1-4, 0 for off
	ledAct          uint8
	ChatpadLEDReq   uint8
	chatpadLEDAct   uint8
	chatpadReady    bool // false forces a one-time chatpad init packet
	keepaliveToggle bool

	// Chatpad live state: [0] modifier bitflags, [1] and [2] key codes
	// currently down. hist tracks up to three simultaneously pressed keys for
	// edge detection, since chatpad keys arrive by code rather than bitmask.
	chatpadState [3]uint8
	chatpadHist  [3]uint8

	timerPeriodic time.Time
	timerOut      time.Time
	timerPowerOff time.Time
}

// IsChatpadPressed reports whether the chatpad key is currently down.
// Modifier codes (below 17) are checked as bitflags against the live
// modifier byte; ordinary codes by membership in the currently-down set.
func (d *Device) IsChatpadPressed(code uint8) bool {
	if d.Addr == 0 {
		return false
	}
	if code < 17 {
		return d.chatpadState[0]&code != 0
	}
	return d.chatpadState[1] == code || d.chatpadState[2] == code
}

// WasChatpadPressed reports a rising edge: true exactly once per sustained
// press. At most three distinct keys can be edge-tracked simultaneously; a
// fourth concurrent key is not reported until a history slot frees up.
func (d *Device) WasChatpadPressed(code uint8) bool {
	if !d.IsChatpadPressed(code) {
		// Key released, clear it from the history
		for i := range d.chatpadHist {
			if d.chatpadHist[i] == code {
				d.chatpadHist[i] = 0
			}
		}
		return false
	}
	if d.chatpadHist[0] == code || d.chatpadHist[1] == code || d.chatpadHist[2] == code {
		return false
	}
	for i := range d.chatpadHist {
		if d.chatpadHist[i] == 0 {
			d.chatpadHist[i] = code
			return true
		}
	}
	return false
}

// IsPressed reports whether any button in mask is currently down.
func (d *Device) IsPressed(mask uint16) bool {
	if d.Addr == 0 {
		return false
	}
	return d.Pad.Buttons&mask != 0
}

// WasPressed reports a rising edge on mask, true exactly once per press.
func (d *Device) WasPressed(mask uint16) bool {
	if d.IsPressed(mask) {
		if d.prevButtons&mask == 0 {
			d.prevButtons |= mask
			return true
		}
	} else {
		d.prevButtons &^= mask
	}
	return false
}

// Connected reports whether this slot holds a live device.
func (d *Device) Connected() bool { return d.Addr != 0 }

// Pool is a fixed-capacity arena of device records. Slots are claimed
// first-free on attach and zeroed on detach; live slots are never moved.
type Pool struct {
	devices [MaxGamepads]Device
	now     func() time.Time
	logger  *slog.Logger
}

// NewPool returns an empty device pool.
func NewPool(logger *slog.Logger) *Pool {
	return &Pool{now: time.Now, logger: logger}
}

// Slot returns the device record at index i. The record may be free.
func (p *Pool) Slot(i int) *Device { return &p.devices[i] }

// find returns the live device owning the given address and input pipe.
func (p *Pool) find(addr, inPipe uint8) *Device {
	for i := range p.devices {
		d := &p.devices[i]
		if d.Addr == addr && (d.InPipe == inPipe || d.OutPipe == inPipe) {
			return d
		}
	}
	return nil
}

// Alloc claims the first free slot for a newly announced device and sends the
// family-specific init sequence. Returns nil when the pool is exhausted; the
// device is simply not tracked until a slot frees.
func (p *Pool) Alloc(addr, itf, inPipe, outPipe uint8, family Family, t HostTransport) *Device {
	var dev *Device
	index := -1
	for i := range p.devices {
		if p.devices[i].Addr == 0 {
			dev = &p.devices[i]
			index = i
			break
		}
	}
	if dev == nil {
		p.logger.Warn("device pool exhausted", "addr", addr, "family", family.String())
		return nil
	}

	*dev = Device{
		Addr:          addr,
		Itf:           itf,
		InPipe:        inPipe,
		OutPipe:       outPipe,
		Family:        family,
		LEDReq:        uint8(index + 1),
		ChatpadLEDReq: ChatpadGreen,
		timerPeriodic: p.now(),
		timerOut:      p.now(),
		timerPowerOff: p.now(),
	}
	p.logger.Info("allocated device", "slot", index, "addr", addr, "family", family.String())

	if t != nil {
		p.sendInit(dev, index, t)
	}
	return dev
}

// sendInit emits the one-time attach commands each family expects.
func (p *Pool) sendInit(dev *Device, index int, t HostTransport) {
	switch dev.Family {
	case Family360Wireless:
		p.write(dev, t, wireless360ControllerInfo)
		p.write(dev, t, wireless360Unknown)
		p.write(dev, t, wireless360RumbleEnable)
	case Family360Wired:
		cmd := append([]byte(nil), wired360LED...)
		cmd[2] = uint8(index + 2)
		p.write(dev, t, cmd)
	case FamilyXboxOne:
		p.write(dev, t, xboxoneStartInput)
	case FamilyKeyboard, FamilyMouse, FamilyXboxOG, Family8BitDoIdle, FamilyUnknown:
		// No init traffic required.
	}
}

// AllocVendorInit sends the aftermarket controller quirk sequences that key
// off the USB vendor/product IDs rather than the wire family.
func (p *Pool) AllocVendorInit(dev *Device, vid, pid uint16, t HostTransport) {
	if dev.Family != FamilyXboxOne {
		return
	}
	// Elite/S controllers returning from bluetooth mode
	if vid == 0x045e && (pid == 0x02ea || pid == 0x0b00) {
		p.write(dev, t, xboxoneSInit)
	}
	if vid == 0x0e6f { // PDP
		p.write(dev, t, xboxonePDPInit1)
		p.write(dev, t, xboxonePDPInit2)
		p.write(dev, t, xboxonePDPInit3)
	}
	if vid == 0x24c6 { // PowerA
		p.write(dev, t, xboxonePowerAInit1)
		p.write(dev, t, xboxonePowerAInit2)
	}
}

// Free zeroes a device record, releasing its slot.
func (p *Pool) Free(dev *Device) {
	for i := range p.devices {
		if &p.devices[i] == dev {
			p.logger.Info("freed device", "slot", i, "addr", dev.Addr)
			p.devices[i] = Device{}
			return
		}
	}
}

// FreeAddress zeroes every record owned by the given upstream address, used
// when the whole physical device drops off the bus.
func (p *Pool) FreeAddress(addr uint8) {
	if addr == 0 {
		return
	}
	for i := range p.devices {
		if p.devices[i].Addr == addr {
			p.logger.Info("freed device", "slot", i, "addr", addr)
			p.devices[i] = Device{}
		}
	}
}

// write sends one command packet and stamps the device's output timer. The
// error is reported so callers can hold back their "actual" state and retry
// a failed command next tick.
func (p *Pool) write(dev *Device, t HostTransport, data []byte) error {
	dev.timerOut = p.now()
	if err := t.Out(dev.Addr, dev.OutPipe, data); err != nil {
		p.logger.Debug("host out transfer failed", "addr", dev.Addr, "ep", dev.OutPipe, "error", err)
		return err
	}
	return nil
}
