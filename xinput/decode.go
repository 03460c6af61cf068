package xinput

// Per-family digital button tables: wire bit position to canonical mask.
// A zero mask skips the bit.
type buttonBit struct {
	bit  uint
	mask uint16
}

var wired360Buttons = []buttonBit{
	{0, ButtonDPadUp}, {1, ButtonDPadDown}, {2, ButtonDPadLeft}, {3, ButtonDPadRight},
	{4, ButtonStart}, {5, ButtonBack}, {6, ButtonLThumb}, {7, ButtonRThumb},
	{8, ButtonLShoulder}, {9, ButtonRShoulder},
	{12, ButtonA}, {13, ButtonB}, {14, ButtonX}, {15, ButtonY},
}

var wireless360Buttons = []buttonBit{
	{0, ButtonDPadUp}, {1, ButtonDPadDown}, {2, ButtonDPadLeft}, {3, ButtonDPadRight},
	{4, ButtonStart}, {5, ButtonBack}, {6, ButtonLThumb}, {7, ButtonRThumb},
	{8, ButtonLShoulder}, {9, ButtonRShoulder}, {10, ButtonGuide},
	{12, ButtonA}, {13, ButtonB}, {14, ButtonX}, {15, ButtonY},
}

var xboxoneButtons = []buttonBit{
	{8, ButtonDPadUp}, {9, ButtonDPadDown}, {10, ButtonDPadLeft}, {11, ButtonDPadRight},
	{2, ButtonStart}, {3, ButtonBack}, {14, ButtonLThumb}, {15, ButtonRThumb},
	{12, ButtonLShoulder}, {13, ButtonRShoulder},
	{4, ButtonA}, {5, ButtonB}, {6, ButtonX}, {7, ButtonY},
}

var xboxogButtons = []buttonBit{
	{0, ButtonDPadUp}, {1, ButtonDPadDown}, {2, ButtonDPadLeft}, {3, ButtonDPadRight},
	{4, ButtonStart}, {5, ButtonBack}, {6, ButtonLThumb}, {7, ButtonRThumb},
}

func mapButtons(wire uint16, table []buttonBit) uint16 {
	var out uint16
	for _, b := range table {
		if wire&(1<<b.bit) != 0 {
			out |= b.mask
		}
	}
	return out
}

func le16(data []byte, off int) int16 {
	return int16(uint16(data[off]) | uint16(data[off+1])<<8)
}

// Decode parses one packet read from the given endpoint and updates the
// owning device record. It returns the device the packet belonged to (a
// wireless presence packet may allocate or free one as a side effect) and
// whether the packet carried a fresh pad-state report. Feedback and status
// packets are consumed internally; undersized or unrecognized buffers leave
// all state unchanged.
func (p *Pool) Decode(ep Endpoint, data []byte, t HostTransport) (*Device, bool) {
	dev := p.find(ep.Addr, ep.In)

	switch ep.Family {
	case Family360Wired:
		return dev, p.decodeWired360(dev, data)
	case Family360Wireless:
		return p.decodeWireless360(dev, ep, data, t)
	case FamilyXboxOne:
		return dev, p.decodeXboxOne(dev, data)
	case FamilyXboxOG:
		return dev, p.decodeXboxOG(dev, data)
	case FamilyKeyboard, FamilyMouse:
		// Boot protocol reports are acknowledged but carry no pad state.
		return dev, dev != nil
	case Family8BitDoIdle, FamilyUnknown:
		return dev, false
	}
	return dev, false
}

func (p *Pool) decodeWired360(dev *Device, data []byte) bool {
	if dev == nil {
		return false
	}
	// LED status feedback
	if len(data) >= 3 && data[0] == 0x01 {
		// Convert to quadrant 1-4, 0 for off
		led := data[2] & 0x0F
		if led != 0 {
			if led > 5 {
				led -= 5
			} else {
				led -= 1
			}
		}
		dev.ledAct = led
		return false
	}
	// Rumble feedback
	if len(data) >= 5 && data[0] == 0x03 {
		dev.rumbleLeftAct = data[3]
		dev.rumbleRightAct = data[4]
		return false
	}
	if len(data) < 14 || data[0] != 0x00 || data[1] != 0x14 {
		return false
	}

	dev.Pad.Buttons = mapButtons(uint16(data[2])|uint16(data[3])<<8, wired360Buttons)
	dev.Pad.LT = data[4]
	dev.Pad.RT = data[5]
	dev.Pad.LX = le16(data, 6)
	dev.Pad.LY = le16(data, 8)
	dev.Pad.RX = le16(data, 10)
	dev.Pad.RY = le16(data, 12)
	return true
}

func (p *Pool) decodeWireless360(dev *Device, ep Endpoint, data []byte, t HostTransport) (*Device, bool) {
	if len(data) < 2 {
		return dev, false
	}

	if data[0]&0x08 != 0 {
		if data[1] != 0x00 && dev == nil {
			// Presence packet: controller connected behind the receiver
			dev = p.Alloc(ep.Addr, 0, ep.In, ep.Out, Family360Wireless, t)
			if dev == nil {
				return nil, false
			}
		} else if data[1] == 0x00 && dev != nil {
			p.Free(dev)
			return nil, false
		}
	}
	if dev == nil {
		return nil, false
	}

	// In-band request to re-run chatpad initialization
	if data[1] == 0xF8 {
		dev.chatpadReady = false
	}

	fresh := false
	// Controller pad event
	if data[1]&1 != 0 && len(data) >= 18 && data[5] == 0x13 {
		dev.Pad.Buttons = mapButtons(uint16(data[6])|uint16(data[7])<<8, wireless360Buttons)
		dev.Pad.LT = data[8]
		dev.Pad.RT = data[9]
		dev.Pad.LX = le16(data, 10)
		dev.Pad.LY = le16(data, 12)
		dev.Pad.RX = le16(data, 14)
		dev.Pad.RY = le16(data, 16)
		fresh = true
	}

	// Chatpad report
	if data[1]&2 != 0 && len(data) >= 27 {
		switch data[24] {
		case 0x00:
			if len(data) >= 28 {
				copy(dev.chatpadState[:], data[25:28])
			}
		case 0xF0:
			// Chatpad status packet
			if data[25] == 0x03 {
				dev.chatpadReady = false
			}
			if data[25] == 0x04 && data[26]&0x80 != 0 {
				dev.chatpadLEDAct = data[26] & 0x7F
			}
		}
		fresh = true
	}
	return dev, fresh
}

func (p *Pool) decodeXboxOne(dev *Device, data []byte) bool {
	if dev == nil || len(data) < 18 || data[0] != 0x20 {
		return false
	}

	dev.Pad.Buttons = mapButtons(uint16(data[4])|uint16(data[5])<<8, xboxoneButtons)
	// 10-bit triggers scaled to 8 bits
	dev.Pad.LT = uint8((uint16(data[6]) | uint16(data[7])<<8) >> 2)
	dev.Pad.RT = uint8((uint16(data[8]) | uint16(data[9])<<8) >> 2)
	dev.Pad.LX = le16(data, 10)
	dev.Pad.LY = le16(data, 12)
	dev.Pad.RX = le16(data, 14)
	dev.Pad.RY = le16(data, 16)
	return true
}

func (p *Pool) decodeXboxOG(dev *Device, data []byte) bool {
	if dev == nil || len(data) < 20 || data[1] != 0x14 {
		return false
	}

	buttons := mapButtons(uint16(data[2])|uint16(data[3])<<8, xboxogButtons)
	// Face and shoulder buttons report analog magnitude bytes
	const analogThreshold = 0x20
	if data[4] > analogThreshold {
		buttons |= ButtonA
	}
	if data[5] > analogThreshold {
		buttons |= ButtonB
	}
	if data[6] > analogThreshold {
		buttons |= ButtonX
	}
	if data[7] > analogThreshold {
		buttons |= ButtonY
	}
	if data[8] > analogThreshold {
		buttons |= ButtonRShoulder
	}
	if data[9] > analogThreshold {
		buttons |= ButtonLShoulder
	}
	dev.Pad.Buttons = buttons

	dev.Pad.LT = data[10]
	dev.Pad.RT = data[11]
	dev.Pad.LX = le16(data, 12)
	dev.Pad.LY = le16(data, 14)
	dev.Pad.RX = le16(data, 16)
	dev.Pad.RY = le16(data, 18)
	return true
}
