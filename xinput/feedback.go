package xinput

import "time"

const (
	// Minimum spacing between output packets to one device.
	outInterval = 20 * time.Millisecond
	// Guide button hold before the wireless controller is powered off.
	powerOffHold = time.Second
	// Background keepalive/presence interval.
	periodicInterval = time.Second
)

// PollFeedback reconciles requested against actual feedback state for one
// device, emitting at most one output action this tick. The priority order,
// rumble, LED, chatpad init, chatpad LEDs, power-off, periodic keepalive,
// bounds bus traffic per cycle.
func (p *Pool) PollFeedback(dev *Device, t HostTransport) {
	if !dev.Connected() || dev.OutPipe == 0 || p.now().Sub(dev.timerOut) < outInterval {
		return
	}

	switch {
	case dev.RumbleLeftReq != dev.rumbleLeftAct || dev.RumbleRightReq != dev.rumbleRightAct:
		p.setRumble(dev, t)

	case dev.LEDReq != dev.ledAct:
		p.setLED(dev, t)

	case dev.Family == Family360Wireless && !dev.chatpadReady:
		if p.write(dev, t, wireless360ChatpadInit) == nil {
			dev.chatpadReady = true
		}

	case dev.Family == Family360Wireless && dev.ChatpadLEDReq != dev.chatpadLEDAct:
		p.syncChatpadLEDs(dev, t)

	case dev.Family == Family360Wireless && dev.IsPressed(ButtonGuide):
		if p.now().Sub(dev.timerPowerOff) > powerOffHold {
			p.logger.Info("powering off wireless controller", "addr", dev.Addr)
			p.write(dev, t, wireless360PowerOff)
			dev.timerPowerOff = p.now()
		}

	case dev.Family == Family360Wireless && !dev.IsPressed(ButtonGuide):
		dev.timerPowerOff = p.now()
		fallthrough

	default:
		if p.now().Sub(dev.timerPeriodic) > periodicInterval {
			if dev.Family == Family360Wireless {
				p.write(dev, t, wireless360InquirePresent)
				p.write(dev, t, wireless360ControllerInfo)
				p.setLED(dev, t)
				dev.keepaliveToggle = !dev.keepaliveToggle
				if dev.keepaliveToggle {
					p.write(dev, t, wireless360Keepalive1)
				} else {
					p.write(dev, t, wireless360Keepalive2)
				}
			}
			dev.timerPeriodic = p.now()
		}
	}
}

func (p *Pool) setRumble(dev *Device, t HostTransport) {
	var cmd []byte
	switch dev.Family {
	case Family360Wireless:
		cmd = append([]byte(nil), wireless360Rumble...)
		cmd[5] = dev.RumbleLeftReq
		cmd[6] = dev.RumbleRightReq

	case Family360Wired:
		cmd = append([]byte(nil), wired360Rumble...)
		cmd[3] = dev.RumbleLeftReq
		cmd[4] = dev.RumbleRightReq

	case FamilyXboxOne:
		cmd = append([]byte(nil), xboxoneRumble...)
		// Scale is 0 to 100
		cmd[8] = uint8(float32(dev.RumbleLeftReq) / 2.6)
		cmd[9] = uint8(float32(dev.RumbleRightReq) / 2.6)

	case FamilyXboxOG:
		cmd = append([]byte(nil), xboxogRumble...)
		cmd[2] = dev.RumbleLeftReq
		cmd[3] = dev.RumbleLeftReq
		cmd[4] = dev.RumbleRightReq
		cmd[5] = dev.RumbleRightReq

	default:
		dev.rumbleLeftAct = dev.RumbleLeftReq
		dev.rumbleRightAct = dev.RumbleRightReq
		return
	}

	// Commit only when the transfer went out, so a transient failure is
	// retried next tick instead of leaving the request stuck.
	if p.write(dev, t, cmd) == nil {
		dev.rumbleLeftAct = dev.RumbleLeftReq
		dev.rumbleRightAct = dev.RumbleRightReq
	}
}

func (p *Pool) setLED(dev *Device, t HostTransport) {
	var cmd []byte
	switch dev.Family {
	case Family360Wireless:
		cmd = append([]byte(nil), wireless360LED...)
		if dev.LEDReq == 0 {
			cmd[3] = 0x40
		} else {
			cmd[3] = 0x40 | (dev.LEDReq + 5)
		}

	case Family360Wired:
		cmd = append([]byte(nil), wired360LED...)
		if dev.LEDReq != 0 {
			cmd[2] = dev.LEDReq + 5
		}

	default:
		dev.ledAct = dev.LEDReq
		return
	}

	if p.write(dev, t, cmd) == nil {
		dev.ledAct = dev.LEDReq
	}
}

// syncChatpadLEDs diffs requested against actual per LED bit and emits one
// on/off command for each LED that changed.
func (p *Pool) syncChatpadLEDs(dev *Device, t HostTransport) {
	for led := 0; led < 4; led++ {
		mask := chatpadLEDMask[led]
		actual := dev.chatpadLEDAct & mask
		want := dev.ChatpadLEDReq & mask

		cmd := append([]byte(nil), chatpadLEDCtrl...)
		switch {
		case actual == 0 && want != 0:
			cmd[3] = chatpadLEDOn[led]
		case actual != 0 && want == 0:
			cmd[3] = chatpadLEDOff[led]
		default:
			continue
		}
		if p.write(dev, t, cmd) != nil {
			continue
		}
		if want != 0 {
			dev.chatpadLEDAct |= mask
		} else {
			dev.chatpadLEDAct &^= mask
		}
		// Force a keepalive check soon after touching chatpad LEDs
		dev.timerPeriodic = dev.timerPeriodic.Add(-2 * periodicInterval)
	}
}
