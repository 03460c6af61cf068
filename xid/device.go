package xid

import (
	"bytes"
	"log/slog"
	"time"

	"github.com/padlink/padlink/usb"
)

// Report buffers are sized for the largest report shape.
const reportBufLen = 32

// outExpiry bounds how long a cached feedback report stays valid without a
// fresh read. Prevents rumble locking on old values.
const outExpiry = 500 * time.Millisecond

// reattachDelay is the pause between the logical detach and reattach on a
// family switch, long enough for the console to notice the device left.
const reattachDelay = 10 * time.Millisecond

// Freshness classifies what GetReport returned.
type Freshness uint8

const (
	ReportFresh   Freshness = iota // read straight off the endpoint
	ReportCached                   // last known value, still within expiry
	ReportExpired                  // nothing fresh for too long, zero-filled
)

// Link is the console-side endpoint primitive: interrupt IN/OUT transfers
// plus attach control. Implementations are hardware (a UDC) or test doubles.
type Link interface {
	// Send transmits an IN report to the console.
	Send(data []byte) (int, error)
	// Recv reads an OUT report from the console into buf.
	Recv(buf []byte) (int, error)
	// SetAttached connects or disconnects the device from the console port.
	SetAttached(attached bool)
}

// Setup is a control request received on the default pipe.
type Setup struct {
	RequestType uint8
	Request     uint8
	Value       uint16
	Index       uint16
	Length      uint16
}

// Emulator presents the XID device to the console: fixed descriptor set,
// report transmit with diff suppression, feedback reads with staleness
// expiry, and the target-family switch that reattaches the device.
type Emulator struct {
	typ    Type
	link   Link
	logger *slog.Logger

	lastIn     [reportBufLen]byte
	lastInLen  int
	lastOut    [reportBufLen]byte
	lastOutLen int
	outStamp   time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

// New returns an emulator attached to the console as a Duke gamepad.
func New(link Link, logger *slog.Logger) *Emulator {
	e := &Emulator{
		typ:    TypeDuke,
		link:   link,
		logger: logger,
		now:    time.Now,
		sleep:  time.Sleep,
	}
	e.outStamp = e.now()
	link.SetAttached(true)
	return e
}

// Type returns the currently emulated target family.
func (e *Emulator) Type() Type { return e.typ }

// SetType switches the emulated family. A change detaches the device, pauses
// briefly, then reattaches unless the new type is disconnected.
func (e *Emulator) SetType(t Type) {
	if e.typ == t {
		return
	}
	e.logger.Info("switching emulated controller", "from", e.typ.String(), "to", t.String())
	e.typ = t
	e.link.SetAttached(false)
	e.sleep(reattachDelay)
	if t != TypeDisconnected {
		e.link.SetAttached(true)
	}
}

// SendReport transmits an IN report, suppressing the transfer when the
// payload is identical to the last one sent. Returns bytes transmitted.
func (e *Emulator) SendReport(data []byte) (int, error) {
	n := min(len(data), reportBufLen)
	if e.lastInLen == n && bytes.Equal(e.lastIn[:n], data[:n]) {
		return n, nil
	}
	sent, err := e.link.Send(data[:n])
	if err != nil {
		// Leave the cache untouched so the report is retried
		return sent, err
	}
	copy(e.lastIn[:], data[:n])
	e.lastInLen = n
	return sent, nil
}

// GetReport attempts a fresh feedback read into buf. On success the value is
// cached. Without fresh data the cached value is returned until outExpiry
// has elapsed, after which buf is zero-filled so stale feedback (e.g. stuck
// rumble) is not acted on.
func (e *Emulator) GetReport(buf []byte) (int, Freshness) {
	n := min(len(buf), reportBufLen)
	var r [reportBufLen]byte
	got, err := e.link.Recv(r[:n])
	if err == nil && got == n {
		copy(e.lastOut[:], r[:n])
		e.lastOutLen = n
		e.outStamp = e.now()
		copy(buf, r[:n])
		return n, ReportFresh
	}

	if e.now().Sub(e.outStamp) > outExpiry {
		for i := range buf[:n] {
			buf[i] = 0
		}
		return n, ReportExpired
	}

	copy(buf, e.lastOut[:n])
	return n, ReportCached
}

// HandleControl services a control request. data carries the payload of
// host-to-device requests. It returns the response for device-to-host
// requests and whether the request was recognized; unrecognized requests
// must be stalled by the caller.
func (e *Emulator) HandleControl(s Setup, data []byte) ([]byte, bool) {
	switch s.RequestType {
	case usb.DirIn: // standard device-to-host
		if s.Request == usb.ReqGetDescriptor {
			switch s.Value {
			case usb.DeviceDescType << 8:
				return capLen(deviceDescriptor.Bytes(), s.Length), true
			case usb.ConfigDescType << 8:
				return capLen(deviceDescriptor.ConfigBytes(), s.Length), true
			}
		}

	case usb.DirIn | usb.TypeVendor | usb.RecipInterface:
		// XID extended descriptor, selected by the active family
		if s.Request == 0x06 && s.Value == 0x4200 {
			switch e.typ {
			case TypeDuke:
				return capLen(dukeDescXID, s.Length), true
			case TypeBattalion:
				return capLen(battalionDescXID, s.Length), true
			}
		}
		if s.Request == 0x01 && s.Value == 0x0100 {
			return capLen(capabilitiesIn, s.Length), true
		}
		if s.Request == 0x01 && s.Value == 0x0200 {
			return capLen(capabilitiesOut, s.Length), true
		}

	case usb.DirIn | usb.TypeClass | usb.RecipInterface:
		// HID GET_REPORT, report type input
		if s.Request == 0x01 && s.Value>>8 == 1 {
			return capLen(e.lastIn[:e.lastInLen], s.Length), true
		}

	case usb.TypeClass | usb.RecipInterface:
		// HID SET_REPORT, report type output
		if s.Request == 0x09 && s.Value>>8 == 2 {
			n := min(len(data), reportBufLen)
			copy(e.lastOut[:], data[:n])
			e.lastOutLen = n
			e.outStamp = e.now()
			return nil, true
		}
	}

	e.logger.Warn("stalling control request",
		"requestType", s.RequestType, "request", s.Request, "wValue", s.Value)
	return nil, false
}

func capLen(data []byte, wLength uint16) []byte {
	if int(wLength) < len(data) {
		return data[:wLength]
	}
	return data
}
