// Package usbhost enumerates supported upstream controllers over libusb and
// adapts their interrupt pipes to the transport the decoder polls.
package usbhost

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/gousb"

	"github.com/padlink/padlink/xinput"
)

// rescanInterval paces hotplug enumeration; readTimeout bounds each
// interrupt IN poll so one silent pipe cannot stall the cycle.
const (
	rescanInterval = 500 * time.Millisecond
	readTimeout    = 2 * time.Millisecond
)

// vendor8BitDo adapters enumerate idle and need a start command before they
// speak the wired protocol.
const vendor8BitDo = 0x2DC8

// HID class requests used to force boot-protocol reports on keyboards and
// mice.
const (
	hidRequestSetProtocol = 0x0B
	hidBootProtocol       = 0
)

// ifaceSig matches an interface descriptor triple to a wire family.
type ifaceSig struct {
	class, subclass, protocol uint8
	family                    xinput.Family
}

var signatures = []ifaceSig{
	{0xFF, 0x5D, 0x81, xinput.Family360Wireless},
	{0xFF, 0x5D, 0x01, xinput.Family360Wired},
	{0xFF, 0x47, 0xD0, xinput.FamilyXboxOne},
	{0x58, 0x42, 0x00, xinput.FamilyXboxOG},
	{0x03, 0x01, 0x01, xinput.FamilyKeyboard},
	{0x03, 0x01, 0x02, xinput.FamilyMouse},
}

// matchSignature resolves an interface descriptor triple to a wire family.
// The bare HID triple (3/0/0) is claimed only for 8BitDo adapters, which
// enumerate that way until the start command switches them to the wired
// protocol.
func matchSignature(vendor gousb.ID, class, subclass, protocol uint8) (xinput.Family, bool) {
	if vendor == vendor8BitDo && class == 0x03 && subclass == 0x00 && protocol == 0x00 {
		return xinput.Family8BitDoIdle, true
	}
	for _, s := range signatures {
		if s.class == class && s.subclass == subclass && s.protocol == protocol {
			return s.family, true
		}
	}
	return xinput.FamilyUnknown, false
}

// hidFamily reports whether a family rides the HID boot protocol rather
// than a vendor interrupt protocol.
func hidFamily(f xinput.Family) bool {
	return f == xinput.FamilyKeyboard || f == xinput.FamilyMouse || f == xinput.Family8BitDoIdle
}

// pipe is one claimed interrupt IN/OUT pair.
type pipe struct {
	intf *gousb.Interface
	in   *gousb.InEndpoint
	out  *gousb.OutEndpoint
	ep   xinput.Endpoint
}

// openDevice is one claimed upstream device; wireless receivers carry four
// pipes, one per bound controller.
type openDevice struct {
	dev   *gousb.Device
	cfg   *gousb.Config
	pipes []*pipe
}

func (d *openDevice) close() {
	for _, p := range d.pipes {
		p.intf.Close()
	}
	if d.cfg != nil {
		d.cfg.Close()
	}
	d.dev.Close()
}

// Source owns the libusb context and every claimed upstream device. It
// implements both the enumeration side and the transfer transport. Poll
// runs on the node loop goroutine; the mutex only guards the device map so
// Close can run from elsewhere.
type Source struct {
	ctx    *gousb.Context
	logger *slog.Logger

	mu       sync.Mutex
	devices  map[uint8]*openDevice // keyed by libusb device address
	lastScan time.Time
}

// NewSource opens a libusb context. Close releases it and every claimed
// device.
func NewSource(logger *slog.Logger) *Source {
	return &Source{
		ctx:     gousb.NewContext(),
		logger:  logger,
		devices: make(map[uint8]*openDevice),
	}
}

// Transport returns the transfer side of the source.
func (s *Source) Transport() xinput.HostTransport { return s }

// Poll runs one enumeration-and-read cycle: claim newly attached supported
// devices, then drain each claimed interrupt IN pipe into the pool's
// decoder.
func (s *Source) Poll(pool *xinput.Pool) error {
	if time.Since(s.lastScan) >= rescanInterval {
		s.lastScan = time.Now()
		if err := s.scan(pool); err != nil {
			return err
		}
	}

	s.mu.Lock()
	open := make(map[uint8]*openDevice, len(s.devices))
	for addr, od := range s.devices {
		open[addr] = od
	}
	s.mu.Unlock()

	buf := make([]byte, 64)
	for addr, od := range open {
		dead := false
		for _, p := range od.pipes {
			n, err := s.read(p.in, buf)
			if err != nil {
				s.logger.Debug("input pipe failed", "addr", addr, "error", err)
				dead = true
				break
			}
			if n > 0 {
				pool.Decode(p.ep, buf[:n], s)
			}
		}
		if dead {
			s.mu.Lock()
			delete(s.devices, addr)
			s.mu.Unlock()
			od.close()
			pool.FreeAddress(addr)
		}
	}
	return nil
}

// scan claims supported devices that are not open yet.
func (s *Source) scan(pool *xinput.Pool) error {
	devs, err := s.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		s.mu.Lock()
		_, open := s.devices[uint8(desc.Address)]
		s.mu.Unlock()
		return !open && s.supported(desc)
	})
	// OpenDevices aggregates per-device open errors; a failure opening one
	// device must not abort the scan
	if err != nil {
		s.logger.Debug("device scan", "error", err)
	}
	for _, dev := range devs {
		if err := s.claim(dev, pool); err != nil {
			s.logger.Warn("claiming device failed",
				"vid", fmt.Sprintf("%04x", uint16(dev.Desc.Vendor)),
				"pid", fmt.Sprintf("%04x", uint16(dev.Desc.Product)),
				"error", err)
			dev.Close()
		}
	}
	return nil
}

func (s *Source) supported(desc *gousb.DeviceDesc) bool {
	for _, cfg := range desc.Configs {
		for _, intf := range cfg.Interfaces {
			for _, alt := range intf.AltSettings {
				if _, ok := matchSignature(desc.Vendor, uint8(alt.Class), uint8(alt.SubClass), uint8(alt.Protocol)); ok {
					return true
				}
			}
		}
	}
	return false
}

func (s *Source) claim(dev *gousb.Device, pool *xinput.Pool) error {
	_ = dev.SetAutoDetach(true)

	cfg, err := dev.Config(1)
	if err != nil {
		return fmt.Errorf("selecting config: %w", err)
	}

	od := &openDevice{dev: dev, cfg: cfg}
	addr := uint8(dev.Desc.Address)

	type claimedIntf struct {
		p      *pipe
		number uint8
	}
	var claimed []claimedIntf

	for _, intfDesc := range cfg.Desc.Interfaces {
		alt := intfDesc.AltSettings[0]
		family, ok := matchSignature(dev.Desc.Vendor, uint8(alt.Class), uint8(alt.SubClass), uint8(alt.Protocol))
		if !ok {
			continue
		}

		p, err := s.claimPipes(cfg, alt, addr, family)
		if err != nil {
			s.logger.Debug("skipping interface",
				"addr", addr, "interface", alt.Number, "error", err)
			continue
		}
		if hidFamily(family) {
			if err := s.selectBootProtocol(dev, uint16(alt.Number)); err != nil {
				s.logger.Debug("boot protocol select failed",
					"addr", addr, "interface", alt.Number, "error", err)
			}
		}
		od.pipes = append(od.pipes, p)
		claimed = append(claimed, claimedIntf{p: p, number: uint8(alt.Number)})
	}

	if len(od.pipes) == 0 {
		od.close()
		return errors.New("no claimable interfaces")
	}

	// The device must be reachable through the transport before the pool
	// sends its init commands
	s.mu.Lock()
	s.devices[addr] = od
	s.mu.Unlock()

	for _, c := range claimed {
		switch c.p.ep.Family {
		case xinput.Family360Wireless:
			// The receiver reports controller presence asynchronously
			if err := xinput.InquirePresent(c.p.ep, s); err != nil {
				s.logger.Debug("presence inquiry failed", "addr", addr, "error", err)
			}
		default:
			d := pool.Alloc(addr, c.number, c.p.ep.In, c.p.ep.Out, c.p.ep.Family, s)
			if d != nil && c.p.ep.Family == xinput.FamilyXboxOne {
				pool.AllocVendorInit(d, uint16(dev.Desc.Vendor), uint16(dev.Desc.Product), s)
			}
		}
	}
	s.logger.Info("claimed upstream device",
		"addr", addr,
		"vid", fmt.Sprintf("%04x", uint16(dev.Desc.Vendor)),
		"pid", fmt.Sprintf("%04x", uint16(dev.Desc.Product)),
		"pipes", len(od.pipes))
	return nil
}

func (s *Source) claimPipes(cfg *gousb.Config, alt gousb.InterfaceSetting, addr uint8, family xinput.Family) (*pipe, error) {
	var inDesc, outDesc *gousb.EndpointDesc
	for _, ep := range alt.Endpoints {
		ep := ep
		if ep.TransferType != gousb.TransferTypeInterrupt {
			continue
		}
		if ep.Direction == gousb.EndpointDirectionIn && inDesc == nil {
			inDesc = &ep
		}
		if ep.Direction == gousb.EndpointDirectionOut && outDesc == nil {
			outDesc = &ep
		}
	}
	if inDesc == nil {
		return nil, errors.New("missing interrupt IN endpoint")
	}
	// Boot-protocol HID interfaces have no interrupt OUT; their output
	// traffic rides the control pipe instead.
	if outDesc == nil && !hidFamily(family) {
		return nil, errors.New("missing interrupt OUT endpoint")
	}

	intf, err := cfg.Interface(alt.Number, alt.Alternate)
	if err != nil {
		return nil, fmt.Errorf("claiming interface: %w", err)
	}
	in, err := intf.InEndpoint(inDesc.Number)
	if err != nil {
		intf.Close()
		return nil, fmt.Errorf("opening IN endpoint: %w", err)
	}

	p := &pipe{
		intf: intf,
		in:   in,
		ep: xinput.Endpoint{
			Addr:   addr,
			In:     uint8(inDesc.Address),
			Family: family,
		},
	}
	if outDesc != nil {
		out, err := intf.OutEndpoint(outDesc.Number)
		if err != nil {
			intf.Close()
			return nil, fmt.Errorf("opening OUT endpoint: %w", err)
		}
		p.out = out
		p.ep.Out = uint8(outDesc.Address)
	}
	return p, nil
}

// selectBootProtocol issues the HID SET_PROTOCOL class request so keyboards
// and mice report in the fixed boot format instead of their report
// descriptor layout.
func (s *Source) selectBootProtocol(dev *gousb.Device, ifaceNum uint16) error {
	_, err := dev.Control(
		uint8(gousb.ControlOut|gousb.ControlClass|gousb.ControlInterface),
		hidRequestSetProtocol, hidBootProtocol, ifaceNum, nil)
	return err
}

// read performs one bounded interrupt IN transfer; a timeout means no data
// pending, not an error.
func (s *Source) read(in *gousb.InEndpoint, buf []byte) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
	defer cancel()
	n, err := in.ReadContext(ctx, buf)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, gousb.TransferCancelled) {
		return 0, nil
	}
	return n, err
}

func (s *Source) findPipe(addr, ep uint8) *pipe {
	od, ok := s.devices[addr]
	if !ok {
		return nil
	}
	for _, p := range od.pipes {
		if p.ep.In == ep || p.ep.Out == ep {
			return p
		}
	}
	return nil
}

// Out implements xinput.HostTransport.
func (s *Source) Out(addr, ep uint8, data []byte) error {
	s.mu.Lock()
	p := s.findPipe(addr, ep)
	s.mu.Unlock()
	if p == nil {
		return fmt.Errorf("usbhost: no pipe %#02x on device %d", ep, addr)
	}
	_, err := p.out.Write(data)
	return err
}

// In implements xinput.HostTransport.
func (s *Source) In(addr, ep uint8, buf []byte) (int, error) {
	s.mu.Lock()
	p := s.findPipe(addr, ep)
	s.mu.Unlock()
	if p == nil {
		return 0, fmt.Errorf("usbhost: no pipe %#02x on device %d", ep, addr)
	}
	return s.read(p.in, buf)
}

// Close releases every claimed device and the libusb context.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for addr, od := range s.devices {
		od.close()
		delete(s.devices, addr)
	}
	return s.ctx.Close()
}
