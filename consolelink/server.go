package consolelink

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/padlink/padlink/internal/log"
	"github.com/padlink/padlink/usbip"
	"github.com/padlink/padlink/xid"
)

const (
	busID   = "1-1"
	devPath = "/sys/devices/padlink/usb1/1-1"

	speedFull = 2 // USB_SPEED_FULL, XID devices are full speed

	statusStall  = -32  // -EPIPE
	statusUnlink = -104 // -ECONNRESET

	defaultPollInterval = 4 * time.Millisecond
)

// Server exports a single emulated XID device to usbip clients.
type Server struct {
	addr   string
	emu    *xid.Emulator
	link   *Link
	logger *slog.Logger
	raw    log.RawLogger

	ln net.Listener
}

func NewServer(addr string, emu *xid.Emulator, link *Link, logger *slog.Logger, raw log.RawLogger) *Server {
	return &Server{addr: addr, emu: emu, link: link, logger: logger, raw: raw}
}

// Listen binds the server socket. After Listen returns, Addr reports the
// bound address.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("consolelink: listen %s: %w", s.addr, err)
	}
	s.ln = ln
	return nil
}

// Addr returns the bound listen address. Only valid after Listen.
func (s *Server) Addr() net.Addr { return s.ln.Addr() }

// Serve accepts clients until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.ln.Close()
	}()
	s.logger.Info("console link listening", "addr", s.ln.Addr().String())
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go s.handleConn(ctx, conn)
	}
}

// ListenAndServe binds the socket and accepts clients until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

func (s *Server) exportedDevice() usbip.ExportedDevice {
	desc := xid.DeviceDescriptor()
	d := usbip.ExportedDevice{
		Speed:               speedFull,
		IDVendor:            desc.Device.IDVendor,
		IDProduct:           desc.Device.IDProduct,
		BcdDevice:           desc.Device.BcdDevice,
		BConfigurationValue: 1,
		BNumConfigurations:  desc.Device.BNumConfigurations,
		BNumInterfaces:      uint8(len(desc.Interfaces)),
	}
	d.BusId = 1
	d.DevId = 1<<16 | 2
	d.SetPath(devPath)
	d.SetBusID(busID)
	for _, ic := range desc.Interfaces {
		d.Interfaces = append(d.Interfaces, usbip.InterfaceDesc{
			Class:    ic.Descriptor.BInterfaceClass,
			SubClass: ic.Descriptor.BInterfaceSubClass,
			Protocol: ic.Descriptor.BInterfaceProtocol,
		})
	}
	return d
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()
	rw := logConn(conn, s.raw)

	for {
		var op [8]byte
		if err := usbip.ReadExactly(rw, op[:]); err != nil {
			if !isClientDisconnect(err) {
				s.logger.Debug("client read failed", "err", err)
			}
			return
		}
		switch code := binary.BigEndian.Uint16(op[2:4]); code {
		case usbip.OpReqDevlist:
			if err := s.handleDevList(rw); err != nil {
				s.logger.Debug("devlist reply failed", "err", err)
				return
			}
		case usbip.OpReqImport:
			ok, err := s.handleImport(rw)
			if err != nil {
				s.logger.Debug("import reply failed", "err", err)
				return
			}
			if !ok {
				return
			}
			s.logger.Info("console attached", "remote", conn.RemoteAddr().String())
			s.urbStream(ctx, conn, rw)
			s.logger.Info("console detached", "remote", conn.RemoteAddr().String())
			return
		default:
			s.logger.Warn("unknown usbip op", "code", code)
			return
		}
	}
}

func (s *Server) handleDevList(rw io.ReadWriter) error {
	hdr := usbip.MgmtHeader{Version: usbip.Version, Command: usbip.OpRepDevlist}
	if err := hdr.Write(rw); err != nil {
		return err
	}
	n := uint32(0)
	if s.link.isAttached() {
		n = 1
	}
	reply := usbip.DevListReplyHeader{NDevices: n}
	if err := reply.Write(rw); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	dev := s.exportedDevice()
	return dev.WriteDevlist(rw)
}

func (s *Server) handleImport(rw io.ReadWriter) (bool, error) {
	var busid [32]byte
	if err := usbip.ReadExactly(rw, busid[:]); err != nil {
		return false, err
	}
	requested := strings.TrimRight(string(busid[:]), "\x00")

	hdr := usbip.MgmtHeader{Version: usbip.Version, Command: usbip.OpRepImport}
	if requested != busID || !s.link.isAttached() {
		hdr.Status = 1
		if err := hdr.Write(rw); err != nil {
			return false, err
		}
		return false, nil
	}
	if err := hdr.Write(rw); err != nil {
		return false, err
	}
	dev := s.exportedDevice()
	return true, dev.WriteImport(rw)
}

func (s *Server) urbStream(ctx context.Context, conn net.Conn, rw io.ReadWriter) {
	done := make(chan struct{})
	defer close(done)

	// Detaching (a target-family switch) drops the connection so the
	// console re-imports and re-enumerates.
	s.link.setKick(func() { _ = conn.Close() })
	defer s.link.setKick(nil)

	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	hdr := make([]byte, usbip.URBHeaderLen)
	for {
		if err := usbip.ReadExactly(rw, hdr); err != nil {
			if !isClientDisconnect(err) {
				s.logger.Debug("urb read failed", "err", err)
			}
			return
		}

		switch binary.BigEndian.Uint32(hdr[0:4]) {
		case usbip.CmdUnlinkCode:
			c := usbip.DecodeCmdUnlink(hdr)
			ret := usbip.RetUnlink{
				Basic:  usbip.HeaderBasic{Command: usbip.RetUnlinkCode, Seqnum: c.Basic.Seqnum},
				Status: statusUnlink,
			}
			if err := ret.Write(rw); err != nil {
				return
			}

		case usbip.CmdSubmitCode:
			c := usbip.DecodeCmdSubmit(hdr)
			var payload []byte
			if c.Basic.Dir == usbip.DirOut && c.TransferBufferLen > 0 {
				payload = make([]byte, c.TransferBufferLen)
				if err := usbip.ReadExactly(rw, payload); err != nil {
					return
				}
			}

			status, reply := s.processSubmit(c, payload, done)
			ret := usbip.RetSubmit{
				Basic:  usbip.HeaderBasic{Command: usbip.RetSubmitCode, Seqnum: c.Basic.Seqnum},
				Status: status,
			}
			if c.Basic.Dir == usbip.DirOut {
				ret.ActualLength = uint32(len(payload))
				reply = nil
			} else {
				ret.ActualLength = uint32(len(reply))
			}
			if err := ret.Write(rw); err != nil {
				return
			}
			if len(reply) > 0 {
				if _, err := rw.Write(reply); err != nil {
					return
				}
			}

		default:
			s.logger.Warn("unknown urb command", "command", binary.BigEndian.Uint32(hdr[0:4]))
			return
		}
	}
}

func (s *Server) processSubmit(c usbip.CmdSubmit, payload []byte, done <-chan struct{}) (int32, []byte) {
	switch {
	case c.Basic.Ep == 0:
		return s.controlTransfer(c, payload)

	case c.Basic.Ep == 1 && c.Basic.Dir == usbip.DirIn:
		interval := defaultPollInterval
		if c.Interval > 0 && c.Interval <= 100 {
			interval = time.Duration(c.Interval) * time.Millisecond
		}
		return 0, s.link.waitReport(interval, done)

	case c.Basic.Ep == 2 && c.Basic.Dir == usbip.DirOut:
		s.link.pushOut(payload)
		return 0, nil
	}
	return statusStall, nil
}

func (s *Server) controlTransfer(c usbip.CmdSubmit, payload []byte) (int32, []byte) {
	setup := xid.Setup{
		RequestType: c.Setup[0],
		Request:     c.Setup[1],
		Value:       binary.LittleEndian.Uint16(c.Setup[2:4]),
		Index:       binary.LittleEndian.Uint16(c.Setup[4:6]),
		Length:      binary.LittleEndian.Uint16(c.Setup[6:8]),
	}

	// Bus-level housekeeping the device firmware never sees; answered here
	// instead of in the emulator.
	if setup.RequestType&0x60 == 0 {
		switch setup.Request {
		case 0x05, 0x09, 0x0b: // SET_ADDRESS, SET_CONFIGURATION, SET_INTERFACE
			return 0, nil
		case 0x08: // GET_CONFIGURATION
			return 0, []byte{0x01}
		case 0x00: // GET_STATUS
			return 0, []byte{0, 0}
		}
	}

	reply, ok := s.emu.HandleControl(setup, payload)
	if !ok {
		return statusStall, nil
	}
	return 0, reply
}

type rawConn struct {
	inner io.ReadWriter
	raw   log.RawLogger
}

func logConn(conn net.Conn, raw log.RawLogger) io.ReadWriter {
	if raw == nil {
		return conn
	}
	return &rawConn{inner: conn, raw: raw}
}

func (c *rawConn) Read(p []byte) (int, error) {
	n, err := c.inner.Read(p)
	if n > 0 {
		c.raw.Log(true, p[:n])
	}
	return n, err
}

func (c *rawConn) Write(p []byte) (int, error) {
	n, err := c.inner.Write(p)
	if n > 0 {
		c.raw.Log(false, p[:n])
	}
	return n, err
}

func isClientDisconnect(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection reset") || strings.Contains(msg, "broken pipe")
}
