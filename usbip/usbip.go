// Package usbip implements the subset of the USB/IP wire protocol needed to
// export a single emulated device to a usbip client.
package usbip

import (
	"encoding/binary"
	"io"
)

// Wire constants (network byte order / big-endian)
const (
	Version = 0x0111

	// Management commands
	OpReqDevlist = 0x8005
	OpRepDevlist = 0x0005
	OpReqImport  = 0x8003
	OpRepImport  = 0x0003

	// URB transfer commands
	CmdSubmitCode = 0x00000001
	CmdUnlinkCode = 0x00000002
	RetSubmitCode = 0x00000003
	RetUnlinkCode = 0x00000004

	// Directions used in usbip_header_basic.direction
	DirOut = 0x00000000
	DirIn  = 0x00000001

	// URB headers after the management handshake are a fixed 48 bytes.
	URBHeaderLen = 0x30
)

func writeBE(w io.Writer, vals ...any) error {
	for _, v := range vals {
		if err := binary.Write(w, binary.BigEndian, v); err != nil {
			return err
		}
	}
	return nil
}

// MgmtHeader is the 8-byte header for management ops (devlist/import).
type MgmtHeader struct {
	Version uint16
	Command uint16
	Status  uint32
}

func (h *MgmtHeader) Write(w io.Writer) error {
	return writeBE(w, h.Version, h.Command, h.Status)
}

// DevListReplyHeader is the header after MgmtHeader for OP_REP_DEVLIST.
type DevListReplyHeader struct {
	NDevices uint32
}

func (d *DevListReplyHeader) Write(w io.Writer) error {
	return writeBE(w, d.NDevices)
}

// ExportMeta carries USB-IP bus identity for an emulated device.
// Uses fixed-size arrays matching the wire protocol format.
type ExportMeta struct {
	Path     [256]byte
	USBBusId [32]byte
	BusId    uint32
	DevId    uint32
}

// SetPath stores the sysfs-style path, zero padded.
func (m *ExportMeta) SetPath(s string) { putFixedString(m.Path[:], s) }

// SetBusID stores the bus id string, zero padded.
func (m *ExportMeta) SetBusID(s string) { putFixedString(m.USBBusId[:], s) }

// ExportedDevice describes one exported device in devlist/import replies.
// Layout matches kernel doc, strings are fixed-size, remaining numbers are BE.
type ExportedDevice struct {
	ExportMeta
	Speed uint32

	IDVendor            uint16
	IDProduct           uint16
	BcdDevice           uint16
	BDeviceClass        uint8
	BDeviceSubClass     uint8
	BDeviceProtocol     uint8
	BConfigurationValue uint8
	BNumConfigurations  uint8
	BNumInterfaces      uint8

	// Interfaces: for each interface: class, subclass, protocol, pad
	Interfaces []InterfaceDesc
}

type InterfaceDesc struct {
	Class    uint8
	SubClass uint8
	Protocol uint8
}

func putFixedString(dst []byte, s string) {
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

func (d *ExportedDevice) writeCommon(w io.Writer) error {
	if _, err := w.Write(d.Path[:]); err != nil {
		return err
	}
	if _, err := w.Write(d.USBBusId[:]); err != nil {
		return err
	}
	if err := writeBE(w, d.BusId, d.DevId, d.Speed, d.IDVendor, d.IDProduct, d.BcdDevice); err != nil {
		return err
	}
	_, err := w.Write([]byte{
		d.BDeviceClass,
		d.BDeviceSubClass,
		d.BDeviceProtocol,
		d.BConfigurationValue,
		d.BNumConfigurations,
		d.BNumInterfaces,
	})
	return err
}

// WriteDevlist writes the device entry for OP_REP_DEVLIST (includes interface triplets).
func (d *ExportedDevice) WriteDevlist(w io.Writer) error {
	if err := d.writeCommon(w); err != nil {
		return err
	}
	for _, iface := range d.Interfaces {
		if _, err := w.Write([]byte{iface.Class, iface.SubClass, iface.Protocol, 0}); err != nil {
			return err
		}
	}
	return nil
}

// WriteImport writes the device entry for OP_REP_IMPORT (ends at bNumInterfaces).
func (d *ExportedDevice) WriteImport(w io.Writer) error {
	return d.writeCommon(w)
}

// HeaderBasic is common to all URB cmds and replies.
type HeaderBasic struct {
	Command uint32
	Seqnum  uint32
	Devid   uint32
	Dir     uint32
	Ep      uint32
}

func decodeBasic(buf []byte) HeaderBasic {
	return HeaderBasic{
		Command: binary.BigEndian.Uint32(buf[0x00:]),
		Seqnum:  binary.BigEndian.Uint32(buf[0x04:]),
		Devid:   binary.BigEndian.Uint32(buf[0x08:]),
		Dir:     binary.BigEndian.Uint32(buf[0x0c:]),
		Ep:      binary.BigEndian.Uint32(buf[0x10:]),
	}
}

// CmdSubmit header (before payload) length is 0x30.
type CmdSubmit struct {
	Basic             HeaderBasic
	TransferFlags     uint32
	TransferBufferLen uint32
	StartFrame        uint32
	NumberOfPackets   uint32
	Interval          uint32
	Setup             [8]byte
}

// DecodeCmdSubmit parses a 48-byte URB header as CMD_SUBMIT.
func DecodeCmdSubmit(buf []byte) CmdSubmit {
	c := CmdSubmit{
		Basic:             decodeBasic(buf),
		TransferFlags:     binary.BigEndian.Uint32(buf[0x14:]),
		TransferBufferLen: binary.BigEndian.Uint32(buf[0x18:]),
		StartFrame:        binary.BigEndian.Uint32(buf[0x1c:]),
		NumberOfPackets:   binary.BigEndian.Uint32(buf[0x20:]),
		Interval:          binary.BigEndian.Uint32(buf[0x24:]),
	}
	copy(c.Setup[:], buf[0x28:0x30])
	return c
}

func (c *CmdSubmit) Write(w io.Writer) error {
	if err := writeBE(w, c.Basic.Command, c.Basic.Seqnum, c.Basic.Devid, c.Basic.Dir, c.Basic.Ep,
		c.TransferFlags, c.TransferBufferLen, c.StartFrame, c.NumberOfPackets, c.Interval); err != nil {
		return err
	}
	_, err := w.Write(c.Setup[:])
	return err
}

// RetSubmit header (before payload) length is 0x30.
type RetSubmit struct {
	Basic           HeaderBasic
	Status          int32
	ActualLength    uint32
	StartFrame      uint32
	NumberOfPackets uint32
	ErrorCount      uint32
	Padding         [8]byte
}

func (r *RetSubmit) Write(w io.Writer) error {
	if err := writeBE(w, r.Basic.Command, r.Basic.Seqnum, r.Basic.Devid, r.Basic.Dir, r.Basic.Ep,
		r.Status, r.ActualLength, r.StartFrame, r.NumberOfPackets, r.ErrorCount); err != nil {
		return err
	}
	_, err := w.Write(r.Padding[:])
	return err
}

// DecodeRetSubmit parses a 48-byte URB header as RET_SUBMIT.
func DecodeRetSubmit(buf []byte) RetSubmit {
	r := RetSubmit{
		Basic:           decodeBasic(buf),
		Status:          int32(binary.BigEndian.Uint32(buf[0x14:])),
		ActualLength:    binary.BigEndian.Uint32(buf[0x18:]),
		StartFrame:      binary.BigEndian.Uint32(buf[0x1c:]),
		NumberOfPackets: binary.BigEndian.Uint32(buf[0x20:]),
		ErrorCount:      binary.BigEndian.Uint32(buf[0x24:]),
	}
	copy(r.Padding[:], buf[0x28:0x30])
	return r
}

// CmdUnlink cancels a previously submitted URB.
type CmdUnlink struct {
	Basic        HeaderBasic
	UnlinkSeqnum uint32
	Padding      [24]byte
}

// DecodeCmdUnlink parses a 48-byte URB header as CMD_UNLINK.
func DecodeCmdUnlink(buf []byte) CmdUnlink {
	c := CmdUnlink{
		Basic:        decodeBasic(buf),
		UnlinkSeqnum: binary.BigEndian.Uint32(buf[0x14:]),
	}
	copy(c.Padding[:], buf[0x18:0x30])
	return c
}

func (c *CmdUnlink) Write(w io.Writer) error {
	if err := writeBE(w, c.Basic.Command, c.Basic.Seqnum, c.Basic.Devid, c.Basic.Dir, c.Basic.Ep,
		c.UnlinkSeqnum); err != nil {
		return err
	}
	_, err := w.Write(c.Padding[:])
	return err
}

type RetUnlink struct {
	Basic   HeaderBasic
	Status  int32
	Padding [24]byte
}

func (r *RetUnlink) Write(w io.Writer) error {
	if err := writeBE(w, r.Basic.Command, r.Basic.Seqnum, r.Basic.Devid, r.Basic.Dir, r.Basic.Ep,
		r.Status); err != nil {
		return err
	}
	_, err := w.Write(r.Padding[:])
	return err
}

// ReadExactly fills buf completely or returns the read error.
func ReadExactly(r io.Reader, buf []byte) error {
	_, err := io.ReadFull(r, buf)
	return err
}
