package xid

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/padlink/padlink/usb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptLink is a Link double recording traffic and attach transitions.
type scriptLink struct {
	sent    [][]byte
	recvQ   [][]byte
	attach  []bool
	sendErr error
	recvErr error
}

func (l *scriptLink) Send(data []byte) (int, error) {
	if l.sendErr != nil {
		return 0, l.sendErr
	}
	l.sent = append(l.sent, append([]byte(nil), data...))
	return len(data), nil
}

func (l *scriptLink) Recv(buf []byte) (int, error) {
	if l.recvErr != nil {
		return 0, l.recvErr
	}
	if len(l.recvQ) == 0 {
		return 0, nil
	}
	b := l.recvQ[0]
	l.recvQ = l.recvQ[1:]
	return copy(buf, b), nil
}

func (l *scriptLink) SetAttached(attached bool) {
	l.attach = append(l.attach, attached)
}

func newTestEmulator() (*Emulator, *scriptLink, *time.Time) {
	link := &scriptLink{}
	e := New(link, slog.New(slog.NewTextHandler(io.Discard, nil)))
	now := time.Now()
	e.now = func() time.Time { return now }
	e.sleep = func(time.Duration) {}
	e.outStamp = now
	return e, link, &now
}

func TestSendReportDiffSuppression(t *testing.T) {
	e, link, _ := newTestEmulator()

	report := []byte{0x00, 0x14, 0x01, 0x00}
	n, err := e.SendReport(report)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	require.Len(t, link.sent, 1)

	// Identical payload is not retransmitted
	n, err = e.SendReport(report)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Len(t, link.sent, 1)

	report[2] = 0x02
	_, err = e.SendReport(report)
	require.NoError(t, err)
	assert.Len(t, link.sent, 2)
}

func TestSendReportFailureNotSuppressed(t *testing.T) {
	e, link, _ := newTestEmulator()

	report := []byte{0x00, 0x14, 0x01, 0x00}
	link.sendErr = errors.New("console detached")
	_, err := e.SendReport(report)
	require.Error(t, err)
	assert.Empty(t, link.sent)

	// The failed payload is not cached, so the identical retry goes out
	link.sendErr = nil
	n, err := e.SendReport(report)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	require.Len(t, link.sent, 1)
	assert.Equal(t, report, link.sent[0])
}

func TestGetReportFreshness(t *testing.T) {
	e, link, now := newTestEmulator()

	out := []byte{0x00, 0x06, 0x00, 0xFF, 0x00, 0x00}
	link.recvQ = append(link.recvQ, out)

	buf := make([]byte, DukeOutLen)
	n, fresh := e.GetReport(buf)
	assert.Equal(t, DukeOutLen, n)
	assert.Equal(t, ReportFresh, fresh)
	assert.Equal(t, out, buf)

	// No new data inside the expiry window: cached value
	*now = now.Add(499 * time.Millisecond)
	buf2 := make([]byte, DukeOutLen)
	_, fresh = e.GetReport(buf2)
	assert.Equal(t, ReportCached, fresh)
	assert.Equal(t, out, buf2)

	// Past the expiry window: zero-filled
	*now = now.Add(2 * time.Millisecond)
	_, fresh = e.GetReport(buf2)
	assert.Equal(t, ReportExpired, fresh)
	assert.Equal(t, make([]byte, DukeOutLen), buf2)
}

func TestGetReportShortRead(t *testing.T) {
	e, link, _ := newTestEmulator()
	link.recvQ = append(link.recvQ, []byte{0x00})

	buf := make([]byte, DukeOutLen)
	_, fresh := e.GetReport(buf)
	assert.Equal(t, ReportCached, fresh, "short reads do not refresh the cache")
}

func TestSetTypeReattach(t *testing.T) {
	e, link, _ := newTestEmulator()
	require.Equal(t, []bool{true}, link.attach, "construction attaches the device")

	e.SetType(TypeBattalion)
	assert.Equal(t, TypeBattalion, e.Type())
	assert.Equal(t, []bool{true, false, true}, link.attach)

	// Same family is a no-op
	e.SetType(TypeBattalion)
	assert.Equal(t, []bool{true, false, true}, link.attach)

	// Disconnecting detaches without reattach
	e.SetType(TypeDisconnected)
	assert.Equal(t, []bool{true, false, true, false}, link.attach)
}

func TestHandleControl(t *testing.T) {

	type testCase struct {
		name        string
		typ         Type
		setup       Setup
		expectedOK  bool
		expected    []byte
		expectedLen int
	}

	vendorIn := uint8(usb.DirIn | usb.TypeVendor | usb.RecipInterface)

	testCases := []testCase{
		{
			name:       "device descriptor",
			setup:      Setup{RequestType: usb.DirIn, Request: usb.ReqGetDescriptor, Value: usb.DeviceDescType << 8, Length: 0xFF},
			expectedOK: true,
			expected:   deviceDescriptor.Bytes(),
		},
		{
			name:        "device descriptor truncated to wLength",
			setup:       Setup{RequestType: usb.DirIn, Request: usb.ReqGetDescriptor, Value: usb.DeviceDescType << 8, Length: 8},
			expectedOK:  true,
			expectedLen: 8,
		},
		{
			name:       "config descriptor",
			setup:      Setup{RequestType: usb.DirIn, Request: usb.ReqGetDescriptor, Value: usb.ConfigDescType << 8, Length: 0xFF},
			expectedOK: true,
			expected:   deviceDescriptor.ConfigBytes(),
		},
		{
			name:       "duke xid descriptor",
			typ:        TypeDuke,
			setup:      Setup{RequestType: vendorIn, Request: 0x06, Value: 0x4200, Length: 0xFF},
			expectedOK: true,
			expected:   dukeDescXID,
		},
		{
			name:       "battalion xid descriptor",
			typ:        TypeBattalion,
			setup:      Setup{RequestType: vendorIn, Request: 0x06, Value: 0x4200, Length: 0xFF},
			expectedOK: true,
			expected:   battalionDescXID,
		},
		{
			name:       "input capabilities",
			setup:      Setup{RequestType: vendorIn, Request: 0x01, Value: 0x0100, Length: 0xFF},
			expectedOK: true,
			expected:   capabilitiesIn,
		},
		{
			name:       "output capabilities",
			setup:      Setup{RequestType: vendorIn, Request: 0x01, Value: 0x0200, Length: 0xFF},
			expectedOK: true,
			expected:   capabilitiesOut,
		},
		{
			name:       "unknown vendor request stalls",
			setup:      Setup{RequestType: vendorIn, Request: 0x42, Value: 0x0000},
			expectedOK: false,
		},
		{
			name:       "unknown standard request stalls",
			setup:      Setup{RequestType: usb.DirIn, Request: 0x0A},
			expectedOK: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e, _, _ := newTestEmulator()
			if tc.typ != TypeDisconnected {
				e.typ = tc.typ
			}

			reply, ok := e.HandleControl(tc.setup, nil)
			assert.Equal(t, tc.expectedOK, ok)
			if tc.expected != nil {
				assert.Equal(t, tc.expected, reply)
			}
			if tc.expectedLen != 0 {
				assert.Len(t, reply, tc.expectedLen)
			}
		})
	}
}

func TestHandleControlReports(t *testing.T) {
	e, _, _ := newTestEmulator()

	in := []byte{0x00, 0x14, 0xAA, 0xBB}
	_, err := e.SendReport(in)
	require.NoError(t, err)

	// GET_REPORT returns the last IN report
	reply, ok := e.HandleControl(Setup{
		RequestType: usb.DirIn | usb.TypeClass | usb.RecipInterface,
		Request:     0x01,
		Value:       0x0100,
		Length:      0xFF,
	}, nil)
	require.True(t, ok)
	assert.Equal(t, in, reply)

	// SET_REPORT stores feedback readable through GetReport
	out := []byte{0x00, 0x06, 0x00, 0x80, 0x00, 0x00}
	_, ok = e.HandleControl(Setup{
		RequestType: usb.TypeClass | usb.RecipInterface,
		Request:     0x09,
		Value:       0x0200,
		Length:      uint16(len(out)),
	}, out)
	require.True(t, ok)

	buf := make([]byte, DukeOutLen)
	_, fresh := e.GetReport(buf)
	assert.Equal(t, ReportCached, fresh)
	assert.Equal(t, out, buf)
}
