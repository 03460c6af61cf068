package xinput_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/padlink/padlink/xinput"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	out [][]byte
}

func (f *fakeTransport) Out(addr, ep uint8, data []byte) error {
	f.out = append(f.out, append([]byte(nil), data...))
	return nil
}

func (f *fakeTransport) In(addr, ep uint8, buf []byte) (int, error) {
	return 0, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func wiredEndpoint() xinput.Endpoint {
	return xinput.Endpoint{Addr: 1, In: 0x81, Out: 0x02, Family: xinput.Family360Wired}
}

func TestDecodeWired360(t *testing.T) {

	type testCase struct {
		name            string
		data            []byte
		expectedFresh   bool
		expectedButtons uint16
		expectedPad     bool
	}

	padReport := []byte{
		0x00, 0x14,
		0x22, 0x82, // dpad down, back, right shoulder, y
		0x40, 0x80, // LT, RT
		0x01, 0x02, // LX = 0x0201
		0xFF, 0x7F, // LY = 32767
		0x00, 0x80, // RX = -32768
		0xFE, 0xFF, // RY = -2
	}

	testCases := []testCase{
		{
			name:            "pad report",
			data:            padReport,
			expectedFresh:   true,
			expectedButtons: xinput.ButtonDPadDown | xinput.ButtonBack | xinput.ButtonRShoulder | xinput.ButtonY,
			expectedPad:     true,
		},
		{
			name:          "undersized report",
			data:          padReport[:13],
			expectedFresh: false,
		},
		{
			name:          "led status frame",
			data:          []byte{0x01, 0x03, 0x06},
			expectedFresh: false,
		},
		{
			name:          "rumble status frame",
			data:          []byte{0x03, 0x03, 0x00, 0x20, 0x30},
			expectedFresh: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pool := xinput.NewPool(testLogger())
			dev := pool.Alloc(1, 0, 0x81, 0x02, xinput.Family360Wired, nil)
			require.NotNil(t, dev)

			got, fresh := pool.Decode(wiredEndpoint(), tc.data, nil)
			assert.Same(t, dev, got)
			assert.Equal(t, tc.expectedFresh, fresh)

			if tc.expectedPad {
				assert.Equal(t, tc.expectedButtons, dev.Pad.Buttons)
				assert.Equal(t, uint8(0x40), dev.Pad.LT)
				assert.Equal(t, uint8(0x80), dev.Pad.RT)
				assert.Equal(t, int16(0x0201), dev.Pad.LX)
				assert.Equal(t, int16(32767), dev.Pad.LY)
				assert.Equal(t, int16(-32768), dev.Pad.RX)
				assert.Equal(t, int16(-2), dev.Pad.RY)
			}
		})
	}
}

func TestDecodeWired360UnknownDevice(t *testing.T) {
	pool := xinput.NewPool(testLogger())
	dev, fresh := pool.Decode(wiredEndpoint(), []byte{0x00, 0x14}, nil)
	assert.Nil(t, dev)
	assert.False(t, fresh)
}

func TestDecodeXboxOne(t *testing.T) {
	pool := xinput.NewPool(testLogger())
	dev := pool.Alloc(3, 0, 0x81, 0x01, xinput.FamilyXboxOne, nil)
	require.NotNil(t, dev)

	data := []byte{
		0x20, 0x00, 0x00, 0x00,
		0x10, 0x01, // A (bit 4), dpad up (bit 8)
		0xFF, 0x03, // LT full scale 10 bit
		0x00, 0x02, // RT 0x200 -> 0x80
		0x00, 0x00, 0x00, 0x00,
		0x34, 0x12, 0x00, 0x00,
	}
	ep := xinput.Endpoint{Addr: 3, In: 0x81, Out: 0x01, Family: xinput.FamilyXboxOne}
	_, fresh := pool.Decode(ep, data, nil)
	require.True(t, fresh)

	assert.Equal(t, uint16(xinput.ButtonA|xinput.ButtonDPadUp), dev.Pad.Buttons)
	assert.Equal(t, uint8(0xFF), dev.Pad.LT)
	assert.Equal(t, uint8(0x80), dev.Pad.RT)
	assert.Equal(t, int16(0x1234), dev.Pad.RX)

	_, fresh = pool.Decode(ep, []byte{0x07, 0x20}, nil)
	assert.False(t, fresh, "guide button frames carry no pad state")
}

func TestDecodeXboxOGAnalogButtons(t *testing.T) {
	pool := xinput.NewPool(testLogger())
	dev := pool.Alloc(2, 0, 0x82, 0x02, xinput.FamilyXboxOG, nil)
	require.NotNil(t, dev)

	data := make([]byte, 20)
	data[1] = 0x14
	data[2] = 0x11 // dpad up + start
	data[4] = 0xFF // A pressed hard
	data[5] = 0x10 // B below the analog threshold
	data[9] = 0x80 // left shoulder
	data[10] = 0x55
	ep := xinput.Endpoint{Addr: 2, In: 0x82, Out: 0x02, Family: xinput.FamilyXboxOG}
	_, fresh := pool.Decode(ep, data, nil)
	require.True(t, fresh)

	assert.Equal(t, uint16(xinput.ButtonDPadUp|xinput.ButtonStart|xinput.ButtonA|xinput.ButtonLShoulder), dev.Pad.Buttons)
	assert.Equal(t, uint8(0x55), dev.Pad.LT)
}

func TestDecodeWireless360Lifecycle(t *testing.T) {
	tr := &fakeTransport{}
	pool := xinput.NewPool(testLogger())
	ep := xinput.Endpoint{Addr: 5, In: 0x81, Out: 0x01, Family: xinput.Family360Wireless}

	// Presence packet allocates a slot and triggers the init sequence
	dev, fresh := pool.Decode(ep, []byte{0x08, 0x80}, tr)
	require.NotNil(t, dev)
	assert.False(t, fresh)
	assert.True(t, dev.Connected())
	assert.NotEmpty(t, tr.out, "attach must emit init commands")

	// Pad event
	pad := make([]byte, 18)
	pad[1] = 0x01
	pad[5] = 0x13
	pad[6] = 0x10 // start
	pad[10] = 0x10
	pad[11] = 0x27 // LX = 10000
	dev2, fresh := pool.Decode(ep, pad, tr)
	assert.Same(t, dev, dev2)
	assert.True(t, fresh)
	assert.Equal(t, uint16(xinput.ButtonStart), dev.Pad.Buttons)
	assert.Equal(t, int16(10000), dev.Pad.LX)

	// Disconnect packet frees the slot
	gone, fresh := pool.Decode(ep, []byte{0x08, 0x00}, tr)
	assert.Nil(t, gone)
	assert.False(t, fresh)
	assert.False(t, pool.Slot(0).Connected())
}

func chatpadPacket(state [3]uint8) []byte {
	data := make([]byte, 28)
	data[1] = 0x02
	data[24] = 0x00
	copy(data[25:28], state[:])
	return data
}

func TestDecodeWireless360Chatpad(t *testing.T) {
	pool := xinput.NewPool(testLogger())
	ep := xinput.Endpoint{Addr: 5, In: 0x81, Out: 0x01, Family: xinput.Family360Wireless}
	dev, _ := pool.Decode(ep, []byte{0x08, 0x80}, &fakeTransport{})
	require.NotNil(t, dev)

	_, fresh := pool.Decode(ep, chatpadPacket([3]uint8{xinput.ChatpadGreen, xinput.ChatpadQ, 0}), nil)
	assert.True(t, fresh)

	assert.True(t, dev.IsChatpadPressed(xinput.ChatpadQ))
	assert.True(t, dev.IsChatpadPressed(xinput.ChatpadGreen))
	assert.False(t, dev.IsChatpadPressed(xinput.ChatpadOrange))
	assert.False(t, dev.IsChatpadPressed(xinput.ChatpadW))

	// Rising edge fires exactly once per sustained press
	assert.True(t, dev.WasChatpadPressed(xinput.ChatpadQ))
	assert.False(t, dev.WasChatpadPressed(xinput.ChatpadQ))

	// Release and press again
	pool.Decode(ep, chatpadPacket([3]uint8{0, 0, 0}), nil)
	assert.False(t, dev.WasChatpadPressed(xinput.ChatpadQ))
	pool.Decode(ep, chatpadPacket([3]uint8{0, xinput.ChatpadQ, 0}), nil)
	assert.True(t, dev.WasChatpadPressed(xinput.ChatpadQ))
}

func TestWasPressedEdge(t *testing.T) {
	pool := xinput.NewPool(testLogger())
	dev := pool.Alloc(1, 0, 0x81, 0x02, xinput.Family360Wired, nil)
	require.NotNil(t, dev)

	dev.Pad.Buttons = xinput.ButtonStart
	assert.True(t, dev.WasPressed(xinput.ButtonStart))
	assert.False(t, dev.WasPressed(xinput.ButtonStart))

	dev.Pad.Buttons = 0
	assert.False(t, dev.WasPressed(xinput.ButtonStart))
	dev.Pad.Buttons = xinput.ButtonStart
	assert.True(t, dev.WasPressed(xinput.ButtonStart))
}
