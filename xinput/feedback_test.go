package xinput

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordTransport struct {
	out  [][]byte
	fail error
}

func (r *recordTransport) Out(addr, ep uint8, data []byte) error {
	r.out = append(r.out, append([]byte(nil), data...))
	return r.fail
}

func (r *recordTransport) In(addr, ep uint8, buf []byte) (int, error) {
	return 0, nil
}

// feedbackFixture returns a pool on a controllable clock with one allocated
// device and the attach-time traffic already discarded.
func feedbackFixture(t *testing.T, family Family) (*Pool, *Device, *recordTransport, *time.Time) {
	t.Helper()
	now := time.Now()
	pool := NewPool(slog.New(slog.NewTextHandler(io.Discard, nil)))
	pool.now = func() time.Time { return now }

	tr := &recordTransport{}
	dev := pool.Alloc(1, 0, 0x81, 0x02, family, tr)
	require.NotNil(t, dev)
	tr.out = nil
	return pool, dev, tr, &now
}

func TestPollFeedbackRateLimit(t *testing.T) {
	pool, dev, tr, _ := feedbackFixture(t, Family360Wired)

	dev.RumbleLeftReq = 0x20
	pool.PollFeedback(dev, tr)
	assert.Empty(t, tr.out, "no output inside the minimum spacing window")
}

func TestPollFeedbackPriority(t *testing.T) {
	pool, dev, tr, now := feedbackFixture(t, Family360Wired)

	// Rumble and LED both pending: rumble wins the first cycle
	dev.RumbleLeftReq = 0x10
	dev.RumbleRightReq = 0x30
	*now = now.Add(outInterval + time.Millisecond)
	pool.PollFeedback(dev, tr)
	require.Len(t, tr.out, 1)
	assert.Equal(t, []byte{0x00, 0x08, 0x00, 0x10, 0x30, 0x00, 0x00, 0x00}, tr.out[0])

	// LED follows on the next cycle (slot 0 is quadrant 1, steady code 6)
	*now = now.Add(outInterval + time.Millisecond)
	pool.PollFeedback(dev, tr)
	require.Len(t, tr.out, 2)
	assert.Equal(t, []byte{0x01, 0x03, 0x06}, tr.out[1])

	// Everything reconciled: silent until the periodic interval
	*now = now.Add(outInterval + time.Millisecond)
	pool.PollFeedback(dev, tr)
	assert.Len(t, tr.out, 2)
}

func TestPollFeedbackWirelessChatpadInit(t *testing.T) {
	pool, dev, tr, now := feedbackFixture(t, Family360Wireless)

	// LED for slot 0 first, then the one-time chatpad init
	*now = now.Add(outInterval + time.Millisecond)
	pool.PollFeedback(dev, tr)
	require.Len(t, tr.out, 1)
	assert.Equal(t, []byte{0x00, 0x00, 0x08, 0x46}, tr.out[0])

	*now = now.Add(outInterval + time.Millisecond)
	pool.PollFeedback(dev, tr)
	require.Len(t, tr.out, 2)
	assert.Equal(t, wireless360ChatpadInit, tr.out[1])

	// Init is not repeated
	*now = now.Add(outInterval + time.Millisecond)
	pool.PollFeedback(dev, tr)
	for _, cmd := range tr.out[2:] {
		assert.NotEqual(t, wireless360ChatpadInit, cmd)
	}
}

func TestPollFeedbackWirelessPowerOff(t *testing.T) {
	pool, dev, tr, now := feedbackFixture(t, Family360Wireless)

	// Clear LED, chatpad init and chatpad LED sync first
	for i := 0; i < 3; i++ {
		*now = now.Add(outInterval + time.Millisecond)
		pool.PollFeedback(dev, tr)
	}
	tr.out = nil

	dev.Pad.Buttons = ButtonGuide
	*now = now.Add(outInterval + time.Millisecond)
	pool.PollFeedback(dev, tr)
	assert.Empty(t, tr.out, "guide must be held for the full hold time")

	*now = now.Add(powerOffHold + time.Millisecond)
	pool.PollFeedback(dev, tr)
	require.Len(t, tr.out, 1)
	assert.Equal(t, wireless360PowerOff, tr.out[0])
}

func TestPollFeedbackRetriesFailedWrite(t *testing.T) {
	pool, dev, tr, now := feedbackFixture(t, Family360Wired)

	// First attempt fails on the bus: the request must stay pending
	tr.fail = errors.New("transfer timed out")
	dev.RumbleLeftReq = 0x55
	*now = now.Add(outInterval + time.Millisecond)
	pool.PollFeedback(dev, tr)
	require.Len(t, tr.out, 1)
	assert.Equal(t, uint8(0), dev.rumbleLeftAct)

	// Next cycle re-emits the same rumble command, not the LED
	tr.fail = nil
	*now = now.Add(outInterval + time.Millisecond)
	pool.PollFeedback(dev, tr)
	require.Len(t, tr.out, 2)
	assert.Equal(t, []byte{0x00, 0x08, 0x00, 0x55, 0x00, 0x00, 0x00, 0x00}, tr.out[1])
	assert.Equal(t, uint8(0x55), dev.rumbleLeftAct)
}

func TestPollFeedbackXboxOneRumbleScale(t *testing.T) {
	pool, dev, tr, now := feedbackFixture(t, FamilyXboxOne)

	dev.RumbleLeftReq = 0xFF
	dev.RumbleRightReq = 0x80
	*now = now.Add(outInterval + time.Millisecond)
	pool.PollFeedback(dev, tr)
	require.Len(t, tr.out, 1)
	// Motor strength is rescaled from 0-255 to 0-100
	assert.Equal(t, uint8(98), tr.out[0][8])
	assert.Equal(t, uint8(49), tr.out[0][9])
}
