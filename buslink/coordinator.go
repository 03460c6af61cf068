package buslink

import (
	"log/slog"

	"github.com/padlink/padlink/xid"
)

// Coordinator drives the bus from the coordinating node: one push-pull
// transaction pair per peer per cycle.
type Coordinator struct {
	bus    Bus
	logger *slog.Logger
}

func NewCoordinator(bus Bus, logger *slog.Logger) *Coordinator {
	return &Coordinator{bus: bus, logger: logger}
}

// Ping probes the peer at addr so it can signal presence.
func (c *Coordinator) Ping(addr uint8) error {
	return c.bus.Send(addr, []byte{Ping})
}

// Exchange pushes slot's state to the peer at addr and pulls back the
// feedback report. A failed push skips the pull so a stalled peer cannot
// hang the cycle; a short or failed pull leaves the previous feedback
// report in place.
func (c *Coordinator) Exchange(addr uint8, slot *xid.Slot) {
	msg := make([]byte, 0, 1+xid.BattalionInLen)
	msg = append(msg, statusPrefix|uint8(slot.Type))
	msg = append(msg, slot.InReport()...)

	if err := c.bus.Send(addr, msg); err != nil {
		c.logger.Debug("bus send failed", "peer", addr, "error", err)
		return
	}

	expected := slot.Type.OutLen()
	if expected == 0 {
		return
	}

	buf := make([]byte, expected)
	n, err := c.bus.Request(addr, buf)
	if err != nil {
		c.logger.Debug("bus request failed", "peer", addr, "error", err)
		return
	}
	if n != expected {
		c.logger.Debug("discarding short feedback report",
			"peer", addr, "got", n, "want", expected)
		return
	}
	if err := slot.ApplyOut(buf); err != nil {
		c.logger.Debug("bad feedback report", "peer", addr, "error", err)
	}
}

// Close releases the underlying bus.
func (c *Coordinator) Close() error { return c.bus.Close() }
