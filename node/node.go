// Package node runs one bridge node: the coordinator polls upstream
// gamepads, maps them, serves player 1 to its own console port and
// distributes players 2-4 over the bus; peers mirror their assigned slot to
// their console port.
package node

import (
	"context"
	"log/slog"
	"time"

	"github.com/padlink/padlink/buslink"
	"github.com/padlink/padlink/internal/eeprom"
	"github.com/padlink/padlink/mapping"
	"github.com/padlink/padlink/xid"
	"github.com/padlink/padlink/xinput"
)

// tickInterval paces the main loop; upstream polling, mapping and the bus
// exchange all run once per tick.
const tickInterval = 4 * time.Millisecond

// HostSource is the upstream gamepad side: enumeration, hotplug and
// interrupt input transfers. Poll delivers pending input reports into pool.
type HostSource interface {
	Poll(pool *xinput.Pool) error
	Transport() xinput.HostTransport
}

// Node is one bridge node. Identity is a 2-bit hardware strap: 0 is the
// coordinator, 1-3 are peers.
type Node struct {
	id     uint8
	logger *slog.Logger

	emu   *xid.Emulator
	slots [xinput.MaxGamepads]xid.Slot

	// coordinator only
	pool   *xinput.Pool
	source HostSource
	ctxs   [xinput.MaxGamepads]*mapping.Context
	sens   *mapping.Sensitivity
	coord  *buslink.Coordinator

	// peer only
	peer *buslink.Peer
}

// NewCoordinator assembles the coordinating node (identity 0).
func NewCoordinator(source HostSource, bus buslink.Bus, emu *xid.Emulator, store eeprom.Store, logger *slog.Logger) *Node {
	n := &Node{
		id:     0,
		logger: logger,
		emu:    emu,
		pool:   xinput.NewPool(logger),
		source: source,
		sens:   mapping.LoadSensitivity(store, logger),
		coord:  buslink.NewCoordinator(bus, logger),
	}
	for i := range n.slots {
		n.slots[i] = xid.NewSlot()
		n.ctxs[i] = mapping.NewContext()
	}
	return n
}

// NewPeer assembles a peer node. The coordinator owns the slot's family and
// inbound report; the peer only mirrors them to its console port.
func NewPeer(id uint8, bus buslink.PeerBus, emu *xid.Emulator, logger *slog.Logger) *Node {
	n := &Node{id: id, logger: logger, emu: emu}
	n.slots[0] = xid.NewSlot()
	n.peer = buslink.NewPeer(bus, &n.slots[0], logger)
	return n
}

// Peer exposes the bus endpoint of a peer node, e.g. to hook a ping
// indicator.
func (n *Node) Peer() *buslink.Peer { return n.peer }

// Slot returns player slot i. On a peer node only slot 0 is live.
func (n *Node) Slot(i int) *xid.Slot { return &n.slots[i] }

// Run drives the node loop until ctx is cancelled. The coordinator pings
// its peers once at startup so they can signal presence.
func (n *Node) Run(ctx context.Context) error {
	if n.coord != nil {
		for addr := uint8(1); addr < xinput.MaxGamepads; addr++ {
			if err := n.coord.Ping(addr); err != nil {
				n.logger.Debug("peer not responding", "peer", addr, "error", err)
			}
		}
	}

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n.Tick()
		}
	}
}

// Tick runs one cycle of the node.
func (n *Node) Tick() {
	if n.coord != nil {
		n.coordinatorTick()
		return
	}

	n.peer.Lock()
	n.consoleStep(&n.slots[0])
	n.peer.Unlock()
}

func (n *Node) coordinatorTick() {
	if err := n.source.Poll(n.pool); err != nil {
		n.logger.Debug("upstream poll failed", "error", err)
	}
	t := n.source.Transport()

	for i := range n.slots {
		dev := n.pool.Slot(i)
		slot := &n.slots[i]

		if !dev.Connected() {
			slot.Type = xid.TypeDisconnected
		} else if slot.Type == xid.TypeDisconnected {
			slot.Type = xid.TypeDuke
		}

		// Chatpad green/orange select the emulated family per player
		if dev.IsChatpadPressed(xinput.ChatpadGreen) {
			slot.Type = xid.TypeDuke
			dev.ChatpadLEDReq = xinput.ChatpadGreen
		} else if dev.IsChatpadPressed(xinput.ChatpadOrange) {
			slot.Type = xid.TypeBattalion
			dev.ChatpadLEDReq = xinput.ChatpadOrange
		}

		switch slot.Type {
		case xid.TypeDuke:
			mapping.Duke(dev, slot, n.ctxs[i])
		case xid.TypeBattalion:
			mapping.Battalion(dev, slot, n.ctxs[i], n.sens)
		}

		if dev.Connected() {
			n.pool.PollFeedback(dev, t)
		}

		if i == 0 {
			n.consoleStep(slot)
		} else {
			n.coord.Exchange(uint8(i), slot)
		}
	}
}

// consoleStep mirrors a slot to the local console port: family switch,
// report push, feedback pull.
func (n *Node) consoleStep(slot *xid.Slot) {
	if n.emu.Type() != slot.Type {
		n.emu.SetType(slot.Type)
	}
	if slot.Type == xid.TypeDisconnected {
		return
	}

	if _, err := n.emu.SendReport(slot.InReport()); err != nil {
		n.logger.Debug("console report send failed", "error", err)
	}

	buf := make([]byte, slot.Type.OutLen())
	n.emu.GetReport(buf)
	if err := slot.ApplyOut(buf); err != nil {
		n.logger.Debug("bad console feedback report", "error", err)
	}
}
