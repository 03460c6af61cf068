package buslink

import (
	"log/slog"
	"sync"

	"github.com/padlink/padlink/xid"
)

// Peer answers coordinator transactions on a non-coordinating node. The
// coordinator owns the slot's target family and inbound report; the peer
// owns the feedback report it collects from the console.
type Peer struct {
	mu     sync.Mutex
	slot   *xid.Slot
	logger *slog.Logger

	// onPing is called for each received presence probe.
	onPing func()
}

// NewPeer wires the handlers for slot onto the peer side of the bus.
func NewPeer(bus PeerBus, slot *xid.Slot, logger *slog.Logger) *Peer {
	p := &Peer{slot: slot, logger: logger}
	bus.OnReceive(p.receive)
	bus.OnRequest(p.reply)
	return p
}

// OnPing registers a presence-probe callback, typically a status LED blink.
func (p *Peer) OnPing(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onPing = fn
}

// Lock grants exclusive access to the slot between bus transactions.
func (p *Peer) Lock()   { p.mu.Lock() }
func (p *Peer) Unlock() { p.mu.Unlock() }

func (p *Peer) receive(r *Reader) {
	defer r.Drain()

	id, ok := r.ReadByte()
	if !ok {
		return
	}

	if id == Ping {
		p.mu.Lock()
		fn := p.onPing
		p.mu.Unlock()
		if fn != nil {
			fn()
		}
		return
	}

	if id&statusPrefix != statusPrefix {
		p.logger.Debug("discarding unknown bus message", "id", id)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.slot.Type = xid.Type(id & 0x0F)
	expected := p.slot.Type.InLen()
	if expected == 0 || r.Len() != expected+1 {
		// Length disagrees with the declared family, drop the payload
		return
	}

	buf := make([]byte, expected)
	if r.Read(buf) != expected {
		return
	}
	if err := p.slot.ApplyIn(buf); err != nil {
		p.logger.Debug("bad inbound report", "error", err)
	}
}

func (p *Peer) reply() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	if out := p.slot.OutReport(); out != nil {
		return out
	}
	// Disconnected: answer with a single byte so the coordinator is not
	// left waiting
	return []byte{0}
}
