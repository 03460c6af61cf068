// Package buslink multiplexes player slots between up to four nodes sharing
// one byte-oriented bus. The coordinating node pushes each peer's mapped
// report and pulls back the console feedback report every cycle; peer nodes
// answer those transactions from interrupt-style callbacks.
package buslink

import "errors"

// Ping probes a peer for presence; the peer acknowledges visibly.
const Ping = 0xAA

// statusPrefix marks a slot-state message. The low nibble carries the
// target family.
const statusPrefix = 0xF0

// ErrShortRead reports a peer answering a request with fewer bytes than the
// active family's feedback report needs.
var ErrShortRead = errors.New("buslink: short read from peer")

// Bus is the coordinator-side transaction primitive over the shared bus.
type Bus interface {
	// Send writes one framed message to the peer at addr.
	Send(addr uint8, data []byte) error
	// Request reads the peer's reply into buf, returning the byte count.
	Request(addr uint8, buf []byte) (int, error)
	Close() error
}

// PeerBus delivers coordinator transactions to a peer node's handlers. Both
// handlers run from the transport's receive context and must not block.
type PeerBus interface {
	// OnReceive registers the handler for messages from the coordinator.
	OnReceive(func(*Reader))
	// OnRequest registers the handler producing the peer's reply to a read
	// request.
	OnRequest(func() []byte)
}

// Reader walks one received bus message. Handlers drain it before returning
// so a malformed message cannot leave stale bytes for the next transaction.
type Reader struct {
	data []byte
	pos  int
}

// NewReader wraps a received message.
func NewReader(data []byte) *Reader { return &Reader{data: data} }

// Len returns the total message length.
func (r *Reader) Len() int { return len(r.data) }

// Available returns the number of unread bytes.
func (r *Reader) Available() int { return len(r.data) - r.pos }

// ReadByte consumes the next byte, returning false when exhausted.
func (r *Reader) ReadByte() (byte, bool) {
	if r.pos >= len(r.data) {
		return 0, false
	}
	b := r.data[r.pos]
	r.pos++
	return b, true
}

// Read copies up to len(p) unread bytes into p.
func (r *Reader) Read(p []byte) int {
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n
}

// Drain discards all unread bytes. Deferred by handlers on entry.
func (r *Reader) Drain() { r.pos = len(r.data) }
