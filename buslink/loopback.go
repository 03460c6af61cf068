package buslink

import (
	"fmt"
	"sync"
)

// Loopback is an in-process bus connecting a coordinator to peer endpoints,
// used in tests and single-node setups. Transactions run synchronously in
// the caller's goroutine, like the interrupt context of a real bus.
type Loopback struct {
	mu    sync.Mutex
	peers map[uint8]*LoopbackPeer
	errs  map[uint8]error
}

func NewLoopback() *Loopback {
	return &Loopback{
		peers: make(map[uint8]*LoopbackPeer),
		errs:  make(map[uint8]error),
	}
}

// Peer returns the endpoint for addr, creating it on first use.
func (l *Loopback) Peer(addr uint8) *LoopbackPeer {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.peers[addr]
	if !ok {
		p = &LoopbackPeer{}
		l.peers[addr] = p
	}
	return p
}

// SetError forces all transactions to addr to fail with err until cleared
// with a nil err.
func (l *Loopback) SetError(addr uint8, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err == nil {
		delete(l.errs, addr)
		return
	}
	l.errs[addr] = err
}

func (l *Loopback) endpoint(addr uint8) (*LoopbackPeer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.errs[addr]; err != nil {
		return nil, err
	}
	p, ok := l.peers[addr]
	if !ok {
		return nil, fmt.Errorf("buslink: no peer at address %d", addr)
	}
	return p, nil
}

func (l *Loopback) Send(addr uint8, data []byte) error {
	p, err := l.endpoint(addr)
	if err != nil {
		return err
	}
	p.deliver(data)
	return nil
}

func (l *Loopback) Request(addr uint8, buf []byte) (int, error) {
	p, err := l.endpoint(addr)
	if err != nil {
		return 0, err
	}
	return p.request(buf), nil
}

func (l *Loopback) Close() error { return nil }

// LoopbackPeer is the peer-side endpoint of a Loopback bus.
type LoopbackPeer struct {
	mu        sync.Mutex
	onReceive func(*Reader)
	onRequest func() []byte
}

func (p *LoopbackPeer) OnReceive(fn func(*Reader)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onReceive = fn
}

func (p *LoopbackPeer) OnRequest(fn func() []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onRequest = fn
}

func (p *LoopbackPeer) deliver(data []byte) {
	p.mu.Lock()
	fn := p.onReceive
	p.mu.Unlock()
	if fn != nil {
		msg := make([]byte, len(data))
		copy(msg, data)
		fn(NewReader(msg))
	}
}

func (p *LoopbackPeer) request(buf []byte) int {
	p.mu.Lock()
	fn := p.onRequest
	p.mu.Unlock()
	if fn == nil {
		return 0
	}
	return copy(buf, fn())
}
