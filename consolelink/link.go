// Package consolelink exports the emulated XID device to the console-side
// adapter over USB/IP. The adapter imports the device with the stock usbip
// client and sees the same endpoints a real accessory would present.
package consolelink

import (
	"sync"
	"time"
)

const outQueueCap = 4

// Link is the transport between an xid.Emulator and the USB/IP server.
// The emulator pushes IN reports and polls feedback data through the
// xid.Link interface; the server services the client's URBs from the
// other side.
type Link struct {
	mu       sync.Mutex
	attached bool
	lastIn   []byte
	out      [][]byte
	notify   chan struct{}
	kick     func()
}

func NewLink() *Link {
	return &Link{notify: make(chan struct{}, 1)}
}

// Send stores the report as the current interrupt IN payload and wakes a
// waiting URB. Reports are dropped while the device is detached.
func (l *Link) Send(p []byte) (int, error) {
	l.mu.Lock()
	if !l.attached {
		l.mu.Unlock()
		return len(p), nil
	}
	l.lastIn = append(l.lastIn[:0], p...)
	l.mu.Unlock()
	select {
	case l.notify <- struct{}{}:
	default:
	}
	return len(p), nil
}

// Recv pops the oldest queued OUT payload. Returns 0 bytes when none is
// pending.
func (l *Link) Recv(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.out) == 0 {
		return 0, nil
	}
	b := l.out[0]
	l.out = l.out[1:]
	return copy(p, b), nil
}

// SetAttached marks the device as plugged or unplugged. Detaching drops the
// active client connection so the console re-enumerates on reattach.
func (l *Link) SetAttached(attached bool) {
	l.mu.Lock()
	l.attached = attached
	kick := l.kick
	if !attached {
		l.lastIn = nil
		l.out = nil
	}
	l.mu.Unlock()
	if !attached && kick != nil {
		kick()
	}
}

func (l *Link) isAttached() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.attached
}

// setKick registers the function used to drop the active connection on
// detach. The server installs it when an import starts.
func (l *Link) setKick(fn func()) {
	l.mu.Lock()
	l.kick = fn
	l.mu.Unlock()
}

// pushOut queues feedback data from the console, discarding the oldest
// entry once the queue is full.
func (l *Link) pushOut(p []byte) {
	b := append([]byte(nil), p...)
	l.mu.Lock()
	if len(l.out) >= outQueueCap {
		l.out = l.out[1:]
	}
	l.out = append(l.out, b)
	l.mu.Unlock()
}

// waitReport blocks until a new IN report arrives or the poll interval
// elapses, then returns a copy of the current report.
func (l *Link) waitReport(interval time.Duration, done <-chan struct{}) []byte {
	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-l.notify:
	case <-timer.C:
	case <-done:
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lastIn == nil {
		return nil
	}
	return append([]byte(nil), l.lastIn...)
}
