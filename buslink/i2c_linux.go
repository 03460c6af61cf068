//go:build linux

package buslink

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// i2cSlave selects the transaction target on an i2c-dev file descriptor.
const i2cSlave = 0x0703

// I2CBus is the coordinator-side bus over a Linux i2c-dev adapter. Peer
// nodes require controller-capable hardware on their end; i2c-dev only
// exposes the coordinator role.
type I2CBus struct {
	mu     sync.Mutex
	f      *os.File
	target int // currently selected peer, -1 when unset
}

// OpenI2C opens an i2c-dev adapter, e.g. /dev/i2c-1.
func OpenI2C(path string) (*I2CBus, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("buslink: opening %s: %w", path, err)
	}
	return &I2CBus{f: f, target: -1}, nil
}

func (b *I2CBus) selectTarget(addr uint8) error {
	if b.target == int(addr) {
		return nil
	}
	if err := unix.IoctlSetInt(int(b.f.Fd()), i2cSlave, int(addr)); err != nil {
		return fmt.Errorf("buslink: selecting peer %d: %w", addr, err)
	}
	b.target = int(addr)
	return nil
}

func (b *I2CBus) Send(addr uint8, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.selectTarget(addr); err != nil {
		return err
	}
	if _, err := b.f.Write(data); err != nil {
		return fmt.Errorf("buslink: writing to peer %d: %w", addr, err)
	}
	return nil
}

func (b *I2CBus) Request(addr uint8, buf []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.selectTarget(addr); err != nil {
		return 0, err
	}
	n, err := b.f.Read(buf)
	if err != nil {
		return n, fmt.Errorf("buslink: reading from peer %d: %w", addr, err)
	}
	return n, nil
}

func (b *I2CBus) Close() error { return b.f.Close() }
