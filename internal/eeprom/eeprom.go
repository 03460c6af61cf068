// Package eeprom provides byte-addressed persistent settings storage,
// mirroring the small EEPROM such settings historically lived in.
package eeprom

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
)

// Size is the capacity of a store in bytes.
const Size = 64

// Store is a fixed-size, byte-addressed settings store.
type Store interface {
	ReadU8(addr int) (uint8, error)
	WriteU8(addr int, v uint8) error
	ReadU16(addr int) (uint16, error)
	WriteU16(addr int, v uint16) error
}

// MemStore is an in-memory Store, useful for tests and for running without
// a settings file.
type MemStore struct {
	mu   sync.Mutex
	data [Size]byte
}

func NewMemStore() *MemStore { return &MemStore{} }

func (m *MemStore) ReadU8(addr int) (uint8, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if addr < 0 || addr >= Size {
		return 0, fmt.Errorf("eeprom: address %d out of range", addr)
	}
	return m.data[addr], nil
}

func (m *MemStore) WriteU8(addr int, v uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if addr < 0 || addr >= Size {
		return fmt.Errorf("eeprom: address %d out of range", addr)
	}
	m.data[addr] = v
	return nil
}

func (m *MemStore) ReadU16(addr int) (uint16, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if addr < 0 || addr+1 >= Size {
		return 0, fmt.Errorf("eeprom: address %d out of range", addr)
	}
	return binary.LittleEndian.Uint16(m.data[addr:]), nil
}

func (m *MemStore) WriteU16(addr int, v uint16) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if addr < 0 || addr+1 >= Size {
		return fmt.Errorf("eeprom: address %d out of range", addr)
	}
	binary.LittleEndian.PutUint16(m.data[addr:], v)
	return nil
}

// FileStore persists the store image to a file, written through on every
// write so settings survive an unclean exit.
type FileStore struct {
	mu   sync.Mutex
	path string
	data [Size]byte
}

// OpenFile loads the store image from path, creating a zeroed image if the
// file does not exist yet.
func OpenFile(path string) (*FileStore, error) {
	s := &FileStore{path: path}
	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// first run, image stays zeroed
	case err != nil:
		return nil, fmt.Errorf("eeprom: reading %s: %w", path, err)
	default:
		copy(s.data[:], raw)
	}
	return s, nil
}

func (s *FileStore) flush() error {
	if err := os.WriteFile(s.path, s.data[:], 0o644); err != nil {
		return fmt.Errorf("eeprom: writing %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) ReadU8(addr int) (uint8, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if addr < 0 || addr >= Size {
		return 0, fmt.Errorf("eeprom: address %d out of range", addr)
	}
	return s.data[addr], nil
}

func (s *FileStore) WriteU8(addr int, v uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if addr < 0 || addr >= Size {
		return fmt.Errorf("eeprom: address %d out of range", addr)
	}
	s.data[addr] = v
	return s.flush()
}

func (s *FileStore) ReadU16(addr int) (uint16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if addr < 0 || addr+1 >= Size {
		return 0, fmt.Errorf("eeprom: address %d out of range", addr)
	}
	return binary.LittleEndian.Uint16(s.data[addr:]), nil
}

func (s *FileStore) WriteU16(addr int, v uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if addr < 0 || addr+1 >= Size {
		return fmt.Errorf("eeprom: address %d out of range", addr)
	}
	binary.LittleEndian.PutUint16(s.data[addr:], v)
	return s.flush()
}
