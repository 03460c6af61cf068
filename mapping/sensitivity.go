package mapping

import (
	"log/slog"

	"github.com/padlink/padlink/internal/eeprom"
	"github.com/padlink/padlink/xinput"
)

// Settings store layout: a magic byte marking the store as initialized,
// then the persisted pointer sensitivity.
const (
	magicAddr       = 0
	magicValue      = 0xAB
	sensitivityAddr = 1

	DefaultSensitivity = 400
)

// Sensitivity divisors selectable with the orange modifier plus a digit key.
// Larger divisors move the pointer slower.
var sensitivityPresets = [...]uint16{1200, 1000, 800, 650, 400, 350, 300, 250, 200}

// Digit key codes are not contiguous, so preset selection indexes this table.
var digitKeys = [...]uint8{
	xinput.Chatpad1, xinput.Chatpad2, xinput.Chatpad3,
	xinput.Chatpad4, xinput.Chatpad5, xinput.Chatpad6,
	xinput.Chatpad7, xinput.Chatpad8, xinput.Chatpad9,
}

// Sensitivity is the persisted pointer sensitivity, shared across all slots.
type Sensitivity struct {
	store  eeprom.Store
	value  uint16
	logger *slog.Logger
}

// LoadSensitivity reads the persisted value, initializing the store with the
// default on first run or when the magic byte does not match.
func LoadSensitivity(store eeprom.Store, logger *slog.Logger) *Sensitivity {
	s := &Sensitivity{store: store, value: DefaultSensitivity, logger: logger}

	magic, err := store.ReadU8(magicAddr)
	if err != nil || magic != magicValue {
		if err := store.WriteU8(magicAddr, magicValue); err != nil {
			logger.Warn("initializing settings store", "error", err)
		}
		if err := store.WriteU16(sensitivityAddr, s.value); err != nil {
			logger.Warn("persisting default sensitivity", "error", err)
		}
		return s
	}

	v, err := store.ReadU16(sensitivityAddr)
	if err != nil {
		logger.Warn("reading persisted sensitivity", "error", err)
		return s
	}
	if !validSensitivity(v) {
		logger.Warn("persisted sensitivity out of range, using default", "value", v)
		if err := store.WriteU16(sensitivityAddr, s.value); err != nil {
			logger.Warn("persisting default sensitivity", "error", err)
		}
		return s
	}
	s.value = v
	return s
}

// validSensitivity reports whether v is one of the selectable presets. The
// pointer math divides by the persisted value, so a corrupt image must never
// be accepted.
func validSensitivity(v uint16) bool {
	for _, p := range sensitivityPresets {
		if v == p {
			return true
		}
	}
	return false
}

// Value returns the current sensitivity divisor.
func (s *Sensitivity) Value() uint16 { return s.value }

// set applies a new divisor, persisting only on change to spare the store.
func (s *Sensitivity) set(v uint16) {
	if s.value == v {
		return
	}
	s.value = v
	if err := s.store.WriteU16(sensitivityAddr, v); err != nil {
		s.logger.Warn("persisting sensitivity", "error", err)
		return
	}
	s.logger.Info("pointer sensitivity changed", "divisor", v)
}
