package usbhost

import (
	"testing"

	"github.com/google/gousb"
	"github.com/stretchr/testify/assert"

	"github.com/padlink/padlink/xinput"
)

func TestMatchSignature(t *testing.T) {
	tests := []struct {
		name                      string
		vendor                    gousb.ID
		class, subclass, protocol uint8
		family                    xinput.Family
		matched                   bool
	}{
		{"wireless receiver", 0x045E, 0xFF, 0x5D, 0x81, xinput.Family360Wireless, true},
		{"wired 360", 0x045E, 0xFF, 0x5D, 0x01, xinput.Family360Wired, true},
		{"xbox one", 0x045E, 0xFF, 0x47, 0xD0, xinput.FamilyXboxOne, true},
		{"original xbox", 0x045E, 0x58, 0x42, 0x00, xinput.FamilyXboxOG, true},
		{"boot keyboard", 0x046D, 0x03, 0x01, 0x01, xinput.FamilyKeyboard, true},
		{"boot mouse", 0x046D, 0x03, 0x01, 0x02, xinput.FamilyMouse, true},
		{"8bitdo idle interface", vendor8BitDo, 0x03, 0x00, 0x00, xinput.Family8BitDoIdle, true},
		{"bare hid from another vendor", 0x046D, 0x03, 0x00, 0x00, xinput.FamilyUnknown, false},
		{"mass storage", 0x0781, 0x08, 0x06, 0x50, xinput.FamilyUnknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			family, ok := matchSignature(tt.vendor, tt.class, tt.subclass, tt.protocol)
			assert.Equal(t, tt.matched, ok)
			assert.Equal(t, tt.family, family)
		})
	}
}

func TestHidFamily(t *testing.T) {
	assert.True(t, hidFamily(xinput.FamilyKeyboard))
	assert.True(t, hidFamily(xinput.FamilyMouse))
	assert.True(t, hidFamily(xinput.Family8BitDoIdle))
	assert.False(t, hidFamily(xinput.Family360Wired))
	assert.False(t, hidFamily(xinput.FamilyXboxOG))
}
