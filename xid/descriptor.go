package xid

import "github.com/padlink/padlink/usb"

// deviceDescriptor is the descriptor set every emulated target presents.
// The console identifies the concrete accessory through the XID extended
// descriptor, not through VID/PID, so one device identity serves all types.
var deviceDescriptor = usb.Descriptor{
	Device: usb.DeviceDescriptor{
		BcdUSB:             0x0110,
		BMaxPacketSize0:    8,
		IDVendor:           0x045E,
		IDProduct:          0x0289,
		BcdDevice:          0x0121,
		BNumConfigurations: 1,
	},
	Interfaces: []usb.InterfaceConfig{
		{
			Descriptor: usb.InterfaceDescriptor{
				BInterfaceNumber:   0,
				BNumEndpoints:      2,
				BInterfaceClass:    InterfaceClass,
				BInterfaceSubClass: InterfaceSubClass,
			},
			Endpoints: []usb.EndpointDescriptor{
				{
					BEndpointAddress: 0x81,
					BMAttributes:     0x03, // interrupt
					WMaxPacketSize:   32,
					BInterval:        4,
				},
				{
					BEndpointAddress: 0x02,
					BMAttributes:     0x03,
					WMaxPacketSize:   32,
					BInterval:        4,
				},
			},
		},
	},
}

// DeviceDescriptor exposes the descriptor set so transports can advertise
// the device identity during enumeration.
func DeviceDescriptor() usb.Descriptor {
	return deviceDescriptor
}
