package xinput

// HostTransport is the upstream transaction primitive: a bidirectional
// byte-buffer transfer keyed by device address and endpoint. Implementations
// are expected to block for a small bounded duration only; a hard timeout
// discipline is the transport's responsibility.
type HostTransport interface {
	// Out writes data to the device's OUT endpoint.
	Out(addr, ep uint8, data []byte) error
	// In reads from the device's IN endpoint into buf and returns the number
	// of bytes received.
	In(addr, ep uint8, buf []byte) (int, error)
}

// Endpoint describes one claimed interrupt IN/OUT pipe pair to poll each
// tick. For wireless receivers the controller behind a pipe may not be
// allocated yet; presence packets on the IN pipe announce it.
type Endpoint struct {
	Addr   uint8
	In     uint8
	Out    uint8
	Family Family
}

// InquirePresent asks a wireless receiver pipe to announce whether a
// controller is currently bound to it. The answer arrives as a presence
// packet on the IN pipe.
func InquirePresent(ep Endpoint, t HostTransport) error {
	return t.Out(ep.Addr, ep.Out, wireless360InquirePresent)
}
