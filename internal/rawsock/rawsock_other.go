// +build !linux

package rawsock

// Sniffer is not available outside of Linux.
type Sniffer struct{}

// Open always fails on this platform.
func Open(port uint16) (*Sniffer, error) {
	return nil, ErrUnsupported
}

// Next always fails on this platform.
func (s *Sniffer) Next() ([]byte, error) {
	return nil, ErrUnsupported
}

// Close is a no-op on this platform.
func (s *Sniffer) Close() error {
	return nil
}
