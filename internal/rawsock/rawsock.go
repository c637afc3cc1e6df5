// Package rawsock captures raw TCP/IP packets from the kernel so they can
// be fed to the segment parser. Capture is only implemented for Linux,
// other platforms get a stub that fails on Open.
package rawsock

import "errors"

// Possible return errors
var (
	ErrCreateSocket = errors.New("cannot create raw socket")
	ErrApplyFilter  = errors.New("cannot apply bpf filter")
	ErrUnsupported  = errors.New("raw capture is not supported on this platform")
)
