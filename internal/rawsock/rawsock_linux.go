// +build linux

package rawsock

import (
	"fmt"
	"io"
	"unsafe"

	"golang.org/x/net/bpf"
	"golang.org/x/sys/unix"
)

const (
	// lenIPHeader is the size of an IPv4 header without options. The port
	// filter assumes this size, packets with IP options slip through the
	// filter and are sorted out by the caller.
	lenIPHeader = 20

	tcpDestPortOff = 2

	maxSegmentBuf = 65535
)

// Sniffer reads whole IPv4 packets carrying TCP from a raw socket.
type Sniffer struct {
	fd     int
	buffer []byte
}

// Open creates the capture socket. A non zero port attaches a BPF filter
// that only passes segments addressed to that port.
func Open(port uint16) (*Sniffer, error) {

	// AF_INET rather than AF_PACKET for maximum compatibility. The kernel
	// delivers the full IP packet including the IP header.
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_RAW, unix.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateSocket, err)
	}

	if port != 0 {
		if err := attachPortFilter(fd, port); err != nil {
			_ = unix.Close(fd)
			return nil, err
		}
	}

	return &Sniffer{
		fd:     fd,
		buffer: make([]byte, maxSegmentBuf),
	}, nil
}

// Next blocks until a packet arrives and returns a copy of its bytes,
// IP header included. It returns io.EOF when the socket is closed.
func (s *Sniffer) Next() ([]byte, error) {
	for {
		n, err := unix.Read(s.fd, s.buffer)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return nil, err
		}
		if n == 0 {
			return nil, io.EOF
		}
		return append([]byte{}, s.buffer[:n]...), nil
	}
}

// Close closes the capture socket and unblocks Next.
func (s *Sniffer) Close() error {
	return unix.Close(s.fd)
}

func attachPortFilter(fd int, port uint16) error {

	assembled, err := bpf.Assemble(portFilter(port))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrApplyFilter, err)
	}

	program := unix.SockFprog{
		Len:    uint16(len(assembled)),
		Filter: (*unix.SockFilter)(unsafe.Pointer(&assembled[0])),
	}
	if err := unix.SetsockoptSockFprog(fd, unix.SOL_SOCKET, unix.SO_ATTACH_FILTER, &program); err != nil {
		return fmt.Errorf("%w: %v", ErrApplyFilter, err)
	}
	return nil
}

// portFilter matches the TCP destination port assuming a 20 byte IP header.
func portFilter(port uint16) []bpf.Instruction {
	return []bpf.Instruction{
		bpf.LoadAbsolute{Off: lenIPHeader + tcpDestPortOff, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(port), SkipFalse: 1},
		bpf.RetConstant{Val: maxSegmentBuf},
		bpf.RetConstant{Val: 0x0},
	}
}
