// Package segment supports parsing, validation and inspection of TCP
// transport segments delivered as raw byte buffers.
package segment

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Errors returned while constructing or inspecting segment views.
var (
	// ErrMalformedHeader indicates the buffer cannot hold the header it declares.
	ErrMalformedHeader = errors.New("malformed tcp header")

	// ErrMalformedOptions indicates the option region stopped making sense mid-scan.
	ErrMalformedOptions = errors.New("malformed tcp options")

	// ErrMissingPseudoHeader indicates a checksum was requested on a view
	// constructed without a pseudo-header.
	ErrMissingPseudoHeader = errors.New("missing pseudo header")
)

// Flags holds the six flag bits from the low half of header byte 13.
type Flags uint8

// TCP flag masks, in significance order from bit 5 down to bit 0.
const (
	FlagURG Flags = 0x20
	FlagACK Flags = 0x10
	FlagPSH Flags = 0x08
	FlagRST Flags = 0x04
	FlagSYN Flags = 0x02
	FlagFIN Flags = 0x01
)

// Segment is a read-only view of a single TCP segment split into its
// header and payload. The view never copies or mutates the buffer, so
// accessors always reflect the current buffer contents.
type Segment struct {
	header  []byte
	payload []byte
	pseudo  []byte
}

// New returns a Segment view over the provided bytes buffer. The buffer
// is expected to start at the first byte of the TCP header; the view
// fails with ErrMalformedHeader when the buffer is shorter than the
// header length the buffer itself declares.
// WARNING: The view borrows the bytes buffer passed. The caller has to be
// aware that any function returning a slice returns a sub-slice of that
// buffer, not a copy, and that the view never outlives the buffer.
func New(buffer []byte) (*Segment, error) {
	return NewWithPseudoHeader(buffer, nil)
}

// NewWithPseudoHeader is New with the network-layer pseudo-header
// attached, which makes checksum verification possible. The pseudo-header
// bytes are borrowed the same way the segment buffer is.
func NewWithPseudoHeader(buffer []byte, pseudoHeader []byte) (*Segment, error) {

	if len(buffer) < MinHeaderLen {
		return nil, fmt.Errorf("%w: buffer length %d less than minimum header size %d", ErrMalformedHeader, len(buffer), MinHeaderLen)
	}

	// The data offset nibble counts 32-bit words, so offset is always a
	// multiple of 4 and can never exceed MaxHeaderLen.
	offset := int((buffer[tcpDataOffsetPos]&tcpDataOffsetMask)>>4) * 4

	if offset < MinHeaderLen {
		return nil, fmt.Errorf("%w: data offset %d less than minimum header size %d", ErrMalformedHeader, offset, MinHeaderLen)
	}

	if offset > len(buffer) {
		return nil, fmt.Errorf("%w: data offset %d exceeds buffer length %d", ErrMalformedHeader, offset, len(buffer))
	}

	return &Segment{
		header:  buffer[:offset],
		payload: buffer[offset:],
		pseudo:  pseudoHeader,
	}, nil
}

// SourcePort returns the source port
func (s *Segment) SourcePort() uint16 {
	return binary.BigEndian.Uint16(s.header[tcpSourcePortPos : tcpSourcePortPos+2])
}

// DestinationPort returns the destination port
func (s *Segment) DestinationPort() uint16 {
	return binary.BigEndian.Uint16(s.header[tcpDestPortPos : tcpDestPortPos+2])
}

// SequenceNumber returns the sequence number
func (s *Segment) SequenceNumber() uint32 {
	return binary.BigEndian.Uint32(s.header[tcpSeqPos : tcpSeqPos+4])
}

// AckNumber returns the acknowledgment number
func (s *Segment) AckNumber() uint32 {
	return binary.BigEndian.Uint32(s.header[tcpAckPos : tcpAckPos+4])
}

// DataOffset returns the header length in bytes
func (s *Segment) DataOffset() int {
	return len(s.header)
}

// Flags returns the six flag bits of the flags byte. The reserved high
// bits are masked off.
func (s *Segment) Flags() Flags {
	return Flags(s.header[tcpFlagsOffsetPos]) & tcpFlagsMask
}

// URG returns true if the urgent pointer flag is set
func (s *Segment) URG() bool { return s.Flags()&FlagURG != 0 }

// ACK returns true if the acknowledgment flag is set
func (s *Segment) ACK() bool { return s.Flags()&FlagACK != 0 }

// PSH returns true if the push flag is set
func (s *Segment) PSH() bool { return s.Flags()&FlagPSH != 0 }

// RST returns true if the reset flag is set
func (s *Segment) RST() bool { return s.Flags()&FlagRST != 0 }

// SYN returns true if the synchronize flag is set
func (s *Segment) SYN() bool { return s.Flags()&FlagSYN != 0 }

// FIN returns true if the finish flag is set
func (s *Segment) FIN() bool { return s.Flags()&FlagFIN != 0 }

// WindowSize returns the window size
func (s *Segment) WindowSize() uint16 {
	return binary.BigEndian.Uint16(s.header[tcpWindowPos : tcpWindowPos+2])
}

// Checksum returns the checksum field as carried by the header
func (s *Segment) Checksum() uint16 {
	return binary.BigEndian.Uint16(s.header[tcpChecksumPos : tcpChecksumPos+2])
}

// UrgentPointer returns the urgent pointer
func (s *Segment) UrgentPointer() uint16 {
	return binary.BigEndian.Uint16(s.header[tcpUrgentPtrPos : tcpUrgentPtrPos+2])
}

// Header returns the borrowed header bytes, options included
func (s *Segment) Header() []byte {
	return s.header
}

// Payload returns the borrowed bytes past the header
func (s *Segment) Payload() []byte {
	return s.payload
}

// OptionData returns the raw option region, empty for a 20 byte header
func (s *Segment) OptionData() []byte {
	return s.header[tcpOptionPos:]
}

// Options decodes the option region into typed records in encounter
// order. The region is scanned on every call so the result always
// reflects the current buffer contents. When the region is malformed the
// options decoded before the fault are returned together with
// ErrMalformedOptions.
func (s *Segment) Options() ([]Option, error) {
	return DecodeOptions(s.header[tcpOptionPos:])
}
