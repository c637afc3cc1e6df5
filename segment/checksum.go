package segment

import (
	"encoding/binary"
	"fmt"
	"net"
)

// InternetChecksum computes the 16-bit one's-complement Internet checksum
// over the logical concatenation of the given regions. The byte stream is
// summed as big-endian 16-bit words with a zero byte of padding assumed
// when the total length is odd; words may straddle region boundaries. The
// function is pure: identical inputs always produce identical results.
func InternetChecksum(regions ...[]byte) uint16 {

	sum := uint32(0)
	odd := false

	for _, region := range regions {
		sum, odd = partialChecksum(sum, odd, region)
	}

	return finalizeChecksum(sum)
}

// partialChecksum folds buf into the running sum. odd reports whether the
// stream consumed so far ends mid-word; in that case the dangling high
// byte is already in the sum and the next byte completes its word.
func partialChecksum(sum uint32, odd bool, buf []byte) (uint32, bool) {

	if odd && len(buf) > 0 {
		sum += uint32(buf[0])
		buf = buf[1:]
		odd = false
	}

	for ; len(buf) >= 2; buf = buf[2:] {
		sum += uint32(buf[0])<<8 | uint32(buf[1])
	}

	if len(buf) > 0 {
		sum += uint32(buf[0]) << 8
		odd = true
	}

	return sum, odd
}

// finalizeChecksum folds the carries back into the low 16 bits until none
// remain and complements the result. A single fold is not enough for
// arbitrary stream sizes.
func finalizeChecksum(sum uint32) uint16 {

	for sum > 0xffff {
		sum = (sum >> 16) + (sum & 0xffff)
	}

	return ^uint16(sum)
}

// PseudoHeader assembles the network-layer pseudo-header that prefixes
// the checksum stream, the way the IP layer would supply it. src and dst
// must both be IPv4 or both IPv6 addresses; length is the full segment
// length, header plus payload.
func PseudoHeader(src, dst net.IP, length uint16) ([]byte, error) {

	if s4, d4 := src.To4(), dst.To4(); s4 != nil && d4 != nil {
		buf := make([]byte, pseudoHeaderV4Len)

		// bytes 0-3: Source IP address
		copy(buf[0:4], s4)

		// bytes 4-7: Destination IP address
		copy(buf[4:8], d4)

		// byte 8: Constant zero
		buf[8] = 0

		// byte 9: Protocol (6==TCP)
		buf[9] = IPProtocolTCP

		// bytes 10,11: TCP segment size (header + payload)
		binary.BigEndian.PutUint16(buf[10:12], length)

		return buf, nil
	}

	s16, d16 := src.To16(), dst.To16()
	if s16 == nil || d16 == nil || src.To4() != nil || dst.To4() != nil {
		return nil, fmt.Errorf("mismatched or invalid addresses: src=%s dst=%s", src, dst)
	}

	buf := make([]byte, pseudoHeaderV6Len)

	// bytes 0-15: Source IP address
	copy(buf[0:16], s16)

	// bytes 16-31: Destination IP address
	copy(buf[16:32], d16)

	// bytes 32-35: TCP segment size (header + payload)
	binary.BigEndian.PutUint32(buf[32:36], uint32(length))

	// bytes 36-38: Constant zero, byte 39: Next header (6==TCP)
	buf[39] = IPProtocolTCP

	return buf, nil
}

// ComputeChecksum calculates the checksum the header should carry, from
// the pseudo-header, the header with its checksum field taken as zero,
// and the payload. The field is zeroed in a copy of the header, the view
// itself is not modified. Fails with ErrMissingPseudoHeader when the view
// has no pseudo-header attached.
func (s *Segment) ComputeChecksum() (uint16, error) {

	if s.pseudo == nil {
		return 0, ErrMissingPseudoHeader
	}

	header := append([]byte{}, s.header...)
	header[tcpChecksumPos] = 0
	header[tcpChecksumPos+1] = 0

	return InternetChecksum(s.pseudo, header, s.payload), nil
}

// VerifyChecksum returns true if the checksum field matches the
// recomputed checksum for this segment, false otherwise. A mismatch is a
// verdict, not an error; the only error is ErrMissingPseudoHeader.
func (s *Segment) VerifyChecksum() (bool, error) {

	sum, err := s.ComputeChecksum()
	if err != nil {
		return false, err
	}

	return sum == s.Checksum(), nil
}
