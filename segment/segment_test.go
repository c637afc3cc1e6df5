package segment

import (
	"errors"
	"net"
	"testing"
)

type sampleSegmentName int

const (
	synGoodChecksum sampleSegmentName = iota
	synBadChecksum
	loopbackAddress = "127.0.0.1"
)

// Test segments are TCP bytes only, IP header already stripped by the
// network layer.
var testSegments = [][]byte{
	// SYN segment captured from 'telnet localhost 99'.
	// Everything is correct.
	{0x8c, 0x80, 0x00, 0x63, 0x2c, 0x32, 0xa8, 0xd6, 0x00, 0x00, 0x00,
		0x00, 0xa0, 0x02, 0xaa, 0xaa, 0xfe, 0x88, 0x00, 0x00, 0x02, 0x04, 0xff, 0xd7, 0x04, 0x02,
		0x08, 0x0a, 0xff, 0xff, 0x44, 0xba, 0x00, 0x00, 0x00, 0x00, 0x01, 0x03, 0x03, 0x07},

	// SYN segment captured from 'telnet localhost 99'.
	// TCP checksum is wrong.
	{0xb2, 0x64, 0x00, 0x63, 0x58, 0xd1, 0x24, 0xd9, 0x00, 0x00, 0x00,
		0x00, 0xa0, 0x02, 0xaa, 0xaa, 0xfe, 0x30, 0x00, 0x00, 0x02, 0x04, 0xff, 0xd7, 0x04, 0x02,
		0x08, 0x0a, 0x00, 0xc5, 0x8e, 0xf7, 0x00, 0x00, 0x00, 0x00, 0x01, 0x03, 0x03, 0x07},
}

func getTestSegment(t *testing.T, name sampleSegmentName) *Segment {

	buffer := testSegments[name]

	pseudo, err := PseudoHeader(net.ParseIP(loopbackAddress), net.ParseIP(loopbackAddress), uint16(len(buffer)))
	if err != nil {
		t.Fatalf("Cannot build pseudo header: %s", err)
	}

	seg, err := NewWithPseudoHeader(buffer, pseudo)
	if err != nil {
		t.Fatalf("Cannot parse test segment: %s", err)
	}

	return seg
}

// minimalHeader returns a 20 byte header with the given flags byte and a
// data offset of 5 words.
func minimalHeader(flags byte) []byte {

	header := make([]byte, MinHeaderLen)
	header[tcpDataOffsetPos] = 5 << 4
	header[tcpFlagsOffsetPos] = flags
	return header
}

func TestGoodSegment(t *testing.T) {

	t.Parallel()
	seg := getTestSegment(t, synGoodChecksum)
	t.Log(seg.String())

	if seg.SourcePort() != 35968 {
		t.Error("Unexpected source port")
	}

	if seg.DestinationPort() != 99 {
		t.Error("Unexpected destination port")
	}

	if seg.SequenceNumber() != 741517526 {
		t.Error("Unexpected sequence number")
	}

	if seg.AckNumber() != 0 {
		t.Error("Unexpected ack number")
	}

	if seg.DataOffset() != 40 {
		t.Error("Unexpected data offset")
	}

	if !seg.SYN() || seg.ACK() || seg.URG() || seg.PSH() || seg.RST() || seg.FIN() {
		t.Error("Expected a pure SYN segment")
	}

	if seg.WindowSize() != 43690 {
		t.Error("Unexpected window size")
	}

	if seg.Checksum() != 0xfe88 {
		t.Error("Unexpected checksum field")
	}

	if seg.UrgentPointer() != 0 {
		t.Error("Unexpected urgent pointer")
	}

	if len(seg.Payload()) != 0 {
		t.Error("Test SYN segment should have no TCP payload")
	}

	ok, err := seg.VerifyChecksum()
	if err != nil {
		t.Errorf("Checksum verification failed: %s", err)
	}
	if !ok {
		t.Error("TCP checksum failed")
	}
}

func TestBadTCPChecksum(t *testing.T) {

	t.Parallel()
	seg := getTestSegment(t, synBadChecksum)

	ok, err := seg.VerifyChecksum()
	if err != nil {
		t.Errorf("Checksum verification failed: %s", err)
	}
	if ok {
		t.Error("Expected TCP checksum failure")
	}
}

func TestBufferTooShort(t *testing.T) {

	t.Parallel()
	_, err := New(testSegments[synGoodChecksum][:10])
	if !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("Expected ErrMalformedHeader, got %v", err)
	}
}

func TestDeclaredOffsetBeyondBuffer(t *testing.T) {

	t.Parallel()

	// 20 bytes of buffer whose data offset claims a 40 byte header.
	_, err := New(testSegments[synGoodChecksum][:MinHeaderLen])
	if !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("Expected ErrMalformedHeader, got %v", err)
	}
}

func TestOffsetBelowMinimum(t *testing.T) {

	t.Parallel()

	header := minimalHeader(0)
	header[tcpDataOffsetPos] = 4 << 4

	_, err := New(header)
	if !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("Expected ErrMalformedHeader, got %v", err)
	}
}

func TestMissingPseudoHeader(t *testing.T) {

	t.Parallel()
	seg, err := New(testSegments[synGoodChecksum])
	if err != nil {
		t.Fatalf("Cannot parse test segment: %s", err)
	}

	if _, err := seg.ComputeChecksum(); !errors.Is(err, ErrMissingPseudoHeader) {
		t.Errorf("Expected ErrMissingPseudoHeader, got %v", err)
	}

	if _, err := seg.VerifyChecksum(); !errors.Is(err, ErrMissingPseudoHeader) {
		t.Errorf("Expected ErrMissingPseudoHeader, got %v", err)
	}
}

func TestSynOnlyNoOptions(t *testing.T) {

	t.Parallel()
	seg, err := New(minimalHeader(0x02))
	if err != nil {
		t.Fatalf("Cannot parse header: %s", err)
	}

	if seg.DataOffset() != MinHeaderLen {
		t.Errorf("DataOffset() = %d, expected %d", seg.DataOffset(), MinHeaderLen)
	}
	if !seg.SYN() {
		t.Error("SYN flag should be set")
	}
	if seg.URG() || seg.ACK() || seg.PSH() || seg.RST() || seg.FIN() {
		t.Error("No other flag should be set")
	}

	options, err := seg.Options()
	if err != nil {
		t.Errorf("Unexpected option error: %s", err)
	}
	if len(options) != 0 {
		t.Error("A 20 byte header has no options")
	}
}

// TestFlagBits walks all 64 combinations of the six flag bits, with and
// without the reserved high bits of the byte set, and checks every
// accessor against the corresponding bit.
func TestFlagBits(t *testing.T) {

	t.Parallel()

	for bits := 0; bits < 64; bits++ {
		for _, reserved := range []byte{0x00, 0xc0} {
			seg, err := New(minimalHeader(byte(bits) | reserved))
			if err != nil {
				t.Fatalf("Cannot parse header: %s", err)
			}

			if seg.Flags() != Flags(bits) {
				t.Errorf("Flags() = %#x, expected %#x", byte(seg.Flags()), bits)
			}

			checks := []struct {
				got  bool
				want bool
			}{
				{seg.FIN(), bits&0x01 != 0},
				{seg.SYN(), bits&0x02 != 0},
				{seg.RST(), bits&0x04 != 0},
				{seg.PSH(), bits&0x08 != 0},
				{seg.ACK(), bits&0x10 != 0},
				{seg.URG(), bits&0x20 != 0},
			}
			for i, c := range checks {
				if c.got != c.want {
					t.Errorf("Flag bit %d mismatch for byte %#x", i, byte(bits)|reserved)
				}
			}
		}
	}
}

func TestPayloadSplit(t *testing.T) {

	t.Parallel()

	buffer := append(minimalHeader(0x18), []byte("hello")...)
	seg, err := New(buffer)
	if err != nil {
		t.Fatalf("Cannot parse segment: %s", err)
	}

	if seg.DataOffset() != MinHeaderLen {
		t.Error("Unexpected data offset")
	}
	if string(seg.Payload()) != "hello" {
		t.Error("Unexpected payload")
	}
	if len(seg.OptionData()) != 0 {
		t.Error("Unexpected option region")
	}
}

// The view borrows the buffer, so field reads follow buffer mutations.
func TestViewBorrowsBuffer(t *testing.T) {

	t.Parallel()

	buffer := minimalHeader(0)
	seg, err := New(buffer)
	if err != nil {
		t.Fatalf("Cannot parse header: %s", err)
	}

	if seg.WindowSize() != 0 {
		t.Error("Unexpected window size")
	}

	buffer[tcpWindowPos] = 0x12
	buffer[tcpWindowPos+1] = 0x34

	if seg.WindowSize() != 0x1234 {
		t.Error("View should reflect buffer mutation")
	}
}
