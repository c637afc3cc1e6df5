// Package segmentgen generates TCP segments with correct checksums for
// tests, serialized through gopacket so the bytes come from an
// implementation independent of the parsing code under test.
package segmentgen

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Options configures a single generated segment.
type Options struct {
	SrcIP   string
	DstIP   string
	SrcPort uint16
	DstPort uint16
	Seq     uint32
	Ack     uint32

	SYN bool
	ACK bool
	PSH bool
	RST bool
	FIN bool
	URG bool

	Window     uint16
	TCPOptions []layers.TCPOption
	Payload    []byte
}

// TCPSegment serializes a TCP segment over IPv4 or IPv6, letting gopacket
// compute the checksum, and returns the raw TCP bytes together with the
// matching pseudo-header.
func TCPSegment(opts Options) ([]byte, []byte, error) {

	src := net.ParseIP(opts.SrcIP)
	dst := net.ParseIP(opts.DstIP)
	if src == nil || dst == nil {
		return nil, nil, fmt.Errorf("invalid addresses: src=%q dst=%q", opts.SrcIP, opts.DstIP)
	}

	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(opts.SrcPort),
		DstPort: layers.TCPPort(opts.DstPort),
		Seq:     opts.Seq,
		Ack:     opts.Ack,
		SYN:     opts.SYN,
		ACK:     opts.ACK,
		PSH:     opts.PSH,
		RST:     opts.RST,
		FIN:     opts.FIN,
		URG:     opts.URG,
		Window:  opts.Window,
		Options: opts.TCPOptions,
	}

	buffer := gopacket.NewSerializeBuffer()
	serializeOpts := gopacket.SerializeOptions{
		FixLengths:       true,
		ComputeChecksums: true,
	}

	if src4, dst4 := src.To4(), dst.To4(); src4 != nil && dst4 != nil {
		ip := &layers.IPv4{
			Version:  4,
			IHL:      5,
			TTL:      64,
			Protocol: layers.IPProtocolTCP,
			SrcIP:    src4,
			DstIP:    dst4,
		}
		if err := tcp.SetNetworkLayerForChecksum(ip); err != nil {
			return nil, nil, err
		}
		if err := gopacket.SerializeLayers(buffer, serializeOpts, ip, tcp, gopacket.Payload(opts.Payload)); err != nil {
			return nil, nil, err
		}

		tcpBytes := buffer.Bytes()[20:]
		return tcpBytes, pseudoHeaderV4(src4, dst4, uint16(len(tcpBytes))), nil
	}

	ip := &layers.IPv6{
		Version:    6,
		HopLimit:   64,
		NextHeader: layers.IPProtocolTCP,
		SrcIP:      src.To16(),
		DstIP:      dst.To16(),
	}
	if err := tcp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, nil, err
	}
	if err := gopacket.SerializeLayers(buffer, serializeOpts, ip, tcp, gopacket.Payload(opts.Payload)); err != nil {
		return nil, nil, err
	}

	tcpBytes := buffer.Bytes()[40:]
	return tcpBytes, pseudoHeaderV6(src.To16(), dst.To16(), uint32(len(tcpBytes))), nil
}

func pseudoHeaderV4(src, dst net.IP, length uint16) []byte {

	buf := make([]byte, 12)
	copy(buf[0:4], src)
	copy(buf[4:8], dst)
	buf[9] = 6
	binary.BigEndian.PutUint16(buf[10:12], length)
	return buf
}

func pseudoHeaderV6(src, dst net.IP, length uint32) []byte {

	buf := make([]byte, 40)
	copy(buf[0:16], src)
	copy(buf[16:32], dst)
	binary.BigEndian.PutUint32(buf[32:36], length)
	buf[39] = 6
	return buf
}
