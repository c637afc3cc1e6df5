package segment

import (
	"bytes"
	"fmt"
	"strings"
)

var flagNames = []struct {
	mask Flags
	name string
}{
	{FlagURG, "URG"},
	{FlagACK, "ACK"},
	{FlagPSH, "PSH"},
	{FlagRST, "RST"},
	{FlagSYN, "SYN"},
	{FlagFIN, "FIN"},
}

// String renders the set flags joined by "|", most significant first.
func (f Flags) String() string {

	var set []string
	for _, fl := range flagNames {
		if f&fl.mask != 0 {
			set = append(set, fl.name)
		}
	}
	return strings.Join(set, "|")
}

// String renders a multi-line diagnostic summary of the segment: ports,
// sequence numbers, flags, window, the checksum with its verdict, header
// length and one line per decoded option. The fields are read from the
// live buffer on every call. The checksum verdict is "N/A" when the view
// has no pseudo-header to verify against.
func (s *Segment) String() string {

	var buf bytes.Buffer

	verdict := "N/A"
	if ok, err := s.VerifyChecksum(); err == nil {
		if ok {
			verdict = "OK"
		} else {
			verdict = "BAD"
		}
	}

	mark := func(set bool, name string) string {
		if set {
			return name
		}
		return "   "
	}

	buf.WriteString(strings.Repeat("-", 80))
	buf.WriteString("\n")
	buf.WriteString(fmt.Sprintf("TCP      SPORT %d  DPORT %d  SEQ %d  ACK %d  URP %d\n",
		s.SourcePort(), s.DestinationPort(), s.SequenceNumber(), s.AckNumber(), s.UrgentPointer()))
	buf.WriteString(fmt.Sprintf("         FLAGS |%s|%s|%s|%s|%s|%s|  WIN %d  CKSUM %d (%s)  HLEN %d",
		mark(s.URG(), "URG"), mark(s.ACK(), "ACK"), mark(s.PSH(), "PSH"),
		mark(s.RST(), "RST"), mark(s.SYN(), "SYN"), mark(s.FIN(), "FIN"),
		s.WindowSize(), s.Checksum(), verdict, s.DataOffset()))

	options, err := s.Options()
	for _, option := range options {
		buf.WriteString("\n         ")
		buf.WriteString(option.String())
	}
	if err != nil {
		buf.WriteString("\n         OPTS MALFORMED")
	}

	return buf.String()
}
