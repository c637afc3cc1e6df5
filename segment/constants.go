package segment

// Header length bounds. The data offset field counts 32-bit words, so a
// well formed header length is always a multiple of 4 in this range.
const (
	// MinHeaderLen is the length of a TCP header carrying no options
	MinHeaderLen = 20

	// MaxHeaderLen is the largest length the 4-bit data offset can express
	MaxHeaderLen = 60
)

// TCP Header field position constants
const (
	// tcpSourcePortPos is the location of source port
	tcpSourcePortPos = 0

	// tcpDestPortPos is the location of destination port
	tcpDestPortPos = 2

	// tcpSeqPos is the location of seq
	tcpSeqPos = 4

	// tcpAckPos is the location of ack
	tcpAckPos = 8

	// tcpDataOffsetPos is the location of the TCP data offset
	tcpDataOffsetPos = 12

	// tcpFlagsOffsetPos is the location of the TCP flags
	tcpFlagsOffsetPos = 13

	// tcpWindowPos is the location of the window size
	tcpWindowPos = 14

	// tcpChecksumPos is the location of TCP checksum
	tcpChecksumPos = 16

	// tcpUrgentPtrPos is the location of the urgent pointer
	tcpUrgentPtrPos = 18

	// tcpOptionPos is where the option region begins
	tcpOptionPos = 20
)

// TCP Header masks
const (
	// tcpDataOffsetMask is a mask for TCP data offset field
	tcpDataOffsetMask = 0xF0

	// tcpFlagsMask keeps the six flag bits of the flags byte
	tcpFlagsMask = 0x3F
)

// IP protocol numbers
const (
	// IPProtocolTCP defines the constant for TCP protocol number
	IPProtocolTCP = 6
)

// Pseudo-header lengths per IP version
const (
	// pseudoHeaderV4Len is the IPv4 pseudo-header length
	pseudoHeaderV4Len = 12

	// pseudoHeaderV6Len is the IPv6 pseudo-header length
	pseudoHeaderV6Len = 40
)
