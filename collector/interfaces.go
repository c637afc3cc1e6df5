// Package collector provides the interfaces and records used to report
// observed TCP flows to whoever wants to consume them.
package collector

// Flow event description
const (
	// FlowAccept logs that a flow was observed and parsed cleanly
	FlowAccept = "accept"

	// InvalidHeader indicates that the TCP header was not parseable.
	InvalidHeader = "header"

	// InvalidOptions indicates that the TCP option region was not parseable.
	InvalidOptions = "options"

	// ChecksumBad indicates that the checksum field did not match the
	// recomputed checksum.
	ChecksumBad = "checksum"

	// PacketDrop indicates a single packet drop
	PacketDrop = "packetdrop"
)

// EventCollector is the interface for collecting events.
type EventCollector interface {

	// CollectFlowEvent collects a flow event.
	CollectFlowEvent(record *FlowRecord)
}
