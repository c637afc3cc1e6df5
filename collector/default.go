package collector

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash"
)

// DefaultCollector implements a default collector that discards events.
type DefaultCollector struct{}

// NewDefaultCollector returns a default implementation of an EventCollector
func NewDefaultCollector() EventCollector {
	return &DefaultCollector{}
}

// CollectFlowEvent is part of the EventCollector interface.
func (d *DefaultCollector) CollectFlowEvent(record *FlowRecord) {}

// StatsFlowHash is a hash function to hash flows over their 4-tuple.
// Addresses are hashed in 16 byte form so the 4 and 16 byte renderings
// of the same IPv4 address land in the same bucket.
func StatsFlowHash(r *FlowRecord) string {
	hash := xxhash.New()
	hash.Write(r.Source.IP.To16())      // nolint errcheck
	hash.Write(r.Destination.IP.To16()) // nolint errcheck
	port := make([]byte, 2)
	binary.BigEndian.PutUint16(port, r.Source.Port)
	hash.Write(port) // nolint errcheck
	binary.BigEndian.PutUint16(port, r.Destination.Port)
	hash.Write(port) // nolint errcheck

	return fmt.Sprintf("%d", hash.Sum64())
}
