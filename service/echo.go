// Package service implements user space workers that consume raw TCP
// segments from a bound connection. The only worker right now is an
// RFC 862 style echo responder used to exercise the segment parser
// against live traffic.
package service

import (
	"fmt"
	"net"
	"time"

	"github.com/bluele/gcache"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"go.kyrene.io/tcplens/collector"
	"go.kyrene.io/tcplens/segment"
)

const (
	flowCacheSize = 2048
	flowCacheTTL  = 20 * time.Second
)

// Tuple identifies the two ends of a flow as seen from the local side.
type Tuple struct {
	LocalIP    net.IP
	RemoteIP   net.IP
	LocalPort  uint16
	RemotePort uint16
}

func (t Tuple) String() string {
	return fmt.Sprintf("%s:%d <- %s:%d", t.LocalIP.String(), t.LocalPort, t.RemoteIP.String(), t.RemotePort)
}

// Conn delivers raw TCP segments to a worker. Receive blocks until a
// segment arrives and returns its bytes together with the flow tuple.
// Implementations own the underlying socket. Receive must fail after
// Close so that workers can terminate.
type Conn interface {
	Receive() ([]byte, Tuple, error)
	Send(payload []byte, to Tuple) error
	Close() error
}

// Echo parses every received segment, reports it to the collector and
// echoes the payload back to the sender.
type Echo struct {
	conn      Conn
	events    collector.EventCollector
	flowCache gcache.Cache
}

// NewEcho creates an echo worker on top of the given connection. A nil
// events collector defaults to the no-op collector.
func NewEcho(conn Conn, events collector.EventCollector) *Echo {
	if events == nil {
		events = collector.NewDefaultCollector()
	}
	return &Echo{
		conn:   conn,
		events: events,
		// flowCache keeps the per flow segment counts while the flow is active
		flowCache: gcache.New(flowCacheSize).LRU().Expiration(flowCacheTTL).Build(),
	}
}

// Run receives segments until the connection fails. Malformed input is
// reported and skipped, it never terminates the loop. Run returns the
// receive error, so a closed connection is the way to stop the worker.
func (e *Echo) Run() error {
	for {
		buffer, tuple, err := e.conn.Receive()
		if err != nil {
			return errors.Wrap(err, "echo service receive")
		}

		pseudo, err := segment.PseudoHeader(tuple.RemoteIP, tuple.LocalIP, uint16(len(buffer)))
		if err != nil {
			zap.L().Error("Cannot build pseudo header for flow",
				zap.String("flow", tuple.String()),
				zap.Error(err),
			)
			continue
		}

		seg, err := segment.NewWithPseudoHeader(buffer, pseudo)
		if err != nil {
			zap.L().Debug("Dropping malformed segment",
				zap.String("flow", tuple.String()),
				zap.Error(err),
			)
			e.collect(tuple, 0, collector.OptionDropReason(collector.InvalidHeader))
			continue
		}

		// The pseudo header is always set here, so the verdict cannot fail.
		verdict, _ := seg.VerifyChecksum()

		zap.L().Debug("Received TCP segment",
			zap.String("flow", tuple.String()),
			zap.String("segment", seg.String()),
		)

		opts := []collector.FlowRecordOption{collector.OptionChecksumVerdict(verdict)}
		if _, optErr := seg.Options(); optErr != nil {
			zap.L().Debug("Segment carries malformed options",
				zap.String("flow", tuple.String()),
				zap.Error(optErr),
			)
			opts = append(opts, collector.OptionDropReason(collector.InvalidOptions))
		}
		e.collect(tuple, seg.Flags(), opts...)

		if !verdict {
			continue
		}

		payload := seg.Payload()
		if len(payload) == 0 {
			continue
		}

		if err := e.conn.Send(payload, tuple); err != nil {
			zap.L().Error("Failed to echo payload",
				zap.String("flow", tuple.String()),
				zap.Error(err),
			)
			continue
		}

		zap.L().Debug("Echoed payload back",
			zap.String("flow", tuple.String()),
			zap.Int("bytes", len(payload)),
		)
	}
}

// Stop closes the connection, which unblocks Run.
func (e *Echo) Stop() {
	_ = e.conn.Close()
}

func (e *Echo) collect(tuple Tuple, flags segment.Flags, opts ...collector.FlowRecordOption) {

	record, err := collector.NewFlowRecord(
		collector.NewEndPoint(tuple.RemoteIP, tuple.RemotePort),
		collector.NewEndPoint(tuple.LocalIP, tuple.LocalPort),
		flags,
		opts...,
	)
	if err != nil {
		zap.L().Error("Cannot create flow record", zap.Error(err))
		return
	}

	hash := collector.StatsFlowHash(record)
	if data, _ := e.flowCache.Get(hash); data != nil {
		record.Count = data.(int) + 1
	}
	if err := e.flowCache.Set(hash, record.Count); err != nil {
		zap.L().Error("Failed to cache flow", zap.Error(err))
	}

	e.events.CollectFlowEvent(record)
}
