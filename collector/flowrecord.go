package collector

import (
	"errors"
	"fmt"

	"github.com/rs/xid"

	"go.kyrene.io/tcplens/segment"
)

// Errors returned from flow record creation.
var (
	ErrFlowRecordInvalidSrc  = errors.New("no source or missing source address")
	ErrFlowRecordInvalidDest = errors.New("no destination or missing destination address")
)

// FlowRecord describes one observed flow for statistics.
type FlowRecord struct {
	ID          string
	Source      *EndPoint
	Destination *EndPoint
	Flags       segment.Flags
	DropReason  string
	ChecksumOK  bool
	Count       int
}

// FlowRecordOption is provided using functional arguments.
type FlowRecordOption func(*FlowRecord)

// OptionDropReason is an option to record why the segment was not usable.
func OptionDropReason(reason string) FlowRecordOption {
	return func(f *FlowRecord) {
		f.DropReason = reason
	}
}

// OptionChecksumVerdict is an option to record the checksum verdict.
func OptionChecksumVerdict(ok bool) FlowRecordOption {
	return func(f *FlowRecord) {
		f.ChecksumOK = ok
		if !ok {
			f.DropReason = ChecksumBad
		}
	}
}

// NewFlowRecord sets up a new flow record
func NewFlowRecord(source, dest *EndPoint, flags segment.Flags, opts ...FlowRecordOption) (*FlowRecord, error) {

	if source == nil || source.IP == nil {
		return nil, ErrFlowRecordInvalidSrc
	}

	if dest == nil || dest.IP == nil {
		return nil, ErrFlowRecordInvalidDest
	}

	r := &FlowRecord{
		ID:          xid.New().String(),
		Source:      source,
		Destination: dest,
		Flags:       flags,
		DropReason:  FlowAccept,
		ChecksumOK:  true,
		Count:       1,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

func (f *FlowRecord) String() string {
	return fmt.Sprintf("<flowrecord id:%s count:%d source:%s destination:%s flags:%s checksumok:%t mode:%s>",
		f.ID,
		f.Count,
		f.Source,
		f.Destination,
		f.Flags,
		f.ChecksumOK,
		f.DropReason,
	)
}
