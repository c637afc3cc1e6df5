package collector

import (
	"net"
	"strings"
	"testing"

	"go.kyrene.io/tcplens/segment"
)

func TestNewFlowRecord(t *testing.T) {
	type args struct {
		source *EndPoint
		dest   *EndPoint
		flags  segment.Flags
		opts   []FlowRecordOption
	}
	tests := []struct {
		name       string
		args       args
		wantErr    error
		wantReason string
		wantOK     bool
	}{
		{
			name: "valid record",
			args: args{
				source: NewEndPoint(net.ParseIP("10.0.0.1"), 40000),
				dest:   NewEndPoint(net.ParseIP("10.0.0.2"), 80),
				flags:  segment.FlagSYN,
			},
			wantErr:    nil,
			wantReason: FlowAccept,
			wantOK:     true,
		},
		{
			name: "missing source",
			args: args{
				source: nil,
				dest:   NewEndPoint(net.ParseIP("10.0.0.2"), 80),
			},
			wantErr: ErrFlowRecordInvalidSrc,
		},
		{
			name: "source without address",
			args: args{
				source: &EndPoint{Port: 40000},
				dest:   NewEndPoint(net.ParseIP("10.0.0.2"), 80),
			},
			wantErr: ErrFlowRecordInvalidSrc,
		},
		{
			name: "missing destination",
			args: args{
				source: NewEndPoint(net.ParseIP("10.0.0.1"), 40000),
				dest:   nil,
			},
			wantErr: ErrFlowRecordInvalidDest,
		},
		{
			name: "bad checksum verdict",
			args: args{
				source: NewEndPoint(net.ParseIP("10.0.0.1"), 40000),
				dest:   NewEndPoint(net.ParseIP("10.0.0.2"), 80),
				opts:   []FlowRecordOption{OptionChecksumVerdict(false)},
			},
			wantErr:    nil,
			wantReason: ChecksumBad,
			wantOK:     false,
		},
		{
			name: "explicit drop reason",
			args: args{
				source: NewEndPoint(net.ParseIP("10.0.0.1"), 40000),
				dest:   NewEndPoint(net.ParseIP("10.0.0.2"), 80),
				opts:   []FlowRecordOption{OptionDropReason(InvalidOptions)},
			},
			wantErr:    nil,
			wantReason: InvalidOptions,
			wantOK:     true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewFlowRecord(tt.args.source, tt.args.dest, tt.args.flags, tt.args.opts...)
			if err != tt.wantErr {
				t.Fatalf("NewFlowRecord() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if r.ID == "" {
				t.Error("NewFlowRecord() should assign a record ID")
			}
			if r.Count != 1 {
				t.Errorf("NewFlowRecord() count = %d, want 1", r.Count)
			}
			if r.DropReason != tt.wantReason {
				t.Errorf("NewFlowRecord() mode = %s, want %s", r.DropReason, tt.wantReason)
			}
			if r.ChecksumOK != tt.wantOK {
				t.Errorf("NewFlowRecord() checksumok = %t, want %t", r.ChecksumOK, tt.wantOK)
			}
		})
	}
}

func TestStatsFlowHash(t *testing.T) {
	tests := []struct {
		name     string
		first    *FlowRecord
		second   *FlowRecord
		wantSame bool
	}{
		{
			name: "same tuple hashes the same across records",
			first: &FlowRecord{
				Source:      NewEndPoint(net.ParseIP("10.0.0.1"), 40000),
				Destination: NewEndPoint(net.ParseIP("10.0.0.2"), 80),
			},
			second: &FlowRecord{
				Source:      NewEndPoint(net.ParseIP("10.0.0.1"), 40000),
				Destination: NewEndPoint(net.ParseIP("10.0.0.2"), 80),
			},
			wantSame: true,
		},
		{
			name: "different destination port",
			first: &FlowRecord{
				Source:      NewEndPoint(net.ParseIP("10.0.0.1"), 40000),
				Destination: NewEndPoint(net.ParseIP("10.0.0.2"), 80),
			},
			second: &FlowRecord{
				Source:      NewEndPoint(net.ParseIP("10.0.0.1"), 40000),
				Destination: NewEndPoint(net.ParseIP("10.0.0.2"), 443),
			},
			wantSame: false,
		},
		{
			name: "different source address",
			first: &FlowRecord{
				Source:      NewEndPoint(net.ParseIP("10.0.0.1"), 40000),
				Destination: NewEndPoint(net.ParseIP("10.0.0.2"), 80),
			},
			second: &FlowRecord{
				Source:      NewEndPoint(net.ParseIP("10.0.0.3"), 40000),
				Destination: NewEndPoint(net.ParseIP("10.0.0.2"), 80),
			},
			wantSame: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := StatsFlowHash(tt.first)
			second := StatsFlowHash(tt.second)
			if first == "" || second == "" {
				t.Fatal("StatsFlowHash() returned an empty hash")
			}
			if (first == second) != tt.wantSame {
				t.Errorf("StatsFlowHash() first = %s, second = %s, wantSame %t", first, second, tt.wantSame)
			}
		})
	}
}

func TestFlowRecordString(t *testing.T) {

	r, err := NewFlowRecord(
		NewEndPoint(net.ParseIP("10.0.0.1"), 40000),
		NewEndPoint(net.ParseIP("10.0.0.2"), 80),
		segment.FlagSYN|segment.FlagACK,
		OptionChecksumVerdict(true),
	)
	if err != nil {
		t.Fatalf("NewFlowRecord() error = %v", err)
	}

	out := r.String()
	for _, want := range []string{"10.0.0.1:40000", "10.0.0.2:80", "ACK|SYN", "mode:accept"} {
		if !strings.Contains(out, want) {
			t.Errorf("String() = %s, missing %s", out, want)
		}
	}
}

func TestDefaultCollector(t *testing.T) {

	// The default collector must accept records without doing anything.
	c := NewDefaultCollector()
	c.CollectFlowEvent(&FlowRecord{})
}
