package segment

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"
)

// OptionKind is the kind byte that starts every TCP option.
type OptionKind byte

// Option kinds the decoder understands. Any other kind is preserved
// opaquely as a GenericOption.
const (
	OptionEndOfList     OptionKind = 0
	OptionNOP           OptionKind = 1
	OptionMSS           OptionKind = 2
	OptionWindowScale   OptionKind = 3
	OptionSACKPermitted OptionKind = 4
	OptionTimestamp     OptionKind = 8
)

// Fixed TLV lengths for the kinds decoded into typed records.
const (
	optionMSSLen           = 4
	optionWindowScaleLen   = 3
	optionSACKPermittedLen = 2
	optionTimestampLen     = 10
)

func (k OptionKind) String() string {
	switch k {
	case OptionEndOfList:
		return "EOL"
	case OptionNOP:
		return "NOP"
	case OptionMSS:
		return "MSS"
	case OptionWindowScale:
		return "WSCALE"
	case OptionSACKPermitted:
		return "SACKPERM"
	case OptionTimestamp:
		return "TIMESTAMP"
	}
	return fmt.Sprintf("UNK %d", byte(k))
}

// Option is a single decoded TCP option record.
type Option interface {
	// Kind returns the option kind byte.
	Kind() OptionKind

	// String renders the option for diagnostic output.
	String() string
}

// MSSOption advertises the maximum segment size (kind 2).
type MSSOption struct {
	Size uint16
}

// Kind implements Option.
func (o MSSOption) Kind() OptionKind { return OptionMSS }

func (o MSSOption) String() string { return fmt.Sprintf("MSS SIZE %d", o.Size) }

// WindowScaleOption carries the window scale shift count (kind 3).
type WindowScaleOption struct {
	Shift uint8
}

// Kind implements Option.
func (o WindowScaleOption) Kind() OptionKind { return OptionWindowScale }

func (o WindowScaleOption) String() string { return fmt.Sprintf("WSCALE SCALE %d", o.Shift) }

// SACKPermittedOption signals selective acknowledgment support (kind 4).
// It carries no payload.
type SACKPermittedOption struct{}

// Kind implements Option.
func (o SACKPermittedOption) Kind() OptionKind { return OptionSACKPermitted }

func (o SACKPermittedOption) String() string { return "SACKPERM" }

// TimestampOption carries the timestamp value and echo reply (kind 8).
type TimestampOption struct {
	Value     uint32
	EchoReply uint32
}

// Kind implements Option.
func (o TimestampOption) Kind() OptionKind { return OptionTimestamp }

func (o TimestampOption) String() string {
	return fmt.Sprintf("TIMESTAMP TSVAL %d TSECR %d", o.Value, o.EchoReply)
}

// GenericOption carries an unrecognized or undecodable option verbatim,
// kind and length bytes included. Raw borrows from the option region.
type GenericOption struct {
	OptionKind OptionKind
	Raw        []byte
}

// Kind implements Option.
func (o GenericOption) Kind() OptionKind { return o.OptionKind }

func (o GenericOption) String() string { return fmt.Sprintf("UNK %d", byte(o.OptionKind)) }

// DecodeOptions walks the TLV option region left to right and returns the
// typed records in encounter order. An end-of-options byte stops the scan
// and discards the remaining padding. On a bad length byte the scan stops
// and the records decoded so far are returned together with
// ErrMalformedOptions; the walk never reads past the region.
func DecodeOptions(region []byte) ([]Option, error) {

	var options []Option

	for i := 0; i < len(region); {
		kind := OptionKind(region[i])

		if kind == OptionEndOfList {
			return options, nil
		}

		if kind == OptionNOP {
			i++
			continue
		}

		if i+1 >= len(region) {
			zap.L().Debug("Bad TCP option", zap.String("region", hex.EncodeToString(region)))
			return options, fmt.Errorf("%w: kind %d at offset %d has no length byte", ErrMalformedOptions, kind, i)
		}

		length := int(region[i+1])
		if length < 2 || i+length > len(region) {
			zap.L().Debug("Bad TCP option", zap.String("region", hex.EncodeToString(region)))
			return options, fmt.Errorf("%w: kind %d at offset %d declares length %d", ErrMalformedOptions, kind, i, length)
		}

		options = append(options, decodeOption(kind, region[i:i+length]))
		i += length
	}

	return options, nil
}

// decodeOption types a single raw TLV. A known kind whose declared length
// does not match the fixed layout degrades to GenericOption instead of
// mis-slicing its fields.
func decodeOption(kind OptionKind, raw []byte) Option {

	switch {
	case kind == OptionMSS && len(raw) == optionMSSLen:
		return MSSOption{Size: binary.BigEndian.Uint16(raw[2:4])}

	case kind == OptionWindowScale && len(raw) == optionWindowScaleLen:
		return WindowScaleOption{Shift: raw[2]}

	case kind == OptionSACKPermitted && len(raw) == optionSACKPermittedLen:
		return SACKPermittedOption{}

	case kind == OptionTimestamp && len(raw) == optionTimestampLen:
		return TimestampOption{
			Value:     binary.BigEndian.Uint32(raw[2:6]),
			EchoReply: binary.BigEndian.Uint32(raw[6:10]),
		}
	}

	return GenericOption{OptionKind: kind, Raw: raw}
}

// defaultMSS is assumed when a segment does not advertise one (RFC 1122).
const defaultMSS = 536

// The lookups below tolerate a malformed option tail: whatever decoded
// before the fault is still searched.

// MaxSegmentSize returns the advertised MSS, or the 536 byte default
// when the segment carries none.
func (s *Segment) MaxSegmentSize() uint16 {
	opts, _ := s.Options()
	for _, opt := range opts {
		if o, ok := opt.(MSSOption); ok {
			return o.Size
		}
	}
	return defaultMSS
}

// WindowScale returns the advertised window scale shift count and true,
// or zero and false when the segment carries none.
func (s *Segment) WindowScale() (uint8, bool) {
	opts, _ := s.Options()
	for _, opt := range opts {
		if o, ok := opt.(WindowScaleOption); ok {
			return o.Shift, true
		}
	}
	return 0, false
}

// SACKPermitted returns true if the segment advertises selective
// acknowledgment support.
func (s *Segment) SACKPermitted() bool {
	opts, _ := s.Options()
	for _, opt := range opts {
		if _, ok := opt.(SACKPermittedOption); ok {
			return true
		}
	}
	return false
}

// Timestamp returns the timestamp value and echo reply and true, or
// zeros and false when the segment carries no timestamp option.
func (s *Segment) Timestamp() (value uint32, echoReply uint32, ok bool) {
	opts, _ := s.Options()
	for _, opt := range opts {
		if o, isTS := opt.(TimestampOption); isTS {
			return o.Value, o.EchoReply, true
		}
	}
	return 0, 0, false
}
