package tcp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
)

// OptionKind identifies a TCP option as carried in its first wire byte.
type OptionKind uint8

const (
	OptEndOfList          OptionKind = iota // end of option list
	OptNop                                  // no-operation
	OptMSS                                  // maximum segment size
	OptWindowScale                          // window scale
	OptSACKPermitted                        // SACK permitted
	OptSACK                                 // SACK
	optEcho                                 // echo (obsolete)
	optEchoReply                            // echo reply (obsolete)
	OptTimestamp                            // timestamps
	optPOCP                                 // partial order connection permitted (obsolete)
	optPOSP                                 // partial order service profile (obsolete)
	optCC                                   // CC (obsolete)
	optCCnew                                // CC.new (obsolete)
	optCCecho                               // CC.echo (obsolete)
	OptAltChecksumRequest                   // alternate checksum request
	OptAltChecksumData                      // alternate checksum data
)

// IsSpecial reports whether the kind is one of the two single-byte options
// that carry no length or payload fields on the wire.
func (kind OptionKind) IsSpecial() bool {
	return kind == OptEndOfList || kind == OptNop
}

func (kind OptionKind) String() string {
	switch kind {
	case OptEndOfList:
		return "EOL"
	case OptNop:
		return "NOP"
	case OptMSS:
		return "MSS"
	case OptWindowScale:
		return "WScale"
	case OptSACKPermitted:
		return "SACKPermitted"
	case OptSACK:
		return "SACK"
	case OptTimestamp:
		return "Timestamp"
	case OptAltChecksumRequest:
		return "AltChecksumRequest"
	case OptAltChecksumData:
		return "AltChecksumData"
	}
	return "option(" + strconv.Itoa(int(kind)) + ")"
}

// AltChecksum enumerates the algorithms negotiable through the alternate
// checksum request option.
type AltChecksum uint8

const (
	AltChecksumStandard   AltChecksum = iota // standard TCP checksum
	AltChecksumFletcher8                     // 8-bit Fletcher's algorithm
	AltChecksumFletcher16                    // 16-bit Fletcher's algorithm
)

var (
	// ErrOptionNotFound is returned by typed option accessors when the
	// requested option is not present in the segment.
	ErrOptionNotFound = errors.New("tcp: option not found")
	// ErrMalformedOption is returned by typed option accessors when the
	// stored payload does not have the width the accessor expects.
	ErrMalformedOption = errors.New("tcp: malformed option payload")
)

// Option is a single type/length/value record of a TCP header. It owns an
// independent copy of its payload bytes.
//
// The length field is kept separate from the payload so a deliberately
// spoofed value survives a serialize round trip: the structural two bytes
// (kind and length) are only added to the emitted length field when the
// declared length equals the true payload size.
type Option struct {
	data   []byte
	kind   OptionKind
	length uint8
}

// NewOption returns an Option of the given kind owning a copy of data.
// The length field is the payload size, which emits as the regular
// payload+2 wire length.
func NewOption(kind OptionKind, data []byte) Option {
	return Option{kind: kind, data: append([]byte(nil), data...), length: uint8(len(data))}
}

// NewOptionExplicitLength is like [NewOption] but declares an explicit wire
// length field which is emitted verbatim when it differs from the payload size.
func NewOptionExplicitLength(kind OptionKind, lengthField uint8, data []byte) Option {
	opt := NewOption(kind, data)
	opt.length = lengthField
	return opt
}

// Kind returns the option's kind byte.
func (opt *Option) Kind() OptionKind { return opt.kind }

// Data returns the option's payload bytes. The slice aliases the option's
// internal storage and must not be modified.
func (opt *Option) Data() []byte { return opt.data }

// DataSize returns the payload size in bytes.
func (opt *Option) DataSize() int { return len(opt.data) }

// LengthField returns the declared length field. See [NewOptionExplicitLength].
func (opt *Option) LengthField() uint8 { return opt.length }

// WireSize returns the option's serialized footprint in bytes: 1 for the
// special single-byte kinds, kind+length+payload bytes otherwise.
func (opt *Option) WireSize() int {
	if opt.kind.IsSpecial() {
		return 1
	}
	return 2 + len(opt.data)
}

// encode writes the option at the start of dst, which the caller has sized
// to at least WireSize bytes, and returns the bytes written.
func (opt *Option) encode(dst []byte) int {
	dst[0] = byte(opt.kind)
	if opt.kind.IsSpecial() {
		return 1
	}
	length := opt.length
	if int(opt.length) == len(opt.data) {
		// Regular length field: add the kind and length bytes themselves.
		// A spoofed field is emitted untouched.
		length += 2
	}
	dst[1] = length
	copy(dst[2:], opt.data)
	return 2 + len(opt.data)
}

// Uint8 decodes the payload as a single byte value.
func (opt *Option) Uint8() (uint8, error) {
	if len(opt.data) != 1 {
		return 0, fmt.Errorf("%w: %s payload is %d bytes, want 1", ErrMalformedOption, opt.kind, len(opt.data))
	}
	return opt.data[0], nil
}

// Uint16 decodes the payload as a big endian 16-bit value.
func (opt *Option) Uint16() (uint16, error) {
	if len(opt.data) != 2 {
		return 0, fmt.Errorf("%w: %s payload is %d bytes, want 2", ErrMalformedOption, opt.kind, len(opt.data))
	}
	return binary.BigEndian.Uint16(opt.data), nil
}

// Uint32Pair decodes the payload as two consecutive big endian 32-bit values.
func (opt *Option) Uint32Pair() (first, second uint32, err error) {
	if len(opt.data) != 8 {
		return 0, 0, fmt.Errorf("%w: %s payload is %d bytes, want 8", ErrMalformedOption, opt.kind, len(opt.data))
	}
	return binary.BigEndian.Uint32(opt.data[:4]), binary.BigEndian.Uint32(opt.data[4:]), nil
}

// Uint32List decodes the payload as a sequence of big endian 32-bit values.
func (opt *Option) Uint32List() ([]uint32, error) {
	if len(opt.data)%4 != 0 {
		return nil, fmt.Errorf("%w: %s payload is %d bytes, want a multiple of 4", ErrMalformedOption, opt.kind, len(opt.data))
	}
	list := make([]uint32, len(opt.data)/4)
	for i := range list {
		list[i] = binary.BigEndian.Uint32(opt.data[4*i:])
	}
	return list, nil
}

func (opt *Option) String() string {
	if opt.kind.IsSpecial() {
		return opt.kind.String()
	}
	return fmt.Sprintf("%s(% x)", opt.kind, opt.data)
}
