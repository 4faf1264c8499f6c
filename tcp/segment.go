package tcp

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/rookie211/libtins"
)

const (
	sizeHeader = 20

	// DefaultWindow is the window size of freshly constructed outbound segments.
	DefaultWindow = 32678
)

// ErrMalformedSegment is returned by [ParseSegment] when the buffer cannot
// hold a structurally valid TCP segment. Parse failures are fatal: no partial
// segment is ever returned.
var ErrMalformedSegment = errors.New("tcp: malformed segment")

// Segment is a mutable representation of a single TCP segment: the 20-byte
// fixed header, an ordered option table and an optional owned trailing
// payload. The fixed header is stored wire-encoded (network order) and every
// accessor converts to and from host values. See [RFC9293].
//
// A Segment is not safe for concurrent mutation; callers sharing one across
// goroutines must serialize access externally.
//
// [RFC9293]: https://datatracker.ietf.org/doc/html/rfc9293
type Segment struct {
	hdr     [sizeHeader]byte
	options []Option
	payload libtins.PDU
}

var _ libtins.PDU = (*Segment)(nil)

// NewSegment returns a Segment with the given ports, a data offset of 5
// words and the default window. All other fields are zero.
func NewSegment(srcPort, dstPort uint16) *Segment {
	seg := &Segment{}
	seg.SetSourcePort(srcPort)
	seg.SetDestinationPort(dstPort)
	seg.setDataOffset(sizeHeader / 4)
	seg.SetWindow(DefaultWindow)
	return seg
}

// ParseSegment decodes buf into a Segment, scanning the options area
// declared by the data offset field and wrapping any remaining bytes past it
// in a [libtins.RawPDU] trailing payload. The Segment owns copies of all
// decoded bytes; buf is not retained.
//
// ParseSegment returns an error wrapping [ErrMalformedSegment] when buf is
// shorter than the fixed header, when the data offset field points outside
// buf or below the fixed header size, or when an option's declared length
// is below 2 or overruns the declared header end.
func ParseSegment(buf []byte) (*Segment, error) {
	if len(buf) < sizeHeader {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrMalformedSegment, len(buf), sizeHeader)
	}
	seg := &Segment{}
	copy(seg.hdr[:], buf)
	hdrLen := seg.HeaderLength()
	if hdrLen < sizeHeader || hdrLen > len(buf) {
		return nil, fmt.Errorf("%w: data offset of %d words outside %d byte buffer", ErrMalformedSegment, seg.DataOffset(), len(buf))
	}
	// Option records live between the fixed header and the header end
	// declared by the data offset. The scan never reads past the header end,
	// even when the buffer holds more bytes.
	off := sizeHeader
	for off < hdrLen {
		kind := OptionKind(buf[off])
		off++
		if kind.IsSpecial() {
			seg.options = append(seg.options, Option{kind: kind})
			continue
		}
		if off == hdrLen {
			return nil, fmt.Errorf("%w: option %s truncated before length field", ErrMalformedSegment, kind)
		}
		length := int(buf[off])
		off++
		if length < 2 {
			return nil, fmt.Errorf("%w: option %s declares length %d, minimum is 2", ErrMalformedSegment, kind, length)
		}
		dataLen := length - 2
		if off+dataLen > hdrLen {
			return nil, fmt.Errorf("%w: option %s payload of %d bytes overruns header end", ErrMalformedSegment, kind, dataLen)
		}
		seg.options = append(seg.options, NewOption(kind, buf[off:off+dataLen]))
		off += dataLen
	}
	if hdrLen < len(buf) {
		seg.payload = libtins.NewRawPDU(buf[hdrLen:])
	}
	return seg, nil
}

// SourcePort identifies the sending port of the segment.
func (seg *Segment) SourcePort() uint16 {
	return binary.BigEndian.Uint16(seg.hdr[0:2])
}

// SetSourcePort sets the source port. See [Segment.SourcePort].
func (seg *Segment) SetSourcePort(src uint16) {
	binary.BigEndian.PutUint16(seg.hdr[0:2], src)
}

// DestinationPort identifies the receiving port of the segment.
func (seg *Segment) DestinationPort() uint16 {
	return binary.BigEndian.Uint16(seg.hdr[2:4])
}

// SetDestinationPort sets the destination port. See [Segment.DestinationPort].
func (seg *Segment) SetDestinationPort(dst uint16) {
	binary.BigEndian.PutUint16(seg.hdr[2:4], dst)
}

// Seq returns the sequence number of the first data octet in this segment,
// or the initial sequence number when SYN is present.
func (seg *Segment) Seq() uint32 {
	return binary.BigEndian.Uint32(seg.hdr[4:8])
}

// SetSeq sets the sequence number. See [Segment.Seq].
func (seg *Segment) SetSeq(v uint32) {
	binary.BigEndian.PutUint32(seg.hdr[4:8], v)
}

// Ack returns the next sequence number the sender of the segment is
// expecting to receive, meaningful when ACK is set.
func (seg *Segment) Ack() uint32 {
	return binary.BigEndian.Uint32(seg.hdr[8:12])
}

// SetAck sets the acknowledgment number. See [Segment.Ack].
func (seg *Segment) SetAck(v uint32) {
	binary.BigEndian.PutUint32(seg.hdr[8:12], v)
}

// DataOffset returns the amount of 32-bit words occupied by the header
// including options, i.e. where the payload begins.
func (seg *Segment) DataOffset() uint8 {
	return seg.hdr[12] >> 4
}

// setDataOffset overwrites the data offset field preserving the adjacent
// reserved nibble.
func (seg *Segment) setDataOffset(words uint8) {
	seg.hdr[12] = words<<4 | seg.hdr[12]&0x0f
}

// HeaderLength returns the data offset expressed in bytes. Performs no validation.
func (seg *Segment) HeaderLength() int {
	return 4 * int(seg.DataOffset())
}

// Window returns the TCP window size field.
func (seg *Segment) Window() uint16 {
	return binary.BigEndian.Uint16(seg.hdr[14:16])
}

// SetWindow sets the TCP window size field. See [Segment.Window].
func (seg *Segment) SetWindow(v uint16) {
	binary.BigEndian.PutUint16(seg.hdr[14:16], v)
}

// Checksum returns the checksum field of the header. It is only meaningful
// on parsed segments or after serializing with a valid pseudo-header.
func (seg *Segment) Checksum() uint16 {
	return binary.BigEndian.Uint16(seg.hdr[16:18])
}

// SetChecksum sets the checksum field. Serialization recomputes it.
func (seg *Segment) SetChecksum(v uint16) {
	binary.BigEndian.PutUint16(seg.hdr[16:18], v)
}

// UrgentPointer returns the urgent pointer field, meaningful when URG is set.
func (seg *Segment) UrgentPointer() uint16 {
	return binary.BigEndian.Uint16(seg.hdr[18:20])
}

// SetUrgentPointer sets the urgent pointer field. See [Segment.UrgentPointer].
func (seg *Segment) SetUrgentPointer(v uint16) {
	binary.BigEndian.PutUint16(seg.hdr[18:20], v)
}

//
// Flags.
//

// Flags returns the 8 named control flags of the segment.
func (seg *Segment) Flags() Flags {
	return Flags(seg.hdr[13])
}

// SetFlags overwrites the 8 named control flags. Bits outside the named set
// are ignored; the reserved nibble is untouched.
func (seg *Segment) SetFlags(flags Flags) {
	seg.hdr[13] = byte(flags.Mask())
}

// Flag reports whether every named flag bit of f is set in the segment.
// Bits outside the named flag set read as zero, so Flag on an unrecognized
// identifier reports false rather than failing.
func (seg *Segment) Flag(f Flags) bool {
	f = f.Mask()
	return f != 0 && seg.Flags().HasAll(f)
}

// SetFlag sets or clears the named flag bits of f, leaving the rest
// untouched. Bits outside the named flag set are silently dropped.
func (seg *Segment) SetFlag(f Flags, on bool) {
	f = f.Mask()
	if on {
		seg.SetFlags(seg.Flags() | f)
	} else {
		seg.SetFlags(seg.Flags() &^ f)
	}
}

// FlagsWord returns the 12-bit flags aggregate: the reserved nibble of the
// data-offset byte in the top bits over the 8 named flags in the low byte.
func (seg *Segment) FlagsWord() uint16 {
	return uint16(seg.hdr[12]&0x0f)<<8 | uint16(seg.hdr[13])
}

// SetFlagsWord splits a 12-bit aggregate back into the reserved nibble and
// the flags byte. The exact inverse of [Segment.FlagsWord].
func (seg *Segment) SetFlagsWord(v uint16) {
	v &= flagsWordMask
	seg.hdr[12] = seg.hdr[12]&0xf0 | byte(v>>8)
	seg.hdr[13] = byte(v)
}

//
// Option table.
//

// Options returns the segment's option records in wire order. The slice
// aliases the segment's table and must not be modified.
func (seg *Segment) Options() []Option { return seg.options }

// AddOption appends opt to the option table and re-syncs the data offset
// field with the table's new size.
func (seg *Segment) AddOption(opt Option) {
	seg.options = append(seg.options, opt)
	seg.syncDataOffset()
}

// RemoveOption removes the first option of the given kind in wire order.
// It reports whether an option was removed; an absent kind is not an error
// and leaves the segment untouched. Duplicates past the first remain.
func (seg *Segment) RemoveOption(kind OptionKind) bool {
	for i := range seg.options {
		if seg.options[i].kind == kind {
			seg.options = append(seg.options[:i], seg.options[i+1:]...)
			seg.syncDataOffset()
			return true
		}
	}
	return false
}

// FindOption returns the first option of the given kind in wire order and
// whether one was found.
func (seg *Segment) FindOption(kind OptionKind) (Option, bool) {
	for i := range seg.options {
		if seg.options[i].kind == kind {
			return seg.options[i], true
		}
	}
	return Option{}, false
}

// OptionsSize returns the summed wire footprint of the option records,
// excluding alignment padding. Derived from the table contents on every call
// so it can never go stale.
func (seg *Segment) OptionsSize() int {
	size := 0
	for i := range seg.options {
		size += seg.options[i].WireSize()
	}
	return size
}

// TotalOptionsSize returns [Segment.OptionsSize] rounded up to the next
// multiple of 4. The wire requires the header to end on a 32-bit boundary;
// the rounding difference is emitted as no-operation padding bytes.
func (seg *Segment) TotalOptionsSize() int {
	size := seg.OptionsSize()
	if pad := size & 3; pad != 0 {
		size += 4 - pad
	}
	return size
}

// HeaderSize returns the serialized size of the header including options and
// alignment padding.
func (seg *Segment) HeaderSize() int {
	return sizeHeader + seg.TotalOptionsSize()
}

// Size returns the total serialized size of the segment including its
// trailing payload.
func (seg *Segment) Size() int {
	size := seg.HeaderSize()
	if seg.payload != nil {
		size += seg.payload.Size()
	}
	return size
}

func (seg *Segment) syncDataOffset() {
	seg.setDataOffset(uint8(seg.HeaderSize() / 4))
}

//
// Typed option helpers.
//

// SetMSS adds a maximum segment size option with the given value.
func (seg *Segment) SetMSS(mss uint16) {
	var data [2]byte
	binary.BigEndian.PutUint16(data[:], mss)
	seg.AddOption(NewOption(OptMSS, data[:]))
}

// MSS returns the value of the maximum segment size option.
func (seg *Segment) MSS() (uint16, error) {
	opt, ok := seg.FindOption(OptMSS)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrOptionNotFound, OptMSS)
	}
	return opt.Uint16()
}

// SetWindowScale adds a window scale option with the given shift count.
func (seg *Segment) SetWindowScale(shift uint8) {
	seg.AddOption(NewOption(OptWindowScale, []byte{shift}))
}

// WindowScale returns the shift count of the window scale option.
func (seg *Segment) WindowScale() (uint8, error) {
	opt, ok := seg.FindOption(OptWindowScale)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrOptionNotFound, OptWindowScale)
	}
	return opt.Uint8()
}

// SetSACKPermitted adds a SACK permitted option. The option carries no
// payload but still emits its kind and length bytes.
func (seg *Segment) SetSACKPermitted() {
	seg.AddOption(NewOption(OptSACKPermitted, nil))
}

// HasSACKPermitted reports whether a SACK permitted option is present.
func (seg *Segment) HasSACKPermitted() bool {
	_, ok := seg.FindOption(OptSACKPermitted)
	return ok
}

// SetSACK adds a SACK option holding the given sequence of 32-bit block
// edges, encoded big endian.
func (seg *Segment) SetSACK(edges []uint32) {
	data := make([]byte, 4*len(edges))
	for i, edge := range edges {
		binary.BigEndian.PutUint32(data[4*i:], edge)
	}
	seg.AddOption(NewOption(OptSACK, data))
}

// SACK returns the block edges held by the SACK option.
func (seg *Segment) SACK() ([]uint32, error) {
	opt, ok := seg.FindOption(OptSACK)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOptionNotFound, OptSACK)
	}
	return opt.Uint32List()
}

// SetTimestamp adds a timestamp option with the given timestamp value and
// echo reply fields.
func (seg *Segment) SetTimestamp(value, reply uint32) {
	var data [8]byte
	binary.BigEndian.PutUint32(data[:4], value)
	binary.BigEndian.PutUint32(data[4:], reply)
	seg.AddOption(NewOption(OptTimestamp, data[:]))
}

// Timestamp returns the timestamp value and echo reply fields of the
// timestamp option.
func (seg *Segment) Timestamp() (value, reply uint32, err error) {
	opt, ok := seg.FindOption(OptTimestamp)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s", ErrOptionNotFound, OptTimestamp)
	}
	return opt.Uint32Pair()
}

// SetAltChecksum adds an alternate checksum request option for the given
// algorithm.
func (seg *Segment) SetAltChecksum(algorithm AltChecksum) {
	seg.AddOption(NewOption(OptAltChecksumRequest, []byte{byte(algorithm)}))
}

// AltChecksum returns the algorithm requested by the alternate checksum
// request option.
func (seg *Segment) AltChecksum() (AltChecksum, error) {
	opt, ok := seg.FindOption(OptAltChecksumRequest)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrOptionNotFound, OptAltChecksumRequest)
	}
	v, err := opt.Uint8()
	return AltChecksum(v), err
}

//
// Trailing payload.
//

// SetInnerPDU hands ownership of the trailing payload slot to p.
// A nil p clears the slot.
func (seg *Segment) SetInnerPDU(p libtins.PDU) { seg.payload = p }

// InnerPDU returns the owned trailing payload, or nil when the segment
// carries none.
func (seg *Segment) InnerPDU() libtins.PDU { return seg.payload }

// SetPayload wraps b in a [libtins.RawPDU] holding a copy of b and stores it
// as the trailing payload. An empty b clears the slot.
func (seg *Segment) SetPayload(b []byte) {
	if len(b) == 0 {
		seg.payload = nil
		return
	}
	seg.payload = libtins.NewRawPDU(b)
}

// Payload returns the trailing payload bytes, or nil when the segment
// carries none or owns a next layer that is not a [libtins.RawPDU].
func (seg *Segment) Payload() []byte {
	if raw, ok := seg.payload.(*libtins.RawPDU); ok {
		return raw.Payload()
	}
	return nil
}

//
// Serialization.
//

// Serialize allocates and returns the wire representation of the segment.
// See [Segment.SerializeToWithPseudo].
func (seg *Segment) Serialize(ph libtins.PseudoHeader) []byte {
	buf := make([]byte, seg.Size())
	seg.SerializeToWithPseudo(buf, ph) // cannot fail, buf sized exactly
	return buf
}

// SerializeTo implements [libtins.PDU] serialization without an
// encapsulating layer: the checksum field is left zero.
func (seg *Segment) SerializeTo(dst []byte) (int, error) {
	return seg.SerializeToWithPseudo(dst, libtins.PseudoHeader{})
}

// SerializeToWithPseudo writes the segment's wire representation at the
// start of dst and returns the bytes written: fixed header, option records
// in table order, no-operation padding up to the 32-bit boundary and the
// trailing payload. The data offset field is recomputed from the option
// table before emission.
//
// When ph is a valid IPv4 or IPv6 pseudo-header variant the checksum is
// computed over the pseudo-header and the full serialized bytes, folded,
// complemented and patched into both the output and the segment. With the
// "none" variant the checksum is left zero: that is a soft degradation for
// buffer inspection, not an error.
func (seg *Segment) SerializeToWithPseudo(dst []byte, ph libtins.PseudoHeader) (int, error) {
	size := seg.Size()
	if len(dst) < size {
		return 0, libtins.ErrShortBuffer
	}
	seg.SetChecksum(0)
	seg.syncDataOffset()
	copy(dst[:sizeHeader], seg.hdr[:])
	off := sizeHeader
	for i := range seg.options {
		off += seg.options[i].encode(dst[off:])
	}
	for hdrEnd := seg.HeaderSize(); off < hdrEnd; off++ {
		dst[off] = byte(OptNop)
	}
	if seg.payload != nil {
		n, err := seg.payload.SerializeTo(dst[off:size])
		if err != nil {
			return 0, err
		}
		off += n
	}
	if ph.Valid() {
		var crc libtins.CRC791
		ph.WriteSum(&crc, uint16(size), libtins.IPProtoTCP)
		sum := crc.PayloadSum16(dst[:size])
		seg.SetChecksum(sum)
		binary.BigEndian.PutUint16(dst[16:18], sum)
	}
	return size, nil
}

// MatchesResponse reports whether raw could be a response to this segment:
// the candidate's port pair must be the reverse of the segment's. On a port
// match the decision is delegated to the owned trailing payload with the
// candidate bytes past its own declared header; without a payload the port
// match alone decides.
func (seg *Segment) MatchesResponse(raw []byte) bool {
	if len(raw) < sizeHeader {
		return false
	}
	srcPort := binary.BigEndian.Uint16(raw[0:2])
	dstPort := binary.BigEndian.Uint16(raw[2:4])
	if srcPort != seg.DestinationPort() || dstPort != seg.SourcePort() {
		return false
	}
	if seg.payload == nil {
		return true
	}
	hdrLen := 4 * int(raw[12]>>4)
	if hdrLen > len(raw) {
		hdrLen = len(raw)
	}
	return seg.payload.MatchesResponse(raw[hdrLen:])
}

func (seg *Segment) String() string {
	return fmt.Sprintf("TCP :%d -> :%d SEQ=%d ACK=%d WND=%d %s OPTS=%d DATA=%d",
		seg.SourcePort(), seg.DestinationPort(), seg.Seq(), seg.Ack(), seg.Window(),
		seg.Flags().String(), len(seg.options), seg.Size()-seg.HeaderSize())
}
