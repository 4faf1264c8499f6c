package ipv6

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"

	"github.com/rookie211/libtins"
)

const sizeHeader = 40

// NewFrame returns a Frame with data set to buf.
// An error is returned if the buffer size is smaller than 40.
// Users should still call [Frame.Validate] before working
// with payload of frames to avoid panics.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeader {
		return Frame{buf: nil}, errShortBuf
	}
	return Frame{buf: buf}, nil
}

// Frame encapsulates the raw data of an IPv6 packet and provides methods for
// manipulating and retrieving fields and payload data. See [RFC8200].
//
// Its role toward encapsulated transport layers is producing the checksum
// pseudo-header variant via [Frame.PseudoHeader].
//
// [RFC8200]: https://tools.ietf.org/html/rfc8200
type Frame struct {
	buf []byte
}

// RawData returns the underlying slice with which the frame was created.
func (i6frm Frame) RawData() []byte { return i6frm.buf }

// Version returns the version field of the IPv6 header. Should always be 6.
func (i6frm Frame) Version() uint8 { return i6frm.buf[0] >> 4 }

// SetVersion sets the version field of the IPv6 header.
func (i6frm Frame) SetVersion(version uint8) {
	i6frm.buf[0] = version<<4 | i6frm.buf[0]&0x0f
}

// PayloadLength returns the size of the payload in octets including any
// extension headers.
func (i6frm Frame) PayloadLength() uint16 {
	return binary.BigEndian.Uint16(i6frm.buf[4:6])
}

// SetPayloadLength sets the payload length field. See [Frame.PayloadLength].
func (i6frm Frame) SetPayloadLength(pl uint16) {
	binary.BigEndian.PutUint16(i6frm.buf[4:6], pl)
}

// NextHeader returns the Next Header field which usually specifies the
// transport layer protocol used by the packet's payload.
func (i6frm Frame) NextHeader() libtins.IPProto {
	return libtins.IPProto(i6frm.buf[6])
}

// SetNextHeader sets the Next Header (protocol) field. See [Frame.NextHeader].
func (i6frm Frame) SetNextHeader(proto libtins.IPProto) {
	i6frm.buf[6] = uint8(proto)
}

// HopLimit returns the hop limit field, decremented by one at each
// forwarding node.
func (i6frm Frame) HopLimit() uint8 { return i6frm.buf[7] }

// SetHopLimit sets the hop limit field. See [Frame.HopLimit].
func (i6frm Frame) SetHopLimit(hop uint8) { i6frm.buf[7] = hop }

// SourceAddr returns a pointer to the sending node address in the header.
func (i6frm Frame) SourceAddr() *[16]byte {
	return (*[16]byte)(i6frm.buf[8:24])
}

// DestinationAddr returns a pointer to the destination node address in the header.
func (i6frm Frame) DestinationAddr() *[16]byte {
	return (*[16]byte)(i6frm.buf[24:40])
}

// PseudoHeader returns the transport checksum pseudo-header variant built
// from the frame's addresses.
func (i6frm Frame) PseudoHeader() libtins.PseudoHeader {
	return libtins.IPv6PseudoHeader(*i6frm.SourceAddr(), *i6frm.DestinationAddr())
}

// Payload returns the contents of the IPv6 packet, which may be zero sized.
// Be sure to call [Frame.Validate] beforehand to avoid panics.
func (i6frm Frame) Payload() []byte {
	return i6frm.buf[sizeHeader : sizeHeader+i6frm.PayloadLength()]
}

// ClearHeader zeros out the header contents.
func (i6frm Frame) ClearHeader() {
	for i := range i6frm.buf[:sizeHeader] {
		i6frm.buf[i] = 0
	}
}

var (
	errShortBuf   = errors.New("ipv6: short buffer for frame")
	errShortFrame = errors.New("ipv6: buffer shorter than payload length")
	errBadVersion = errors.New("ipv6: bad version")
)

// Validate checks the frame's version and size fields against the actual
// buffer and returns a non-nil error on finding an inconsistency.
func (i6frm Frame) Validate() error {
	if i6frm.Version() != 6 {
		return errBadVersion
	}
	if int(i6frm.PayloadLength())+sizeHeader > len(i6frm.RawData()) {
		return errShortFrame
	}
	return nil
}

func (i6frm Frame) String() string {
	src := netip.AddrFrom16(*i6frm.SourceAddr())
	dst := netip.AddrFrom16(*i6frm.DestinationAddr())
	return fmt.Sprintf("IPv6 %s SRC=%s DST=%s LEN=%d HOP=%d",
		i6frm.NextHeader().String(), src.String(), dst.String(), i6frm.PayloadLength(), i6frm.HopLimit())
}
