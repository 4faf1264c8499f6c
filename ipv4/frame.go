package ipv4

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"

	"github.com/rookie211/libtins"
)

const sizeHeader = 20

// NewFrame returns a Frame with data set to buf.
// An error is returned if the buffer size is smaller than 20.
// Users should still call [Frame.Validate] before working
// with payload/options of frames to avoid panics.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < sizeHeader {
		return Frame{buf: nil}, errShortBuf
	}
	return Frame{buf: buf}, nil
}

// Frame encapsulates the raw data of an IPv4 packet and provides methods for
// manipulating and retrieving fields and payload data. See [RFC791].
//
// Its role toward encapsulated transport layers is producing the checksum
// pseudo-header variant via [Frame.PseudoHeader].
//
// [RFC791]: https://tools.ietf.org/html/rfc791
type Frame struct {
	buf []byte
}

// RawData returns the underlying slice with which the frame was created.
func (ifrm Frame) RawData() []byte { return ifrm.buf }

// VersionAndIHL returns the version and IHL fields of the IPv4 header.
// Version should always be 4. IHL is the header length in 32-bit words.
func (ifrm Frame) VersionAndIHL() (version, IHL uint8) {
	v := ifrm.buf[0]
	return v >> 4, v & 0xf
}

// SetVersionAndIHL sets the version and IHL fields of the IPv4 header.
func (ifrm Frame) SetVersionAndIHL(version, IHL uint8) { ifrm.buf[0] = version<<4 | IHL&0xf }

// HeaderLength returns the length of the IPv4 header in bytes as calculated
// using IHL. It includes IP options.
func (ifrm Frame) HeaderLength() int {
	_, ihl := ifrm.VersionAndIHL()
	return 4 * int(ihl)
}

// TotalLength returns the entire packet size in bytes, including header and payload.
func (ifrm Frame) TotalLength() uint16 {
	return binary.BigEndian.Uint16(ifrm.buf[2:4])
}

// SetTotalLength sets the total length field. See [Frame.TotalLength].
func (ifrm Frame) SetTotalLength(tl uint16) { binary.BigEndian.PutUint16(ifrm.buf[2:4], tl) }

// TTL returns the time-to-live field, decremented at each forwarding hop.
func (ifrm Frame) TTL() uint8 { return ifrm.buf[8] }

// SetTTL sets the frame's TTL field. See [Frame.TTL].
func (ifrm Frame) SetTTL(ttl uint8) { ifrm.buf[8] = ttl }

// Protocol returns the protocol carried in the packet's payload. TCP is 6, UDP is 17.
func (ifrm Frame) Protocol() libtins.IPProto { return libtins.IPProto(ifrm.buf[9]) }

// SetProtocol sets the protocol field. See [Frame.Protocol].
func (ifrm Frame) SetProtocol(proto libtins.IPProto) { ifrm.buf[9] = uint8(proto) }

// CRC returns the header checksum field of the IPv4 header.
func (ifrm Frame) CRC() uint16 {
	return binary.BigEndian.Uint16(ifrm.buf[10:12])
}

// SetCRC sets the header checksum field. See [Frame.CRC].
func (ifrm Frame) SetCRC(cs uint16) {
	binary.BigEndian.PutUint16(ifrm.buf[10:12], cs)
}

// CalculateHeaderCRC calculates the header checksum for this frame, skipping
// the checksum field itself.
func (ifrm Frame) CalculateHeaderCRC() uint16 {
	var crc libtins.CRC791
	crc.WriteEven(ifrm.buf[0:10])
	crc.WriteEven(ifrm.buf[12:sizeHeader])
	return crc.Sum16()
}

// SourceAddr returns a pointer to the source IPv4 address in the header.
func (ifrm Frame) SourceAddr() *[4]byte {
	return (*[4]byte)(ifrm.buf[12:16])
}

// DestinationAddr returns a pointer to the destination IPv4 address in the header.
func (ifrm Frame) DestinationAddr() *[4]byte {
	return (*[4]byte)(ifrm.buf[16:20])
}

// PseudoHeader returns the transport checksum pseudo-header variant built
// from the frame's addresses.
func (ifrm Frame) PseudoHeader() libtins.PseudoHeader {
	return libtins.IPv4PseudoHeader(*ifrm.SourceAddr(), *ifrm.DestinationAddr())
}

// Payload returns the contents of the IPv4 packet past the header, which may
// be zero sized. Be sure to call [Frame.Validate] beforehand to avoid panics.
func (ifrm Frame) Payload() []byte {
	return ifrm.buf[ifrm.HeaderLength():ifrm.TotalLength()]
}

// ClearHeader zeros out the fixed(non-variable) header contents.
func (ifrm Frame) ClearHeader() {
	for i := range ifrm.buf[:sizeHeader] {
		ifrm.buf[i] = 0
	}
}

var (
	errShortBuf   = errors.New("ipv4: short buffer for frame")
	errBadTL      = errors.New("ipv4: bad total length")
	errShortFrame = errors.New("ipv4: buffer shorter than total length")
	errBadIHL     = errors.New("ipv4: bad IHL")
	errBadVersion = errors.New("ipv4: bad version")
)

// Validate checks the frame's version and size fields against the actual
// buffer and returns a non-nil error on finding an inconsistency.
func (ifrm Frame) Validate() error {
	version, ihl := ifrm.VersionAndIHL()
	tl := ifrm.TotalLength()
	switch {
	case version != 4:
		return errBadVersion
	case ihl < 5:
		return errBadIHL
	case tl < sizeHeader || int(tl) < 4*int(ihl):
		return errBadTL
	case int(tl) > len(ifrm.RawData()):
		return errShortFrame
	}
	return nil
}

func (ifrm Frame) String() string {
	src := netip.AddrFrom4(*ifrm.SourceAddr())
	dst := netip.AddrFrom4(*ifrm.DestinationAddr())
	return fmt.Sprintf("IP %s SRC=%s DST=%s LEN=%d TTL=%d",
		ifrm.Protocol().String(), src.String(), dst.String(), ifrm.TotalLength(), ifrm.TTL())
}
