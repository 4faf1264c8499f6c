package libtins

// addrFamily discriminates the pseudo-header variants.
type addrFamily uint8

const (
	familyNone addrFamily = iota
	familyIPv4
	familyIPv6
)

// PseudoHeader carries the network-layer addressing a transport checksum is
// computed over. It is a closed variant: an IPv4 pseudo-header, an IPv6
// pseudo-header, or none at all. The encapsulating layer produces it so
// transport serializers need not inspect their parent's concrete type.
//
// The zero value is the "none" variant: no checksum material available.
type PseudoHeader struct {
	family addrFamily
	src    [16]byte
	dst    [16]byte
}

// IPv4PseudoHeader returns the pseudo-header variant for a segment
// encapsulated in an IPv4 packet with the given addresses.
func IPv4PseudoHeader(src, dst [4]byte) PseudoHeader {
	ph := PseudoHeader{family: familyIPv4}
	copy(ph.src[:4], src[:])
	copy(ph.dst[:4], dst[:])
	return ph
}

// IPv6PseudoHeader returns the pseudo-header variant for a segment
// encapsulated in an IPv6 packet with the given addresses.
func IPv6PseudoHeader(src, dst [16]byte) PseudoHeader {
	return PseudoHeader{family: familyIPv6, src: src, dst: dst}
}

// Valid reports whether ph holds checksum material, i.e. is not the "none" variant.
func (ph PseudoHeader) Valid() bool { return ph.family != familyNone }

// WriteSum adds the pseudo-header bytes to crc: source and destination
// addresses, the transport segment length in octets and the transport
// protocol number. Calling WriteSum on the "none" variant is a no-op.
func (ph PseudoHeader) WriteSum(crc *CRC791, segmentLength uint16, proto IPProto) {
	switch ph.family {
	case familyIPv4:
		crc.WriteEven(ph.src[:4])
		crc.WriteEven(ph.dst[:4])
	case familyIPv6:
		crc.WriteEven(ph.src[:])
		crc.WriteEven(ph.dst[:])
	default:
		return
	}
	crc.AddUint16(segmentLength)
	crc.AddUint16(uint16(proto))
}
