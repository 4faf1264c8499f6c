package libtins

import "strconv"

// IPProto represents the IP protocol number, identifying the protocol
// carried in the payload of an IPv4 packet or after the last IPv6
// extension header.
type IPProto uint8

// IP protocol numbers.
const (
	IPProtoHopByHop IPProto = 0   // IPv6 Hop-by-Hop Option [RFC8200]
	IPProtoICMP     IPProto = 1   // Internet Control Message [RFC792]
	IPProtoIGMP     IPProto = 2   // Internet Group Management [RFC1112]
	IPProtoIPv4     IPProto = 4   // IPv4 encapsulation [RFC2003]
	IPProtoTCP      IPProto = 6   // Transmission Control [RFC9293]
	IPProtoUDP      IPProto = 17  // User Datagram [RFC768]
	IPProtoIPv6     IPProto = 41  // IPv6 encapsulation [RFC2473]
	IPProtoGRE      IPProto = 47  // Generic Routing Encapsulation [RFC2784]
	IPProtoESP      IPProto = 50  // Encap Security Payload [RFC4303]
	IPProtoAH       IPProto = 51  // Authentication Header [RFC4302]
	IPProtoIPv6ICMP IPProto = 58  // ICMP for IPv6 [RFC8200]
	IPProtoOSPF     IPProto = 89  // OSPF [RFC2328]
	IPProtoSCTP     IPProto = 132 // Stream Control Transmission Protocol
	IPProtoUDPLite  IPProto = 136 // UDPLite [RFC3828]
)

func (proto IPProto) String() string {
	switch proto {
	case IPProtoHopByHop:
		return "HopByHop"
	case IPProtoICMP:
		return "ICMP"
	case IPProtoIGMP:
		return "IGMP"
	case IPProtoIPv4:
		return "IPv4"
	case IPProtoTCP:
		return "TCP"
	case IPProtoUDP:
		return "UDP"
	case IPProtoIPv6:
		return "IPv6"
	case IPProtoGRE:
		return "GRE"
	case IPProtoESP:
		return "ESP"
	case IPProtoAH:
		return "AH"
	case IPProtoIPv6ICMP:
		return "IPv6-ICMP"
	case IPProtoOSPF:
		return "OSPF"
	case IPProtoSCTP:
		return "SCTP"
	case IPProtoUDPLite:
		return "UDPLite"
	}
	return "proto(" + strconv.Itoa(int(proto)) + ")"
}
