package libtins

import "encoding/binary"

// CRC791 accumulates the checksum defined by RFC 791 and reused by TCP/UDP:
// the 16-bit ones' complement of the ones' complement sum of all 16-bit words
// in the checksummed data, with an uneven trailing octet LSB padded with zeros.
//
// The zero value of CRC791 is ready to use.
type CRC791 struct {
	sum uint32
}

// WriteEven adds the bytes in buff to the running checksum.
// The buffer length must be even or the function panics.
func (c *CRC791) WriteEven(buff []byte) {
	if len(buff)&1 != 0 {
		panic("CRC791.WriteEven: odd length buffer")
	}
	c.sum = sumWordsEven(c.sum, buff)
}

// AddUint16 adds a 16-bit value to the running checksum interpreted as big endian (network order).
func (c *CRC791) AddUint16(value uint16) {
	c.sum += uint32(value)
}

// AddUint32 adds a 32-bit value to the running checksum interpreted as big endian (network order).
func (c *CRC791) AddUint32(value uint32) {
	c.AddUint16(uint16(value >> 16))
	c.AddUint16(uint16(value))
}

// Sum16 folds the accumulated sum and returns its ones' complement.
func (c *CRC791) Sum16() uint16 {
	return foldComplement(c.sum)
}

// PayloadSum16 returns the checksum obtained by adding buff, which may be of
// odd length, to the data written to c thus far. c is left unmodified.
func (c *CRC791) PayloadSum16(buff []byte) uint16 {
	odd := len(buff) & 1
	sum := sumWordsEven(c.sum, buff[:len(buff)-odd])
	if odd > 0 {
		sum += uint32(buff[len(buff)-1]) << 8
	}
	return foldComplement(sum)
}

// Reset returns the CRC791 to its initial state.
func (c *CRC791) Reset() { *c = CRC791{} }

func sumWordsEven(sum uint32, buff []byte) uint32 {
	for i := 0; i < len(buff); i += 2 {
		sum += uint32(binary.BigEndian.Uint16(buff[i:]))
	}
	return sum
}

// foldComplement repeatedly adds the carry bits above 16 back into the low
// word until none remain, then complements the result.
func foldComplement(sum uint32) uint16 {
	for sum>>16 != 0 {
		sum = sum&0xffff + sum>>16
	}
	return ^uint16(sum)
}

// NeverZeroChecksum maps a zero checksum to 0xffff.
// 0x0000 and 0xffff are the same number in ones' complement math.
func NeverZeroChecksum(sum16 uint16) uint16 {
	if sum16 == 0 {
		return 0xffff
	}
	return sum16
}
