package libtins

// PDU is the capability a protocol layer requires of the next layer it owns:
// report serialized size, emit wire bytes, and participate in pairing a
// request with a captured response buffer.
type PDU interface {
	// Size returns the total serialized size of the PDU in bytes.
	Size() int
	// SerializeTo writes the PDU's wire representation at the start of dst
	// and returns the number of bytes written. It returns ErrShortBuffer
	// when dst cannot hold the full representation.
	SerializeTo(dst []byte) (int, error)
	// MatchesResponse reports whether raw could be a response to this PDU.
	MatchesResponse(raw []byte) bool
}

// RawPDU holds trailing bytes that could not be decoded any further.
// It owns an independent copy of the bytes it was created from.
type RawPDU struct {
	payload []byte
}

var _ PDU = (*RawPDU)(nil)

// NewRawPDU returns a RawPDU owning a copy of payload.
func NewRawPDU(payload []byte) *RawPDU {
	return &RawPDU{payload: append([]byte(nil), payload...)}
}

// Payload returns the bytes held by the RawPDU.
func (r *RawPDU) Payload() []byte { return r.payload }

// Size returns the number of bytes held by the RawPDU.
func (r *RawPDU) Size() int { return len(r.payload) }

// SerializeTo copies the held bytes to the start of dst.
func (r *RawPDU) SerializeTo(dst []byte) (int, error) {
	if len(dst) < len(r.payload) {
		return 0, ErrShortBuffer
	}
	return copy(dst, r.payload), nil
}

// MatchesResponse reports true for any candidate: opaque bytes carry no
// structure to constrain the match further.
func (r *RawPDU) MatchesResponse(raw []byte) bool { return true }
