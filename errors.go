package libtins

import "errors"

// Errors common to serialization across protocol packages.
var (
	// ErrShortBuffer is returned when a destination buffer cannot hold the
	// serialized representation of a PDU.
	ErrShortBuffer = errors.New("buffer too short for PDU")
)
