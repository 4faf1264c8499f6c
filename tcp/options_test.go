package tcp

import (
	"bytes"
	"testing"
)

func TestOptionWireSize(t *testing.T) {
	cases := []struct {
		opt  Option
		want int
	}{
		{NewOption(OptEndOfList, nil), 1},
		{NewOption(OptNop, nil), 1},
		{NewOption(OptSACKPermitted, nil), 2}, // length byte but no payload
		{NewOption(OptMSS, []byte{5, 0xb4}), 4},
		{NewOption(OptTimestamp, make([]byte, 8)), 10},
	}
	for _, tc := range cases {
		if got := tc.opt.WireSize(); got != tc.want {
			t.Errorf("%s: WireSize=%d, want %d", &tc.opt, got, tc.want)
		}
	}
}

func TestOptionEncode(t *testing.T) {
	var buf [16]byte

	nop := NewOption(OptNop, nil)
	if n := nop.encode(buf[:]); n != 1 || buf[0] != byte(OptNop) {
		t.Errorf("special encode wrote %d bytes: % x", n, buf[:n])
	}

	mss := NewOption(OptMSS, []byte{0x05, 0xb4})
	n := mss.encode(buf[:])
	if n != 4 || !bytes.Equal(buf[:n], []byte{byte(OptMSS), 4, 0x05, 0xb4}) {
		t.Errorf("regular encode wrote %d bytes: % x", n, buf[:n])
	}

	// A spoofed length field is emitted verbatim without the structural +2.
	spoofed := NewOptionExplicitLength(OptMSS, 9, []byte{0x05, 0xb4})
	n = spoofed.encode(buf[:])
	if n != 4 || !bytes.Equal(buf[:n], []byte{byte(OptMSS), 9, 0x05, 0xb4}) {
		t.Errorf("spoofed encode wrote %d bytes: % x", n, buf[:n])
	}

	sackok := NewOption(OptSACKPermitted, nil)
	n = sackok.encode(buf[:])
	if n != 2 || !bytes.Equal(buf[:n], []byte{byte(OptSACKPermitted), 2}) {
		t.Errorf("SACK permitted encode wrote %d bytes: % x", n, buf[:n])
	}
}

func TestOptionOwnsData(t *testing.T) {
	src := []byte{1, 2}
	opt := NewOption(OptMSS, src)
	src[0] = 0xff
	if opt.Data()[0] != 1 {
		t.Error("option payload aliases the caller's buffer")
	}
}

func TestOptionKindStrings(t *testing.T) {
	if !OptEndOfList.IsSpecial() || !OptNop.IsSpecial() || OptMSS.IsSpecial() {
		t.Error("IsSpecial misclassifies kinds")
	}
	if OptMSS.String() != "MSS" {
		t.Errorf("OptMSS.String()=%q", OptMSS.String())
	}
	if s := OptionKind(99).String(); s != "option(99)" {
		t.Errorf("unknown kind String()=%q", s)
	}
}
