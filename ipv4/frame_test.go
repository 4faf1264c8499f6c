package ipv4

import (
	"math"
	"math/rand"
	"testing"

	"github.com/rookie211/libtins"
)

func TestFrame(t *testing.T) {
	var buf [1024]byte

	ifrm, err := NewFrame(buf[:])
	if err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		wantIHL := uint8(5 + rng.Intn(10))
		ifrm.SetVersionAndIHL(4, wantIHL)
		wantPayloadLen := rng.Intn(64)
		wantTotalLength := 4*uint16(wantIHL) + uint16(wantPayloadLen)
		ifrm.SetTotalLength(wantTotalLength)
		wantTTL := uint8(rng.Intn(256))
		ifrm.SetTTL(wantTTL)
		wantProtocol := libtins.IPProto(rng.Intn(256))
		ifrm.SetProtocol(wantProtocol)
		wantCRC := uint16(rng.Intn(math.MaxUint16))
		ifrm.SetCRC(wantCRC)
		src := ifrm.SourceAddr()
		rng.Read(src[:])
		wantSrc := *src
		dst := ifrm.DestinationAddr()
		rng.Read(dst[:])
		wantDst := *dst

		if err := ifrm.Validate(); err != nil {
			t.Fatal(err)
		}
		if ver, ihl := ifrm.VersionAndIHL(); ver != 4 || ihl != wantIHL {
			t.Errorf("wanted IHL %d, got version,IHL %d,%d", wantIHL, ver, ihl)
		}
		if got := ifrm.HeaderLength(); got != 4*int(wantIHL) {
			t.Errorf("header length %d, want %d", got, 4*int(wantIHL))
		}
		if got := ifrm.TotalLength(); got != wantTotalLength {
			t.Errorf("total length %d, want %d", got, wantTotalLength)
		}
		if got := ifrm.TTL(); got != wantTTL {
			t.Errorf("TTL %d, want %d", got, wantTTL)
		}
		if got := ifrm.Protocol(); got != wantProtocol {
			t.Errorf("protocol %d, want %d", got, wantProtocol)
		}
		if got := ifrm.CRC(); got != wantCRC {
			t.Errorf("CRC %#04x, want %#04x", got, wantCRC)
		}
		if *ifrm.SourceAddr() != wantSrc || *ifrm.DestinationAddr() != wantDst {
			t.Error("addresses did not read back")
		}
		if got := len(ifrm.Payload()); got != wantPayloadLen {
			t.Errorf("payload length %d, want %d", got, wantPayloadLen)
		}
	}
}

func TestFrameHeaderCRC(t *testing.T) {
	var buf [sizeHeader]byte
	ifrm, _ := NewFrame(buf[:])
	ifrm.SetVersionAndIHL(4, 5)
	ifrm.SetTotalLength(sizeHeader)
	ifrm.SetTTL(64)
	ifrm.SetProtocol(libtins.IPProtoTCP)
	*ifrm.SourceAddr() = [4]byte{10, 0, 0, 1}
	*ifrm.DestinationAddr() = [4]byte{10, 0, 0, 2}

	ifrm.SetCRC(ifrm.CalculateHeaderCRC())
	// With the checksum field in place the ones' complement sum of the
	// whole header folds to zero.
	var crc libtins.CRC791
	crc.WriteEven(buf[:])
	if got := crc.Sum16(); got != 0 {
		t.Errorf("header does not verify: residual %#04x", got)
	}
}

func TestFrameValidate(t *testing.T) {
	var buf [sizeHeader]byte
	if _, err := NewFrame(buf[:sizeHeader-1]); err == nil {
		t.Error("NewFrame accepted a 19 byte buffer")
	}
	ifrm, _ := NewFrame(buf[:])
	ifrm.SetVersionAndIHL(6, 5)
	ifrm.SetTotalLength(sizeHeader)
	if err := ifrm.Validate(); err == nil {
		t.Error("Validate accepted version 6")
	}
	ifrm.SetVersionAndIHL(4, 4)
	if err := ifrm.Validate(); err == nil {
		t.Error("Validate accepted IHL 4")
	}
	ifrm.SetVersionAndIHL(4, 5)
	ifrm.SetTotalLength(sizeHeader + 1)
	if err := ifrm.Validate(); err == nil {
		t.Error("Validate accepted total length past buffer")
	}
}

func TestFramePseudoHeader(t *testing.T) {
	var buf [sizeHeader]byte
	ifrm, _ := NewFrame(buf[:])
	*ifrm.SourceAddr() = [4]byte{1, 2, 3, 4}
	*ifrm.DestinationAddr() = [4]byte{5, 6, 7, 8}
	ph := ifrm.PseudoHeader()
	if !ph.Valid() {
		t.Fatal("pseudo-header variant not valid")
	}
	var got, want libtins.CRC791
	ph.WriteSum(&got, 40, libtins.IPProtoTCP)
	want.WriteEven([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	want.AddUint16(40)
	want.AddUint16(uint16(libtins.IPProtoTCP))
	if got.Sum16() != want.Sum16() {
		t.Errorf("pseudo-header sum %#04x, want %#04x", got.Sum16(), want.Sum16())
	}
}
