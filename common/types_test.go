package common

import "testing"

func TestHashHexRoundTrip(t *testing.T) {
	h := HexToHash("0x0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20")
	if got, want := h.Hex(), "0x0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20"; got != want {
		t.Fatalf("Hex() = %s, want %s", got, want)
	}
}

func TestPublicKeyOrdering(t *testing.T) {
	a := HexToPublicKey("0x01" + "0000000000000000000000000000000000000000000000000000000000aa")
	b := HexToPublicKey("0x01" + "0000000000000000000000000000000000000000000000000000000000bb")
	if !a.Less(b) {
		t.Fatalf("expected %s < %s", a, b)
	}
	if b.Less(a) {
		t.Fatalf("did not expect %s < %s", b, a)
	}
	if a.Less(a) {
		t.Fatalf("key must not be less than itself")
	}
}

func TestFromHexMalformed(t *testing.T) {
	if got := FromHex("not-hex!!"); got != nil {
		t.Fatalf("expected nil for malformed hex, got %x", got)
	}
}
