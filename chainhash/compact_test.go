package chainhash

import (
	"math/big"
	"testing"
)

func TestCompactRoundTrip(t *testing.T) {
	cases := []uint32{
		0x1d00ffff,
		0x1b0404cb,
		0x207fffff,
		0x01010000,
	}
	for _, c := range cases {
		big := CompactToBig(c)
		got := BigToCompact(big)
		if got != c {
			t.Errorf("round trip %#08x -> %#08x -> %#08x", c, big, got)
		}
	}
}

func TestHashToBigOrdering(t *testing.T) {
	low := HashH([]byte("a"))
	high := HashH([]byte("b"))
	a, b := HashToBig(&low), HashToBig(&high)
	if a.Cmp(b) == 0 {
		t.Fatal("expected distinct hashes to produce distinct big.Int values")
	}
	if a.Sign() < 0 || b.Sign() < 0 {
		t.Fatal("hash magnitude must be non-negative")
	}
}

func TestHashPairDeterministic(t *testing.T) {
	l := HashH([]byte("left"))
	r := HashH([]byte("right"))
	p1 := HashPair(l, r)
	p2 := HashPair(l, r)
	if p1 != p2 {
		t.Fatal("HashPair must be deterministic")
	}
	if p1 == HashPair(r, l) {
		t.Fatal("HashPair must not be commutative")
	}
}

func TestCompactToBigMinTarget(t *testing.T) {
	// With exponent 0 the mantissa is shifted right by three bytes, so a
	// one-byte mantissa collapses to zero.
	got := CompactToBig(0x00000001)
	if got.Cmp(big.NewInt(0)) != 0 {
		t.Fatalf("exponent-0 compact should collapse to 0, got %s", got)
	}
}
