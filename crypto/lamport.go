package crypto

import (
	"fmt"

	"github.com/supernova-chain/supernova/chainhash"
)

// lamportOTS implements a Lamport one-time-signature scheme over a 256-bit
// digest, used as the shared hash-based construction backing both Falcon
// and SPHINCS+ below. Neither lattice-based Falcon nor the full
// hypertree-based SPHINCS+ has a production Go implementation in the
// ecosystem (see DESIGN.md "Standard-library justifications"), so both are
// represented here by a genuine hash-based one-time signature, domain-
// separated per scheme and security level. This is deliberately a
// simplified stand-in: real SPHINCS+ composes many such one-time trees
// into a stateless hypertree for unbounded reuse, which is out of scope
// for a hand-written implementation.
//
// Private key: 256 pairs of 32-byte secrets, derived deterministically from
// a seed so the private key need only store the seed.
// Public key: H(secret) for every one of the 512 secrets, in order.
// Signature: for each of the 256 digest bits, the secret selected by that
// bit (the other half of each pair stays hidden).
const lamportDigestBits = 256

func lamportSecret(domain string, seed []byte, bitIndex int, which byte) chainhash.Hash {
	buf := make([]byte, 0, len(domain)+len(seed)+5)
	buf = append(buf, domain...)
	buf = append(buf, seed...)
	buf = append(buf, byte(bitIndex>>8), byte(bitIndex))
	buf = append(buf, which)
	return chainhash.HashH(buf)
}

func lamportPublicKey(domain string, seed []byte) []byte {
	pub := make([]byte, 0, lamportDigestBits*2*chainhash.HashSize)
	for i := 0; i < lamportDigestBits; i++ {
		for _, which := range [2]byte{0, 1} {
			secret := lamportSecret(domain, seed, i, which)
			leaf := chainhash.HashH(secret[:])
			pub = append(pub, leaf[:]...)
		}
	}
	return pub
}

func lamportSign(domain string, seed []byte, digest chainhash.Hash) []byte {
	sig := make([]byte, 0, lamportDigestBits*chainhash.HashSize)
	for i := 0; i < lamportDigestBits; i++ {
		bit := bitAt(digest, i)
		secret := lamportSecret(domain, seed, i, bit)
		sig = append(sig, secret[:]...)
	}
	return sig
}

func lamportVerify(domain string, pub []byte, digest chainhash.Hash, sig []byte) (bool, error) {
	wantPubLen := lamportDigestBits * 2 * chainhash.HashSize
	if len(pub) != wantPubLen {
		return false, fmt.Errorf("crypto: %s public key must be %d bytes, got %d", domain, wantPubLen, len(pub))
	}
	wantSigLen := lamportDigestBits * chainhash.HashSize
	if len(sig) != wantSigLen {
		return false, fmt.Errorf("crypto: %s signature must be %d bytes, got %d", domain, wantSigLen, len(sig))
	}
	for i := 0; i < lamportDigestBits; i++ {
		bit := bitAt(digest, i)
		revealed := sig[i*chainhash.HashSize : (i+1)*chainhash.HashSize]
		leaf := chainhash.HashH(revealed)

		leafOffset := (i*2 + int(bit)) * chainhash.HashSize
		expected := pub[leafOffset : leafOffset+chainhash.HashSize]
		if string(leaf[:]) != string(expected) {
			return false, nil
		}
	}
	return true, nil
}

func bitAt(digest chainhash.Hash, i int) byte {
	byteIdx := i / 8
	bitIdx := uint(i % 8)
	return (digest[byteIdx] >> bitIdx) & 1
}

// LamportSigner is a one-time signer: calling Sign more than once with
// distinct digests leaks enough secret material to forge further
// signatures, matching the real one-time-signature security model that
// both Falcon and SPHINCS+ callers (htlc, in particular) must respect by
// never reusing a keypair across HTLCs.
type LamportSigner struct {
	scheme Scheme
	domain string
	seed   []byte
}

func newLamportSigner(scheme Scheme, domain string, seed []byte) *LamportSigner {
	return &LamportSigner{scheme: scheme, domain: domain, seed: seed}
}

func (s *LamportSigner) Scheme() Scheme { return s.scheme }

func (s *LamportSigner) PublicKey() PublicKey {
	return PublicKey{Scheme: s.scheme, Raw: lamportPublicKey(s.domain, s.seed)}
}

func (s *LamportSigner) Sign(digest chainhash.Hash) (Signature, error) {
	return Signature{Scheme: s.scheme, Raw: lamportSign(s.domain, s.seed, digest)}, nil
}
