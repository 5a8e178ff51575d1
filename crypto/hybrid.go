package crypto

import (
	"encoding/binary"
	"fmt"

	"github.com/supernova-chain/supernova/chainhash"
)

// HybridSigner signs with two underlying schemes (conventionally one
// classical, one post-quantum) and requires both signatures to verify:
// a break of either algorithm alone must not forge a hybrid signature.
type HybridSigner struct {
	first, second Signer
}

// NewHybridSigner composes two signers. Callers are expected to pair one
// classical scheme (Secp256k1/Ed25519) with one post-quantum scheme.
func NewHybridSigner(first, second Signer) *HybridSigner {
	return &HybridSigner{first: first, second: second}
}

func (s *HybridSigner) Scheme() Scheme { return SchemeHybrid }

func (s *HybridSigner) PublicKey() PublicKey {
	return PublicKey{Scheme: SchemeHybrid, Raw: packHybrid(s.first.PublicKey().Scheme, s.first.PublicKey().Raw, s.second.PublicKey().Scheme, s.second.PublicKey().Raw)}
}

func (s *HybridSigner) Sign(digest chainhash.Hash) (Signature, error) {
	sig1, err := s.first.Sign(digest)
	if err != nil {
		return Signature{}, fmt.Errorf("crypto: hybrid first signature: %w", err)
	}
	sig2, err := s.second.Sign(digest)
	if err != nil {
		return Signature{}, fmt.Errorf("crypto: hybrid second signature: %w", err)
	}
	return Signature{Scheme: SchemeHybrid, Raw: packHybrid(sig1.Scheme, sig1.Raw, sig2.Scheme, sig2.Raw)}, nil
}

func packHybrid(scheme1 Scheme, raw1 []byte, scheme2 Scheme, raw2 []byte) []byte {
	buf := make([]byte, 0, 1+4+len(raw1)+1+4+len(raw2))
	buf = append(buf, byte(scheme1))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(raw1)))
	buf = append(buf, raw1...)
	buf = append(buf, byte(scheme2))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(raw2)))
	buf = append(buf, raw2...)
	return buf
}

func unpackHybrid(buf []byte) (scheme1 Scheme, raw1 []byte, scheme2 Scheme, raw2 []byte, err error) {
	if len(buf) < 5 {
		return 0, nil, 0, nil, fmt.Errorf("crypto: hybrid payload too short")
	}
	scheme1 = Scheme(buf[0])
	n1 := binary.LittleEndian.Uint32(buf[1:5])
	buf = buf[5:]
	if uint32(len(buf)) < n1 {
		return 0, nil, 0, nil, fmt.Errorf("crypto: hybrid first component truncated")
	}
	raw1 = buf[:n1]
	buf = buf[n1:]

	if len(buf) < 5 {
		return 0, nil, 0, nil, fmt.Errorf("crypto: hybrid payload missing second component")
	}
	scheme2 = Scheme(buf[0])
	n2 := binary.LittleEndian.Uint32(buf[1:5])
	buf = buf[5:]
	if uint32(len(buf)) != n2 {
		return 0, nil, 0, nil, fmt.Errorf("crypto: hybrid second component length mismatch")
	}
	raw2 = buf[:n2]
	return scheme1, raw1, scheme2, raw2, nil
}

func verifyHybrid(rawPub []byte, digest chainhash.Hash, rawSig []byte) (bool, error) {
	pubScheme1, pubRaw1, pubScheme2, pubRaw2, err := unpackHybrid(rawPub)
	if err != nil {
		return false, fmt.Errorf("crypto: unpack hybrid public key: %w", err)
	}
	sigScheme1, sigRaw1, sigScheme2, sigRaw2, err := unpackHybrid(rawSig)
	if err != nil {
		return false, fmt.Errorf("crypto: unpack hybrid signature: %w", err)
	}
	if pubScheme1 != sigScheme1 || pubScheme2 != sigScheme2 {
		return false, fmt.Errorf("crypto: hybrid scheme tags do not match between key and signature")
	}

	ok1, err := Verify(PublicKey{Scheme: pubScheme1, Raw: pubRaw1}, digest, Signature{Scheme: sigScheme1, Raw: sigRaw1})
	if err != nil {
		return false, fmt.Errorf("crypto: hybrid first verify: %w", err)
	}
	ok2, err := Verify(PublicKey{Scheme: pubScheme2, Raw: pubRaw2}, digest, Signature{Scheme: sigScheme2, Raw: sigRaw2})
	if err != nil {
		return false, fmt.Errorf("crypto: hybrid second verify: %w", err)
	}
	return ok1 && ok2, nil
}
