package crypto

import (
	stded25519 "crypto/ed25519"
	"fmt"

	"github.com/supernova-chain/supernova/chainhash"
)

// Ed25519Signer wraps the standard library's ed25519 implementation. This is
// the one deliberate standard-library exception in this package: ed25519 is
// canonical stdlib territory and no corpus repo vendors an alternative
// implementation (see DESIGN.md "Standard-library justifications").
type Ed25519Signer struct {
	priv stded25519.PrivateKey
}

// NewEd25519Signer constructs a signer from a 64-byte seed+public key, the
// format produced by crypto/ed25519.GenerateKey.
func NewEd25519Signer(raw []byte) (*Ed25519Signer, error) {
	if len(raw) != stded25519.PrivateKeySize {
		return nil, fmt.Errorf("crypto: ed25519 private key must be %d bytes, got %d", stded25519.PrivateKeySize, len(raw))
	}
	return &Ed25519Signer{priv: stded25519.PrivateKey(raw)}, nil
}

func (s *Ed25519Signer) Scheme() Scheme { return SchemeEd25519 }

func (s *Ed25519Signer) PublicKey() PublicKey {
	pub := s.priv.Public().(stded25519.PublicKey)
	return PublicKey{Scheme: SchemeEd25519, Raw: []byte(pub)}
}

func (s *Ed25519Signer) Sign(digest chainhash.Hash) (Signature, error) {
	sig := stded25519.Sign(s.priv, digest[:])
	return Signature{Scheme: SchemeEd25519, Raw: sig}, nil
}

func verifyEd25519(rawPub []byte, digest chainhash.Hash, rawSig []byte) (bool, error) {
	if len(rawPub) != stded25519.PublicKeySize {
		return false, fmt.Errorf("crypto: ed25519 public key must be %d bytes, got %d", stded25519.PublicKeySize, len(rawPub))
	}
	if len(rawSig) != stded25519.SignatureSize {
		return false, fmt.Errorf("crypto: ed25519 signature must be %d bytes, got %d", stded25519.SignatureSize, len(rawSig))
	}
	return stded25519.Verify(stded25519.PublicKey(rawPub), digest[:], rawSig), nil
}
