package crypto

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/supernova-chain/supernova/chainhash"
)

// Secp256k1Signer wraps a decred secp256k1 private key, grounded on the
// ECDSA signer found across the pack's txscript sigcache implementations
// (EXCCoin-exccd/txscript/sigcache.go).
type Secp256k1Signer struct {
	priv *secp256k1.PrivateKey
}

// NewSecp256k1Signer constructs a signer from raw private key bytes.
func NewSecp256k1Signer(raw []byte) (*Secp256k1Signer, error) {
	if len(raw) != 32 {
		return nil, fmt.Errorf("crypto: secp256k1 private key must be 32 bytes, got %d", len(raw))
	}
	priv := secp256k1.PrivKeyFromBytes(raw)
	return &Secp256k1Signer{priv: priv}, nil
}

func (s *Secp256k1Signer) Scheme() Scheme { return SchemeSecp256k1 }

func (s *Secp256k1Signer) PublicKey() PublicKey {
	return PublicKey{Scheme: SchemeSecp256k1, Raw: s.priv.PubKey().SerializeCompressed()}
}

func (s *Secp256k1Signer) Sign(digest chainhash.Hash) (Signature, error) {
	sig := ecdsa.Sign(s.priv, digest[:])
	return Signature{Scheme: SchemeSecp256k1, Raw: sig.Serialize()}, nil
}

func verifySecp256k1(rawPub []byte, digest chainhash.Hash, rawSig []byte) (bool, error) {
	pub, err := secp256k1.ParsePubKey(rawPub)
	if err != nil {
		return false, fmt.Errorf("crypto: parse secp256k1 public key: %w", err)
	}
	sig, err := ecdsa.ParseDERSignature(rawSig)
	if err != nil {
		return false, fmt.Errorf("crypto: parse secp256k1 signature: %w", err)
	}
	return sig.Verify(digest[:], pub), nil
}
