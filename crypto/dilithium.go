package crypto

import (
	"fmt"

	"github.com/cloudflare/circl/sign/dilithium/mode2"
	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"github.com/cloudflare/circl/sign/dilithium/mode5"
	"github.com/supernova-chain/supernova/chainhash"
)

// DilithiumSigner wraps a circl Dilithium private key at one of the three
// supported security levels. circl is named, not corpus-grounded: none of
// the reference repos import a post-quantum signature library, but a
// pluggable post-quantum scheme needs a real NIST PQC implementation and
// circl is the production-grade Go one
// (see DESIGN.md).
type DilithiumSigner struct {
	scheme Scheme
	pub    []byte
	priv   []byte
}

// NewDilithiumSigner wraps raw encoded keys for the given mode.
func NewDilithiumSigner(scheme Scheme, pub, priv []byte) (*DilithiumSigner, error) {
	switch scheme {
	case SchemeDilithium2, SchemeDilithium3, SchemeDilithium5:
	default:
		return nil, &UnsupportedSchemeError{Scheme: scheme}
	}
	return &DilithiumSigner{scheme: scheme, pub: pub, priv: priv}, nil
}

func (s *DilithiumSigner) Scheme() Scheme { return s.scheme }

func (s *DilithiumSigner) PublicKey() PublicKey {
	return PublicKey{Scheme: s.scheme, Raw: s.pub}
}

func (s *DilithiumSigner) Sign(digest chainhash.Hash) (Signature, error) {
	switch s.scheme {
	case SchemeDilithium2:
		var sk mode2.PrivateKey
		if err := unpackDilithium2Priv(&sk, s.priv); err != nil {
			return Signature{}, err
		}
		sig := make([]byte, mode2.SignatureSize)
		mode2.SignTo(&sk, digest[:], sig)
		return Signature{Scheme: s.scheme, Raw: sig}, nil
	case SchemeDilithium3:
		var sk mode3.PrivateKey
		if err := unpackDilithium3Priv(&sk, s.priv); err != nil {
			return Signature{}, err
		}
		sig := make([]byte, mode3.SignatureSize)
		mode3.SignTo(&sk, digest[:], sig)
		return Signature{Scheme: s.scheme, Raw: sig}, nil
	case SchemeDilithium5:
		var sk mode5.PrivateKey
		if err := unpackDilithium5Priv(&sk, s.priv); err != nil {
			return Signature{}, err
		}
		sig := make([]byte, mode5.SignatureSize)
		mode5.SignTo(&sk, digest[:], sig)
		return Signature{Scheme: s.scheme, Raw: sig}, nil
	default:
		return Signature{}, &UnsupportedSchemeError{Scheme: s.scheme}
	}
}

func unpackDilithium2Priv(sk *mode2.PrivateKey, raw []byte) error {
	if len(raw) != mode2.PrivateKeySize {
		return fmt.Errorf("crypto: dilithium2 private key must be %d bytes, got %d", mode2.PrivateKeySize, len(raw))
	}
	sk.Unpack((*[mode2.PrivateKeySize]byte)(raw))
	return nil
}

func unpackDilithium3Priv(sk *mode3.PrivateKey, raw []byte) error {
	if len(raw) != mode3.PrivateKeySize {
		return fmt.Errorf("crypto: dilithium3 private key must be %d bytes, got %d", mode3.PrivateKeySize, len(raw))
	}
	sk.Unpack((*[mode3.PrivateKeySize]byte)(raw))
	return nil
}

func unpackDilithium5Priv(sk *mode5.PrivateKey, raw []byte) error {
	if len(raw) != mode5.PrivateKeySize {
		return fmt.Errorf("crypto: dilithium5 private key must be %d bytes, got %d", mode5.PrivateKeySize, len(raw))
	}
	sk.Unpack((*[mode5.PrivateKeySize]byte)(raw))
	return nil
}

func verifyDilithium(scheme Scheme, rawPub []byte, digest chainhash.Hash, rawSig []byte) (bool, error) {
	switch scheme {
	case SchemeDilithium2:
		if len(rawPub) != mode2.PublicKeySize {
			return false, fmt.Errorf("crypto: dilithium2 public key must be %d bytes, got %d", mode2.PublicKeySize, len(rawPub))
		}
		var pk mode2.PublicKey
		pk.Unpack((*[mode2.PublicKeySize]byte)(rawPub))
		return mode2.Verify(&pk, digest[:], rawSig), nil
	case SchemeDilithium3:
		if len(rawPub) != mode3.PublicKeySize {
			return false, fmt.Errorf("crypto: dilithium3 public key must be %d bytes, got %d", mode3.PublicKeySize, len(rawPub))
		}
		var pk mode3.PublicKey
		pk.Unpack((*[mode3.PublicKeySize]byte)(rawPub))
		return mode3.Verify(&pk, digest[:], rawSig), nil
	case SchemeDilithium5:
		if len(rawPub) != mode5.PublicKeySize {
			return false, fmt.Errorf("crypto: dilithium5 public key must be %d bytes, got %d", mode5.PublicKeySize, len(rawPub))
		}
		var pk mode5.PublicKey
		pk.Unpack((*[mode5.PublicKeySize]byte)(rawPub))
		return mode5.Verify(&pk, digest[:], rawSig), nil
	default:
		return false, &UnsupportedSchemeError{Scheme: scheme}
	}
}
