// Package crypto implements a pluggable signature-scheme abstraction:
// a tagged, dispatched set of classical and post-quantum schemes behind
// a single Signer/Verifier contract, plus
// bech32m address derivation.
package crypto

import (
	"fmt"

	"github.com/supernova-chain/supernova/chainhash"
)

// Scheme tags which signature algorithm a key or signature belongs to: a
// tagged value over a fixed finite set of variants with a total match
// rather than an open interface registry, so every dispatch below is a
// closed switch over Scheme.
type Scheme byte

const (
	SchemeSecp256k1 Scheme = iota + 1
	SchemeEd25519
	SchemeDilithium2
	SchemeDilithium3
	SchemeDilithium5
	SchemeFalcon512
	SchemeFalcon1024
	SchemeSphincs128f
	SchemeSphincs256f
	SchemeHybrid
)

func (s Scheme) String() string {
	switch s {
	case SchemeSecp256k1:
		return "secp256k1"
	case SchemeEd25519:
		return "ed25519"
	case SchemeDilithium2:
		return "dilithium2"
	case SchemeDilithium3:
		return "dilithium3"
	case SchemeDilithium5:
		return "dilithium5"
	case SchemeFalcon512:
		return "falcon512"
	case SchemeFalcon1024:
		return "falcon1024"
	case SchemeSphincs128f:
		return "sphincs128f"
	case SchemeSphincs256f:
		return "sphincs256f"
	case SchemeHybrid:
		return "hybrid"
	default:
		return fmt.Sprintf("scheme(%d)", byte(s))
	}
}

// ParseScheme resolves a scheme's canonical lowercase name (matching
// Scheme.String) back to its Scheme value, for config files and RPC
// request bodies that name a scheme by string rather than by byte.
func ParseScheme(name string) (Scheme, error) {
	switch name {
	case "secp256k1":
		return SchemeSecp256k1, nil
	case "ed25519":
		return SchemeEd25519, nil
	case "dilithium2":
		return SchemeDilithium2, nil
	case "dilithium3":
		return SchemeDilithium3, nil
	case "dilithium5":
		return SchemeDilithium5, nil
	case "falcon512":
		return SchemeFalcon512, nil
	case "falcon1024":
		return SchemeFalcon1024, nil
	case "sphincs128f":
		return SchemeSphincs128f, nil
	case "sphincs256f":
		return SchemeSphincs256f, nil
	case "hybrid":
		return SchemeHybrid, nil
	default:
		return 0, fmt.Errorf("crypto: unknown scheme name %q", name)
	}
}

// UnsupportedSchemeError is returned whenever a Scheme byte does not match
// any variant this build knows how to dispatch.
type UnsupportedSchemeError struct {
	Scheme Scheme
}

func (e *UnsupportedSchemeError) Error() string {
	return fmt.Sprintf("crypto: unsupported signature scheme %s", e.Scheme)
}

// PublicKey is a scheme-tagged public key: the scheme byte prefixes the
// raw key material so a PublicKey is self-describing on the wire.
type PublicKey struct {
	Scheme Scheme
	Raw    []byte
}

// Signature is a scheme-tagged signature, mirroring PublicKey.
type Signature struct {
	Scheme Scheme
	Raw    []byte
}

// Signer produces signatures over a 32-byte message digest.
type Signer interface {
	Scheme() Scheme
	PublicKey() PublicKey
	Sign(digest chainhash.Hash) (Signature, error)
}

// Verifier checks a Signature against a PublicKey and message digest.
// Implementations must reject a Signature/PublicKey pair whose Scheme
// fields disagree, and must run in time independent of whether the
// signature is valid wherever the scheme's underlying library allows it.
type Verifier interface {
	Verify(pub PublicKey, digest chainhash.Hash, sig Signature) (bool, error)
}

// Verify dispatches to the scheme named by sig.Scheme, the single entry
// point every caller (validate, htlc) is expected to use.
func Verify(pub PublicKey, digest chainhash.Hash, sig Signature) (bool, error) {
	if pub.Scheme != sig.Scheme {
		return false, fmt.Errorf("crypto: public key scheme %s does not match signature scheme %s", pub.Scheme, sig.Scheme)
	}
	switch sig.Scheme {
	case SchemeSecp256k1:
		return verifySecp256k1(pub.Raw, digest, sig.Raw)
	case SchemeEd25519:
		return verifyEd25519(pub.Raw, digest, sig.Raw)
	case SchemeDilithium2, SchemeDilithium3, SchemeDilithium5:
		return verifyDilithium(sig.Scheme, pub.Raw, digest, sig.Raw)
	case SchemeFalcon512, SchemeFalcon1024:
		return verifyFalcon(sig.Scheme, pub.Raw, digest, sig.Raw)
	case SchemeSphincs128f, SchemeSphincs256f:
		return verifySphincs(sig.Scheme, pub.Raw, digest, sig.Raw)
	case SchemeHybrid:
		return verifyHybrid(pub.Raw, digest, sig.Raw)
	default:
		return false, &UnsupportedSchemeError{Scheme: sig.Scheme}
	}
}
