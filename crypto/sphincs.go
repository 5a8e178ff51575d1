package crypto

import "github.com/supernova-chain/supernova/chainhash"

const (
	sphincs128fDomain = "supernova-sphincs128f"
	sphincs256fDomain = "supernova-sphincs256f"
)

// NewSphincsSigner builds a hand-written one-time hash-based signer
// standing in for SPHINCS+ at the requested security level. Real SPHINCS+
// composes many one-time trees into a stateless hypertree so a single
// keypair can sign many messages; this stand-in keeps the one-time-only
// semantics of its underlying Lamport construction (see lamport.go),
// which callers must respect by minting a fresh keypair per use.
func NewSphincsSigner(scheme Scheme, seed []byte) (*LamportSigner, error) {
	switch scheme {
	case SchemeSphincs128f:
		return newLamportSigner(scheme, sphincs128fDomain, seed), nil
	case SchemeSphincs256f:
		return newLamportSigner(scheme, sphincs256fDomain, seed), nil
	default:
		return nil, &UnsupportedSchemeError{Scheme: scheme}
	}
}

func verifySphincs(scheme Scheme, rawPub []byte, digest chainhash.Hash, rawSig []byte) (bool, error) {
	switch scheme {
	case SchemeSphincs128f:
		return lamportVerify(sphincs128fDomain, rawPub, digest, rawSig)
	case SchemeSphincs256f:
		return lamportVerify(sphincs256fDomain, rawPub, digest, rawSig)
	default:
		return false, &UnsupportedSchemeError{Scheme: scheme}
	}
}
