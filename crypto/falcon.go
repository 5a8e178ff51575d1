package crypto

import "github.com/supernova-chain/supernova/chainhash"

const (
	falcon512Domain  = "supernova-falcon512"
	falcon1024Domain = "supernova-falcon1024"
)

// NewFalconSigner builds a hand-written hash-based stand-in for Falcon at
// the requested security level, seeded from raw private key bytes. See
// lamport.go for why this is hash-based rather than lattice-based.
func NewFalconSigner(scheme Scheme, seed []byte) (*LamportSigner, error) {
	switch scheme {
	case SchemeFalcon512:
		return newLamportSigner(scheme, falcon512Domain, seed), nil
	case SchemeFalcon1024:
		return newLamportSigner(scheme, falcon1024Domain, seed), nil
	default:
		return nil, &UnsupportedSchemeError{Scheme: scheme}
	}
}

func verifyFalcon(scheme Scheme, rawPub []byte, digest chainhash.Hash, rawSig []byte) (bool, error) {
	switch scheme {
	case SchemeFalcon512:
		return lamportVerify(falcon512Domain, rawPub, digest, rawSig)
	case SchemeFalcon1024:
		return lamportVerify(falcon1024Domain, rawPub, digest, rawSig)
	default:
		return false, &UnsupportedSchemeError{Scheme: scheme}
	}
}
