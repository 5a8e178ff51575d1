package crypto

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/supernova-chain/supernova/chainhash"
)

// AddressFromPubKey derives a bech32m address for pub under hrp
// ("nova"/"test"/"devnet" per chainparams). The encoded payload is the
// scheme-tagged public key hashed down to 20 bytes, the same
// hash-then-encode shape used throughout the corpus's address packages,
// adapted to this repo's chainhash instead of RIPEMD160(SHA256(..)).
func AddressFromPubKey(hrp string, pub PublicKey) (string, error) {
	h := pubKeyHash(pub)
	converted, err := bech32.ConvertBits(h[:], 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("crypto: convert address payload bits: %w", err)
	}
	payload := append([]byte{byte(pub.Scheme)}, converted...)
	addr, err := bech32.EncodeM(hrp, payload)
	if err != nil {
		return "", fmt.Errorf("crypto: encode bech32m address: %w", err)
	}
	return addr, nil
}

// PubKeyHashFor returns the first 20 bytes of H(scheme || raw key), the
// value embedded both in a bech32m address and in a locking script
// (validate.BuildScriptPubKey).
func PubKeyHashFor(pub PublicKey) [20]byte {
	return pubKeyHash(pub)
}

// pubKeyHash returns the first 20 bytes of H(scheme || raw key), the value
// embedded in an address.
func pubKeyHash(pub PublicKey) [20]byte {
	buf := append([]byte{byte(pub.Scheme)}, pub.Raw...)
	full := chainhash.HashH(buf)
	var out [20]byte
	copy(out[:], full[:20])
	return out
}

// AddressPubKeyHash decodes a bech32m address and returns its network HRP,
// signature scheme tag, and embedded 20-byte public key hash. It does not
// recover the full public key — only its hash is ever placed on-chain,
// matching the corpus's pay-to-pubkey-hash convention.
func AddressPubKeyHash(address string) (hrp string, scheme Scheme, hash [20]byte, err error) {
	decodedHRP, data, version, err := bech32.DecodeGeneric(address)
	if err != nil {
		return "", 0, hash, fmt.Errorf("crypto: decode bech32 address: %w", err)
	}
	if version != bech32.Bech32m {
		return "", 0, hash, fmt.Errorf("crypto: address is not bech32m encoded")
	}
	if len(data) == 0 {
		return "", 0, hash, fmt.Errorf("crypto: address payload is empty")
	}
	scheme = Scheme(data[0])
	converted, err := bech32.ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return "", 0, hash, fmt.Errorf("crypto: convert address payload bits: %w", err)
	}
	if len(converted) != 20 {
		return "", 0, hash, fmt.Errorf("crypto: address payload must decode to 20 bytes, got %d", len(converted))
	}
	copy(hash[:], converted)
	return decodedHRP, scheme, hash, nil
}

// VerifyAddress reports whether pub hashes to the pubkey hash embedded in
// address and that the address's scheme tag matches pub's scheme.
func VerifyAddress(address string, pub PublicKey) (bool, error) {
	_, scheme, hash, err := AddressPubKeyHash(address)
	if err != nil {
		return false, err
	}
	if scheme != pub.Scheme {
		return false, nil
	}
	return pubKeyHash(pub) == hash, nil
}
