package validate

import (
	"encoding/binary"
	"fmt"

	"github.com/supernova-chain/supernova/chainhash"
	"github.com/supernova-chain/supernova/crypto"
	"github.com/supernova-chain/supernova/wire"
)

// This repo has no scripting language (a smart-contract or script VM is
// out of scope): every output locks to a single
// scheme-tagged public key hash, and every input unlocks by revealing the
// public key and a signature over the spending transaction, the simplest
// possible instantiation of the pluggable-signature scheme.

// ScriptPubKey is the 1-byte scheme tag followed by the 20-byte public key
// hash, the exact payload crypto.AddressFromPubKey encodes into bech32m.
func BuildScriptPubKey(pub crypto.PublicKey) []byte {
	hash := crypto.PubKeyHashFor(pub)
	out := make([]byte, 1+len(hash))
	out[0] = byte(pub.Scheme)
	copy(out[1:], hash[:])
	return out
}

// BuildScriptSig packs a public key and signature into an input's unlock
// payload: scheme, pubkey length + pubkey, signature length + signature.
func BuildScriptSig(pub crypto.PublicKey, sig crypto.Signature) []byte {
	buf := make([]byte, 0, 1+4+len(pub.Raw)+4+len(sig.Raw))
	buf = append(buf, byte(pub.Scheme))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(pub.Raw)))
	buf = append(buf, pub.Raw...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(sig.Raw)))
	buf = append(buf, sig.Raw...)
	return buf
}

func parseScriptSig(raw []byte) (crypto.PublicKey, crypto.Signature, error) {
	if len(raw) < 5 {
		return crypto.PublicKey{}, crypto.Signature{}, fmt.Errorf("validate: script sig too short")
	}
	scheme := crypto.Scheme(raw[0])
	pubLen := binary.LittleEndian.Uint32(raw[1:5])
	raw = raw[5:]
	if uint32(len(raw)) < pubLen {
		return crypto.PublicKey{}, crypto.Signature{}, fmt.Errorf("validate: script sig public key truncated")
	}
	pubRaw := raw[:pubLen]
	raw = raw[pubLen:]

	if len(raw) < 4 {
		return crypto.PublicKey{}, crypto.Signature{}, fmt.Errorf("validate: script sig missing signature length")
	}
	sigLen := binary.LittleEndian.Uint32(raw[:4])
	raw = raw[4:]
	if uint32(len(raw)) != sigLen {
		return crypto.PublicKey{}, crypto.Signature{}, fmt.Errorf("validate: script sig signature length mismatch")
	}
	sigRaw := raw

	pub := crypto.PublicKey{Scheme: scheme, Raw: pubRaw}
	sig := crypto.Signature{Scheme: scheme, Raw: sigRaw}
	return pub, sig, nil
}

// SigHash computes the digest an input's signature is made over: the hash
// of the transaction with every input's ScriptSig cleared, the simplest
// sighash construction that still commits to every input and output
// (equivalent to Bitcoin's legacy SIGHASH_ALL with no script to exclude).
func SigHash(tx *wire.Transaction) chainhash.Hash {
	stripped := &wire.Transaction{
		Version:  tx.Version,
		LockTime: tx.LockTime,
		Outputs:  tx.Outputs,
	}
	stripped.Inputs = make([]*wire.TxInput, len(tx.Inputs))
	for i, in := range tx.Inputs {
		stripped.Inputs[i] = &wire.TxInput{PrevOut: in.PrevOut, Sequence: in.Sequence}
	}
	return chainhash.HashH(stripped.Bytes())
}

// VerifyInputSignature checks that input i of tx unlocks scriptPubKey: the
// revealed public key hashes to the locked pubkey hash, and the signature
// verifies over SigHash(tx).
func VerifyInputSignature(tx *wire.Transaction, inputIndex int, scriptPubKey []byte) error {
	if inputIndex < 0 || inputIndex >= len(tx.Inputs) {
		return fmt.Errorf("validate: input index %d out of range", inputIndex)
	}
	if len(scriptPubKey) != 21 {
		return ruleError(ErrBadSignature, "locking script has unexpected length")
	}
	lockedScheme := crypto.Scheme(scriptPubKey[0])
	var lockedHash [20]byte
	copy(lockedHash[:], scriptPubKey[1:])

	pub, sig, err := parseScriptSig(tx.Inputs[inputIndex].ScriptSig)
	if err != nil {
		return ruleError(ErrBadSignature, err.Error())
	}
	if pub.Scheme != lockedScheme {
		return ruleError(ErrBadSignature, "public key scheme does not match locking script")
	}
	if crypto.PubKeyHashFor(pub) != lockedHash {
		return ruleError(ErrBadSignature, "public key does not match locking script hash")
	}

	digest := SigHash(tx)
	ok, err := crypto.Verify(pub, digest, sig)
	if err != nil {
		return ruleError(ErrBadSignature, err.Error())
	}
	if !ok {
		return ruleError(ErrBadSignature, "signature verification failed")
	}
	return nil
}
