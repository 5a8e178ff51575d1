// Package chainhash implements the hash primitive used throughout Supernova
// consensus: SHA3-512 truncated to 32 bytes, plus the big.Int helpers needed
// to compare hashes against compact-encoded proof-of-work targets.
package chainhash

import (
	"encoding/hex"
	"math/big"

	"golang.org/x/crypto/sha3"
)

// HashSize is the number of bytes in a Hash.
const HashSize = 32

// Hash is a 32-byte hash produced by HashH. The zero value is the all-zero
// hash used for coinbase outpoints and genesis's prev_hash.
type Hash [HashSize]byte

// ZeroHash is the all-zero hash.
var ZeroHash Hash

// String returns the hash as a hex string in big-endian display order,
// matching how hashes are conventionally printed (even though the wire
// encoding itself is little-endian).
func (h Hash) String() string {
	for i, j := 0, len(h)-1; i < j; i, j = i+1, j-1 {
		h[i], h[j] = h[j], h[i]
	}
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the all-zero hash.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// CloneBytes returns a newly allocated copy of the hash bytes.
func (h Hash) CloneBytes() []byte {
	b := make([]byte, HashSize)
	copy(b, h[:])
	return b
}

// SetBytes copies src into h. It returns an error if src is not exactly
// HashSize bytes, so deserialization fails closed rather than silently
// truncating or zero-padding.
func (h *Hash) SetBytes(src []byte) error {
	if len(src) != HashSize {
		return errHashLen(len(src))
	}
	copy(h[:], src)
	return nil
}

type hashLenError int

func errHashLen(n int) error { return hashLenError(n) }

func (e hashLenError) Error() string {
	return "chainhash: invalid hash length " + itoa(int(e)) + ", want " + itoa(HashSize)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// NewHash allocates a Hash from a byte slice, failing closed on bad length.
func NewHash(b []byte) (*Hash, error) {
	var h Hash
	if err := h.SetBytes(b); err != nil {
		return nil, err
	}
	return &h, nil
}

// HashH hashes b with SHA3-512 and truncates the digest to the first 32
// bytes. This is deliberately not double-SHA256: the quantum-resistance
// goals here rule out compatibility with Bitcoin's hash function by
// design.
func HashH(b []byte) Hash {
	digest := sha3.Sum512(b)
	var h Hash
	copy(h[:], digest[:HashSize])
	return h
}

// HashPair combines two hashes the way the merkle tree builder does:
// H(left || right). Used identically for block merkle roots (mining
// package) and UTXO commitment roots (storage package).
func HashPair(left, right Hash) Hash {
	buf := make([]byte, 0, HashSize*2)
	buf = append(buf, left[:]...)
	buf = append(buf, right[:]...)
	return HashH(buf)
}

// HashToBig interprets a hash as a big-endian unsigned integer, the same way
// daglabs-btcd's daghash.HashToBig treats a block hash for target comparison.
// The hash bytes are stored internally in the order they're hashed; since
// proof-of-work compares magnitudes rather than display strings, we reverse
// to big-endian only for the big.Int conversion.
func HashToBig(h *Hash) *big.Int {
	var buf Hash
	blen := len(h)
	for i := 0; i < blen/2; i++ {
		buf[i], buf[blen-1-i] = h[blen-1-i], h[i]
	}
	return new(big.Int).SetBytes(buf[:])
}
