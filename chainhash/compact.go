package chainhash

import "math/big"

// CompactToBig converts a compact-encoded target (mantissa + exponent, as
// stored in BlockHeader.Bits) into a big.Int, following the same bit layout
// daglabs-btcd's util.CompactToBig uses: the high byte is a base-256
// exponent, the low three bytes are the mantissa, and bit 0x00800000 of the
// mantissa marks a negative value.
func CompactToBig(compact uint32) *big.Int {
	mantissa := compact & 0x007fffff
	isNegative := compact&0x00800000 != 0
	exponent := uint(compact >> 24)

	var bn *big.Int
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		bn = big.NewInt(int64(mantissa))
	} else {
		bn = big.NewInt(int64(mantissa))
		bn.Lsh(bn, 8*(exponent-3))
	}

	if isNegative {
		bn = bn.Neg(bn)
	}
	return bn
}

// BigToCompact is the inverse of CompactToBig for canonically encoded
// values: it always returns the shortest encoding, so a non-canonical
// compact such as 0x03000001 comes back as 0x01010000.
func BigToCompact(n *big.Int) uint32 {
	if n.Sign() == 0 {
		return 0
	}

	var mantissa uint32
	exponent := uint(len(n.Bytes()))

	if exponent <= 3 {
		mantissa = uint32(n.Bits()[0])
		mantissa <<= 8 * (3 - exponent)
	} else {
		tn := new(big.Int).Set(n)
		mantissa = uint32(tn.Rsh(tn, 8*(exponent-3)).Bits()[0])
	}

	// The mantissa's high bit is reserved as a sign flag, so if it's set,
	// shift the mantissa right by one byte and bump the exponent, matching
	// the same convention Bitcoin-family nBits encodings use.
	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}

	compact := uint32(exponent)<<24 | mantissa
	if n.Sign() < 0 {
		compact |= 0x00800000
	}
	return compact
}

var oneLsh256 = new(big.Int).Lsh(big.NewInt(1), 256)

// CalcWork returns the amount of work represented by a block with the
// given compact target: floor(2^256 / (target + 1)). Fork choice sums
// this value across a chain's headers to find the branch with the
// greatest cumulative work.
func CalcWork(bits uint32) *big.Int {
	target := CompactToBig(bits)
	if target.Sign() <= 0 {
		return big.NewInt(0)
	}
	denom := new(big.Int).Add(target, big.NewInt(1))
	return new(big.Int).Div(oneLsh256, denom)
}
