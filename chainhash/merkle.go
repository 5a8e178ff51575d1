package chainhash

// MerkleRoot computes a binary Merkle root over leaves, duplicating the
// final leaf of any odd-sized level (Bitcoin-style CVE-2012-2459-aware
// duplication is not a concern here since this tree has no transaction
// malleability exposure, but the odd-leaf rule itself is spec-mandated).
func MerkleRoot(leaves []Hash) Hash {
	if len(leaves) == 0 {
		return ZeroHash
	}
	level := make([]Hash, len(leaves))
	copy(level, leaves)
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]Hash, len(level)/2)
		for i := range next {
			next[i] = HashPair(level[2*i], level[2*i+1])
		}
		level = next
	}
	return level[0]
}
