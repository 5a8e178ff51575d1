// Package chainparams holds the per-network consensus constants referenced
// throughout validate, consensus, chainstate, and mining. Values left
// implementation-defined elsewhere (notably HalvingInterval, see
// DESIGN.md) are parameters here, never literals baked into call sites.
package chainparams

import (
	"math/big"
	"time"

	"github.com/supernova-chain/supernova/chainhash"
)

// Params bundles every consensus-relevant constant for one network.
type Params struct {
	Name string

	// AddressHRP is the bech32m human-readable part used by
	// crypto.AddressFromPubKey.
	AddressHRP string

	// GenesisBits is the starting proof-of-work target.
	GenesisBits uint32
	// PowLimit is the loosest allowed target (MAX_TARGET).
	PowLimit *big.Int
	// PowLimitBits is PowLimit pre-encoded in compact form.
	PowLimitBits uint32
	// MinTargetBits is the tightest allowed target (MIN_TARGET).
	MinTargetBits uint32

	// TargetBlockTime is the desired spacing between blocks (150s; see
	// DESIGN.md's Open Question resolution for why the 60s value seen
	// in original_source/miner/src/difficulty.rs is not used here).
	TargetBlockTime time.Duration
	// RetargetInterval is the number of blocks between full difficulty
	// recalculations (DIFFICULTY_ADJUSTMENT_INTERVAL).
	RetargetInterval int64
	// MovingAverageWindow bounds the gradual moving-average adjustment
	// (K, capped at 144).
	MovingAverageWindow int

	// HalvingInterval is the number of blocks between subsidy halvings.
	// Parameterized per DESIGN.md's Open Question resolution rather than
	// hard-coded.
	HalvingInterval int64
	// MaxHalvings bounds subsidy to zero once reached.
	MaxHalvings int64
	// InitialSubsidy is the block 0 coinbase subsidy in atomic units.
	InitialSubsidy uint64

	// TreasuryShareNumerator/Denominator express the 2.5% consensus-
	// visible treasury split as an exact fraction so miner and validator
	// compute the identical integer value.
	TreasuryShareNumerator   uint64
	TreasuryShareDenominator uint64

	// CoinbaseMaturity is the number of confirmations before a coinbase
	// output becomes spendable.
	CoinbaseMaturity uint32

	// MaxReorgDepth bounds how many main-chain blocks a reorganization
	// may disconnect before being rejected.
	MaxReorgDepth uint32

	// MedianTimeSpan is the number of preceding headers whose median is MTP.
	MedianTimeSpan int

	// MaxFutureDrift is how far into the future a header timestamp may
	// claim to be relative to the validator's adjusted clock.
	MaxFutureDrift time.Duration

	// MaxBlockSize bounds a block's canonical serialized size.
	MaxBlockSize uint64

	GenesisBlock func() Genesis
}

// Genesis captures the fields needed to build network's genesis block; kept
// separate from wire.Block to avoid an import cycle (wire has no
// chainparams dependency).
type Genesis struct {
	Timestamp  uint64
	Nonce      uint32
	PrevHash   chainhash.Hash
	MerkleRoot chainhash.Hash
}

func mustBig(hex string) *big.Int {
	n, ok := new(big.Int).SetString(hex, 16)
	if !ok {
		panic("chainparams: invalid hex constant " + hex)
	}
	return n
}

// MainNetParams are the production network constants.
var MainNetParams = &Params{
	Name:                     "mainnet",
	AddressHRP:               "nova",
	GenesisBits:              0x1e0fffff,
	PowLimit:                 mustBig("00000fffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"),
	PowLimitBits:             0x1e0fffff,
	MinTargetBits:            0x1d00ffff,
	TargetBlockTime:          150 * time.Second,
	RetargetInterval:         2016,
	MovingAverageWindow:      144,
	HalvingInterval:          210000,
	MaxHalvings:              64,
	InitialSubsidy:           50 * 1e8,
	TreasuryShareNumerator:   25,
	TreasuryShareDenominator: 1000,
	CoinbaseMaturity:         100,
	MaxReorgDepth:            100,
	MedianTimeSpan:           11,
	MaxFutureDrift:           2 * time.Hour,
	MaxBlockSize:             1 << 20,
}

// TestNetParams relax the proof-of-work target for fast local mining while
// keeping every other consensus rule identical to mainnet.
var TestNetParams = &Params{
	Name:                     "testnet",
	AddressHRP:               "test",
	GenesisBits:              0x207fffff,
	PowLimit:                 mustBig("7fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"),
	PowLimitBits:             0x207fffff,
	MinTargetBits:            0x1f00ffff,
	TargetBlockTime:          150 * time.Second,
	RetargetInterval:         2016,
	MovingAverageWindow:      144,
	HalvingInterval:          210000,
	MaxHalvings:              64,
	InitialSubsidy:           50 * 1e8,
	TreasuryShareNumerator:   25,
	TreasuryShareDenominator: 1000,
	CoinbaseMaturity:         100,
	MaxReorgDepth:            100,
	MedianTimeSpan:           11,
	MaxFutureDrift:           2 * time.Hour,
	MaxBlockSize:             1 << 20,
}

// RegtestParams use a trivial target and a short halving interval so unit
// and integration tests can exercise retarget/halving boundaries without
// mining millions of blocks.
var RegtestParams = &Params{
	Name:                     "devnet",
	AddressHRP:               "devnet",
	GenesisBits:              0x207fffff,
	PowLimit:                 mustBig("7fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"),
	PowLimitBits:             0x207fffff,
	MinTargetBits:            0x207fffff,
	TargetBlockTime:          150 * time.Second,
	RetargetInterval:         150,
	MovingAverageWindow:      32,
	HalvingInterval:          150,
	MaxHalvings:              64,
	InitialSubsidy:           50 * 1e8,
	TreasuryShareNumerator:   25,
	TreasuryShareDenominator: 1000,
	CoinbaseMaturity:         100,
	MaxReorgDepth:            100,
	MedianTimeSpan:           11,
	MaxFutureDrift:           2 * time.Hour,
	MaxBlockSize:             1 << 20,
}

// Subsidy computes subsidy(h) = InitialSubsidy >> (h / HalvingInterval),
// clamped to zero once MaxHalvings is reached.
func (p *Params) Subsidy(height uint32) uint64 {
	halvings := int64(height) / p.HalvingInterval
	if halvings >= p.MaxHalvings {
		return 0
	}
	return p.InitialSubsidy >> uint(halvings)
}

// TreasuryShare computes floor(totalReward * numerator / denominator), the
// exact integer split miners must match in the coinbase.
func (p *Params) TreasuryShare(totalReward uint64) uint64 {
	return totalReward * p.TreasuryShareNumerator / p.TreasuryShareDenominator
}
