package mining

import (
	"fmt"
	"math"

	"github.com/supernova-chain/supernova/chainhash"
	"github.com/supernova-chain/supernova/chainparams"
	"github.com/supernova-chain/supernova/chainstate"
	"github.com/supernova-chain/supernova/consensus"
	"github.com/supernova-chain/supernova/mempool"
	"github.com/supernova-chain/supernova/wire"
)

// BlockTemplate is an unsolved block plus the bookkeeping a caller needs
// to know what it is being asked to mine, grounded on daglabs-btcd's
// domain/mining.BlockTemplate (Block + per-tx fee/mass slices, narrowed to
// this repo's single-chain, script-less transaction model).
type BlockTemplate struct {
	Block     *wire.Block
	Height    uint32
	Fees      []uint64
	TotalFees uint64
}

// Generator builds block templates from a chain tip and mempool,
// grounded on domain/mining.BlkTmplGenerator's (policy, txSource, dag)
// composition.
type Generator struct {
	chain  *chainstate.Chain
	pool   *mempool.Pool
	params *chainparams.Params

	maxBlockSize uint64
}

// NewGenerator constructs a Generator. maxBlockSize bounds the selected
// transaction payload; it must not exceed params.MaxBlockSize.
func NewGenerator(chain *chainstate.Chain, pool *mempool.Pool, params *chainparams.Params, maxBlockSize uint64) *Generator {
	if maxBlockSize == 0 || maxBlockSize > params.MaxBlockSize {
		maxBlockSize = params.MaxBlockSize
	}
	return &Generator{chain: chain, pool: pool, params: params, maxBlockSize: maxBlockSize}
}

// NewBlockTemplate assembles a block ready for proof-of-work search: a
// coinbase paying rewardAddress and treasuryAddress, a selection of
// pooled transactions, and a header with the consensus-required target
// already filled in. now is used both as the
// candidate block timestamp and, via the tip's ancestor window, to keep
// it from landing before the median of recent history.
func (g *Generator) NewBlockTemplate(rewardAddress, treasuryAddress string, now uint64) (*BlockTemplate, error) {
	tip := g.chain.Tip()
	if tip == nil {
		return nil, fmt.Errorf("mining: chain has no tip to build on")
	}

	rewardScript, err := scriptPubKeyForAddress(rewardAddress)
	if err != nil {
		return nil, err
	}
	treasuryScript, err := scriptPubKeyForAddress(treasuryAddress)
	if err != nil {
		return nil, err
	}

	height := tip.Height + 1
	selected, fees, totalFees := g.selectTransactions(now)

	coinbase := buildCoinbase(height, totalFees, rewardScript, treasuryScript, g.params)
	txs := make([]*wire.Transaction, 0, len(selected)+1)
	txs = append(txs, coinbase)
	txs = append(txs, selected...)

	timestamp := now
	if medianFloor := consensus.MedianTimePast(g.chain.TipHistory(), g.params.MedianTimeSpan); timestamp <= medianFloor {
		timestamp = medianFloor + 1
	}
	bits := g.chain.NextBlockBits(timestamp)

	block := &wire.Block{
		Header: wire.BlockHeader{
			Version:    1,
			PrevHash:   tip.Hash,
			MerkleRoot: merkleRootOf(txs),
			Timestamp:  timestamp,
			Bits:       bits,
		},
		Transactions: txs,
	}

	return &BlockTemplate{
		Block:     block,
		Height:    height,
		Fees:      fees,
		TotalFees: totalFees,
	}, nil
}

// selectTransactions walks the mempool by descending effective fee rate,
// admitting transactions while the running block size stays under
// maxBlockSize. Ancestor-count and ancestor-size
// bounds are already enforced at mempool admission time, so selection
// here only needs to respect the block size bound and transaction
// ordering among dependents: a transaction is skipped (not dropped) if
// its own mempool ancestors have not yet been selected, since the block
// must list spends after the outputs they consume.
func (g *Generator) selectTransactions(now uint64) ([]*wire.Transaction, []uint64, uint64) {
	entries := g.pool.GetSorted(now)

	included := make(map[chainhash.Hash]bool, len(entries))
	var selected []*wire.Transaction
	var fees []uint64
	var totalFees uint64
	var size uint64

	remaining := make([]*mempool.Entry, len(entries))
	copy(remaining, entries)

	for progress := true; progress && len(remaining) > 0; {
		progress = false
		next := remaining[:0]
		for _, entry := range remaining {
			ready := true
			for ancestor := range entry.Ancestors {
				if !included[ancestor] {
					ready = false
					break
				}
			}
			if !ready {
				next = append(next, entry)
				continue
			}
			fee := uint64(math.Round(entry.FeeRate * float64(entry.Size)))
			if size+entry.Size > g.maxBlockSize {
				continue
			}
			selected = append(selected, entry.Tx)
			fees = append(fees, fee)
			totalFees += fee
			size += entry.Size
			included[entry.TxID] = true
			progress = true
		}
		remaining = next
	}

	return selected, fees, totalFees
}

// merkleRootOf hashes the block's coinbase-first transaction list into a
// merkle root, duplicating the last element at odd levels, centralized
// in chainhash.MerkleRoot.
func merkleRootOf(txs []*wire.Transaction) chainhash.Hash {
	leaves := make([]chainhash.Hash, len(txs))
	for i, tx := range txs {
		leaves[i] = tx.TxID()
	}
	return chainhash.MerkleRoot(leaves)
}
