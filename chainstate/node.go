// Package chainstate tracks the set of known block headers, the current
// best chain, and the live UTXO set: accept_block, fork choice by
// cumulative work, and reorganize.
package chainstate

import (
	"math/big"

	"github.com/supernova-chain/supernova/chainhash"
	"github.com/supernova-chain/supernova/wire"
)

// BlockNode is one entry in the in-memory block index: enough of a
// header's identity and ancestry to compute fork choice and walk history
// without touching the block store for every query, grounded on
// daglabs-btcd/blockdag's block-index bookkeeping (narrowed from a
// multi-parent DAG node down to a single-parent chain node).
type BlockNode struct {
	Hash           chainhash.Hash
	PrevHash       chainhash.Hash
	Height         uint32
	Bits           uint32
	Timestamp      uint64
	Work           *big.Int
	CumulativeWork *big.Int
	Block          *wire.Block
}

func newGenesisNode(block *wire.Block) *BlockNode {
	work := chainhash.CalcWork(block.Header.Bits)
	return &BlockNode{
		Hash:           block.BlockHash(),
		PrevHash:       block.Header.PrevHash,
		Height:         0,
		Bits:           block.Header.Bits,
		Timestamp:      block.Header.Timestamp,
		Work:           work,
		CumulativeWork: new(big.Int).Set(work),
		Block:          block,
	}
}

func newChildNode(parent *BlockNode, block *wire.Block) *BlockNode {
	work := chainhash.CalcWork(block.Header.Bits)
	return &BlockNode{
		Hash:           block.BlockHash(),
		PrevHash:       block.Header.PrevHash,
		Height:         parent.Height + 1,
		Bits:           block.Header.Bits,
		Timestamp:      block.Header.Timestamp,
		Work:           work,
		CumulativeWork: new(big.Int).Add(parent.CumulativeWork, work),
		Block:          block,
	}
}
