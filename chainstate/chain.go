package chainstate

import (
	"fmt"
	"sync"

	"github.com/supernova-chain/supernova/chainhash"
	"github.com/supernova-chain/supernova/chainparams"
	"github.com/supernova-chain/supernova/consensus"
	"github.com/supernova-chain/supernova/storage"
	"github.com/supernova-chain/supernova/validate"
	"github.com/supernova-chain/supernova/wire"
)

// ForkMetrics tracks the fork/reorg observability surface.
type ForkMetrics struct {
	ActiveForks    int
	MaxForkLength  uint32
	ReorgCount     uint64
	RejectedReorgs uint64
}

// ErrOrphanBlock is returned when a block's parent is not present in the
// index. This repo does not maintain an orphan pool (the P2P layer is
// expected to request missing ancestors before relaying a
// block for acceptance), so an orphan is simply rejected rather than
// buffered.
var ErrOrphanBlock = fmt.Errorf("chainstate: block's parent is not known")

// ErrReorgTooDeep is returned when a competing branch's fork point lies
// more than params.MaxReorgDepth blocks behind the current tip.
var ErrReorgTooDeep = fmt.Errorf("chainstate: reorganization exceeds maximum allowed depth")

// Chain is the single-writer authority over the best chain and its UTXO
// set. All mutation goes through AcceptBlock under mu, a single-writer
// RWMutex model grounded on daglabs-btcd's BlockDAG,
// whose mutation is likewise serialized behind one lock even though reads
// of the current tip are frequent and concurrent).
type Chain struct {
	mu       sync.RWMutex
	nodes    map[chainhash.Hash]*BlockNode
	tip      *BlockNode
	tipSince uint64

	store  *storage.BlockStore
	utxos  *storage.UtxoSet
	params *chainparams.Params

	metrics ForkMetrics
	counter uint64
	seen    map[chainhash.Hash]uint64
}

// New constructs a Chain backed by store/utxos. The returned Chain starts
// with an empty in-memory index and no tip: it does not reload blocks
// already present in store, so the first block passed to AcceptBlock must
// be the network's genesis block.
func New(store *storage.BlockStore, utxos *storage.UtxoSet, params *chainparams.Params) *Chain {
	return &Chain{
		nodes:  make(map[chainhash.Hash]*BlockNode),
		store:  store,
		utxos:  utxos,
		params: params,
		seen:   make(map[chainhash.Hash]uint64),
	}
}

// Tip returns the current best block, or nil before genesis is accepted.
func (c *Chain) Tip() *BlockNode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tip
}

// Metrics returns a snapshot of fork/reorg counters.
func (c *Chain) Metrics() ForkMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.metrics
}

// UtxoSet returns the chain's live UTXO set, the view a block template
// builder reads unspent outputs from.
func (c *Chain) UtxoSet() *storage.UtxoSet {
	return c.utxos
}

// Node returns the indexed node for hash, whether or not it lies on the
// best chain, and reports whether it was found.
func (c *Chain) Node(hash chainhash.Hash) (*BlockNode, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	node, ok := c.nodes[hash]
	return node, ok
}

// NodeAtHeight returns the best-chain node at height, or nil if height
// exceeds the current tip.
func (c *Chain) NodeAtHeight(height uint32) (*BlockNode, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tip == nil || height > c.tip.Height {
		return nil, false
	}
	node := c.ancestorAt(c.tip, height)
	return node, node != nil
}

// Height returns the height of the current tip, or 0 before genesis.
func (c *Chain) Height() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tip == nil {
		return 0
	}
	return c.tip.Height
}

// NextBlockBits computes the consensus-required target for a block built
// on top of the current tip with the given candidate timestamp.
func (c *Chain) NextBlockBits(candidateTimestamp uint64) uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.expectedBits(c.tip, candidateTimestamp)
}

// TipHistory returns the HeaderHistory view anchored at the current tip,
// the ancestor window a new block's timestamp must be validated against.
func (c *Chain) TipHistory() validate.HeaderHistory {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ancestorHistory{c: c, node: c.tip}
}

func (c *Chain) ancestorAt(node *BlockNode, height uint32) *BlockNode {
	for node != nil && node.Height > height {
		node = c.nodes[node.PrevHash]
	}
	if node != nil && node.Height == height {
		return node
	}
	return nil
}

// ancestorTimestamps returns up to count timestamps ending at node,
// oldest first, the shape both consensus.HeaderHistory and
// validate.HeaderHistory expect.
func (c *Chain) ancestorTimestamps(node *BlockNode, count int) []uint64 {
	timestamps := make([]uint64, 0, count)
	for n := node; n != nil && len(timestamps) < count; n = c.nodes[n.PrevHash] {
		timestamps = append(timestamps, n.Timestamp)
	}
	for i, j := 0, len(timestamps)-1; i < j; i, j = i+1, j-1 {
		timestamps[i], timestamps[j] = timestamps[j], timestamps[i]
	}
	return timestamps
}

type ancestorHistory struct {
	c    *Chain
	node *BlockNode
}

func (h ancestorHistory) RecentTimestamps(count int) []uint64 {
	return h.c.ancestorTimestamps(h.node, count)
}

func (c *Chain) expectedBits(parent *BlockNode, candidateTimestamp uint64) uint32 {
	height := parent.Height + 1
	state := consensus.RetargetState{
		Height:      height,
		CurrentBits: parent.Bits,
		CurrentTime: candidateTimestamp,
	}
	if int64(height)%c.params.RetargetInterval == 0 {
		lastHeight := height - uint32(c.params.RetargetInterval)
		if boundary := c.ancestorAt(parent, lastHeight); boundary != nil {
			state.LastAdjustmentTime = boundary.Timestamp
		}
	}
	state.RecentTimestamps = c.ancestorTimestamps(parent, c.params.MovingAverageWindow)
	return consensus.NextWorkRequired(state, c.params)
}

// AcceptBlock validates block and inserts it into the index. If it
// extends the current best chain, or represents a competing branch with
// greater cumulative work, the best chain (and the live UTXO set) is
// updated to match, reorganizing if necessary.
func (c *Chain) AcceptBlock(block *wire.Block, now uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	hash := block.BlockHash()
	if _, exists := c.nodes[hash]; exists {
		return nil
	}
	if err := validate.CheckBlockSanity(block, c.params); err != nil {
		return err
	}

	if len(c.nodes) == 0 {
		if !block.Header.PrevHash.IsZero() {
			return ErrOrphanBlock
		}
		node := newGenesisNode(block)
		c.nodes[hash] = node
		c.seen[hash] = c.counter
		c.counter++
		if err := c.connectNode(node, nil); err != nil {
			delete(c.nodes, hash)
			return err
		}
		c.setTip(node, now)
		return nil
	}

	parent, ok := c.nodes[block.Header.PrevHash]
	if !ok {
		return ErrOrphanBlock
	}

	wantBits := c.expectedBits(parent, block.Header.Timestamp)
	node := newChildNode(parent, block)
	c.nodes[hash] = node
	c.seen[hash] = c.counter
	c.counter++

	if parent.Hash != c.tip.Hash {
		c.metrics.ActiveForks++
		if forkLen := node.Height - c.forkPointHeight(node); forkLen > c.metrics.MaxForkLength {
			c.metrics.MaxForkLength = forkLen
		}
	}

	better := node.CumulativeWork.Cmp(c.tip.CumulativeWork)
	if better < 0 || (better == 0 && c.seen[node.Hash] >= c.seen[c.tip.Hash]) {
		// Side branch: indexed but not (yet) the best chain.
		return nil
	}

	if parent.Hash == c.tip.Hash {
		if err := c.extendTip(node, wantBits, now); err != nil {
			delete(c.nodes, hash)
			return err
		}
		return nil
	}

	if err := c.reorganize(node, now); err != nil {
		c.metrics.RejectedReorgs++
		delete(c.nodes, hash)
		return err
	}
	c.metrics.ReorgCount++
	return nil
}

func (c *Chain) forkPointHeight(node *BlockNode) uint32 {
	point := c.findForkPoint(node)
	if point == nil {
		return 0
	}
	return point.Height
}
