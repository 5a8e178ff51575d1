package chainstate

import (
	"github.com/supernova-chain/supernova/chainhash"
	"github.com/supernova-chain/supernova/storage"
	"github.com/supernova-chain/supernova/validate"
)

// findForkPoint walks both node's ancestry and the current tip's ancestry
// back to their common ancestor. Returns nil if node is not connected to
// the indexed chain at all (should not happen: every node in c.nodes was
// reached from a known parent).
func (c *Chain) findForkPoint(node *BlockNode) *BlockNode {
	a, b := node, c.tip
	for a.Height > b.Height {
		a = c.nodes[a.PrevHash]
	}
	for b.Height > a.Height {
		b = c.nodes[b.PrevHash]
	}
	for a != nil && b != nil && a.Hash != b.Hash {
		a = c.nodes[a.PrevHash]
		b = c.nodes[b.PrevHash]
	}
	return a
}

// reorganize switches the best chain from c.tip to newTip, which must carry
// strictly greater cumulative work. The whole disconnect/connect plan is
// simulated against a copy-on-write utxoOverlay before anything is written
// to the persistent UTXO set, so a validation failure partway through
// leaves the chain exactly as it was.
func (c *Chain) reorganize(newTip *BlockNode, now uint64) error {
	fork := c.findForkPoint(newTip)
	if fork == nil {
		return ErrOrphanBlock
	}
	if c.tip.Height-fork.Height > c.params.MaxReorgDepth {
		return ErrReorgTooDeep
	}

	var disconnect []*BlockNode
	for n := c.tip; n.Hash != fork.Hash; n = c.nodes[n.PrevHash] {
		disconnect = append(disconnect, n)
	}

	var connect []*BlockNode
	for n := newTip; n.Hash != fork.Hash; n = c.nodes[n.PrevHash] {
		connect = append(connect, n)
	}
	for i, j := 0, len(connect)-1; i < j; i, j = i+1, j-1 {
		connect[i], connect[j] = connect[j], connect[i]
	}

	overlay := newUtxoOverlay(c.utxos)
	for _, n := range disconnect {
		if err := c.disconnectNode(n, overlay); err != nil {
			return err
		}
	}

	undos := make(map[chainhash.Hash]*storage.UndoData, len(connect))
	for _, n := range connect {
		parent := c.nodes[n.PrevHash]
		expectedBits := c.expectedBits(parent, n.Timestamp)
		history := ancestorHistory{c: c, node: parent}
		if err := validate.CheckBlockContext(n.Block, n.Height, expectedBits, history, overlay, c.params, now); err != nil {
			return err
		}
		undo, err := c.applyBlock(n, overlay)
		if err != nil {
			return err
		}
		undos[n.Hash] = undo
	}

	if err := overlay.commit(); err != nil {
		return err
	}

	// Only after the persistent UTXO set reflects the new branch do we
	// write block bodies, undo data, and the height index: a crash before
	// this point leaves the old chain fully intact on disk.
	for _, n := range connect {
		if err := c.persistBlock(n, undos[n.Hash]); err != nil {
			return err
		}
	}
	c.setTip(newTip, now)
	return nil
}
