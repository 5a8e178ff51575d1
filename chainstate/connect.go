package chainstate

import (
	"github.com/supernova-chain/supernova/storage"
	"github.com/supernova-chain/supernova/validate"
	"github.com/supernova-chain/supernova/wire"
)

// applyBlock mutates the UTXO set (live, via overlay when overlay is
// non-nil) for node's block and returns the undo data needed to reverse
// it later. It assumes node has already passed whatever stateful
// validation the caller deemed necessary.
func (c *Chain) applyBlock(node *BlockNode, overlay *utxoOverlay) (*storage.UndoData, error) {
	block := node.Block
	undo := &storage.UndoData{}

	get := func(op wire.OutPoint) (*storage.UtxoEntry, error) {
		if overlay != nil {
			return overlay.Get(op)
		}
		return c.utxos.Get(op)
	}
	remove := func(op wire.OutPoint) error {
		if overlay != nil {
			overlay.remove(op)
			return nil
		}
		return c.utxos.Remove(op)
	}
	add := func(op wire.OutPoint, entry *storage.UtxoEntry) error {
		if overlay != nil {
			overlay.add(op, entry)
			return nil
		}
		return c.utxos.Add(op, entry)
	}

	for _, tx := range block.Transactions {
		txID := tx.TxID()
		if !tx.IsCoinbase() {
			for _, in := range tx.Inputs {
				entry, err := get(in.PrevOut)
				if err != nil {
					return nil, err
				}
				undo.Spent = append(undo.Spent, storage.SpentOutput{OutPoint: in.PrevOut, Entry: *entry})
				if err := remove(in.PrevOut); err != nil {
					return nil, err
				}
			}
		}
		for vout, out := range tx.Outputs {
			op := wire.OutPoint{TxID: txID, Vout: uint32(vout)}
			entry := &storage.UtxoEntry{Output: *out, BlockHeight: node.Height, IsCoinbase: tx.IsCoinbase()}
			if err := add(op, entry); err != nil {
				return nil, err
			}
		}
	}
	return undo, nil
}

// persistBlock writes a block's body, undo data, height index, and tip
// height once its UTXO effects are known-good (either applied directly to
// the live set, or already committed from an overlay).
func (c *Chain) persistBlock(node *BlockNode, undo *storage.UndoData) error {
	if err := c.store.PutBlock(node.Height, node.Block); err != nil {
		return err
	}
	if err := c.store.PutUndo(node.Hash, undo); err != nil {
		return err
	}
	if err := c.store.SetHashByHeight(node.Height, node.Hash); err != nil {
		return err
	}
	return c.store.PutTipHeight(node.Height)
}

// connectNode applies and persists node's block directly against the live
// UTXO set, used for the common case of extending the current tip.
func (c *Chain) connectNode(node *BlockNode, overlay *utxoOverlay) error {
	undo, err := c.applyBlock(node, overlay)
	if err != nil {
		return err
	}
	return c.persistBlock(node, undo)
}

// disconnectNode reverses a connected block's effect on the UTXO set using
// its previously stored undo data, staging the reversal in overlay rather
// than touching the persistent store.
func (c *Chain) disconnectNode(node *BlockNode, overlay *utxoOverlay) error {
	undo, err := c.store.GetUndo(node.Hash)
	if err != nil {
		return err
	}

	block := node.Block
	if block == nil {
		block, err = c.store.GetBlock(node.Hash)
		if err != nil {
			return err
		}
	}

	for _, tx := range block.Transactions {
		txID := tx.TxID()
		for vout := range tx.Outputs {
			overlay.remove(wire.OutPoint{TxID: txID, Vout: uint32(vout)})
		}
	}
	for _, spent := range undo.Spent {
		entry := spent.Entry
		overlay.add(spent.OutPoint, &entry)
	}
	return nil
}

// extendTip validates node against the live UTXO set as a direct
// extension of the current tip and, on success, connects it and advances
// the tip. now is the caller's wall-clock time, used for the
// future-drift timestamp check and recorded as the moment the tip
// advanced; block timestamps themselves drive difficulty retargeting.
func (c *Chain) extendTip(node *BlockNode, expectedBits uint32, now uint64) error {
	history := ancestorHistory{c: c, node: c.nodes[node.PrevHash]}
	if err := validate.CheckBlockContext(node.Block, node.Height, expectedBits, history, c.utxos, c.params, now); err != nil {
		return err
	}
	if err := c.connectNode(node, nil); err != nil {
		return err
	}
	c.setTip(node, now)
	return nil
}
