package chainstate

import (
	"github.com/supernova-chain/supernova/storage"
	"github.com/supernova-chain/supernova/wire"
)

// utxoOverlay is a copy-on-write view over a persistent storage.UtxoSet:
// writes accumulate in memory until commit, so a disconnect/connect plan
// can be fully validated before a single byte touches the persistent
// store, keeping a reorg atomic and all-or-nothing.
type utxoOverlay struct {
	base     *storage.UtxoSet
	set      map[wire.OutPoint]*storage.UtxoEntry
	tombstone map[wire.OutPoint]bool
}

func newUtxoOverlay(base *storage.UtxoSet) *utxoOverlay {
	return &utxoOverlay{
		base:      base,
		set:       make(map[wire.OutPoint]*storage.UtxoEntry),
		tombstone: make(map[wire.OutPoint]bool),
	}
}

// Get implements validate.UtxoViewer.
func (o *utxoOverlay) Get(op wire.OutPoint) (*storage.UtxoEntry, error) {
	if o.tombstone[op] {
		return nil, &storage.Error{Code: storage.ErrNotFound, Message: "utxo removed in overlay"}
	}
	if entry, ok := o.set[op]; ok {
		return entry, nil
	}
	return o.base.Get(op)
}

func (o *utxoOverlay) add(op wire.OutPoint, entry *storage.UtxoEntry) {
	delete(o.tombstone, op)
	o.set[op] = entry
}

func (o *utxoOverlay) remove(op wire.OutPoint) {
	delete(o.set, op)
	o.tombstone[op] = true
}

// commit applies every staged add/remove to the persistent store. Called
// only after an entire disconnect/connect plan has validated successfully.
func (o *utxoOverlay) commit() error {
	for op := range o.tombstone {
		if err := o.base.Remove(op); err != nil {
			return err
		}
	}
	for op, entry := range o.set {
		if err := o.base.Add(op, entry); err != nil {
			return err
		}
	}
	return nil
}
