package mempool

import (
	"sort"
	"sync"

	"github.com/supernova-chain/supernova/chainhash"
	"github.com/supernova-chain/supernova/wire"
)

// Config bounds pool admission and eviction:
// max_size/min_fee_rate/max_ancestors/max_ancestor_size/max_age/decay.
type Config struct {
	MaxSize         int
	MinFeeRate      float64
	MaxAncestors    int
	MaxAncestorSize uint64
	MaxAge          uint64 // seconds
	DecayPerHour    float64
}

// Pool is a bounded, mutex-guarded collection of unconfirmed transactions
// keyed by txid, grounded on
// domain/miningmanager/mempool/transactions_pool.go's allTransactions /
// chainedTransactionsByPreviousOutpoint structure.
type Pool struct {
	mu      sync.RWMutex
	config  Config
	entries map[chainhash.Hash]*Entry
	spentBy map[wire.OutPoint]chainhash.Hash
	byFee   feeRateHeap
}

// New constructs an empty Pool bound by config.
func New(config Config) *Pool {
	return &Pool{
		config:  config,
		entries: make(map[chainhash.Hash]*Entry),
		spentBy: make(map[wire.OutPoint]chainhash.Hash),
	}
}

func (p *Pool) ancestorsOf(tx *wire.Transaction) map[chainhash.Hash]struct{} {
	ancestors := make(map[chainhash.Hash]struct{})
	queue := make([]chainhash.Hash, 0, len(tx.Inputs))
	for _, in := range tx.Inputs {
		queue = append(queue, in.PrevOut.TxID)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, ok := ancestors[id]; ok {
			continue
		}
		parent, ok := p.entries[id]
		if !ok {
			continue
		}
		ancestors[id] = struct{}{}
		for _, in := range parent.Tx.Inputs {
			queue = append(queue, in.PrevOut.TxID)
		}
	}
	return ancestors
}

// conflicts returns the set of mempool entries whose outputs tx's inputs
// would double-spend.
func (p *Pool) conflicts(tx *wire.Transaction) map[chainhash.Hash]*Entry {
	found := make(map[chainhash.Hash]*Entry)
	for _, in := range tx.Inputs {
		if id, ok := p.spentBy[in.PrevOut]; ok {
			found[id] = p.entries[id]
		}
	}
	return found
}

// Add admits tx into the pool under the configured admission rules.
// feeRate is the transaction's fee per byte, computed by the caller (the mempool
// itself has no UTXO view). now is the caller's current wall-clock time.
func (p *Pool) Add(tx *wire.Transaction, feeRate float64, replaceable bool, now uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	txid := tx.TxID()
	if _, exists := p.entries[txid]; exists {
		return newError(ErrDuplicateTransaction, txid)
	}
	if feeRate < p.config.MinFeeRate {
		return newError(ErrFeeTooLow, txid)
	}

	size := uint64(tx.SerializeSize())

	conflicting := p.conflicts(tx)
	var evictForRBF []*Entry
	if len(conflicting) > 0 {
		evicted, err := p.resolveConflicts(txid, feeRate, size, conflicting)
		if err != nil {
			return err
		}
		evictForRBF = evicted
	}

	ancestors := p.ancestorsOf(tx)
	if len(ancestors) >= p.config.MaxAncestors {
		return newError(ErrTooManyAncestors, txid)
	}
	var ancestorSize uint64
	for id := range ancestors {
		ancestorSize += p.entries[id].Size
	}
	if ancestorSize+size > p.config.MaxAncestorSize {
		return newError(ErrAncestorPackageTooBig, txid)
	}

	if len(p.entries) >= p.config.MaxSize {
		cheapest := p.byFee.cheapest()
		if cheapest == nil || cheapest.FeeRate >= feeRate {
			return newError(ErrPoolFull, txid)
		}
		p.removeLocked(cheapest.TxID)
	}

	for _, victim := range evictForRBF {
		p.removeLocked(victim.TxID)
	}

	entry := &Entry{
		Tx:            tx,
		TxID:          txid,
		FeeRate:       feeRate,
		Size:          size,
		InsertionTime: now,
		Replaceable:   replaceable,
		Ancestors:     ancestors,
		Descendants:   make(map[chainhash.Hash]struct{}),
	}
	p.entries[txid] = entry
	p.byFee.push(entry)
	for _, in := range tx.Inputs {
		p.spentBy[in.PrevOut] = txid
	}
	for id := range ancestors {
		p.entries[id].Descendants[txid] = struct{}{}
	}
	return nil
}

// resolveConflicts implements replace-by-fee: a conflicting output may
// only be taken over if every conflicting transaction (and its descendant
// package) is marked replaceable, the incoming fee rate strictly exceeds
// each conflict's, and the incoming transaction's total fee (rate times
// size) exceeds the combined fees of everything it evicts.
func (p *Pool) resolveConflicts(txid chainhash.Hash, feeRate float64, size uint64, conflicting map[chainhash.Hash]*Entry) ([]*Entry, error) {
	seen := make(map[chainhash.Hash]*Entry)
	var walk func(id chainhash.Hash)
	walk = func(id chainhash.Hash) {
		if _, ok := seen[id]; ok {
			return
		}
		entry, ok := p.entries[id]
		if !ok {
			return
		}
		seen[id] = entry
		for descendant := range entry.Descendants {
			walk(descendant)
		}
	}
	for id := range conflicting {
		walk(id)
	}

	var totalEvictedFee float64
	for _, entry := range seen {
		if !entry.Replaceable || feeRate <= entry.FeeRate {
			return nil, newError(ErrDoubleSpend, txid)
		}
		totalEvictedFee += entry.FeeRate * float64(entry.Size)
	}
	if feeRate*float64(size) <= totalEvictedFee {
		return nil, newError(ErrDoubleSpend, txid)
	}

	victims := make([]*Entry, 0, len(seen))
	for _, entry := range seen {
		victims = append(victims, entry)
	}
	return victims, nil
}

// Remove deletes txid from the pool, updating the bookkeeping of its
// ancestors and descendants but not cascading the removal to descendants
// themselves; callers that need cascading removal walk descendants first.
func (p *Pool) Remove(txid chainhash.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(txid)
}

func (p *Pool) removeLocked(txid chainhash.Hash) {
	entry, ok := p.entries[txid]
	if !ok {
		return
	}
	delete(p.entries, txid)
	p.byFee.remove(entry)
	for _, in := range entry.Tx.Inputs {
		delete(p.spentBy, in.PrevOut)
	}
	for id := range entry.Ancestors {
		if ancestor, ok := p.entries[id]; ok {
			delete(ancestor.Descendants, txid)
		}
	}
	for id := range entry.Descendants {
		if descendant, ok := p.entries[id]; ok {
			delete(descendant.Ancestors, txid)
		}
	}
}

// GetSorted returns every pooled transaction ordered by descending
// effective (age-decayed) fee rate, the order mining selects from.
func (p *Pool) GetSorted(now uint64) []*Entry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	sorted := make([]*Entry, 0, len(p.entries))
	for _, entry := range p.entries {
		sorted = append(sorted, entry)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].EffectiveFeeRate(now, p.config.DecayPerHour) > sorted[j].EffectiveFeeRate(now, p.config.DecayPerHour)
	})
	return sorted
}

// ClearExpired evicts every entry older than config.MaxAge.
func (p *Pool) ClearExpired(now uint64) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	var expired []chainhash.Hash
	for id, entry := range p.entries {
		if now-entry.InsertionTime > p.config.MaxAge {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		p.removeLocked(id)
	}
	return len(expired)
}

// CheckDoubleSpend reports whether tx conflicts with any pooled
// transaction's inputs.
func (p *Pool) CheckDoubleSpend(tx *wire.Transaction) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, in := range tx.Inputs {
		if _, ok := p.spentBy[in.PrevOut]; ok {
			return true
		}
	}
	return false
}

// SizeInBytes returns the total serialized size of every pooled transaction.
func (p *Pool) SizeInBytes() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var total uint64
	for _, entry := range p.entries {
		total += entry.Size
	}
	return total
}

// Len returns the number of pooled transactions.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}

// Get returns the pooled entry for txid, if present.
func (p *Pool) Get(txid chainhash.Hash) (*Entry, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	entry, ok := p.entries[txid]
	return entry, ok
}

// MaxSize returns the pool's configured transaction-count ceiling.
func (p *Pool) MaxSize() int {
	return p.config.MaxSize
}

// MinFeeRate returns the pool's configured minimum admission fee rate.
func (p *Pool) MinFeeRate() float64 {
	return p.config.MinFeeRate
}
