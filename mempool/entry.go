package mempool

import (
	"github.com/supernova-chain/supernova/chainhash"
	"github.com/supernova-chain/supernova/wire"
)

// Entry is one unconfirmed transaction tracked by the pool, carrying the
// bookkeeping the pool needs beyond the transaction bytes themselves.
type Entry struct {
	Tx            *wire.Transaction
	TxID          chainhash.Hash
	FeeRate       float64 // fee per byte, as supplied by the caller at admission
	Size          uint64
	InsertionTime uint64
	Replaceable   bool

	Ancestors   map[chainhash.Hash]struct{}
	Descendants map[chainhash.Hash]struct{}

	heapIndex int
}

// EffectiveFeeRate applies age-decay for ordering (never for admission):
// fee_rate * max(0, 1 - decay*age_hours).
func (e *Entry) EffectiveFeeRate(now uint64, decayPerHour float64) float64 {
	if now <= e.InsertionTime {
		return e.FeeRate
	}
	ageHours := float64(now-e.InsertionTime) / 3600
	factor := 1 - decayPerHour*ageHours
	if factor < 0 {
		factor = 0
	}
	return e.FeeRate * factor
}
