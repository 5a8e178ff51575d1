package validate

import (
	"github.com/supernova-chain/supernova/chainparams"
	"github.com/supernova-chain/supernova/consensus"
	"github.com/supernova-chain/supernova/storage"
	"github.com/supernova-chain/supernova/wire"
)

// UtxoViewer is the read-only slice of storage.UtxoSet stateful validation
// needs. Kept as an interface so chainstate can present an in-flight
// overlay view (the effects of blocks connected earlier in a reorg)
// without touching the persistent store for every lookup. Outputs created
// earlier in the same block are not part of the view.
type UtxoViewer interface {
	Get(op wire.OutPoint) (*storage.UtxoEntry, error)
}

// HeaderHistory re-exports consensus.HeaderHistory so callers only need to
// implement the interface once for both packages.
type HeaderHistory = consensus.HeaderHistory

// CheckBlockTimestamp enforces the timestamp rule: a header's
// timestamp must exceed the median of the preceding window (rejecting the
// time-warp attack of repeatedly backdating timestamps) and must not claim
// to be further in the future than params.MaxFutureDrift past now.
func CheckBlockTimestamp(header *wire.BlockHeader, history HeaderHistory, params *chainparams.Params, now uint64) error {
	if err := consensus.CheckTimeWarp(history, params.MedianTimeSpan, header.Timestamp); err != nil {
		return ruleError(ErrTimeTooOld, err.Error())
	}
	maxFuture := now + uint64(params.MaxFutureDrift.Seconds())
	if header.Timestamp > maxFuture {
		return ruleError(ErrTimeTooNew, "block timestamp is too far in the future")
	}
	return nil
}

// CheckTransactionInputs verifies every non-coinbase input of tx against
// utxos: the referenced output exists, is mature if it is a coinbase
// output, and its signature checks out. It returns the transaction's total
// input value so callers can compute the fee.
func CheckTransactionInputs(tx *wire.Transaction, spendHeight uint32, utxos UtxoViewer, params *chainparams.Params) (uint64, error) {
	if tx.IsCoinbase() {
		return 0, nil
	}

	var totalIn uint64
	for i, in := range tx.Inputs {
		entry, err := utxos.Get(in.PrevOut)
		if err != nil {
			return 0, ruleError(ErrMissingTxOut, "referenced output "+in.PrevOut.TxID.String()+" not found")
		}
		if entry.IsCoinbase {
			confirmations := spendHeight - entry.BlockHeight
			if spendHeight < entry.BlockHeight || confirmations < params.CoinbaseMaturity {
				return 0, ruleError(ErrImmatureSpend, "attempt to spend immature coinbase output")
			}
		}
		if err := VerifyInputSignature(tx, i, entry.Output.ScriptPubKey); err != nil {
			return 0, err
		}
		if totalIn+entry.Output.Value < totalIn {
			return 0, ruleError(ErrBadTxOutValue, "total input value overflows")
		}
		totalIn += entry.Output.Value
	}
	return totalIn, nil
}

// CheckNoDoubleSpends verifies that no two transactions within the same
// block spend the same outpoint.
func CheckNoDoubleSpends(txs []*wire.Transaction) error {
	spent := make(map[wire.OutPoint]struct{})
	for _, tx := range txs {
		if tx.IsCoinbase() {
			continue
		}
		for _, in := range tx.Inputs {
			if _, dup := spent[in.PrevOut]; dup {
				return ruleError(ErrDoubleSpend, "outpoint "+in.PrevOut.TxID.String()+" spent twice within block")
			}
			spent[in.PrevOut] = struct{}{}
		}
	}
	return nil
}

// CheckCoinbaseSubsidy verifies the coinbase transaction pays out no more
// than subsidy(height) plus the block's total fees, and that its last
// output pays exactly the consensus-mandated treasury share whenever that
// share is non-zero.
func CheckCoinbaseSubsidy(coinbase *wire.Transaction, height uint32, totalFees uint64, params *chainparams.Params) error {
	subsidy := params.Subsidy(height)
	totalReward := subsidy + totalFees

	var totalOut uint64
	for _, out := range coinbase.Outputs {
		if totalOut+out.Value < totalOut {
			return ruleError(ErrBadTxOutValue, "coinbase total output value overflows")
		}
		totalOut += out.Value
	}
	if totalOut > totalReward {
		return ruleError(ErrBadSubsidy, "coinbase pays out more than subsidy plus fees")
	}

	wantTreasury := params.TreasuryShare(totalReward)
	if wantTreasury > 0 {
		if len(coinbase.Outputs) < 2 || coinbase.Outputs[len(coinbase.Outputs)-1].Value != wantTreasury {
			return ruleError(ErrBadSubsidy, "coinbase treasury output missing or incorrect")
		}
	}
	return nil
}

// CheckBlockContext runs every stateful rule against block at height,
// building on the stateless checks already performed by CheckBlockSanity.
// expectedBits is the target consensus.NextWorkRequired computed for this
// height; the block's declared Bits must match it exactly.
func CheckBlockContext(block *wire.Block, height uint32, expectedBits uint32, history HeaderHistory, utxos UtxoViewer, params *chainparams.Params, now uint64) error {
	if block.Header.Bits != expectedBits {
		return ruleError(ErrUnexpectedDifficulty, "block target does not match the consensus-required target for this height")
	}
	if err := CheckBlockTimestamp(&block.Header, history, params, now); err != nil {
		return err
	}
	if err := CheckNoDoubleSpends(block.Transactions); err != nil {
		return err
	}

	var totalFees uint64
	for _, tx := range block.Transactions {
		if tx.IsCoinbase() {
			continue
		}
		totalIn, err := CheckTransactionInputs(tx, height, utxos, params)
		if err != nil {
			return err
		}
		var totalOut uint64
		for _, out := range tx.Outputs {
			totalOut += out.Value
		}
		if totalOut > totalIn {
			return ruleError(ErrBadTxOutValue, "transaction outputs exceed inputs")
		}
		totalFees += totalIn - totalOut
	}

	return CheckCoinbaseSubsidy(block.Transactions[0], height, totalFees, params)
}
