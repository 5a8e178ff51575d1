package validate

import (
	"github.com/supernova-chain/supernova/chainhash"
	"github.com/supernova-chain/supernova/chainparams"
	"github.com/supernova-chain/supernova/wire"
)

// CheckTransactionSanity performs stateless checks on a single transaction:
// checks that depend only on the transaction's own bytes, never on chain
// state.
func CheckTransactionSanity(tx *wire.Transaction) error {
	if len(tx.Inputs) == 0 {
		return ruleError(ErrNoTxInputs, "transaction has no inputs")
	}
	if len(tx.Outputs) == 0 {
		return ruleError(ErrNoTxOutputs, "transaction has no outputs")
	}

	seen := make(map[wire.OutPoint]struct{}, len(tx.Inputs))
	for _, in := range tx.Inputs {
		if _, dup := seen[in.PrevOut]; dup {
			return ruleError(ErrDuplicateTxInputs, "transaction spends the same outpoint twice")
		}
		seen[in.PrevOut] = struct{}{}
		if len(in.ScriptSig) > wire.MaxScriptSize {
			return ruleError(ErrScriptTooBig, "input script exceeds maximum size")
		}
	}

	var total uint64
	for _, out := range tx.Outputs {
		if len(out.ScriptPubKey) > wire.MaxScriptSize {
			return ruleError(ErrScriptTooBig, "output script exceeds maximum size")
		}
		if total+out.Value < total {
			return ruleError(ErrBadTxOutValue, "total output value overflows")
		}
		total += out.Value
	}

	if tx.SerializeSize() > wire.MaxScriptSize*len(tx.Inputs)+wire.MaxScriptSize*len(tx.Outputs)+1024 {
		return ruleError(ErrTxTooBig, "transaction exceeds maximum serialized size")
	}

	if !tx.IsCoinbase() {
		return nil
	}
	if len(tx.Inputs) != 1 {
		return ruleError(ErrBadCoinbaseScript, "coinbase transaction must have exactly one input")
	}
	if len(tx.Inputs[0].ScriptSig) == 0 || len(tx.Inputs[0].ScriptSig) > 150 {
		return ruleError(ErrBadCoinbaseScript, "coinbase script length out of bounds")
	}
	return nil
}

// CheckBlockSanity performs stateless checks on a block: structure,
// single leading coinbase, no duplicate transactions,
// Merkle root, proof of work, and size bound. It does not touch the UTXO
// set, median time past, or any other chain-state-dependent rule — those
// live in CheckBlockContext.
func CheckBlockSanity(block *wire.Block, params *chainparams.Params) error {
	if len(block.Transactions) == 0 {
		return ruleError(ErrNoTransactions, "block has no transactions")
	}
	if uint64(block.SerializeSize()) > params.MaxBlockSize {
		return ruleError(ErrBlockTooBig, "block exceeds maximum serialized size")
	}

	if !block.Transactions[0].IsCoinbase() {
		return ruleError(ErrMissingCoinbase, "first transaction is not a coinbase")
	}
	for i, tx := range block.Transactions {
		if i == 0 {
			continue
		}
		if tx.IsCoinbase() {
			return ruleError(ErrMultipleCoinbase, "coinbase transaction found outside first position")
		}
	}

	seen := make(map[chainhash.Hash]struct{}, len(block.Transactions))
	txIDs := make([]chainhash.Hash, len(block.Transactions))
	for i, tx := range block.Transactions {
		if err := CheckTransactionSanity(tx); err != nil {
			return err
		}
		id := tx.TxID()
		if _, dup := seen[id]; dup {
			return ruleError(ErrDuplicateTx, "block contains duplicate transaction "+id.String())
		}
		seen[id] = struct{}{}
		txIDs[i] = id
	}

	if root := chainhash.MerkleRoot(txIDs); root != block.Header.MerkleRoot {
		return ruleError(ErrBadMerkleRoot, "merkle root does not match transaction set")
	}

	return CheckProofOfWork(&block.Header, params)
}

// CheckProofOfWork verifies header.Bits is within the network's allowed
// target range and that the header's hash satisfies it, grounded on
// daglabs-btcd/blockdag/validate.go's checkProofOfWork.
func CheckProofOfWork(header *wire.BlockHeader, params *chainparams.Params) error {
	target := chainhash.CompactToBig(header.Bits)
	if target.Sign() <= 0 {
		return ruleError(ErrUnexpectedDifficulty, "target is zero or negative")
	}
	if target.Cmp(params.PowLimit) > 0 {
		return ruleError(ErrUnexpectedDifficulty, "target exceeds the network's proof-of-work limit")
	}

	hash := header.BlockHash()
	hashNum := chainhash.HashToBig(&hash)
	if hashNum.Cmp(target) > 0 {
		return ruleError(ErrHighHash, "block hash does not satisfy the declared target")
	}
	return nil
}
