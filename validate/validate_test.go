package validate

import (
	"testing"

	"github.com/supernova-chain/supernova/chainhash"
	"github.com/supernova-chain/supernova/chainparams"
	"github.com/supernova-chain/supernova/crypto"
	"github.com/supernova-chain/supernova/storage"
	"github.com/supernova-chain/supernova/wire"
)

type fakeUtxoView map[wire.OutPoint]*storage.UtxoEntry

func (f fakeUtxoView) Get(op wire.OutPoint) (*storage.UtxoEntry, error) {
	entry, ok := f[op]
	if !ok {
		return nil, &storage.Error{Code: storage.ErrNotFound}
	}
	return entry, nil
}

type fakeHistory []uint64

func (h fakeHistory) RecentTimestamps(count int) []uint64 {
	if count > len(h) {
		count = len(h)
	}
	return h[len(h)-count:]
}

func signedSpend(t *testing.T, signer crypto.Signer, prevOut wire.OutPoint, value uint64) (*wire.Transaction, []byte) {
	t.Helper()
	scriptPubKey := BuildScriptPubKey(signer.PublicKey())
	tx := &wire.Transaction{
		Version: 1,
		Inputs:  []*wire.TxInput{{PrevOut: prevOut, Sequence: 0xffffffff}},
		Outputs: []*wire.TxOutput{{Value: value, ScriptPubKey: []byte{0x01}}},
	}
	digest := SigHash(tx)
	sig, err := signer.Sign(digest)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	tx.Inputs[0].ScriptSig = BuildScriptSig(signer.PublicKey(), sig)
	return tx, scriptPubKey
}

func TestCheckTransactionInputsValidSignature(t *testing.T) {
	rawPriv := make([]byte, 32)
	rawPriv[31] = 0x05
	signer, err := crypto.NewSecp256k1Signer(rawPriv)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}

	prevOut := wire.OutPoint{TxID: chainhash.HashH([]byte("prev")), Vout: 0}
	tx, scriptPubKey := signedSpend(t, signer, prevOut, 400)

	view := fakeUtxoView{
		prevOut: {Output: wire.TxOutput{Value: 500, ScriptPubKey: scriptPubKey}, BlockHeight: 10},
	}

	totalIn, err := CheckTransactionInputs(tx, 20, view, chainparams.RegtestParams)
	if err != nil {
		t.Fatalf("expected valid inputs, got %v", err)
	}
	if totalIn != 500 {
		t.Fatalf("expected total input 500, got %d", totalIn)
	}
}

func TestCheckTransactionInputsRejectsBadSignature(t *testing.T) {
	rawPriv := make([]byte, 32)
	rawPriv[31] = 0x06
	signer, err := crypto.NewSecp256k1Signer(rawPriv)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	prevOut := wire.OutPoint{TxID: chainhash.HashH([]byte("prev2")), Vout: 0}
	tx, scriptPubKey := signedSpend(t, signer, prevOut, 400)

	// Tamper with the output value after signing so the sighash no longer
	// matches what was signed.
	tx.Outputs[0].Value = 999

	view := fakeUtxoView{
		prevOut: {Output: wire.TxOutput{Value: 500, ScriptPubKey: scriptPubKey}, BlockHeight: 10},
	}
	if _, err := CheckTransactionInputs(tx, 20, view, chainparams.RegtestParams); err == nil {
		t.Fatal("expected tampered transaction to fail signature verification")
	}
}

func TestCheckTransactionInputsRejectsImmatureCoinbase(t *testing.T) {
	rawPriv := make([]byte, 32)
	rawPriv[31] = 0x07
	signer, err := crypto.NewSecp256k1Signer(rawPriv)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	prevOut := wire.OutPoint{TxID: chainhash.HashH([]byte("coinbase-out")), Vout: 0}
	tx, scriptPubKey := signedSpend(t, signer, prevOut, 400)

	view := fakeUtxoView{
		prevOut: {Output: wire.TxOutput{Value: 500, ScriptPubKey: scriptPubKey}, BlockHeight: 100, IsCoinbase: true},
	}
	params := chainparams.RegtestParams
	if _, err := CheckTransactionInputs(tx, 100+params.CoinbaseMaturity-1, view, params); err == nil {
		t.Fatal("expected immature coinbase spend to be rejected")
	}
}

func TestCheckNoDoubleSpends(t *testing.T) {
	op := wire.OutPoint{TxID: chainhash.HashH([]byte("shared")), Vout: 0}
	tx1 := &wire.Transaction{Inputs: []*wire.TxInput{{PrevOut: op}}, Outputs: []*wire.TxOutput{{Value: 1}}}
	tx2 := &wire.Transaction{Inputs: []*wire.TxInput{{PrevOut: op}}, Outputs: []*wire.TxOutput{{Value: 1}}}
	if err := CheckNoDoubleSpends([]*wire.Transaction{tx1, tx2}); err == nil {
		t.Fatal("expected double spend across transactions to be rejected")
	}
}

func TestCheckBlockSanityRejectsBadMerkleRoot(t *testing.T) {
	tx := &wire.Transaction{
		Inputs:  []*wire.TxInput{{PrevOut: wire.OutPoint{Vout: wire.CoinbasePrevOutVout}, ScriptSig: []byte{0x01}}},
		Outputs: []*wire.TxOutput{{Value: 1, ScriptPubKey: []byte{0x01}}},
	}
	block := &wire.Block{
		Header: wire.BlockHeader{
			MerkleRoot: chainhash.HashH([]byte("wrong")),
			Bits:       chainparams.RegtestParams.GenesisBits,
		},
		Transactions: []*wire.Transaction{tx},
	}
	if err := CheckBlockSanity(block, chainparams.RegtestParams); err == nil {
		t.Fatal("expected bad merkle root to be rejected")
	}
}

func TestCheckBlockTimestampRejectsTimeWarp(t *testing.T) {
	history := fakeHistory{100, 110, 120, 130, 140}
	header := &wire.BlockHeader{Timestamp: 120}
	if err := CheckBlockTimestamp(header, history, chainparams.RegtestParams, 1000); err == nil {
		t.Fatal("expected timestamp equal to median to be rejected")
	}
}
