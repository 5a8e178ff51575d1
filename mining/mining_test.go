package mining

import (
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/supernova-chain/supernova/chainhash"
	"github.com/supernova-chain/supernova/chainparams"
	"github.com/supernova-chain/supernova/chainstate"
	"github.com/supernova-chain/supernova/crypto"
	"github.com/supernova-chain/supernova/mempool"
	"github.com/supernova-chain/supernova/storage"
	"github.com/supernova-chain/supernova/wire"
)

func newTestChain(t *testing.T) (*chainstate.Chain, *chainparams.Params) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.OpenBlockStore(dir + "/blocks")
	if err != nil {
		t.Fatalf("open block store: %v", err)
	}
	utxos, err := storage.OpenUtxoSet(dir+"/utxo", 1024, time.Hour)
	if err != nil {
		t.Fatalf("open utxo set: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
		utxos.Close()
		os.RemoveAll(dir)
	})
	params := chainparams.RegtestParams
	return chainstate.New(store, utxos, params), params
}

func testAddress(t *testing.T, params *chainparams.Params, seed byte) string {
	t.Helper()
	key := make([]byte, 32)
	key[31] = seed
	signer, err := crypto.NewSecp256k1Signer(key)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	addr, err := crypto.AddressFromPubKey(params.AddressHRP, signer.PublicKey())
	if err != nil {
		t.Fatalf("derive address: %v", err)
	}
	return addr
}

func genesisCoinbase(params *chainparams.Params, tag byte) *wire.Transaction {
	return &wire.Transaction{
		Version: 1,
		Inputs: []*wire.TxInput{{
			PrevOut:   wire.OutPoint{Vout: wire.CoinbasePrevOutVout},
			ScriptSig: []byte{0x00},
			Sequence:  0xffffffff,
		}},
		Outputs: []*wire.TxOutput{{Value: params.Subsidy(0), ScriptPubKey: []byte{tag}}},
	}
}

func buildGenesis(params *chainparams.Params) *wire.Block {
	tx := genesisCoinbase(params, 0x01)
	block := &wire.Block{
		Header: wire.BlockHeader{
			Version:    1,
			PrevHash:   chainhash.ZeroHash,
			MerkleRoot: tx.TxID(),
			Timestamp:  1000,
			Bits:       params.GenesisBits,
		},
		Transactions: []*wire.Transaction{tx},
	}
	// AcceptBlock checks proof of work on genesis too, so step the nonce
	// until the header hash meets GenesisBits.
	target := chainhash.CompactToBig(params.GenesisBits)
	for hash := block.Header.BlockHash(); chainhash.HashToBig(&hash).Cmp(target) > 0; hash = block.Header.BlockHash() {
		block.Header.Nonce++
	}
	return block
}

func TestEncodeHeightScriptNeverSetsHighBit(t *testing.T) {
	for _, height := range []uint32{0, 1, 127, 128, 255, 256, 70000, 1 << 24} {
		script := encodeHeightScript(height)
		length := int(script[0])
		data := script[1 : 1+length]
		if data[len(data)-1]&0x80 != 0 {
			t.Fatalf("height %d encoded with high bit set: %x", height, script)
		}
	}
}

func TestBuildCoinbaseSplitsTreasuryExactly(t *testing.T) {
	params := chainparams.RegtestParams
	reward := []byte{0x01, 0xAA}
	treasury := []byte{0x01, 0xBB}
	coinbase := buildCoinbase(1, 1000, reward, treasury, params)

	totalReward := params.Subsidy(1) + 1000
	wantTreasury := params.TreasuryShare(totalReward)

	if len(coinbase.Outputs) != 2 {
		t.Fatalf("expected 2 outputs, got %d", len(coinbase.Outputs))
	}
	if coinbase.Outputs[1].Value != wantTreasury {
		t.Fatalf("treasury output = %d, want %d", coinbase.Outputs[1].Value, wantTreasury)
	}
	if coinbase.Outputs[0].Value != totalReward-wantTreasury {
		t.Fatalf("miner output = %d, want %d", coinbase.Outputs[0].Value, totalReward-wantTreasury)
	}
}

func TestNewBlockTemplateBuildsOnTipWithValidCoinbase(t *testing.T) {
	chain, params := newTestChain(t)
	genesis := buildGenesis(params)
	if err := chain.AcceptBlock(genesis, 1000); err != nil {
		t.Fatalf("accept genesis: %v", err)
	}

	pool := mempool.New(mempool.Config{MaxSize: 100, MinFeeRate: 0, MaxAncestors: 25, MaxAncestorSize: 1 << 20, MaxAge: 3600})
	gen := NewGenerator(chain, pool, params, params.MaxBlockSize)

	reward := testAddress(t, params, 0x01)
	treasury := testAddress(t, params, 0x02)

	template, err := gen.NewBlockTemplate(reward, treasury, 1200)
	if err != nil {
		t.Fatalf("new block template: %v", err)
	}
	if template.Height != 1 {
		t.Fatalf("expected height 1, got %d", template.Height)
	}
	if len(template.Block.Transactions) != 1 {
		t.Fatalf("expected coinbase-only block with empty mempool, got %d txs", len(template.Block.Transactions))
	}
	if template.Block.Header.MerkleRoot != template.Block.Transactions[0].TxID() {
		t.Fatalf("single-tx block's merkle root must equal its coinbase txid")
	}
	if template.Block.Header.PrevHash != genesis.BlockHash() {
		t.Fatalf("template does not build on the current tip")
	}
}

func TestSolveBlockFindsNonceUnderRegtestTarget(t *testing.T) {
	chain, params := newTestChain(t)
	genesis := buildGenesis(params)
	if err := chain.AcceptBlock(genesis, 1000); err != nil {
		t.Fatalf("accept genesis: %v", err)
	}

	pool := mempool.New(mempool.Config{MaxSize: 10, MinFeeRate: 0, MaxAncestors: 25, MaxAncestorSize: 1 << 20, MaxAge: 3600})
	gen := NewGenerator(chain, pool, params, params.MaxBlockSize)
	reward := testAddress(t, params, 0x01)
	treasury := testAddress(t, params, 0x02)

	template, err := gen.NewBlockTemplate(reward, treasury, 1200)
	if err != nil {
		t.Fatalf("new block template: %v", err)
	}

	var cancel atomic.Bool
	if !SolveBlock(template.Block, SolveConfig{Workers: 2, Intensity: 1}, &cancel) {
		t.Fatalf("expected regtest's near-maximum target to be trivially solvable")
	}
	hash := template.Block.BlockHash()
	if chainhash.HashToBig(&hash).Cmp(chainhash.CompactToBig(template.Block.Header.Bits)) > 0 {
		t.Fatalf("solved block hash does not satisfy its own target")
	}
}

func TestMinerMineOneExtendsChain(t *testing.T) {
	chain, params := newTestChain(t)
	genesis := buildGenesis(params)
	if err := chain.AcceptBlock(genesis, 1000); err != nil {
		t.Fatalf("accept genesis: %v", err)
	}

	pool := mempool.New(mempool.Config{MaxSize: 10, MinFeeRate: 0, MaxAncestors: 25, MaxAncestorSize: 1 << 20, MaxAge: 3600})
	reward := testAddress(t, params, 0x01)
	treasury := testAddress(t, params, 0x02)
	miner := NewMiner(chain, pool, params, params.MaxBlockSize, reward, treasury, SolveConfig{Workers: 2, Intensity: 1})

	var cancel atomic.Bool
	found, err := miner.MineOne(1300, &cancel)
	if err != nil {
		t.Fatalf("mine one: %v", err)
	}
	if !found {
		t.Fatalf("expected a block to be found")
	}
	if chain.Tip().Height != 1 {
		t.Fatalf("expected tip height 1 after mining, got %d", chain.Tip().Height)
	}
}

func TestSelectTransactionsRespectsBlockSizeBound(t *testing.T) {
	chain, params := newTestChain(t)
	genesis := buildGenesis(params)
	if err := chain.AcceptBlock(genesis, 1000); err != nil {
		t.Fatalf("accept genesis: %v", err)
	}

	pool := mempool.New(mempool.Config{MaxSize: 10, MinFeeRate: 0, MaxAncestors: 25, MaxAncestorSize: 1 << 20, MaxAge: 3600})
	tx1 := &wire.Transaction{
		Inputs:  []*wire.TxInput{{PrevOut: wire.OutPoint{TxID: chainhash.HashH([]byte("a")), Vout: 0}}},
		Outputs: []*wire.TxOutput{{Value: 1000, ScriptPubKey: []byte{0x01}}},
	}
	tx2 := &wire.Transaction{
		Inputs:  []*wire.TxInput{{PrevOut: wire.OutPoint{TxID: chainhash.HashH([]byte("b")), Vout: 0}}},
		Outputs: []*wire.TxOutput{{Value: 1000, ScriptPubKey: []byte{0x02}}},
	}
	if err := pool.Add(tx1, 10.0, false, 1200); err != nil {
		t.Fatalf("add tx1: %v", err)
	}
	if err := pool.Add(tx2, 5.0, false, 1200); err != nil {
		t.Fatalf("add tx2: %v", err)
	}

	// A bound only large enough for one of the two transactions.
	gen := NewGenerator(chain, pool, params, uint64(tx1.SerializeSize()))

	selected, _, _ := gen.selectTransactions(1200)
	if len(selected) != 1 {
		t.Fatalf("expected exactly 1 transaction selected under the size bound, got %d", len(selected))
	}
	if selected[0].TxID() != tx1.TxID() {
		t.Fatalf("expected the higher fee-rate transaction to be selected first")
	}
}
