package rpc

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/supernova-chain/supernova/chainhash"
	"github.com/supernova-chain/supernova/chainparams"
	"github.com/supernova-chain/supernova/chainstate"
	"github.com/supernova-chain/supernova/crypto"
	"github.com/supernova-chain/supernova/htlc"
	"github.com/supernova-chain/supernova/mempool"
	"github.com/supernova-chain/supernova/mining"
	"github.com/supernova-chain/supernova/p2pd"
	"github.com/supernova-chain/supernova/storage"
	"github.com/supernova-chain/supernova/wire"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testSigner(t *testing.T, seed byte) *crypto.Secp256k1Signer {
	t.Helper()
	raw := make([]byte, 32)
	raw[31] = seed
	signer, err := crypto.NewSecp256k1Signer(raw)
	if err != nil {
		t.Fatalf("NewSecp256k1Signer: %v", err)
	}
	return signer
}

func testAddress(t *testing.T, params *chainparams.Params, seed byte) string {
	t.Helper()
	addr, err := crypto.AddressFromPubKey(params.AddressHRP, testSigner(t, seed).PublicKey())
	if err != nil {
		t.Fatalf("AddressFromPubKey: %v", err)
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

func buildBlock(prev chainhash.Hash, bits uint32, timestamp uint64, txs []*wire.Transaction) *wire.Block {
	ids := make([]chainhash.Hash, len(txs))
	for i, tx := range txs {
		ids[i] = tx.TxID()
	}
	block := &wire.Block{
		Header: wire.BlockHeader{
			Version:    1,
			PrevHash:   prev,
			MerkleRoot: chainhash.MerkleRoot(ids),
			Timestamp:  timestamp,
			Bits:       bits,
		},
		Transactions: txs,
	}
	// AcceptBlock checks proof of work on every block, genesis included,
	// so step the nonce until the header hash meets bits.
	target := chainhash.CompactToBig(bits)
	for hash := block.Header.BlockHash(); chainhash.HashToBig(&hash).Cmp(target) > 0; hash = block.Header.BlockHash() {
		block.Header.Nonce++
	}
	return block
}

// newTestServer wires a full Server fixture against a freshly opened,
// genesis-only chain, the same component set cmd/supernovad assembles at
// startup.
func newTestServer(t *testing.T) (*Server, *chainparams.Params) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.OpenBlockStore(dir + "/blocks")
	if err != nil {
		t.Fatalf("OpenBlockStore: %v", err)
	}
	utxos, err := storage.OpenUtxoSet(dir+"/utxo", 1024, time.Hour)
	if err != nil {
		t.Fatalf("OpenUtxoSet: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
		utxos.Close()
		os.RemoveAll(dir)
	})

	params := chainparams.RegtestParams
	chain := chainstate.New(store, utxos, params)
	genesis := buildBlock(chainhash.ZeroHash, params.GenesisBits, 1000, []*wire.Transaction{genesisCoinbase(params, 0x01)})
	if err := chain.AcceptBlock(genesis, 1000); err != nil {
		t.Fatalf("AcceptBlock genesis: %v", err)
	}

	pool := mempool.New(mempool.Config{
		MaxSize:         100,
		MinFeeRate:      0,
		MaxAncestors:    25,
		MaxAncestorSize: 1 << 20,
		MaxAge:          3600,
		DecayPerHour:    0,
	})

	gen := mining.NewGenerator(chain, pool, params, params.MaxBlockSize)
	peers := p2pd.NewPeerManager(p2pd.DefaultConnectionLimits(), nil)
	monitor := htlc.NewMonitor(htlc.DefaultMonitorConfig(), testLogger(), nil, nil)

	s := NewServer(testLogger())
	s.Chain = chain
	s.Mempool = pool
	s.Params = params
	s.Generator = gen
	s.Peers = peers
	s.Monitor = monitor
	s.BlockStore = store
	s.RewardAddress = testAddress(t, params, 1)
	s.TreasuryAddress = testAddress(t, params, 2)
	return s, params
}
