package wire

import (
	"bytes"
	"testing"

	"github.com/supernova-chain/supernova/chainhash"
)

func sampleTx() *Transaction {
	return &Transaction{
		Version: 1,
		Inputs: []*TxInput{{
			PrevOut:   OutPoint{TxID: chainhash.HashH([]byte("prev")), Vout: 1},
			ScriptSig: []byte{0x01, 0x02},
			Sequence:  0xffffffff,
		}},
		Outputs: []*TxOutput{{
			Value:        5_000_000_000,
			ScriptPubKey: []byte{0xaa, 0xbb, 0xcc},
		}},
		LockTime: 0,
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	tx := sampleTx()
	raw := tx.Bytes()

	got, err := DeserializeTransaction(raw)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if got.TxID() != tx.TxID() {
		t.Fatalf("txid mismatch after round trip")
	}
}

func TestTransactionRejectsTrailingGarbage(t *testing.T) {
	tx := sampleTx()
	raw := append(tx.Bytes(), 0xff)
	if _, err := DeserializeTransaction(raw); err == nil {
		t.Fatal("expected trailing garbage to be rejected")
	}
}

func TestTransactionRejectsTruncation(t *testing.T) {
	tx := sampleTx()
	raw := tx.Bytes()
	if _, err := DeserializeTransaction(raw[:len(raw)-1]); err == nil {
		t.Fatal("expected truncated transaction to be rejected")
	}
}

func TestCoinbaseDetection(t *testing.T) {
	cb := &Transaction{
		Version: 1,
		Inputs: []*TxInput{{
			PrevOut:   OutPoint{Vout: CoinbasePrevOutVout},
			ScriptSig: []byte{0x00, 0x00, 0x00, 0x01},
		}},
		Outputs: []*TxOutput{{Value: 1, ScriptPubKey: []byte{0x01}}},
	}
	if !cb.IsCoinbase() {
		t.Fatal("expected coinbase transaction to be detected")
	}
	if sampleTx().IsCoinbase() {
		t.Fatal("non-coinbase transaction misdetected as coinbase")
	}
}

func TestBlockRoundTrip(t *testing.T) {
	tx := sampleTx()
	b := &Block{
		Header: BlockHeader{
			Version:    1,
			PrevHash:   chainhash.HashH([]byte("genesis")),
			MerkleRoot: tx.TxID(),
			Timestamp:  1700000000,
			Bits:       0x1d00ffff,
			Nonce:      42,
		},
		Transactions: []*Transaction{tx},
	}

	raw := b.Bytes()
	got, err := DeserializeBlock(raw)
	if err != nil {
		t.Fatalf("deserialize block: %v", err)
	}
	if got.BlockHash() != b.BlockHash() {
		t.Fatal("block hash mismatch after round trip")
	}
	if len(got.Transactions) != 1 || got.Transactions[0].TxID() != tx.TxID() {
		t.Fatal("transaction mismatch after round trip")
	}
}

func TestMessageRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("ping-payload")
	if err := WriteMessage(&buf, &Message{Magic: MagicTestNet, Command: CmdPing, Payload: payload}); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := ReadMessage(&buf, MagicTestNet)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Command != CmdPing || !bytes.Equal(got.Payload, payload) {
		t.Fatal("message round trip mismatch")
	}
}

func TestMessageRejectsWrongMagic(t *testing.T) {
	var buf bytes.Buffer
	_ = WriteMessage(&buf, &Message{Magic: MagicMainNet, Command: CmdPing, Payload: []byte("x")})
	if _, err := ReadMessage(&buf, MagicTestNet); err != ErrMagicMismatch {
		t.Fatalf("expected magic mismatch, got %v", err)
	}
}

func TestMessageRejectsTamperedPayload(t *testing.T) {
	var buf bytes.Buffer
	_ = WriteMessage(&buf, &Message{Magic: MagicTestNet, Command: CmdPing, Payload: []byte("original")})
	raw := buf.Bytes()
	raw[len(raw)-1] ^= 0xff // flip last payload byte
	if _, err := ReadMessage(bytes.NewReader(raw), MagicTestNet); err != ErrChecksumFailed {
		t.Fatalf("expected checksum failure, got %v", err)
	}
}
