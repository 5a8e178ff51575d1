package wire

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/supernova-chain/supernova/chainhash"
)

// Size and count ceilings used while deserializing untrusted input. These
// bound memory exhaustion attacks from malformed wire data.
const (
	MaxScriptSize       = 10000
	MaxWitnessSize      = 16000
	MaxInputsPerTx      = 100000
	MaxOutputsPerTx     = 100000
	MaxTxPerBlock       = 1 << 20
	CoinbasePrevOutVout = math.MaxUint32
)

// OutPoint uniquely identifies one transaction output: the transaction that
// created it plus the output index within that transaction.
type OutPoint struct {
	TxID chainhash.Hash
	Vout uint32
}

// IsCoinbase reports whether the outpoint is the null outpoint carried by a
// coinbase input (vout = 0xFFFFFFFF).
func (o OutPoint) IsCoinbase() bool {
	return o.Vout == CoinbasePrevOutVout && o.TxID.IsZero()
}

func (o OutPoint) serialize(w io.Writer) error {
	if _, err := w.Write(o.TxID[:]); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, o.Vout)
}

func (o *OutPoint) deserialize(r io.Reader) error {
	if _, err := io.ReadFull(r, o.TxID[:]); err != nil {
		return err
	}
	return binary.Read(r, binary.LittleEndian, &o.Vout)
}

// TxInput spends one previous output. A coinbase input's PrevOut is the null
// outpoint; its ScriptSig is free-form, which mined blocks fill with the
// BIP34-style encoded block height and the genesis block with a network tag.
type TxInput struct {
	PrevOut   OutPoint
	ScriptSig []byte
	Sequence  uint32
	Witness   []byte
}

func (in *TxInput) serialize(w io.Writer) error {
	if err := in.PrevOut.serialize(w); err != nil {
		return err
	}
	if err := WriteVarBytes(w, in.ScriptSig); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, in.Sequence); err != nil {
		return err
	}
	return WriteVarBytes(w, in.Witness)
}

func (in *TxInput) deserialize(r io.Reader) error {
	if err := in.PrevOut.deserialize(r); err != nil {
		return err
	}
	scriptSig, err := ReadVarBytes(r, MaxScriptSize)
	if err != nil {
		return err
	}
	in.ScriptSig = scriptSig
	if err := binary.Read(r, binary.LittleEndian, &in.Sequence); err != nil {
		return err
	}
	witness, err := ReadVarBytes(r, MaxWitnessSize)
	if err != nil {
		return err
	}
	in.Witness = witness
	return nil
}

// TxOutput pays an amount to a script. A value of 0 is legal but
// discouraged.
type TxOutput struct {
	Value        uint64
	ScriptPubKey []byte
}

func (out *TxOutput) serialize(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, out.Value); err != nil {
		return err
	}
	return WriteVarBytes(w, out.ScriptPubKey)
}

func (out *TxOutput) deserialize(r io.Reader) error {
	if err := binary.Read(r, binary.LittleEndian, &out.Value); err != nil {
		return err
	}
	scriptPubKey, err := ReadVarBytes(r, MaxScriptSize)
	if err != nil {
		return err
	}
	out.ScriptPubKey = scriptPubKey
	return nil
}

// Transaction is the canonical UTXO transaction type. TxID is computed over
// the canonical serialization, never stored.
type Transaction struct {
	Version  uint32
	Inputs   []*TxInput
	Outputs  []*TxOutput
	LockTime uint32
}

// IsCoinbase reports whether tx has exactly one input and that input spends
// the null outpoint.
func (tx *Transaction) IsCoinbase() bool {
	return len(tx.Inputs) == 1 && tx.Inputs[0].PrevOut.IsCoinbase()
}

// Serialize writes the canonical encoding of tx to w.
func (tx *Transaction) Serialize(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, tx.Version); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(tx.Inputs))); err != nil {
		return err
	}
	for _, in := range tx.Inputs {
		if err := in.serialize(w); err != nil {
			return err
		}
	}
	if err := WriteVarInt(w, uint64(len(tx.Outputs))); err != nil {
		return err
	}
	for _, out := range tx.Outputs {
		if err := out.serialize(w); err != nil {
			return err
		}
	}
	return binary.Write(w, binary.LittleEndian, tx.LockTime)
}

// Deserialize reads the canonical encoding of a Transaction from r.
func (tx *Transaction) Deserialize(r io.Reader) error {
	if err := binary.Read(r, binary.LittleEndian, &tx.Version); err != nil {
		return err
	}
	numInputs, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if numInputs > MaxInputsPerTx {
		return ErrVarBytesTooLarge
	}
	tx.Inputs = make([]*TxInput, numInputs)
	for i := range tx.Inputs {
		in := &TxInput{}
		if err := in.deserialize(r); err != nil {
			return err
		}
		tx.Inputs[i] = in
	}

	numOutputs, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if numOutputs > MaxOutputsPerTx {
		return ErrVarBytesTooLarge
	}
	tx.Outputs = make([]*TxOutput, numOutputs)
	for i := range tx.Outputs {
		out := &TxOutput{}
		if err := out.deserialize(r); err != nil {
			return err
		}
		tx.Outputs[i] = out
	}

	return binary.Read(r, binary.LittleEndian, &tx.LockTime)
}

// Bytes returns the canonical serialization of tx.
func (tx *Transaction) Bytes() []byte {
	var buf bytes.Buffer
	// Serialize never fails against an in-memory buffer.
	_ = tx.Serialize(&buf)
	return buf.Bytes()
}

// TxID returns H(serialized transaction).
func (tx *Transaction) TxID() chainhash.Hash {
	return chainhash.HashH(tx.Bytes())
}

// SerializeSize returns the byte length of tx's canonical encoding.
func (tx *Transaction) SerializeSize() int {
	return len(tx.Bytes())
}

// DeserializeTransaction reads a Transaction, rejecting trailing garbage so
// that a truncated or over-long payload is never silently accepted.
func DeserializeTransaction(b []byte) (*Transaction, error) {
	r := bytes.NewReader(b)
	tx := &Transaction{}
	if err := tx.Deserialize(r); err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, errTrailingGarbage
	}
	return tx, nil
}

var errTrailingGarbage = trailingGarbageError{}

type trailingGarbageError struct{}

func (trailingGarbageError) Error() string { return "wire: trailing garbage after deserialization" }

// BlockHeader is the 80-byte-equivalent fixed header of a block. Hash is
// H(serialized header).
type BlockHeader struct {
	Version    uint32
	PrevHash   chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  uint64
	Bits       uint32
	Nonce      uint32
}

// HeaderSize is the fixed wire size of a BlockHeader.
const HeaderSize = 4 + chainhash.HashSize + chainhash.HashSize + 8 + 4 + 4

func (h *BlockHeader) Serialize(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, h.Version); err != nil {
		return err
	}
	if _, err := w.Write(h.PrevHash[:]); err != nil {
		return err
	}
	if _, err := w.Write(h.MerkleRoot[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, h.Timestamp); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, h.Bits); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, h.Nonce)
}

func (h *BlockHeader) Deserialize(r io.Reader) error {
	if err := binary.Read(r, binary.LittleEndian, &h.Version); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, h.PrevHash[:]); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, h.MerkleRoot[:]); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &h.Timestamp); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &h.Bits); err != nil {
		return err
	}
	return binary.Read(r, binary.LittleEndian, &h.Nonce)
}

// Bytes returns the canonical HeaderSize-byte encoding of h.
func (h *BlockHeader) Bytes() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, HeaderSize))
	_ = h.Serialize(buf)
	return buf.Bytes()
}

// BlockHash returns H(serialized header), the value compared against the
// proof-of-work target.
func (h *BlockHeader) BlockHash() chainhash.Hash {
	return chainhash.HashH(h.Bytes())
}

// Block is a header plus its transaction list. Transactions[0] must be the
// sole coinbase transaction (enforced by validate, not by this type).
type Block struct {
	Header       BlockHeader
	Transactions []*Transaction
}

func (b *Block) Serialize(w io.Writer) error {
	if err := b.Header.Serialize(w); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(b.Transactions))); err != nil {
		return err
	}
	for _, tx := range b.Transactions {
		if err := tx.Serialize(w); err != nil {
			return err
		}
	}
	return nil
}

func (b *Block) Deserialize(r io.Reader) error {
	if err := b.Header.Deserialize(r); err != nil {
		return err
	}
	numTx, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if numTx > MaxTxPerBlock {
		return ErrVarBytesTooLarge
	}
	b.Transactions = make([]*Transaction, numTx)
	for i := range b.Transactions {
		tx := &Transaction{}
		if err := tx.Deserialize(r); err != nil {
			return err
		}
		b.Transactions[i] = tx
	}
	return nil
}

// Bytes returns the canonical serialization of b.
func (b *Block) Bytes() []byte {
	var buf bytes.Buffer
	_ = b.Serialize(&buf)
	return buf.Bytes()
}

// SerializeSize returns the byte length of b's canonical encoding.
func (b *Block) SerializeSize() int {
	return len(b.Bytes())
}

// DeserializeBlock reads a Block, rejecting trailing garbage.
func DeserializeBlock(raw []byte) (*Block, error) {
	r := bytes.NewReader(raw)
	b := &Block{}
	if err := b.Deserialize(r); err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, errTrailingGarbage
	}
	return b, nil
}

// BlockHash returns the header hash of b.
func (b *Block) BlockHash() chainhash.Hash {
	return b.Header.BlockHash()
}
