package storage

import (
	"encoding/binary"

	lderrors "github.com/syndtr/goleveldb/leveldb/errors"

	"github.com/supernova-chain/supernova/chainhash"
	"github.com/supernova-chain/supernova/wire"
)

const prefixUndoByHash = 'u'

// SpentOutput pairs an outpoint with the UTXO entry it pointed to just
// before the block that spent it was connected, the data a disconnect
// needs to restore the entry.
type SpentOutput struct {
	OutPoint wire.OutPoint
	Entry    UtxoEntry
}

// UndoData is everything Chain.DisconnectBlock needs to reverse one
// block's effect on the UTXO set: exactly the outputs it spent, in the
// order its transactions spent them.
type UndoData struct {
	Spent []SpentOutput
}

func undoKey(hash chainhash.Hash) []byte {
	key := make([]byte, 1+chainhash.HashSize)
	key[0] = prefixUndoByHash
	copy(key[1:], hash[:])
	return key
}

func encodeUndo(u *UndoData) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(len(u.Spent)))
	for _, s := range u.Spent {
		buf = append(buf, s.OutPoint.TxID[:]...)
		var voutBuf [4]byte
		binary.BigEndian.PutUint32(voutBuf[:], s.OutPoint.Vout)
		buf = append(buf, voutBuf[:]...)
		entryBuf := encodeEntry(&s.Entry)
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(entryBuf)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, entryBuf...)
	}
	return buf
}

func decodeUndo(raw []byte) (*UndoData, error) {
	if len(raw) < 4 {
		return nil, newError(ErrCorruption, "undo data too short", nil)
	}
	count := binary.BigEndian.Uint32(raw[:4])
	raw = raw[4:]
	spent := make([]SpentOutput, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(raw) < chainhash.HashSize+4+4 {
			return nil, newError(ErrCorruption, "undo data truncated", nil)
		}
		var txid chainhash.Hash
		copy(txid[:], raw[:chainhash.HashSize])
		raw = raw[chainhash.HashSize:]
		vout := binary.BigEndian.Uint32(raw[:4])
		raw = raw[4:]
		entryLen := binary.BigEndian.Uint32(raw[:4])
		raw = raw[4:]
		if uint32(len(raw)) < entryLen {
			return nil, newError(ErrCorruption, "undo entry truncated", nil)
		}
		entry, err := decodeEntry(raw[:entryLen])
		if err != nil {
			return nil, err
		}
		raw = raw[entryLen:]
		spent = append(spent, SpentOutput{OutPoint: wire.OutPoint{TxID: txid, Vout: vout}, Entry: *entry})
	}
	return &UndoData{Spent: spent}, nil
}

// PutUndo persists the undo record for the block with the given hash.
func (s *BlockStore) PutUndo(hash chainhash.Hash, undo *UndoData) error {
	if err := s.db.Put(undoKey(hash), encodeUndo(undo), nil); err != nil {
		return newError(ErrIO, "put undo data", err)
	}
	return nil
}

// GetUndo reads back the undo record for hash.
func (s *BlockStore) GetUndo(hash chainhash.Hash) (*UndoData, error) {
	raw, err := s.db.Get(undoKey(hash), nil)
	if err == lderrors.ErrNotFound {
		return nil, newError(ErrNotFound, "undo data for "+hash.String(), nil)
	}
	if err != nil {
		return nil, newError(ErrIO, "get undo data", err)
	}
	return decodeUndo(raw)
}
