package storage

import (
	"encoding/binary"

	"github.com/syndtr/goleveldb/leveldb"
	lderrors "github.com/syndtr/goleveldb/leveldb/errors"

	"github.com/supernova-chain/supernova/chainhash"
	"github.com/supernova-chain/supernova/wire"
)

// Key prefixes partition the single leveldb keyspace the way
// daglabs-btcd's ffldb partitions flat files from its metadata index: one
// byte-tagged namespace per concern instead of separate database handles.
const (
	prefixBlockByHash   = 'b'
	prefixHashByHeight  = 'h'
	prefixHeaderByHash  = 'd'
	metaTipHeightKey    = "meta:tip-height"
)

// BlockStore is an append-only store of blocks, indexed by hash and by
// height, backed by a single embedded leveldb instance.
type BlockStore struct {
	db *leveldb.DB
}

// OpenBlockStore opens (creating if absent) a leveldb database at path.
func OpenBlockStore(path string) (*BlockStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, newError(ErrIO, "open block store", err)
	}
	return &BlockStore{db: db}, nil
}

// Close releases the underlying leveldb handle.
func (s *BlockStore) Close() error {
	if err := s.db.Close(); err != nil {
		return newError(ErrIO, "close block store", err)
	}
	return nil
}

// Healthy reports whether the store can still serve reads, the check a
// readiness probe runs before declaring the node able to accept blocks.
func (s *BlockStore) Healthy() bool {
	_, err := s.db.Has([]byte(metaTipHeightKey), nil)
	return err == nil
}

func blockKey(hash chainhash.Hash) []byte {
	key := make([]byte, 1+chainhash.HashSize)
	key[0] = prefixBlockByHash
	copy(key[1:], hash[:])
	return key
}

func headerKey(hash chainhash.Hash) []byte {
	key := make([]byte, 1+chainhash.HashSize)
	key[0] = prefixHeaderByHash
	copy(key[1:], hash[:])
	return key
}

func heightKey(height uint32) []byte {
	key := make([]byte, 5)
	key[0] = prefixHashByHeight
	binary.BigEndian.PutUint32(key[1:], height)
	return key
}

// PutBlock persists a block, indexed by its own hash and by height. Blocks
// are never mutated once written; chainstate handles reorg by writing new
// height-index entries, not by deleting old block bodies.
func (s *BlockStore) PutBlock(height uint32, block *wire.Block) error {
	hash := block.BlockHash()
	batch := new(leveldb.Batch)
	batch.Put(blockKey(hash), block.Bytes())
	batch.Put(headerKey(hash), block.Header.Bytes())
	batch.Put(heightKey(height), hash[:])
	if err := s.db.Write(batch, nil); err != nil {
		return newError(ErrIO, "put block", err)
	}
	return nil
}

// GetBlock reads a full block by hash.
func (s *BlockStore) GetBlock(hash chainhash.Hash) (*wire.Block, error) {
	raw, err := s.db.Get(blockKey(hash), nil)
	if err == lderrors.ErrNotFound {
		return nil, newError(ErrNotFound, "block "+hash.String(), nil)
	}
	if err != nil {
		return nil, newError(ErrIO, "get block", err)
	}
	block, err := wire.DeserializeBlock(raw)
	if err != nil {
		return nil, newError(ErrCorruption, "deserialize block "+hash.String(), err)
	}
	return block, nil
}

// GetHeader reads only a block's header by hash, avoiding a full body
// deserialization for the common case of header-first sync.
func (s *BlockStore) GetHeader(hash chainhash.Hash) (*wire.BlockHeader, error) {
	raw, err := s.db.Get(headerKey(hash), nil)
	if err == lderrors.ErrNotFound {
		return nil, newError(ErrNotFound, "header "+hash.String(), nil)
	}
	if err != nil {
		return nil, newError(ErrIO, "get header", err)
	}
	header := &wire.BlockHeader{}
	if err := header.Deserialize(byteReader(raw)); err != nil {
		return nil, newError(ErrCorruption, "deserialize header "+hash.String(), err)
	}
	return header, nil
}

// GetHashByHeight resolves a main-chain height to its block hash.
func (s *BlockStore) GetHashByHeight(height uint32) (chainhash.Hash, error) {
	raw, err := s.db.Get(heightKey(height), nil)
	if err == lderrors.ErrNotFound {
		return chainhash.ZeroHash, newError(ErrNotFound, "height index", nil)
	}
	if err != nil {
		return chainhash.ZeroHash, newError(ErrIO, "get height index", err)
	}
	hash, err := chainhash.NewHash(raw)
	if err != nil {
		return chainhash.ZeroHash, newError(ErrCorruption, "height index value", err)
	}
	return *hash, nil
}

// SetHashByHeight overwrites the height index, used by chainstate during
// reorg to repoint a height at the new main-chain block.
func (s *BlockStore) SetHashByHeight(height uint32, hash chainhash.Hash) error {
	if err := s.db.Put(heightKey(height), hash[:], nil); err != nil {
		return newError(ErrIO, "set height index", err)
	}
	return nil
}

// PutTipHeight persists the current main-chain tip height.
func (s *BlockStore) PutTipHeight(height uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], height)
	if err := s.db.Put([]byte(metaTipHeightKey), buf[:], nil); err != nil {
		return newError(ErrIO, "put tip height", err)
	}
	return nil
}

// TipHeight returns the persisted main-chain tip height, or (0, ErrNotFound)
// before the genesis block has been written.
func (s *BlockStore) TipHeight() (uint32, error) {
	raw, err := s.db.Get([]byte(metaTipHeightKey), nil)
	if err == lderrors.ErrNotFound {
		return 0, newError(ErrNotFound, "tip height", nil)
	}
	if err != nil {
		return 0, newError(ErrIO, "get tip height", err)
	}
	return binary.BigEndian.Uint32(raw), nil
}
