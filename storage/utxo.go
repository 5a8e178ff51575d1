package storage

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/syndtr/goleveldb/leveldb"
	lderrors "github.com/syndtr/goleveldb/leveldb/errors"

	"github.com/supernova-chain/supernova/chainhash"
	"github.com/supernova-chain/supernova/wire"
)

// UtxoEntry is one unspent output together with the metadata needed to
// enforce coinbase maturity and compute fees without re-reading the
// spending transaction's parent block.
type UtxoEntry struct {
	Output      wire.TxOutput
	BlockHeight uint32
	IsCoinbase  bool
}

// UtxoSet is the authoritative unspent-output map: a bounded in-memory TTL
// cache sized to N entries fronting a leveldb-backed persistent map.
type UtxoSet struct {
	db    *leveldb.DB
	cache *ttlcache.Cache[wire.OutPoint, *UtxoEntry]
	mu    sync.RWMutex

	hits, misses, opNanos atomic.Int64
}

// OpenUtxoSet opens the persistent UTXO store at path and starts its
// fronting cache with the given capacity and per-entry TTL.
func OpenUtxoSet(path string, cacheCapacity uint64, ttl time.Duration) (*UtxoSet, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, newError(ErrIO, "open utxo set", err)
	}
	cache := ttlcache.New[wire.OutPoint, *UtxoEntry](
		ttlcache.WithCapacity[wire.OutPoint, *UtxoEntry](cacheCapacity),
		ttlcache.WithTTL[wire.OutPoint, *UtxoEntry](ttl),
	)
	go cache.Start()
	return &UtxoSet{db: db, cache: cache}, nil
}

// Close stops the cache's eviction goroutine and closes the leveldb handle.
func (u *UtxoSet) Close() error {
	u.cache.Stop()
	if err := u.db.Close(); err != nil {
		return newError(ErrIO, "close utxo set", err)
	}
	return nil
}

func utxoKey(op wire.OutPoint) []byte {
	key := make([]byte, chainhash.HashSize+4)
	copy(key, op.TxID[:])
	key[chainhash.HashSize] = byte(op.Vout >> 24)
	key[chainhash.HashSize+1] = byte(op.Vout >> 16)
	key[chainhash.HashSize+2] = byte(op.Vout >> 8)
	key[chainhash.HashSize+3] = byte(op.Vout)
	return key
}

func encodeEntry(e *UtxoEntry) []byte {
	scriptLen := len(e.Output.ScriptPubKey)
	buf := make([]byte, 8+4+1+4+scriptLen)
	putUint64(buf[0:8], e.Output.Value)
	putUint32(buf[8:12], e.BlockHeight)
	if e.IsCoinbase {
		buf[12] = 1
	}
	putUint32(buf[13:17], uint32(scriptLen))
	copy(buf[17:], e.Output.ScriptPubKey)
	return buf
}

func decodeEntry(raw []byte) (*UtxoEntry, error) {
	if len(raw) < 17 {
		return nil, newError(ErrCorruption, "utxo entry too short", nil)
	}
	value := getUint64(raw[0:8])
	height := getUint32(raw[8:12])
	isCoinbase := raw[12] != 0
	scriptLen := getUint32(raw[13:17])
	if uint32(len(raw)-17) != scriptLen {
		return nil, newError(ErrCorruption, "utxo entry script length mismatch", nil)
	}
	script := make([]byte, scriptLen)
	copy(script, raw[17:])
	return &UtxoEntry{
		Output:      wire.TxOutput{Value: value, ScriptPubKey: script},
		BlockHeight: height,
		IsCoinbase:  isCoinbase,
	}, nil
}

// Get returns the UTXO entry for op, consulting the cache first and
// falling back to leveldb on a miss.
func (u *UtxoSet) Get(op wire.OutPoint) (*UtxoEntry, error) {
	start := time.Now()
	defer func() { u.opNanos.Add(time.Since(start).Nanoseconds()) }()

	if item := u.cache.Get(op); item != nil {
		u.hits.Add(1)
		return item.Value(), nil
	}
	u.misses.Add(1)

	u.mu.RLock()
	raw, err := u.db.Get(utxoKey(op), nil)
	u.mu.RUnlock()
	if err == lderrors.ErrNotFound {
		return nil, newError(ErrNotFound, "utxo "+op.TxID.String(), nil)
	}
	if err != nil {
		return nil, newError(ErrIO, "get utxo", err)
	}
	entry, err := decodeEntry(raw)
	if err != nil {
		return nil, err
	}
	u.cache.Set(op, entry, ttlcache.DefaultTTL)
	return entry, nil
}

// Add inserts or overwrites a UTXO entry, used both when connecting a new
// block's outputs and when restoring an output during a disconnect.
func (u *UtxoSet) Add(op wire.OutPoint, entry *UtxoEntry) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.db.Put(utxoKey(op), encodeEntry(entry), nil); err != nil {
		return newError(ErrIO, "add utxo", err)
	}
	u.cache.Set(op, entry, ttlcache.DefaultTTL)
	return nil
}

// Remove deletes a UTXO entry, used when its output is spent.
func (u *UtxoSet) Remove(op wire.OutPoint) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.db.Delete(utxoKey(op), nil); err != nil {
		return newError(ErrIO, "remove utxo", err)
	}
	u.cache.Delete(op)
	return nil
}

// Stats reports cache hit/miss counters and cumulative operation latency.
type Stats struct {
	Hits, Misses int64
	OpNanos      int64
}

func (u *UtxoSet) Stats() Stats {
	return Stats{Hits: u.hits.Load(), Misses: u.misses.Load(), OpNanos: u.opNanos.Load()}
}

// Commitment computes a lazy Merkle root over every UTXO entry currently in
// the persistent store, in outpoint order (leveldb iterates the TxID ||
// big-endian Vout keys in byte order) so the root is deterministic
// regardless of insertion order. Intended for periodic checkpointing,
// not per-block recomputation.
func (u *UtxoSet) Commitment() (chainhash.Hash, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	iter := u.db.NewIterator(nil, nil)
	defer iter.Release()

	var leaves []chainhash.Hash
	for iter.Next() {
		key := append([]byte(nil), iter.Key()...)
		value := append([]byte(nil), iter.Value()...)
		leaf := chainhash.HashH(append(key, value...))
		leaves = append(leaves, leaf)
	}
	if err := iter.Error(); err != nil {
		return chainhash.ZeroHash, newError(ErrIO, "iterate utxo set", err)
	}

	return chainhash.MerkleRoot(leaves), nil
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (56 - 8*i))
	}
}

func putUint32(b []byte, v uint32) {
	for i := 0; i < 4; i++ {
		b[i] = byte(v >> (24 - 8*i))
	}
}

func getUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func getUint32(b []byte) uint32 {
	var v uint32
	for i := 0; i < 4; i++ {
		v = v<<8 | uint32(b[i])
	}
	return v
}
