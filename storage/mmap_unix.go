//go:build unix

package storage

import (
	"encoding/binary"
	"os"
	"syscall"

	"github.com/supernova-chain/supernova/chainhash"
)

// Checkpoint is an mmap'd snapshot of a UTXO commitment, used so a node
// restart can verify its on-disk state against a known-good root without
// replaying the whole chain. This file is the one explicit unsafe/syscall
// boundary in the repo; the invariants below are
// load-bearing and must not be relaxed without re-auditing every call
// site:
//
//  1. A Checkpoint holds exclusive ownership of its mapping: no other
//     *Checkpoint may map the same file concurrently. No file lock is
//     taken here, so this holds only while no two callers open the same
//     checkpoint file at once.
//  2. The backing file is truncated to its final size with Truncate
//     *before* mapping; growing a file after mapping it invalidates the
//     mapping on some platforms and is never done here.
//  3. The mapped region's length is always at least checkpointHeaderSize
//     bytes; reads of the header fields never run past the mapping.
//  4. The mapping is unmapped (Close) strictly before the underlying file
//     descriptor is closed.
const checkpointHeaderSize = 4 + chainhash.HashSize + 4

// CheckpointHeader is the fixed-size header at offset 0 of a checkpoint
// file: a format version, the committed UTXO root, and the chain height
// the commitment was taken at.
type CheckpointHeader struct {
	Version uint32
	Root    chainhash.Hash
	Height  uint32
}

// Checkpoint wraps an mmap'd checkpoint file.
type Checkpoint struct {
	file *os.File
	data []byte
}

// CreateCheckpoint truncates path to checkpointHeaderSize, maps it, and
// writes header. The file is created if it does not exist.
func CreateCheckpoint(path string, header CheckpointHeader) (*Checkpoint, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, newError(ErrIO, "open checkpoint file", err)
	}
	// Invariant 2: truncate before mapping.
	if err := f.Truncate(int64(checkpointHeaderSize)); err != nil {
		f.Close()
		return nil, newError(ErrIO, "truncate checkpoint file", err)
	}

	data, err := syscall.Mmap(int(f.Fd()), 0, checkpointHeaderSize, syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, newError(ErrIO, "mmap checkpoint file", err)
	}

	c := &Checkpoint{file: f, data: data}
	c.writeHeader(header)
	return c, nil
}

// OpenCheckpoint maps an existing checkpoint file read-only.
func OpenCheckpoint(path string) (*Checkpoint, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, newError(ErrIO, "open checkpoint file", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, newError(ErrIO, "stat checkpoint file", err)
	}
	// Invariant 3: refuse to map a file too small to hold the header.
	if info.Size() < int64(checkpointHeaderSize) {
		f.Close()
		return nil, newError(ErrCorruption, "checkpoint file smaller than header", nil)
	}

	data, err := syscall.Mmap(int(f.Fd()), 0, checkpointHeaderSize, syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, newError(ErrIO, "mmap checkpoint file", err)
	}
	return &Checkpoint{file: f, data: data}, nil
}

func (c *Checkpoint) writeHeader(h CheckpointHeader) {
	binary.LittleEndian.PutUint32(c.data[0:4], h.Version)
	copy(c.data[4:4+chainhash.HashSize], h.Root[:])
	binary.LittleEndian.PutUint32(c.data[4+chainhash.HashSize:checkpointHeaderSize], h.Height)
}

// Header reads the mapped header without copying beyond the hash, which is
// copied into the returned value since chainhash.Hash is a fixed array.
func (c *Checkpoint) Header() CheckpointHeader {
	var h CheckpointHeader
	h.Version = binary.LittleEndian.Uint32(c.data[0:4])
	copy(h.Root[:], c.data[4:4+chainhash.HashSize])
	h.Height = binary.LittleEndian.Uint32(c.data[4+chainhash.HashSize : checkpointHeaderSize])
	return h
}

// Close unmaps the checkpoint and closes its file, in that order (invariant
// 4).
func (c *Checkpoint) Close() error {
	if err := syscall.Munmap(c.data); err != nil {
		return newError(ErrIO, "munmap checkpoint file", err)
	}
	c.data = nil
	if err := c.file.Close(); err != nil {
		return newError(ErrIO, "close checkpoint file", err)
	}
	return nil
}
