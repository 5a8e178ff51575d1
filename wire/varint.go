// Package wire implements the canonical binary encoding of Supernova's
// on-chain data types: outpoints, inputs, outputs, transactions, block
// headers, and blocks, plus the peer-to-peer NetAddress
// and message envelope types used by package p2pd.
package wire

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// ErrNonCanonicalVarInt is returned when a varint could have been encoded
// in fewer bytes than it was, mirroring daglabs-btcd's own
// canonical-encoding check in wire.ReadVarInt.
var ErrNonCanonicalVarInt = errors.New("wire: non-canonical varint encoding")

// ErrVarBytesTooLarge is returned when a length-prefixed byte string claims
// a length larger than the caller's configured ceiling.
var ErrVarBytesTooLarge = errors.New("wire: var bytes length exceeds maximum")

// WriteVarInt serializes val to w using the minimum number of bytes,
// following the same discriminant scheme as Bitcoin-family wire formats:
// single byte for <0xfd, then 0xfd/0xfe/0xff prefixes for uint16/uint32/
// uint64 widths.
func WriteVarInt(w io.Writer, val uint64) error {
	switch {
	case val < 0xfd:
		_, err := w.Write([]byte{byte(val)})
		return err
	case val <= math.MaxUint16:
		buf := make([]byte, 3)
		buf[0] = 0xfd
		binary.LittleEndian.PutUint16(buf[1:], uint16(val))
		_, err := w.Write(buf)
		return err
	case val <= math.MaxUint32:
		buf := make([]byte, 5)
		buf[0] = 0xfe
		binary.LittleEndian.PutUint32(buf[1:], uint32(val))
		_, err := w.Write(buf)
		return err
	default:
		buf := make([]byte, 9)
		buf[0] = 0xff
		binary.LittleEndian.PutUint64(buf[1:], val)
		_, err := w.Write(buf)
		return err
	}
}

// ReadVarInt deserializes a variable length integer, rejecting any encoding
// that is not the minimal one for its value (deserialization fails closed).
func ReadVarInt(r io.Reader) (uint64, error) {
	var prefix [1]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return 0, err
	}

	switch prefix[0] {
	case 0xff:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		v := binary.LittleEndian.Uint64(buf[:])
		if v <= math.MaxUint32 {
			return 0, ErrNonCanonicalVarInt
		}
		return v, nil
	case 0xfe:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		v := uint64(binary.LittleEndian.Uint32(buf[:]))
		if v <= math.MaxUint16 {
			return 0, ErrNonCanonicalVarInt
		}
		return v, nil
	case 0xfd:
		var buf [2]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		v := uint64(binary.LittleEndian.Uint16(buf[:]))
		if v < 0xfd {
			return 0, ErrNonCanonicalVarInt
		}
		return v, nil
	default:
		return uint64(prefix[0]), nil
	}
}

// VarIntSerializeSize returns the number of bytes WriteVarInt would emit.
func VarIntSerializeSize(val uint64) int {
	switch {
	case val < 0xfd:
		return 1
	case val <= math.MaxUint16:
		return 3
	case val <= math.MaxUint32:
		return 5
	default:
		return 9
	}
}

// WriteVarBytes writes a varint length prefix followed by the bytes.
func WriteVarBytes(w io.Writer, b []byte) error {
	if err := WriteVarInt(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadVarBytes reads a varint length prefix followed by that many bytes,
// rejecting lengths above maxAllowed to bound memory exhaustion attacks from
// malformed input, failing closed.
func ReadVarBytes(r io.Reader, maxAllowed uint64) ([]byte, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if count > maxAllowed {
		return nil, ErrVarBytesTooLarge
	}
	buf := make([]byte, count)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
