package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/supernova-chain/supernova/chainhash"
)

// ProtocolVersion is this build's handshake version. A peer whose
// version does not match is rejected rather than negotiated down: both
// sides verify version compatibility.
const ProtocolVersion uint32 = 1

const maxUserAgentLen = 256

// Handshake is exchanged immediately after connection, before any other
// message is accepted.
type Handshake struct {
	Version   uint32
	UserAgent string
	Features  Features
	Height    uint32
}

func (h *Handshake) Serialize(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, h.Version); err != nil {
		return err
	}
	if err := WriteVarBytes(w, []byte(h.UserAgent)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(h.Features)); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, h.Height)
}

func (h *Handshake) Deserialize(r io.Reader) error {
	if err := binary.Read(r, binary.LittleEndian, &h.Version); err != nil {
		return err
	}
	userAgent, err := ReadVarBytes(r, maxUserAgentLen)
	if err != nil {
		return err
	}
	h.UserAgent = string(userAgent)
	var features uint64
	if err := binary.Read(r, binary.LittleEndian, &features); err != nil {
		return err
	}
	h.Features = Features(features)
	return binary.Read(r, binary.LittleEndian, &h.Height)
}

// PingPayload and PongPayload carry a nonce the responder must echo.
type PingPayload struct{ Nonce uint64 }
type PongPayload struct{ Nonce uint64 }

func (p *PingPayload) Serialize(w io.Writer) error { return binary.Write(w, binary.LittleEndian, p.Nonce) }
func (p *PingPayload) Deserialize(r io.Reader) error {
	return binary.Read(r, binary.LittleEndian, &p.Nonce)
}
func (p *PongPayload) Serialize(w io.Writer) error { return binary.Write(w, binary.LittleEndian, p.Nonce) }
func (p *PongPayload) Deserialize(r io.Reader) error {
	return binary.Read(r, binary.LittleEndian, &p.Nonce)
}

// TransactionAnnouncement and BlockAnnouncement announce an item by hash;
// the receiver decides whether to request the full body.
type TransactionAnnouncement struct {
	TxID chainhash.Hash
}

func (a *TransactionAnnouncement) Serialize(w io.Writer) error {
	_, err := w.Write(a.TxID[:])
	return err
}
func (a *TransactionAnnouncement) Deserialize(r io.Reader) error {
	_, err := io.ReadFull(r, a.TxID[:])
	return err
}

type BlockAnnouncement struct {
	Hash   chainhash.Hash
	Height uint32
}

func (a *BlockAnnouncement) Serialize(w io.Writer) error {
	if _, err := w.Write(a.Hash[:]); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, a.Height)
}
func (a *BlockAnnouncement) Deserialize(r io.Reader) error {
	if _, err := io.ReadFull(r, a.Hash[:]); err != nil {
		return err
	}
	return binary.Read(r, binary.LittleEndian, &a.Height)
}

// GetPeersPayload has no fields; its presence is the whole request.
type GetPeersPayload struct{}

func (*GetPeersPayload) Serialize(io.Writer) error   { return nil }
func (*GetPeersPayload) Deserialize(io.Reader) error { return nil }

// PeersPayload answers GetPeers with known addresses.
type PeersPayload struct {
	Addresses []*NetAddress
}

func (p *PeersPayload) Serialize(w io.Writer) error {
	return WriteNetAddressList(w, p.Addresses)
}
func (p *PeersPayload) Deserialize(r io.Reader) error {
	addrs, err := ReadNetAddressList(r)
	if err != nil {
		return err
	}
	p.Addresses = addrs
	return nil
}

// ChallengeRequest is sent to a peer asking to join, carrying the
// anti-Sybil proof-of-work gate's challenge.
type ChallengeRequest struct {
	Challenge  [32]byte
	Difficulty uint8
	Timestamp  uint64
}

func (c *ChallengeRequest) Serialize(w io.Writer) error {
	if _, err := w.Write(c.Challenge[:]); err != nil {
		return err
	}
	if _, err := w.Write([]byte{c.Difficulty}); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, c.Timestamp)
}
func (c *ChallengeRequest) Deserialize(r io.Reader) error {
	if _, err := io.ReadFull(r, c.Challenge[:]); err != nil {
		return err
	}
	var d [1]byte
	if _, err := io.ReadFull(r, d[:]); err != nil {
		return err
	}
	c.Difficulty = d[0]
	return binary.Read(r, binary.LittleEndian, &c.Timestamp)
}

// ChallengeResponse answers a ChallengeRequest with a candidate solution:
// the nonce found and the digest it produced. The verifier recomputes the
// digest from the challenge and nonce, compares it with Solution, and
// then checks its leading-zero-bit count.
type ChallengeResponse struct {
	Challenge [32]byte
	Solution  chainhash.Hash
	Nonce     uint64
	Timestamp uint64
}

func (c *ChallengeResponse) Serialize(w io.Writer) error {
	if _, err := w.Write(c.Challenge[:]); err != nil {
		return err
	}
	if _, err := w.Write(c.Solution[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, c.Nonce); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, c.Timestamp)
}
func (c *ChallengeResponse) Deserialize(r io.Reader) error {
	if _, err := io.ReadFull(r, c.Challenge[:]); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, c.Solution[:]); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &c.Nonce); err != nil {
		return err
	}
	return binary.Read(r, binary.LittleEndian, &c.Timestamp)
}

const maxChallengeErrorLen = 256

// ChallengeResult concludes the exchange with accept/reject.
type ChallengeResult struct {
	Success bool
	Error   string
}

func (c *ChallengeResult) Serialize(w io.Writer) error {
	success := byte(0)
	if c.Success {
		success = 1
	}
	if _, err := w.Write([]byte{success}); err != nil {
		return err
	}
	return WriteVarBytes(w, []byte(c.Error))
}
func (c *ChallengeResult) Deserialize(r io.Reader) error {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return err
	}
	c.Success = b[0] != 0
	errBytes, err := ReadVarBytes(r, maxChallengeErrorLen)
	if err != nil {
		return err
	}
	c.Error = string(errBytes)
	return nil
}

// ErrVersionMismatch is returned when a peer's handshake declares an
// incompatible protocol version.
var ErrVersionMismatch = fmt.Errorf("wire: incompatible protocol version")
