package p2pd

import (
	"github.com/supernova-chain/supernova/wire"
)

// LocalHandshake describes this node's own identity, used to construct the
// wire.Handshake sent to a newly connected peer.
type LocalHandshake struct {
	UserAgent string
	Features  wire.Features
	Height    uint32
}

// ToMessage renders h as the wire.Handshake payload to send.
func (h LocalHandshake) ToMessage() *wire.Handshake {
	return &wire.Handshake{
		Version:   wire.ProtocolVersion,
		UserAgent: h.UserAgent,
		Features:  h.Features,
		Height:    h.Height,
	}
}

// Negotiate validates a peer's incoming wire.Handshake against this node's
// own, grounded on the version-handshake compatibility check in
// daglabs-btcd's peer package: an exact protocol version mismatch is
// rejected outright rather than negotiated down, matching
// wire.ErrVersionMismatch's use as a hard failure.
func (h LocalHandshake) Negotiate(peer *wire.Handshake) error {
	if peer.Version != wire.ProtocolVersion {
		return wire.ErrVersionMismatch
	}
	return nil
}

// RequiresFullNode reports whether remote advertises the full-node
// feature bit, the minimum a block-relay peer must offer.
func RequiresFullNode(remote *wire.Handshake) bool {
	return remote.Features&wire.FeatureFullNode != 0
}
