package main

import (
	"context"
	"time"

	"github.com/supernova-chain/supernova/p2pd"
)

// peerSelector adapts p2pd.PeerManager to syncmgr.PeerSelector, always
// handing sync steps the node's highest-reputation peer.
type peerSelector struct {
	peers *p2pd.PeerManager
}

func (s peerSelector) SelectPeer() (string, bool) {
	best := s.peers.BestPeers(1)
	if len(best) == 0 {
		return "", false
	}
	return best[0], true
}

// noopSteps is a placeholder syncmgr.Steps: this tree implements the sync
// state machine and peer scoring, but has no wire-level header/block
// fetch messages yet (see wire/payloads.go), so there is no network
// transport for these steps to drive. Each call succeeds immediately
// without transferring anything, leaving the chain permanently synced at
// whatever height it locally holds until a concrete Steps implementation
// replaces this one.
type noopSteps struct{}

func (noopSteps) FetchHeaders(ctx context.Context, peerID string) error { return nil }
func (noopSteps) FetchBlocks(ctx context.Context, peerID string) error  { return nil }
func (noopSteps) VerifyBlocks(ctx context.Context, peerID string) error { return nil }

// nowUnix is the nowFunc every Run loop (mining, syncmgr) is driven with.
func nowUnix() uint64 {
	return uint64(time.Now().Unix())
}
