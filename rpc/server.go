// Package rpc exposes the node's operation set as plain methods on
// Server, grounded on daglabs-btcd's infrastructure/network/rpc/
// rpcserver.go RPC-surface shape, though that file transports over
// gRPC/websocket; this package instead ships an HTTP+JSON adapter over
// the same method set, with no framework.
package rpc

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/supernova-chain/supernova/chainparams"
	"github.com/supernova-chain/supernova/chainstate"
	"github.com/supernova-chain/supernova/htlc"
	"github.com/supernova-chain/supernova/mempool"
	"github.com/supernova-chain/supernova/mining"
	"github.com/supernova-chain/supernova/p2pd"
	"github.com/supernova-chain/supernova/storage"
)

// MinPeerCount is the minimum connected-peer count readiness requires.
const MinPeerCount = 3

// ChainSyncChecker reports whether the chain is caught up with its
// peers, one half of the readiness gate besides peer count and storage
// health. Satisfied by syncmgr.Manager via a thin adapter (its Idle
// state means nothing is currently being fetched).
type ChainSyncChecker interface {
	Synced() bool
}

// Server bundles every component an RPC method needs. All fields are
// read-only references; Server itself holds no mutable state of its own.
type Server struct {
	Chain      *chainstate.Chain
	Mempool    *mempool.Pool
	Params     *chainparams.Params
	Generator  *mining.Generator
	Peers      *p2pd.PeerManager
	Monitor    *htlc.Monitor
	BlockStore *storage.BlockStore
	Sync       ChainSyncChecker

	RewardAddress   string
	TreasuryAddress string

	StartTime time.Time
	Version   string

	logger zerolog.Logger
}

// NewServer constructs a Server. logger should be the RPCS-tagged
// subsystem logger from internal/logging.
func NewServer(logger zerolog.Logger) *Server {
	return &Server{StartTime: time.Now(), Version: "supernova/0.1.0", logger: logger}
}
