package syncmgr

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// timeoutPenalty is the peer score delta applied when a sync step times
// out against that peer.
const timeoutPenalty = -10

// Config bounds every state's timeout and the stale-tip threshold.
type Config struct {
	HeaderTimeout time.Duration
	BlockTimeout  time.Duration
	VerifyTimeout time.Duration
	StaleAfter    uint64
}

// DefaultConfig returns conservative timeouts: 30s headers, 60s
// blocks, 120s verification, and a five-minute stale-tip threshold.
func DefaultConfig() Config {
	return Config{
		HeaderTimeout: 30 * time.Second,
		BlockTimeout:  60 * time.Second,
		VerifyTimeout: 120 * time.Second,
		StaleAfter:    300,
	}
}

// PeerSelector picks the peer a sync step should run against.
type PeerSelector interface {
	SelectPeer() (peerID string, ok bool)
}

// PeerPenalizer is the subset of p2pd.PeerManager's surface syncmgr
// needs to discipline a peer responsible for a stalled step.
type PeerPenalizer interface {
	UpdateScore(peerID string, delta int) error
}

// StaleTipChecker is satisfied by chainstate.Chain's StaleTip.
type StaleTipChecker interface {
	StaleTip(now, staleAfterSeconds uint64) bool
}

// Steps performs the actual network work for each syncing state. Each
// method must respect ctx's deadline and return promptly once it fires,
// so Manager can treat the deadline firing as the step's failure mode.
type Steps interface {
	FetchHeaders(ctx context.Context, peerID string) error
	FetchBlocks(ctx context.Context, peerID string) error
	VerifyBlocks(ctx context.Context, peerID string) error
}

// Manager drives the four-state sync machine one Tick at a time,
// grounded on the peer-selection/spawn shape of
// app/protocol/flowcontext/ibd.go, generalized to an explicit state
// machine with per-state timeouts instead of daglabs-btcd's single
// always-running IBD flag.
type Manager struct {
	mu        sync.Mutex
	state     State
	config    Config
	peers     PeerSelector
	penalizer PeerPenalizer
	tip       StaleTipChecker
	steps     Steps
	logger    zerolog.Logger
}

// NewManager constructs a Manager in the Idle state.
func NewManager(config Config, peers PeerSelector, penalizer PeerPenalizer, tip StaleTipChecker, steps Steps, logger zerolog.Logger) *Manager {
	return &Manager{
		state:     Idle,
		config:    config,
		peers:     peers,
		penalizer: penalizer,
		tip:       tip,
		steps:     steps,
		logger:    logger,
	}
}

// State returns the machine's current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) getState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// Tick advances the machine by one step. From Idle it does nothing unless
// the tip has gone stale, in which case it moves straight into
// SyncingHeaders and runs that step in the same call: a stale tip always
// forces a restart from headers (StartSync is the other way out of Idle).
// From any other state
// it runs that state's network step under its timeout and advances on
// success or resets to Idle and penalizes the peer on failure/timeout.
func (m *Manager) Tick(now uint64) error {
	state := m.getState()
	if state == Idle {
		stale := m.tip != nil && m.tip.StaleTip(now, m.config.StaleAfter)
		if !stale {
			return nil
		}
		m.setState(SyncingHeaders)
		state = SyncingHeaders
	}

	peerID, ok := m.peers.SelectPeer()
	if !ok {
		m.setState(Idle)
		return nil
	}

	switch state {
	case SyncingHeaders:
		if err := m.runStep(state, peerID, m.config.HeaderTimeout, m.steps.FetchHeaders); err != nil {
			return err
		}
		m.setState(SyncingBlocks)
	case SyncingBlocks:
		if err := m.runStep(state, peerID, m.config.BlockTimeout, m.steps.FetchBlocks); err != nil {
			return err
		}
		m.setState(VerifyingBlocks)
	case VerifyingBlocks:
		if err := m.runStep(state, peerID, m.config.VerifyTimeout, m.steps.VerifyBlocks); err != nil {
			return err
		}
		m.setState(Idle)
	}
	return nil
}

// StartSync forces a transition out of Idle into SyncingHeaders,
// bypassing the stale-tip check — the entry point for a node's initial
// sync on startup, when there is no tip yet to judge staleness against.
func (m *Manager) StartSync() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Idle {
		m.state = SyncingHeaders
	}
}

func (m *Manager) runStep(state State, peerID string, timeout time.Duration, fn func(ctx context.Context, peerID string) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := fn(ctx, peerID)
	if err != nil {
		m.logger.Warn().Str("peer", peerID).Str("state", state.String()).Err(err).Msg("sync step failed, resetting to idle")
		if penErr := m.penalizer.UpdateScore(peerID, timeoutPenalty); penErr != nil {
			m.logger.Warn().Err(penErr).Msg("failed to penalize peer after sync step failure")
		}
		m.setState(Idle)
		return err
	}
	return nil
}
