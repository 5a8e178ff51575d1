package p2pd

import (
	"fmt"
	"sort"
	"sync"
)

// ConnectionLimits bounds inbound/outbound/total peer slots, grounded on
// peer_manager.rs's ConnectionLimits (max_peers, max_inbound, max_outbound,
// reserved_slots).
type ConnectionLimits struct {
	MaxPeers      int
	MaxInbound    int
	MaxOutbound   int
	ReservedSlots int
}

// DefaultConnectionLimits mirrors peer_manager.rs's defaults.
func DefaultConnectionLimits() ConnectionLimits {
	return ConnectionLimits{MaxPeers: 125, MaxInbound: 80, MaxOutbound: 45, ReservedSlots: 25}
}

const (
	minPeerScore = -100
	maxPeerScore = 100
)

// ErrAtCapacity is returned when a new peer cannot be admitted.
var ErrAtCapacity = fmt.Errorf("p2pd: connection limit reached")

// ErrUnknownPeer is returned by operations on a peer id the manager does
// not track.
var ErrUnknownPeer = fmt.Errorf("p2pd: unknown peer")

type peerRecord struct {
	id      string
	inbound bool
	trusted bool
	score   int
}

// PeerManager tracks connection-slot accounting and peer reputation,
// grounded on peer_manager.rs's PeerManager: capacity checks weigh
// trusted peers outside the ordinary slot budget, and eviction always
// spares trusted peers.
type PeerManager struct {
	mu      sync.Mutex
	limits  ConnectionLimits
	peers   map[string]*peerRecord
	trusted map[string]bool
}

// NewPeerManager constructs a PeerManager enforcing limits. trustedIDs are
// exempt from ordinary capacity accounting and never chosen for eviction.
func NewPeerManager(limits ConnectionLimits, trustedIDs []string) *PeerManager {
	trusted := make(map[string]bool, len(trustedIDs))
	for _, id := range trustedIDs {
		trusted[id] = true
	}
	return &PeerManager{
		limits:  limits,
		peers:   make(map[string]*peerRecord),
		trusted: trusted,
	}
}

// counts returns (inboundCount, outboundCount) among currently tracked
// non-trusted peers.
func (m *PeerManager) counts() (inbound, outbound int) {
	for _, p := range m.peers {
		if p.trusted {
			continue
		}
		if p.inbound {
			inbound++
		} else {
			outbound++
		}
	}
	return
}

// CanAccept reports whether a new connection of the given direction may be
// admitted under the current limits, grounded on peer_manager.rs's
// can_accept_connection.
func (m *PeerManager) CanAccept(inbound bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.canAccept(inbound)
}

func (m *PeerManager) canAccept(inbound bool) bool {
	in, out := m.counts()
	total := in + out
	available := m.limits.MaxPeers - m.limits.ReservedSlots
	if total >= available {
		return false
	}
	if inbound {
		return in < m.limits.MaxInbound
	}
	return out < m.limits.MaxOutbound
}

// AddPeer registers id as connected. trusted peers bypass capacity checks
// entirely, matching peer_manager.rs's treatment of reserved connections.
func (m *PeerManager) AddPeer(id string, inbound bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	trusted := m.trusted[id]
	if !trusted && !m.canAccept(inbound) {
		return ErrAtCapacity
	}
	m.peers[id] = &peerRecord{id: id, inbound: inbound, trusted: trusted}
	return nil
}

// RemovePeer forgets id.
func (m *PeerManager) RemovePeer(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.peers, id)
}

// UpdateScore adjusts id's reputation by delta, clamped to [-100, 100].
func (m *PeerManager) UpdateScore(id string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.peers[id]
	if !ok {
		return ErrUnknownPeer
	}
	p.score += delta
	if p.score < minPeerScore {
		p.score = minPeerScore
	}
	if p.score > maxPeerScore {
		p.score = maxPeerScore
	}
	return nil
}

// Score returns id's current reputation score.
func (m *PeerManager) Score(id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.peers[id]
	if !ok {
		return 0, ErrUnknownPeer
	}
	return p.score, nil
}

// BestPeers returns up to n peer ids sorted by descending score.
func (m *PeerManager) BestPeers(n int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	records := m.sortedByScore()
	if n > len(records) {
		n = len(records)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = records[i].id
	}
	return out
}

// PeersToDisconnect returns up to n non-trusted peer ids sorted ascending
// by score, the candidates a caller should evict first when saturated.
// Trusted peers are never returned, per peer_manager.rs's
// get_peers_to_disconnect.
func (m *PeerManager) PeersToDisconnect(n int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var candidates []*peerRecord
	for _, p := range m.peers {
		if !p.trusted {
			candidates = append(candidates, p)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score < candidates[j].score })
	if n > len(candidates) {
		n = len(candidates)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = candidates[i].id
	}
	return out
}

func (m *PeerManager) sortedByScore() []*peerRecord {
	records := make([]*peerRecord, 0, len(m.peers))
	for _, p := range m.peers {
		records = append(records, p)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].score > records[j].score })
	return records
}

// ConnectionCounts reports the current inbound/outbound/total tally among
// non-trusted peers, grounded on peer_manager.rs's get_connection_counts.
type ConnectionCounts struct {
	Inbound  int
	Outbound int
	Total    int
}

func (m *PeerManager) ConnectionCounts() ConnectionCounts {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, out := m.counts()
	return ConnectionCounts{Inbound: in, Outbound: out, Total: in + out}
}

// PeerInfo is the snapshot of one tracked peer's connection state and
// reputation, the shape a getpeerinfo-style RPC handler renders.
type PeerInfo struct {
	ID      string
	Inbound bool
	Trusted bool
	Score   int
}

// ListPeers returns a snapshot of every currently tracked peer.
func (m *PeerManager) ListPeers() []PeerInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PeerInfo, 0, len(m.peers))
	for _, p := range m.peers {
		out = append(out, PeerInfo{ID: p.id, Inbound: p.inbound, Trusted: p.trusted, Score: p.score})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
