package p2pd

import "testing"

func TestPeerManagerEnforcesInboundLimit(t *testing.T) {
	limits := ConnectionLimits{MaxPeers: 10, MaxInbound: 2, MaxOutbound: 10, ReservedSlots: 0}
	m := NewPeerManager(limits, nil)

	if err := m.AddPeer("a", true); err != nil {
		t.Fatalf("AddPeer a: %v", err)
	}
	if err := m.AddPeer("b", true); err != nil {
		t.Fatalf("AddPeer b: %v", err)
	}
	if err := m.AddPeer("c", true); err != ErrAtCapacity {
		t.Fatalf("expected ErrAtCapacity for third inbound peer, got %v", err)
	}
}

func TestPeerManagerReservedSlotsReduceCapacity(t *testing.T) {
	limits := ConnectionLimits{MaxPeers: 3, MaxInbound: 10, MaxOutbound: 10, ReservedSlots: 2}
	m := NewPeerManager(limits, nil)

	if err := m.AddPeer("a", false); err != nil {
		t.Fatalf("AddPeer a: %v", err)
	}
	if err := m.AddPeer("b", false); err != ErrAtCapacity {
		t.Fatalf("expected ErrAtCapacity once reserved slots are hit, got %v", err)
	}
}

func TestPeerManagerTrustedBypassesCapacity(t *testing.T) {
	limits := ConnectionLimits{MaxPeers: 1, MaxInbound: 1, MaxOutbound: 1, ReservedSlots: 0}
	m := NewPeerManager(limits, []string{"trusted"})

	if err := m.AddPeer("ordinary", true); err != nil {
		t.Fatalf("AddPeer ordinary: %v", err)
	}
	if err := m.AddPeer("trusted", true); err != nil {
		t.Fatalf("expected trusted peer to bypass capacity, got %v", err)
	}
}

func TestUpdateScoreClamps(t *testing.T) {
	m := NewPeerManager(DefaultConnectionLimits(), nil)
	_ = m.AddPeer("p", true)

	_ = m.UpdateScore("p", -500)
	score, err := m.Score("p")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if score != -100 {
		t.Fatalf("expected score clamped to -100, got %d", score)
	}

	_ = m.UpdateScore("p", 1000)
	score, _ = m.Score("p")
	if score != 100 {
		t.Fatalf("expected score clamped to 100, got %d", score)
	}
}

func TestUpdateScoreUnknownPeer(t *testing.T) {
	m := NewPeerManager(DefaultConnectionLimits(), nil)
	if err := m.UpdateScore("ghost", 1); err != ErrUnknownPeer {
		t.Fatalf("expected ErrUnknownPeer, got %v", err)
	}
}

func TestPeersToDisconnectExcludesTrustedAndSortsAscending(t *testing.T) {
	m := NewPeerManager(DefaultConnectionLimits(), []string{"trusted"})
	_ = m.AddPeer("trusted", true)
	_ = m.AddPeer("low", true)
	_ = m.AddPeer("high", true)
	_ = m.UpdateScore("trusted", -100)
	_ = m.UpdateScore("low", -50)
	_ = m.UpdateScore("high", 50)

	victims := m.PeersToDisconnect(2)
	if len(victims) != 2 {
		t.Fatalf("expected 2 disconnect candidates, got %d", len(victims))
	}
	if victims[0] != "low" || victims[1] != "high" {
		t.Fatalf("expected [low, high] sorted ascending by score, got %v", victims)
	}
	for _, v := range victims {
		if v == "trusted" {
			t.Fatal("trusted peer must never be a disconnect candidate")
		}
	}
}

func TestBestPeersSortsDescending(t *testing.T) {
	m := NewPeerManager(DefaultConnectionLimits(), nil)
	_ = m.AddPeer("a", true)
	_ = m.AddPeer("b", true)
	_ = m.UpdateScore("a", 10)
	_ = m.UpdateScore("b", 90)

	best := m.BestPeers(2)
	if best[0] != "b" || best[1] != "a" {
		t.Fatalf("expected [b, a], got %v", best)
	}
}

func TestConnectionCounts(t *testing.T) {
	m := NewPeerManager(DefaultConnectionLimits(), nil)
	_ = m.AddPeer("in1", true)
	_ = m.AddPeer("out1", false)
	_ = m.AddPeer("out2", false)

	counts := m.ConnectionCounts()
	if counts.Inbound != 1 || counts.Outbound != 2 || counts.Total != 3 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}
