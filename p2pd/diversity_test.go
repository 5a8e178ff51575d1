package p2pd

import (
	"testing"

	"github.com/supernova-chain/supernova/wire"
)

func TestSubnetKeyGroupsByPrefix(t *testing.T) {
	a := SubnetKey(addr("8.8.8.8", 0).IP)
	b := SubnetKey(addr("8.8.1.1", 0).IP)
	c := SubnetKey(addr("9.9.9.9", 0).IP)
	if a != b {
		t.Fatalf("expected same /16 bucket, got %q and %q", a, b)
	}
	if a == c {
		t.Fatalf("expected different buckets for unrelated /16s")
	}
}

func TestScoreIsZeroForSingleBucket(t *testing.T) {
	d := NewDiversityManager(BalancedDiversity)
	peers := []*wire.NetAddress{addr("8.8.8.1", 1), addr("8.8.8.2", 2), addr("8.8.8.3", 3)}
	if score := d.Score(peers); score != 0 {
		t.Fatalf("expected score 0 for single-bucket peers, got %v", score)
	}
}

func TestScoreIsHighForSpreadPeers(t *testing.T) {
	d := NewDiversityManager(BalancedDiversity)
	peers := []*wire.NetAddress{
		addr("1.1.1.1", 1), addr("2.2.2.2", 2), addr("3.3.3.3", 3), addr("4.4.4.4", 4),
	}
	if score := d.Score(peers); score < 0.99 {
		t.Fatalf("expected near-maximal entropy for fully spread peers, got %v", score)
	}
}

func TestScoreEmptyPeersIsMaximal(t *testing.T) {
	d := NewDiversityManager(BalancedDiversity)
	if score := d.Score(nil); score != 1 {
		t.Fatalf("expected score 1 for no peers, got %v", score)
	}
}

func TestPlanReturnsNilWhenDiverseAndNotSuspicious(t *testing.T) {
	d := NewDiversityManager(BalancedDiversity)
	peers := []*wire.NetAddress{
		addr("1.1.1.1", 1), addr("2.2.2.2", 2), addr("3.3.3.3", 3), addr("4.4.4.4", 4),
	}
	if plan := d.Plan(peers, NoSuspicion); plan != nil {
		t.Fatalf("expected nil plan, got %+v", plan)
	}
}

func TestPlanTargetsOverrepresentedBucket(t *testing.T) {
	d := NewDiversityManager(BalancedDiversity)
	peers := []*wire.NetAddress{
		addr("8.8.8.1", 1), addr("8.8.8.2", 2), addr("8.8.8.3", 3), addr("8.8.8.4", 4),
		addr("8.8.8.5", 5), addr("8.8.8.6", 6), addr("8.8.8.7", 7), addr("8.8.8.8", 8),
		addr("8.8.8.9", 9), addr("9.9.9.9", 10),
	}
	plan := d.Plan(peers, NoSuspicion)
	if plan == nil {
		t.Fatal("expected a rotation plan for clustered peers")
	}
	if len(plan.Disconnect) == 0 {
		t.Fatal("expected at least one disconnect candidate")
	}
	for _, p := range plan.Disconnect {
		if SubnetKey(p.IP) != "8.8.0.0/16" {
			t.Errorf("unexpected disconnect candidate from bucket %s", SubnetKey(p.IP))
		}
	}
}

func TestPlanReturnedOnFlaggedBehaviorEvenIfDiverse(t *testing.T) {
	d := NewDiversityManager(BalancedDiversity)
	peers := []*wire.NetAddress{
		addr("8.8.8.1", 1), addr("8.8.8.2", 2), addr("9.9.9.9", 3), addr("10.10.10.10", 4),
	}
	plan := d.Plan(peers, AddressFlooding)
	if plan == nil {
		t.Fatal("expected a plan when behavior is flagged even with decent diversity")
	}
	if plan.Reason != AddressFlooding {
		t.Fatalf("expected reason AddressFlooding, got %v", plan.Reason)
	}
}
