package p2pd

import (
	"math"
	"net"

	"github.com/supernova-chain/supernova/wire"
)

// SubnetKey buckets addr's IP into a /16 (IPv4) or /32 (IPv6) subnet, the
// granularity the anti-eclipse diversity index uses.
func SubnetKey(ip net.IP) string {
	if v4 := ip.To4(); v4 != nil {
		return net.IPv4(v4[0], v4[1], 0, 0).String() + "/16"
	}
	v6 := ip.To16()
	if v6 == nil {
		return ip.String()
	}
	masked := make(net.IP, 16)
	copy(masked, v6[:4])
	return masked.String() + "/32"
}

// ConnectionStrategy biases outbound dial selection toward under-
// represented diversity buckets.
type ConnectionStrategy int

const (
	BalancedDiversity ConnectionStrategy = iota
	GeographicSpread
	TrustedOnly
)

// SuspiciousBehavior flags a pattern the diversity manager should react
// to by tightening its rotation plan.
type SuspiciousBehavior int

const (
	NoSuspicion SuspiciousBehavior = iota
	AddressFlooding
	RoutingPoisoning
)

// DiversityThreshold is the score below which a rotation plan is emitted
// even absent flagged behavior.
const DiversityThreshold = 0.5

// DiversityManager computes a peer set's subnet diversity and proposes
// which peers to disconnect when diversity collapses or misbehavior is
// observed. New code: grounded on addressmanager.go's bucketing idea, but
// the entropy scoring and rotation planning have no teacher analog (the
// daglabs/Kaspa corpus does not model peer diversity) and are built fresh
// in the package's idiom — small struct, pure scoring functions.
type DiversityManager struct {
	Strategy ConnectionStrategy
}

// NewDiversityManager constructs a manager using the given strategy.
func NewDiversityManager(strategy ConnectionStrategy) *DiversityManager {
	return &DiversityManager{Strategy: strategy}
}

// bucketCounts groups peers by subnet.
func bucketCounts(peers []*wire.NetAddress) map[string]int {
	counts := make(map[string]int)
	for _, p := range peers {
		counts[SubnetKey(p.IP)]++
	}
	return counts
}

// Score returns the normalized Shannon entropy of peers' subnet
// distribution: 0 when every peer shares one subnet, approaching 1 as
// peers spread evenly across many subnets.
func (d *DiversityManager) Score(peers []*wire.NetAddress) float64 {
	if len(peers) == 0 {
		return 1
	}
	counts := bucketCounts(peers)
	if len(counts) <= 1 {
		return 0
	}
	total := float64(len(peers))
	var entropy float64
	for _, c := range counts {
		p := float64(c) / total
		entropy -= p * math.Log2(p)
	}
	maxEntropy := math.Log2(float64(len(counts)))
	if maxEntropy == 0 {
		return 0
	}
	return entropy / maxEntropy
}

// UnderrepresentedBuckets returns the subnet keys among candidates that
// are absent, or least represented, in current — the buckets
// BalancedDiversity dialing should prefer.
func (d *DiversityManager) UnderrepresentedBuckets(current, candidates []*wire.NetAddress) []string {
	currentCounts := bucketCounts(current)
	candidateBuckets := bucketCounts(candidates)

	type bucketLoad struct {
		key   string
		count int
	}
	loads := make([]bucketLoad, 0, len(candidateBuckets))
	for key := range candidateBuckets {
		loads = append(loads, bucketLoad{key: key, count: currentCounts[key]})
	}
	for i := 1; i < len(loads); i++ {
		for j := i; j > 0 && loads[j-1].count > loads[j].count; j-- {
			loads[j-1], loads[j] = loads[j], loads[j-1]
		}
	}
	out := make([]string, len(loads))
	for i, l := range loads {
		out[i] = l.key
	}
	return out
}

// RotationPlan lists peers a caller should disconnect to restore
// diversity or respond to flagged misbehavior.
type RotationPlan struct {
	Reason     SuspiciousBehavior
	Disconnect []*wire.NetAddress
}

// Plan inspects peers' diversity score and any flagged behavior and, if
// warranted, returns every peer of the most populated subnet except one
// as disconnect candidates. Only one subnet is targeted (a tie is broken
// by map iteration order), and nil is returned when no subnet holds more
// than one peer.
func (d *DiversityManager) Plan(peers []*wire.NetAddress, behavior SuspiciousBehavior) *RotationPlan {
	score := d.Score(peers)
	if score >= DiversityThreshold && behavior == NoSuspicion {
		return nil
	}

	counts := bucketCounts(peers)
	worstBucket := ""
	worstCount := 0
	for key, count := range counts {
		if count > worstCount {
			worstBucket, worstCount = key, count
		}
	}
	if worstCount <= 1 {
		return nil
	}

	var disconnect []*wire.NetAddress
	for _, p := range peers {
		if SubnetKey(p.IP) == worstBucket {
			disconnect = append(disconnect, p)
		}
	}
	// Keep one representative of the over-represented bucket.
	if len(disconnect) > 0 {
		disconnect = disconnect[1:]
	}

	return &RotationPlan{Reason: behavior, Disconnect: disconnect}
}
