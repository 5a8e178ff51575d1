package p2pd

import (
	"net"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func testLimiterConfig() RateLimitConfig {
	cfg := DefaultRateLimitConfig()
	cfg.PerIPRate = rate.Every(time.Hour)
	cfg.PerIPBurst = 2
	cfg.PerSubnetRate = rate.Every(time.Hour)
	cfg.PerSubnetBurst = 100
	cfg.GlobalRate = rate.Every(time.Hour)
	cfg.GlobalBurst = 1000
	cfg.ClassRate = map[MessageClass]rate.Limit{ClassGeneral: rate.Every(time.Hour)}
	cfg.ClassBurst = map[MessageClass]int{ClassGeneral: 1000}
	cfg.ViolationsBeforeBan = 2
	cfg.BanDuration = time.Minute
	cfg.CircuitBreakerThreshold = 0
	return cfg
}

func TestLimiterEnforcesPerIPBurst(t *testing.T) {
	cfg := testLimiterConfig()
	l := NewLimiter(cfg)
	ip := net.ParseIP("8.8.8.8")
	now := time.Now()

	for i := 0; i < cfg.PerIPBurst; i++ {
		if err := l.Allow(ip, ClassGeneral, now); err != nil {
			t.Fatalf("unexpected rejection on request %d: %v", i, err)
		}
	}
	if err := l.Allow(ip, ClassGeneral, now); err == nil {
		t.Fatal("expected rejection once burst is exhausted")
	}
}

func TestLimiterBansAfterRepeatedViolations(t *testing.T) {
	cfg := testLimiterConfig()
	l := NewLimiter(cfg)
	ip := net.ParseIP("8.8.8.8")
	now := time.Now()

	for i := 0; i < cfg.PerIPBurst; i++ {
		_ = l.Allow(ip, ClassGeneral, now)
	}
	for i := 0; i < cfg.ViolationsBeforeBan; i++ {
		_ = l.Allow(ip, ClassGeneral, now)
	}

	if !l.IsBanned(ip, now) {
		t.Fatal("expected IP to be banned after repeated violations")
	}
	if err := l.Allow(ip, ClassGeneral, now); err == nil {
		t.Fatal("expected banned IP to be rejected")
	}

	later := now.Add(cfg.BanDuration + time.Second)
	if l.IsBanned(ip, later) {
		t.Fatal("expected ban to expire after BanDuration")
	}
}

func TestLimiterIsolatesDifferentIPs(t *testing.T) {
	cfg := testLimiterConfig()
	l := NewLimiter(cfg)
	now := time.Now()
	a := net.ParseIP("1.2.3.4")
	b := net.ParseIP("5.6.7.8")

	for i := 0; i < cfg.PerIPBurst; i++ {
		if err := l.Allow(a, ClassGeneral, now); err != nil {
			t.Fatalf("a rejected early: %v", err)
		}
	}
	if err := l.Allow(b, ClassGeneral, now); err != nil {
		t.Fatalf("b should have its own bucket: %v", err)
	}
}

func TestLimiterSubnetCapsDistributedAttack(t *testing.T) {
	cfg := testLimiterConfig()
	cfg.PerSubnetBurst = 3
	l := NewLimiter(cfg)
	now := time.Now()

	rejected := false
	for i := 0; i < 10; i++ {
		ip := net.IPv4(8, 8, byte(i), 1)
		if err := l.Allow(ip, ClassGeneral, now); err != nil {
			rejected = true
		}
	}
	if !rejected {
		t.Fatal("expected subnet-wide cap to reject some requests from distinct IPs in the same /16")
	}
}

func TestCircuitBreakerTripsOnHighRejectionRatio(t *testing.T) {
	cfg := testLimiterConfig()
	cfg.PerIPBurst = 1
	cfg.CircuitBreakerThreshold = 0.3
	cfg.CircuitBreakerWindow = 10
	cfg.ViolationsBeforeBan = 1000 // avoid banning from interfering with this test
	l := NewLimiter(cfg)
	now := time.Now()

	for i := 0; i < 10; i++ {
		ip := net.IPv4(10, 0, 0, byte(i))
		_ = l.Allow(ip, ClassGeneral, now)
		_ = l.Allow(ip, ClassGeneral, now) // second request per IP always rejected (burst=1)
	}

	if err := l.Allow(net.ParseIP("99.99.99.99"), ClassGeneral, now); err != ErrCircuitOpen {
		t.Fatalf("expected circuit breaker to be open, got %v", err)
	}
}
