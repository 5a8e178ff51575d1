package p2pd

import (
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MessageClass distinguishes the per-message-type rate limit buckets.
type MessageClass int

const (
	ClassBlock MessageClass = iota
	ClassTransaction
	ClassDiscovery
	ClassGeneral
)

// RateLimitConfig bounds per-IP, per-subnet, and global token buckets,
// grounded on rate_limiter_tests.rs's RateLimitConfig fields (renamed to
// Go conventions, narrowed to the limiter's own units).
type RateLimitConfig struct {
	PerIPRate      rate.Limit
	PerIPBurst     int
	PerSubnetRate  rate.Limit
	PerSubnetBurst int
	GlobalRate     rate.Limit
	GlobalBurst    int

	// ClassRate/ClassBurst hold a limiter configuration per MessageClass.
	ClassRate  map[MessageClass]rate.Limit
	ClassBurst map[MessageClass]int

	ViolationsBeforeBan int
	BanDuration         time.Duration

	CircuitBreakerThreshold float64
	CircuitBreakerTimeout   time.Duration
	CircuitBreakerWindow    int
}

// DefaultRateLimitConfig mirrors rate_limiter_tests.rs's test fixture
// values, a reasonable single-node default.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		PerIPRate:               rate.Every(6 * time.Second),
		PerIPBurst:              10,
		PerSubnetRate:           rate.Every(time.Second),
		PerSubnetBurst:          50,
		GlobalRate:              rate.Every(10 * time.Millisecond),
		GlobalBurst:             100,
		ClassRate: map[MessageClass]rate.Limit{
			ClassBlock:       rate.Every(time.Second),
			ClassTransaction: rate.Every(100 * time.Millisecond),
			ClassDiscovery:   rate.Every(time.Second),
			ClassGeneral:     rate.Every(50 * time.Millisecond),
		},
		ClassBurst: map[MessageClass]int{
			ClassBlock:       100,
			ClassTransaction: 500,
			ClassDiscovery:   100,
			ClassGeneral:     1000,
		},
		ViolationsBeforeBan:     3,
		BanDuration:             5 * time.Minute,
		CircuitBreakerThreshold: 0.5,
		CircuitBreakerTimeout:   30 * time.Second,
		CircuitBreakerWindow:    100,
	}
}

// ErrRateLimited and ErrIPBanned are returned by Limiter.Allow.
type ErrRateLimited struct{ IP net.IP }

func (e *ErrRateLimited) Error() string { return fmt.Sprintf("p2pd: rate limit exceeded for %s", e.IP) }

type ErrIPBanned struct {
	IP        net.IP
	ExpiresAt time.Time
}

func (e *ErrIPBanned) Error() string {
	return fmt.Sprintf("p2pd: %s is banned until %s", e.IP, e.ExpiresAt.Format(time.RFC3339))
}

var ErrCircuitOpen = fmt.Errorf("p2pd: circuit breaker is open")

type ipState struct {
	limiter     *rate.Limiter
	violations  int
	bannedUntil time.Time
	backoff     time.Duration
}

type window struct {
	total    int
	rejected int
}

// Limiter implements layered per-IP/per-subnet/global token buckets
// with ban-on-violation and a rejection-ratio circuit breaker,
// grounded on rate_limiter_tests.rs's semantics and built on
// golang.org/x/time/rate the way bsv-blockchain-teranode's worker pool
// uses it for its own outbound throttling.
type Limiter struct {
	mu sync.Mutex

	config RateLimitConfig

	ipStates     map[string]*ipState
	subnetLimits map[string]*rate.Limiter
	classLimits  map[MessageClass]*rate.Limiter
	global       *rate.Limiter

	window       window
	circuitUntil time.Time
}

// NewLimiter constructs a Limiter from config.
func NewLimiter(config RateLimitConfig) *Limiter {
	classLimits := make(map[MessageClass]*rate.Limiter, len(config.ClassRate))
	for class, limit := range config.ClassRate {
		classLimits[class] = rate.NewLimiter(limit, config.ClassBurst[class])
	}
	return &Limiter{
		config:       config,
		ipStates:     make(map[string]*ipState),
		subnetLimits: make(map[string]*rate.Limiter),
		classLimits:  classLimits,
		global:       rate.NewLimiter(config.GlobalRate, config.GlobalBurst),
	}
}

func (l *Limiter) stateFor(ip net.IP) *ipState {
	key := ip.String()
	s, ok := l.ipStates[key]
	if !ok {
		s = &ipState{limiter: rate.NewLimiter(l.config.PerIPRate, l.config.PerIPBurst)}
		l.ipStates[key] = s
	}
	return s
}

func (l *Limiter) subnetLimiter(ip net.IP) *rate.Limiter {
	key := SubnetKey(ip)
	lim, ok := l.subnetLimits[key]
	if !ok {
		lim = rate.NewLimiter(l.config.PerSubnetRate, l.config.PerSubnetBurst)
		l.subnetLimits[key] = lim
	}
	return lim
}

// Allow admits one message of class from ip at now, applying every layer
// of the limiter in order: circuit breaker, ban, per-IP, per-subnet,
// per-class, global. A rejection at any layer after the ban check counts
// toward ip's violations and is recorded in the circuit breaker's window.
func (l *Limiter) Allow(ip net.IP, class MessageClass, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.config.CircuitBreakerThreshold > 0 && now.Before(l.circuitUntil) {
		return ErrCircuitOpen
	}

	state := l.stateFor(ip)
	if now.Before(state.bannedUntil) {
		return &ErrIPBanned{IP: ip, ExpiresAt: state.bannedUntil}
	}

	ok := state.limiter.AllowN(now, 1) &&
		l.subnetLimiter(ip).AllowN(now, 1) &&
		l.classLimiter(class).AllowN(now, 1) &&
		l.global.AllowN(now, 1)

	l.recordWindow(ok, now)

	if ok {
		return nil
	}

	state.violations++
	if state.violations >= l.config.ViolationsBeforeBan {
		if state.backoff == 0 {
			state.backoff = l.config.BanDuration
		} else {
			state.backoff *= 2
		}
		state.bannedUntil = now.Add(state.backoff)
		state.violations = 0
	}
	return &ErrRateLimited{IP: ip}
}

func (l *Limiter) classLimiter(class MessageClass) *rate.Limiter {
	if lim, ok := l.classLimits[class]; ok {
		return lim
	}
	lim := rate.NewLimiter(rate.Inf, 0)
	l.classLimits[class] = lim
	return lim
}

func (l *Limiter) recordWindow(ok bool, now time.Time) {
	if l.config.CircuitBreakerThreshold <= 0 {
		return
	}
	l.window.total++
	if !ok {
		l.window.rejected++
	}
	if l.window.total < l.config.CircuitBreakerWindow {
		return
	}
	ratio := float64(l.window.rejected) / float64(l.window.total)
	if ratio >= l.config.CircuitBreakerThreshold {
		l.circuitUntil = now.Add(l.config.CircuitBreakerTimeout)
	}
	l.window = window{}
}

// IsBanned reports whether ip is currently banned.
func (l *Limiter) IsBanned(ip net.IP, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	state, ok := l.ipStates[ip.String()]
	return ok && now.Before(state.bannedUntil)
}
