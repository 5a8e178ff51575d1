// Package htlc implements the hash-time-locked-contract state machine
// and cross-chain monitor that back Bitcoin<->this-chain atomic swaps.
package htlc

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/looplab/fsm"

	"github.com/supernova-chain/supernova/chainhash"
	"github.com/supernova-chain/supernova/crypto"
)

// State names the four points in an HTLC's lifecycle.
type State string

const (
	StateCreated  State = "created"
	StateFunded   State = "funded"
	StateClaimed  State = "claimed"
	StateRefunded State = "refunded"
)

const (
	eventFund   = "fund"
	eventClaim  = "claim"
	eventRefund = "refund"
)

// TimeLock bounds when a claim may succeed and when a refund becomes
// available.
type TimeLock struct {
	AbsoluteTimeout uint64
	GracePeriod     uint64
}

// HTLC is a single hash-time-locked contract: pays Recipient if they
// reveal, before AbsoluteTimeout, a preimage hashing to HashLock;
// otherwise refunds Sender after AbsoluteTimeout+GracePeriod. State
// transitions are serialized per-instance by mu so a concurrent claim and
// refund resolve to exactly one winner, driven by github.com/looplab/fsm
// the way bsv-blockchain-teranode's blockchain server drives its own FSM.
type HTLC struct {
	mu sync.Mutex

	ID        uuid.UUID
	HashLock  chainhash.Hash
	TimeLock  TimeLock
	Amount    uint64
	Sender    crypto.PublicKey
	Recipient crypto.PublicKey
	Secret    *[32]byte

	machine *fsm.FSM
}

// New constructs an HTLC in the Created state. amount must be positive
// and timeLock.AbsoluteTimeout must be nonzero.
func New(id uuid.UUID, hashLock chainhash.Hash, timeLock TimeLock, amount uint64, sender, recipient crypto.PublicKey) (*HTLC, error) {
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	if timeLock.AbsoluteTimeout == 0 {
		return nil, ErrInvalidTimeout
	}

	h := &HTLC{
		ID:        id,
		HashLock:  hashLock,
		TimeLock:  timeLock,
		Amount:    amount,
		Sender:    sender,
		Recipient: recipient,
	}
	h.machine = fsm.NewFSM(string(StateCreated), fsm.Events{
		{Name: eventFund, Src: []string{string(StateCreated)}, Dst: string(StateFunded)},
		{Name: eventClaim, Src: []string{string(StateFunded)}, Dst: string(StateClaimed)},
		{Name: eventRefund, Src: []string{string(StateFunded)}, Dst: string(StateRefunded)},
	}, nil)
	return h, nil
}

// State returns the HTLC's current state.
func (h *HTLC) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return State(h.machine.Current())
}

// Fund transitions Created -> Funded, marking the contract's collateral
// as locked on-chain.
func (h *HTLC) Fund(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.machine.Event(ctx, eventFund); err != nil {
		return mapTransitionError(h.machine.Current(), err)
	}
	return nil
}

// ClaimDigest is the message Claim's signature must cover: the HTLC id
// bound to the revealed preimage, preventing a signature for one HTLC's
// claim from being replayed against another sharing the same preimage.
func ClaimDigest(id uuid.UUID, preimage [32]byte) chainhash.Hash {
	buf := make([]byte, 0, 16+32+len(eventClaim))
	buf = append(buf, id[:]...)
	buf = append(buf, preimage[:]...)
	buf = append(buf, []byte(eventClaim)...)
	return chainhash.HashH(buf)
}

// RefundDigest is the message Refund's signature must cover.
func RefundDigest(id uuid.UUID) chainhash.Hash {
	buf := make([]byte, 0, 16+len(eventRefund))
	buf = append(buf, id[:]...)
	buf = append(buf, []byte(eventRefund)...)
	return chainhash.HashH(buf)
}

// Claim transitions Funded -> Claimed. Valid iff the HTLC is Funded,
// H(preimage) equals HashLock, signature verifies against Recipient over
// ClaimDigest, and currentHeight is strictly before AbsoluteTimeout.
func (h *HTLC) Claim(ctx context.Context, preimage [32]byte, signature crypto.Signature, currentHeight uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.precheckLocked(); err != nil {
		return err
	}
	if chainhash.HashH(preimage[:]) != h.HashLock {
		return ErrInvalidPreimage
	}
	if currentHeight >= h.TimeLock.AbsoluteTimeout {
		return ErrClaimWindowExpired
	}
	ok, err := crypto.Verify(h.Recipient, ClaimDigest(h.ID, preimage), signature)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidSignature
	}

	if err := h.machine.Event(ctx, eventClaim); err != nil {
		return mapTransitionError(h.machine.Current(), err)
	}
	secret := preimage
	h.Secret = &secret
	return nil
}

// Refund transitions Funded -> Refunded. Valid iff the HTLC is Funded,
// currentHeight has reached AbsoluteTimeout+GracePeriod, and signature
// verifies against Sender over RefundDigest.
func (h *HTLC) Refund(ctx context.Context, signature crypto.Signature, currentHeight uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.precheckLocked(); err != nil {
		return err
	}
	if currentHeight < h.TimeLock.AbsoluteTimeout+h.TimeLock.GracePeriod {
		return ErrTimeoutNotReached
	}
	ok, err := crypto.Verify(h.Sender, RefundDigest(h.ID), signature)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidSignature
	}

	return mapTransitionError(h.machine.Current(), h.machine.Event(ctx, eventRefund))
}

func (h *HTLC) precheckLocked() error {
	switch State(h.machine.Current()) {
	case StateFunded:
		return nil
	case StateClaimed, StateRefunded:
		return ErrAlreadyTerminal
	default:
		return ErrInvalidStateTransition
	}
}

func mapTransitionError(current string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(fsm.InvalidEventError); ok {
		switch State(current) {
		case StateClaimed, StateRefunded:
			return ErrAlreadyTerminal
		default:
			return ErrInvalidStateTransition
		}
	}
	return ErrInvalidStateTransition
}
