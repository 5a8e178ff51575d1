package htlc

import "github.com/pkg/errors"

// Error sentinels are grounded on the HTLCError/SwapError enum members of
// btclib/src/atomic_swap/error.rs (ErrClaimWindowExpired has no
// counterpart there, and ErrAlreadyTerminal merges two; see DESIGN.md),
// translated into Go sentinel values wrapped with github.com/pkg/errors at call sites that
// need extra context.
var (
	ErrInvalidPreimage        = errors.New("htlc: invalid hash preimage")
	ErrInvalidSignature       = errors.New("htlc: invalid signature")
	ErrTimeoutNotReached      = errors.New("htlc: timeout not reached")
	ErrClaimWindowExpired     = errors.New("htlc: claim window has expired")
	ErrAlreadyTerminal        = errors.New("htlc: already in a terminal state")
	ErrInvalidStateTransition = errors.New("htlc: invalid state transition")
	ErrInvalidTimeout         = errors.New("htlc: invalid timeout configuration")
	ErrInvalidAmount          = errors.New("htlc: invalid amount")
	ErrSwapNotFound           = errors.New("htlc: swap not found")
	ErrSwapAlreadyExists      = errors.New("htlc: swap already exists")
	ErrChainReorganization    = errors.New("htlc: chain reorganization detected")
)
