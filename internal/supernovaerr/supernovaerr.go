// Package supernovaerr maps each subsystem's own domain error type to the
// {code, message, details} envelope used at RPC and logging boundaries.
// It never replaces a subsystem's error type; callers inside the node
// keep handling validate.RuleError, storage.Error, mempool.Error, htlc's
// sentinels, p2pd's sentinels, and crypto's errors directly. Grounded on
// daglabs-btcd's use of github.com/pkg/errors for stack-trace causes
// throughout blockdag and domain/consensus.
package supernovaerr

import (
	"github.com/pkg/errors"

	"github.com/supernova-chain/supernova/chainstate"
	"github.com/supernova-chain/supernova/consensus"
	"github.com/supernova-chain/supernova/crypto"
	"github.com/supernova-chain/supernova/htlc"
	"github.com/supernova-chain/supernova/mempool"
	"github.com/supernova-chain/supernova/p2pd"
	"github.com/supernova-chain/supernova/storage"
	"github.com/supernova-chain/supernova/validate"
)

// HTTPStatus names one of the status-like codes RPC responses carry.
type HTTPStatus int

const (
	StatusBadRequest  HTTPStatus = 400
	StatusNotFound    HTTPStatus = 404
	StatusConflict    HTTPStatus = 409
	StatusTooManyReqs HTTPStatus = 429
	StatusInternal    HTTPStatus = 500
	StatusUnavailable HTTPStatus = 503
)

// Envelope is the wire shape of every RPC error response.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Wrap classifies err against every subsystem error type this node
// defines and returns the envelope an RPC handler should write. An
// unrecognized error is always a 500: better to surface an internal
// error than to silently mislabel the cause of a failure we don't
// understand.
func Wrap(err error) Envelope {
	if err == nil {
		return Envelope{Code: int(StatusInternal), Message: "no error"}
	}

	var storageErr *storage.Error
	if errors.As(err, &storageErr) {
		return wrapStorage(storageErr)
	}

	var ruleErr validate.RuleError
	if errors.As(err, &ruleErr) {
		return Envelope{Code: int(StatusBadRequest), Message: "validation failed", Details: ruleErr.Error()}
	}

	var mempoolErr *mempool.Error
	if errors.As(err, &mempoolErr) {
		return wrapMempool(mempoolErr)
	}

	if env, ok := wrapHTLC(err); ok {
		return env
	}

	if env, ok := wrapP2P(err); ok {
		return env
	}

	if env, ok := wrapCrypto(err); ok {
		return env
	}

	switch {
	case errors.Is(err, chainstate.ErrOrphanBlock):
		return Envelope{Code: int(StatusNotFound), Message: "parent block not known", Details: err.Error()}
	case errors.Is(err, chainstate.ErrReorgTooDeep):
		return Envelope{Code: int(StatusConflict), Message: "reorganization exceeds maximum depth", Details: err.Error()}
	}

	var timeWarp *consensus.ErrTimeWarp
	if errors.As(err, &timeWarp) {
		return Envelope{Code: int(StatusBadRequest), Message: "timestamp does not exceed median time past", Details: err.Error()}
	}

	return Envelope{Code: int(StatusInternal), Message: "internal error", Details: err.Error()}
}

func wrapStorage(e *storage.Error) Envelope {
	switch e.Code {
	case storage.ErrNotFound:
		return Envelope{Code: int(StatusNotFound), Message: "not found", Details: e.Error()}
	case storage.ErrCorruption, storage.ErrIO:
		return Envelope{Code: int(StatusUnavailable), Message: "storage unavailable", Details: e.Error()}
	default:
		return Envelope{Code: int(StatusInternal), Message: "storage error", Details: e.Error()}
	}
}

func wrapMempool(e *mempool.Error) Envelope {
	switch e.Code {
	case mempool.ErrDuplicateTransaction, mempool.ErrDoubleSpend:
		return Envelope{Code: int(StatusConflict), Message: "transaction conflict", Details: e.Error()}
	case mempool.ErrPoolFull:
		return Envelope{Code: int(StatusTooManyReqs), Message: "mempool full", Details: e.Error()}
	default:
		return Envelope{Code: int(StatusBadRequest), Message: "transaction rejected", Details: e.Error()}
	}
}

func wrapHTLC(err error) (Envelope, bool) {
	switch {
	case errors.Is(err, htlc.ErrSwapNotFound):
		return Envelope{Code: int(StatusNotFound), Message: "swap not found", Details: err.Error()}, true
	case errors.Is(err, htlc.ErrSwapAlreadyExists),
		errors.Is(err, htlc.ErrAlreadyTerminal),
		errors.Is(err, htlc.ErrInvalidStateTransition):
		return Envelope{Code: int(StatusConflict), Message: "swap state conflict", Details: err.Error()}, true
	case errors.Is(err, htlc.ErrInvalidPreimage),
		errors.Is(err, htlc.ErrInvalidSignature),
		errors.Is(err, htlc.ErrTimeoutNotReached),
		errors.Is(err, htlc.ErrClaimWindowExpired),
		errors.Is(err, htlc.ErrInvalidTimeout),
		errors.Is(err, htlc.ErrInvalidAmount):
		return Envelope{Code: int(StatusBadRequest), Message: "swap operation rejected", Details: err.Error()}, true
	case errors.Is(err, htlc.ErrChainReorganization):
		return Envelope{Code: int(StatusConflict), Message: "counterparty chain reorganized", Details: err.Error()}, true
	}
	return Envelope{}, false
}

func wrapP2P(err error) (Envelope, bool) {
	var rateLimited *p2pd.ErrRateLimited
	var banned *p2pd.ErrIPBanned
	switch {
	case errors.As(err, &rateLimited), errors.Is(err, p2pd.ErrCircuitOpen):
		return Envelope{Code: int(StatusTooManyReqs), Message: "rate limited", Details: err.Error()}, true
	case errors.As(err, &banned):
		return Envelope{Code: int(StatusTooManyReqs), Message: "peer is banned", Details: err.Error()}, true
	case errors.Is(err, p2pd.ErrAtCapacity):
		return Envelope{Code: int(StatusUnavailable), Message: "connection capacity reached", Details: err.Error()}, true
	case errors.Is(err, p2pd.ErrUnknownPeer):
		return Envelope{Code: int(StatusNotFound), Message: "unknown peer", Details: err.Error()}, true
	}
	return Envelope{}, false
}

func wrapCrypto(err error) (Envelope, bool) {
	var unsupported *crypto.UnsupportedSchemeError
	if errors.As(err, &unsupported) {
		return Envelope{Code: int(StatusInternal), Message: "unsupported signature scheme", Details: err.Error()}, true
	}
	return Envelope{}, false
}
