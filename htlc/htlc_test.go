package htlc

import (
	"bytes"
	"context"
	"crypto/rand"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/supernova-chain/supernova/chainhash"
	"github.com/supernova-chain/supernova/crypto"
)

func newTestSigner(t *testing.T, seed byte) *crypto.Secp256k1Signer {
	t.Helper()
	raw := make([]byte, 32)
	raw[0] = seed
	raw[31] = 1
	signer, err := crypto.NewSecp256k1Signer(raw)
	if err != nil {
		t.Fatalf("NewSecp256k1Signer: %v", err)
	}
	return signer
}

func newTestHTLC(t *testing.T, sender, recipient *crypto.Secp256k1Signer, preimage [32]byte, timeout, grace uint64) *HTLC {
	t.Helper()
	hashLock := chainhash.HashH(preimage[:])
	h, err := New(uuid.New(), hashLock, TimeLock{AbsoluteTimeout: timeout, GracePeriod: grace}, 1000, sender.PublicKey(), recipient.PublicKey())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return h
}

func randomPreimage(t *testing.T) [32]byte {
	t.Helper()
	var p [32]byte
	if _, err := rand.Read(p[:]); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	return p
}

func TestHTLCClaimHappyPath(t *testing.T) {
	sender := newTestSigner(t, 1)
	recipient := newTestSigner(t, 2)
	preimage := randomPreimage(t)
	h := newTestHTLC(t, sender, recipient, preimage, 1000, 100)

	if err := h.Fund(context.Background()); err != nil {
		t.Fatalf("Fund: %v", err)
	}

	sig, err := recipient.Sign(ClaimDigest(h.ID, preimage))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := h.Claim(context.Background(), preimage, sig, 500); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if h.State() != StateClaimed {
		t.Fatalf("expected Claimed, got %v", h.State())
	}
	if h.Secret == nil || !bytes.Equal(h.Secret[:], preimage[:]) {
		t.Fatal("expected secret to be recorded")
	}
}

func TestHTLCClaimWrongPreimageFails(t *testing.T) {
	sender := newTestSigner(t, 1)
	recipient := newTestSigner(t, 2)
	preimage := randomPreimage(t)
	wrong := randomPreimage(t)
	h := newTestHTLC(t, sender, recipient, preimage, 1000, 100)
	_ = h.Fund(context.Background())

	sig, _ := recipient.Sign(ClaimDigest(h.ID, wrong))
	if err := h.Claim(context.Background(), wrong, sig, 500); err != ErrInvalidPreimage {
		t.Fatalf("expected ErrInvalidPreimage, got %v", err)
	}
}

func TestHTLCClaimAfterTimeoutFails(t *testing.T) {
	sender := newTestSigner(t, 1)
	recipient := newTestSigner(t, 2)
	preimage := randomPreimage(t)
	h := newTestHTLC(t, sender, recipient, preimage, 1000, 100)
	_ = h.Fund(context.Background())

	sig, _ := recipient.Sign(ClaimDigest(h.ID, preimage))
	if err := h.Claim(context.Background(), preimage, sig, 1000); err != ErrClaimWindowExpired {
		t.Fatalf("expected ErrClaimWindowExpired, got %v", err)
	}
}

func TestHTLCClaimWithWrongSignerFails(t *testing.T) {
	sender := newTestSigner(t, 1)
	recipient := newTestSigner(t, 2)
	impostor := newTestSigner(t, 3)
	preimage := randomPreimage(t)
	h := newTestHTLC(t, sender, recipient, preimage, 1000, 100)
	_ = h.Fund(context.Background())

	sig, _ := impostor.Sign(ClaimDigest(h.ID, preimage))
	if err := h.Claim(context.Background(), preimage, sig, 500); err != ErrInvalidSignature {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestHTLCRefundAfterTimeoutAndGrace(t *testing.T) {
	sender := newTestSigner(t, 1)
	recipient := newTestSigner(t, 2)
	preimage := randomPreimage(t)
	h := newTestHTLC(t, sender, recipient, preimage, 1000, 100)
	_ = h.Fund(context.Background())

	sig, err := sender.Sign(RefundDigest(h.ID))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := h.Refund(context.Background(), sig, 1100); err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if h.State() != StateRefunded {
		t.Fatalf("expected Refunded, got %v", h.State())
	}

	// Further claim attempts fail: terminal state.
	claimSig, _ := recipient.Sign(ClaimDigest(h.ID, preimage))
	if err := h.Claim(context.Background(), preimage, claimSig, 500); err != ErrAlreadyTerminal {
		t.Fatalf("expected ErrAlreadyTerminal, got %v", err)
	}
}

func TestHTLCRefundBeforeGraceFails(t *testing.T) {
	sender := newTestSigner(t, 1)
	recipient := newTestSigner(t, 2)
	preimage := randomPreimage(t)
	h := newTestHTLC(t, sender, recipient, preimage, 1000, 100)
	_ = h.Fund(context.Background())

	sig, _ := sender.Sign(RefundDigest(h.ID))
	if err := h.Refund(context.Background(), sig, 1050); err != ErrTimeoutNotReached {
		t.Fatalf("expected ErrTimeoutNotReached, got %v", err)
	}
}

func TestHTLCCannotClaimBeforeFunding(t *testing.T) {
	sender := newTestSigner(t, 1)
	recipient := newTestSigner(t, 2)
	preimage := randomPreimage(t)
	h := newTestHTLC(t, sender, recipient, preimage, 1000, 100)

	sig, _ := recipient.Sign(ClaimDigest(h.ID, preimage))
	if err := h.Claim(context.Background(), preimage, sig, 500); err != ErrInvalidStateTransition {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestHTLCNewRejectsZeroAmountOrTimeout(t *testing.T) {
	sender := newTestSigner(t, 1)
	recipient := newTestSigner(t, 2)
	hashLock := chainhash.HashH([]byte("x"))

	if _, err := New(uuid.New(), hashLock, TimeLock{AbsoluteTimeout: 100}, 0, sender.PublicKey(), recipient.PublicKey()); err != ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := New(uuid.New(), hashLock, TimeLock{AbsoluteTimeout: 0}, 100, sender.PublicKey(), recipient.PublicKey()); err != ErrInvalidTimeout {
		t.Fatalf("expected ErrInvalidTimeout, got %v", err)
	}
}

// TestHTLCExclusivityUnderConcurrentClaimAndRefund exercises the
// exclusivity property: when a claim and a refund are raced against the
// same funded HTLC, exactly one transition wins.
func TestHTLCExclusivityUnderConcurrentClaimAndRefund(t *testing.T) {
	sender := newTestSigner(t, 1)
	recipient := newTestSigner(t, 2)
	preimage := randomPreimage(t)

	for i := 0; i < 50; i++ {
		h := newTestHTLC(t, sender, recipient, preimage, 1000, 0)
		_ = h.Fund(context.Background())

		claimSig, _ := recipient.Sign(ClaimDigest(h.ID, preimage))
		refundSig, _ := sender.Sign(RefundDigest(h.ID))

		var claimOK, refundOK bool
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			// Claim at 500 (< timeout) and refund at 1000 (timeout+grace)
			// each pass their own height check, so only the mutex and the
			// state check keep both from succeeding.
			claimOK = h.Claim(context.Background(), preimage, claimSig, 500) == nil
		}()
		go func() {
			defer wg.Done()
			refundOK = h.Refund(context.Background(), refundSig, 1000) == nil
		}()
		wg.Wait()

		if claimOK == refundOK {
			t.Fatalf("iteration %d: expected exactly one of claim/refund to succeed, got claimOK=%v refundOK=%v", i, claimOK, refundOK)
		}
	}
}

// TestHTLCDoubleClaimIsSerialized exercises the mutex's own correctness
// directly: two goroutines racing an identical, individually-valid
// Claim call must produce exactly one success.
func TestHTLCDoubleClaimIsSerialized(t *testing.T) {
	sender := newTestSigner(t, 1)
	recipient := newTestSigner(t, 2)
	preimage := randomPreimage(t)
	h := newTestHTLC(t, sender, recipient, preimage, 1000, 100)
	_ = h.Fund(context.Background())

	sig, _ := recipient.Sign(ClaimDigest(h.ID, preimage))

	var successes int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if h.Claim(context.Background(), preimage, sig, 500) == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly 1 successful claim out of 8 concurrent attempts, got %d", successes)
	}
}
