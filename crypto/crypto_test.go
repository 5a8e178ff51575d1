package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/supernova-chain/supernova/chainhash"
)

func digestOf(s string) chainhash.Hash {
	return chainhash.HashH([]byte(s))
}

func TestSecp256k1SignVerify(t *testing.T) {
	raw := make([]byte, 32)
	raw[31] = 0x01
	signer, err := NewSecp256k1Signer(raw)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	digest := digestOf("hello")
	sig, err := signer.Sign(digest)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	ok, err := Verify(signer.PublicKey(), digest, sig)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("expected valid signature to verify")
	}

	wrongDigest := digestOf("goodbye")
	ok, err = Verify(signer.PublicKey(), wrongDigest, sig)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatal("expected signature over different digest to fail")
	}
}

func TestEd25519SignVerify(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	signer, err := NewEd25519Signer(priv)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	digest := digestOf("message")
	sig, err := signer.Sign(digest)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	ok, err := Verify(signer.PublicKey(), digest, sig)
	if err != nil || !ok {
		t.Fatalf("expected valid signature, got ok=%v err=%v", ok, err)
	}
}

func TestLamportSignVerify(t *testing.T) {
	seed := []byte("deterministic-seed-material-0001")
	signer, err := NewFalconSigner(SchemeFalcon512, seed)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	digest := digestOf("swap-preimage")
	sig, err := signer.Sign(digest)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	ok, err := Verify(signer.PublicKey(), digest, sig)
	if err != nil || !ok {
		t.Fatalf("expected valid signature, got ok=%v err=%v", ok, err)
	}

	tampered := digestOf("different-message")
	ok, err = Verify(signer.PublicKey(), tampered, sig)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatal("expected one-time signature to fail against a different digest")
	}
}

func TestHybridRequiresBothSignatures(t *testing.T) {
	rawSecp := make([]byte, 32)
	rawSecp[31] = 0x02
	secp, err := NewSecp256k1Signer(rawSecp)
	if err != nil {
		t.Fatalf("secp signer: %v", err)
	}
	sphincs, err := NewSphincsSigner(SchemeSphincs128f, []byte("hybrid-seed-material"))
	if err != nil {
		t.Fatalf("sphincs signer: %v", err)
	}
	hybrid := NewHybridSigner(secp, sphincs)

	digest := digestOf("hybrid-message")
	sig, err := hybrid.Sign(digest)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	ok, err := Verify(hybrid.PublicKey(), digest, sig)
	if err != nil || !ok {
		t.Fatalf("expected valid hybrid signature, got ok=%v err=%v", ok, err)
	}

	scheme1, raw1, scheme2, raw2, err := unpackHybrid(sig.Raw)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	// Corrupt only the second (PQ) component; the hybrid verify must fail
	// even though the first component alone remains valid.
	raw2[0] ^= 0xff
	corrupted := packHybrid(scheme1, raw1, scheme2, raw2)
	ok, err = Verify(hybrid.PublicKey(), digest, Signature{Scheme: SchemeHybrid, Raw: corrupted})
	if err != nil {
		t.Fatalf("verify corrupted: %v", err)
	}
	if ok {
		t.Fatal("expected hybrid verification to fail when either component is invalid")
	}
}

func TestAddressRoundTrip(t *testing.T) {
	raw := make([]byte, 32)
	raw[0] = 0x9
	signer, err := NewSecp256k1Signer(raw)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	pub := signer.PublicKey()
	addr, err := AddressFromPubKey("test", pub)
	if err != nil {
		t.Fatalf("address: %v", err)
	}
	ok, err := VerifyAddress(addr, pub)
	if err != nil {
		t.Fatalf("verify address: %v", err)
	}
	if !ok {
		t.Fatal("expected address to verify against its own public key")
	}
}

func TestParseSchemeRoundTripsString(t *testing.T) {
	schemes := []Scheme{
		SchemeSecp256k1, SchemeEd25519, SchemeDilithium2, SchemeDilithium3,
		SchemeDilithium5, SchemeFalcon512, SchemeFalcon1024, SchemeSphincs128f,
		SchemeSphincs256f, SchemeHybrid,
	}
	for _, s := range schemes {
		parsed, err := ParseScheme(s.String())
		if err != nil {
			t.Fatalf("ParseScheme(%s): %v", s, err)
		}
		if parsed != s {
			t.Fatalf("ParseScheme(%s) = %v, want %v", s, parsed, s)
		}
	}
}

func TestParseSchemeRejectsUnknownName(t *testing.T) {
	if _, err := ParseScheme("rot13"); err == nil {
		t.Fatal("expected error for unknown scheme name")
	}
}
