package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"
)

func testKey(t *testing.T) ed25519.PrivateKey {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return priv
}

func TestVerifyLoginProofRoundtrip(t *testing.T) {
	priv := testKey(t)
	now := time.Now().UTC()

	proof := SignLoginProof(priv, now)
	wallet, err := VerifyLoginProof(proof, now, 5*time.Minute)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if wallet != WalletAddress(priv.Public().(ed25519.PublicKey)) {
		t.Fatalf("unexpected wallet %s", wallet)
	}
	if !strings.HasPrefix(wallet, "0x") || len(wallet) != 42 {
		t.Fatalf("expected 20-byte 0x-hex address, got %s", wallet)
	}
}

func TestVerifyLoginProofSkew(t *testing.T) {
	priv := testKey(t)
	now := time.Now().UTC()

	stale := SignLoginProof(priv, now.Add(-10*time.Minute))
	if _, err := VerifyLoginProof(stale, now, 5*time.Minute); !errors.Is(err, ErrProofExpired) {
		t.Fatalf("expected login_proof_expired for stale proof, got %v", err)
	}

	future := SignLoginProof(priv, now.Add(10*time.Minute))
	if _, err := VerifyLoginProof(future, now, 5*time.Minute); !errors.Is(err, ErrProofExpired) {
		t.Fatalf("expected login_proof_expired for future proof, got %v", err)
	}
}

func TestVerifyLoginProofRejectsRebinding(t *testing.T) {
	priv := testKey(t)
	other := testKey(t)
	now := time.Now().UTC()

	// Claiming someone else's wallet with your own key fails the address
	// derivation check.
	proof := SignLoginProof(priv, now)
	proof.Wallet = WalletAddress(other.Public().(ed25519.PublicKey))
	if _, err := VerifyLoginProof(proof, now, 5*time.Minute); !errors.Is(err, ErrAddressMismatch) {
		t.Fatalf("expected wallet_address_mismatch, got %v", err)
	}

	// Swapping in another key's signature fails verification.
	proof = SignLoginProof(priv, now)
	proof.Signature = SignLoginProof(other, now).Signature
	if _, err := VerifyLoginProof(proof, now, 5*time.Minute); !errors.Is(err, ErrInvalidProof) {
		t.Fatalf("expected invalid_login_proof, got %v", err)
	}
}

func TestVerifyLoginProofMalformedFields(t *testing.T) {
	priv := testKey(t)
	now := time.Now().UTC()

	proof := SignLoginProof(priv, now)
	proof.IssuedAt = "yesterday"
	if _, err := VerifyLoginProof(proof, now, 5*time.Minute); !errors.Is(err, ErrInvalidProof) {
		t.Fatalf("expected invalid_login_proof for bad timestamp, got %v", err)
	}

	proof = SignLoginProof(priv, now)
	proof.PublicKey = "bm90LWEta2V5"
	if _, err := VerifyLoginProof(proof, now, 5*time.Minute); !errors.Is(err, ErrInvalidPublicKey) {
		t.Fatalf("expected invalid_public_key, got %v", err)
	}
}

func TestVerifyLoginProofCaseInsensitiveWallet(t *testing.T) {
	priv := testKey(t)
	now := time.Now().UTC()

	proof := SignLoginProof(priv, now)
	proof.Wallet = strings.ToUpper(proof.Wallet[:2]) + strings.ToUpper(proof.Wallet[2:])
	wallet, err := VerifyLoginProof(proof, now, 5*time.Minute)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if wallet != strings.ToLower(proof.Wallet) {
		t.Fatalf("expected canonical lowercase wallet, got %s", wallet)
	}
}
