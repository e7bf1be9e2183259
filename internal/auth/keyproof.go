package auth

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
)

// Login proves possession of an account key: an ed25519 signature over a
// timestamped payload bound to the claimed wallet address. The address must
// itself be derived from the key, so a proof cannot be re-bound.

var (
	ErrInvalidProof     = errors.New("invalid_login_proof")
	ErrProofExpired     = errors.New("login_proof_expired")
	ErrAddressMismatch  = errors.New("wallet_address_mismatch")
	ErrInvalidPublicKey = errors.New("invalid_public_key")
)

type LoginProof struct {
	Wallet    string `json:"wallet"`
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
	IssuedAt  string `json:"issued_at"`
}

// WalletAddress derives the on-ledger address for a public key: the low 20
// bytes of its keccak-256 digest, 0x-hex.
func WalletAddress(pub ed25519.PublicKey) string {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(pub)
	sum := h.Sum(nil)
	return "0x" + hex.EncodeToString(sum[12:])
}

func loginPayload(wallet, issuedAt string) []byte {
	return []byte("trustscore-login\n" + strings.ToLower(strings.TrimSpace(wallet)) + "\n" + issuedAt)
}

// VerifyLoginProof validates the proof and returns the canonical wallet
// address. maxSkew bounds how stale (or future-dated) the proof may be.
func VerifyLoginProof(proof LoginProof, now time.Time, maxSkew time.Duration) (string, error) {
	issuedAt, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(proof.IssuedAt))
	if err != nil {
		return "", ErrInvalidProof
	}
	age := now.Sub(issuedAt)
	if age > maxSkew || age < -maxSkew {
		return "", ErrProofExpired
	}

	pubRaw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(proof.PublicKey))
	if err != nil || len(pubRaw) != ed25519.PublicKeySize {
		return "", ErrInvalidPublicKey
	}
	pub := ed25519.PublicKey(pubRaw)

	wallet := strings.ToLower(strings.TrimSpace(proof.Wallet))
	if wallet != WalletAddress(pub) {
		return "", ErrAddressMismatch
	}

	sig, err := base64.StdEncoding.DecodeString(strings.TrimSpace(proof.Signature))
	if err != nil {
		return "", ErrInvalidProof
	}
	if !ed25519.Verify(pub, loginPayload(wallet, strings.TrimSpace(proof.IssuedAt)), sig) {
		return "", ErrInvalidProof
	}
	return wallet, nil
}

// SignLoginProof builds a proof for the given key. Client-side helper,
// mirrored by tests.
func SignLoginProof(priv ed25519.PrivateKey, issuedAt time.Time) LoginProof {
	pub := priv.Public().(ed25519.PublicKey)
	wallet := WalletAddress(pub)
	ts := issuedAt.UTC().Format(time.RFC3339Nano)
	sig := ed25519.Sign(priv, loginPayload(wallet, ts))
	return LoginProof{
		Wallet:    wallet,
		PublicKey: base64.StdEncoding.EncodeToString(pub),
		Signature: base64.StdEncoding.EncodeToString(sig),
		IssuedAt:  ts,
	}
}
