package attest

import (
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/imarises/TrustScore-FHE/internal/fhe"
)

// Envelope is the wire form of a decryption attestation: an ed25519
// signature over the canonical hash of (handles, clear blob).
type Envelope struct {
	Version     string `json:"version"`
	Algorithm   string `json:"algorithm"`
	PublicKey   string `json:"public_key"`
	Signature   string `json:"signature"`
	PayloadHash string `json:"payload_hash"`
	IssuedAt    string `json:"issued_at"`
}

const envelopeVersion = "attest-v1"

// canonicalHash fixes the byte layout the signature covers: each handle on
// its own line, then the clear blob hex, SHA-256 over the whole.
func canonicalHash(handles []fhe.Handle, clear []byte) []byte {
	var b strings.Builder
	for _, h := range handles {
		b.WriteString(string(h))
		b.WriteString("\n")
	}
	b.WriteString(hex.EncodeToString(clear))
	sum := sha256.Sum256([]byte(b.String()))
	return sum[:]
}

func signEnvelope(priv ed25519.PrivateKey, handles []fhe.Handle, clear []byte, issuedAt time.Time) ([]byte, error) {
	digest := canonicalHash(handles, clear)
	sig := ed25519.Sign(priv, digest)
	env := Envelope{
		Version:     envelopeVersion,
		Algorithm:   "ed25519",
		PublicKey:   base64.StdEncoding.EncodeToString(priv.Public().(ed25519.PublicKey)),
		Signature:   base64.StdEncoding.EncodeToString(sig),
		PayloadHash: hex.EncodeToString(digest),
		IssuedAt:    issuedAt.UTC().Format(time.RFC3339Nano),
	}
	return json.Marshal(env)
}

func verifyEnvelope(trusted ed25519.PublicKey, handles []fhe.Handle, clear, proof []byte) bool {
	var env Envelope
	if err := json.Unmarshal(proof, &env); err != nil {
		return false
	}
	if strings.TrimSpace(env.Version) != envelopeVersion {
		return false
	}
	if strings.ToLower(strings.TrimSpace(env.Algorithm)) != "ed25519" {
		return false
	}

	digest := canonicalHash(handles, clear)
	claimed, err := hex.DecodeString(strings.TrimSpace(env.PayloadHash))
	if err != nil || subtle.ConstantTimeCompare(digest, claimed) != 1 {
		return false
	}

	pub, err := base64.StdEncoding.DecodeString(strings.TrimSpace(env.PublicKey))
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false
	}
	if trusted != nil && subtle.ConstantTimeCompare(trusted, pub) != 1 {
		return false
	}
	sig, err := base64.StdEncoding.DecodeString(strings.TrimSpace(env.Signature))
	if err != nil {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), digest, sig)
}
