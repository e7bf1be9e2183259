package attest

import (
	"context"
	"errors"

	"github.com/imarises/TrustScore-FHE/internal/fhe"
)

var (
	ErrDecryptionFailed = errors.New("decryption_failed")
	ErrInvalidProof     = errors.New("invalid_proof")
)

// Oracle is the decryption-attestation collaborator. Decrypt is a suspending
// out-of-process round-trip; Verify is the check commitDisclosure delegates
// to and must never be re-derived locally by callers.
type Oracle interface {
	// Decrypt returns the encoded cleartext of exactly the given handles plus
	// a proof binding the blob to them.
	Decrypt(ctx context.Context, handles []fhe.Handle) (clear []byte, proof []byte, err error)

	// Verify reports whether proof attests that clear is the correct
	// decryption of exactly handles.
	Verify(ctx context.Context, handles []fhe.Handle, clear, proof []byte) (bool, error)
}
