package fhe

import (
	"context"
	"errors"
)

// Handle is an opaque reference to an encrypted integer. Handles are stable
// identifiers: every homomorphic operation yields a fresh handle and never
// touches its operands.
type Handle string

var (
	ErrInvalidCiphertext = errors.New("invalid_ciphertext")
	ErrUnknownHandle     = errors.New("unknown_handle")
	ErrDivisionByZero    = errors.New("division_by_zero")
)

// Arithmetic is the homomorphic engine capability used by the ledger core.
// Implementations must be safe for concurrent use.
type Arithmetic interface {
	// Encrypt trivially encrypts a public cleartext constant.
	Encrypt(ctx context.Context, value uint64) (Handle, error)

	Add(ctx context.Context, a, b Handle) (Handle, error)
	Mul(ctx context.Context, a, b Handle) (Handle, error)
	// Div performs encrypted integer division, truncating toward zero.
	Div(ctx context.Context, a, b Handle) (Handle, error)

	// FromExternalInput validates a caller-supplied ciphertext and its input
	// proof, returning a usable handle. Fails with ErrInvalidCiphertext when
	// the pair does not check out.
	FromExternalInput(ctx context.Context, ciphertext, proof []byte) (Handle, error)

	// TransportForm serializes a handle's ciphertext for submission to the
	// decryption oracle.
	TransportForm(ctx context.Context, h Handle) ([]byte, error)
}
