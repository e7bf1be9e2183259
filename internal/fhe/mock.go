package fhe

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync"

	"golang.org/x/crypto/sha3"
)

// MockEngine performs plain integer arithmetic behind opaque handles. It
// keeps the same external contract as a real coprocessor: handles are
// keccak-derived, external inputs carry a proof, ciphertexts never reveal
// their value through the Arithmetic interface. Used by tests and by the
// stub oracle, which decrypts through Reveal.
type MockEngine struct {
	mu     sync.Mutex
	values map[Handle]uint64
	nonce  uint64
}

func NewMockEngine() *MockEngine {
	return &MockEngine{values: map[Handle]uint64{}}
}

func (e *MockEngine) Encrypt(_ context.Context, value uint64) (Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store(value), nil
}

func (e *MockEngine) Add(_ context.Context, a, b Handle) (Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	va, vb, err := e.operands(a, b)
	if err != nil {
		return "", err
	}
	return e.store(va + vb), nil
}

func (e *MockEngine) Mul(_ context.Context, a, b Handle) (Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	va, vb, err := e.operands(a, b)
	if err != nil {
		return "", err
	}
	return e.store(va * vb), nil
}

// Div truncates toward zero. Operands are non-negative throughout the
// ledger, so this matches floor division.
func (e *MockEngine) Div(_ context.Context, a, b Handle) (Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	va, vb, err := e.operands(a, b)
	if err != nil {
		return "", err
	}
	if vb == 0 {
		return "", ErrDivisionByZero
	}
	return e.store(va / vb), nil
}

// FromExternalInput expects the ciphertext to be a 32-byte word and the
// proof to be its keccak-256 digest.
func (e *MockEngine) FromExternalInput(_ context.Context, ciphertext, proof []byte) (Handle, error) {
	value, err := DecodeWord(ciphertext)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	if hex.EncodeToString(InputProof(ciphertext)) != hex.EncodeToString(proof) {
		return "", ErrInvalidCiphertext
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store(value), nil
}

func (e *MockEngine) TransportForm(_ context.Context, h Handle) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.values[h]
	if !ok {
		return nil, ErrUnknownHandle
	}
	return EncodeWord(v), nil
}

// Reveal exposes the underlying cleartext to the stub oracle. Not part of
// the Arithmetic interface.
func (e *MockEngine) Reveal(h Handle) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.values[h]
	if !ok {
		return 0, ErrUnknownHandle
	}
	return v, nil
}

func (e *MockEngine) operands(a, b Handle) (uint64, uint64, error) {
	va, ok := e.values[a]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s", ErrUnknownHandle, a)
	}
	vb, ok := e.values[b]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s", ErrUnknownHandle, b)
	}
	return va, vb, nil
}

// store must be called with the mutex held.
func (e *MockEngine) store(value uint64) Handle {
	e.nonce++
	var seed [16]byte
	binary.BigEndian.PutUint64(seed[:8], e.nonce)
	binary.BigEndian.PutUint64(seed[8:], value)

	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte("fhe-handle:"))
	_, _ = h.Write(seed[:])
	handle := Handle("0x" + hex.EncodeToString(h.Sum(nil)))
	e.values[handle] = value
	return handle
}

// InputProof computes the proof the mock engine expects for an external
// ciphertext. Client-side helper, mirrored by tests.
func InputProof(ciphertext []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte("fhe-input:"))
	_, _ = h.Write(ciphertext)
	return h.Sum(nil)
}
