package fhe

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestMockEngineArithmetic(t *testing.T) {
	ctx := context.Background()
	e := NewMockEngine()

	a, err := e.Encrypt(ctx, 800)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	b, err := e.Encrypt(ctx, 100)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if a == b {
		t.Fatalf("expected distinct handles for distinct encryptions")
	}

	product, err := e.Mul(ctx, a, b)
	if err != nil {
		t.Fatalf("mul: %v", err)
	}
	denom, err := e.Encrypt(ctx, 1000)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	ratio, err := e.Div(ctx, product, denom)
	if err != nil {
		t.Fatalf("div: %v", err)
	}
	got, err := e.Reveal(ratio)
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if got != 80 {
		t.Fatalf("expected 800*100/1000 = 80, got %d", got)
	}

	// Operands stay intact after use.
	if v, _ := e.Reveal(a); v != 800 {
		t.Fatalf("operand mutated: %d", v)
	}
}

func TestMockEngineDivTruncates(t *testing.T) {
	ctx := context.Background()
	e := NewMockEngine()

	num, _ := e.Encrypt(ctx, 183)
	denom, _ := e.Encrypt(ctx, 3)
	h, err := e.Div(ctx, num, denom)
	if err != nil {
		t.Fatalf("div: %v", err)
	}
	if v, _ := e.Reveal(h); v != 61 {
		t.Fatalf("expected 183/3 = 61, got %d", v)
	}
}

func TestMockEngineDivByZero(t *testing.T) {
	ctx := context.Background()
	e := NewMockEngine()

	num, _ := e.Encrypt(ctx, 1)
	zero, _ := e.Encrypt(ctx, 0)
	if _, err := e.Div(ctx, num, zero); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected division_by_zero, got %v", err)
	}
}

func TestMockEngineUnknownHandle(t *testing.T) {
	ctx := context.Background()
	e := NewMockEngine()

	a, _ := e.Encrypt(ctx, 1)
	if _, err := e.Add(ctx, a, Handle("0xdeadbeef")); !errors.Is(err, ErrUnknownHandle) {
		t.Fatalf("expected unknown_handle, got %v", err)
	}
	if _, err := e.TransportForm(ctx, Handle("0xdeadbeef")); !errors.Is(err, ErrUnknownHandle) {
		t.Fatalf("expected unknown_handle, got %v", err)
	}
}

func TestMockEngineExternalInput(t *testing.T) {
	ctx := context.Background()
	e := NewMockEngine()

	ct := EncodeWord(750)
	h, err := e.FromExternalInput(ctx, ct, InputProof(ct))
	if err != nil {
		t.Fatalf("from external input: %v", err)
	}
	if !strings.HasPrefix(string(h), "0x") {
		t.Fatalf("expected 0x-prefixed handle, got %s", h)
	}
	if v, _ := e.Reveal(h); v != 750 {
		t.Fatalf("expected 750, got %d", v)
	}

	// Wrong proof is rejected.
	bad := InputProof(ct)
	bad[0] ^= 0xff
	if _, err := e.FromExternalInput(ctx, ct, bad); !errors.Is(err, ErrInvalidCiphertext) {
		t.Fatalf("expected invalid_ciphertext for bad proof, got %v", err)
	}

	// Short ciphertext is rejected before the proof check.
	if _, err := e.FromExternalInput(ctx, []byte{1, 2, 3}, nil); !errors.Is(err, ErrInvalidCiphertext) {
		t.Fatalf("expected invalid_ciphertext for short ciphertext, got %v", err)
	}
}

func TestMockEngineTransportForm(t *testing.T) {
	ctx := context.Background()
	e := NewMockEngine()

	h, _ := e.Encrypt(ctx, 42)
	ct, err := e.TransportForm(ctx, h)
	if err != nil {
		t.Fatalf("transport form: %v", err)
	}
	if !bytes.Equal(ct, EncodeWord(42)) {
		t.Fatalf("unexpected transport form: %x", ct)
	}
}

func TestWordCodec(t *testing.T) {
	w := EncodeWord(1234567890)
	if len(w) != WordSize {
		t.Fatalf("expected %d-byte word, got %d", WordSize, len(w))
	}
	v, err := DecodeWord(w)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v != 1234567890 {
		t.Fatalf("expected 1234567890, got %d", v)
	}

	if _, err := DecodeWord(w[:31]); !errors.Is(err, ErrMalformedWord) {
		t.Fatalf("expected malformed_clear_value for short word, got %v", err)
	}

	dirty := EncodeWord(1)
	dirty[0] = 0x01
	if _, err := DecodeWord(dirty); !errors.Is(err, ErrMalformedWord) {
		t.Fatalf("expected malformed_clear_value for dirty high bytes, got %v", err)
	}
}
