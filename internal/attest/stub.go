package attest

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/imarises/TrustScore-FHE/internal/fhe"
)

// Decryptor is the slice of the mock engine the stub oracle needs.
type Decryptor interface {
	Reveal(h fhe.Handle) (uint64, error)
}

// StubOracle decrypts through the mock engine and attests with a keypair it
// generates at construction. A single clear word is returned per request;
// multi-handle requests concatenate words in handle order.
type StubOracle struct {
	decryptor Decryptor
	priv      ed25519.PrivateKey
	pub       ed25519.PublicKey
	now       func() time.Time
}

func NewStubOracle(decryptor Decryptor) (*StubOracle, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &StubOracle{
		decryptor: decryptor,
		priv:      priv,
		pub:       pub,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (o *StubOracle) Decrypt(_ context.Context, handles []fhe.Handle) ([]byte, []byte, error) {
	if len(handles) == 0 {
		return nil, nil, fmt.Errorf("%w: no handles", ErrDecryptionFailed)
	}
	clear := make([]byte, 0, len(handles)*fhe.WordSize)
	for _, h := range handles {
		v, err := o.decryptor.Reveal(h)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", ErrDecryptionFailed, h)
		}
		clear = append(clear, fhe.EncodeWord(v)...)
	}
	proof, err := signEnvelope(o.priv, handles, clear, o.now())
	if err != nil {
		return nil, nil, err
	}
	return clear, proof, nil
}

func (o *StubOracle) Verify(_ context.Context, handles []fhe.Handle, clear, proof []byte) (bool, error) {
	return verifyEnvelope(o.pub, handles, clear, proof), nil
}
