package fhe

import (
	"encoding/binary"
	"errors"
)

// Clear values travel as a single 32-byte big-endian word, ABI style. The
// low 8 bytes carry the integer; the rest must be zero.

const WordSize = 32

var ErrMalformedWord = errors.New("malformed_clear_value")

func EncodeWord(v uint64) []byte {
	out := make([]byte, WordSize)
	binary.BigEndian.PutUint64(out[WordSize-8:], v)
	return out
}

func DecodeWord(b []byte) (uint64, error) {
	if len(b) != WordSize {
		return 0, ErrMalformedWord
	}
	for _, x := range b[:WordSize-8] {
		if x != 0 {
			return 0, ErrMalformedWord
		}
	}
	return binary.BigEndian.Uint64(b[WordSize-8:]), nil
}
