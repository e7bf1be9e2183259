package disclosure

import (
	"errors"
	"fmt"
	"strings"

	"github.com/imarises/TrustScore-FHE/internal/fhe"
)

var (
	ErrNotDisclosable      = errors.New("not_disclosable")
	ErrAlreadyVerified     = errors.New("already_verified")
	ErrInvalidProof        = errors.New("invalid_proof")
	ErrProofMismatch       = errors.New("proof_mismatch")
	ErrMalformedClearValue = errors.New("malformed_clear_value")
	ErrUnknownTarget       = errors.New("unknown_target")
)

type TargetKind string

const (
	TargetLoan  TargetKind = "loan"
	TargetScore TargetKind = "score"
)

// Target names the ledger entity whose ciphertext is being disclosed.
// Principal is the borrower for loans, the score owner for scores.
type Target struct {
	Kind      TargetKind
	Principal string
	Index     int32
}

func LoanTarget(borrower string, index int32) Target {
	return Target{Kind: TargetLoan, Principal: borrower, Index: index}
}

func ScoreTarget(user string) Target {
	return Target{Kind: TargetScore, Principal: user}
}

func (t Target) Validate() error {
	if strings.TrimSpace(t.Principal) == "" {
		return ErrUnknownTarget
	}
	switch t.Kind {
	case TargetLoan:
		if t.Index < 0 {
			return ErrUnknownTarget
		}
		return nil
	case TargetScore:
		return nil
	default:
		return ErrUnknownTarget
	}
}

func (t Target) String() string {
	if t.Kind == TargetLoan {
		return fmt.Sprintf("loan:%s:%d", t.Principal, t.Index)
	}
	return fmt.Sprintf("score:%s", t.Principal)
}

// Ticket is the result of the read-only request phase: everything a caller
// needs to commit, and nothing was mutated to produce it.
type Ticket struct {
	ID         string
	Target     Target
	Handle     fhe.Handle
	Transport  []byte
	ClearValue []byte
	Proof      []byte
}
