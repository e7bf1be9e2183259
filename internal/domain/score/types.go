package score

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/imarises/TrustScore-FHE/internal/fhe"
)

var (
	ErrNoLoanRecords   = errors.New("no_loan_records")
	ErrNotComputed     = errors.New("score_not_computed")
	ErrAlreadyVerified = errors.New("already_verified")
)

// UnverifiedError names the first unverified loan index for diagnostics.
type UnverifiedError struct {
	Index int32
}

func (e *UnverifiedError) Error() string {
	return fmt.Sprintf("unverified_repayments: index %d", e.Index)
}

// Entity is the single current trust score per user. Recomputation replaces
// the row wholesale, verification state included.
type Entity struct {
	User           string
	EncryptedScore fhe.Handle
	IsVerified     bool
	ClearScore     int64
	LoanCount      int32
	ComputedAt     time.Time
	UpdatedAt      time.Time
}

type UpsertInput struct {
	User           string
	EncryptedScore fhe.Handle
	LoanCount      int32
}

type Repository interface {
	// Upsert replaces the user's score row, resetting is_verified and the
	// clear value.
	Upsert(ctx context.Context, in UpsertInput) (*Entity, error)
	GetByUser(ctx context.Context, user string) (*Entity, error)
	// MarkVerified has the same guard semantics as the loan ledger's.
	MarkVerified(ctx context.Context, user string, clearValue int64) error
}
