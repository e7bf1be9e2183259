package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/imarises/TrustScore-FHE/internal/fhe"
)

var (
	ErrInvalidLoanAmount = errors.New("invalid_loan_amount")
	ErrIndexOutOfRange   = errors.New("index_out_of_range")
	ErrAlreadyVerified   = errors.New("already_verified")
)

// Record is one loan in a borrower's append-only sequence. ClearRepayment
// is meaningful only once IsVerified is true; verification is a one-way
// transition and the clear value is fixed permanently with it.
type Record struct {
	ID                 string
	Borrower           string
	Index              int32
	EncryptedRepayment fhe.Handle
	LoanAmount         int64
	DueDate            time.Time
	IsRepaid           bool
	IsVerified         bool
	ClearRepayment     int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type CreateInput struct {
	Borrower           string
	EncryptedRepayment fhe.Handle
	LoanAmount         int64
	DueDate            time.Time
}

type Repository interface {
	// Append inserts the record at the next index for its borrower and
	// returns the stored entity with the assigned index.
	Append(ctx context.Context, in CreateInput) (*Record, error)
	ListByBorrower(ctx context.Context, borrower string) ([]Record, error)
	GetByIndex(ctx context.Context, borrower string, index int32) (*Record, error)
	// MarkVerified flips the record verified and stores the clear repayment.
	// Returns ErrAlreadyVerified when the record is already verified and
	// ErrIndexOutOfRange when no such record exists. The transition and the
	// guard execute as one statement.
	MarkVerified(ctx context.Context, borrower string, index int32, clearValue int64) error
}
