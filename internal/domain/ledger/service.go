package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/imarises/TrustScore-FHE/internal/events"
	"github.com/imarises/TrustScore-FHE/internal/fhe"
)

type GrantManager interface {
	GrantSelfAccess(ctx context.Context, handle fhe.Handle) error
	GrantPublicDisclosure(ctx context.Context, handle fhe.Handle) error
}

type Service struct {
	repo     Repository
	engine   fhe.Arithmetic
	grants   GrantManager
	eventLog events.Log
}

func NewService(repo Repository, engine fhe.Arithmetic, grants GrantManager, eventLog events.Log) *Service {
	return &Service{repo: repo, engine: engine, grants: grants, eventLog: eventLog}
}

type CreateLoanInput struct {
	Borrower   string
	Ciphertext []byte
	InputProof []byte
	LoanAmount int64
	DueDate    time.Time
}

// CreateLoan validates the external ciphertext, appends the record, and
// grants the new handle self access plus public disclosure so a later
// verification is always possible.
func (s *Service) CreateLoan(ctx context.Context, in CreateLoanInput) (*Record, error) {
	if strings.TrimSpace(in.Borrower) == "" {
		return nil, fhe.ErrInvalidCiphertext
	}
	if in.LoanAmount <= 0 {
		return nil, ErrInvalidLoanAmount
	}

	handle, err := s.engine.FromExternalInput(ctx, in.Ciphertext, in.InputProof)
	if err != nil {
		return nil, err
	}

	if err := s.grants.GrantSelfAccess(ctx, handle); err != nil {
		return nil, err
	}
	if err := s.grants.GrantPublicDisclosure(ctx, handle); err != nil {
		return nil, err
	}

	rec, err := s.repo.Append(ctx, CreateInput{
		Borrower:           in.Borrower,
		EncryptedRepayment: handle,
		LoanAmount:         in.LoanAmount,
		DueDate:            in.DueDate,
	})
	if err != nil {
		return nil, err
	}

	payload := events.Marshal(events.LoanCreatedPayload{
		Borrower:   rec.Borrower,
		Index:      rec.Index,
		Handle:     string(rec.EncryptedRepayment),
		LoanAmount: rec.LoanAmount,
		DueDate:    rec.DueDate.UTC().Format(time.RFC3339),
	})
	if err := s.eventLog.Append(ctx, events.TypeLoanCreated, rec.Borrower, payload); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) GetLoans(ctx context.Context, borrower string) ([]Record, error) {
	return s.repo.ListByBorrower(ctx, borrower)
}

func (s *Service) GetLoan(ctx context.Context, borrower string, index int32) (*Record, error) {
	return s.repo.GetByIndex(ctx, borrower, index)
}

// MarkVerified is the commit half of repayment disclosure. Only the
// disclosure protocol calls it.
func (s *Service) MarkVerified(ctx context.Context, borrower string, index int32, clearValue int64) error {
	if err := s.repo.MarkVerified(ctx, borrower, index, clearValue); err != nil {
		return err
	}
	payload := events.Marshal(events.RepaymentVerifiedPayload{
		Borrower:       borrower,
		Index:          index,
		ClearRepayment: clearValue,
	})
	return s.eventLog.Append(ctx, events.TypeRepaymentVerified, borrower, payload)
}
