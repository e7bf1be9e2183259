package score

import (
	"context"

	"github.com/imarises/TrustScore-FHE/internal/domain/ledger"
	"github.com/imarises/TrustScore-FHE/internal/events"
	"github.com/imarises/TrustScore-FHE/internal/fhe"
)

type LoanLedger interface {
	GetLoans(ctx context.Context, borrower string) ([]ledger.Record, error)
}

type GrantManager interface {
	GrantSelfAccess(ctx context.Context, handle fhe.Handle) error
	GrantPublicDisclosure(ctx context.Context, handle fhe.Handle) error
}

type Service struct {
	repo     Repository
	loans    LoanLedger
	engine   fhe.Arithmetic
	grants   GrantManager
	eventLog events.Log
}

func NewService(repo Repository, loans LoanLedger, engine fhe.Arithmetic, grants GrantManager, eventLog events.Log) *Service {
	return &Service{repo: repo, loans: loans, engine: engine, grants: grants, eventLog: eventLog}
}

// ComputeScore averages the encrypted repayment ratios of a user's fully
// verified loans. Ratios are repayment*100/loan_amount in the encrypted
// domain and are deliberately not clamped: over-repayment yields a ratio
// above 100 and skews the average upward. Division truncates toward zero.
func (s *Service) ComputeScore(ctx context.Context, user string) (*Entity, error) {
	records, err := s.loans.GetLoans(ctx, user)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoLoanRecords
	}
	for _, rec := range records {
		if !rec.IsVerified {
			return nil, &UnverifiedError{Index: rec.Index}
		}
	}

	hundred, err := s.engine.Encrypt(ctx, 100)
	if err != nil {
		return nil, err
	}

	var sum fhe.Handle
	for i, rec := range records {
		scaled, err := s.engine.Mul(ctx, rec.EncryptedRepayment, hundred)
		if err != nil {
			return nil, err
		}
		denom, err := s.engine.Encrypt(ctx, uint64(rec.LoanAmount))
		if err != nil {
			return nil, err
		}
		ratio, err := s.engine.Div(ctx, scaled, denom)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			sum = ratio
			continue
		}
		sum, err = s.engine.Add(ctx, sum, ratio)
		if err != nil {
			return nil, err
		}
	}

	count, err := s.engine.Encrypt(ctx, uint64(len(records)))
	if err != nil {
		return nil, err
	}
	avg, err := s.engine.Div(ctx, sum, count)
	if err != nil {
		return nil, err
	}

	if err := s.grants.GrantSelfAccess(ctx, avg); err != nil {
		return nil, err
	}
	if err := s.grants.GrantPublicDisclosure(ctx, avg); err != nil {
		return nil, err
	}

	entity, err := s.repo.Upsert(ctx, UpsertInput{
		User:           user,
		EncryptedScore: avg,
		LoanCount:      int32(len(records)),
	})
	if err != nil {
		return nil, err
	}

	payload := events.Marshal(events.ScoreComputedPayload{
		User:      entity.User,
		Handle:    string(entity.EncryptedScore),
		LoanCount: entity.LoanCount,
	})
	if err := s.eventLog.Append(ctx, events.TypeScoreComputed, entity.User, payload); err != nil {
		return nil, err
	}
	return entity, nil
}

func (s *Service) GetScore(ctx context.Context, user string) (*Entity, error) {
	return s.repo.GetByUser(ctx, user)
}

// MarkVerified is the commit half of score disclosure. Only the disclosure
// protocol calls it.
func (s *Service) MarkVerified(ctx context.Context, user string, clearValue int64) error {
	if err := s.repo.MarkVerified(ctx, user, clearValue); err != nil {
		return err
	}
	payload := events.Marshal(events.ScoreVerifiedPayload{
		User:       user,
		ClearScore: clearValue,
	})
	return s.eventLog.Append(ctx, events.TypeScoreVerified, user, payload)
}
