package disclosure

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/imarises/TrustScore-FHE/internal/attest"
	"github.com/imarises/TrustScore-FHE/internal/domain/ledger"
	"github.com/imarises/TrustScore-FHE/internal/domain/score"
	"github.com/imarises/TrustScore-FHE/internal/fhe"
)

type LoanLedger interface {
	GetLoan(ctx context.Context, borrower string, index int32) (*ledger.Record, error)
	MarkVerified(ctx context.Context, borrower string, index int32, clearValue int64) error
}

type ScoreLedger interface {
	GetScore(ctx context.Context, user string) (*score.Entity, error)
	MarkVerified(ctx context.Context, user string, clearValue int64) error
}

type GrantManager interface {
	IsDisclosable(ctx context.Context, handle fhe.Handle, principal string) (bool, error)
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, topic string, payload []byte) error
}

const (
	TopicDiscloseLoan  = "disclose_loan"
	TopicDiscloseScore = "disclose_score"
)

// Service implements the two-phase disclosure protocol. Request performs the
// suspending oracle round-trip without touching ledger state; Commit is the
// single atomic mutation, guarded by the target's verified flag. A crash or
// timeout between the two leaves the target sealed and safely retryable.
type Service struct {
	loans  LoanLedger
	scores ScoreLedger
	grants GrantManager
	engine fhe.Arithmetic
	oracle attest.Oracle
	outbox OutboxRepository
}

func NewService(loans LoanLedger, scores ScoreLedger, grants GrantManager, engine fhe.Arithmetic, oracle attest.Oracle, outbox OutboxRepository) *Service {
	return &Service{loans: loans, scores: scores, grants: grants, engine: engine, oracle: oracle, outbox: outbox}
}

// Request resolves the target's handle, checks the access grant for the
// requesting principal, and obtains (clear, proof) from the oracle. Pure
// read plus external call; cancellation needs no compensation.
func (s *Service) Request(ctx context.Context, target Target, requester string) (*Ticket, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	handle, verified, err := s.resolve(ctx, target)
	if err != nil {
		return nil, err
	}
	if verified {
		return nil, ErrAlreadyVerified
	}

	ok, err := s.grants.IsDisclosable(ctx, handle, requester)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotDisclosable
	}

	transport, err := s.engine.TransportForm(ctx, handle)
	if err != nil {
		return nil, err
	}
	clear, proof, err := s.oracle.Decrypt(ctx, []fhe.Handle{handle})
	if err != nil {
		return nil, err
	}

	return &Ticket{
		ID:         uuid.NewString(),
		Target:     target,
		Handle:     handle,
		Transport:  transport,
		ClearValue: clear,
		Proof:      proof,
	}, nil
}

// Commit validates the proof against the target's exact handle, decodes the
// clear value, and performs the one-way verified transition. The verified
// guard runs first so a replayed or racing commit fails before any oracle
// work; the mutation itself re-checks the guard atomically in storage.
func (s *Service) Commit(ctx context.Context, target Target, clearValue, proof []byte) error {
	if err := target.Validate(); err != nil {
		return err
	}
	handle, verified, err := s.resolve(ctx, target)
	if err != nil {
		return err
	}
	if verified {
		return ErrAlreadyVerified
	}

	ok, err := s.oracle.Verify(ctx, []fhe.Handle{handle}, clearValue, proof)
	if err != nil {
		return ErrInvalidProof
	}
	if !ok {
		return ErrProofMismatch
	}

	value, err := fhe.DecodeWord(clearValue)
	if err != nil {
		return ErrMalformedClearValue
	}

	switch target.Kind {
	case TargetLoan:
		err = s.loans.MarkVerified(ctx, target.Principal, target.Index, int64(value))
		if errors.Is(err, ledger.ErrAlreadyVerified) {
			return ErrAlreadyVerified
		}
		return err
	case TargetScore:
		err = s.scores.MarkVerified(ctx, target.Principal, int64(value))
		if errors.Is(err, score.ErrAlreadyVerified) {
			return ErrAlreadyVerified
		}
		return err
	default:
		return ErrUnknownTarget
	}
}

type QueuedDisclosure struct {
	Target    Target `json:"target"`
	Requester string `json:"requester"`
}

// Queue enqueues an asynchronous disclosure for the worker. Grant and state
// checks run up front so an unauthorized or redundant request fails at the
// API boundary rather than in the queue.
func (s *Service) Queue(ctx context.Context, target Target, requester string) error {
	if err := target.Validate(); err != nil {
		return err
	}
	handle, verified, err := s.resolve(ctx, target)
	if err != nil {
		return err
	}
	if verified {
		return ErrAlreadyVerified
	}
	ok, err := s.grants.IsDisclosable(ctx, handle, requester)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotDisclosable
	}

	payload, _ := json.Marshal(QueuedDisclosure{Target: target, Requester: requester})
	topic := TopicDiscloseLoan
	if target.Kind == TargetScore {
		topic = TopicDiscloseScore
	}
	return s.outbox.Enqueue(ctx, topic, payload)
}

func (s *Service) resolve(ctx context.Context, target Target) (fhe.Handle, bool, error) {
	switch target.Kind {
	case TargetLoan:
		rec, err := s.loans.GetLoan(ctx, target.Principal, target.Index)
		if err != nil {
			return "", false, err
		}
		return rec.EncryptedRepayment, rec.IsVerified, nil
	case TargetScore:
		sc, err := s.scores.GetScore(ctx, target.Principal)
		if err != nil {
			return "", false, err
		}
		return sc.EncryptedScore, sc.IsVerified, nil
	default:
		return "", false, ErrUnknownTarget
	}
}
