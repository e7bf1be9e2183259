package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/imarises/TrustScore-FHE/internal/domain/disclosure"
)

type DisclosureJob struct {
	ID          int64
	Topic       string
	Payload     []byte
	Status      string
	Attempts    int32
	LastError   string
	AvailableAt time.Time
}

type OutboxRepository interface {
	ClaimPending(ctx context.Context, limit int32) ([]DisclosureJob, error)
	MarkDone(ctx context.Context, jobID int64) error
	MarkRetry(ctx context.Context, jobID int64, nextAvailableAt time.Time, lastError string) error
	MarkFailed(ctx context.Context, jobID int64, lastError string) error
}

type DisclosureProtocol interface {
	Request(ctx context.Context, target disclosure.Target, requester string) (*disclosure.Ticket, error)
	Commit(ctx context.Context, target disclosure.Target, clearValue, proof []byte) error
}

// Worker drains queued disclosures: the suspending oracle round-trip runs
// here, off the request path, and the commit follows immediately after. A
// job interrupted between the two phases is simply re-run; the target is
// still sealed.
type Worker struct {
	outboxRepo   OutboxRepository
	protocol     DisclosureProtocol
	maxAttempts  int32
	now          func() time.Time
	retryBackoff func(attempt int32) time.Duration
}

func NewWorker(outboxRepo OutboxRepository, protocol DisclosureProtocol) *Worker {
	return &Worker{
		outboxRepo:  outboxRepo,
		protocol:    protocol,
		maxAttempts: 5,
		now:         func() time.Time { return time.Now().UTC() },
		retryBackoff: func(attempt int32) time.Duration {
			if attempt < 1 {
				attempt = 1
			}
			return time.Duration(attempt*15) * time.Second
		},
	}
}

func (w *Worker) RunOnce(ctx context.Context, batchSize int32) error {
	claimed, err := w.outboxRepo.ClaimPending(ctx, batchSize)
	if err != nil {
		return err
	}
	for _, job := range claimed {
		if err := w.processJob(ctx, job); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) processJob(ctx context.Context, job DisclosureJob) error {
	switch job.Topic {
	case disclosure.TopicDiscloseLoan, disclosure.TopicDiscloseScore:
		return w.processDisclosure(ctx, job)
	default:
		if job.Attempts >= w.maxAttempts {
			return w.outboxRepo.MarkFailed(ctx, job.ID, "unsupported_topic")
		}
		next := w.now().Add(w.retryBackoff(job.Attempts))
		return w.outboxRepo.MarkRetry(ctx, job.ID, next, "unsupported_topic")
	}
}

func (w *Worker) processDisclosure(ctx context.Context, job DisclosureJob) error {
	var queued disclosure.QueuedDisclosure
	if err := json.Unmarshal(job.Payload, &queued); err != nil {
		return w.handleJobError(ctx, job, fmt.Errorf("invalid_payload"))
	}
	if err := queued.Target.Validate(); err != nil {
		return w.handleJobError(ctx, job, err)
	}

	ticket, err := w.protocol.Request(ctx, queued.Target, queued.Requester)
	if errors.Is(err, disclosure.ErrAlreadyVerified) {
		// A racing commit won; the queued request is a no-op.
		return w.outboxRepo.MarkDone(ctx, job.ID)
	}
	if err != nil {
		return w.handleJobError(ctx, job, err)
	}

	err = w.protocol.Commit(ctx, ticket.Target, ticket.ClearValue, ticket.Proof)
	if errors.Is(err, disclosure.ErrAlreadyVerified) {
		return w.outboxRepo.MarkDone(ctx, job.ID)
	}
	if err != nil {
		return w.handleJobError(ctx, job, err)
	}
	return w.outboxRepo.MarkDone(ctx, job.ID)
}

func (w *Worker) handleJobError(ctx context.Context, job DisclosureJob, err error) error {
	msg := err.Error()
	if job.Attempts >= w.maxAttempts {
		return w.outboxRepo.MarkFailed(ctx, job.ID, msg)
	}
	next := w.now().Add(w.retryBackoff(job.Attempts))
	return w.outboxRepo.MarkRetry(ctx, job.ID, next, msg)
}
