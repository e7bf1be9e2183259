package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/imarises/TrustScore-FHE/internal/domain/disclosure"
	"github.com/imarises/TrustScore-FHE/internal/fhe"
)

type outboxCall struct {
	op    string
	jobID int64
	err   string
	next  time.Time
}

type fakeOutboxRepo struct {
	pending []DisclosureJob
	calls   []outboxCall
}

func (f *fakeOutboxRepo) ClaimPending(_ context.Context, limit int32) ([]DisclosureJob, error) {
	if int32(len(f.pending)) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeOutboxRepo) MarkDone(_ context.Context, jobID int64) error {
	f.calls = append(f.calls, outboxCall{op: "done", jobID: jobID})
	return nil
}

func (f *fakeOutboxRepo) MarkRetry(_ context.Context, jobID int64, next time.Time, lastError string) error {
	f.calls = append(f.calls, outboxCall{op: "retry", jobID: jobID, err: lastError, next: next})
	return nil
}

func (f *fakeOutboxRepo) MarkFailed(_ context.Context, jobID int64, lastError string) error {
	f.calls = append(f.calls, outboxCall{op: "failed", jobID: jobID, err: lastError})
	return nil
}

type fakeProtocol struct {
	requestErr error
	commitErr  error
	requests   []disclosure.Target
	commits    []disclosure.Target
}

func (f *fakeProtocol) Request(_ context.Context, target disclosure.Target, _ string) (*disclosure.Ticket, error) {
	f.requests = append(f.requests, target)
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return &disclosure.Ticket{
		ID:         "ticket-1",
		Target:     target,
		ClearValue: fhe.EncodeWord(80),
		Proof:      []byte(`{"version":"attest-v1"}`),
	}, nil
}

func (f *fakeProtocol) Commit(_ context.Context, target disclosure.Target, _, _ []byte) error {
	f.commits = append(f.commits, target)
	return f.commitErr
}

func queuedJob(t *testing.T, id int64, topic string, target disclosure.Target, attempts int32) DisclosureJob {
	t.Helper()
	payload, err := json.Marshal(disclosure.QueuedDisclosure{Target: target, Requester: "auditor-1"})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return DisclosureJob{ID: id, Topic: topic, Payload: payload, Attempts: attempts}
}

func TestWorkerCompletesDisclosure(t *testing.T) {
	ctx := context.Background()
	target := disclosure.LoanTarget("borrower-1", 0)
	repo := &fakeOutboxRepo{pending: []DisclosureJob{
		queuedJob(t, 1, disclosure.TopicDiscloseLoan, target, 0),
	}}
	protocol := &fakeProtocol{}
	w := NewWorker(repo, protocol)

	if err := w.RunOnce(ctx, 10); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(protocol.requests) != 1 || len(protocol.commits) != 1 {
		t.Fatalf("expected request then commit, got %d/%d", len(protocol.requests), len(protocol.commits))
	}
	if len(repo.calls) != 1 || repo.calls[0].op != "done" || repo.calls[0].jobID != 1 {
		t.Fatalf("expected job 1 marked done, got %v", repo.calls)
	}
}

func TestWorkerTreatsVerifiedAsDone(t *testing.T) {
	ctx := context.Background()
	target := disclosure.ScoreTarget("borrower-1")

	// Already verified at request time.
	repo := &fakeOutboxRepo{pending: []DisclosureJob{
		queuedJob(t, 1, disclosure.TopicDiscloseScore, target, 0),
	}}
	protocol := &fakeProtocol{requestErr: disclosure.ErrAlreadyVerified}
	if err := NewWorker(repo, protocol).RunOnce(ctx, 10); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(repo.calls) != 1 || repo.calls[0].op != "done" {
		t.Fatalf("expected done for verified target, got %v", repo.calls)
	}
	if len(protocol.commits) != 0 {
		t.Fatalf("no commit should be attempted after verified request")
	}

	// A racing commit wins between request and commit.
	repo = &fakeOutboxRepo{pending: []DisclosureJob{
		queuedJob(t, 2, disclosure.TopicDiscloseScore, target, 0),
	}}
	protocol = &fakeProtocol{commitErr: disclosure.ErrAlreadyVerified}
	if err := NewWorker(repo, protocol).RunOnce(ctx, 10); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(repo.calls) != 1 || repo.calls[0].op != "done" {
		t.Fatalf("expected done for lost race, got %v", repo.calls)
	}
}

func TestWorkerRetriesWithBackoff(t *testing.T) {
	ctx := context.Background()
	target := disclosure.LoanTarget("borrower-1", 0)
	repo := &fakeOutboxRepo{pending: []DisclosureJob{
		queuedJob(t, 1, disclosure.TopicDiscloseLoan, target, 2),
	}}
	protocol := &fakeProtocol{requestErr: errors.New("oracle_unreachable")}
	w := NewWorker(repo, protocol)
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return base }

	if err := w.RunOnce(ctx, 10); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(repo.calls) != 1 || repo.calls[0].op != "retry" {
		t.Fatalf("expected retry, got %v", repo.calls)
	}
	if repo.calls[0].err != "oracle_unreachable" {
		t.Fatalf("unexpected last error: %s", repo.calls[0].err)
	}
	if want := base.Add(30 * time.Second); !repo.calls[0].next.Equal(want) {
		t.Fatalf("expected next attempt at %v, got %v", want, repo.calls[0].next)
	}
}

func TestWorkerFailsAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	target := disclosure.LoanTarget("borrower-1", 0)
	repo := &fakeOutboxRepo{pending: []DisclosureJob{
		queuedJob(t, 1, disclosure.TopicDiscloseLoan, target, 5),
	}}
	protocol := &fakeProtocol{requestErr: errors.New("oracle_unreachable")}

	if err := NewWorker(repo, protocol).RunOnce(ctx, 10); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(repo.calls) != 1 || repo.calls[0].op != "failed" {
		t.Fatalf("expected terminal failure, got %v", repo.calls)
	}
}

func TestWorkerRejectsBadJobs(t *testing.T) {
	ctx := context.Background()
	repo := &fakeOutboxRepo{pending: []DisclosureJob{
		{ID: 1, Topic: disclosure.TopicDiscloseLoan, Payload: []byte("{"), Attempts: 0},
		{ID: 2, Topic: "mint_passport", Payload: []byte("{}"), Attempts: 5},
	}}
	protocol := &fakeProtocol{}

	if err := NewWorker(repo, protocol).RunOnce(ctx, 10); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(repo.calls) != 2 {
		t.Fatalf("expected 2 outcomes, got %v", repo.calls)
	}
	if repo.calls[0].op != "retry" || repo.calls[0].err != "invalid_payload" {
		t.Fatalf("expected retry with invalid_payload, got %v", repo.calls[0])
	}
	if repo.calls[1].op != "failed" || repo.calls[1].err != "unsupported_topic" {
		t.Fatalf("expected failure with unsupported_topic, got %v", repo.calls[1])
	}
	if len(protocol.requests) != 0 {
		t.Fatalf("bad jobs must not reach the protocol")
	}
}
