package events

import (
	"context"
	"encoding/json"
	"time"
)

// Event types form a closed set; payload shapes are fixed per type.
const (
	TypeLoanCreated       = "loan_created"
	TypeRepaymentVerified = "repayment_verified"
	TypeScoreComputed     = "score_computed"
	TypeScoreVerified     = "score_verified"
)

type Event struct {
	ID        int64
	Type      string
	Principal string
	Payload   []byte
	CreatedAt time.Time
}

type LoanCreatedPayload struct {
	Borrower   string `json:"borrower"`
	Index      int32  `json:"index"`
	Handle     string `json:"handle"`
	LoanAmount int64  `json:"loan_amount"`
	DueDate    string `json:"due_date"`
}

type RepaymentVerifiedPayload struct {
	Borrower       string `json:"borrower"`
	Index          int32  `json:"index"`
	ClearRepayment int64  `json:"clear_repayment"`
}

type ScoreComputedPayload struct {
	User      string `json:"user"`
	Handle    string `json:"handle"`
	LoanCount int32  `json:"loan_count"`
}

type ScoreVerifiedPayload struct {
	User       string `json:"user"`
	ClearScore int64  `json:"clear_score"`
}

// Log is the append-only domain event channel. Appends ride the same
// transaction boundary as the mutation that produced them.
type Log interface {
	Append(ctx context.Context, eventType, principal string, payload []byte) error
	ListSince(ctx context.Context, lastID int64, limit int32) ([]Event, error)
}

func Marshal(payload any) []byte {
	out, _ := json.Marshal(payload)
	return out
}
