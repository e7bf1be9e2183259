package postgres

import (
	"github.com/imarises/TrustScore-FHE/internal/domain/disclosure"
	"github.com/imarises/TrustScore-FHE/internal/domain/grants"
	"github.com/imarises/TrustScore-FHE/internal/domain/ledger"
	"github.com/imarises/TrustScore-FHE/internal/domain/score"
	"github.com/imarises/TrustScore-FHE/internal/events"
	"github.com/imarises/TrustScore-FHE/internal/jobs"
)

// Compile-time checks that each repository satisfies its consumer's
// interface.
var (
	_ ledger.Repository           = (*LoanRepository)(nil)
	_ score.Repository            = (*ScoreRepository)(nil)
	_ grants.Repository           = (*GrantRepository)(nil)
	_ events.Log                  = (*EventRepository)(nil)
	_ jobs.OutboxRepository       = (*OutboxRepository)(nil)
	_ disclosure.OutboxRepository = (*OutboxRepository)(nil)
)
