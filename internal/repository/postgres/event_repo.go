package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/imarises/TrustScore-FHE/internal/events"
)

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func (r *EventRepository) Append(ctx context.Context, eventType, principal string, payload []byte) error {
	q := `INSERT INTO ledger_events (event_type, principal, payload) VALUES ($1, $2, $3::jsonb)`
	_, err := r.pool.Exec(ctx, q, eventType, principal, payload)
	return err
}

func (r *EventRepository) ListSince(ctx context.Context, lastID int64, limit int32) ([]events.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `
SELECT id, event_type, principal, payload, created_at
FROM ledger_events
WHERE id > $1
ORDER BY id ASC
LIMIT $2
`
	rows, err := r.pool.Query(ctx, q, lastID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]events.Event, 0)
	for rows.Next() {
		var item events.Event
		if err := rows.Scan(&item.ID, &item.Type, &item.Principal, &item.Payload, &item.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
