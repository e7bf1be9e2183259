package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/imarises/TrustScore-FHE/internal/events"
)

// Notifier tails the ledger event log and fans events out to subscribed
// clients. Loan events go to the borrower channel, score events to the
// score channel of the same principal.
type Notifier struct {
	log          events.Log
	hub          *Hub
	pollInterval time.Duration
	lastID       int64
}

func NewNotifier(log events.Log, hub *Hub, pollInterval time.Duration) *Notifier {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &Notifier{log: log, hub: hub, pollInterval: pollInterval}
}

func (n *Notifier) Run(ctx context.Context) error {
	ticker := time.NewTicker(n.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := n.tick(ctx); err != nil {
				return err
			}
		}
	}
}

func (n *Notifier) tick(ctx context.Context) error {
	batch, err := n.log.ListSince(ctx, n.lastID, 100)
	if err != nil {
		return err
	}
	for _, ev := range batch {
		if ev.ID > n.lastID {
			n.lastID = ev.ID
		}
		payload, _ := json.Marshal(map[string]any{
			"event": ev.Type,
			"data":  json.RawMessage(ev.Payload),
		})
		n.hub.Publish(channelFor(ev), payload)
	}
	return nil
}

func channelFor(ev events.Event) string {
	switch ev.Type {
	case events.TypeScoreComputed, events.TypeScoreVerified:
		return "score:" + ev.Principal
	default:
		return "borrower:" + ev.Principal
	}
}
