package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/imarises/TrustScore-FHE/internal/events"
)

type EventReader interface {
	ListSince(ctx context.Context, lastID int64, limit int32) ([]events.Event, error)
}

type EventsHandler struct {
	reader EventReader
}

func NewEventsHandler(reader EventReader) *EventsHandler {
	return &EventsHandler{reader: reader}
}

func (h *EventsHandler) ListEvents(c *gin.Context) {
	since, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("since", "0")), 10, 64)
	limit, _ := strconv.ParseInt(strings.TrimSpace(c.DefaultQuery("limit", "100")), 10, 32)

	items, err := h.reader.ListSince(c.Request.Context(), since, int32(limit))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_events_failed"})
		return
	}

	out := make([]gin.H, 0, len(items))
	for _, ev := range items {
		out = append(out, gin.H{
			"id":         ev.ID,
			"type":       ev.Type,
			"principal":  ev.Principal,
			"payload":    json.RawMessage(ev.Payload),
			"created_at": ev.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}
