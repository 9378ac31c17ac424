package activity

import (
	"encoding/json"
	"time"

	"log/slog"

	"github.com/freelanceflow/api/internal/ws"
)

// Topic is the single workspace-wide feed all dashboard sessions share.
const Topic = "workspace"

// Event describes a change broadcast to dashboard sessions. Events are
// fan-out only; nothing is persisted.
type Event struct {
	Type       string    `json:"type"`
	EntityID   string    `json:"entity_id"`
	Summary    string    `json:"summary"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Service publishes workspace events to feed subscribers.
type Service struct {
	hub    *ws.Hub
	logger *slog.Logger
}

// New returns an activity service.
func New(hub *ws.Hub, logger *slog.Logger) Service {
	return Service{hub: hub, logger: logger}
}

// Hub exposes the underlying hub for subscription management.
func (s Service) Hub() *ws.Hub {
	return s.hub
}

// Emit broadcasts an event to all subscribers. Safe on a zero Service.
func (s Service) Emit(eventType, entityID, summary string) {
	if s.hub == nil {
		return
	}
	event := Event{
		Type:       eventType,
		EntityID:   entityID,
		Summary:    summary,
		OccurredAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal activity event", "error", err)
		return
	}
	s.hub.Broadcast(Topic, payload)
}
