package observability

import (
	"log/slog"

	"htlcvault/core/events"
)

// EventRecorder satisfies the events.Emitter interface by logging every
// escrow transition and bumping the transition metrics.
type EventRecorder struct {
	logger *slog.Logger
}

func NewEventRecorder(logger *slog.Logger) *EventRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventRecorder{logger: logger}
}

// Emit implements the events.Emitter interface.
func (r *EventRecorder) Emit(evt events.Event) {
	if r == nil || evt == nil {
		return
	}
	eventType := evt.EventType()
	Vault().RecordTransition(eventType)
	r.logger.Info("escrow transition", slog.String("event", eventType))
}
