package audit

import (
	"context"
	"log/slog"

	"coopreg/pkg/requestcontext"
)

// Publisher accepts audit events for delivery.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Record is the entity-specific part of an audit event.
type Record struct {
	EntityID string
	Email    string
	Decision string
	Reason   string
}

// Emitter writes the audit log line for a lifecycle mutation and forwards
// the event to a publisher. Publisher failures are logged, never returned:
// the mutation has already committed.
type Emitter struct {
	entityType string
	logger     *slog.Logger
	publisher  Publisher
}

func NewEmitter(entityType string, logger *slog.Logger, publisher Publisher) *Emitter {
	return &Emitter{entityType: entityType, logger: logger, publisher: publisher}
}

func (e *Emitter) Emit(ctx context.Context, event AuditEvent, rec Record) {
	requestID := requestcontext.RequestID(ctx)
	actor := requestcontext.Actor(ctx)
	if e.logger != nil {
		args := []any{
			"event", string(event),
			"log_type", "audit",
			"entity_type", e.entityType,
			e.entityType + "_id", rec.EntityID,
		}
		if rec.Decision != "" {
			args = append(args, "decision", rec.Decision)
		}
		if rec.Reason != "" {
			args = append(args, "reason", rec.Reason)
		}
		if actor != "" {
			args = append(args, "actor", actor)
		}
		if requestID != "" {
			args = append(args, "request_id", requestID)
		}
		e.logger.InfoContext(ctx, string(event), args...)
	}
	if e.publisher == nil {
		return
	}
	err := e.publisher.Emit(ctx, Event{
		Category:   event.Category(),
		Timestamp:  requestcontext.Now(ctx),
		Action:     string(event),
		EntityType: e.entityType,
		EntityID:   rec.EntityID,
		Email:      rec.Email,
		Decision:   rec.Decision,
		Reason:     rec.Reason,
		RequestID:  requestID,
		ActorID:    actor,
	})
	if err != nil && e.logger != nil {
		e.logger.WarnContext(ctx, "failed to publish audit event",
			"event", string(event),
			"error", err,
			"request_id", requestID,
		)
	}
}
