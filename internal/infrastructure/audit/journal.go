package audit

import (
	"context"
	"sync"

	"arcvault.com/internal/domain/entity"
	"arcvault.com/internal/infrastructure/logger"
)

// Journal implements the AuditSink port. Every event is kept in order and
// logged as structured JSON for the off-chain reconciliation pipeline.
type Journal struct {
	mu     sync.Mutex
	events []entity.AuditEvent
	logger logger.Logger
}

// NewJournal creates an empty audit journal.
func NewJournal(logger logger.Logger) *Journal {
	return &Journal{logger: logger.WithComponent("audit")}
}

// Record appends an event to the journal.
func (j *Journal) Record(ctx context.Context, event entity.AuditEvent) {
	j.mu.Lock()
	j.events = append(j.events, event)
	j.mu.Unlock()

	j.logger.LogInfo(ctx, "Audit event",
		"kind", string(event.Kind),
		"account", event.Account,
		"asset", event.Asset,
		"amount", event.Amount.String(),
		"message_id", event.MessageID,
		"reason", event.Reason)
}

// Events returns a snapshot of the journal.
func (j *Journal) Events() []entity.AuditEvent {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]entity.AuditEvent, len(j.events))
	copy(out, j.events)
	return out
}

// EventsOfKind returns the journal entries of one kind, in order.
func (j *Journal) EventsOfKind(kind entity.AuditKind) []entity.AuditEvent {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []entity.AuditEvent
	for _, e := range j.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
