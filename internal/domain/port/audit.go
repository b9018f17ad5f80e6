package port

import (
	"context"

	"arcvault.com/internal/domain/entity"
)

// AuditSink receives the event emitted after every successful mutation and
// every terminal inbound rejection, for off-chain reconciliation.
type AuditSink interface {
	Record(ctx context.Context, event entity.AuditEvent)
}
