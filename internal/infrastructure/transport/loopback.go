package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"arcvault.com/internal/domain/entity"
	"arcvault.com/internal/infrastructure/logger"
)

// DeliveryHandler is invoked once per submitted message on the receiving
// side.
type DeliveryHandler func(ctx context.Context, msg *entity.BridgeMessage)

// LoopbackTransport implements the BridgeTransport port in process. It quotes
// fees from a per-destination schedule, assigns opaque message IDs, and hands
// submissions to a registered delivery handler. Delivery always runs in its
// own goroutine: the receiving transaction is independent of the submitting
// one, correlated only by message ID.
type LoopbackTransport struct {
	mu         sync.Mutex
	fees       map[entity.NetworkID]decimal.Decimal
	defaultFee decimal.Decimal
	localNet   entity.NetworkID
	handler    DeliveryHandler
	inFlight   map[string]*entity.BridgeMessage
	logger     logger.Logger
}

// NewLoopbackTransport creates a transport for the given local network with a
// flat default fee.
func NewLoopbackTransport(localNet entity.NetworkID, defaultFee decimal.Decimal, logger logger.Logger) *LoopbackTransport {
	return &LoopbackTransport{
		fees:       make(map[entity.NetworkID]decimal.Decimal),
		defaultFee: defaultFee,
		localNet:   localNet,
		inFlight:   make(map[string]*entity.BridgeMessage),
		logger:     logger,
	}
}

// SetFee overrides the fee for one destination network.
func (t *LoopbackTransport) SetFee(dest entity.NetworkID, fee decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fees[dest] = fee
}

// SetDeliveryHandler registers the receiving side's entry point.
func (t *LoopbackTransport) SetDeliveryHandler(handler DeliveryHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = handler
}

// QuoteFee returns the fee required to carry a message to dest.
func (t *LoopbackTransport) QuoteFee(ctx context.Context, dest entity.NetworkID, msg *entity.BridgeMessage) (decimal.Decimal, error) {
	if dest == "" {
		return decimal.Zero, fmt.Errorf("%w: empty destination network", entity.ErrInvalidArgument)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if fee, ok := t.fees[dest]; ok {
		return fee, nil
	}
	return t.defaultFee, nil
}

// Submit accepts a message, assigns it an ID, and schedules delivery. Once
// Submit returns the value is in flight and cannot be recalled.
func (t *LoopbackTransport) Submit(ctx context.Context, dest entity.NetworkID, msg *entity.BridgeMessage) (string, error) {
	if dest == "" {
		return "", fmt.Errorf("%w: empty destination network", entity.ErrInvalidArgument)
	}

	t.mu.Lock()
	messageID := uuid.New().String()
	delivered := *msg
	delivered.MessageID = messageID
	delivered.SourceNetworkID = t.localNet
	t.inFlight[messageID] = &delivered
	handler := t.handler
	t.mu.Unlock()

	t.logger.LogInfo(ctx, "Message submitted",
		"message_id", messageID,
		"destination", dest,
		"asset", delivered.Asset,
		"amount", delivered.Amount.String())

	if handler != nil {
		go handler(context.WithoutCancel(ctx), &delivered)
	}

	return messageID, nil
}

// InFlight returns a submitted message by ID, nil when unknown. Used by the
// relay simulator and tests.
func (t *LoopbackTransport) InFlight(messageID string) *entity.BridgeMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inFlight[messageID]
}
