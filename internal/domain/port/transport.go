package port

import (
	"context"

	"github.com/shopspring/decimal"

	"arcvault.com/internal/domain/entity"
)

// BridgeTransport is the black-box message-delivery mechanism between
// networks. It quotes fees, accepts submissions, and (on the receiving side)
// invokes the inbound entry point; once Submit returns, the value is in
// flight and cannot be recalled.
type BridgeTransport interface {
	// QuoteFee returns the fee, in the configured fee asset, required to
	// carry msg to the destination network.
	QuoteFee(ctx context.Context, dest entity.NetworkID, msg *entity.BridgeMessage) (decimal.Decimal, error)
	// Submit hands msg to the transport and returns the opaque message ID
	// assigned to it.
	Submit(ctx context.Context, dest entity.NetworkID, msg *entity.BridgeMessage) (string, error)
}
