package port

import (
	"context"

	"github.com/shopspring/decimal"

	"arcvault.com/internal/domain/entity"
)

// YieldAdapter is the external lending venue idle custody is delegated to.
// SupplyAsset is called after custody has been transferred to the venue;
// WithdrawAsset must push tokens back to vault custody before returning.
type YieldAdapter interface {
	SupplyAsset(ctx context.Context, asset entity.Asset, amount decimal.Decimal, onBehalfOf entity.Account) error
	WithdrawAsset(ctx context.Context, asset entity.Asset, amount decimal.Decimal, recipient entity.Account) error
	GetSuppliedBalance(ctx context.Context, account entity.Account, asset entity.Asset) (decimal.Decimal, error)
}

// ExchangeAdapter converts one asset into another during inbound delivery.
// The input is taken from vault custody; the output is sent directly to the
// recipient's external wallet. Output below minOutput must fail the swap.
type ExchangeAdapter interface {
	SwapExactInput(ctx context.Context, in entity.Asset, out entity.Asset, amount, minOutput decimal.Decimal, recipient entity.Account) (decimal.Decimal, error)
}
