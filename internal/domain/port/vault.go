package port

import (
	"context"

	"github.com/shopspring/decimal"

	"arcvault.com/internal/domain/entity"
)

// TokenVault moves actual token custody between external wallets and the
// vault. Pull returns the amount actually received, which may be less than
// requested for fee-on-transfer tokens; ledger credits must use that value.
type TokenVault interface {
	Pull(ctx context.Context, from entity.Account, asset entity.Asset, amount decimal.Decimal) (decimal.Decimal, error)
	Push(ctx context.Context, to entity.Account, asset entity.Asset, amount decimal.Decimal) error
	// Custody returns the vault's own holding of one asset.
	Custody(ctx context.Context, asset entity.Asset) (decimal.Decimal, error)
}
