package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"arcvault.com/internal/domain/entity"
	"arcvault.com/internal/domain/port"
)

// GetBalanceUseCase handles balance retrieval
type GetBalanceUseCase struct {
	ledger port.LedgerStore
}

// NewGetBalanceUseCase creates a new GetBalanceUseCase
func NewGetBalanceUseCase(ledger port.LedgerStore) *GetBalanceUseCase {
	return &GetBalanceUseCase{
		ledger: ledger,
	}
}

// Execute retrieves every holding of one account.
func (uc *GetBalanceUseCase) Execute(ctx context.Context, account entity.Account) (*entity.BalanceResponse, error) {
	return uc.ledger.AccountBalances(ctx, account)
}

// AssetBalance retrieves a single (asset, account) balance, zero by default.
func (uc *GetBalanceUseCase) AssetBalance(ctx context.Context, asset entity.Asset, account entity.Account) (decimal.Decimal, error) {
	return uc.ledger.Balance(ctx, asset, account)
}
