package vault

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"arcvault.com/internal/domain/entity"
	"arcvault.com/internal/infrastructure/logger"
)

// MemoryVault implements the TokenVault port against in-memory external
// wallets. Per-asset transfer fees model fee-on-transfer tokens, so pulls can
// deliver less than requested; callers must credit the returned amount.
type MemoryVault struct {
	mu           sync.Mutex
	wallets      map[entity.BalanceKey]decimal.Decimal
	custody      map[entity.Asset]decimal.Decimal
	transferFees map[entity.Asset]decimal.Decimal
	logger       logger.Logger
}

// NewMemoryVault creates an empty vault.
func NewMemoryVault(logger logger.Logger) *MemoryVault {
	return &MemoryVault{
		wallets:      make(map[entity.BalanceKey]decimal.Decimal),
		custody:      make(map[entity.Asset]decimal.Decimal),
		transferFees: make(map[entity.Asset]decimal.Decimal),
		logger:       logger,
	}
}

// Fund seeds an external wallet. Used at startup and in tests.
func (v *MemoryVault) Fund(account entity.Account, asset entity.Asset, amount decimal.Decimal) {
	v.mu.Lock()
	defer v.mu.Unlock()
	key := entity.BalanceKey{Asset: asset, Account: account}
	v.wallets[key] = v.wallets[key].Add(amount)
}

// SetTransferFee sets the fraction an asset loses in transit (0 to 1).
func (v *MemoryVault) SetTransferFee(asset entity.Asset, rate decimal.Decimal) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.transferFees[asset] = rate
}

// WalletBalance returns an external wallet's holding of one asset.
func (v *MemoryVault) WalletBalance(account entity.Account, asset entity.Asset) decimal.Decimal {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.wallets[entity.BalanceKey{Asset: asset, Account: account}]
}

// Pull moves tokens from an external wallet into vault custody and returns
// the amount actually received after any transfer fee.
func (v *MemoryVault) Pull(ctx context.Context, from entity.Account, asset entity.Asset, amount decimal.Decimal) (decimal.Decimal, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	key := entity.BalanceKey{Asset: asset, Account: from}
	held := v.wallets[key]
	if held.LessThan(amount) {
		return decimal.Zero, fmt.Errorf("%w: wallet %s holds %s %s, need %s", entity.ErrTransferFailed, from, held, asset, amount)
	}

	received := amount
	if fee, ok := v.transferFees[asset]; ok && fee.IsPositive() {
		received = amount.Sub(amount.Mul(fee))
	}

	v.wallets[key] = held.Sub(amount)
	v.custody[asset] = v.custody[asset].Add(received)

	v.logger.LogInfo(ctx, "Custody pull",
		"from", from,
		"asset", asset,
		"requested", amount.String(),
		"received", received.String())

	return received, nil
}

// Push moves tokens from vault custody out to an external wallet.
func (v *MemoryVault) Push(ctx context.Context, to entity.Account, asset entity.Asset, amount decimal.Decimal) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	held := v.custody[asset]
	if held.LessThan(amount) {
		return fmt.Errorf("%w: custody holds %s %s, need %s", entity.ErrTransferFailed, held, asset, amount)
	}

	key := entity.BalanceKey{Asset: asset, Account: to}
	v.custody[asset] = held.Sub(amount)
	v.wallets[key] = v.wallets[key].Add(amount)

	v.logger.LogInfo(ctx, "Custody push",
		"to", to,
		"asset", asset,
		"amount", amount.String())

	return nil
}

// Custody returns the vault's holding of one asset.
func (v *MemoryVault) Custody(ctx context.Context, asset entity.Asset) (decimal.Decimal, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.custody[asset], nil
}
