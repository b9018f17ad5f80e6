package yield

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"arcvault.com/internal/domain/entity"
	"arcvault.com/internal/infrastructure/logger"
	"arcvault.com/internal/infrastructure/vault"
)

// MemoryVenue implements the YieldAdapter port. SupplyAsset expects the
// tokens in its wallet already; WithdrawAsset returns them to vault custody
// before it reports success, matching the contract the custody layer relies
// on.
type MemoryVenue struct {
	mu       sync.Mutex
	supplied map[entity.BalanceKey]decimal.Decimal
	vault    *vault.MemoryVault
	account  entity.Account
	failure  error
	logger   logger.Logger
}

// NewMemoryVenue creates a lending venue operating against the given vault
// under its own venue account.
func NewMemoryVenue(v *vault.MemoryVault, account entity.Account, logger logger.Logger) *MemoryVenue {
	return &MemoryVenue{
		supplied: make(map[entity.BalanceKey]decimal.Decimal),
		vault:    v,
		account:  account,
		logger:   logger,
	}
}

// SetFailure forces every subsequent call to fail with err. Test hook.
func (m *MemoryVenue) SetFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failure = err
}

// SupplyAsset registers a deposit on behalf of an account. The tokens must
// already sit in the venue's wallet.
func (m *MemoryVenue) SupplyAsset(ctx context.Context, asset entity.Asset, amount decimal.Decimal, onBehalfOf entity.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failure != nil {
		return fmt.Errorf("%w: %v", entity.ErrAdapterFailure, m.failure)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: supply amount must be positive", entity.ErrInvalidArgument)
	}
	if m.vault.WalletBalance(m.account, asset).LessThan(amount) {
		return fmt.Errorf("%w: venue wallet missing supplied tokens", entity.ErrAdapterFailure)
	}

	key := entity.BalanceKey{Asset: asset, Account: onBehalfOf}
	m.supplied[key] = m.supplied[key].Add(amount)

	m.logger.LogInfo(ctx, "Yield supply recorded",
		"asset", asset,
		"amount", amount.String(),
		"on_behalf_of", onBehalfOf)

	return nil
}

// WithdrawAsset releases supplied tokens and pushes them back into vault
// custody before returning.
func (m *MemoryVenue) WithdrawAsset(ctx context.Context, asset entity.Asset, amount decimal.Decimal, recipient entity.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failure != nil {
		return fmt.Errorf("%w: %v", entity.ErrAdapterFailure, m.failure)
	}
	key := entity.BalanceKey{Asset: asset, Account: recipient}
	held := m.supplied[key]
	if held.LessThan(amount) {
		return fmt.Errorf("%w: supplied %s %s, requested %s", entity.ErrAdapterFailure, held, asset, amount)
	}

	if _, err := m.vault.Pull(ctx, m.account, asset, amount); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrAdapterFailure, err)
	}
	m.supplied[key] = held.Sub(amount)

	m.logger.LogInfo(ctx, "Yield withdrawal returned to custody",
		"asset", asset,
		"amount", amount.String(),
		"recipient", recipient)

	return nil
}

// GetSuppliedBalance returns the amount supplied on behalf of an account.
func (m *MemoryVenue) GetSuppliedBalance(ctx context.Context, account entity.Account, asset entity.Asset) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.supplied[entity.BalanceKey{Asset: asset, Account: account}], nil
}
