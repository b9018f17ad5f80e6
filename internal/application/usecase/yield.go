package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"arcvault.com/internal/domain/access"
	"arcvault.com/internal/domain/entity"
	"arcvault.com/internal/domain/port"
	"arcvault.com/internal/infrastructure/logger"
)

// YieldUseCase delegates idle vault custody to the external lending venue and
// pulls it back. Ledger balances are never touched: this is custody
// delegation, so depositors' claims stay intact while the tokens earn yield.
type YieldUseCase struct {
	vault    port.TokenVault
	registry *access.Registry
	audit    port.AuditSink
	logger   logger.Logger

	// venueAccount is the external wallet the venue receives supplies on;
	// service is the account supplies are booked under at the venue.
	venueAccount entity.Account
	service      entity.Account

	mu      sync.RWMutex
	adapter port.YieldAdapter
}

// NewYieldUseCase creates a new YieldUseCase.
func NewYieldUseCase(
	vault port.TokenVault,
	registry *access.Registry,
	audit port.AuditSink,
	venueAccount entity.Account,
	service entity.Account,
	logger logger.Logger,
) *YieldUseCase {
	return &YieldUseCase{
		vault:        vault,
		registry:     registry,
		audit:        audit,
		venueAccount: venueAccount,
		service:      service,
		logger:       logger,
	}
}

// SetAdapter installs or replaces the lending venue.
func (uc *YieldUseCase) SetAdapter(adapter port.YieldAdapter) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.adapter = adapter
}

func (uc *YieldUseCase) yieldAdapter() port.YieldAdapter {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.adapter
}

// Supply moves custody to the venue, then registers the supply. Owner-only.
func (uc *YieldUseCase) Supply(ctx context.Context, caller access.Caller, asset entity.Asset, amount decimal.Decimal) error {
	if err := uc.registry.RequireOwner(caller); err != nil {
		return err
	}
	if err := uc.registry.RequireSupported(asset); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: supply amount must be positive", entity.ErrInvalidArgument)
	}
	adapter := uc.yieldAdapter()
	if adapter == nil {
		return fmt.Errorf("%w: no yield adapter configured", entity.ErrAdapterFailure)
	}

	if err := uc.vault.Push(ctx, uc.venueAccount, asset, amount); err != nil {
		return err
	}
	if err := adapter.SupplyAsset(ctx, asset, amount, uc.service); err != nil {
		// Reclaim the tokens sitting in the venue wallet so custody stays whole.
		if _, pullErr := uc.vault.Pull(ctx, uc.venueAccount, asset, amount); pullErr != nil {
			uc.logger.LogError(ctx, "Failed to reclaim custody after supply failure", pullErr,
				"asset", asset,
				"amount", amount.String())
		}
		return err
	}

	uc.audit.Record(ctx, entity.AuditEvent{
		Kind:      entity.AuditYieldSupplied,
		Timestamp: time.Now(),
		Account:   uc.service,
		Asset:     asset,
		Amount:    amount,
	})

	return nil
}

// Withdraw asks the venue to return supplied tokens and verifies vault
// custody actually grew by the requested amount before reporting success.
func (uc *YieldUseCase) Withdraw(ctx context.Context, caller access.Caller, asset entity.Asset, amount decimal.Decimal) error {
	if err := uc.registry.RequireOwner(caller); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: withdrawal amount must be positive", entity.ErrInvalidArgument)
	}
	adapter := uc.yieldAdapter()
	if adapter == nil {
		return fmt.Errorf("%w: no yield adapter configured", entity.ErrAdapterFailure)
	}

	before, err := uc.vault.Custody(ctx, asset)
	if err != nil {
		return err
	}

	if err := adapter.WithdrawAsset(ctx, asset, amount, uc.service); err != nil {
		return err
	}

	after, err := uc.vault.Custody(ctx, asset)
	if err != nil {
		return err
	}
	if after.Sub(before).LessThan(amount) {
		return fmt.Errorf("%w: venue returned %s %s, expected %s", entity.ErrTransferFailed, after.Sub(before), asset, amount)
	}

	uc.audit.Record(ctx, entity.AuditEvent{
		Kind:      entity.AuditYieldWithdrawn,
		Timestamp: time.Now(),
		Account:   uc.service,
		Asset:     asset,
		Amount:    amount,
	})

	return nil
}

// SuppliedBalance reports the amount currently supplied at the venue.
func (uc *YieldUseCase) SuppliedBalance(ctx context.Context, asset entity.Asset) (decimal.Decimal, error) {
	adapter := uc.yieldAdapter()
	if adapter == nil {
		return decimal.Zero, fmt.Errorf("%w: no yield adapter configured", entity.ErrAdapterFailure)
	}
	return adapter.GetSuppliedBalance(ctx, uc.service, asset)
}
