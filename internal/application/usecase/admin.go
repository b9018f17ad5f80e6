package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"arcvault.com/internal/domain/access"
	"arcvault.com/internal/domain/entity"
	"arcvault.com/internal/domain/port"
	"arcvault.com/internal/infrastructure/logger"
)

// AdminUseCase is the owner-only surface: registries, roles, the circuit
// breaker, adapter wiring, and stranded-asset recovery. It stays available
// while the breaker is tripped; pausing must never lock the owner out of
// remediation.
type AdminUseCase struct {
	registry *access.Registry
	vault    port.TokenVault
	audit    port.AuditSink
	receive  *BridgeReceiveUseCase
	yield    *YieldUseCase
	logger   logger.Logger
}

// NewAdminUseCase creates a new AdminUseCase.
func NewAdminUseCase(
	registry *access.Registry,
	vault port.TokenVault,
	audit port.AuditSink,
	receive *BridgeReceiveUseCase,
	yield *YieldUseCase,
	logger logger.Logger,
) *AdminUseCase {
	return &AdminUseCase{
		registry: registry,
		vault:    vault,
		audit:    audit,
		receive:  receive,
		yield:    yield,
		logger:   logger,
	}
}

// ToggleAssetSupport adds or removes an asset from the supported set.
func (uc *AdminUseCase) ToggleAssetSupport(ctx context.Context, caller access.Caller, asset entity.Asset, supported bool) error {
	if err := uc.registry.RequireOwner(caller); err != nil {
		return err
	}
	if asset == "" {
		return fmt.Errorf("%w: empty asset", entity.ErrInvalidArgument)
	}
	uc.registry.SetAssetSupport(asset, supported)
	uc.logger.LogInfo(ctx, "Asset support toggled", "asset", asset, "supported", supported)
	return nil
}

// SetAuthorizedSender adds or removes a (network, sender) pair from the
// inbound allow-list.
func (uc *AdminUseCase) SetAuthorizedSender(ctx context.Context, caller access.Caller, network entity.NetworkID, sender entity.Account, allowed bool) error {
	if err := uc.registry.RequireOwner(caller); err != nil {
		return err
	}
	if network == "" || sender == "" {
		return fmt.Errorf("%w: empty network or sender", entity.ErrInvalidArgument)
	}
	uc.registry.SetAuthorizedSender(network, sender, allowed)
	uc.logger.LogInfo(ctx, "Authorized sender updated",
		"network", network, "sender", sender, "allowed", allowed)
	return nil
}

// SetMinter grants or revokes the minter role.
func (uc *AdminUseCase) SetMinter(ctx context.Context, caller access.Caller, account entity.Account, allowed bool) error {
	if err := uc.registry.RequireOwner(caller); err != nil {
		return err
	}
	if account == "" {
		return fmt.Errorf("%w: empty account", entity.ErrInvalidArgument)
	}
	uc.registry.SetMinter(account, allowed)
	uc.logger.LogInfo(ctx, "Minter role updated", "account", account, "allowed", allowed)
	return nil
}

// SetBurner grants or revokes the burner role.
func (uc *AdminUseCase) SetBurner(ctx context.Context, caller access.Caller, account entity.Account, allowed bool) error {
	if err := uc.registry.RequireOwner(caller); err != nil {
		return err
	}
	if account == "" {
		return fmt.Errorf("%w: empty account", entity.ErrInvalidArgument)
	}
	uc.registry.SetBurner(account, allowed)
	uc.logger.LogInfo(ctx, "Burner role updated", "account", account, "allowed", allowed)
	return nil
}

// Pause trips the circuit breaker.
func (uc *AdminUseCase) Pause(ctx context.Context, caller access.Caller) error {
	if err := uc.registry.RequireOwner(caller); err != nil {
		return err
	}
	uc.registry.Pause()
	uc.logger.LogWarning(ctx, "Circuit breaker tripped", "by", caller.Account)
	return nil
}

// Unpause clears the circuit breaker.
func (uc *AdminUseCase) Unpause(ctx context.Context, caller access.Caller) error {
	if err := uc.registry.RequireOwner(caller); err != nil {
		return err
	}
	uc.registry.Unpause()
	uc.logger.LogInfo(ctx, "Circuit breaker cleared", "by", caller.Account)
	return nil
}

// TransferOwnership proposes a new owner; the move completes only when the
// proposed owner accepts.
func (uc *AdminUseCase) TransferOwnership(ctx context.Context, caller access.Caller, newOwner entity.Account) error {
	if err := uc.registry.TransferOwnership(caller, newOwner); err != nil {
		return err
	}
	uc.logger.LogInfo(ctx, "Ownership transfer proposed",
		"from", caller.Account, "to", newOwner)
	return nil
}

// AcceptOwnership completes a pending ownership transfer.
func (uc *AdminUseCase) AcceptOwnership(ctx context.Context, caller access.Caller) error {
	if err := uc.registry.AcceptOwnership(caller); err != nil {
		return err
	}
	uc.logger.LogInfo(ctx, "Ownership transfer accepted", "new_owner", caller.Account)
	return nil
}

// SetExchangeAdapter installs the swap venue used on inbound delivery.
func (uc *AdminUseCase) SetExchangeAdapter(ctx context.Context, caller access.Caller, adapter port.ExchangeAdapter) error {
	if err := uc.registry.RequireOwner(caller); err != nil {
		return err
	}
	uc.receive.SetExchangeAdapter(adapter)
	uc.logger.LogInfo(ctx, "Exchange adapter replaced")
	return nil
}

// SetYieldAdapter installs the lending venue.
func (uc *AdminUseCase) SetYieldAdapter(ctx context.Context, caller access.Caller, adapter port.YieldAdapter) error {
	if err := uc.registry.RequireOwner(caller); err != nil {
		return err
	}
	uc.yield.SetAdapter(adapter)
	uc.logger.LogInfo(ctx, "Yield adapter replaced")
	return nil
}

// RecoverStrandedAsset pushes tokens out of vault custody to a recovery
// address. Supported assets belong to depositors, so recovering one requires
// the explicit force flag.
func (uc *AdminUseCase) RecoverStrandedAsset(ctx context.Context, caller access.Caller, asset entity.Asset, amount decimal.Decimal, to entity.Account, force bool) error {
	if err := uc.registry.RequireOwner(caller); err != nil {
		return err
	}
	if asset == "" || to == "" {
		return fmt.Errorf("%w: empty asset or recipient", entity.ErrInvalidArgument)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: recovery amount must be positive", entity.ErrInvalidArgument)
	}
	if uc.registry.IsSupported(asset) && !force {
		return fmt.Errorf("%w: %s is a supported asset, recovery requires force", entity.ErrInvalidArgument, asset)
	}

	if err := uc.vault.Push(ctx, to, asset, amount); err != nil {
		return err
	}

	uc.audit.Record(ctx, entity.AuditEvent{
		Kind:         entity.AuditAssetRecovered,
		Timestamp:    time.Now(),
		Account:      caller.Account,
		Counterparty: to,
		Asset:        asset,
		Amount:       amount,
	})

	return nil
}
