package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"arcvault.com/internal/domain/access"
	"arcvault.com/internal/domain/entity"
	"arcvault.com/internal/domain/port"
)

// CustodyUseCase implements deposit, withdraw, and internal transfer against
// the ledger. Each operation runs its guards in order (pause check, then
// registry checks, then the transaction) and commits atomically.
type CustodyUseCase struct {
	ledger   port.LedgerStore
	vault    port.TokenVault
	registry *access.Registry
	audit    port.AuditSink
}

// NewCustodyUseCase creates a new CustodyUseCase.
func NewCustodyUseCase(
	ledger port.LedgerStore,
	vault port.TokenVault,
	registry *access.Registry,
	audit port.AuditSink,
) *CustodyUseCase {
	return &CustodyUseCase{
		ledger:   ledger,
		vault:    vault,
		registry: registry,
		audit:    audit,
	}
}

// Deposit pulls tokens from the caller's external wallet into vault custody
// and credits the ledger with the amount actually received, which protects
// the ledger against fee-on-transfer shortfalls.
func (uc *CustodyUseCase) Deposit(ctx context.Context, caller access.Caller, asset entity.Asset, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := uc.registry.RequireActive(); err != nil {
		return decimal.Zero, err
	}
	if err := uc.registry.RequireSupported(asset); err != nil {
		return decimal.Zero, err
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: deposit amount must be positive", entity.ErrInvalidArgument)
	}

	var received decimal.Decimal
	err := uc.ledger.Update(ctx, func(tx port.LedgerTx) error {
		var err error
		received, err = uc.vault.Pull(ctx, caller.Account, asset, amount)
		if err != nil {
			return err
		}
		if !received.IsPositive() {
			return fmt.Errorf("%w: nothing received", entity.ErrTransferFailed)
		}
		return tx.Credit(asset, caller.Account, received)
	})
	if err != nil {
		return decimal.Zero, err
	}

	uc.audit.Record(ctx, entity.AuditEvent{
		Kind:      entity.AuditDeposit,
		Timestamp: time.Now(),
		Account:   caller.Account,
		Asset:     asset,
		Amount:    received,
	})

	return received, nil
}

// Withdraw debits the ledger first and only then pushes tokens out of vault
// custody. A failed push discards the debit with the rest of the transaction.
func (uc *CustodyUseCase) Withdraw(ctx context.Context, caller access.Caller, asset entity.Asset, amount decimal.Decimal, to entity.Account) error {
	if err := uc.registry.RequireActive(); err != nil {
		return err
	}
	if err := uc.registry.RequireSupported(asset); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: withdrawal amount must be positive", entity.ErrInvalidArgument)
	}
	if to == "" {
		to = caller.Account
	}

	err := uc.ledger.Update(ctx, func(tx port.LedgerTx) error {
		if err := tx.Debit(asset, caller.Account, amount); err != nil {
			return err
		}
		return uc.vault.Push(ctx, to, asset, amount)
	})
	if err != nil {
		return err
	}

	uc.audit.Record(ctx, entity.AuditEvent{
		Kind:         entity.AuditWithdrawal,
		Timestamp:    time.Now(),
		Account:      caller.Account,
		Counterparty: to,
		Asset:        asset,
		Amount:       amount,
	})

	return nil
}

// InternalTransfer moves balance between two ledger accounts with no custody
// movement.
func (uc *CustodyUseCase) InternalTransfer(ctx context.Context, caller access.Caller, asset entity.Asset, amount decimal.Decimal, to entity.Account) error {
	if err := uc.registry.RequireActive(); err != nil {
		return err
	}
	if err := uc.registry.RequireSupported(asset); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: transfer amount must be positive", entity.ErrInvalidArgument)
	}
	if to == "" {
		return fmt.Errorf("%w: empty recipient", entity.ErrInvalidArgument)
	}
	if to == caller.Account {
		return fmt.Errorf("%w: self-transfer", entity.ErrInvalidArgument)
	}

	err := uc.ledger.Update(ctx, func(tx port.LedgerTx) error {
		if err := tx.Debit(asset, caller.Account, amount); err != nil {
			return err
		}
		return tx.Credit(asset, to, amount)
	})
	if err != nil {
		return err
	}

	uc.audit.Record(ctx, entity.AuditEvent{
		Kind:         entity.AuditInternalTransfer,
		Timestamp:    time.Now(),
		Account:      caller.Account,
		Counterparty: to,
		Asset:        asset,
		Amount:       amount,
	})

	return nil
}
