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

// BridgeSendUseCase builds and submits outbound cross-network messages.
// Validation, the fee check, both debits, and the transport submission run in
// one ledger transaction: any failure along the way leaves every balance
// untouched, and once Submit succeeds the value is in flight for good.
type BridgeSendUseCase struct {
	ledger    port.LedgerStore
	transport port.BridgeTransport
	registry  *access.Registry
	audit     port.AuditSink
	feeAsset  entity.Asset
	// service is the identity the outbound debit burns local supply under;
	// it must hold the burner role.
	service access.Caller
}

// NewBridgeSendUseCase creates a new BridgeSendUseCase.
func NewBridgeSendUseCase(
	ledger port.LedgerStore,
	transport port.BridgeTransport,
	registry *access.Registry,
	audit port.AuditSink,
	feeAsset entity.Asset,
	service access.Caller,
) *BridgeSendUseCase {
	return &BridgeSendUseCase{
		ledger:    ledger,
		transport: transport,
		registry:  registry,
		audit:     audit,
		feeAsset:  feeAsset,
		service:   service,
	}
}

// Send debits the caller, pays the transport fee, and submits the message.
// Returns the transport-assigned message ID.
func (uc *BridgeSendUseCase) Send(
	ctx context.Context,
	caller access.Caller,
	dest entity.NetworkID,
	asset entity.Asset,
	amount decimal.Decimal,
	swap *entity.SwapInstructions,
) (string, error) {
	if err := uc.registry.RequireActive(); err != nil {
		return "", err
	}
	if err := uc.registry.RequireSupported(asset); err != nil {
		return "", err
	}
	if !amount.IsPositive() {
		return "", fmt.Errorf("%w: bridge amount must be positive", entity.ErrInvalidArgument)
	}
	if dest == "" {
		return "", fmt.Errorf("%w: empty destination network", entity.ErrInvalidArgument)
	}
	if swap != nil {
		if swap.TargetAsset == "" || swap.FinalRecipient == "" {
			return "", fmt.Errorf("%w: incomplete swap instructions", entity.ErrInvalidArgument)
		}
		if swap.MinOutput.IsNegative() {
			return "", fmt.Errorf("%w: negative minimum output", entity.ErrInvalidArgument)
		}
	}
	if err := uc.registry.RequireBurner(uc.service); err != nil {
		return "", err
	}

	msg := &entity.BridgeMessage{
		Sender: caller.Account,
		Asset:  asset,
		Amount: amount,
		Swap:   swap,
	}

	var messageID string
	var fee decimal.Decimal
	err := uc.ledger.Update(ctx, func(tx port.LedgerTx) error {
		var err error
		fee, err = uc.transport.QuoteFee(ctx, dest, msg)
		if err != nil {
			return err
		}

		if err := tx.Debit(asset, caller.Account, amount); err != nil {
			return err
		}
		if fee.IsPositive() {
			if tx.Balance(uc.feeAsset, caller.Account).LessThan(fee) {
				return fmt.Errorf("%w: need %s %s", entity.ErrInsufficientFee, fee, uc.feeAsset)
			}
			if err := tx.Debit(uc.feeAsset, caller.Account, fee); err != nil {
				return err
			}
		}

		messageID, err = uc.transport.Submit(ctx, dest, msg)
		return err
	})
	if err != nil {
		return "", err
	}

	uc.audit.Record(ctx, entity.AuditEvent{
		Kind:          entity.AuditBridgeSubmitted,
		Timestamp:     time.Now(),
		Account:       caller.Account,
		Asset:         asset,
		Amount:        amount,
		Fee:           fee,
		MessageID:     messageID,
		DestNetworkID: dest,
	})

	return messageID, nil
}
