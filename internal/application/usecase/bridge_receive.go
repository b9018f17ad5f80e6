package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"arcvault.com/internal/domain/access"
	"arcvault.com/internal/domain/entity"
	"arcvault.com/internal/domain/port"
	"arcvault.com/internal/infrastructure/logger"
)

// BridgeReceiveUseCase is the inbound entry point the transport invokes on
// message delivery: Received -> Authorized|Rejected -> (Swapping ->)
// Completed. Unauthorized and malformed messages are terminal rejections with
// zero state change; authorized ones are marked processed exactly once, then
// either swapped out to the final recipient's wallet or credited to the
// default receive account.
type BridgeReceiveUseCase struct {
	ledger   port.LedgerStore
	registry *access.Registry
	audit    port.AuditSink
	logger   logger.Logger

	// defaultReceive absorbs deliveries without swap instructions.
	defaultReceive entity.Account

	mu       sync.RWMutex
	exchange port.ExchangeAdapter
}

// NewBridgeReceiveUseCase creates a new BridgeReceiveUseCase.
func NewBridgeReceiveUseCase(
	ledger port.LedgerStore,
	registry *access.Registry,
	audit port.AuditSink,
	defaultReceive entity.Account,
	logger logger.Logger,
) *BridgeReceiveUseCase {
	return &BridgeReceiveUseCase{
		ledger:         ledger,
		registry:       registry,
		audit:          audit,
		defaultReceive: defaultReceive,
		logger:         logger,
	}
}

// SetExchangeAdapter installs or replaces the swap venue.
func (uc *BridgeReceiveUseCase) SetExchangeAdapter(exchange port.ExchangeAdapter) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.exchange = exchange
}

func (uc *BridgeReceiveUseCase) exchangeAdapter() port.ExchangeAdapter {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.exchange
}

// OnMessageDelivered processes one delivered message. The caller must be the
// transport identity holding the minter role; the sender allow-list is
// checked on top of that.
func (uc *BridgeReceiveUseCase) OnMessageDelivered(ctx context.Context, caller access.Caller, msg *entity.BridgeMessage) error {
	if err := uc.registry.RequireMinter(caller); err != nil {
		return err
	}

	if err := msg.Validate(); err != nil {
		uc.reject(ctx, msg, "malformed payload")
		return err
	}

	if !uc.registry.IsAuthorizedSender(msg.SourceNetworkID, msg.Sender) {
		uc.reject(ctx, msg, "sender not on allow-list")
		return fmt.Errorf("%w: sender %s on network %s", entity.ErrUnauthorized, msg.Sender, msg.SourceNetworkID)
	}

	if msg.Swap != nil {
		return uc.completeWithSwap(ctx, msg)
	}
	return uc.completeWithCredit(ctx, msg)
}

// completeWithCredit marks the message processed and credits the delivered
// asset to the default receive account, atomically.
func (uc *BridgeReceiveUseCase) completeWithCredit(ctx context.Context, msg *entity.BridgeMessage) error {
	err := uc.ledger.Update(ctx, func(tx port.LedgerTx) error {
		if err := tx.MarkProcessed(msg.MessageID); err != nil {
			return err
		}
		return tx.Credit(msg.Asset, uc.defaultReceive, msg.Amount)
	})
	if err != nil {
		uc.reject(ctx, msg, err.Error())
		return err
	}

	uc.audit.Record(ctx, entity.AuditEvent{
		Kind:            entity.AuditMessageProcessed,
		Timestamp:       time.Now(),
		Account:         uc.defaultReceive,
		Asset:           msg.Asset,
		Amount:          msg.Amount,
		MessageID:       msg.MessageID,
		SourceNetworkID: msg.SourceNetworkID,
		Sender:          msg.Sender,
	})

	return nil
}

// completeWithSwap converts the delivered amount and forwards the output
// directly to the final recipient's external wallet, never the ledger. The
// message is marked processed before the swap: delivery is final, so a
// failed swap leaves the value in vault custody for manual recovery rather
// than reopening the message for redelivery.
func (uc *BridgeReceiveUseCase) completeWithSwap(ctx context.Context, msg *entity.BridgeMessage) error {
	err := uc.ledger.Update(ctx, func(tx port.LedgerTx) error {
		return tx.MarkProcessed(msg.MessageID)
	})
	if err != nil {
		uc.reject(ctx, msg, err.Error())
		return err
	}

	exchange := uc.exchangeAdapter()
	if exchange == nil {
		uc.stranded(ctx, msg, "no exchange adapter configured")
		return fmt.Errorf("%w: no exchange adapter configured", entity.ErrAdapterFailure)
	}

	output, err := exchange.SwapExactInput(ctx, msg.Asset, msg.Swap.TargetAsset, msg.Amount, msg.Swap.MinOutput, msg.Swap.FinalRecipient)
	if err != nil {
		uc.stranded(ctx, msg, err.Error())
		return err
	}

	now := time.Now()
	uc.audit.Record(ctx, entity.AuditEvent{
		Kind:         entity.AuditSwapExecuted,
		Timestamp:    now,
		Account:      msg.Swap.FinalRecipient,
		Asset:        msg.Asset,
		Amount:       msg.Amount,
		OutputAsset:  msg.Swap.TargetAsset,
		OutputAmount: output,
		MessageID:    msg.MessageID,
	})
	uc.audit.Record(ctx, entity.AuditEvent{
		Kind:            entity.AuditMessageProcessed,
		Timestamp:       now,
		Account:         msg.Swap.FinalRecipient,
		Asset:           msg.Asset,
		Amount:          msg.Amount,
		OutputAsset:     msg.Swap.TargetAsset,
		OutputAmount:    output,
		MessageID:       msg.MessageID,
		SourceNetworkID: msg.SourceNetworkID,
		Sender:          msg.Sender,
	})

	return nil
}

// reject records a terminal rejection; no balance state has changed.
func (uc *BridgeReceiveUseCase) reject(ctx context.Context, msg *entity.BridgeMessage, reason string) {
	uc.audit.Record(ctx, entity.AuditEvent{
		Kind:            entity.AuditMessageRejected,
		Timestamp:       time.Now(),
		Asset:           msg.Asset,
		Amount:          msg.Amount,
		MessageID:       msg.MessageID,
		SourceNetworkID: msg.SourceNetworkID,
		Sender:          msg.Sender,
		Reason:          reason,
	})
}

// stranded records a processed message whose value stayed in vault custody.
func (uc *BridgeReceiveUseCase) stranded(ctx context.Context, msg *entity.BridgeMessage, reason string) {
	uc.logger.LogWarning(ctx, "Delivered value stranded in custody",
		"message_id", msg.MessageID,
		"asset", msg.Asset,
		"amount", msg.Amount.String(),
		"reason", reason)

	uc.audit.Record(ctx, entity.AuditEvent{
		Kind:            entity.AuditMessageProcessed,
		Timestamp:       time.Now(),
		Asset:           msg.Asset,
		Amount:          msg.Amount,
		MessageID:       msg.MessageID,
		SourceNetworkID: msg.SourceNetworkID,
		Sender:          msg.Sender,
		Reason:          reason,
	})
}
