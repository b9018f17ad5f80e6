package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuditKind names the operation an audit event records.
type AuditKind string

const (
	AuditDeposit          AuditKind = "Deposit"
	AuditWithdrawal       AuditKind = "Withdrawal"
	AuditInternalTransfer AuditKind = "InternalTransfer"
	AuditBridgeSubmitted  AuditKind = "BridgeSubmitted"
	AuditMessageProcessed AuditKind = "MessageProcessed"
	AuditMessageRejected  AuditKind = "MessageRejected"
	AuditSwapExecuted     AuditKind = "SwapExecuted"
	AuditYieldSupplied    AuditKind = "YieldSupplied"
	AuditYieldWithdrawn   AuditKind = "YieldWithdrawn"
	AuditAssetRecovered   AuditKind = "AssetRecovered"
)

// AuditEvent is the record emitted after every successful mutation (and for
// terminal inbound rejections) for off-chain reconciliation.
type AuditEvent struct {
	Kind            AuditKind       `json:"kind"`
	Timestamp       time.Time       `json:"timestamp"`
	Account         Account         `json:"account,omitempty"`
	Counterparty    Account         `json:"counterparty,omitempty"`
	Asset           Asset           `json:"asset,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	OutputAsset     Asset           `json:"outputAsset,omitempty"`
	OutputAmount    decimal.Decimal `json:"outputAmount"`
	Fee             decimal.Decimal `json:"fee"`
	MessageID       string          `json:"messageId,omitempty"`
	SourceNetworkID NetworkID       `json:"sourceNetworkId,omitempty"`
	DestNetworkID   NetworkID       `json:"destNetworkId,omitempty"`
	Sender          Account         `json:"sender,omitempty"`
	Reason          string          `json:"reason,omitempty"`
}
