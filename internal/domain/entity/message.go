package entity

import (
	"github.com/shopspring/decimal"
)

// SwapInstructions ask the receiving side to convert the delivered amount
// into TargetAsset and forward the output directly to FinalRecipient's
// external wallet. MinOutput bounds acceptable slippage; the swap fails
// rather than deliver less.
type SwapInstructions struct {
	TargetAsset    Asset           `json:"targetAsset"`
	MinOutput      decimal.Decimal `json:"minOutput"`
	FinalRecipient Account         `json:"finalRecipient"`
}

// BridgeMessage is the wire payload exchanged between networks. Exactly one
// asset/amount pair per message.
type BridgeMessage struct {
	MessageID       string            `json:"messageId"`
	SourceNetworkID NetworkID         `json:"sourceNetworkId"`
	Sender          Account           `json:"sender"`
	Asset           Asset             `json:"asset"`
	Amount          decimal.Decimal   `json:"amount"`
	Swap            *SwapInstructions `json:"swap,omitempty"`
}

// Validate checks the structural requirements of an inbound message.
func (m *BridgeMessage) Validate() error {
	if m.MessageID == "" {
		return ErrInvalidMessage
	}
	if m.SourceNetworkID == "" || m.Sender == "" {
		return ErrInvalidMessage
	}
	if m.Asset == "" || !m.Amount.IsPositive() {
		return ErrInvalidMessage
	}
	if m.Swap != nil {
		if m.Swap.TargetAsset == "" || m.Swap.FinalRecipient == "" {
			return ErrInvalidMessage
		}
		if m.Swap.MinOutput.IsNegative() {
			return ErrInvalidMessage
		}
	}
	return nil
}
