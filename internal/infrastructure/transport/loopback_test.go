package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"arcvault.com/internal/domain/entity"
	"arcvault.com/internal/infrastructure/logger"
)

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTransport() *LoopbackTransport {
	return NewLoopbackTransport("arcvault-local", amt("1"), logger.NewLogger())
}

func TestLoopbackTransport_QuoteFee(t *testing.T) {
	ctx := context.Background()
	tr := newTransport()
	tr.SetFee("netX", amt("2.5"))

	fee, err := tr.QuoteFee(ctx, "netX", &entity.BridgeMessage{})
	if err != nil {
		t.Fatalf("QuoteFee() = %v, want nil", err)
	}
	if !fee.Equal(amt("2.5")) {
		t.Errorf("fee = %s, want 2.5 from schedule", fee)
	}

	fee, err = tr.QuoteFee(ctx, "netY", &entity.BridgeMessage{})
	if err != nil {
		t.Fatalf("QuoteFee() = %v, want nil", err)
	}
	if !fee.Equal(amt("1")) {
		t.Errorf("fee = %s, want default 1", fee)
	}

	if _, err := tr.QuoteFee(ctx, "", &entity.BridgeMessage{}); !errors.Is(err, entity.ErrInvalidArgument) {
		t.Fatalf("QuoteFee(empty dest) = %v, want ErrInvalidArgument", err)
	}
}

func TestLoopbackTransport_SubmitAssignsIdentity(t *testing.T) {
	ctx := context.Background()
	tr := newTransport()

	msg := &entity.BridgeMessage{
		Sender: "alice",
		Asset:  "USDC",
		Amount: amt("10"),
	}

	messageID, err := tr.Submit(ctx, "netX", msg)
	if err != nil {
		t.Fatalf("Submit() = %v, want nil", err)
	}
	if messageID == "" {
		t.Fatal("Submit() returned empty message ID")
	}

	inFlight := tr.InFlight(messageID)
	if inFlight == nil {
		t.Fatal("InFlight() = nil for submitted message")
	}
	if inFlight.MessageID != messageID {
		t.Errorf("MessageID = %s, want %s", inFlight.MessageID, messageID)
	}
	if inFlight.SourceNetworkID != "arcvault-local" {
		t.Errorf("SourceNetworkID = %s, want arcvault-local", inFlight.SourceNetworkID)
	}
	if inFlight.Sender != "alice" {
		t.Errorf("Sender = %s, want alice", inFlight.Sender)
	}

	// The submitted message itself is untouched.
	if msg.MessageID != "" {
		t.Errorf("caller's message mutated: MessageID = %s", msg.MessageID)
	}

	// IDs are unique per submission.
	second, err := tr.Submit(ctx, "netX", msg)
	if err != nil {
		t.Fatalf("Submit() = %v, want nil", err)
	}
	if second == messageID {
		t.Error("two submissions share a message ID")
	}
}

func TestLoopbackTransport_DeliversToHandler(t *testing.T) {
	ctx := context.Background()
	tr := newTransport()

	got := make(chan *entity.BridgeMessage, 1)
	tr.SetDeliveryHandler(func(ctx context.Context, msg *entity.BridgeMessage) {
		got <- msg
	})

	messageID, err := tr.Submit(ctx, "arcvault-local", &entity.BridgeMessage{
		Sender: "alice",
		Asset:  "USDC",
		Amount: amt("10"),
	})
	if err != nil {
		t.Fatalf("Submit() = %v, want nil", err)
	}

	select {
	case msg := <-got:
		if msg.MessageID != messageID {
			t.Errorf("delivered MessageID = %s, want %s", msg.MessageID, messageID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("handler never invoked")
	}
}

func TestLoopbackTransport_SubmitWithoutHandler(t *testing.T) {
	ctx := context.Background()
	tr := newTransport()

	// No handler registered: the message stays in flight, nothing panics.
	messageID, err := tr.Submit(ctx, "netX", &entity.BridgeMessage{Sender: "alice", Asset: "USDC", Amount: amt("1")})
	if err != nil {
		t.Fatalf("Submit() = %v, want nil", err)
	}
	if tr.InFlight(messageID) == nil {
		t.Fatal("InFlight() = nil, want submitted message")
	}
}
