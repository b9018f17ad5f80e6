package breaker

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"arcvault.com/internal/domain/entity"
	"arcvault.com/internal/domain/port"
)

// Circuit trips after a run of consecutive failures and fails calls fast
// while open, so a dead external venue cannot stall every ledger transaction.
type Circuit struct {
	cb *gobreaker.CircuitBreaker
}

// NewCircuit creates a breaker that opens after failures consecutive errors
// and probes again after timeout.
func NewCircuit(name string, failures uint32, timeout time.Duration) *Circuit {
	st := gobreaker.Settings{Name: name}
	st.ReadyToTrip = func(counts gobreaker.Counts) bool { return counts.ConsecutiveFailures >= failures }
	st.Interval = 0
	st.Timeout = timeout
	return &Circuit{cb: gobreaker.NewCircuitBreaker(st)}
}

func (c *Circuit) execute(fn func() (interface{}, error)) (interface{}, error) {
	v, err := c.cb.Execute(fn)
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return v, fmt.Errorf("%w: %s circuit open", entity.ErrAdapterFailure, c.cb.Name())
	}
	return v, err
}

// YieldAdapter wraps a YieldAdapter with a Circuit.
type YieldAdapter struct {
	next    port.YieldAdapter
	circuit *Circuit
}

// WrapYield decorates a yield adapter with the circuit.
func WrapYield(next port.YieldAdapter, circuit *Circuit) *YieldAdapter {
	return &YieldAdapter{next: next, circuit: circuit}
}

func (a *YieldAdapter) SupplyAsset(ctx context.Context, asset entity.Asset, amount decimal.Decimal, onBehalfOf entity.Account) error {
	_, err := a.circuit.execute(func() (interface{}, error) {
		return nil, a.next.SupplyAsset(ctx, asset, amount, onBehalfOf)
	})
	return err
}

func (a *YieldAdapter) WithdrawAsset(ctx context.Context, asset entity.Asset, amount decimal.Decimal, recipient entity.Account) error {
	_, err := a.circuit.execute(func() (interface{}, error) {
		return nil, a.next.WithdrawAsset(ctx, asset, amount, recipient)
	})
	return err
}

func (a *YieldAdapter) GetSuppliedBalance(ctx context.Context, account entity.Account, asset entity.Asset) (decimal.Decimal, error) {
	v, err := a.circuit.execute(func() (interface{}, error) {
		return a.next.GetSuppliedBalance(ctx, account, asset)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return v.(decimal.Decimal), nil
}

// ExchangeAdapter wraps an ExchangeAdapter with a Circuit.
type ExchangeAdapter struct {
	next    port.ExchangeAdapter
	circuit *Circuit
}

// WrapExchange decorates an exchange adapter with the circuit.
func WrapExchange(next port.ExchangeAdapter, circuit *Circuit) *ExchangeAdapter {
	return &ExchangeAdapter{next: next, circuit: circuit}
}

func (a *ExchangeAdapter) SwapExactInput(ctx context.Context, in, out entity.Asset, amount, minOutput decimal.Decimal, recipient entity.Account) (decimal.Decimal, error) {
	v, err := a.circuit.execute(func() (interface{}, error) {
		return a.next.SwapExactInput(ctx, in, out, amount, minOutput, recipient)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return v.(decimal.Decimal), nil
}

// Transport wraps a BridgeTransport with a Circuit.
type Transport struct {
	next    port.BridgeTransport
	circuit *Circuit
}

// WrapTransport decorates a transport with the circuit.
func WrapTransport(next port.BridgeTransport, circuit *Circuit) *Transport {
	return &Transport{next: next, circuit: circuit}
}

func (t *Transport) QuoteFee(ctx context.Context, dest entity.NetworkID, msg *entity.BridgeMessage) (decimal.Decimal, error) {
	v, err := t.circuit.execute(func() (interface{}, error) {
		return t.next.QuoteFee(ctx, dest, msg)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return v.(decimal.Decimal), nil
}

func (t *Transport) Submit(ctx context.Context, dest entity.NetworkID, msg *entity.BridgeMessage) (string, error) {
	v, err := t.circuit.execute(func() (interface{}, error) {
		return t.next.Submit(ctx, dest, msg)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
