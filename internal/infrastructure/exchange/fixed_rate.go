package exchange

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"arcvault.com/internal/domain/entity"
	"arcvault.com/internal/infrastructure/logger"
	"arcvault.com/internal/infrastructure/vault"
)

// FixedRateExchange implements the ExchangeAdapter port against a static rate
// table. The input leaves vault custody for the venue's wallet; the venue
// pays the output straight into the recipient's external wallet. A real venue
// would discover rates on chain; one quoted rate per pair is all the inbound
// swap path consumes.
type FixedRateExchange struct {
	mu      sync.RWMutex
	rates   map[pair]decimal.Decimal
	vault   *vault.MemoryVault
	account entity.Account
	failure error
	logger  logger.Logger
}

type pair struct {
	In  entity.Asset
	Out entity.Asset
}

// NewFixedRateExchange creates an exchange venue operating against the given
// vault under its own venue account.
func NewFixedRateExchange(v *vault.MemoryVault, account entity.Account, logger logger.Logger) *FixedRateExchange {
	return &FixedRateExchange{
		rates:   make(map[pair]decimal.Decimal),
		vault:   v,
		account: account,
		logger:  logger,
	}
}

// SetRate quotes out-per-in for one direction of a pair.
func (e *FixedRateExchange) SetRate(in, out entity.Asset, rate decimal.Decimal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rates[pair{In: in, Out: out}] = rate
}

// SetFailure forces every subsequent swap to fail with err. Test hook.
func (e *FixedRateExchange) SetFailure(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failure = err
}

// SwapExactInput converts amount of in into out and delivers the output to
// the recipient's external wallet. Fails without moving anything when the
// pair is unquoted or the output would fall below minOutput.
func (e *FixedRateExchange) SwapExactInput(ctx context.Context, in, out entity.Asset, amount, minOutput decimal.Decimal, recipient entity.Account) (decimal.Decimal, error) {
	e.mu.RLock()
	rate, ok := e.rates[pair{In: in, Out: out}]
	failure := e.failure
	e.mu.RUnlock()

	if failure != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", entity.ErrAdapterFailure, failure)
	}
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no rate for %s/%s", entity.ErrAdapterFailure, in, out)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: swap amount must be positive", entity.ErrInvalidArgument)
	}

	output := amount.Mul(rate)
	if output.LessThan(minOutput) {
		return decimal.Zero, fmt.Errorf("%w: output %s %s below minimum %s", entity.ErrAdapterFailure, output, out, minOutput)
	}

	// Take the input from vault custody, then pay the output out.
	if err := e.vault.Push(ctx, e.account, in, amount); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", entity.ErrAdapterFailure, err)
	}
	e.vault.Fund(recipient, out, output)

	e.logger.LogInfo(ctx, "Swap executed",
		"in", in,
		"out", out,
		"amount", amount.String(),
		"output", output.String(),
		"recipient", recipient)

	return output, nil
}
