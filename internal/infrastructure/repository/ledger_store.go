package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"arcvault.com/internal/domain/entity"
	"arcvault.com/internal/domain/port"
	"arcvault.com/internal/infrastructure/logger"
)

// MemoryLedgerStore implements the LedgerStore port. A single mutex
// serializes all writers; each Update works against a copy-on-write journal
// that is applied only when the closure returns nil, so no failed operation
// ever leaves a partial mutation behind.
type MemoryLedgerStore struct {
	mu        sync.RWMutex
	balances  map[entity.BalanceKey]decimal.Decimal
	processed map[string]struct{}
	logger    logger.Logger
}

// NewMemoryLedgerStore creates an empty in-memory ledger store.
func NewMemoryLedgerStore(logger logger.Logger) *MemoryLedgerStore {
	return &MemoryLedgerStore{
		balances:  make(map[entity.BalanceKey]decimal.Decimal),
		processed: make(map[string]struct{}),
		logger:    logger,
	}
}

// journalTx overlays uncommitted changes on the committed state.
type journalTx struct {
	store     *MemoryLedgerStore
	balances  map[entity.BalanceKey]decimal.Decimal
	processed map[string]struct{}
}

func (tx *journalTx) Balance(asset entity.Asset, account entity.Account) decimal.Decimal {
	key := entity.BalanceKey{Asset: asset, Account: account}
	if v, ok := tx.balances[key]; ok {
		return v
	}
	if v, ok := tx.store.balances[key]; ok {
		return v
	}
	return decimal.Zero
}

func (tx *journalTx) Credit(asset entity.Asset, account entity.Account, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: credit amount must be positive, got %s", entity.ErrInvalidArgument, amount)
	}
	key := entity.BalanceKey{Asset: asset, Account: account}
	tx.balances[key] = tx.Balance(asset, account).Add(amount)
	return nil
}

func (tx *journalTx) Debit(asset entity.Asset, account entity.Account, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: debit amount must be positive, got %s", entity.ErrInvalidArgument, amount)
	}
	current := tx.Balance(asset, account)
	if current.LessThan(amount) {
		return fmt.Errorf("%w: %s has %s %s, need %s", entity.ErrInsufficientBalance, account, current, asset, amount)
	}
	key := entity.BalanceKey{Asset: asset, Account: account}
	tx.balances[key] = current.Sub(amount)
	return nil
}

func (tx *journalTx) MarkProcessed(messageID string) error {
	if messageID == "" {
		return fmt.Errorf("%w: empty message id", entity.ErrInvalidArgument)
	}
	if _, ok := tx.store.processed[messageID]; ok {
		return fmt.Errorf("%w: %s", entity.ErrDuplicateMessage, messageID)
	}
	if _, ok := tx.processed[messageID]; ok {
		return fmt.Errorf("%w: %s", entity.ErrDuplicateMessage, messageID)
	}
	tx.processed[messageID] = struct{}{}
	return nil
}

// Update runs fn inside a serialized transaction and commits its journal on
// success. External calls made inside fn either complete or fail the whole
// transaction; there is no partial commit.
func (s *MemoryLedgerStore) Update(ctx context.Context, fn func(tx port.LedgerTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &journalTx{
		store:     s,
		balances:  make(map[entity.BalanceKey]decimal.Decimal),
		processed: make(map[string]struct{}),
	}

	if err := fn(tx); err != nil {
		return err
	}

	for key, v := range tx.balances {
		s.balances[key] = v
	}
	for id := range tx.processed {
		s.processed[id] = struct{}{}
	}

	s.logger.LogInfo(ctx, "Ledger transaction committed",
		"entries", len(tx.balances),
		"messages", len(tx.processed))

	return nil
}

// Balance returns the committed balance, zero when no entry exists.
func (s *MemoryLedgerStore) Balance(ctx context.Context, asset entity.Asset, account entity.Account) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if v, ok := s.balances[entity.BalanceKey{Asset: asset, Account: account}]; ok {
		return v, nil
	}
	return decimal.Zero, nil
}

// AccountBalances returns every non-zero holding of one account.
func (s *MemoryLedgerStore) AccountBalances(ctx context.Context, account entity.Account) (*entity.BalanceResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	balances := make(map[entity.Asset]string)
	for key, v := range s.balances {
		if key.Account == account && !v.IsZero() {
			balances[key.Asset] = v.StringFixed(8)
		}
	}

	return &entity.BalanceResponse{
		Account:  account,
		Balances: balances,
	}, nil
}

// Total returns the sum of all committed balances for one asset.
func (s *MemoryLedgerStore) Total(ctx context.Context, asset entity.Asset) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for key, v := range s.balances {
		if key.Asset == asset {
			total = total.Add(v)
		}
	}
	return total, nil
}

// Processed reports whether a message ID was applied by a committed
// transaction.
func (s *MemoryLedgerStore) Processed(ctx context.Context, messageID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.processed[messageID]
	return ok, nil
}
