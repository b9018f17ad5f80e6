package port

import (
	"context"

	"github.com/shopspring/decimal"

	"arcvault.com/internal/domain/entity"
)

// LedgerTx is the mutable view of the ledger inside one transaction. All
// mutations are journaled; nothing is visible to other operations until the
// enclosing Update commits.
type LedgerTx interface {
	// Balance returns the current balance for (asset, account), zero when no
	// entry exists.
	Balance(asset entity.Asset, account entity.Account) decimal.Decimal
	// Credit adds amount to (asset, account), creating the entry on first use.
	// Fails ErrInvalidArgument for non-positive amounts.
	Credit(asset entity.Asset, account entity.Account, amount decimal.Decimal) error
	// Debit subtracts amount from (asset, account). Fails
	// ErrInsufficientBalance rather than going negative.
	Debit(asset entity.Asset, account entity.Account, amount decimal.Decimal) error
	// MarkProcessed records an inbound message ID. Fails ErrDuplicateMessage
	// if the ID was already applied by a committed transaction.
	MarkProcessed(messageID string) error
}

// LedgerStore owns all balance state. Update serializes writers: the closure
// works against a copy-on-write journal committed only when it returns nil,
// so a failing operation leaves no partial mutation behind.
type LedgerStore interface {
	Update(ctx context.Context, fn func(tx LedgerTx) error) error
	Balance(ctx context.Context, asset entity.Asset, account entity.Account) (decimal.Decimal, error)
	AccountBalances(ctx context.Context, account entity.Account) (*entity.BalanceResponse, error)
	// Total returns the sum of all ledger balances for one asset.
	Total(ctx context.Context, asset entity.Asset) (decimal.Decimal, error)
	// Processed reports whether a message ID was already applied.
	Processed(ctx context.Context, messageID string) (bool, error)
}
