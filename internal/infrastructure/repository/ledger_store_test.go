package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"arcvault.com/internal/domain/entity"
	"arcvault.com/internal/domain/port"
	"arcvault.com/internal/infrastructure/logger"
)

const (
	usdc  = entity.Asset("USDC")
	alice = entity.Account("alice")
	bob   = entity.Account("bob")
)

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newStore() *MemoryLedgerStore {
	return NewMemoryLedgerStore(logger.NewLogger())
}

func credit(t *testing.T, s *MemoryLedgerStore, asset entity.Asset, account entity.Account, amount string) {
	t.Helper()
	err := s.Update(context.Background(), func(tx port.LedgerTx) error {
		return tx.Credit(asset, account, amt(amount))
	})
	if err != nil {
		t.Fatalf("credit %s %s to %s: %v", amount, asset, account, err)
	}
}

func TestMemoryLedgerStore_CreditDebit(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	credit(t, s, usdc, alice, "100")

	err := s.Update(ctx, func(tx port.LedgerTx) error {
		return tx.Debit(usdc, alice, amt("40"))
	})
	if err != nil {
		t.Fatalf("Update() = %v, want nil", err)
	}

	balance, _ := s.Balance(ctx, usdc, alice)
	if !balance.Equal(amt("60")) {
		t.Errorf("Balance() = %s, want 60", balance)
	}
}

func TestMemoryLedgerStore_FailedTransactionDiscardsJournal(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	credit(t, s, usdc, alice, "100")

	boom := errors.New("boom")
	err := s.Update(ctx, func(tx port.LedgerTx) error {
		if err := tx.Debit(usdc, alice, amt("100")); err != nil {
			return err
		}
		if err := tx.Credit(usdc, bob, amt("100")); err != nil {
			return err
		}
		if err := tx.MarkProcessed("msg-1"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update() = %v, want boom", err)
	}

	// Nothing from the failed transaction is visible.
	aliceBalance, _ := s.Balance(ctx, usdc, alice)
	if !aliceBalance.Equal(amt("100")) {
		t.Errorf("alice = %s, want 100 untouched", aliceBalance)
	}
	bobBalance, _ := s.Balance(ctx, usdc, bob)
	if !bobBalance.IsZero() {
		t.Errorf("bob = %s, want 0", bobBalance)
	}
	if processed, _ := s.Processed(ctx, "msg-1"); processed {
		t.Error("Processed(msg-1) = true after rollback")
	}
}

func TestMemoryLedgerStore_JournalReadsOwnWrites(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	err := s.Update(ctx, func(tx port.LedgerTx) error {
		if err := tx.Credit(usdc, alice, amt("50")); err != nil {
			return err
		}
		if !tx.Balance(usdc, alice).Equal(amt("50")) {
			t.Errorf("tx.Balance() = %s mid-transaction, want 50", tx.Balance(usdc, alice))
		}
		return tx.Debit(usdc, alice, amt("50"))
	})
	if err != nil {
		t.Fatalf("Update() = %v, want nil", err)
	}

	balance, _ := s.Balance(ctx, usdc, alice)
	if !balance.IsZero() {
		t.Errorf("Balance() = %s, want 0", balance)
	}
}

func TestMemoryLedgerStore_DebitRejections(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	credit(t, s, usdc, alice, "10")

	tests := []struct {
		name    string
		amount  string
		wantErr error
	}{
		{"insufficient", "11", entity.ErrInsufficientBalance},
		{"zero", "0", entity.ErrInvalidArgument},
		{"negative", "-5", entity.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Update(ctx, func(tx port.LedgerTx) error {
				return tx.Debit(usdc, alice, amt(tt.amount))
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Update() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMemoryLedgerStore_MarkProcessed(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	mark := func(id string) error {
		return s.Update(ctx, func(tx port.LedgerTx) error {
			return tx.MarkProcessed(id)
		})
	}

	if err := mark("msg-1"); err != nil {
		t.Fatalf("MarkProcessed(msg-1) = %v, want nil", err)
	}
	if err := mark("msg-1"); !errors.Is(err, entity.ErrDuplicateMessage) {
		t.Fatalf("MarkProcessed(msg-1) again = %v, want ErrDuplicateMessage", err)
	}
	if err := mark(""); !errors.Is(err, entity.ErrInvalidArgument) {
		t.Fatalf("MarkProcessed(\"\") = %v, want ErrInvalidArgument", err)
	}

	// Duplicate inside one transaction is caught before commit.
	err := s.Update(ctx, func(tx port.LedgerTx) error {
		if err := tx.MarkProcessed("msg-2"); err != nil {
			return err
		}
		return tx.MarkProcessed("msg-2")
	})
	if !errors.Is(err, entity.ErrDuplicateMessage) {
		t.Fatalf("duplicate in one tx = %v, want ErrDuplicateMessage", err)
	}
	if processed, _ := s.Processed(ctx, "msg-2"); processed {
		t.Error("Processed(msg-2) = true after failed transaction")
	}
}

func TestMemoryLedgerStore_Total(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	credit(t, s, usdc, alice, "60")
	credit(t, s, usdc, bob, "40")
	credit(t, s, "DAI", alice, "7")

	total, _ := s.Total(ctx, usdc)
	if !total.Equal(amt("100")) {
		t.Errorf("Total(USDC) = %s, want 100", total)
	}
}

func TestMemoryLedgerStore_AccountBalances(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	credit(t, s, usdc, alice, "12.5")
	credit(t, s, "DAI", alice, "3")
	credit(t, s, usdc, bob, "99")

	// Zeroed entries are skipped.
	err := s.Update(ctx, func(tx port.LedgerTx) error {
		return tx.Debit("DAI", alice, amt("3"))
	})
	if err != nil {
		t.Fatalf("Update() = %v, want nil", err)
	}

	resp, err := s.AccountBalances(ctx, alice)
	if err != nil {
		t.Fatalf("AccountBalances() = %v, want nil", err)
	}
	if resp.Account != alice {
		t.Errorf("Account = %s, want %s", resp.Account, alice)
	}
	if len(resp.Balances) != 1 {
		t.Fatalf("Balances has %d entries, want 1: %v", len(resp.Balances), resp.Balances)
	}
	if got := resp.Balances[usdc]; got != "12.50000000" {
		t.Errorf("Balances[USDC] = %q, want %q", got, "12.50000000")
	}
}

func TestMemoryLedgerStore_ConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	credit(t, s, usdc, alice, "1000")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = s.Update(ctx, func(tx port.LedgerTx) error {
					if err := tx.Debit(usdc, alice, amt("1")); err != nil {
						return err
					}
					return tx.Credit(usdc, bob, amt("1"))
				})
			}
		}()
	}
	wg.Wait()

	aliceBalance, _ := s.Balance(ctx, usdc, alice)
	bobBalance, _ := s.Balance(ctx, usdc, bob)
	if !aliceBalance.Add(bobBalance).Equal(amt("1000")) {
		t.Errorf("alice %s + bob %s != 1000", aliceBalance, bobBalance)
	}
	if !bobBalance.Equal(amt("100")) {
		t.Errorf("bob = %s, want 100", bobBalance)
	}
}
