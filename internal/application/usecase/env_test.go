package usecase

import (
	"github.com/shopspring/decimal"

	"arcvault.com/internal/domain/access"
	"arcvault.com/internal/domain/entity"
	"arcvault.com/internal/infrastructure/audit"
	"arcvault.com/internal/infrastructure/exchange"
	"arcvault.com/internal/infrastructure/logger"
	"arcvault.com/internal/infrastructure/repository"
	"arcvault.com/internal/infrastructure/transport"
	"arcvault.com/internal/infrastructure/vault"
	yieldvenue "arcvault.com/internal/infrastructure/yield"
)

const (
	testOwner     = entity.Account("owner")
	testAlice     = entity.Account("alice")
	testBob       = entity.Account("bob")
	testTransport = entity.Account("transport")
	testService   = entity.Account("arcvault-service")
	testReceive   = entity.Account("bridge-receive")
	testExVenue   = entity.Account("exchange-venue")
	testYdVenue   = entity.Account("yield-venue")

	usdc = entity.Asset("USDC")
	dai  = entity.Asset("DAI")

	netRemote = entity.NetworkID("netX")
)

// testEnv wires the full stack against in-memory collaborators.
type testEnv struct {
	registry *access.Registry
	ledger   *repository.MemoryLedgerStore
	vault    *vault.MemoryVault
	audit    *audit.Journal
	loopback *transport.LoopbackTransport
	exchange *exchange.FixedRateExchange
	venue    *yieldvenue.MemoryVenue

	custody  *CustodyUseCase
	balances *GetBalanceUseCase
	send     *BridgeSendUseCase
	receive  *BridgeReceiveUseCase
	yield    *YieldUseCase
	admin    *AdminUseCase
}

func newTestEnv() *testEnv {
	log := logger.NewLogger()

	registry := access.NewRegistry(testOwner, []entity.Asset{usdc, dai})
	registry.SetMinter(testTransport, true)
	registry.SetBurner(testService, true)

	ledger := repository.NewMemoryLedgerStore(log)
	vaultStore := vault.NewMemoryVault(log)
	journal := audit.NewJournal(log)
	loopback := transport.NewLoopbackTransport("arcvault-local", decimal.RequireFromString("1"), log)
	exchangeVenue := exchange.NewFixedRateExchange(vaultStore, testExVenue, log)
	lendingVenue := yieldvenue.NewMemoryVenue(vaultStore, testYdVenue, log)

	env := &testEnv{
		registry: registry,
		ledger:   ledger,
		vault:    vaultStore,
		audit:    journal,
		loopback: loopback,
		exchange: exchangeVenue,
		venue:    lendingVenue,
	}

	env.custody = NewCustodyUseCase(ledger, vaultStore, registry, journal)
	env.balances = NewGetBalanceUseCase(ledger)
	env.send = NewBridgeSendUseCase(ledger, loopback, registry, journal, usdc, access.Caller{Account: testService})
	env.receive = NewBridgeReceiveUseCase(ledger, registry, journal, testReceive, log)
	env.receive.SetExchangeAdapter(exchangeVenue)
	env.yield = NewYieldUseCase(vaultStore, registry, journal, testYdVenue, testService, log)
	env.yield.SetAdapter(lendingVenue)
	env.admin = NewAdminUseCase(registry, vaultStore, journal, env.receive, env.yield, log)

	return env
}

func caller(account entity.Account) access.Caller {
	return access.Caller{Account: account}
}

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
