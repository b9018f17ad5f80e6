package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"arcvault.com/internal/application/usecase"
	"arcvault.com/internal/domain/access"
	"arcvault.com/internal/domain/entity"
	"arcvault.com/internal/infrastructure/audit"
	"arcvault.com/internal/infrastructure/breaker"
	"arcvault.com/internal/infrastructure/config"
	"arcvault.com/internal/infrastructure/exchange"
	httphandler "arcvault.com/internal/infrastructure/http"
	"arcvault.com/internal/infrastructure/logger"
	"arcvault.com/internal/infrastructure/metrics"
	"arcvault.com/internal/infrastructure/repository"
	"arcvault.com/internal/infrastructure/transport"
	"arcvault.com/internal/infrastructure/validator"
	"arcvault.com/internal/infrastructure/vault"
	yieldvenue "arcvault.com/internal/infrastructure/yield"
)

const serverDir = "server"

var apiServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Run API Server.",
	RunE: func(_ *cobra.Command, _ []string) error {
		// Initialize logger
		appLogger := logger.NewLogger()

		// Get config directory (relative to where the binary is run from)
		configDir := filepath.Join("cmd", "config", serverDir)
		if _, err := os.Stat(configDir); os.IsNotExist(err) {
			configDir = filepath.Join(".", "cmd", "config", serverDir)
		}

		// Load configuration
		cfg, err := config.LoadConfig(configDir)
		if err != nil {
			appLogger.LogError(context.TODO(), "Failed to load config", err)
			return fmt.Errorf("failed to load config: %w", err)
		}

		appLogger.LogInfo(context.TODO(), "Configuration loaded",
			"port", cfg.Server.Port,
			"local_network", cfg.Bridge.LocalNetworkID,
			"fee_asset", cfg.Bridge.FeeAsset)

		// Control plane: owner, supported assets, roles.
		assets := make([]entity.Asset, 0, len(cfg.Vault.SupportedAssets))
		for _, a := range cfg.Vault.SupportedAssets {
			assets = append(assets, entity.Asset(a))
		}
		registry := access.NewRegistry(entity.Account(cfg.Vault.Owner), assets)
		registry.SetMinter(entity.Account(cfg.Bridge.TransportAccount), true)
		registry.SetBurner(entity.Account(cfg.Bridge.ServiceAccount), true)

		// State: ledger, custody vault, audit journal.
		ledgerStore := repository.NewMemoryLedgerStore(appLogger)
		vaultStore := vault.NewMemoryVault(appLogger)
		auditJournal := audit.NewJournal(appLogger)

		// External collaborators behind failure breakers.
		defaultFee, err := decimal.NewFromString(cfg.Bridge.DefaultFee)
		if err != nil {
			return fmt.Errorf("bad default fee %q: %w", cfg.Bridge.DefaultFee, err)
		}
		loopback := transport.NewLoopbackTransport(entity.NetworkID(cfg.Bridge.LocalNetworkID), defaultFee, appLogger)
		bridgeTransport := breaker.WrapTransport(loopback,
			breaker.NewCircuit("transport", cfg.Breaker.ConsecutiveFailures, cfg.Breaker.OpenTimeout))

		exchangeVenue := exchange.NewFixedRateExchange(vaultStore, entity.Account(cfg.Exchange.VenueAccount), appLogger)
		for pair, rate := range cfg.Exchange.Rates {
			in, out, ok := strings.Cut(pair, "/")
			if !ok {
				return fmt.Errorf("bad exchange rate key %q, want IN/OUT", pair)
			}
			parsed, err := decimal.NewFromString(rate)
			if err != nil {
				return fmt.Errorf("bad exchange rate %q for %q: %w", rate, pair, err)
			}
			exchangeVenue.SetRate(entity.Asset(in), entity.Asset(out), parsed)
		}
		exchangeAdapter := breaker.WrapExchange(exchangeVenue,
			breaker.NewCircuit("exchange", cfg.Breaker.ConsecutiveFailures, cfg.Breaker.OpenTimeout))

		lendingVenue := yieldvenue.NewMemoryVenue(vaultStore, entity.Account(cfg.Yield.VenueAccount), appLogger)
		yieldAdapter := breaker.WrapYield(lendingVenue,
			breaker.NewCircuit("yield", cfg.Breaker.ConsecutiveFailures, cfg.Breaker.OpenTimeout))

		// Use cases.
		serviceCaller := access.Caller{Account: entity.Account(cfg.Bridge.ServiceAccount)}
		transportCaller := access.Caller{Account: entity.Account(cfg.Bridge.TransportAccount)}

		custodyUseCase := usecase.NewCustodyUseCase(ledgerStore, vaultStore, registry, auditJournal)
		balanceUseCase := usecase.NewGetBalanceUseCase(ledgerStore)
		sendUseCase := usecase.NewBridgeSendUseCase(ledgerStore, bridgeTransport, registry, auditJournal,
			entity.Asset(cfg.Bridge.FeeAsset), serviceCaller)
		receiveUseCase := usecase.NewBridgeReceiveUseCase(ledgerStore, registry, auditJournal,
			entity.Account(cfg.Bridge.DefaultReceiveAccount), appLogger)
		receiveUseCase.SetExchangeAdapter(exchangeAdapter)
		yieldUseCase := usecase.NewYieldUseCase(vaultStore, registry, auditJournal,
			entity.Account(cfg.Yield.VenueAccount), entity.Account(cfg.Bridge.ServiceAccount), appLogger)
		yieldUseCase.SetAdapter(yieldAdapter)
		adminUseCase := usecase.NewAdminUseCase(registry, vaultStore, auditJournal, receiveUseCase, yieldUseCase, appLogger)

		// Loopback delivery: messages submitted here come straight back to
		// the inbound entry point, in their own transaction.
		loopback.SetDeliveryHandler(func(ctx context.Context, msg *entity.BridgeMessage) {
			if err := receiveUseCase.OnMessageDelivered(ctx, transportCaller, msg); err != nil {
				appLogger.LogWarning(ctx, "Loopback delivery rejected",
					"message_id", msg.MessageID,
					"error", err.Error())
			}
		})

		deliveryValidator := validator.NewHMACValidator(
			cfg.Delivery.HMACSecret,
			cfg.Delivery.TimestampTolerance,
			appLogger,
		)

		// Initialize HTTP handler
		handler := httphandler.NewHandler(
			custodyUseCase,
			balanceUseCase,
			sendUseCase,
			receiveUseCase,
			yieldUseCase,
			adminUseCase,
			deliveryValidator,
			metrics.New(),
			appLogger,
			transportCaller,
		)

		// Setup routes
		mux := handler.SetupRoutes()

		// Create HTTP server
		addr := ":" + cfg.Server.Port
		server := &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		// Channel to capture termination signals
		signalChan := make(chan os.Signal, 1)
		signal.Notify(signalChan, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)

		// Error channel to capture errors from server
		errChan := make(chan error, 1)

		// Start server in a goroutine
		go func() {
			appLogger.LogInfo(context.TODO(), "Starting server",
				"address", addr,
				"owner", cfg.Vault.Owner)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()

		// Graceful shutdown
		select {
		case <-signalChan:
			appLogger.LogInfo(context.TODO(), "Received termination signal. Initiating graceful shutdown...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				appLogger.LogError(context.TODO(), "Server forced to shutdown", err)
				return err
			}

			appLogger.LogInfo(context.TODO(), "Server stopped gracefully")
		case err := <-errChan:
			appLogger.LogError(context.TODO(), "Server error", err)
			return err
		}

		return nil
	},
}

func init() { //nolint:gochecknoinits
	rootCmd.AddCommand(apiServerCmd)
}
