package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Server   Server   `mapstructure:"server"`
	Delivery Delivery `mapstructure:"delivery"`
	Bridge   Bridge   `mapstructure:"bridge"`
	Vault    Vault    `mapstructure:"vault"`
	Exchange Exchange `mapstructure:"exchange"`
	Yield    Yield    `mapstructure:"yield"`
	Breaker  Breaker  `mapstructure:"breaker"`
}

// Server configuration
type Server struct {
	Port string `mapstructure:"port"`
}

// Delivery configures authentication of transport delivery callbacks.
type Delivery struct {
	HMACSecret         string        `mapstructure:"hmacSecret"`
	TimestampTolerance time.Duration `mapstructure:"timestampTolerance"`
}

// Bridge configuration: local network identity and fee handling.
type Bridge struct {
	LocalNetworkID        string `mapstructure:"localNetworkId"`
	FeeAsset              string `mapstructure:"feeAsset"`
	DefaultReceiveAccount string `mapstructure:"defaultReceiveAccount"`
	TransportAccount      string `mapstructure:"transportAccount"`
	ServiceAccount        string `mapstructure:"serviceAccount"`
	DefaultFee            string `mapstructure:"defaultFee"`
}

// Exchange configures the swap venue used on inbound delivery. Rates are
// quoted out-per-in, keyed "IN/OUT".
type Exchange struct {
	VenueAccount string            `mapstructure:"venueAccount"`
	Rates        map[string]string `mapstructure:"rates"`
}

// Yield configures the lending venue idle custody is delegated to.
type Yield struct {
	VenueAccount string `mapstructure:"venueAccount"`
}

// Vault configuration: owner and the asset registry seeded at startup.
type Vault struct {
	Owner           string   `mapstructure:"owner"`
	SupportedAssets []string `mapstructure:"supportedAssets"`
}

// Breaker configures the failure breaker around external venue calls.
type Breaker struct {
	ConsecutiveFailures uint32        `mapstructure:"consecutiveFailures"`
	OpenTimeout         time.Duration `mapstructure:"openTimeout"`
}

// LoadConfig loads configuration from YAML file
// Uses CONFIG_ENV environment variable to determine which config file to load
func LoadConfig(configDir string) (*Config, error) {
	configEnv := os.Getenv("CONFIG_ENV")
	if configEnv == "" {
		configEnv = "local"
	}

	// Load base app-config.yaml as template/defaults (if it exists)
	baseConfigPath := fmt.Sprintf("%s/app-config.yaml", configDir)
	baseConfigExists := false
	if _, err := os.Stat(baseConfigPath); err == nil {
		viper.SetConfigFile(baseConfigPath)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read base config file: %w", err)
		}
		baseConfigExists = true
	}

	// Load environment-specific config (e.g., local.yaml when CONFIG_ENV=local)
	envConfigPath := fmt.Sprintf("%s/%s.yaml", configDir, configEnv)
	if _, err := os.Stat(envConfigPath); err == nil {
		if baseConfigExists {
			viper.SetConfigFile(envConfigPath)
			if err := viper.MergeInConfig(); err != nil {
				return nil, fmt.Errorf("failed to merge env config file: %w", err)
			}
		} else {
			viper.SetConfigFile(envConfigPath)
			if err := viper.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read env config file: %w", err)
			}
		}
	}
	// With neither file present the service runs on env vars and defaults.

	viper.SetEnvPrefix("ARCVAULT")
	viper.AutomaticEnv()

	viper.BindEnv("server.port", "ARCVAULT_SERVER_PORT", "PORT")
	viper.BindEnv("delivery.hmacSecret", "ARCVAULT_DELIVERY_HMAC_SECRET", "HMAC_SECRET")
	viper.BindEnv("delivery.timestampTolerance", "ARCVAULT_DELIVERY_TIMESTAMP_TOLERANCE")
	viper.BindEnv("bridge.localNetworkId", "ARCVAULT_BRIDGE_LOCAL_NETWORK_ID")
	viper.BindEnv("bridge.feeAsset", "ARCVAULT_BRIDGE_FEE_ASSET")
	viper.BindEnv("vault.owner", "ARCVAULT_VAULT_OWNER")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	// Tolerance may arrive as a duration string ("5m") or bare minutes.
	if toleranceStr := viper.GetString("delivery.timestampTolerance"); toleranceStr != "" {
		if parsed, err := time.ParseDuration(toleranceStr); err == nil {
			cfg.Delivery.TimestampTolerance = parsed
		} else {
			var minutes int
			if _, err := fmt.Sscanf(toleranceStr, "%d", &minutes); err == nil && minutes > 0 {
				cfg.Delivery.TimestampTolerance = time.Duration(minutes) * time.Minute
			}
		}
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Delivery.HMACSecret == "" {
		cfg.Delivery.HMACSecret = "default-secret-key-change-in-production"
	}
	if cfg.Delivery.TimestampTolerance == 0 {
		cfg.Delivery.TimestampTolerance = 5 * time.Minute
	}
	if cfg.Bridge.LocalNetworkID == "" {
		cfg.Bridge.LocalNetworkID = "arcvault-local"
	}
	if cfg.Bridge.FeeAsset == "" {
		cfg.Bridge.FeeAsset = "USDC"
	}
	if cfg.Bridge.DefaultReceiveAccount == "" {
		cfg.Bridge.DefaultReceiveAccount = "bridge-receive"
	}
	if cfg.Bridge.TransportAccount == "" {
		cfg.Bridge.TransportAccount = "transport"
	}
	if cfg.Bridge.ServiceAccount == "" {
		cfg.Bridge.ServiceAccount = "arcvault-service"
	}
	if cfg.Bridge.DefaultFee == "" {
		cfg.Bridge.DefaultFee = "0.25"
	}
	if cfg.Exchange.VenueAccount == "" {
		cfg.Exchange.VenueAccount = "exchange-venue"
	}
	if cfg.Yield.VenueAccount == "" {
		cfg.Yield.VenueAccount = "yield-venue"
	}
	if cfg.Vault.Owner == "" {
		cfg.Vault.Owner = "owner"
	}
	if len(cfg.Vault.SupportedAssets) == 0 {
		cfg.Vault.SupportedAssets = []string{"USDC", "DAI"}
	}
	if cfg.Breaker.ConsecutiveFailures == 0 {
		cfg.Breaker.ConsecutiveFailures = 5
	}
	if cfg.Breaker.OpenTimeout == 0 {
		cfg.Breaker.OpenTimeout = 30 * time.Second
	}
}
