package configloader

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP server configuration for serve mode.
type ServerConfig struct {
	Port           string `yaml:"port"`
	SwaggerEnabled bool   `yaml:"swaggerEnabled"`
	// ReportIntervalSeconds > 0 makes serve mode run a report cycle on a
	// fixed schedule in addition to on-demand requests.
	ReportIntervalSeconds int `yaml:"reportIntervalSeconds"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// NetworkNodeConfig holds the RPC endpoints for one blockchain network.
// FallbackRPCURLs are tried in order when the primary endpoint fails.
type NetworkNodeConfig struct {
	Name            string   `yaml:"name"`    // e.g. "ethereum"
	RPCURL          string   `yaml:"rpcURL"`  // e.g. "https://eth.llamarpc.com"
	FallbackRPCURLs []string `yaml:"fallbackRPCURLs"`
	ChainID         int64    `yaml:"chainID"`
}

// AssetConfig describes one token the oracle knows how to value. Native marks
// an alias entry whose balance is the holder's coin balance rather than an
// ERC-20 read; it is reported under Address (the wrapped token) and summed
// with the wrapped holdings during aggregation.
type AssetConfig struct {
	Address  string `yaml:"address"`
	Decimals int    `yaml:"decimals"`
	Native   bool   `yaml:"native"`
}

// SubvaultConfig binds extra asset adapters to one subvault.
type SubvaultConfig struct {
	Address                    string   `yaml:"address"`
	Adapters                   []string `yaml:"adapters"`
	SkipIdleBalances           bool     `yaml:"skipIdleBalances"`
	SkipSubvaultExistenceCheck bool     `yaml:"skipSubvaultExistenceCheck"`
}

// PreCheckConfig controls the pre-flight retry loop.
type PreCheckConfig struct {
	Retries         int     `yaml:"retries"`
	IntervalSeconds float64 `yaml:"intervalSeconds"`
}

// ToleranceConfig holds the price deviation thresholds, in percent.
type ToleranceConfig struct {
	WarningPercent float64 `yaml:"warningPercent"`
	FailurePercent float64 `yaml:"failurePercent"`
}

// PythConfig holds Hermes API configuration for the Pyth price validator.
type PythConfig struct {
	HermesURL            string            `yaml:"hermesURL"`
	FeedIDs              map[string]string `yaml:"feedIDs"` // asset symbol -> hex feed id
	RequestTimeoutMillis int64             `yaml:"requestTimeoutMillis"`
}

// CowSwapConfig holds the CoW Protocol quote API configuration.
type CowSwapConfig struct {
	BaseURL              string `yaml:"baseURL"`
	CacheTTLSeconds      int    `yaml:"cacheTTLSeconds"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// HyperliquidConfig holds the Hyperliquid info API configuration plus the
// synthetic address the vault's perp equity is reported under.
type HyperliquidConfig struct {
	APIURL               string `yaml:"apiURL"`
	EquityAssetAddress   string `yaml:"equityAssetAddress"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// ChainlinkFeedConfig maps one asset to its Chainlink aggregator.
type ChainlinkFeedConfig struct {
	Asset          string `yaml:"asset"` // asset symbol from the assets map
	FeedAddress    string `yaml:"feedAddress"`
	InvertedQuote  bool   `yaml:"invertedQuote"`
	StaleAfterSecs int64  `yaml:"staleAfterSeconds"`
}

// SafeConfig holds Gnosis Safe transaction service settings for the safe
// publisher and the pending-proposal pre-flight check.
type SafeConfig struct {
	Address              string `yaml:"address"`
	TxServiceURL         string `yaml:"txServiceURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// BridgeConfig configures the in-flight bridge transfer check.
type BridgeConfig struct {
	DepositContract string `yaml:"depositContract"`
	MintContract    string `yaml:"mintContract"`
	DepositDecimals int    `yaml:"depositDecimals"`
	MintDecimals    int    `yaml:"mintDecimals"`
	LookbackBlocks  uint64 `yaml:"lookbackBlocks"`
	MintNetwork     string `yaml:"mintNetwork"`
}

// PerformanceConfig holds concurrency and RPC throttling knobs.
type PerformanceConfig struct {
	MaxConcurrentRoutines int     `yaml:"max_concurrent_routines"`
	RPCCallTimeoutSeconds int     `yaml:"rpc_call_timeout_seconds"`
	RPCRateLimitPerSecond float64 `yaml:"rpc_rate_limit_per_second"`
}

// VaultConfig identifies the on-chain contracts the oracle reports for.
type VaultConfig struct {
	Address             string `yaml:"address"`
	OracleAddress       string `yaml:"oracleAddress"`
	OracleHelperAddress string `yaml:"oracleHelperAddress"`
	BaseAsset           string `yaml:"baseAsset"` // asset symbol from the assets map
	Network             string `yaml:"network"`
}

// PublisherConfig selects how the finished report leaves the process.
type PublisherConfig struct {
	Mode string `yaml:"mode"` // "stdout" or "safe"
}

// Config is the top-level configuration structure.
type Config struct {
	Vault               VaultConfig            `yaml:"vault"`
	Server              ServerConfig           `yaml:"server"`
	Logging             LoggingConfig          `yaml:"logging"`
	Networks            []NetworkNodeConfig    `yaml:"networks"`
	Assets              map[string]AssetConfig `yaml:"assets"`
	Subvaults           []SubvaultConfig       `yaml:"subvaults"`
	PriceAdapters       []string               `yaml:"priceAdapters"`
	PriceValidators     []string               `yaml:"priceValidators"`
	PreChecks           []string               `yaml:"preChecks"`
	PreCheck            PreCheckConfig         `yaml:"preCheck"`
	Tolerances          ToleranceConfig        `yaml:"tolerances"`
	Pyth                PythConfig             `yaml:"pyth"`
	CowSwap             CowSwapConfig          `yaml:"cowswap"`
	Hyperliquid         HyperliquidConfig      `yaml:"hyperliquid"`
	ChainlinkFeeds      []ChainlinkFeedConfig  `yaml:"chainlinkFeeds"`
	Safe                SafeConfig             `yaml:"safe"`
	Bridge              BridgeConfig           `yaml:"bridge"`
	Performance         PerformanceConfig      `yaml:"performance"`
	Publisher           PublisherConfig        `yaml:"publisher"`
	CycleTimeoutSeconds int                    `yaml:"cycleTimeoutSeconds"`
}

// Load reads the YAML configuration file from the given path, unmarshals it
// and applies defaults for everything the file leaves out.
func Load(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logrus.Errorf("Failed to unmarshal config data from %s: %v", path, err)
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.PreCheck.Retries <= 0 {
		cfg.PreCheck.Retries = 3
		logrus.Infof("preCheck.retries not set, defaulting to %d", cfg.PreCheck.Retries)
	}
	if cfg.PreCheck.IntervalSeconds <= 0 {
		cfg.PreCheck.IntervalSeconds = 12.0 // roughly one Ethereum block
		logrus.Infof("preCheck.intervalSeconds not set, defaulting to %.1f", cfg.PreCheck.IntervalSeconds)
	}
	if cfg.Tolerances.WarningPercent <= 0 {
		cfg.Tolerances.WarningPercent = 0.5
	}
	if cfg.Tolerances.FailurePercent <= 0 {
		cfg.Tolerances.FailurePercent = 1.0
	}

	if cfg.Performance.MaxConcurrentRoutines <= 0 {
		cfg.Performance.MaxConcurrentRoutines = 10
	}
	if cfg.Performance.RPCCallTimeoutSeconds <= 0 {
		cfg.Performance.RPCCallTimeoutSeconds = 10
	}
	if cfg.Performance.RPCRateLimitPerSecond <= 0 {
		cfg.Performance.RPCRateLimitPerSecond = 20
	}

	if cfg.Pyth.HermesURL == "" {
		cfg.Pyth.HermesURL = "https://hermes.pyth.network"
	}
	if cfg.Pyth.RequestTimeoutMillis <= 0 {
		cfg.Pyth.RequestTimeoutMillis = 10000
	}
	if cfg.CowSwap.BaseURL == "" {
		cfg.CowSwap.BaseURL = "https://api.cow.fi/mainnet/api/v1"
	}
	if cfg.CowSwap.CacheTTLSeconds <= 0 {
		cfg.CowSwap.CacheTTLSeconds = 60
	}
	if cfg.CowSwap.RequestTimeoutMillis <= 0 {
		cfg.CowSwap.RequestTimeoutMillis = 10000
	}
	if cfg.Hyperliquid.APIURL == "" {
		cfg.Hyperliquid.APIURL = "https://api.hyperliquid.xyz"
	}
	if cfg.Hyperliquid.RequestTimeoutMillis <= 0 {
		cfg.Hyperliquid.RequestTimeoutMillis = 10000
	}
	if cfg.Safe.RequestTimeoutMillis <= 0 {
		cfg.Safe.RequestTimeoutMillis = 10000
	}
	if cfg.Bridge.LookbackBlocks == 0 {
		cfg.Bridge.LookbackBlocks = 7200 // about a day of mainnet blocks
	}
	if cfg.Bridge.DepositDecimals <= 0 {
		cfg.Bridge.DepositDecimals = 18
	}
	if cfg.Bridge.MintDecimals <= 0 {
		cfg.Bridge.MintDecimals = 18
	}

	if cfg.Publisher.Mode == "" {
		cfg.Publisher.Mode = "stdout"
		logrus.Infof("publisher.mode not set, defaulting to %s", cfg.Publisher.Mode)
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func validate(cfg *Config) error {
	if cfg.Vault.Address == "" {
		return fmt.Errorf("vault.address is required")
	}
	if cfg.Vault.OracleHelperAddress == "" {
		return fmt.Errorf("vault.oracleHelperAddress is required")
	}
	if cfg.Vault.BaseAsset == "" {
		return fmt.Errorf("vault.baseAsset is required")
	}
	if _, ok := cfg.Assets[cfg.Vault.BaseAsset]; !ok {
		return fmt.Errorf("vault.baseAsset %q is not declared in the assets map", cfg.Vault.BaseAsset)
	}
	if len(cfg.Networks) == 0 {
		return fmt.Errorf("at least one network must be configured")
	}
	for _, network := range cfg.Networks {
		if network.Name == "" {
			return fmt.Errorf("every network entry needs a name")
		}
		if network.RPCURL == "" {
			return fmt.Errorf("network %q is missing rpcURL", network.Name)
		}
	}
	if cfg.Publisher.Mode != "stdout" && cfg.Publisher.Mode != "safe" {
		return fmt.Errorf("publisher.mode must be \"stdout\" or \"safe\", got %q", cfg.Publisher.Mode)
	}
	if cfg.Publisher.Mode == "safe" && (cfg.Safe.Address == "" || cfg.Safe.TxServiceURL == "") {
		return fmt.Errorf("publisher.mode=safe requires safe.address and safe.txServiceURL")
	}
	return nil
}
