package adapters

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"nav_oracle/internal/app/port"
	"nav_oracle/internal/app/service"
	"nav_oracle/internal/client"
	"nav_oracle/internal/infrastructure/adapters/asset"
	"nav_oracle/internal/infrastructure/adapters/check"
	"nav_oracle/internal/infrastructure/adapters/price"
	"nav_oracle/internal/infrastructure/adapters/validator"
	"nav_oracle/internal/infrastructure/configloader"
	evmclient "nav_oracle/internal/infrastructure/network/client"
)

// Well-known asset symbols the builders look up in the assets map.
const (
	symbolWETH   = "WETH"
	symbolWstETH = "wstETH"
	symbolStETH  = "stETH"
	symbolUSDC   = "USDC"
)

// Registry builds adapters, validators and checks from configuration by name.
// It owns the shared HTTP clients so every adapter built from the same
// registry reuses one connection pool per API.
type Registry struct {
	cfg      *configloader.Config
	provider *evmclient.EVMClientProvider
	logger   port.Logger

	hyperliquid client.HyperliquidClient
	cowswap     client.CowSwapClient
	hermes      client.HermesClient
	safe        client.SafeClient
}

// NewRegistry creates a Registry. zapLogger feeds the HTTP clients, which log
// through named zap loggers; logger is the application-level interface the
// adapters use.
func NewRegistry(cfg *configloader.Config, provider *evmclient.EVMClientProvider, zapLogger *zap.Logger, logger port.Logger) *Registry {
	return &Registry{
		cfg:      cfg,
		provider: provider,
		logger:   logger,
		hyperliquid: client.NewHyperliquidClient(
			cfg.Hyperliquid.APIURL, time.Duration(cfg.Hyperliquid.RequestTimeoutMillis)*time.Millisecond, zapLogger),
		cowswap: client.NewCowSwapClient(
			cfg.CowSwap.BaseURL,
			time.Duration(cfg.CowSwap.RequestTimeoutMillis)*time.Millisecond,
			time.Duration(cfg.CowSwap.CacheTTLSeconds)*time.Second, zapLogger),
		hermes: client.NewHermesClient(
			cfg.Pyth.HermesURL, time.Duration(cfg.Pyth.RequestTimeoutMillis)*time.Millisecond, zapLogger),
		safe: client.NewSafeClient(
			cfg.Safe.TxServiceURL, time.Duration(cfg.Safe.RequestTimeoutMillis)*time.Millisecond, zapLogger),
	}
}

// SafeAPI exposes the shared Safe client for the publisher.
func (r *Registry) SafeAPI() client.SafeClient {
	return r.safe
}

func (r *Registry) vaultEVM() (*evmclient.EVMClient, error) {
	return r.provider.GetClient(r.cfg.Vault.Network)
}

func (r *Registry) assetAddress(symbol string) (common.Address, int, error) {
	assetCfg, ok := r.cfg.Assets[symbol]
	if !ok {
		return common.Address{}, 0, fmt.Errorf("asset %q is not declared in the assets map", symbol)
	}
	return common.HexToAddress(assetCfg.Address), assetCfg.Decimals, nil
}

// IdleAdapter builds the default balance source over every configured asset
// on the vault's network.
func (r *Registry) IdleAdapter() (port.AssetAdapter, error) {
	evm, err := r.vaultEVM()
	if err != nil {
		return nil, err
	}
	tokens := make([]asset.Token, 0, len(r.cfg.Assets))
	for symbol, assetCfg := range r.cfg.Assets {
		tokens = append(tokens, asset.Token{
			Symbol:  symbol,
			Address: common.HexToAddress(assetCfg.Address),
			Native:  assetCfg.Native,
		})
	}
	return asset.NewIdleBalancesAdapter(evm, tokens, r.logger), nil
}

// AssetAdapter builds one named additional asset adapter.
func (r *Registry) AssetAdapter(name string) (port.AssetAdapter, error) {
	switch name {
	case "hyperliquid":
		if r.cfg.Hyperliquid.EquityAssetAddress == "" {
			return nil, fmt.Errorf("hyperliquid adapter requires hyperliquid.equityAssetAddress")
		}
		equity := common.HexToAddress(r.cfg.Hyperliquid.EquityAssetAddress)
		return asset.NewHyperliquidAdapter(r.hyperliquid, equity, r.logger), nil
	case "lido_staking":
		evm, err := r.vaultEVM()
		if err != nil {
			return nil, err
		}
		wsteth, _, err := r.assetAddress(symbolWstETH)
		if err != nil {
			return nil, err
		}
		steth, _, err := r.assetAddress(symbolStETH)
		if err != nil {
			return nil, err
		}
		return asset.NewLidoStakingAdapter(evm, wsteth, steth, r.logger), nil
	default:
		return nil, fmt.Errorf("unknown asset adapter %q", name)
	}
}

// SubvaultConfigs resolves the per-subvault adapter bindings from
// configuration.
func (r *Registry) SubvaultConfigs() ([]service.SubvaultAdapters, error) {
	configs := make([]service.SubvaultAdapters, 0, len(r.cfg.Subvaults))
	for _, subvaultCfg := range r.cfg.Subvaults {
		binding := service.SubvaultAdapters{
			Subvault:           common.HexToAddress(subvaultCfg.Address),
			SkipIdleBalances:   subvaultCfg.SkipIdleBalances,
			SkipExistenceCheck: subvaultCfg.SkipSubvaultExistenceCheck,
		}
		for _, name := range subvaultCfg.Adapters {
			adapter, err := r.AssetAdapter(name)
			if err != nil {
				return nil, fmt.Errorf("subvault %s: %w", subvaultCfg.Address, err)
			}
			binding.Adapters = append(binding.Adapters, adapter)
		}
		configs = append(configs, binding)
	}
	return configs, nil
}

// PriceAdapters builds the configured price adapters preserving config order;
// order matters because each adapter mutates the shared accumulator.
func (r *Registry) PriceAdapters() ([]port.PriceAdapter, error) {
	base, _, err := r.assetAddress(r.cfg.Vault.BaseAsset)
	if err != nil {
		return nil, err
	}

	adapters := make([]port.PriceAdapter, 0, len(r.cfg.PriceAdapters))
	for _, name := range r.cfg.PriceAdapters {
		switch name {
		case "eth":
			pegged := make(map[common.Address]int)
			if stethCfg, ok := r.cfg.Assets[symbolStETH]; ok {
				pegged[common.HexToAddress(stethCfg.Address)] = stethCfg.Decimals
			}
			adapters = append(adapters, price.NewEthPriceAdapter(base, pegged, r.logger))
		case "wsteth":
			evm, err := r.vaultEVM()
			if err != nil {
				return nil, err
			}
			wsteth, _, err := r.assetAddress(symbolWstETH)
			if err != nil {
				return nil, err
			}
			adapters = append(adapters, price.NewWstethPriceAdapter(evm, base, wsteth, r.logger))
		case "cowswap":
			tokens, err := r.cowTokens(base)
			if err != nil {
				return nil, err
			}
			adapters = append(adapters, price.NewCowSwapPriceAdapter(r.cowswap, base, tokens, r.logger))
		case "pyth":
			baseFeed, ok := r.cfg.Pyth.FeedIDs[r.cfg.Vault.BaseAsset]
			if !ok {
				return nil, fmt.Errorf("pyth price adapter requires a feed for base asset %q", r.cfg.Vault.BaseAsset)
			}
			baseDecimals := r.cfg.Assets[r.cfg.Vault.BaseAsset].Decimals
			var feeds []price.PythFeed
			for symbol, feedID := range r.cfg.Pyth.FeedIDs {
				if symbol == r.cfg.Vault.BaseAsset {
					continue
				}
				addr, decimals, err := r.assetAddress(symbol)
				if err != nil {
					return nil, fmt.Errorf("pyth feed for %q: %w", symbol, err)
				}
				feeds = append(feeds, price.PythFeed{Asset: addr, Decimals: decimals, FeedID: feedID})
			}
			adapters = append(adapters, price.NewPythPriceAdapter(
				r.hermes, base, baseFeed, baseDecimals, feeds, r.logger))
		default:
			return nil, fmt.Errorf("unknown price adapter %q", name)
		}
	}
	return adapters, nil
}

// cowTokens lists the assets CoW Protocol quotes: everything in the assets map
// except the base asset and the Lido pair, plus the Hyperliquid equity
// position quoted as plain USDC.
func (r *Registry) cowTokens(base common.Address) ([]price.CowToken, error) {
	var tokens []price.CowToken
	for symbol, assetCfg := range r.cfg.Assets {
		if symbol == r.cfg.Vault.BaseAsset || symbol == symbolStETH || symbol == symbolWstETH {
			continue
		}
		// Native entries alias a wrapped token that is priced on its own.
		if assetCfg.Native {
			continue
		}
		addr := common.HexToAddress(assetCfg.Address)
		tokens = append(tokens, price.CowToken{Asset: addr, QuoteAs: addr, Decimals: assetCfg.Decimals})
	}
	if r.cfg.Hyperliquid.EquityAssetAddress != "" {
		usdc, usdcDecimals, err := r.assetAddress(symbolUSDC)
		if err != nil {
			return nil, fmt.Errorf("hyperliquid equity pricing: %w", err)
		}
		tokens = append(tokens, price.CowToken{
			Asset:    common.HexToAddress(r.cfg.Hyperliquid.EquityAssetAddress),
			QuoteAs:  usdc,
			Decimals: usdcDecimals,
		})
	}
	return tokens, nil
}

// Validators builds the configured price validators.
func (r *Registry) Validators() ([]port.PriceValidator, error) {
	_, baseDecimals, err := r.assetAddress(r.cfg.Vault.BaseAsset)
	if err != nil {
		return nil, err
	}
	warnPct := r.cfg.Tolerances.WarningPercent
	failPct := r.cfg.Tolerances.FailurePercent

	// The positive-prices validator is pure and not optional: it runs ahead
	// of any configured cross-checks regardless of the priceValidators list.
	validators := make([]port.PriceValidator, 0, len(r.cfg.PriceValidators)+1)
	validators = append(validators, validator.NewPositivePricesValidator())
	for _, name := range r.cfg.PriceValidators {
		switch name {
		case "positive_prices":
			// Wired unconditionally above.
			continue
		case "pyth":
			baseFeed, ok := r.cfg.Pyth.FeedIDs[r.cfg.Vault.BaseAsset]
			if !ok {
				return nil, fmt.Errorf("pyth validator requires a feed for base asset %q", r.cfg.Vault.BaseAsset)
			}
			var feeds []validator.PythFeed
			for symbol, feedID := range r.cfg.Pyth.FeedIDs {
				if symbol == r.cfg.Vault.BaseAsset {
					continue
				}
				addr, decimals, err := r.assetAddress(symbol)
				if err != nil {
					return nil, fmt.Errorf("pyth feed for %q: %w", symbol, err)
				}
				feeds = append(feeds, validator.PythFeed{Asset: addr, Decimals: decimals, FeedID: feedID})
			}
			validators = append(validators, validator.NewPythValidator(
				r.hermes, baseFeed, baseDecimals, feeds, warnPct, failPct, r.logger))
		case "chainlink":
			evm, err := r.vaultEVM()
			if err != nil {
				return nil, err
			}
			var feeds []validator.ChainlinkFeed
			for _, feedCfg := range r.cfg.ChainlinkFeeds {
				addr, decimals, err := r.assetAddress(feedCfg.Asset)
				if err != nil {
					return nil, fmt.Errorf("chainlink feed for %q: %w", feedCfg.Asset, err)
				}
				feeds = append(feeds, validator.ChainlinkFeed{
					Asset:         addr,
					AssetDecimals: decimals,
					Feed:          common.HexToAddress(feedCfg.FeedAddress),
					Inverted:      feedCfg.InvertedQuote,
					StaleAfter:    time.Duration(feedCfg.StaleAfterSecs) * time.Second,
				})
			}
			validators = append(validators, validator.NewChainlinkValidator(
				evm, baseDecimals, feeds, warnPct, failPct, r.logger))
		default:
			return nil, fmt.Errorf("unknown price validator %q", name)
		}
	}
	return validators, nil
}

// Checks builds the configured pre-flight checks.
func (r *Registry) Checks() ([]port.CheckAdapter, error) {
	checks := make([]port.CheckAdapter, 0, len(r.cfg.PreChecks))
	for _, name := range r.cfg.PreChecks {
		switch name {
		case "safe_proposal":
			if r.cfg.Safe.Address == "" {
				return nil, fmt.Errorf("safe_proposal check requires safe.address")
			}
			checks = append(checks, check.NewSafeProposalCheck(r.safe, r.cfg.Safe.Address, r.logger))
		case "bridge_inflight":
			sourceEVM, err := r.vaultEVM()
			if err != nil {
				return nil, err
			}
			destEVM, err := r.provider.GetClient(r.cfg.Bridge.MintNetwork)
			if err != nil {
				return nil, err
			}
			checks = append(checks, check.NewBridgeInflightCheck(
				sourceEVM, destEVM,
				common.HexToAddress(r.cfg.Bridge.DepositContract),
				common.HexToAddress(r.cfg.Bridge.MintContract),
				r.cfg.Bridge.DepositDecimals, r.cfg.Bridge.MintDecimals,
				r.cfg.Bridge.LookbackBlocks, r.logger))
		case "report_timeout":
			evm, err := r.vaultEVM()
			if err != nil {
				return nil, err
			}
			checks = append(checks, check.NewReportTimeoutCheck(
				evm, common.HexToAddress(r.cfg.Vault.OracleAddress), r.logger))
		default:
			return nil, fmt.Errorf("unknown pre-flight check %q", name)
		}
	}
	for _, known := range []string{"safe_proposal", "bridge_inflight", "report_timeout"} {
		enabled := false
		for _, name := range r.cfg.PreChecks {
			if name == known {
				enabled = true
				break
			}
		}
		if !enabled {
			r.logger.Warn("Pre-flight check disabled by configuration", "check", known)
		}
	}
	return checks, nil
}
