package price

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"nav_oracle/internal/app/port"
	"nav_oracle/internal/client"
	"nav_oracle/internal/domain/entity"
	wire "nav_oracle/internal/entity"
	"nav_oracle/internal/pkg/retry"
)

// CowToken maps one aggregated asset to the on-chain token CoW Protocol
// should actually quote. QuoteAs differs from Asset for synthetic addresses
// (the Hyperliquid equity position is quoted as plain USDC).
type CowToken struct {
	Asset    common.Address
	QuoteAs  common.Address
	Decimals int
}

// CowSwapPriceAdapter derives market prices from CoW Protocol sell quotes:
// one native unit of the token is quoted against the base asset and the raw
// unit ratio becomes the price.
type CowSwapPriceAdapter struct {
	api         client.CowSwapClient
	base        common.Address
	tokens      []CowToken
	retryPolicy retry.Policy
	logger      port.Logger
}

// NewCowSwapPriceAdapter creates a CowSwapPriceAdapter over the given token
// mapping.
func NewCowSwapPriceAdapter(api client.CowSwapClient, base common.Address, tokens []CowToken, logger port.Logger) *CowSwapPriceAdapter {
	return &CowSwapPriceAdapter{
		api:         api,
		base:        base,
		tokens:      tokens,
		retryPolicy: retry.DefaultPolicy(),
		logger:      logger,
	}
}

// Name implements port.PriceAdapter.
func (a *CowSwapPriceAdapter) Name() string {
	return "cowswap"
}

// FetchPrices quotes every recognized, not-yet-priced asset against the base.
// Assets priced by earlier adapters are never overwritten.
func (a *CowSwapPriceAdapter) FetchPrices(ctx context.Context, assetAddresses []common.Address, acc *entity.PriceData) error {
	if acc.BaseAsset != a.base {
		return &entity.BaseAssetMismatchError{Adapter: a.Name(), Expected: a.base, Actual: acc.BaseAsset}
	}

	wanted := make(map[common.Address]struct{}, len(assetAddresses))
	for _, addr := range assetAddresses {
		wanted[addr] = struct{}{}
	}

	for _, token := range a.tokens {
		if _, ok := wanted[token.Asset]; !ok {
			continue
		}
		if _, priced := acc.Price(token.Asset); priced {
			continue
		}

		sellAmount := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(token.Decimals)), nil)
		var quote *wire.CowSwapQuote
		err := a.retryPolicy.Do(ctx, func() error {
			var quoteErr error
			quote, quoteErr = a.api.GetSellQuote(ctx, token.QuoteAs.Hex(), a.base.Hex(), sellAmount)
			return quoteErr
		})
		if err != nil {
			return fmt.Errorf("cowswap quote for %s failed: %w", token.Asset.Hex(), err)
		}

		buyAmount, ok := new(big.Int).SetString(quote.BuyAmount, 10)
		if !ok {
			return fmt.Errorf("cowswap quote for %s has malformed buyAmount %q", token.Asset.Hex(), quote.BuyAmount)
		}

		// price = base raw units bought per one raw unit of the asset
		unitPrice := decimal.NewFromBigInt(buyAmount, 0).Shift(int32(-token.Decimals))
		a.logger.Debug("CoW quote priced asset",
			"asset", token.Asset.Hex(), "quote_as", token.QuoteAs.Hex(), "price", unitPrice.String())
		acc.SetPrice(token.Asset, unitPrice, token.Decimals)
	}
	return nil
}
