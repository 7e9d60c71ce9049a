package oraclehelper

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nav_oracle/internal/app/port"
	"nav_oracle/internal/domain/entity"
)

// pricesCaller is the slice of the EVM client this package needs.
type pricesCaller interface {
	HelperPricesD18(ctx context.Context, helper common.Address, totalAssets *big.Int, assets []common.Address, balances []*big.Int) ([]*big.Int, error)
}

// ContractHelper derives final submission prices by calling the oracle helper
// contract's getPricesD18 view.
type ContractHelper struct {
	evm    pricesCaller
	helper common.Address
	logger port.Logger
}

// NewContractHelper creates a ContractHelper bound to the helper contract
// address.
func NewContractHelper(evm pricesCaller, helper common.Address, logger port.Logger) *ContractHelper {
	return &ContractHelper{evm: evm, helper: helper, logger: logger}
}

// DeriveFinalPrices implements port.OracleHelper. Valuation-only assets are
// left out of the submission set; their value is already inside totalAssets.
// Addresses are sorted so the calldata, and therefore the proposal hash, is
// deterministic across runs.
func (h *ContractHelper) DeriveFinalPrices(ctx context.Context, totalAssets *big.Int, aggregated entity.AggregatedAssets, prices *entity.PriceData) (map[common.Address]*big.Int, error) {
	assets := make([]common.Address, 0, len(aggregated.Assets))
	for addr := range aggregated.Assets {
		if aggregated.IsValuationOnly(addr) {
			continue
		}
		assets = append(assets, addr)
	}
	entity.SortAddresses(assets)
	if len(assets) == 0 {
		return map[common.Address]*big.Int{}, nil
	}

	balances := make([]*big.Int, len(assets))
	for i, addr := range assets {
		balances[i] = aggregated.Assets[addr]
	}

	h.logger.Debug("Deriving final prices via helper contract",
		"helper", h.helper.Hex(), "assets", len(assets), "total_assets", totalAssets.String())
	rawPrices, err := h.evm.HelperPricesD18(ctx, h.helper, totalAssets, assets, balances)
	if err != nil {
		return nil, err
	}

	finalPrices := make(map[common.Address]*big.Int, len(assets))
	for i, addr := range assets {
		finalPrices[addr] = rawPrices[i]
	}
	return finalPrices, nil
}
