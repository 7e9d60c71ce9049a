package service

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nav_oracle/internal/app/port"
	"nav_oracle/internal/domain/entity"
	"nav_oracle/internal/pkg/utils"
)

// ReportService assembles the final submission-ready report from the pricing
// stage's outputs.
type ReportService struct {
	helper port.OracleHelper
	logger port.Logger
}

// NewReportService creates a ReportService backed by the on-chain oracle
// helper contract.
func NewReportService(helper port.OracleHelper, logger port.Logger) *ReportService {
	return &ReportService{helper: helper, logger: logger}
}

// BuildReport derives the final 18-decimal fixed-point prices and packages
// them with balances and the total into an OracleReport.
//
// Valuation-only assets contribute to totalAssets but are excluded from the
// final price derivation and from the report's price map: they are positions
// the vault cannot transact in, so no submission price exists for them.
func (s *ReportService) BuildReport(
	ctx context.Context,
	vault common.Address,
	aggregated entity.AggregatedAssets,
	prices *entity.PriceData,
	totalAssets *big.Int,
) (*entity.OracleReport, error) {
	for addr := range aggregated.ValuationOnly {
		s.logger.Debug("Excluding valuation-only asset from final prices", "asset", addr.Hex())
	}

	finalPrices, err := s.helper.DeriveFinalPrices(ctx, totalAssets, aggregated, prices)
	if err != nil {
		return nil, err
	}

	report := &entity.OracleReport{
		VaultAddress: vault.Hex(),
		BaseAsset:    prices.BaseAsset.Hex(),
		TotalAssets:  new(big.Int).Set(totalAssets),
		Balances:     make(map[string]*big.Int, len(aggregated.Assets)),
		FinalPrices:  make(map[string]*big.Int, len(finalPrices)),
	}
	for addr, amount := range aggregated.Assets {
		report.Balances[addr.Hex()] = new(big.Int).Set(amount)
	}
	for addr, price := range finalPrices {
		report.FinalPrices[addr.Hex()] = new(big.Int).Set(price)
	}

	humanTotal := report.TotalAssets.String()
	if formatted, err := utils.FormatBigInt(report.TotalAssets, uint8(prices.Decimals[prices.BaseAsset])); err == nil {
		humanTotal = formatted
	}
	s.logger.Info("Report assembled",
		"vault", report.VaultAddress,
		"total_assets", report.TotalAssets.String(),
		"total_assets_formatted", humanTotal,
		"priced_assets", len(report.FinalPrices))
	return report, nil
}
