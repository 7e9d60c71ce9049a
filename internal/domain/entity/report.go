package entity

import "math/big"

// OracleReport is the final submission-ready valuation for one vault.
// Balances and FinalPrices are keyed by checksummed hex address; FinalPrices
// excludes valuation-only assets.
type OracleReport struct {
	VaultAddress string              `json:"vaultAddress"`
	BaseAsset    string              `json:"baseAsset"`
	TotalAssets  *big.Int            `json:"totalAssets"`
	Balances     map[string]*big.Int `json:"balances"`
	FinalPrices  map[string]*big.Int `json:"finalPrices"`
}
