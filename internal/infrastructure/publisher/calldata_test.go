package publisher

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nav_oracle/internal/domain/entity"
)

func sampleReport() *entity.OracleReport {
	return &entity.OracleReport{
		VaultAddress: "0x1111111111111111111111111111111111111111",
		BaseAsset:    "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		TotalAssets:  big.NewInt(1_000_000),
		FinalPrices: map[string]*big.Int{
			"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2": big.NewInt(1_000_000_000_000_000_000),
			"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48": big.NewInt(500_000_000_000_000),
		},
	}
}

func TestEncodeSubmitReportsSelectorPrefix(t *testing.T) {
	calldata, err := EncodeSubmitReports(sampleReport())

	require.NoError(t, err)
	wantSelector := crypto.Keccak256([]byte("submitReports((address,uint224)[])"))[:4]
	require.GreaterOrEqual(t, len(calldata), 4)
	assert.Equal(t, wantSelector, calldata[:4])
	// selector + offset word + length word + 2 tuples of 2 words each
	assert.Equal(t, 4+32*6, len(calldata))
}

func TestEncodeSubmitReportsDeterministic(t *testing.T) {
	first, err := EncodeSubmitReports(sampleReport())
	require.NoError(t, err)

	// rebuild the report so map iteration order differs between runs
	for range 10 {
		again, err := EncodeSubmitReports(sampleReport())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestEncodeSubmitReportsMalformedAddress(t *testing.T) {
	report := sampleReport()
	report.FinalPrices["not-an-address"] = big.NewInt(1)

	_, err := EncodeSubmitReports(report)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not-an-address")
}

func TestEncodeSubmitReportsEmptyPrices(t *testing.T) {
	report := sampleReport()
	report.FinalPrices = map[string]*big.Int{}

	calldata, err := EncodeSubmitReports(report)

	require.NoError(t, err)
	// selector + offset word + zero-length word
	assert.Equal(t, 4+32*2, len(calldata))
}
