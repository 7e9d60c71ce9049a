package publisher

import (
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"nav_oracle/internal/domain/entity"
)

// reportTuple mirrors the (address asset, uint224 priceD18) tuple of the
// oracle contract's submitReports entrypoint.
type reportTuple struct {
	Asset    common.Address `abi:"asset"`
	PriceD18 *big.Int       `abi:"priceD18"`
}

var (
	submitReportsArgs     abi.Arguments
	submitReportsSelector []byte
	submitReportsOnce     sync.Once
)

func initSubmitReportsABI() {
	submitReportsOnce.Do(func() {
		tupleArray, err := abi.NewType("tuple[]", "", []abi.ArgumentMarshaling{
			{Name: "asset", Type: "address"},
			{Name: "priceD18", Type: "uint224"},
		})
		if err != nil {
			panic(fmt.Sprintf("failed to build submitReports tuple type: %v", err))
		}
		submitReportsArgs = abi.Arguments{{Type: tupleArray}}
		submitReportsSelector = crypto.Keccak256([]byte("submitReports((address,uint224)[])"))[:4]
	})
}

// EncodeSubmitReports builds the submitReports calldata from a finished
// report. Entries are sorted by asset address so the calldata is identical
// for identical reports.
func EncodeSubmitReports(report *entity.OracleReport) ([]byte, error) {
	initSubmitReportsABI()

	addrs := make([]common.Address, 0, len(report.FinalPrices))
	byAddr := make(map[common.Address]*big.Int, len(report.FinalPrices))
	for hex, price := range report.FinalPrices {
		if !common.IsHexAddress(hex) {
			return nil, fmt.Errorf("report contains malformed asset address %q", hex)
		}
		addr := common.HexToAddress(hex)
		addrs = append(addrs, addr)
		byAddr[addr] = price
	}
	entity.SortAddresses(addrs)

	tuples := make([]reportTuple, len(addrs))
	for i, addr := range addrs {
		tuples[i] = reportTuple{Asset: addr, PriceD18: byAddr[addr]}
	}

	packed, err := submitReportsArgs.Pack(tuples)
	if err != nil {
		return nil, fmt.Errorf("failed to pack submitReports arguments: %w", err)
	}
	return append(append([]byte{}, submitReportsSelector...), packed...), nil
}

// lowercased hex with 0x prefix, the form the Safe service expects
func hexLower(data []byte) string {
	return "0x" + strings.ToLower(common.Bytes2Hex(data))
}
