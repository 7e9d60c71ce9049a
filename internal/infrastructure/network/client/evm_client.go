package client

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"
)

// Minimal ABI fragments for the contracts the oracle reads. Only the
// functions actually called are declared.
const (
	erc20ABI = `[{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"}]`

	vaultABI = `[
		{"inputs":[],"name":"subvaults","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
		{"inputs":[{"name":"index","type":"uint256"}],"name":"subvaultAt","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"}
	]`

	oracleHelperABI = `[
		{"inputs":[{"name":"totalAssets","type":"uint256"},{"name":"assets","type":"address[]"},{"name":"balances","type":"uint256[]"}],"name":"getPricesD18","outputs":[{"name":"","type":"uint224[]"}],"stateMutability":"view","type":"function"}
	]`

	oracleABI = `[
		{"inputs":[],"name":"lastReportTimestamp","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
		{"inputs":[],"name":"reportTimeout","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
	]`

	aggregatorABI = `[
		{"inputs":[],"name":"latestRoundData","outputs":[{"name":"roundId","type":"uint80"},{"name":"answer","type":"int256"},{"name":"startedAt","type":"uint256"},{"name":"updatedAt","type":"uint256"},{"name":"answeredInRound","type":"uint80"}],"stateMutability":"view","type":"function"},
		{"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"}
	]`

	wstethABI = `[
		{"inputs":[{"name":"_wstETHAmount","type":"uint256"}],"name":"getStETHByWstETH","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
	]`
)

var (
	parsedABIs    map[string]abi.ABI
	parseABIsOnce sync.Once
	erc20MethodID []byte
)

func initParsedABIs() {
	parseABIsOnce.Do(func() {
		parsedABIs = make(map[string]abi.ABI)
		for name, raw := range map[string]string{
			"erc20":        erc20ABI,
			"vault":        vaultABI,
			"oracleHelper": oracleHelperABI,
			"oracle":       oracleABI,
			"aggregator":   aggregatorABI,
			"wsteth":       wstethABI,
		} {
			parsed, err := abi.JSON(strings.NewReader(raw))
			if err != nil {
				// Static ABI text, failure to parse means the binary is broken.
				panic(fmt.Sprintf("failed to parse %s ABI: %v", name, err))
			}
			parsedABIs[name] = parsed
		}
		erc20MethodID = parsedABIs["erc20"].Methods["balanceOf"].ID
	})
}

// BalanceQuery describes a single balance read: the native coin balance of
// Holder when Native is set, Token's ERC-20 balance of Holder otherwise.
type BalanceQuery struct {
	Holder common.Address
	Token  common.Address
	Native bool
}

// BalanceResult pairs a query with its outcome. Err is per-item so a single
// reverting token does not void the whole batch.
type BalanceResult struct {
	Query   BalanceQuery
	Balance *big.Int
	Err     error
}

// EVMClient is a rate-limited read-only client for one EVM network.
type EVMClient struct {
	ethClient      *ethclient.Client
	limiter        *rate.Limiter
	networkName    string
	rpcCallTimeout time.Duration
}

// NewEVMClient dials the first reachable endpoint out of rpcURLs (primary
// first, fallbacks in order).
func NewEVMClient(networkName string, rpcURLs []string, limiter *rate.Limiter, connectionTimeout, rpcCallTimeout time.Duration) (*EVMClient, error) {
	initParsedABIs()
	var lastErr error
	for _, rpcURL := range rpcURLs {
		ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
		ethCli, err := ethclient.DialContext(ctx, rpcURL)
		cancel()
		if err == nil {
			return &EVMClient{
				ethClient:      ethCli,
				limiter:        limiter,
				networkName:    networkName,
				rpcCallTimeout: rpcCallTimeout,
			}, nil
		}
		lastErr = fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
	}
	return nil, fmt.Errorf("all RPC connection attempts failed for network %s: %w", networkName, lastErr)
}

// NetworkName returns the configured name of the network this client talks to.
func (c *EVMClient) NetworkName() string {
	return c.networkName
}

func (c *EVMClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// callContract packs a view call against the named minimal ABI, executes it
// and unpacks the outputs.
func (c *EVMClient) callContract(ctx context.Context, abiName string, to common.Address, method string, args ...interface{}) ([]interface{}, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	contractABI := parsedABIs[abiName]
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	defer cancel()
	output, err := c.ethClient.CallContract(callCtx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s call to %s failed: %w", method, to.Hex(), err)
	}

	unpacked, err := contractABI.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result from %s: %w", method, to.Hex(), err)
	}
	return unpacked, nil
}

// GetBalances fetches multiple balances in one JSON-RPC batch request.
func (c *EVMClient) GetBalances(ctx context.Context, queries []BalanceQuery) ([]BalanceResult, error) {
	if len(queries) == 0 {
		return []BalanceResult{}, nil
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	batchElems := make([]rpc.BatchElem, len(queries))
	results := make([]BalanceResult, len(queries))

	for i, query := range queries {
		results[i] = BalanceResult{Query: query}
		if query.Native {
			batchElems[i] = rpc.BatchElem{
				Method: "eth_getBalance",
				Args:   []interface{}{query.Holder, "latest"},
				Result: new(*hexutil.Big),
			}
			continue
		}
		callData := append(append([]byte{}, erc20MethodID...), common.LeftPadBytes(query.Holder.Bytes(), 32)...)
		callArgs := map[string]interface{}{
			"to":   query.Token,
			"data": hexutil.Bytes(callData),
		}
		batchElems[i] = rpc.BatchElem{
			Method: "eth_call",
			Args:   []interface{}{callArgs, "latest"},
			Result: new(hexutil.Bytes),
		}
	}

	rpcCallCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	defer cancel()
	if err := c.ethClient.Client().BatchCallContext(rpcCallCtx, batchElems); err != nil {
		return results, fmt.Errorf("RPC batch call failed on %s: %w", c.networkName, err)
	}

	for i, elem := range batchElems {
		if elem.Error != nil {
			results[i].Err = fmt.Errorf("failed to fetch balance for holder %s: %w", queries[i].Holder.Hex(), elem.Error)
			continue
		}
		if queries[i].Native {
			if result, ok := elem.Result.(**hexutil.Big); ok && result != nil && *result != nil {
				results[i].Balance = (*big.Int)(*result)
			} else {
				results[i].Err = fmt.Errorf("failed to decode native balance for %s", queries[i].Holder.Hex())
			}
			continue
		}
		result, ok := elem.Result.(*hexutil.Bytes)
		if !ok || result == nil {
			results[i].Err = fmt.Errorf("failed to decode token balance for %s", queries[i].Holder.Hex())
			continue
		}
		if len(*result) == 0 {
			results[i].Balance = big.NewInt(0)
			continue
		}
		unpacked, err := parsedABIs["erc20"].Unpack("balanceOf", *result)
		if err != nil || len(unpacked) == 0 {
			results[i].Err = fmt.Errorf("failed to unpack balanceOf result for token %s: %v", queries[i].Token.Hex(), err)
			continue
		}
		balance, ok := unpacked[0].(*big.Int)
		if !ok {
			results[i].Err = fmt.Errorf("unexpected balanceOf result type %T for token %s", unpacked[0], queries[i].Token.Hex())
			continue
		}
		results[i].Balance = balance
	}
	return results, nil
}

// SubvaultAddresses reads the vault's subvault count and resolves every index
// in one batch.
func (c *EVMClient) SubvaultAddresses(ctx context.Context, vault common.Address) ([]common.Address, error) {
	unpacked, err := c.callContract(ctx, "vault", vault, "subvaults")
	if err != nil {
		return nil, err
	}
	count, ok := unpacked[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected subvaults() result type %T", unpacked[0])
	}
	n := int(count.Int64())
	if n == 0 {
		return []common.Address{}, nil
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	vaultContractABI := parsedABIs["vault"]
	batchElems := make([]rpc.BatchElem, n)
	for i := 0; i < n; i++ {
		data, packErr := vaultContractABI.Pack("subvaultAt", big.NewInt(int64(i)))
		if packErr != nil {
			return nil, fmt.Errorf("failed to pack subvaultAt(%d): %w", i, packErr)
		}
		batchElems[i] = rpc.BatchElem{
			Method: "eth_call",
			Args: []interface{}{map[string]interface{}{
				"to":   vault,
				"data": hexutil.Bytes(data),
			}, "latest"},
			Result: new(hexutil.Bytes),
		}
	}

	rpcCallCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	defer cancel()
	if err := c.ethClient.Client().BatchCallContext(rpcCallCtx, batchElems); err != nil {
		return nil, fmt.Errorf("subvaultAt batch call failed: %w", err)
	}

	subvaults := make([]common.Address, 0, n)
	for i, elem := range batchElems {
		if elem.Error != nil {
			return nil, fmt.Errorf("subvaultAt(%d) failed: %w", i, elem.Error)
		}
		raw, ok := elem.Result.(*hexutil.Bytes)
		if !ok || raw == nil || len(*raw) < 32 {
			return nil, fmt.Errorf("subvaultAt(%d) returned malformed data", i)
		}
		subvaults = append(subvaults, common.BytesToAddress((*raw)[12:32]))
	}
	return subvaults, nil
}

// HelperPricesD18 asks the oracle helper contract to convert the total
// valuation plus per-asset balances into 18-decimal submission prices.
func (c *EVMClient) HelperPricesD18(ctx context.Context, helper common.Address, totalAssets *big.Int, assets []common.Address, balances []*big.Int) ([]*big.Int, error) {
	unpacked, err := c.callContract(ctx, "oracleHelper", helper, "getPricesD18", totalAssets, assets, balances)
	if err != nil {
		return nil, err
	}
	prices, ok := unpacked[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected getPricesD18 result type %T", unpacked[0])
	}
	if len(prices) != len(assets) {
		return nil, fmt.Errorf("getPricesD18 returned %d prices for %d assets", len(prices), len(assets))
	}
	return prices, nil
}

// LatestRoundData reads a Chainlink aggregator's most recent answer together
// with its update timestamp and decimal count.
func (c *EVMClient) LatestRoundData(ctx context.Context, feed common.Address) (answer *big.Int, updatedAt *big.Int, decimals uint8, err error) {
	unpacked, err := c.callContract(ctx, "aggregator", feed, "latestRoundData")
	if err != nil {
		return nil, nil, 0, err
	}
	answer, ok := unpacked[1].(*big.Int)
	if !ok {
		return nil, nil, 0, fmt.Errorf("unexpected latestRoundData answer type %T", unpacked[1])
	}
	updatedAt, ok = unpacked[3].(*big.Int)
	if !ok {
		return nil, nil, 0, fmt.Errorf("unexpected latestRoundData updatedAt type %T", unpacked[3])
	}

	decUnpacked, err := c.callContract(ctx, "aggregator", feed, "decimals")
	if err != nil {
		return nil, nil, 0, err
	}
	decimals, ok = decUnpacked[0].(uint8)
	if !ok {
		return nil, nil, 0, fmt.Errorf("unexpected decimals result type %T", decUnpacked[0])
	}
	return answer, updatedAt, decimals, nil
}

// StETHByWstETH converts a wstETH amount to its stETH equivalent via the
// wstETH contract's published exchange rate.
func (c *EVMClient) StETHByWstETH(ctx context.Context, wsteth common.Address, amount *big.Int) (*big.Int, error) {
	unpacked, err := c.callContract(ctx, "wsteth", wsteth, "getStETHByWstETH", amount)
	if err != nil {
		return nil, err
	}
	converted, ok := unpacked[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected getStETHByWstETH result type %T", unpacked[0])
	}
	return converted, nil
}

// OracleReportStatus reads the oracle contract's last report timestamp and its
// configured timeout, both in unix seconds.
func (c *EVMClient) OracleReportStatus(ctx context.Context, oracle common.Address) (lastReport, timeout *big.Int, err error) {
	unpacked, err := c.callContract(ctx, "oracle", oracle, "lastReportTimestamp")
	if err != nil {
		return nil, nil, err
	}
	lastReport, ok := unpacked[0].(*big.Int)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected lastReportTimestamp result type %T", unpacked[0])
	}

	unpacked, err = c.callContract(ctx, "oracle", oracle, "reportTimeout")
	if err != nil {
		return nil, nil, err
	}
	timeout, ok = unpacked[0].(*big.Int)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected reportTimeout result type %T", unpacked[0])
	}
	return lastReport, timeout, nil
}

// BlockNumber returns the latest block number.
func (c *EVMClient) BlockNumber(ctx context.Context) (uint64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	callCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	defer cancel()
	return c.ethClient.BlockNumber(callCtx)
}

// FilterContractLogs returns the logs emitted by contract for the given topic0
// over [fromBlock, toBlock].
func (c *EVMClient) FilterContractLogs(ctx context.Context, contract common.Address, topic0 common.Hash, fromBlock, toBlock uint64) ([]types.Log, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	callCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	defer cancel()
	return c.ethClient.FilterLogs(callCtx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{contract},
		Topics:    [][]common.Hash{{topic0}},
	})
}
