package check

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"nav_oracle/internal/app/port"
	"nav_oracle/internal/client"
	"nav_oracle/internal/domain/entity"
)

// 4-byte selector of submitReports((address,uint224)[])
var submitReportsSelector = hexutil.Encode(crypto.Keccak256([]byte("submitReports((address,uint224)[])"))[:4])

// SafeProposalCheck fails while a submitReports proposal is already queued on
// the Safe: publishing a second report would race the pending one. The
// condition clears once signers execute or reject the proposal, so a retry is
// recommended.
type SafeProposalCheck struct {
	api         client.SafeClient
	safeAddress string
	logger      port.Logger
}

// NewSafeProposalCheck creates a SafeProposalCheck.
func NewSafeProposalCheck(api client.SafeClient, safeAddress string, logger port.Logger) *SafeProposalCheck {
	return &SafeProposalCheck{api: api, safeAddress: safeAddress, logger: logger}
}

// Name implements port.CheckAdapter.
func (c *SafeProposalCheck) Name() string {
	return "safe_proposal"
}

// RunCheck lists the Safe's pending transactions and fails if any of them
// carries submitReports calldata.
func (c *SafeProposalCheck) RunCheck(ctx context.Context) (entity.CheckResult, error) {
	pending, err := c.api.GetPendingTransactions(ctx, c.safeAddress)
	if err != nil {
		return entity.CheckResult{}, err
	}

	for _, tx := range pending {
		if strings.HasPrefix(strings.ToLower(tx.Data), submitReportsSelector) {
			c.logger.Warn("Found pending report proposal on Safe",
				"safe", c.safeAddress, "safe_tx_hash", tx.SafeTxHash, "nonce", tx.Nonce)
			return entity.Fail(fmt.Sprintf(
				"a report proposal is already pending on Safe %s (tx %s)", c.safeAddress, tx.SafeTxHash), true), nil
		}
	}
	return entity.Pass(fmt.Sprintf("no pending report proposal among %d queued transaction(s)", len(pending))), nil
}
