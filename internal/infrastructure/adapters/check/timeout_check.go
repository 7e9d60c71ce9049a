package check

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"nav_oracle/internal/app/port"
	"nav_oracle/internal/domain/entity"
)

// oracleStatusReader is the slice of the EVM client this check needs.
type oracleStatusReader interface {
	OracleReportStatus(ctx context.Context, oracle common.Address) (lastReport, timeout *big.Int, err error)
}

// ReportTimeoutCheck verifies the oracle contract will accept a new report:
// submissions inside the configured on-chain timeout window revert. The
// remaining wait is usually hours, far beyond the pre-flight retry budget, so
// this failure is not retryable.
type ReportTimeoutCheck struct {
	evm    oracleStatusReader
	oracle common.Address
	logger port.Logger
	now    func() time.Time
}

// NewReportTimeoutCheck creates a ReportTimeoutCheck against the oracle
// contract.
func NewReportTimeoutCheck(evm oracleStatusReader, oracle common.Address, logger port.Logger) *ReportTimeoutCheck {
	return &ReportTimeoutCheck{evm: evm, oracle: oracle, logger: logger, now: time.Now}
}

// Name implements port.CheckAdapter.
func (c *ReportTimeoutCheck) Name() string {
	return "report_timeout"
}

// RunCheck reads the last report timestamp and the contract's timeout and
// fails with the human-readable remaining wait while the window is still open.
func (c *ReportTimeoutCheck) RunCheck(ctx context.Context) (entity.CheckResult, error) {
	lastReport, timeout, err := c.evm.OracleReportStatus(ctx, c.oracle)
	if err != nil {
		return entity.CheckResult{}, err
	}

	nextAllowed := time.Unix(lastReport.Int64(), 0).Add(time.Duration(timeout.Int64()) * time.Second)
	now := c.now()
	if now.Before(nextAllowed) {
		remaining := nextAllowed.Sub(now).Truncate(time.Second)
		return entity.Fail(fmt.Sprintf(
			"report timeout has not elapsed: next report accepted in %s (at %s)",
			remaining, nextAllowed.UTC().Format(time.RFC3339)), false), nil
	}
	return entity.Pass("report timeout elapsed, oracle accepts a new report"), nil
}
