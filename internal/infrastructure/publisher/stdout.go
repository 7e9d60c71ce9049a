package publisher

import (
	"context"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"

	"nav_oracle/internal/app/port"
	"nav_oracle/internal/domain/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// stdoutPayload is the dry-run output: the report itself plus the calldata an
// operator can submit by hand.
type stdoutPayload struct {
	Report   *entity.OracleReport `json:"report"`
	To       string               `json:"to"`
	Calldata string               `json:"calldata"`
}

// StdoutPublisher prints the finished report and its submitReports calldata
// as JSON instead of touching the chain. This is the default mode.
type StdoutPublisher struct {
	oracleAddress string
	out           io.Writer
	logger        port.Logger
}

// NewStdoutPublisher creates a StdoutPublisher writing to os.Stdout.
func NewStdoutPublisher(oracleAddress string, logger port.Logger) *StdoutPublisher {
	return &StdoutPublisher{oracleAddress: oracleAddress, out: os.Stdout, logger: logger}
}

// Publish implements port.ReportPublisher.
func (p *StdoutPublisher) Publish(_ context.Context, report *entity.OracleReport) error {
	calldata, err := EncodeSubmitReports(report)
	if err != nil {
		return err
	}

	payload := stdoutPayload{
		Report:   report,
		To:       p.oracleAddress,
		Calldata: hexLower(calldata),
	}
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report payload: %w", err)
	}

	if _, err := fmt.Fprintln(p.out, string(encoded)); err != nil {
		return fmt.Errorf("failed to write report to output: %w", err)
	}
	p.logger.Info("Report printed", "assets", len(report.FinalPrices), "calldata_bytes", len(calldata))
	return nil
}
