package service

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"nav_oracle/internal/app/port"
	"nav_oracle/internal/domain/entity"
	"nav_oracle/internal/pkg/metrics"
)

// PipelineConfig carries the per-cycle knobs read from configuration.
type PipelineConfig struct {
	Vault         common.Address
	BaseAsset     common.Address
	PreCheckMax   int           // additional pre-flight rounds after the first
	PreCheckDelay time.Duration // constant sleep between pre-flight rounds
	CycleTimeout  time.Duration // 0 disables the wall-clock cap
}

// Pipeline wires the full report cycle: pre-flight gate, asset collection,
// pricing, report assembly, publication.
type Pipeline struct {
	cfg       PipelineConfig
	preflight *PreflightService
	assets    *AssetService
	pricing   *PricingService
	reports   *ReportService
	publisher port.ReportPublisher
	logger    port.Logger
}

// NewPipeline assembles a Pipeline from its stage services.
func NewPipeline(
	cfg PipelineConfig,
	preflight *PreflightService,
	assets *AssetService,
	pricing *PricingService,
	reports *ReportService,
	publisher port.ReportPublisher,
	logger port.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		preflight: preflight,
		assets:    assets,
		pricing:   pricing,
		reports:   reports,
		publisher: publisher,
		logger:    logger,
	}
}

// Run executes one complete report cycle and returns the published report.
// Stages run strictly in order; the first failing stage aborts the cycle.
func (p *Pipeline) Run(ctx context.Context) (*entity.OracleReport, error) {
	start := time.Now()
	if p.cfg.CycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.CycleTimeout)
		defer cancel()
	}

	p.logger.Info("Starting report cycle", "vault", p.cfg.Vault.Hex())

	if err := p.preflight.RunWithRetry(ctx, p.cfg.PreCheckMax, p.cfg.PreCheckDelay); err != nil {
		metrics.ReportCycleFailures.WithLabelValues("preflight").Inc()
		return nil, err
	}

	aggregated, err := p.assets.CollectAssets(ctx, p.cfg.Vault)
	if err != nil {
		metrics.ReportCycleFailures.WithLabelValues("collect").Inc()
		return nil, err
	}

	prices, total, err := p.pricing.PriceAndTotal(ctx, p.cfg.BaseAsset, aggregated)
	if err != nil {
		metrics.ReportCycleFailures.WithLabelValues("price").Inc()
		return nil, err
	}

	report, err := p.reports.BuildReport(ctx, p.cfg.Vault, aggregated, prices, total)
	if err != nil {
		metrics.ReportCycleFailures.WithLabelValues("report").Inc()
		return nil, err
	}

	if err := p.publisher.Publish(ctx, report); err != nil {
		metrics.ReportCycleFailures.WithLabelValues("publish").Inc()
		return nil, err
	}

	elapsed := time.Since(start)
	metrics.ReportCycleDuration.Observe(elapsed.Seconds())
	p.logger.Info("Report cycle complete", "duration", elapsed.String())
	return report, nil
}
