package restapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"nav_oracle/internal/app/service"
	"nav_oracle/internal/domain/entity"
)

// APIReportResponse wraps a report run's outcome for HTTP consumers.
type APIReportResponse struct {
	Report        *entity.OracleReport `json:"report,omitempty"`
	GeneratedAt   string               `json:"generated_at,omitempty"`
	StatusMessage string               `json:"status_message"`
}

// ReportHandler exposes the report pipeline over HTTP: trigger a cycle, read
// the last successful result.
type ReportHandler struct {
	pipeline *service.Pipeline

	mu          sync.RWMutex
	lastReport  *entity.OracleReport
	lastRunTime time.Time
}

// NewReportHandler creates a ReportHandler around the assembled pipeline.
func NewReportHandler(pipeline *service.Pipeline) *ReportHandler {
	return &ReportHandler{pipeline: pipeline}
}

// RunCycle executes one report cycle and stores the result for
// LatestReportHandler. Shared by the HTTP trigger and the scheduled runner.
func (h *ReportHandler) RunCycle(ctx context.Context) (*entity.OracleReport, error) {
	report, err := h.pipeline.Run(ctx)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	h.lastReport = report
	h.lastRunTime = time.Now()
	h.mu.Unlock()
	return report, nil
}

// RunReportHandler triggers one full report cycle synchronously and returns
// the published report.
func (h *ReportHandler) RunReportHandler(c *gin.Context) {
	report, err := h.RunCycle(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, APIReportResponse{
			StatusMessage: "Report cycle failed: " + err.Error(),
		})
		return
	}

	now := time.Now()
	c.JSON(http.StatusOK, APIReportResponse{
		Report:        report,
		GeneratedAt:   now.UTC().Format(time.RFC3339),
		StatusMessage: "Report generated and published successfully.",
	})
}

// LatestReportHandler returns the most recent successful report from this
// process, if any.
func (h *ReportHandler) LatestReportHandler(c *gin.Context) {
	h.mu.RLock()
	report, runTime := h.lastReport, h.lastRunTime
	h.mu.RUnlock()

	if report == nil {
		c.JSON(http.StatusNotFound, APIReportResponse{
			StatusMessage: "No report has been generated yet.",
		})
		return
	}
	c.JSON(http.StatusOK, APIReportResponse{
		Report:        report,
		GeneratedAt:   runTime.UTC().Format(time.RFC3339),
		StatusMessage: "Latest report retrieved successfully.",
	})
}
