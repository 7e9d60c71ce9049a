package port

import (
	"context"

	"nav_oracle/internal/domain/entity"
)

// ReportPublisher delivers the finished report. Implementations: stdout JSON
// for dry runs, Safe transaction-service proposal for live submission.
type ReportPublisher interface {
	Publish(ctx context.Context, report *entity.OracleReport) error
}
