package partnerdex

import (
	"context"

	healthuc "github.com/kailas-cloud/partnerdex/internal/usecase/health"
)

// HealthStatus is the aggregated directory health.
type HealthStatus struct {
	Status    string // "ok", "degraded", "error"
	Database  string // "ok" or "error"
	Directory string // "ok", "fallback" or "error"
}

// Serving reports whether searches return entities from some source.
func (h HealthStatus) Serving() bool {
	return h.Directory == string(healthuc.CheckOK) || h.Directory == string(healthuc.CheckFallback)
}

// Health checks the database and the published directory.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	return HealthStatus{
		Status:    string(report.Status),
		Database:  string(report.Checks["database"]),
		Directory: string(report.Checks["directory"]),
	}
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
