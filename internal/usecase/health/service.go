package health

import (
	"context"

	"github.com/kailas-cloud/partnerdex/internal/domain/snapshot"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the directory has nothing to serve.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckFallback indicates the directory is serving the bundled fallback.
	CheckFallback CheckResult = "fallback"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	directory SnapshotReader
}

// New creates a Service. directory can be nil.
func New(db DBPinger, directory SnapshotReader) *Service {
	return &Service{db: db, directory: directory}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
	} else {
		checks["database"] = CheckOK
	}

	if s.directory != nil {
		switch s.directory.Current().Source() {
		case snapshot.Primary:
			checks["directory"] = CheckOK
		case snapshot.Fallback:
			checks["directory"] = CheckFallback
		default:
			checks["directory"] = CheckError
		}
	}

	status := Healthy
	for _, v := range checks {
		if v != CheckOK {
			status = Degraded
			break
		}
	}
	if checks["directory"] == CheckError && checks["database"] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}
