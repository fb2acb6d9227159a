package health

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	corehealth "3tcapital/ms_ecf_core/internal/core/health"
)

const checkTimeout = 2 * time.Second

// Metadata contains immutable metadata about the running service.
type Metadata struct {
	Service     string
	Version     string
	Environment string
}

// Checker probes one dependency. Check returns nil when it is reachable.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// Service exposes health-check use cases to adapters.
type Service struct {
	meta      Metadata
	startedAt time.Time
	checkers  []Checker
}

func NewService(meta Metadata, checkers ...Checker) *Service {
	return &Service{
		meta:      meta,
		startedAt: time.Now().UTC(),
		checkers:  checkers,
	}
}

// Status returns the current availability snapshot. Checkers run in
// parallel, each under its own deadline; any failure turns the overall
// status to DEGRADED. Dependencies keep the registration order.
func (s *Service) Status(ctx context.Context) corehealth.Status {
	uptime := time.Since(s.startedAt)
	status := corehealth.Status{
		Service:     s.meta.Service,
		Version:     s.meta.Version,
		Environment: s.meta.Environment,
		Status:      corehealth.StatusUp,
		StartedAt:   s.startedAt,
		Uptime:      uptime.String(),
		UptimeSecs:  int64(uptime.Seconds()),
	}
	if len(s.checkers) == 0 {
		return status
	}

	deps := make([]corehealth.Dependency, len(s.checkers))
	var g errgroup.Group
	for i, checker := range s.checkers {
		g.Go(func() error {
			deps[i] = probe(ctx, checker)
			return nil
		})
	}
	_ = g.Wait()

	for _, dep := range deps {
		if dep.Status != corehealth.StatusUp {
			status.Status = corehealth.StatusDegraded
		}
	}
	status.Dependencies = deps
	return status
}

func probe(ctx context.Context, checker Checker) corehealth.Dependency {
	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	err := checker.Check(checkCtx)
	dep := corehealth.Dependency{
		Name:      checker.Name(),
		Status:    corehealth.StatusUp,
		LatencyMs: float64(time.Since(start).Microseconds()) / 1e3,
	}
	if err != nil {
		dep.Status = corehealth.StatusDown
		dep.Error = err.Error()
	}
	return dep
}
