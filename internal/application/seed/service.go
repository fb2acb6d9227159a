package seed

import (
	"context"
	"fmt"
	"log/slog"

	coreseed "3tcapital/ms_ecf_core/internal/core/seed"
	ctxutil "3tcapital/ms_ecf_core/internal/infrastructure/context"
	"3tcapital/ms_ecf_core/internal/infrastructure/metrics"
)

// Issued is a seed together with its SemillaModel rendering.
type Issued struct {
	Seed coreseed.Seed
	XML  []byte
}

// Service issues authentication seeds.
type Service struct {
	generator *coreseed.Generator
	metrics   *metrics.Metrics
	log       *slog.Logger
}

// NewService creates a seed service. A nil generator uses crypto/rand and the wall clock.
func NewService(generator *coreseed.Generator, m *metrics.Metrics, log *slog.Logger) *Service {
	if generator == nil {
		generator = coreseed.NewGenerator(nil, nil)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{generator: generator, metrics: m, log: log}
}

// Issue draws a new seed and renders it.
func (s *Service) Issue(ctx context.Context) (Issued, error) {
	sd, err := s.generator.New()
	if err != nil {
		s.log.ErrorContext(ctx, "failed to draw seed",
			"correlation_id", ctxutil.GetCorrelationID(ctx),
			"error", err,
		)
		return Issued{}, err
	}

	body, err := sd.XML()
	if err != nil {
		return Issued{}, fmt.Errorf("render seed: %w", err)
	}

	s.metrics.IncrementSeeds()
	s.log.DebugContext(ctx, "seed issued", "correlation_id", ctxutil.GetCorrelationID(ctx))
	return Issued{Seed: sd, XML: body}, nil
}
