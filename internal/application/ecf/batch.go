package ecf

import (
	"context"
	"errors"

	ctxutil "3tcapital/ms_ecf_core/internal/infrastructure/context"
)

// ErrNotProcessed marks batch entries that were never built because the
// batch was canceled first.
var ErrNotProcessed = errors.New("entry not processed")

// GenerateBatch builds every input concurrently and returns one entry per
// input, in input order. A failing entry does not affect the others. When ctx
// is canceled the remaining entries carry ErrNotProcessed and the context
// error is returned alongside the partial entries.
func (s *Service) GenerateBatch(ctx context.Context, inputs []GenerateInput) ([]BatchEntry, error) {
	s.metrics.ObserveBatchSize(len(inputs))
	if len(inputs) == 0 {
		return []BatchEntry{}, nil
	}

	aggregator := NewResultAggregator(len(inputs))
	pool := NewGenerationWorkerPool(ctx, s, min(s.workers, len(inputs)))
	pool.Start()

	go func() {
		defer pool.Close()
		for i, in := range inputs {
			if err := pool.Submit(GenerationJob{Input: in, Index: i}); err != nil {
				return
			}
		}
	}()

	aggregator.Collect(pool.Results())
	entries := aggregator.Entries(ErrNotProcessed)

	stats := aggregator.GetStats()
	s.log.InfoContext(ctx, "e-CF batch finished",
		"correlation_id", ctxutil.GetCorrelationID(ctx),
		"total", stats.TotalDocuments,
		"processed", stats.ProcessedCount,
		"failed", stats.FailedCount,
		"duration_ms", float64(stats.Duration.Nanoseconds())/1e6,
		"workers", min(s.workers, len(inputs)),
	)

	if err := ctx.Err(); err != nil {
		return entries, err
	}
	return entries, nil
}
