package generate

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/recomserve/internal/metrics"
	"github.com/bastiangx/recomserve/pkg/suggest"
)

// Instrumented records call counts, latency and output size per provider
type Instrumented struct {
	next     suggest.Generator
	provider string
	logger   *log.Logger
}

func NewInstrumented(next suggest.Generator, provider string, logger *log.Logger) *Instrumented {
	return &Instrumented{next: next, provider: provider, logger: logger}
}

func (i *Instrumented) Generate(ctx context.Context, prefix string, count int) ([]string, error) {
	start := time.Now()
	out, err := i.next.Generate(ctx, prefix, count)
	duration := time.Since(start)

	metrics.GeneratorDuration.WithLabelValues(i.provider).Observe(duration.Seconds())
	if err != nil {
		status := "error"
		if errors.Is(err, suggest.ErrAdapterTimeout) || errors.Is(err, context.DeadlineExceeded) {
			status = "timeout"
		}
		metrics.GeneratorRequestsTotal.WithLabelValues(i.provider, status).Inc()
		i.logger.Warn("Generator call failed", "provider", i.provider, "prefix", prefix, "duration", duration, "err", err)
		return nil, err
	}

	metrics.GeneratorRequestsTotal.WithLabelValues(i.provider, "success").Inc()
	metrics.GeneratorContinuationsTotal.WithLabelValues(i.provider).Add(float64(len(out)))
	i.logger.Debug("Generator call", "provider", i.provider, "prefix", prefix, "count", count, "returned", len(out), "duration", duration)
	return out, nil
}
