package embedding

import (
	"context"
	"time"

	"go.uber.org/zap"

	"docchat/internal/domain"
	"docchat/internal/metrics"
)

// Instrumented decorates a backend with request logging and Prometheus metrics.
type Instrumented struct {
	inner  domain.Embedder
	logger *zap.Logger
}

func NewInstrumented(inner domain.Embedder, logger *zap.Logger) *Instrumented {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Instrumented{inner: inner, logger: logger}
}

func (p *Instrumented) Name() string { return p.inner.Name() }

// Prepare forwards to the inner backend when it needs the corpus and instruments the
// bound embedder it returns.
func (p *Instrumented) Prepare(corpus []string) (domain.Embedder, error) {
	prep, ok := p.inner.(domain.Preparer)
	if !ok {
		return p, nil
	}
	bound, err := prep.Prepare(corpus)
	if err != nil {
		return nil, err
	}
	return &Instrumented{inner: bound, logger: p.logger}, nil
}

func (p *Instrumented) Embed(ctx context.Context, text string) ([]float64, error) {
	provider := p.inner.Name()
	start := time.Now()

	vec, err := p.inner.Embed(ctx, text)

	duration := time.Since(start)
	metrics.EmbeddingRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(provider, "error").Inc()
		p.logger.Error("Embedding request failed",
			zap.String("provider", provider),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues(provider, "success").Inc()
	p.logger.Debug("Embedding request completed",
		zap.String("provider", provider),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(vec)),
	)
	return vec, nil
}
