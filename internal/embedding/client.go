package embedding

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"docchat/internal/domain"
)

// DefaultConcurrency bounds the number of in-flight embedding requests of one batch.
const DefaultConcurrency = 8

// Client embeds passages and queries through a single-text backend.
type Client struct {
	backend     domain.Embedder
	concurrency int
	logger      *zap.Logger
}

// NewClient wraps backend. concurrency <= 0 uses DefaultConcurrency.
func NewClient(backend domain.Embedder, concurrency int, logger *zap.Logger) *Client {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{backend: backend, concurrency: concurrency, logger: logger}
}

// Name returns the backend identifier.
func (c *Client) Name() string { return c.backend.Name() }

// Prepare returns a client bound to corpus. Backends that do not need the corpus
// return c itself. c is never modified.
func (c *Client) Prepare(corpus []string) (*Client, error) {
	p, ok := c.backend.(domain.Preparer)
	if !ok {
		return c, nil
	}
	bound, err := p.Prepare(corpus)
	if err != nil {
		return nil, domain.NewFailure(domain.KindEmbedding, fmt.Errorf("prepare %s: %w", c.backend.Name(), err))
	}
	return &Client{backend: bound, concurrency: c.concurrency, logger: c.logger}, nil
}

// Embed issues one request per text concurrently and returns the vectors in input
// order. Any failed request aborts the whole batch.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors := make([][]float64, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, text := range texts {
		g.Go(func() error {
			vec, err := c.backend.Embed(gctx, text)
			if err != nil {
				return fmt.Errorf("embed passage %d: %w", i, err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.logger.Warn("Batch embedding aborted",
			zap.String("provider", c.backend.Name()),
			zap.Int("batch_size", len(texts)),
			zap.Error(err),
		)
		return nil, domain.AsFailure(err, domain.KindEmbedding)
	}
	if err := checkCount(len(texts), vectors); err != nil {
		return nil, err
	}
	return vectors, nil
}

// EmbedOne embeds a single query text.
func (c *Client) EmbedOne(ctx context.Context, text string) ([]float64, error) {
	vec, err := c.backend.Embed(ctx, text)
	if err != nil {
		return nil, domain.AsFailure(err, domain.KindEmbedding)
	}
	if len(vec) == 0 {
		return nil, domain.Failuref(domain.KindMismatch, "empty query vector from %s", c.backend.Name())
	}
	return vec, nil
}

func checkCount(want int, vectors [][]float64) error {
	got := 0
	for _, v := range vectors {
		if len(v) > 0 {
			got++
		}
	}
	if got != want || len(vectors) != want {
		return domain.Failuref(domain.KindMismatch, "got %d vectors for %d texts", got, want)
	}
	return nil
}
