package embedding

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docchat/internal/domain"
)

// lengthEmbedder embeds a text as [len(text)] and sleeps longer for shorter texts so
// completions arrive out of order.
type lengthEmbedder struct {
	fail     map[string]error
	empty    map[string]bool
	inFlight atomic.Int32
	peak     atomic.Int32
	prepared []string
}

func (e *lengthEmbedder) Name() string { return "length" }

func (e *lengthEmbedder) Prepare(corpus []string) (domain.Embedder, error) {
	if len(corpus) == 0 {
		return nil, errors.New("nothing to prepare")
	}
	return &lengthEmbedder{fail: e.fail, empty: e.empty, prepared: corpus}, nil
}

func (e *lengthEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	n := e.inFlight.Add(1)
	defer e.inFlight.Add(-1)
	for {
		p := e.peak.Load()
		if n <= p || e.peak.CompareAndSwap(p, n) {
			break
		}
	}
	select {
	case <-time.After(time.Duration(20-len(text)) * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if err := e.fail[text]; err != nil {
		return nil, err
	}
	if e.empty[text] {
		return nil, nil
	}
	return []float64{float64(len(text))}, nil
}

func TestClient_EmbedPreservesOrder(t *testing.T) {
	texts := []string{"a", "bbbbbbbbbb", "ccc", "dddddddddddddd", "ee"}
	c := NewClient(&lengthEmbedder{}, 0, zap.NewNop())

	vectors, err := c.Embed(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))
	for i, text := range texts {
		assert.Equal(t, []float64{float64(len(text))}, vectors[i], "position %d", i)
	}
}

func TestClient_EmbedRespectsConcurrency(t *testing.T) {
	backend := &lengthEmbedder{}
	c := NewClient(backend, 2, nil)

	_, err := c.Embed(context.Background(), []string{"a", "b", "c", "d", "e", "f"})
	require.NoError(t, err)
	assert.LessOrEqual(t, backend.peak.Load(), int32(2))
}

func TestClient_EmbedFailureAbortsBatch(t *testing.T) {
	boom := errors.New("service unavailable")
	c := NewClient(&lengthEmbedder{fail: map[string]error{"ccc": boom}}, 0, nil)

	vectors, err := c.Embed(context.Background(), []string{"a", "bb", "ccc"})
	assert.Nil(t, vectors)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbedding)
	assert.ErrorIs(t, err, boom)
}

func TestClient_EmbedMismatch(t *testing.T) {
	c := NewClient(&lengthEmbedder{empty: map[string]bool{"bb": true}}, 0, nil)

	vectors, err := c.Embed(context.Background(), []string{"a", "bb", "ccc"})
	assert.Nil(t, vectors)
	assert.ErrorIs(t, err, domain.ErrMismatch)
	assert.Equal(t, domain.KindMismatch, domain.KindOf(err))
}

func TestClient_EmbedEmpty(t *testing.T) {
	vectors, err := NewClient(&lengthEmbedder{}, 0, nil).Embed(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestClient_EmbedOne(t *testing.T) {
	c := NewClient(&lengthEmbedder{empty: map[string]bool{"zz": true}}, 0, nil)

	vec, err := c.EmbedOne(context.Background(), "abcd")
	require.NoError(t, err)
	assert.Equal(t, []float64{4}, vec)

	_, err = c.EmbedOne(context.Background(), "zz")
	assert.ErrorIs(t, err, domain.ErrMismatch)
}

func TestClient_PrepareForwardsThroughInstrumented(t *testing.T) {
	backend := &lengthEmbedder{}
	c := NewClient(NewInstrumented(backend, nil), 0, nil)

	bound, err := c.Prepare([]string{"one", "two"})
	require.NoError(t, err)
	require.NotSame(t, c, bound)
	assert.Nil(t, backend.prepared)
	assert.Equal(t, "length", bound.Name())

	inner := bound.backend.(*Instrumented).inner.(*lengthEmbedder)
	assert.Equal(t, []string{"one", "two"}, inner.prepared)

	vec, err := bound.EmbedOne(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, vec)
}

func TestClient_PrepareFailureIsEmbeddingKind(t *testing.T) {
	c := NewClient(&lengthEmbedder{}, 0, nil)

	_, err := c.Prepare(nil)
	assert.ErrorIs(t, err, domain.ErrEmbedding)
}

func TestClient_PrepareWithoutPreparerReturnsSelf(t *testing.T) {
	c := NewClient(stubBackend{}, 0, nil)

	bound, err := c.Prepare([]string{"one"})
	require.NoError(t, err)
	assert.Same(t, c, bound)
}

type stubBackend struct{}

func (stubBackend) Name() string { return "stub" }

func (stubBackend) Embed(context.Context, string) ([]float64, error) {
	return []float64{1}, nil
}

func TestInstrumented_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	p := NewInstrumented(&lengthEmbedder{fail: map[string]error{"x": boom}}, zap.NewNop())

	_, err := p.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}
