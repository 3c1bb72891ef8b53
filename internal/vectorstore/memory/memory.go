package memory

import (
	"errors"
	"math"
	"sort"

	"docchat/internal/domain"
	"docchat/internal/vectorstore"
)

// Index is an append-once, in-memory passage index searched by brute-force cosine
// similarity. It is never mutated after Build.
type Index struct {
	dimension int
	passages  []domain.Passage
}

var _ vectorstore.Index = (*Index)(nil)

// Build pairs each passage with its embedding positionally.
func Build(contents []string, embeddings [][]float64) (*Index, error) {
	if len(contents) != len(embeddings) {
		return nil, domain.Failuref(domain.KindMismatch,
			"%d passages but %d embeddings", len(contents), len(embeddings))
	}
	if len(contents) == 0 {
		return nil, domain.NewFailure(domain.KindNoContent, errors.New("no passages to index"))
	}
	dimension := len(embeddings[0])
	passages := make([]domain.Passage, len(contents))
	for i := range contents {
		if len(embeddings[i]) != dimension || dimension == 0 {
			return nil, domain.Failuref(domain.KindMismatch,
				"embedding %d has dimension %d, want %d", i, len(embeddings[i]), dimension)
		}
		vec := make([]float64, dimension)
		copy(vec, embeddings[i])
		passages[i] = domain.Passage{Content: contents[i], Embedding: vec}
	}
	return &Index{dimension: dimension, passages: passages}, nil
}

func (x *Index) Len() int { return len(x.passages) }

func (x *Index) Dimension() int { return x.dimension }

// Search scores every passage against query and returns the topK best, highest
// similarity first. Equal scores keep insertion order.
func (x *Index) Search(query []float64, topK int) []domain.ScoredPassage {
	if topK <= 0 {
		topK = vectorstore.DefaultTopK
	}
	scored := make([]domain.ScoredPassage, len(x.passages))
	for i, p := range x.passages {
		scored[i] = domain.ScoredPassage{
			Passage:    p,
			Similarity: CosineSimilarity(query, p.Embedding),
			Position:   i,
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if topK > len(scored) {
		topK = len(scored)
	}
	return scored[:topK]
}

// CosineSimilarity returns dot(a,b)/(|a||b|). It is 0 when either vector has zero
// magnitude or the lengths differ.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
