package vectorstore

import "docchat/internal/domain"

// DefaultTopK is the number of passages returned when k is not positive.
const DefaultTopK = 5

// Index is a read-only similarity index over the passages of one document.
type Index interface {
	Len() int
	Dimension() int
	Search(query []float64, topK int) []domain.ScoredPassage
}
