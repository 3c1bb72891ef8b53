package domain

import "context"

// Passage is one retrievable chunk of the loaded document paired with its embedding.
// Passages are never mutated after the index is built.
type Passage struct {
	Content   string
	Embedding []float64
}

// ScoredPassage is a passage ranked against a query.
type ScoredPassage struct {
	Passage    Passage
	Similarity float64
	// Position is the insertion index of the passage in the index.
	Position int
}

// Sender identifies the author of a transcript message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// ChatMessage is a single transcript entry.
type ChatMessage struct {
	Sender Sender
	Text   string
}

// Part is one ordered piece of content sent to a generative backend.
// Exactly one of Text or Blob is set.
type Part struct {
	Text string
	Blob *Blob
}

// Blob is an inline binary payload.
type Blob struct {
	MIMEType string
	Data     []byte
}

// GenerationOptions are the sampling knobs passed to a generative backend.
type GenerationOptions struct {
	Temperature float32
	TopP        float32
}

// Chunker splits raw document text into retrievable passages.
type Chunker interface {
	Chunk(text string) []string
}

// Embedder turns a single text into a fixed-length vector via an external service.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Preparer is implemented by embedders that need to see the corpus before embedding.
// Prepare returns an embedder bound to corpus and leaves the receiver unchanged.
type Preparer interface {
	Prepare(corpus []string) (Embedder, error)
}

// Generator produces a text answer from ordered content parts.
type Generator interface {
	Name() string
	Generate(ctx context.Context, parts []Part, opts GenerationOptions) (string, error)
}
