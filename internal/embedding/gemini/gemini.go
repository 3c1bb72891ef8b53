package gemini

import (
	"context"
	"errors"

	"github.com/google/generative-ai-go/genai"
)

// DefaultModel is used when no embedding model is configured.
const DefaultModel = "text-embedding-004"

// Embedder embeds text with a Google generative-language embedding model.
type Embedder struct {
	model *genai.EmbeddingModel
}

// NewEmbedder binds an embedding model on an existing genai client.
func NewEmbedder(client *genai.Client, model string) *Embedder {
	if model == "" {
		model = DefaultModel
	}
	return &Embedder{model: client.EmbeddingModel(model)}
}

func (e *Embedder) Name() string { return "gemini" }

// Embed issues one EmbedContent request for text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	res, err := e.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	return values(res)
}

func values(res *genai.EmbedContentResponse) ([]float64, error) {
	if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, errors.New("empty embedding")
	}
	out := make([]float64, len(res.Embedding.Values))
	for i, v := range res.Embedding.Values {
		out[i] = float64(v)
	}
	return out, nil
}
