package gemini

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"docchat/internal/domain"
)

// DefaultModel is used when no generative model is configured.
const DefaultModel = "gemini-1.5-flash"

// Generator answers with a Gemini generative model.
type Generator struct {
	client *genai.Client
	model  string
}

func NewGenerator(client *genai.Client, model string) *Generator {
	if model == "" {
		model = DefaultModel
	}
	return &Generator{client: client, model: model}
}

func (g *Generator) Name() string { return "gemini" }

// Generate sends the parts as a single user turn with the given sampling settings.
func (g *Generator) Generate(ctx context.Context, parts []domain.Part, opts domain.GenerationOptions) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(opts.Temperature)
	model.SetTopP(opts.TopP)

	resp, err := model.GenerateContent(ctx, toGenaiParts(parts)...)
	if err != nil {
		return "", err
	}
	return responseText(resp)
}

func toGenaiParts(parts []domain.Part) []genai.Part {
	out := make([]genai.Part, 0, len(parts))
	for _, p := range parts {
		switch {
		case p.Blob != nil:
			out = append(out, genai.Blob{MIMEType: p.Blob.MIMEType, Data: p.Blob.Data})
		case p.Text != "":
			out = append(out, genai.Text(p.Text))
		}
	}
	return out
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no candidates in response")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("response has no text")
	}
	return sb.String(), nil
}
