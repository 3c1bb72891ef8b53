package answer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"docchat/internal/domain"
	"docchat/internal/metrics"
	"docchat/internal/retrieval"
)

// Apology is appended to the transcript when an answer cannot be produced.
const Apology = "Sorry, I couldn't generate an answer to that question. Please try again."

const systemInstruction = `You are an assistant answering questions about a single document.
Answer using ONLY the document context and the page images provided below.
If the answer cannot be derived from them, say explicitly that the document does not contain that information.
Do not rely on outside knowledge.`

// Synthesizer builds grounded prompts and asks a generative backend for the answer.
type Synthesizer struct {
	generator domain.Generator
	opts      domain.GenerationOptions
	logger    *zap.Logger
}

// New creates a Synthesizer that sends opts unchanged with every request.
func New(generator domain.Generator, opts domain.GenerationOptions, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{generator: generator, opts: opts, logger: logger}
}

// Options returns the sampling settings sent with every request.
func (s *Synthesizer) Options() domain.GenerationOptions { return s.opts }

// BuildParts lays out the request: instruction, context, page images, question.
func BuildParts(question string, passages []string, images []domain.PageImage) []domain.Part {
	parts := make([]domain.Part, 0, len(images)+3)
	parts = append(parts,
		domain.Part{Text: systemInstruction},
		domain.Part{Text: "Document context:\n\n" + retrieval.JoinContext(passages)},
	)
	for _, img := range images {
		blob, ok := inlineBlob(img)
		if !ok {
			continue
		}
		parts = append(parts, domain.Part{Blob: blob})
	}
	parts = append(parts, domain.Part{Text: "Question: " + question})
	return parts
}

// inlineBlob returns the raw image payload. Images that carry a data URL instead of
// raw bytes are decoded with the prefix stripped.
func inlineBlob(img domain.PageImage) (*domain.Blob, bool) {
	if bytes.HasPrefix(img.Data, []byte("data:")) {
		parsed, err := domain.ParsePageImage(img.Page, string(img.Data))
		if err != nil {
			return nil, false
		}
		img = parsed
	}
	if len(img.Data) == 0 {
		return nil, false
	}
	mime := img.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	return &domain.Blob{MIMEType: mime, Data: img.Data}, true
}

// Answer asks the backend to answer question from passages and images.
// Failures are reported as GenerationFailure.
func (s *Synthesizer) Answer(ctx context.Context, question string, passages []string, images []domain.PageImage) (string, error) {
	provider := s.generator.Name()
	parts := BuildParts(question, passages, images)
	start := time.Now()

	text, err := s.generator.Generate(ctx, parts, s.opts)

	duration := time.Since(start)
	metrics.GenerationRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("empty answer")
	}
	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(provider, "error").Inc()
		s.logger.Error("Answer generation failed",
			zap.String("provider", provider),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return "", domain.NewFailure(domain.KindGeneration, err)
	}
	metrics.GenerationRequestsTotal.WithLabelValues(provider, "success").Inc()
	s.logger.Info("Answer generated",
		zap.String("provider", provider),
		zap.Duration("duration", duration),
		zap.Int("passages", len(passages)),
		zap.Int("images", len(images)),
		zap.Int("answer_length", len(text)),
	)
	return strings.TrimSpace(text), nil
}
