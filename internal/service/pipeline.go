package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"docchat/internal/answer"
	"docchat/internal/document"
	"docchat/internal/domain"
	"docchat/internal/embedding"
	"docchat/internal/logger"
	"docchat/internal/metrics"
	"docchat/internal/retrieval"
	"docchat/internal/summarizer"
	"docchat/internal/vectorstore"
	"docchat/internal/vectorstore/memory"
)

// DefaultTimeout bounds the binary ingestion path, measured from the start of the read.
const DefaultTimeout = 30 * time.Second

const (
	sourceText     = "text"
	sourceDocument = "document"
)

// Extractor pulls page content out of a binary document.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (*document.Extraction, error)
}

// Progress receives lifecycle transitions while an ingestion runs.
type Progress func(domain.Lifecycle)

// Ingestion is a fully built, not yet committed, document index. Queries against it
// must be embedded with the embedder it was indexed with.
type Ingestion struct {
	Title      string
	Index      *memory.Index
	PageImages []domain.PageImage
	Summary    string

	embedder *embedding.Client
}

// Options tunes the pipeline. Zero values fall back to defaults.
type Options struct {
	Timeout          time.Duration
	TopK             int
	SummarySentences int
}

// Pipeline turns raw text or PDF bytes into a searchable index and answers questions
// against it. It holds no session state.
type Pipeline struct {
	chunker     domain.Chunker
	embedder    *embedding.Client
	extractor   Extractor
	summarizer  *summarizer.Frequency
	synthesizer *answer.Synthesizer
	opts        Options
	logger      *zap.Logger
}

func NewPipeline(
	chunker domain.Chunker,
	embedder *embedding.Client,
	extractor Extractor,
	synthesizer *answer.Synthesizer,
	opts Options,
	logger *zap.Logger,
) *Pipeline {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.TopK <= 0 {
		opts.TopK = vectorstore.DefaultTopK
	}
	if opts.SummarySentences <= 0 {
		opts.SummarySentences = summarizer.DefaultSentences
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		chunker:     chunker,
		embedder:    embedder,
		extractor:   extractor,
		summarizer:  summarizer.NewFrequency(),
		synthesizer: synthesizer,
		opts:        opts,
		logger:      logger,
	}
}

// IngestText indexes pasted text. It reports Indexing and never times out on its own.
func (p *Pipeline) IngestText(ctx context.Context, title, text string, progress Progress) (*Ingestion, error) {
	start := time.Now()
	report(progress, domain.Indexing)
	ing, err := p.index(ctx, title, text, nil)
	p.observe(ctx, sourceText, start, ing, err)
	return ing, err
}

// IngestDocument extracts and indexes a PDF. The whole flow races a wall-clock timer;
// when the timer wins the work is abandoned and its result discarded.
func (p *Pipeline) IngestDocument(ctx context.Context, title string, data []byte, progress Progress) (*Ingestion, error) {
	start := time.Now()
	report(progress, domain.Parsing)

	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var settled atomic.Bool
	guarded := func(l domain.Lifecycle) {
		if !settled.Load() {
			report(progress, l)
		}
	}

	type outcome struct {
		ing *Ingestion
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		ing, err := p.extractAndIndex(workCtx, title, data, guarded)
		done <- outcome{ing: ing, err: err}
	}()

	timer := time.NewTimer(p.opts.Timeout)
	defer timer.Stop()

	var ing *Ingestion
	var err error
	select {
	case res := <-done:
		ing, err = res.ing, res.err
	case <-timer.C:
		err = domain.Failuref(domain.KindTimeout, "no result after %s", p.opts.Timeout)
	case <-ctx.Done():
		err = domain.NewFailure(domain.KindProcessing, ctx.Err())
	}
	settled.Store(true)

	p.observe(ctx, sourceDocument, start, ing, err)
	return ing, err
}

func (p *Pipeline) extractAndIndex(ctx context.Context, title string, data []byte, progress Progress) (*Ingestion, error) {
	extraction, err := p.extractor.Extract(ctx, data)
	if err != nil {
		return nil, domain.AsFailure(err, domain.KindProcessing)
	}
	if err := abandoned(ctx); err != nil {
		return nil, err
	}
	text := extraction.Text()
	if strings.TrimSpace(text) == "" {
		return nil, domain.Failuref(domain.KindNoContent, "no text in %d pages", len(extraction.Pages))
	}
	progress(domain.Indexing)
	return p.index(ctx, title, text, extraction.Images())
}

func (p *Pipeline) index(ctx context.Context, title, text string, images []domain.PageImage) (*Ingestion, error) {
	passages := p.chunker.Chunk(text)
	if len(passages) == 0 {
		return nil, domain.NewFailure(domain.KindNoContent, nil)
	}
	if err := abandoned(ctx); err != nil {
		return nil, err
	}
	embedder, err := p.embedder.Prepare(passages)
	if err != nil {
		return nil, err
	}
	vectors, err := embedder.Embed(ctx, passages)
	if err != nil {
		return nil, err
	}
	if err := abandoned(ctx); err != nil {
		return nil, err
	}
	idx, err := memory.Build(passages, vectors)
	if err != nil {
		return nil, err
	}
	return &Ingestion{
		Title:      title,
		Index:      idx,
		PageImages: images,
		Summary:    p.summarizer.Summarize(text, p.opts.SummarySentences),
		embedder:   embedder,
	}, nil
}

// abandoned reports a cancelled ingestion so no further work is done for it.
func abandoned(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return domain.NewFailure(domain.KindProcessing, err)
	}
	return nil
}

// Answer retrieves the top passages of ing for question and synthesizes a grounded
// answer.
func (p *Pipeline) Answer(ctx context.Context, ing *Ingestion, question string) (string, error) {
	if ing == nil || ing.Index == nil || ing.Index.Len() == 0 {
		return "", domain.NewFailure(domain.KindNoContent, errors.New("no document loaded"))
	}
	embedder := ing.embedder
	if embedder == nil {
		embedder = p.embedder
	}
	query, err := embedder.EmbedOne(ctx, question)
	if err != nil {
		return "", err
	}
	if len(query) != ing.Index.Dimension() {
		return "", domain.Failuref(domain.KindMismatch, "query dimension %d, index dimension %d", len(query), ing.Index.Dimension())
	}
	passages := retrieval.Retrieve(ing.Index, query, p.opts.TopK)
	logger.FromContextOr(ctx, p.logger).Debug("Passages retrieved",
		zap.Int("requested", p.opts.TopK),
		zap.Int("returned", len(passages)),
	)
	return p.synthesizer.Answer(ctx, question, passages, ing.PageImages)
}

func (p *Pipeline) observe(ctx context.Context, source string, start time.Time, ing *Ingestion, err error) {
	log := logger.FromContextOr(ctx, p.logger)
	duration := time.Since(start)
	metrics.IngestionDuration.WithLabelValues(source).Observe(duration.Seconds())
	if err != nil {
		kind := domain.KindOf(err)
		metrics.IngestionsTotal.WithLabelValues(source, kind.String()).Inc()
		log.Warn("Ingestion failed",
			zap.String("source", source),
			zap.String("kind", kind.String()),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}
	metrics.IngestionsTotal.WithLabelValues(source, "success").Inc()
	log.Info("Ingestion complete",
		zap.String("source", source),
		zap.String("title", ing.Title),
		zap.Int("passages", ing.Index.Len()),
		zap.Int("dimension", ing.Index.Dimension()),
		zap.Int("page_images", len(ing.PageImages)),
		zap.Duration("duration", duration),
	)
}

func report(progress Progress, l domain.Lifecycle) {
	if progress != nil {
		progress(l)
	}
}

// Acknowledgement is the transcript message announcing a loaded document.
func Acknowledgement(ing *Ingestion) string {
	msg := fmt.Sprintf("I've read %q and indexed %d passages.", ing.Title, ing.Index.Len())
	if ing.Summary != "" {
		msg += " In short: " + ing.Summary
	}
	return msg + " Ask me anything about it."
}
