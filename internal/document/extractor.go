package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"docchat/internal/domain"
)

// pageSeparator joins page texts so every page starts a new paragraph.
const pageSeparator = "\n\n"

// Page is the extracted content of one document page. Number is 1-based.
type Page struct {
	Number int
	Text   string
	Image  *domain.PageImage
}

// Extraction is the sequential, page-ordered content of a binary document.
type Extraction struct {
	Pages []Page
}

// Text returns the page texts joined with a paragraph break.
func (e *Extraction) Text() string {
	texts := make([]string, 0, len(e.Pages))
	for _, p := range e.Pages {
		texts = append(texts, p.Text)
	}
	return strings.Join(texts, pageSeparator)
}

// Images returns the page rasters in page order, skipping pages that were not rendered.
func (e *Extraction) Images() []domain.PageImage {
	var images []domain.PageImage
	for _, p := range e.Pages {
		if p.Image != nil {
			images = append(images, *p.Image)
		}
	}
	return images
}

// Extractor pulls text and optional page rasters out of PDF bytes.
type Extractor struct {
	rasterizer Rasterizer
	logger     *zap.Logger
}

// NewExtractor creates an extractor. A nil rasterizer disables page images.
func NewExtractor(rasterizer Rasterizer, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{rasterizer: rasterizer, logger: logger}
}

// Extract reads every page in order. Cancellation is checked between pages.
func (e *Extractor) Extract(ctx context.Context, data []byte) (*Extraction, error) {
	if len(data) == 0 {
		return nil, domain.Failuref(domain.KindInvalidDocument, "empty document")
	}

	pages, err := readText(ctx, data)
	if err != nil {
		return nil, err
	}

	if e.rasterizer != nil {
		if err := e.attachImages(ctx, data, pages); err != nil {
			return nil, err
		}
	}

	e.logger.Debug("document extracted", zap.Int("pages", len(pages)))
	return &Extraction{Pages: pages}, nil
}

func (e *Extractor) attachImages(ctx context.Context, data []byte, pages []Page) error {
	images, err := e.rasterizer.Rasterize(ctx, data)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var f *domain.Failure
		if errors.As(err, &f) {
			return f
		}
		return domain.NewFailure(domain.KindProcessing, fmt.Errorf("render pages: %w", err))
	}
	for i := range images {
		idx := images[i].Page - 1
		if idx < 0 || idx >= len(pages) {
			e.logger.Warn("rendered page out of range", zap.Int("page", images[i].Page))
			continue
		}
		img := images[i]
		pages[idx].Image = &img
	}
	return nil
}

// readText parses the PDF and extracts plain text page by page. The parser panics on
// some malformed inputs, which is reported as an invalid document.
func readText(ctx context.Context, data []byte) (pages []Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = domain.Failuref(domain.KindInvalidDocument, "parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, classifyOpenError(err)
	}

	total := reader.NumPage()
	if total == 0 {
		return nil, domain.Failuref(domain.KindInvalidDocument, "document has no pages")
	}

	pages = make([]Page, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, Page{Number: i})
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, domain.NewFailure(domain.KindProcessing, fmt.Errorf("page %d: %w", i, err))
		}
		pages = append(pages, Page{Number: i, Text: strings.TrimSpace(text)})
	}
	return pages, nil
}

func classifyOpenError(err error) error {
	if errors.Is(err, pdf.ErrInvalidPassword) || strings.Contains(strings.ToLower(err.Error()), "encrypt") {
		return domain.NewFailure(domain.KindProtectedDocument, err)
	}
	return domain.NewFailure(domain.KindInvalidDocument, err)
}
