package document

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"

	"docchat/internal/domain"
)

const (
	// DefaultScale renders pages at 1.5x their natural 72 DPI size.
	DefaultScale = 1.5
	// DefaultQuality is the JPEG quality of page rasters.
	DefaultQuality = 80

	baseDPI = 72.0
)

// Rasterizer renders every page of a document to an image, in page order.
type Rasterizer interface {
	Rasterize(ctx context.Context, data []byte) ([]domain.PageImage, error)
}

// FitzRasterizer renders pages with MuPDF and encodes them as JPEG.
type FitzRasterizer struct {
	scale   float64
	quality int
}

func NewFitzRasterizer(scale float64, quality int) *FitzRasterizer {
	if scale <= 0 {
		scale = DefaultScale
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &FitzRasterizer{scale: scale, quality: quality}
}

func (r *FitzRasterizer) Rasterize(ctx context.Context, data []byte) ([]domain.PageImage, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, domain.NewFailure(domain.KindInvalidDocument, err)
	}
	defer doc.Close()

	dpi := baseDPI * r.scale
	images := make([]domain.PageImage, 0, doc.NumPage())
	for n := 0; n < doc.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := doc.ImageDPI(n, dpi)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", n+1, err)
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.quality}); err != nil {
			return nil, fmt.Errorf("encode page %d: %w", n+1, err)
		}
		images = append(images, domain.PageImage{Page: n + 1, MIMEType: "image/jpeg", Data: buf.Bytes()})
	}
	return images, nil
}
