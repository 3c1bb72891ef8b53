package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/domain"
)

// buildPDF writes a minimal uncompressed PDF with one Helvetica text line per page.
func buildPDF(pageTexts ...string) []byte {
	n := len(pageTexts)
	// objects: 1 catalog, 2 pages, 3 font, then page/content pairs
	var objects []string
	kids := ""
	for i := range pageTexts {
		kids += fmt.Sprintf("%d 0 R ", 4+2*i)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, n),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)
	for i, text := range pageTexts {
		content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
				"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

type fakeRasterizer struct {
	images []domain.PageImage
	err    error
	calls  int
}

func (f *fakeRasterizer) Rasterize(_ context.Context, _ []byte) ([]domain.PageImage, error) {
	f.calls++
	return f.images, f.err
}

func TestExtract_PagesInOrder(t *testing.T) {
	ex := NewExtractor(nil, nil)

	got, err := ex.Extract(context.Background(), buildPDF("Hello first page", "Second page text"))
	require.NoError(t, err)
	require.Len(t, got.Pages, 2)

	assert.Equal(t, 1, got.Pages[0].Number)
	assert.Equal(t, 2, got.Pages[1].Number)
	assert.Contains(t, got.Pages[0].Text, "Hello")
	assert.Contains(t, got.Pages[1].Text, "Second")
	assert.Contains(t, got.Text(), "\n\n")
	assert.Empty(t, got.Images())
}

func TestExtract_AttachesImages(t *testing.T) {
	raster := &fakeRasterizer{images: []domain.PageImage{
		{Page: 1, MIMEType: "image/jpeg", Data: []byte{1}},
		{Page: 2, MIMEType: "image/jpeg", Data: []byte{2}},
		{Page: 9, MIMEType: "image/jpeg", Data: []byte{9}},
	}}
	ex := NewExtractor(raster, nil)

	got, err := ex.Extract(context.Background(), buildPDF("one", "two"))
	require.NoError(t, err)

	assert.Equal(t, 1, raster.calls)
	images := got.Images()
	require.Len(t, images, 2)
	assert.Equal(t, []byte{1}, images[0].Data)
	assert.Equal(t, []byte{2}, images[1].Data)
}

func TestExtract_RasterizerFailure(t *testing.T) {
	ex := NewExtractor(&fakeRasterizer{err: errors.New("boom")}, nil)

	_, err := ex.Extract(context.Background(), buildPDF("page"))
	require.Error(t, err)
	assert.Equal(t, domain.KindProcessing, domain.KindOf(err))
}

func TestExtract_InvalidDocument(t *testing.T) {
	ex := NewExtractor(nil, nil)

	for name, data := range map[string][]byte{
		"empty":     nil,
		"not a pdf": []byte("plain text, definitely not a PDF file"),
		"truncated": buildPDF("page")[:40],
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ex.Extract(context.Background(), data)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidDocument)
		})
	}
}

func TestExtract_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExtractor(nil, nil).Extract(ctx, buildPDF("page"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassifyOpenError(t *testing.T) {
	assert.Equal(t, domain.KindProtectedDocument, domain.KindOf(classifyOpenError(errors.New("encrypted PDF: invalid password"))))
	assert.Equal(t, domain.KindInvalidDocument, domain.KindOf(classifyOpenError(errors.New("malformed PDF"))))
}
