package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// PageImage is the raster of one document page. It is used as visual context for
// answering questions and never for retrieval scoring.
type PageImage struct {
	Page     int
	MIMEType string
	Data     []byte
}

// DataURL renders the image as a base64 data URL.
func (p PageImage) DataURL() string {
	return "data:" + p.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// ParsePageImage decodes a base64 image, with or without a data URL prefix.
// Without a prefix the MIME type defaults to image/jpeg.
func ParsePageImage(page int, s string) (PageImage, error) {
	mime, payload := SplitDataURL(s)
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return PageImage{}, fmt.Errorf("decode page %d image: %w", page, err)
	}
	return PageImage{Page: page, MIMEType: mime, Data: data}, nil
}

// SplitDataURL strips a "data:<mime>;base64," prefix and returns the MIME type and the
// raw base64 payload.
func SplitDataURL(s string) (mime, payload string) {
	mime = "image/jpeg"
	if !strings.HasPrefix(s, "data:") {
		return mime, s
	}
	header, rest, ok := strings.Cut(s, ",")
	if !ok {
		return mime, s
	}
	header = strings.TrimPrefix(header, "data:")
	header = strings.TrimSuffix(header, ";base64")
	if header != "" {
		mime = header
	}
	return mime, rest
}
