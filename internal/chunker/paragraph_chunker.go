package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMinLength is the trimmed length at or below which a segment is treated as noise.
const DefaultMinLength = 10

// ParagraphChunker splits text on blank lines. Segments whose trimmed length does not
// exceed minLength are dropped (stray whitespace, page numbers and the like).
type ParagraphChunker struct {
	minLength int
	separator *regexp.Regexp
}

func NewParagraphChunker(minLength int) *ParagraphChunker {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	return &ParagraphChunker{
		minLength: minLength,
		separator: regexp.MustCompile(`\n[ \t]*\n`),
	}
}

// Chunk returns the paragraphs of text in source order.
func (c *ParagraphChunker) Chunk(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var chunks []string
	for _, segment := range c.separator.Split(text, -1) {
		if keep(segment, c.minLength) {
			chunks = append(chunks, strings.TrimSpace(segment))
		}
	}
	return chunks
}

func keep(segment string, minLength int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(segment)) > minLength
}
