package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParagraphChunker_Chunk(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "two paragraphs",
			in:   "Alpha beta.\n\nGamma delta epsilon.",
			want: []string{"Alpha beta.", "Gamma delta epsilon."},
		},
		{
			name: "multiple blank lines and whitespace lines",
			in:   "First paragraph here.\n\n\n  \t\nSecond paragraph here.",
			want: []string{"First paragraph here.", "Second paragraph here."},
		},
		{
			name: "crlf",
			in:   "Windows paragraph one.\r\n\r\nWindows paragraph two.",
			want: []string{"Windows paragraph one.", "Windows paragraph two."},
		},
		{
			name: "single newline keeps paragraph together",
			in:   "line one of text\nline two of text",
			want: []string{"line one of text\nline two of text"},
		},
		{
			name: "page number noise dropped",
			in:   "A real paragraph of text.\n\n12\n\n   \n\nAnother real paragraph.",
			want: []string{"A real paragraph of text.", "Another real paragraph."},
		},
		{
			name: "exactly ten characters is noise",
			in:   "0123456789\n\n0123456789A",
			want: []string{"0123456789A"},
		},
		{name: "empty", in: "", want: nil},
		{name: "only noise", in: "short\n\ntiny\n\n  ", want: nil},
	}
	c := NewParagraphChunker(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Chunk(tt.in))
		})
	}
}

func TestParagraphChunker_InvariantLengthAndOrder(t *testing.T) {
	paragraphs := []string{"x", "the first long paragraph", "yy", "the second long paragraph", "zzz"}
	chunks := NewParagraphChunker(DefaultMinLength).Chunk(strings.Join(paragraphs, "\n\n"))

	assert.Equal(t, []string{"the first long paragraph", "the second long paragraph"}, chunks)
	for _, ch := range chunks {
		assert.Greater(t, len(strings.TrimSpace(ch)), DefaultMinLength)
	}
}

func TestParagraphChunker_Deterministic(t *testing.T) {
	c := NewParagraphChunker(0)
	in := "Some paragraph text.\n\nMore paragraph text."
	assert.Equal(t, c.Chunk(in), c.Chunk(in))
}

func TestSentenceChunker_Chunk(t *testing.T) {
	c := NewSentenceChunker(2, 1, 0)
	got := c.Chunk("One is here. Two is here. Three is here.")
	assert.Equal(t, []string{"One is here. Two is here.", "Two is here. Three is here."}, got)
}

func TestSentenceChunker_DropsNoise(t *testing.T) {
	c := NewSentenceChunker(1, 0, 0)
	got := c.Chunk("Hi. A longer sentence here.")
	assert.Equal(t, []string{"A longer sentence here."}, got)
}

func TestSentenceChunker_Empty(t *testing.T) {
	assert.Nil(t, NewSentenceChunker(0, 0, 0).Chunk("   "))
}
