package chunker

import (
	"strings"

	"docchat/internal/summarizer"
)

// SentenceChunker groups consecutive sentences into fixed-size windows. Consecutive
// windows share overlapSentences sentences.
type SentenceChunker struct {
	window    int
	overlap   int
	minLength int
}

func NewSentenceChunker(sentencesPerChunk, overlapSentences, minLength int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 || overlapSentences >= sentencesPerChunk {
		overlapSentences = 0
	}
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	return &SentenceChunker{window: sentencesPerChunk, overlap: overlapSentences, minLength: minLength}
}

// Chunk returns sentence windows in source order with whitespace collapsed.
func (c *SentenceChunker) Chunk(text string) []string {
	sentences := summarizer.Sentences(text)
	for i, s := range sentences {
		sentences[i] = strings.Join(strings.Fields(s), " ")
	}

	var chunks []string
	step := c.window - c.overlap
	for start := 0; start < len(sentences); start += step {
		end := min(start+c.window, len(sentences))
		if chunk := strings.Join(sentences[start:end], " "); keep(chunk, c.minLength) {
			chunks = append(chunks, chunk)
		}
		if end == len(sentences) {
			break
		}
	}
	return chunks
}
