package retrieval

import (
	"strings"

	"docchat/internal/vectorstore"
)

// ContextSeparator sits between passages in a prompt context. It is a markdown
// horizontal rule on its own paragraph, which rarely occurs in extracted text.
const ContextSeparator = "\n\n---\n\n"

// Retrieve returns the contents of the k passages most similar to query, best first.
func Retrieve(index vectorstore.Index, query []float64, k int) []string {
	scored := index.Search(query, k)
	out := make([]string, len(scored))
	for i, s := range scored {
		out[i] = s.Passage.Content
	}
	return out
}

// JoinContext concatenates passages into a single prompt context block.
func JoinContext(passages []string) string {
	return strings.Join(passages, ContextSeparator)
}
