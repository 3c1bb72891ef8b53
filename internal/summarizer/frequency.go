package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// DefaultSentences is the preview length used when none is requested.
const DefaultSentences = 2

var (
	wordPattern     = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentencePattern = regexp.MustCompile(`[^.!?\n]+(?:[.!?]+|\n|$)`)
)

// Frequency picks the most representative sentences of a text by normalised word
// frequency, with stopwords ignored.
type Frequency struct {
	stopwords map[string]struct{}
}

func NewFrequency() *Frequency {
	return &Frequency{stopwords: defaultStopwords()}
}

// Summarize returns up to maxSentences sentences in their original order.
// Sentences shorter than three words are not candidates.
func (f *Frequency) Summarize(text string, maxSentences int) string {
	if maxSentences <= 0 {
		maxSentences = DefaultSentences
	}
	sentences := Sentences(text)
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}

	freq := f.frequencies(sentences)

	type ranked struct {
		idx   int
		score float64
	}
	var candidates []ranked
	for i, sent := range sentences {
		words := tokens(sent)
		if len(words) < 3 {
			continue
		}
		score := 0.0
		for _, w := range words {
			score += freq[w]
		}
		candidates = append(candidates, ranked{idx: i, score: score / math.Sqrt(float64(len(words)))})
	}
	if len(candidates) == 0 {
		return sentences[0]
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if maxSentences > len(candidates) {
		maxSentences = len(candidates)
	}
	picked := make([]int, maxSentences)
	for i := range picked {
		picked[i] = candidates[i].idx
	}
	sort.Ints(picked)

	out := make([]string, len(picked))
	for i, idx := range picked {
		out[i] = sentences[idx]
	}
	return strings.Join(out, " ")
}

func (f *Frequency) frequencies(sentences []string) map[string]float64 {
	freq := map[string]float64{}
	maxF := 0.0
	for _, sent := range sentences {
		for _, w := range tokens(sent) {
			if _, stop := f.stopwords[w]; stop {
				continue
			}
			freq[w]++
			if freq[w] > maxF {
				maxF = freq[w]
			}
		}
	}
	for w := range freq {
		freq[w] /= maxF
	}
	return freq
}

// Sentences splits text on terminal punctuation and line breaks, dropping blanks.
func Sentences(text string) []string {
	var out []string
	for _, s := range sentencePattern.FindAllString(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func tokens(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on",
		"at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "its",
		"this", "that", "these", "those", "from", "up", "down", "over", "under", "than", "so",
		"such", "into", "about", "between", "through", "during", "before", "after", "out", "off",
		"can", "will", "just", "should", "now", "not", "no", "we", "you", "they", "he", "she",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
