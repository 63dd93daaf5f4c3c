// Package chunker splits document text into paragraph-bounded chunks for
// retrieval indexing.
package chunker

import "strings"

// DefaultMaxWords is the word budget per chunk.
const DefaultMaxWords = 180

// Chunk splits text into chunks of at most maxWords words, never crossing a
// paragraph boundary. Paragraphs longer than the budget are split into
// consecutive word windows. Text with no paragraphs but some content yields
// a single trimmed chunk. maxWords <= 0 means DefaultMaxWords.
func Chunk(text string, maxWords int) []string {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}

	cleaned := strings.ReplaceAll(text, "\r", "")
	var chunks []string
	for _, para := range strings.Split(cleaned, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		words := strings.Fields(para)
		for i := 0; i < len(words); i += maxWords {
			end := i + maxWords
			if end > len(words) {
				end = len(words)
			}
			chunks = append(chunks, strings.Join(words[i:end], " "))
		}
	}

	if len(chunks) == 0 && strings.TrimSpace(text) != "" {
		chunks = append(chunks, strings.TrimSpace(text))
	}
	return chunks
}
