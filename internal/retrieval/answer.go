package retrieval

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"sidekick/internal/llm"
)

// AnswerResult is a grounded answer with its supporting citations.
type AnswerResult struct {
	Answer    string   `json:"answer"`
	Citations []string `json:"citations"`
}

// BuildContext assembles the top-k passages into citation-prefixed lines
// for prompting. Returns "" when nothing matches.
func (s *Store) BuildContext(ctx context.Context, query string, topK int) string {
	if topK <= 0 {
		topK = 3
	}
	hits := s.Search(ctx, query, topK, 0)
	if len(hits) == 0 {
		return ""
	}
	parts := make([]string, 0, len(hits))
	for _, hit := range hits {
		snippet := strings.ReplaceAll(strings.TrimSpace(hit.Content), "\n", " ")
		parts = append(parts, "["+hit.Citation+"] "+snippet)
	}
	return strings.Join(parts, "\n")
}

// Answer responds to the query using only retrieved context. A generation
// failure or empty candidate list degrades to a templated reply; it never
// surfaces as an error.
func (s *Store) Answer(ctx context.Context, query string, gen llm.Generator, topK int) AnswerResult {
	if topK <= 0 {
		topK = 3
	}
	grounding := s.BuildContext(ctx, query, topK)
	if grounding == "" {
		return AnswerResult{
			Answer:    "I do not have relevant knowledge for that yet.",
			Citations: []string{},
		}
	}

	answer := "Unable to answer from current knowledge base."
	if gen != nil {
		prompt := "You are a grounded assistant. Use ONLY the provided context to answer.\n" +
			"If the answer is not in the context, say you don't know.\n" +
			"Context:\n" + grounding + "\n\nQuestion: " + query + "\nAnswer:"
		if text, ok := gen.Generate(ctx, prompt).Text(); ok {
			answer = text
		}
	}

	hits := s.Search(ctx, query, topK, 0)
	citations := make([]string, 0, len(hits))
	for _, hit := range hits {
		citations = append(citations, hit.Citation)
	}
	return AnswerResult{Answer: answer, Citations: citations}
}

func readDirectory(dir, glob string) ([]Document, error) {
	var docs []Document
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(glob, d.Name()); !ok {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		stem := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		docs = append(docs, Document{
			ID:        stem,
			Title:     titleFromStem(stem),
			Source:    rel,
			Content:   string(content),
			UpdatedAt: float64(info.ModTime().UnixNano()) / 1e9,
		})
		return nil
	})
	return docs, err
}

func titleFromStem(stem string) string {
	words := strings.Fields(strings.ReplaceAll(stem, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
