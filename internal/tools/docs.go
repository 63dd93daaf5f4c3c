package tools

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

type docRecord struct {
	Path    string
	Title   string
	Content string
}

// DocumentLookupTool searches a pre-indexed local document set by
// case-insensitive substring. Indexing happens once at construction from the
// markdown files under the docs root.
type DocumentLookupTool struct {
	root    string
	records []docRecord
}

// NewDocumentLookupTool indexes *.md files under docsRoot. A missing root
// yields an empty index, not an error.
func NewDocumentLookupTool(docsRoot string) *DocumentLookupTool {
	t := &DocumentLookupTool{root: docsRoot}
	t.index()
	return t
}

func (t *DocumentLookupTool) index() {
	filepath.WalkDir(t.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		stem := strings.TrimSuffix(filepath.Base(path), ".md")
		title := titleCase(strings.ReplaceAll(stem, "_", " "))
		snippet := strings.Join(strings.Fields(string(content)), " ")
		if len(snippet) > 1200 {
			snippet = snippet[:1200]
		}
		t.records = append(t.records, docRecord{Path: path, Title: title, Content: snippet})
		return nil
	})
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func (t *DocumentLookupTool) Name() string { return "docs.lookup" }

func (t *DocumentLookupTool) Description() string {
	return "Search project documentation for keywords"
}

func (t *DocumentLookupTool) Guardrails() Guardrails {
	return Guardrails{MaxArgs: 4, MaxQueryLen: 160}
}

func (t *DocumentLookupTool) Allowed(req Request) bool {
	return t.Guardrails().ArgsAllowed(req)
}

func (t *DocumentLookupTool) Invoke(req Request) (Result, error) {
	query := strings.TrimSpace(argString(req.Arguments, "query"))
	if query == "" || len(query) > t.Guardrails().MaxQueryLen {
		return failure(t.Name(), "invalid_query"), nil
	}

	needle := strings.ToLower(query)
	hits := []map[string]string{}
	scanned := t.records
	if len(scanned) > 25 {
		scanned = scanned[:25]
	}
	for _, record := range scanned {
		if !strings.Contains(strings.ToLower(record.Content), needle) {
			continue
		}
		excerpt := record.Content
		if len(excerpt) > 240 {
			excerpt = excerpt[:240]
		}
		hits = append(hits, map[string]string{
			"title":   record.Title,
			"path":    record.Path,
			"excerpt": excerpt + "…",
		})
		if len(hits) >= 3 {
			break
		}
	}

	return Result{
		Name:        t.Name(),
		Success:     true,
		Output:      map[string]any{"hits": hits},
		Diagnostics: map[string]any{"query": query, "hit_count": len(hits)},
	}, nil
}
