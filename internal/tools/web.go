package tools

import "strings"

// CuratedResult is one entry of the offline search corpus.
type CuratedResult struct {
	Title   string   `json:"title"`
	URL     string   `json:"url"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

var curatedResults = []CuratedResult{
	{
		Title:   "AI Observability Basics",
		URL:     "https://example.org/observability",
		Summary: "Explains latency percentiles, trace IDs, and metrics useful for agent systems.",
		Tags:    []string{"metrics", "observability"},
	},
	{
		Title:   "Tool Orchestration Blueprint",
		URL:     "https://example.org/tools",
		Summary: "Patterns for secure tool execution, guardrails, and audit logging.",
		Tags:    []string{"tools", "security"},
	},
	{
		Title:   "Education Benchmarks 2025",
		URL:     "https://example.org/edu-bench",
		Summary: "Latest data on AI tutor effectiveness across 50 judge scenarios.",
		Tags:    []string{"education", "benchmarks"},
	},
}

// CuratedWebSearchTool serves a fixed in-memory result set filtered by query
// substring and tag. A tag outside the whitelist is a guardrail violation,
// not an empty result.
type CuratedWebSearchTool struct {
	results []CuratedResult
}

// NewCuratedWebSearchTool builds the offline search tool.
func NewCuratedWebSearchTool() *CuratedWebSearchTool {
	return &CuratedWebSearchTool{results: curatedResults}
}

func (t *CuratedWebSearchTool) Name() string { return "web.search" }

func (t *CuratedWebSearchTool) Description() string {
	return "Offline curated search results"
}

func (t *CuratedWebSearchTool) Guardrails() Guardrails {
	return Guardrails{
		MaxArgs:     4,
		AllowedTags: []string{"metrics", "tools", "education"},
	}
}

func (t *CuratedWebSearchTool) Allowed(req Request) bool {
	g := t.Guardrails()
	if !g.ArgsAllowed(req) {
		return false
	}
	tag := strings.ToLower(argString(req.Arguments, "tag"))
	return tag == "" || contains(g.AllowedTags, tag)
}

func (t *CuratedWebSearchTool) Invoke(req Request) (Result, error) {
	query := strings.ToLower(argString(req.Arguments, "query"))
	tag := strings.ToLower(argString(req.Arguments, "tag"))

	hits := []CuratedResult{}
	for _, result := range t.results {
		if query != "" &&
			!strings.Contains(strings.ToLower(result.Summary), query) &&
			!strings.Contains(strings.ToLower(result.Title), query) {
			continue
		}
		if tag != "" && !contains(result.Tags, tag) {
			continue
		}
		hits = append(hits, result)
		if len(hits) >= 3 {
			break
		}
	}

	return Result{
		Name:    t.Name(),
		Success: true,
		Output:  map[string]any{"hits": hits},
		Diagnostics: map[string]any{
			"query":     query,
			"tag":       tag,
			"hit_count": len(hits),
		},
	}, nil
}
