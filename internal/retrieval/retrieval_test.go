package retrieval

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sidekick/internal/kvstore"
	"sidekick/internal/llm"
)

func newTestKV(t *testing.T) *kvstore.Store {
	t.Helper()
	s, err := kvstore.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(newTestKV(t), nil, nil)
	if err != nil {
		t.Fatalf("new retrieval store: %v", err)
	}
	return s
}

func TestIngestAndSearch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	added, err := s.Ingest(ctx, []Document{
		{ID: "gardening", Title: "Gardening", Source: "docs/a.md",
			Content: "Tomato plants need regular watering and full sunlight to thrive."},
		{ID: "databases", Title: "Databases", Source: "docs/b.md",
			Content: "Indexes speed up query execution at the cost of slower writes."},
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if added != 2 {
		t.Fatalf("expected 2 chunks, got %d", added)
	}

	hits := s.Search(ctx, "tomato watering sunlight", 2, 0)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Source != "docs/a.md" {
		t.Errorf("expected docs/a.md first, got %s", hits[0].Source)
	}
	if hits[0].Score <= hits[1].Score {
		t.Errorf("expected descending scores, got %f then %f", hits[0].Score, hits[1].Score)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	s := newTestStore(t)
	if hits := s.Search(context.Background(), "   ", 5, 0); hits != nil {
		t.Errorf("expected nil for empty query, got %v", hits)
	}
}

func TestIngest_ChunksLongDocuments(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	long := ""
	for i := 0; i < 400; i++ {
		long += "word "
	}
	added, err := s.Ingest(ctx, []Document{{ID: "long", Content: long}})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if added != 3 {
		t.Errorf("expected 3 chunks for 400 words, got %d", added)
	}
}

func TestCitationFormat(t *testing.T) {
	c := Chunk{Title: "Guide", Source: "docs/guide.md", ChunkID: "2"}
	want := "Guide (docs/guide.md) • chunk 2"
	if got := c.Citation(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestPersistenceAcrossReload(t *testing.T) {
	ctx := context.Background()
	kv := newTestKV(t)

	first, err := New(kv, nil, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := first.Ingest(ctx, []Document{
		{ID: "note", Content: "Persistent retrieval survives restarts."},
	}); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	second, err := New(kv, nil, nil)
	if err != nil {
		t.Fatalf("reload store: %v", err)
	}
	if second.Len() != 1 {
		t.Fatalf("expected 1 chunk after reload, got %d", second.Len())
	}
	hits := second.Search(ctx, "persistent retrieval restarts", 1, 0)
	if len(hits) != 1 {
		t.Errorf("expected 1 hit after reload, got %d", len(hits))
	}
}

func TestApplyFreshnessPolicy(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	old := float64(time.Now().Add(-200*24*time.Hour).UnixNano()) / 1e9
	s.Ingest(ctx, []Document{
		{ID: "stale", Content: "ancient knowledge", UpdatedAt: old},
		{ID: "fresh", Content: "recent knowledge"},
	})

	removed, err := s.ApplyFreshnessPolicy(ctx, 90)
	if err != nil {
		t.Fatalf("evict: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 remaining, got %d", s.Len())
	}

	removed, _ = s.ApplyFreshnessPolicy(ctx, 90)
	if removed != 0 {
		t.Errorf("expected idempotent eviction, got %d removed", removed)
	}
}

func TestIngestDirectory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "planning_guide.md"),
		[]byte("Break big goals into verifiable steps."), 0o644)
	os.WriteFile(filepath.Join(dir, "ignore.txt"),
		[]byte("not markdown"), 0o644)

	added, err := s.IngestDirectory(ctx, dir, "")
	if err != nil {
		t.Fatalf("ingest dir: %v", err)
	}
	if added != 1 {
		t.Fatalf("expected 1 chunk, got %d", added)
	}

	hits := s.Search(ctx, "verifiable steps goals", 1, 0)
	if len(hits) != 1 || hits[0].Title != "Planning Guide" {
		t.Errorf("unexpected hits: %+v", hits)
	}
}

func TestBuildContext(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if got := s.BuildContext(ctx, "anything", 3); got != "" {
		t.Errorf("expected empty context for empty index, got %q", got)
	}

	s.Ingest(ctx, []Document{
		{ID: "go", Title: "Go", Source: "go.md", Content: "Goroutines are lightweight threads."},
	})
	got := s.BuildContext(ctx, "goroutines threads", 3)
	want := "[Go (go.md) • chunk 1] Goroutines are lightweight threads."
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestAnswer_NoKnowledge(t *testing.T) {
	s := newTestStore(t)
	out := s.Answer(context.Background(), "what is love", nil, 3)
	if out.Answer != "I do not have relevant knowledge for that yet." {
		t.Errorf("unexpected answer: %q", out.Answer)
	}
	if len(out.Citations) != 0 {
		t.Errorf("expected no citations, got %v", out.Citations)
	}
}

func TestAnswer_NilGeneratorDegrades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.Ingest(ctx, []Document{
		{ID: "go", Title: "Go", Source: "go.md", Content: "Goroutines are lightweight threads."},
	})

	out := s.Answer(ctx, "goroutines", nil, 3)
	if out.Answer != "Unable to answer from current knowledge base." {
		t.Errorf("unexpected answer: %q", out.Answer)
	}
	if len(out.Citations) != 1 {
		t.Errorf("expected 1 citation, got %v", out.Citations)
	}
}

func TestAnswer_WithGenerator(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.Ingest(ctx, []Document{
		{ID: "go", Title: "Go", Source: "go.md", Content: "Goroutines are lightweight threads."},
	})

	var seenPrompt string
	gen := llm.Func(func(_ context.Context, prompt string) llm.Response {
		seenPrompt = prompt
		return llm.Response{Candidates: []llm.Candidate{{Content: "Lightweight threads."}}}
	})

	out := s.Answer(ctx, "what are goroutines", gen, 3)
	if out.Answer != "Lightweight threads." {
		t.Errorf("unexpected answer: %q", out.Answer)
	}
	if !strings.Contains(seenPrompt, "Goroutines are lightweight threads.") {
		t.Error("prompt missing retrieved context")
	}
	if !strings.Contains(seenPrompt, "what are goroutines") {
		t.Error("prompt missing the question")
	}
}

func TestAnswer_GeneratorFailureDegrades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.Ingest(ctx, []Document{
		{ID: "go", Title: "Go", Source: "go.md", Content: "Goroutines are lightweight threads."},
	})

	gen := llm.Func(func(_ context.Context, _ string) llm.Response {
		return llm.Response{Err: "backend unavailable"}
	})
	out := s.Answer(ctx, "goroutines", gen, 3)
	if out.Answer != "Unable to answer from current knowledge base." {
		t.Errorf("unexpected answer: %q", out.Answer)
	}
}
