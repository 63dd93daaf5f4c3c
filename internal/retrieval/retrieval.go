// Package retrieval implements the hybrid knowledge store: passage chunks
// ranked by a weighted blend of vector similarity, keyword overlap, and
// recency, with an age-based freshness policy.
package retrieval

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"sidekick/internal/chunker"
	"sidekick/internal/embedding"
	"sidekick/internal/kvstore"
	"sidekick/internal/logging"
)

// Score weights and bounds.
const (
	vectorWeight   = 0.6
	keywordWeight  = 0.3
	freshWeight    = 0.1
	freshnessFloor = 0.2

	chunksKey = "chunks"
)

var stopwords = map[string]bool{
	"the": true, "and": true, "you": true, "for": true, "that": true,
	"with": true, "are": true, "this": true, "was": true, "but": true,
	"have": true, "not": true, "your": true, "from": true, "will": true,
	"then": true, "been": true, "into": true, "about": true, "when": true,
	"what": true, "their": true, "there": true,
}

// Chunk is one indexed passage. Immutable after ingestion; removed only by
// the freshness policy.
type Chunk struct {
	DocID     string           `json:"doc_id"`
	ChunkID   string           `json:"chunk_id"`
	Title     string           `json:"title"`
	Source    string           `json:"source"`
	Content   string           `json:"content"`
	UpdatedAt float64          `json:"updated_at"`
	Embedding embedding.Vector `json:"embedding"`
	Keywords  map[string]int   `json:"keywords"`
}

// Citation renders the chunk's reference line.
func (c Chunk) Citation() string {
	return fmt.Sprintf("%s (%s) • chunk %s", c.Title, c.Source, c.ChunkID)
}

// Document is the ingestion input.
type Document struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Source    string  `json:"source"`
	Content   string  `json:"content"`
	UpdatedAt float64 `json:"updated_at"`
}

// Hit is one ranked search result.
type Hit struct {
	Score     float64 `json:"score"`
	Content   string  `json:"content"`
	Citation  string  `json:"citation"`
	Source    string  `json:"source"`
	Title     string  `json:"title"`
	UpdatedAt float64 `json:"updated_at"`
}

// Store owns the indexed chunk set, persisted whole through the shared
// key-value store under the rag namespace.
type Store struct {
	kv       *kvstore.Store
	embedder embedding.Embedder
	fallback embedding.Embedder
	logger   *zap.Logger
	entropy  *rand.Rand
	records  []Chunk
}

// New loads the chunk set from the key-value store. A nil embedder selects
// the deterministic hash fallback.
func New(kv *kvstore.Store, embedder embedding.Embedder, logger *zap.Logger) (*Store, error) {
	fallback := embedding.NewHashEmbedder(0)
	if embedder == nil {
		embedder = fallback
	}
	s := &Store{
		kv:       kv,
		embedder: embedder,
		fallback: fallback,
		logger:   logging.OrNop(logger),
		entropy:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	var records []Chunk
	if _, err := kv.Get(context.Background(), kvstore.NamespaceRAG, chunksKey, &records); err != nil {
		s.logger.Error("rag_load_failed", zap.Error(err))
		records = nil
	}
	s.records = records
	return s, nil
}

// Len reports the number of indexed chunks.
func (s *Store) Len() int { return len(s.records) }

// Ingest chunks, embeds, and indexes the documents, returning the number of
// chunks added. Re-ingesting a document with the same id appends duplicate
// chunks; callers filter already-seen ids when they need idempotence.
func (s *Store) Ingest(ctx context.Context, documents []Document) (int, error) {
	now := float64(time.Now().UnixNano()) / 1e9
	var added []Chunk
	for _, doc := range documents {
		title := doc.Title
		if title == "" {
			title = doc.ID
		}
		if title == "" {
			title = "Untitled"
		}
		source := doc.Source
		if source == "" {
			source = "local"
		}
		docID := doc.ID
		if docID == "" {
			docID = "doc-" + ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
		}
		updatedAt := doc.UpdatedAt
		if updatedAt == 0 {
			updatedAt = now
		}

		for idx, text := range chunker.Chunk(doc.Content, chunker.DefaultMaxWords) {
			added = append(added, Chunk{
				DocID:     docID,
				ChunkID:   fmt.Sprintf("%d", idx+1),
				Title:     title,
				Source:    source,
				Content:   text,
				UpdatedAt: updatedAt,
				Embedding: s.embed(ctx, text),
				Keywords:  keywords(text),
			})
		}
	}

	if len(added) > 0 {
		s.records = append(s.records, added...)
		if err := s.save(ctx); err != nil {
			return 0, err
		}
	}
	s.logger.Info("rag_ingest",
		zap.Int("documents", len(documents)),
		zap.Int("chunks", len(added)))
	return len(added), nil
}

// IngestDirectory ingests every file under dir matching the glob pattern
// (e.g. "*.md"), using file stems as ids and mtimes as freshness.
func (s *Store) IngestDirectory(ctx context.Context, dir, glob string) (int, error) {
	if glob == "" {
		glob = "*.md"
	}
	docs, err := readDirectory(dir, glob)
	if err != nil {
		return 0, err
	}
	return s.Ingest(ctx, docs)
}

// Search ranks all chunks against the query and returns the top k. Ties keep
// ingestion order. An empty query returns nothing.
func (s *Store) Search(ctx context.Context, query string, topK, freshnessWindowDays int) []Hit {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	if topK <= 0 {
		topK = 5
	}
	if freshnessWindowDays <= 0 {
		freshnessWindowDays = 45
	}

	queryEmb := s.embed(ctx, query)
	queryKeywords := keywords(query)
	now := float64(time.Now().UnixNano()) / 1e9

	type scored struct {
		score float64
		chunk Chunk
	}
	candidates := make([]scored, 0, len(s.records))
	for _, rec := range s.records {
		vectorScore := embedding.CosineSimilarity(queryEmb, rec.Embedding)
		keywordScore := keywordOverlap(queryKeywords, rec.Keywords)
		ageDays := (now - rec.UpdatedAt) / 86400
		if ageDays < 0 {
			ageDays = 0
		}
		freshness := 1 - ageDays/float64(freshnessWindowDays)
		if freshness < freshnessFloor {
			freshness = freshnessFloor
		}
		total := vectorWeight*vectorScore + keywordWeight*keywordScore + freshWeight*freshness
		candidates = append(candidates, scored{score: total, chunk: rec})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if topK > len(candidates) {
		topK = len(candidates)
	}
	hits := make([]Hit, 0, topK)
	for _, c := range candidates[:topK] {
		hits = append(hits, Hit{
			Score:     c.score,
			Content:   c.chunk.Content,
			Citation:  c.chunk.Citation(),
			Source:    c.chunk.Source,
			Title:     c.chunk.Title,
			UpdatedAt: c.chunk.UpdatedAt,
		})
	}
	return hits
}

// ApplyFreshnessPolicy removes chunks older than maxAgeDays and returns the
// removed count. The chunk set is persisted only when something was removed.
func (s *Store) ApplyFreshnessPolicy(ctx context.Context, maxAgeDays int) (int, error) {
	cutoff := float64(time.Now().UnixNano())/1e9 - float64(maxAgeDays)*86400
	kept := s.records[:0:0]
	for _, rec := range s.records {
		if rec.UpdatedAt >= cutoff {
			kept = append(kept, rec)
		}
	}
	removed := len(s.records) - len(kept)
	s.records = kept
	if removed > 0 {
		if err := s.save(ctx); err != nil {
			return removed, err
		}
	}
	s.logger.Info("rag_freshness_policy",
		zap.Int("removed", removed),
		zap.Int("max_age_days", maxAgeDays))
	return removed, nil
}

func (s *Store) save(ctx context.Context) error {
	if err := s.kv.Set(ctx, kvstore.NamespaceRAG, chunksKey, s.records); err != nil {
		return fmt.Errorf("persist chunks: %w", err)
	}
	return nil
}

// embed tries the configured provider and degrades to the deterministic
// fallback so indexing and search never fail on a provider outage.
func (s *Store) embed(ctx context.Context, text string) embedding.Vector {
	vec, err := s.embedder.Embed(ctx, text)
	if err == nil && len(vec) > 0 {
		return vec
	}
	if err != nil {
		s.logger.Warn("embed_failed_fallback", zap.Error(err))
	}
	vec, _ = s.fallback.Embed(ctx, text)
	return vec
}

func keywords(text string) map[string]int {
	counts := map[string]int{}
	for _, tok := range embedding.Tokenize(text) {
		if len(tok) <= 2 || stopwords[tok] {
			continue
		}
		counts[tok]++
	}
	return counts
}

// keywordOverlap is the shared-token mass over the query token count.
func keywordOverlap(query, doc map[string]int) float64 {
	numerator := 0
	total := 0
	for tok, qCount := range query {
		total += qCount
		dCount := doc[tok]
		if dCount < qCount {
			numerator += dCount
		} else {
			numerator += qCount
		}
	}
	if total == 0 {
		total = 1
	}
	return float64(numerator) / float64(total)
}
