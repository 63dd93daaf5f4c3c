// Package memory stores embedded conversation snippets per user and persona
// category and recalls them by semantic similarity. It backs prompt
// augmentation with past context and supports consolidation of old snippets
// and privacy-driven forgetting.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"sidekick/internal/embedding"
	"sidekick/internal/kvstore"
	"sidekick/internal/logging"
)

const (
	// DefaultTopK bounds recall results when the caller passes no limit.
	DefaultTopK = 5
	// DefaultMinSimilarity is the recall floor used for context assembly.
	DefaultMinSimilarity = 0.3

	defaultMaxTokens      = 500
	consolidateThreshold  = 100
	consolidateKeepRecent = 50
	consolidateStride     = 5
)

// Entry is one stored conversation snippet.
type Entry struct {
	Text      string           `json:"text"`
	Embedding embedding.Vector `json:"embedding"`
	Metadata  map[string]any   `json:"metadata"`
	StoredAt  float64          `json:"stored_at"`
}

// Recall is one similarity-ranked result.
type Recall struct {
	Text       string         `json:"text"`
	Similarity float64        `json:"similarity"`
	Metadata   map[string]any `json:"metadata"`
}

// Store keeps one entry list per (category, user), persisted whole through
// the shared key-value store under the memory namespace.
type Store struct {
	kv       *kvstore.Store
	embedder embedding.Embedder
	fallback embedding.Embedder
	logger   *zap.Logger
}

// New builds the conversation memory over the shared store. A nil embedder
// selects the deterministic hash fallback.
func New(kv *kvstore.Store, embedder embedding.Embedder, logger *zap.Logger) *Store {
	fallback := embedding.NewHashEmbedder(0)
	if embedder == nil {
		embedder = fallback
	}
	return &Store{
		kv:       kv,
		embedder: embedder,
		fallback: fallback,
		logger:   logging.OrNop(logger),
	}
}

func key(category, userID string) string {
	return category + "/" + userID
}

// Add embeds and stores one snippet for the user. Blank text is rejected.
func (s *Store) Add(ctx context.Context, category, userID, text string, metadata map[string]any) error {
	text = strings.TrimSpace(text)
	if category == "" || userID == "" || text == "" {
		return fmt.Errorf("category, user id, and text are required")
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["text_length"] = len(text)

	entries, err := s.entries(ctx, category, userID)
	if err != nil {
		return err
	}
	entries = append(entries, Entry{
		Text:      text,
		Embedding: s.embed(ctx, text),
		Metadata:  metadata,
		StoredAt:  float64(time.Now().UnixNano()) / 1e9,
	})
	if err := s.save(ctx, category, userID, entries); err != nil {
		return err
	}

	s.logger.Debug("memory_added",
		zap.String("category", category),
		zap.String("user_id", userID),
		zap.Int("entries", len(entries)))
	return nil
}

// Retrieve ranks the user's snippets against the query and returns up to
// topK at or above minSimilarity. topK <= 0 means DefaultTopK; an empty
// query recalls nothing.
func (s *Store) Retrieve(ctx context.Context, category, userID, query string, topK int, minSimilarity float64) ([]Recall, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	entries, err := s.entries(ctx, category, userID)
	if err != nil {
		return nil, err
	}

	queryEmb := s.embed(ctx, query)
	results := make([]Recall, 0, len(entries))
	for _, entry := range entries {
		similarity := embedding.CosineSimilarity(queryEmb, entry.Embedding)
		if similarity < minSimilarity {
			continue
		}
		results = append(results, Recall{
			Text:       entry.Text,
			Similarity: similarity,
			Metadata:   entry.Metadata,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

// ContextSummary assembles the most relevant past snippets into a prompt
// fragment under an approximate token budget (words * 1.3). Returns "" when
// nothing clears the similarity floor.
func (s *Store) ContextSummary(ctx context.Context, category, userID, query string, maxTokens int) string {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	results, err := s.Retrieve(ctx, category, userID, query, DefaultTopK, DefaultMinSimilarity)
	if err != nil {
		s.logger.Warn("memory_recall_failed", zap.Error(err))
		return ""
	}
	if len(results) == 0 {
		return ""
	}

	maxWords := int(float64(maxTokens) / 1.3)
	var parts []string
	total := 0
	for _, item := range results {
		words := len(strings.Fields(item.Text))
		if total+words > maxWords {
			break
		}
		parts = append(parts, "[Past: "+preview(item.Text, 200)+"...]")
		total += words
	}
	if len(parts) == 0 {
		return ""
	}
	return "\n\nRelevant past context:\n" + strings.Join(parts, "\n")
}

// Consolidate thins a user's history once it exceeds threshold: the most
// recent entries are kept whole and only every fifth older entry survives.
// Returns the number of entries dropped. threshold <= 0 means 100.
func (s *Store) Consolidate(ctx context.Context, category, userID string, threshold int) (int, error) {
	if threshold <= 0 {
		threshold = consolidateThreshold
	}
	entries, err := s.entries(ctx, category, userID)
	if err != nil {
		return 0, err
	}
	if len(entries) <= threshold {
		return 0, nil
	}

	split := len(entries) - consolidateKeepRecent
	old, recent := entries[:split], entries[split:]

	kept := make([]Entry, 0, len(old)/consolidateStride+1+len(recent))
	for i := 0; i < len(old); i += consolidateStride {
		kept = append(kept, old[i])
	}
	kept = append(kept, recent...)

	removed := len(entries) - len(kept)
	if err := s.save(ctx, category, userID, kept); err != nil {
		return 0, err
	}
	s.logger.Info("memory_consolidated",
		zap.String("category", category),
		zap.String("user_id", userID),
		zap.Int("removed", removed),
		zap.Int("kept", len(kept)))
	return removed, nil
}

// Forget removes every snippet stored for the user in the category. Reports
// whether anything was removed.
func (s *Store) Forget(ctx context.Context, category, userID string) (bool, error) {
	deleted, err := s.kv.Delete(ctx, kvstore.NamespaceMemory, key(category, userID))
	if err != nil {
		return false, err
	}
	if deleted {
		s.logger.Info("memory_forgotten",
			zap.String("category", category),
			zap.String("user_id", userID))
	}
	return deleted, nil
}

func (s *Store) entries(ctx context.Context, category, userID string) ([]Entry, error) {
	var entries []Entry
	if _, err := s.kv.Get(ctx, kvstore.NamespaceMemory, key(category, userID), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) save(ctx context.Context, category, userID string, entries []Entry) error {
	if err := s.kv.Set(ctx, kvstore.NamespaceMemory, key(category, userID), entries); err != nil {
		return fmt.Errorf("persist memory %s: %w", key(category, userID), err)
	}
	return nil
}

// embed tries the configured provider and degrades to the deterministic
// fallback so memory writes never fail on a provider outage.
func (s *Store) embed(ctx context.Context, text string) embedding.Vector {
	vec, err := s.embedder.Embed(ctx, text)
	if err == nil && len(vec) > 0 {
		return vec
	}
	if err != nil {
		s.logger.Warn("memory_embed_failed_fallback", zap.Error(err))
	}
	vec, _ = s.fallback.Embed(ctx, text)
	return vec
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
