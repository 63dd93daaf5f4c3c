package memory

import (
	"context"
	"encoding/json"
	"strings"

	"sidekick/internal/kvstore"
)

// CategoryStats counts one category's users and snippets.
type CategoryStats struct {
	Users    int `json:"users"`
	Memories int `json:"memories"`
}

// Stats summarizes stored conversation memory.
type Stats struct {
	Users      int                      `json:"users"`
	Memories   int                      `json:"memories"`
	Categories map[string]CategoryStats `json:"categories"`
}

// GetStats counts snippets per category and user.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	records, err := s.kv.Namespace(ctx, kvstore.NamespaceMemory)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Categories: map[string]CategoryStats{}}
	for k, raw := range records {
		category, _, found := strings.Cut(k, "/")
		if !found {
			continue
		}
		var entries []json.RawMessage
		if err := json.Unmarshal(raw, &entries); err != nil {
			continue
		}
		c := stats.Categories[category]
		c.Users++
		c.Memories += len(entries)
		stats.Categories[category] = c
		stats.Users++
		stats.Memories += len(entries)
	}
	return stats, nil
}
