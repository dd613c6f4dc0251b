package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/zhouzirui/medibot/backend/internal/model/knowledge"
)

type indexedEntry struct {
	entry  knowledge.Entry
	vector []float32
}

// MemoryIndex is an in-process cosine-similarity index. It is immutable once built.
type MemoryIndex struct {
	items []indexedEntry
}

// BuildMemoryIndex embeds every entry with embedder.
func BuildMemoryIndex(ctx context.Context, embedder Embedder, entries []knowledge.Entry) (*MemoryIndex, error) {
	items := make([]indexedEntry, 0, len(entries))
	for _, entry := range entries {
		vector, err := embedder.Embed(ctx, entry.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to embed corpus entry %s: %w", entry.ID, err)
		}
		items = append(items, indexedEntry{entry: entry, vector: vector})
	}
	return &MemoryIndex{items: items}, nil
}

// Len returns the number of indexed entries.
func (m *MemoryIndex) Len() int {
	return len(m.items)
}

// Search implements Searcher.
func (m *MemoryIndex) Search(ctx context.Context, vector []float32, limit int) ([]knowledge.Passage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	passages := make([]knowledge.Passage, 0, len(m.items))
	for _, item := range m.items {
		if len(item.vector) != len(vector) {
			return nil, fmt.Errorf("dimension mismatch: index %d, query %d", len(item.vector), len(vector))
		}
		passages = append(passages, knowledge.Passage{
			Content:  item.entry.Content,
			Score:    cosine(item.vector, vector),
			SourceID: sourceOf(item.entry),
		})
	}

	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].Score > passages[j].Score
	})
	if limit > 0 && len(passages) > limit {
		passages = passages[:limit]
	}
	return passages, nil
}

func sourceOf(entry knowledge.Entry) string {
	if entry.Source != "" {
		return entry.Source
	}
	return entry.ID
}

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
