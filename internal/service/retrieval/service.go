package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/medibot/backend/internal/logger"
	"github.com/zhouzirui/medibot/backend/internal/model/knowledge"
)

// MaxTopK is the largest number of passages handed to the generator.
const MaxTopK = 3

// ErrEmptyQuery is returned when the query has no content to embed.
var ErrEmptyQuery = errors.New("query is empty")

// Embedder turns text into a vector using the same function the index was built with.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher runs a read-only similarity query against a prebuilt index.
type Searcher interface {
	Search(ctx context.Context, vector []float32, limit int) ([]knowledge.Passage, error)
}

// Service retrieves the passages most similar to a query.
type Service struct {
	embedder Embedder
	searcher Searcher
	topK     int
	log      zerolog.Logger
}

// NewService wires an embedder to a searcher. topK is clamped to [1, MaxTopK].
func NewService(embedder Embedder, searcher Searcher, topK int) *Service {
	if topK < 1 || topK > MaxTopK {
		topK = MaxTopK
	}
	return &Service{
		embedder: embedder,
		searcher: searcher,
		topK:     topK,
		log:      logger.Component("retrieval"),
	}
}

// Retrieve returns at most topK passages ordered by non-increasing score.
func (s *Service) Retrieve(ctx context.Context, query string) ([]knowledge.Passage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("failed to embed query: empty vector")
	}

	passages, err := s.searcher.Search(ctx, vector, s.topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	// 后端通常已排序，这里再做一次稳定排序以保证顺序约束。
	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].Score > passages[j].Score
	})
	if len(passages) > s.topK {
		passages = passages[:s.topK]
	}

	s.log.Debug().Int("passages", len(passages)).Msg("retrieved context")
	return passages, nil
}

// FormatContext renders passages into the context block of the generation prompt.
func FormatContext(passages []knowledge.Passage) string {
	if len(passages) == 0 {
		return "No relevant information found."
	}

	var builder strings.Builder
	for i, passage := range passages {
		if i > 0 {
			builder.WriteString("\n\n")
		}
		if passage.SourceID != "" {
			builder.WriteString(fmt.Sprintf("# SOURCE: %s\n", passage.SourceID))
		}
		builder.WriteString(strings.TrimSpace(passage.Content))
	}
	return builder.String()
}
