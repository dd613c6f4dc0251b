package retrieval

import (
	"fmt"

	"github.com/zhouzirui/medibot/backend/internal/config"
)

// NewEmbedderFromConfig builds the embedder selected by cfg. The returned close func is never nil.
func NewEmbedderFromConfig(cfg config.RetrievalConfig) (Embedder, func() error, error) {
	switch cfg.Embedder {
	case config.EmbedderHugot:
		embedder, err := NewHugotEmbedder(cfg.HugotModelPath)
		if err != nil {
			return nil, noopClose, err
		}
		return embedder, embedder.Close, nil
	case config.EmbedderOllama:
		embedder, err := NewOllamaEmbedder(cfg.OllamaHost, cfg.EmbeddingModel)
		if err != nil {
			return nil, noopClose, err
		}
		return embedder, noopClose, nil
	default:
		return nil, noopClose, fmt.Errorf("unknown embedder %q", cfg.Embedder)
	}
}

func noopClose() error { return nil }
