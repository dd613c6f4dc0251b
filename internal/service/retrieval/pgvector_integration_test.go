//go:build integration

package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/medibot/backend/internal/model/knowledge"
	"github.com/zhouzirui/medibot/backend/internal/testutil"
)

func TestPGVectorIndexRebuildAndSearch(t *testing.T) {
	index := NewPGVectorIndex(testutil.StartPostgres(t))
	ctx := context.Background()
	embedder := wordEmbedder{vocab: []string{"insulin", "fever", "rash"}}

	entries := []knowledge.Entry{
		{ID: "e1", Source: "diabetes.md", Content: "Insulin lowers blood sugar. Insulin is injected."},
		{ID: "e2", Content: "A fever above 39 degrees needs attention."},
		{ID: "e3", Source: "skin.md", Content: "A rash with fever can be measles."},
	}
	n, err := index.Rebuild(ctx, embedder, entries)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	query, err := embedder.Embed(ctx, "fever")
	require.NoError(t, err)
	passages, err := index.Search(ctx, query, 2)
	require.NoError(t, err)
	require.Len(t, passages, 2)
	assert.Equal(t, "e2", passages[0].SourceID)
	assert.InDelta(t, 1.0, passages[0].Score, 1e-6)
	assert.Equal(t, "skin.md", passages[1].SourceID)
	assert.Greater(t, passages[0].Score, passages[1].Score)

	// rebuilding replaces the table
	n, err = index.Rebuild(ctx, embedder, entries[:1])
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	passages, err = index.Search(ctx, query, 5)
	require.NoError(t, err)
	assert.Len(t, passages, 1)
}
