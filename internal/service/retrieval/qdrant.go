package retrieval

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/zhouzirui/medibot/backend/internal/model/knowledge"
)

// QdrantIndex searches a Qdrant collection whose points carry "text" and "source" payloads.
type QdrantIndex struct {
	conn        *grpc.ClientConn
	points      qdrant.PointsClient
	collections qdrant.CollectionsClient
	collection  string
}

// NewQdrantIndex connects to the Qdrant gRPC endpoint.
func NewQdrantIndex(host string, port int, collection string) (*QdrantIndex, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant at %s: %w", addr, err)
	}

	return &QdrantIndex{
		conn:        conn,
		points:      qdrant.NewPointsClient(conn),
		collections: qdrant.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

// Verify checks that the collection exists. The service never creates it.
func (q *QdrantIndex) Verify(ctx context.Context) error {
	collections, err := q.collections.List(ctx, &qdrant.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	for _, col := range collections.GetCollections() {
		if col.GetName() == q.collection {
			return nil
		}
	}
	return fmt.Errorf("collection '%s' does not exist", q.collection)
}

// Search implements Searcher.
func (q *QdrantIndex) Search(ctx context.Context, vector []float32, limit int) ([]knowledge.Passage, error) {
	searchReq := &qdrant.SearchPoints{
		CollectionName: q.collection,
		Vector:         vector,
		Limit:          uint64(limit),
		WithPayload: &qdrant.WithPayloadSelector{
			SelectorOptions: &qdrant.WithPayloadSelector_Include{
				Include: &qdrant.PayloadIncludeSelector{
					Fields: []string{"text", "source"},
				},
			},
		},
	}

	searchResp, err := q.points.Search(ctx, searchReq)
	if err != nil {
		return nil, fmt.Errorf("failed to search in Qdrant: %w", err)
	}

	passages := make([]knowledge.Passage, 0, len(searchResp.GetResult()))
	for _, point := range searchResp.GetResult() {
		passage := knowledge.Passage{Score: float64(point.GetScore())}
		if textVal, ok := point.GetPayload()["text"]; ok {
			passage.Content = textVal.GetStringValue()
		}
		if sourceVal, ok := point.GetPayload()["source"]; ok {
			passage.SourceID = sourceVal.GetStringValue()
		}
		if passage.SourceID == "" {
			passage.SourceID = point.GetId().GetUuid()
		}
		passages = append(passages, passage)
	}
	return passages, nil
}

// Rebuild recreates the collection from entries. Only the offline indexer calls it.
func (q *QdrantIndex) Rebuild(ctx context.Context, embedder Embedder, entries []knowledge.Entry) (int, error) {
	if len(entries) == 0 {
		return 0, fmt.Errorf("corpus is empty")
	}

	points := make([]*qdrant.PointStruct, 0, len(entries))
	dimension := 0
	for _, entry := range entries {
		vector, err := embedder.Embed(ctx, entry.Content)
		if err != nil {
			return 0, fmt.Errorf("failed to embed %s: %w", entry.ID, err)
		}
		dimension = len(vector)
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(PointID(entry.ID)),
			Vectors: qdrant.NewVectors(vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"id":     entry.ID,
				"text":   entry.Content,
				"source": sourceOf(entry),
			}),
		})
	}

	// 先删除旧集合，忽略不存在的错误。
	_, _ = q.collections.Delete(ctx, &qdrant.DeleteCollection{CollectionName: q.collection})
	_, err := q.collections.Create(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create collection: %w", err)
	}

	wait := true
	if _, err := q.points.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Wait:           &wait,
		Points:         points,
	}); err != nil {
		return 0, fmt.Errorf("failed to upsert points: %w", err)
	}
	return len(points), nil
}

// Close closes the gRPC connection.
func (q *QdrantIndex) Close() error {
	return q.conn.Close()
}

// PointID derives a stable Qdrant point id from a corpus id.
func PointID(entryID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("medibot:"+entryID)).String()
}
