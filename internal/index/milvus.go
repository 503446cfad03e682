package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	milvusindex "github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"cvrag/internal/core"
	"cvrag/internal/logger"
)

// Field names for the blocks collection.
const (
	FieldKey     = "key"
	FieldDocID   = "doc_id"
	FieldPage    = "page"
	FieldBlockID = "block_id"
	FieldText    = "text"
	FieldVector  = "vector"
)

// DefaultCollection is the default Milvus collection name.
const DefaultCollection = "cv_blocks"

// DefaultEmbeddingDim matches common sentence-embedding model output.
const DefaultEmbeddingDim = 384

const (
	maxKeyLength  = "255"
	maxTextLength = "65535"
)

// MilvusStore is the persistent VectorStore backed by a Milvus collection.
// One entry per block, keyed by the deterministic block key; similarity is
// inner product over unit-normalized vectors.
type MilvusStore struct {
	client       *milvusclient.Client
	collection   string
	embeddingDim int
}

// NewMilvusStore connects to Milvus at addr.
func NewMilvusStore(ctx context.Context, addr, collection string, embeddingDim int) (*MilvusStore, error) {
	if collection == "" {
		collection = DefaultCollection
	}
	if embeddingDim <= 0 {
		embeddingDim = DefaultEmbeddingDim
	}
	logger.Info("connecting to Milvus at %s (collection %s, dim %d)", addr, collection, embeddingDim)

	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{Address: addr})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Milvus: %w", err)
	}

	return &MilvusStore{client: c, collection: collection, embeddingDim: embeddingDim}, nil
}

// Ensure creates the blocks collection, its vector index, and loads it into
// memory. Safe to call on every startup.
func (s *MilvusStore) Ensure(ctx context.Context) error {
	exists, err := s.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(s.collection))
	if err != nil {
		return fmt.Errorf("failed to check if collection exists: %w", err)
	}

	if !exists {
		schema := &entity.Schema{
			CollectionName: s.collection,
			Description:    "Embedded CV blocks for retrieval",
			Fields: []*entity.Field{
				{
					Name:       FieldKey,
					DataType:   entity.FieldTypeVarChar,
					PrimaryKey: true,
					AutoID:     false,
					TypeParams: map[string]string{"max_length": maxKeyLength},
				},
				{
					Name:       FieldDocID,
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": maxKeyLength},
				},
				{
					Name:     FieldPage,
					DataType: entity.FieldTypeInt64,
				},
				{
					Name:     FieldBlockID,
					DataType: entity.FieldTypeInt64,
				},
				{
					Name:       FieldText,
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": maxTextLength},
				},
				{
					Name:       FieldVector,
					DataType:   entity.FieldTypeFloatVector,
					TypeParams: map[string]string{"dim": fmt.Sprintf("%d", s.embeddingDim)},
				},
			},
		}

		createOpt := milvusclient.NewCreateCollectionOption(s.collection, schema)
		if err := s.client.CreateCollection(ctx, createOpt); err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}

		idx := milvusindex.NewHNSWIndex(entity.IP, 16, 200)
		indexOpt := milvusclient.NewCreateIndexOption(s.collection, FieldVector, idx)
		if _, err := s.client.CreateIndex(ctx, indexOpt); err != nil {
			return fmt.Errorf("failed to create index on vector field: %w", err)
		}

		logger.Info("created collection %s", s.collection)
	}

	loadOpt := milvusclient.NewLoadCollectionOption(s.collection)
	if _, err := s.client.LoadCollection(ctx, loadOpt); err != nil {
		return fmt.Errorf("failed to load collection %s: %w", s.collection, err)
	}
	return nil
}

// Has checks for an entry by primary key.
func (s *MilvusStore) Has(ctx context.Context, key string) (bool, error) {
	queryOpt := milvusclient.NewQueryOption(s.collection).
		WithFilter(fmt.Sprintf(`%s == "%s"`, FieldKey, escapeFilterValue(key))).
		WithOutputFields(FieldKey).
		WithLimit(1)

	result, err := s.client.Query(ctx, queryOpt)
	if err != nil {
		return false, fmt.Errorf("failed to query key existence for %s: %w", key, err)
	}
	return result.ResultCount > 0, nil
}

// Put inserts one entry. The caller guarantees the key is absent.
func (s *MilvusStore) Put(ctx context.Context, e core.IndexEntry) error {
	key := core.BlockKey(e.Block)
	insertOpt := milvusclient.NewColumnBasedInsertOption(s.collection,
		column.NewColumnVarChar(FieldKey, []string{key}),
		column.NewColumnVarChar(FieldDocID, []string{e.DocID}),
		column.NewColumnInt64(FieldPage, []int64{int64(e.Page)}),
		column.NewColumnInt64(FieldBlockID, []int64{int64(e.BlockID)}),
		column.NewColumnVarChar(FieldText, []string{e.Text}),
		column.NewColumnFloatVector(FieldVector, s.embeddingDim, [][]float32{e.Vector}),
	)

	if _, err := s.client.Insert(ctx, insertOpt); err != nil {
		return fmt.Errorf("failed to insert block %s: %w", key, err)
	}
	return nil
}

// Search runs a nearest-neighbor query and maps results back to blocks.
func (s *MilvusStore) Search(ctx context.Context, vector []float32, topK int) ([]core.RetrievalHit, error) {
	if topK <= 0 {
		return nil, nil
	}

	searchOpt := milvusclient.NewSearchOption(s.collection, topK, []entity.Vector{entity.FloatVector(vector)}).
		WithANNSField(FieldVector).
		WithOutputFields(FieldDocID, FieldPage, FieldBlockID, FieldText)

	results, err := s.client.Search(ctx, searchOpt)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	rs := results[0]
	hits := make([]core.RetrievalHit, 0, rs.ResultCount)
	for i := 0; i < rs.ResultCount; i++ {
		block, err := blockAt(rs, i)
		if err != nil {
			logger.Warn("skipping malformed search result %d: %v", i, err)
			continue
		}
		score := float64(0)
		if i < len(rs.Scores) {
			score = float64(rs.Scores[i])
		}
		hits = append(hits, core.RetrievalHit{Block: block, Score: score})
	}
	return hits, nil
}

// Count reports the number of stored entries.
func (s *MilvusStore) Count(ctx context.Context) (int64, error) {
	queryOpt := milvusclient.NewQueryOption(s.collection).
		WithOutputFields("count(*)").
		WithConsistencyLevel(entity.ClStrong)

	result, err := s.client.Query(ctx, queryOpt)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	col := result.GetColumn("count(*)")
	if col == nil || col.Len() == 0 {
		return 0, nil
	}
	return col.GetAsInt64(0)
}

// Close closes the Milvus connection.
func (s *MilvusStore) Close() error {
	return s.client.Close(context.Background())
}

func blockAt(rs milvusclient.ResultSet, i int) (core.Block, error) {
	docID, err := rs.GetColumn(FieldDocID).GetAsString(i)
	if err != nil {
		return core.Block{}, fmt.Errorf("doc_id: %w", err)
	}
	page, err := rs.GetColumn(FieldPage).GetAsInt64(i)
	if err != nil {
		return core.Block{}, fmt.Errorf("page: %w", err)
	}
	blockID, err := rs.GetColumn(FieldBlockID).GetAsInt64(i)
	if err != nil {
		return core.Block{}, fmt.Errorf("block_id: %w", err)
	}
	text, err := rs.GetColumn(FieldText).GetAsString(i)
	if err != nil {
		return core.Block{}, fmt.Errorf("text: %w", err)
	}
	return core.Block{
		DocID:   docID,
		Page:    int(page),
		BlockID: int(blockID),
		Text:    text,
	}, nil
}

// escapeFilterValue keeps quotes and backslashes in keys from breaking the
// filter expression. Keys are generated from doc ids, which come from file
// names. Backslashes go first so escaped quotes stay escaped.
func escapeFilterValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `"`, `\"`)
}
