package milvus

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/milvusclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	milvusopts "github.com/kart-io/bookrag/pkg/options/milvus"
)

// newTestClient 连接本地 Milvus，不可用时跳过测试。
func newTestClient(t *testing.T) *Client {
	t.Helper()

	opts := milvusopts.NewOptions()
	opts.Timeout = 5 * time.Second

	c, err := New(opts)
	if err != nil {
		t.Skipf("Milvus 不可用，跳过: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Close(context.Background())
	})
	return c
}

func newTestCollection(t *testing.T, c *Client) string {
	t.Helper()

	name := fmt.Sprintf("bookrag_component_test_%d", time.Now().UnixNano())
	schema := &CollectionSchema{
		Name:      name,
		Dimension: 4,
		MetaFields: []MetaField{
			{Name: "source", DataType: entity.FieldTypeVarChar, MaxLen: 256},
			{Name: "chunk_index", DataType: entity.FieldTypeInt32},
		},
		InvertedIndexFields: []string{"chunk_index"},
	}
	require.NoError(t, c.CreateCollection(context.Background(), schema))
	t.Cleanup(func() {
		_ = c.DropCollection(context.Background(), name)
	})
	return name
}

func insertTestRow(t *testing.T, c *Client, collection string) {
	t.Helper()

	_, err := c.Insert(context.Background(), collection, &InsertData{
		Vectors: [][]float32{{0.1, 0.2, 0.3, 0.4}},
		Metadata: map[string][]any{
			"source":      {"book.md"},
			"chunk_index": {int32(0)},
		},
	})
	require.NoError(t, err)
}

func TestQueryLoadsReleasedCollection(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	collection := newTestCollection(t, c)
	insertTestRow(t, c, collection)

	// 模拟集合被释放（如上次运行在建表与加载之间崩溃）后的标量查询
	require.NoError(t, c.RawClient().ReleaseCollection(ctx, milvusclient.NewReleaseCollectionOption(collection)))

	rows, err := c.Query(ctx, collection, `source == "book.md"`, []string{"chunk_index"}, 0, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int32(0), rows[0]["chunk_index"])
}

func TestGetCollectionStatsLoadsReleasedCollection(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	collection := newTestCollection(t, c)
	insertTestRow(t, c, collection)

	require.NoError(t, c.RawClient().ReleaseCollection(ctx, milvusclient.NewReleaseCollectionOption(collection)))

	count, err := c.GetCollectionStats(ctx, collection)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCreateCollectionReuseKeepsQueryable(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	collection := newTestCollection(t, c)
	insertTestRow(t, c, collection)

	// 第二次建表走复用路径，复用后的集合必须仍可查询
	schema := &CollectionSchema{
		Name:      collection,
		Dimension: 4,
		MetaFields: []MetaField{
			{Name: "source", DataType: entity.FieldTypeVarChar, MaxLen: 256},
			{Name: "chunk_index", DataType: entity.FieldTypeInt32},
		},
	}
	require.NoError(t, c.CreateCollection(ctx, schema))

	rows, err := c.Query(ctx, collection, `source == "book.md"`, []string{"chunk_index"}, 0, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
