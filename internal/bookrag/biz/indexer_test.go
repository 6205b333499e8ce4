package biz

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCollection = "test_book"

func newTestIndexer(vs *mockVectorStore, ep *mockEmbeddingProvider) *Indexer {
	batcher := NewBatcher(ep, &BatcherConfig{BatchSize: 16, EmbeddingDim: 4})
	return NewIndexer(vs, batcher, &IndexerConfig{
		ChunkSize:      1500,
		ChunkOverlap:   200,
		MinChunkLength: 30,
		BatchSize:      16,
		Collection:     testCollection,
		EmbeddingDim:   4,
	})
}

func testDocument() string {
	return strings.Join([]string{
		"# Chapter 1 Signals",
		"",
		strings.Repeat("Signal processing fundamentals explained in detail. ", 3),
		"",
		"## Sampling",
		"",
		strings.Repeat("Sampling theory and quantization effects described here. ", 3),
		"",
		"# Chapter 2 Fourier Analysis",
		"",
		strings.Repeat("Fourier transform decomposes signals into frequencies. ", 3),
	}, "\n")
}

func TestIndexerIndexDocument_FreshIngest(t *testing.T) {
	vs := &mockVectorStore{statsCount: 3}
	ep := &mockEmbeddingProvider{dim: 4}
	indexer := newTestIndexer(vs, ep)

	result, err := indexer.IndexDocument(context.Background(), testDocument(), "book.md")
	require.NoError(t, err)

	assert.Equal(t, "book.md", result.Source)
	assert.Equal(t, 3, result.TotalChunks)
	assert.Equal(t, 0, result.Filtered)
	assert.Equal(t, 0, result.Existing)
	assert.Equal(t, 3, result.New)
	assert.Equal(t, 3, result.Saved)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, int64(3), result.RowCount)

	records := vs.insertedRecords()
	require.Len(t, records, 3)

	// chunk_index 为过滤后序列中的位置，从 0 开始连续
	for i, r := range records {
		assert.Equal(t, int32(i), r.Index)
		assert.Equal(t, "book.md", r.Source)
		assert.Len(t, r.Vector, 4)
	}
	assert.Equal(t, "Chapter 1", records[0].Chapter)
	assert.Equal(t, "Chapter 1", records[1].Chapter)
	assert.Equal(t, "Chapter 2", records[2].Chapter)
}

func TestIndexerIndexDocument_Idempotent(t *testing.T) {
	// 所有块都已存在，重新运行不应插入任何记录
	vs := &mockVectorStore{
		existing: map[int32]struct{}{0: {}, 1: {}, 2: {}},
	}
	ep := &mockEmbeddingProvider{dim: 4}
	indexer := newTestIndexer(vs, ep)

	result, err := indexer.IndexDocument(context.Background(), testDocument(), "book.md")
	require.NoError(t, err)

	assert.Equal(t, 3, result.Existing)
	assert.Equal(t, 0, result.New)
	assert.Equal(t, 0, result.Saved)
	assert.Empty(t, vs.inserted)
	assert.Equal(t, 0, ep.embedCalls)
}

func TestIndexerIndexDocument_PartialResume(t *testing.T) {
	vs := &mockVectorStore{
		existing: map[int32]struct{}{0: {}},
	}
	ep := &mockEmbeddingProvider{dim: 4}
	indexer := newTestIndexer(vs, ep)

	result, err := indexer.IndexDocument(context.Background(), testDocument(), "book.md")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Existing)
	assert.Equal(t, 2, result.New)
	assert.Equal(t, 2, result.Saved)

	records := vs.insertedRecords()
	require.Len(t, records, 2)
	assert.Equal(t, int32(1), records[0].Index)
	assert.Equal(t, int32(2), records[1].Index)
}

func TestIndexerIndexDocument_ExistingCheckDegrades(t *testing.T) {
	// 索引查询失败时降级为"没有已存储记录"，所有块重新入库
	vs := &mockVectorStore{
		existingErr: fmt.Errorf("collection not loaded"),
	}
	ep := &mockEmbeddingProvider{dim: 4}
	indexer := newTestIndexer(vs, ep)

	result, err := indexer.IndexDocument(context.Background(), testDocument(), "book.md")
	require.NoError(t, err)

	assert.Equal(t, 0, result.Existing)
	assert.Equal(t, 3, result.New)
	assert.Equal(t, 3, result.Saved)
}

func TestIndexerIndexDocument_FilteredChunksNotStored(t *testing.T) {
	vs := &mockVectorStore{}
	ep := &mockEmbeddingProvider{dim: 4}
	indexer := newTestIndexer(vs, ep)

	doc := strings.Join([]string{
		"# Chapter 1 Real Content",
		"",
		strings.Repeat("Meaningful chapter content goes here. ", 3),
		"",
		"## --- ",
		"",
		"# Chapter 2 More Content",
		"",
		strings.Repeat("Second chapter content also meaningful. ", 3),
	}, "\n")

	result, err := indexer.IndexDocument(context.Background(), doc, "book.md")
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalChunks)
	assert.Equal(t, 1, result.Filtered)
	assert.Equal(t, 2, result.New)

	// 过滤后的块按新序列重新编号
	records := vs.insertedRecords()
	require.Len(t, records, 2)
	assert.Equal(t, int32(0), records[0].Index)
	assert.Equal(t, int32(1), records[1].Index)
}

func TestIndexerIndexFile_MissingFile(t *testing.T) {
	vs := &mockVectorStore{}
	ep := &mockEmbeddingProvider{dim: 4}
	indexer := newTestIndexer(vs, ep)

	_, err := indexer.IndexFile(context.Background(), "/nonexistent/book.md")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}
