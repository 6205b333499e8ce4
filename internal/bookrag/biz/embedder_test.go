package biz

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeIndexedChunks(n int) []*IndexedChunk {
	chunks := make([]*IndexedChunk, n)
	for i := range chunks {
		chunks[i] = &IndexedChunk{
			Index: int32(i),
			Chunk: &DocumentChunk{Text: fmt.Sprintf("chunk text %d", i), Chapter: "Chapter 1"},
		}
	}
	return chunks
}

func TestBatcherProcess_BatchSuccess(t *testing.T) {
	provider := &mockEmbeddingProvider{dim: 4}
	batcher := NewBatcher(provider, &BatcherConfig{BatchSize: 16, EmbeddingDim: 4})

	var collected []*EmbeddedChunk
	saved, skipped, err := batcher.Process(context.Background(), makeIndexedChunks(40), func(ctx context.Context, batch []*EmbeddedChunk) error {
		collected = append(collected, batch...)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 40, saved)
	assert.Equal(t, 0, skipped)
	assert.Len(t, collected, 40)
	// 40 个块按 16 一批，共 3 次批量调用
	assert.Equal(t, 3, provider.embedCalls)
	assert.Equal(t, 0, provider.singleCalls)
}

func TestBatcherProcess_FallbackToIndividual(t *testing.T) {
	provider := &mockEmbeddingProvider{
		dim:       4,
		failBatch: true,
		failTexts: map[string]bool{"chunk text 2": true},
	}
	batcher := NewBatcher(provider, &BatcherConfig{BatchSize: 16, EmbeddingDim: 4})

	var collected []*EmbeddedChunk
	saved, skipped, err := batcher.Process(context.Background(), makeIndexedChunks(5), func(ctx context.Context, batch []*EmbeddedChunk) error {
		collected = append(collected, batch...)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, saved)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, 5, provider.singleCalls)

	// 失败的块不在输出中
	for _, e := range collected {
		assert.NotEqual(t, int32(2), e.Index)
	}
}

func TestBatcherProcess_ShortResponseFallsBack(t *testing.T) {
	// 批量调用返回的向量数少于输入时按批失败处理，降级到逐条嵌入
	provider := &mockEmbeddingProvider{dim: 4, shortBatch: true}
	batcher := NewBatcher(provider, &BatcherConfig{BatchSize: 16, EmbeddingDim: 4})

	var collected []*EmbeddedChunk
	saved, skipped, err := batcher.Process(context.Background(), makeIndexedChunks(3), func(ctx context.Context, batch []*EmbeddedChunk) error {
		collected = append(collected, batch...)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, saved)
	assert.Equal(t, 0, skipped)
	assert.Len(t, collected, 3)
	assert.Equal(t, 3, provider.singleCalls)
}

func TestBatcherProcess_DimensionMismatchFatal(t *testing.T) {
	provider := &mockEmbeddingProvider{dim: 8}
	batcher := NewBatcher(provider, &BatcherConfig{BatchSize: 16, EmbeddingDim: 4})

	_, _, err := batcher.Process(context.Background(), makeIndexedChunks(3), func(ctx context.Context, batch []*EmbeddedChunk) error {
		return nil
	})

	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "dimension mismatch"))
}

func TestBatcherProcess_SinkErrorFatal(t *testing.T) {
	provider := &mockEmbeddingProvider{dim: 4}
	batcher := NewBatcher(provider, &BatcherConfig{BatchSize: 16, EmbeddingDim: 4})

	sinkErr := fmt.Errorf("insert failed")
	saved, _, err := batcher.Process(context.Background(), makeIndexedChunks(3), func(ctx context.Context, batch []*EmbeddedChunk) error {
		return sinkErr
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, sinkErr)
	assert.Equal(t, 0, saved)
}

func TestBatcherProcess_SequentialBatches(t *testing.T) {
	provider := &mockEmbeddingProvider{dim: 4}
	batcher := NewBatcher(provider, &BatcherConfig{BatchSize: 2, EmbeddingDim: 4})

	var batchSizes []int
	_, _, err := batcher.Process(context.Background(), makeIndexedChunks(5), func(ctx context.Context, batch []*EmbeddedChunk) error {
		batchSizes = append(batchSizes, len(batch))
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, batchSizes)
}

func TestNewBatcher_DefaultBatchSize(t *testing.T) {
	batcher := NewBatcher(&mockEmbeddingProvider{dim: 4}, &BatcherConfig{EmbeddingDim: 4})
	assert.Equal(t, DefaultBatchSize, batcher.config.BatchSize)
}
