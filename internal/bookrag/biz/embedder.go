package biz

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"

	"github.com/kart-io/bookrag/internal/pkg/textutil"
	"github.com/kart-io/bookrag/pkg/llm"
)

// DefaultBatchSize 默认嵌入批大小。
const DefaultBatchSize = 16

// IndexedChunk 表示带有入库索引的待嵌入文档块。
type IndexedChunk struct {
	// Index 文档块在过滤后序列中的位置。
	Index int32
	// Chunk 文档块。
	Chunk *DocumentChunk
}

// EmbeddedChunk 表示已生成向量的文档块。
type EmbeddedChunk struct {
	// Index 文档块位置。
	Index int32
	// Chunk 文档块。
	Chunk *DocumentChunk
	// Vector 嵌入向量。
	Vector []float32
}

// BatchSink 接收一批已嵌入的文档块并负责持久化。
type BatchSink func(ctx context.Context, batch []*EmbeddedChunk) error

// BatcherConfig 嵌入批处理器配置。
type BatcherConfig struct {
	// BatchSize 每批文档块数量。
	BatchSize int
	// EmbeddingDim 期望的向量维度，不匹配视为致命配置错误。
	EmbeddingDim int
}

// Batcher 负责批量嵌入文档块，批调用失败时降级到逐条嵌入。
type Batcher struct {
	provider llm.EmbeddingProvider
	config   *BatcherConfig
}

// NewBatcher 创建嵌入批处理器实例。
func NewBatcher(provider llm.EmbeddingProvider, config *BatcherConfig) *Batcher {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	return &Batcher{
		provider: provider,
		config:   config,
	}
}

// Process 按批嵌入文档块，每批嵌入完成后立即交给 sink 持久化。
// 批调用失败时降级为逐条嵌入，单条仍失败的块被跳过（记录日志，不再重试）。
// 返回 (保存数, 跳过数)；向量维度不匹配和 sink 错误是致命错误。
func (b *Batcher) Process(ctx context.Context, chunks []*IndexedChunk, sink BatchSink) (int, int, error) {
	saved, skipped := 0, 0
	total := len(chunks)

	for i := 0; i < total; i += b.config.BatchSize {
		end := i + b.config.BatchSize
		if end > total {
			end = total
		}
		batch := chunks[i:end]

		embedded, batchSkipped, err := b.embedBatch(ctx, batch)
		if err != nil {
			return saved, skipped, err
		}
		skipped += batchSkipped

		if len(embedded) > 0 {
			if err := sink(ctx, embedded); err != nil {
				return saved, skipped, fmt.Errorf("failed to persist embedded batch: %w", err)
			}
			saved += len(embedded)
		}

		logger.Infof("Embedding progress: %d/%d (saved: %d, skipped: %d)", end, total, saved, skipped)
	}

	return saved, skipped, nil
}

// embedBatch 嵌入单个批次，批调用失败时逐条降级。
func (b *Batcher) embedBatch(ctx context.Context, batch []*IndexedChunk) ([]*EmbeddedChunk, int, error) {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Chunk.Text
	}

	vectors, err := b.provider.Embed(ctx, texts)
	if err == nil && len(vectors) != len(batch) {
		// 供应商返回的向量数与输入不符，按批调用失败处理
		err = fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(vectors))
	}
	if err == nil {
		embedded := make([]*EmbeddedChunk, 0, len(batch))
		for i, c := range batch {
			if err := b.checkDimension(vectors[i]); err != nil {
				return nil, 0, err
			}
			embedded = append(embedded, &EmbeddedChunk{Index: c.Index, Chunk: c.Chunk, Vector: vectors[i]})
		}
		return embedded, 0, nil
	}

	logger.Warnw("批量嵌入失败，降级到逐条嵌入", "error", err.Error(), "batch_size", len(batch))

	embedded := make([]*EmbeddedChunk, 0, len(batch))
	skipped := 0
	for _, c := range batch {
		vector, err := b.provider.EmbedSingle(ctx, c.Chunk.Text)
		if err != nil {
			logger.Warnw("跳过嵌入失败的文档块",
				"chunk_index", c.Index,
				"text", textutil.TruncateString(c.Chunk.Text, 60),
				"error", err.Error(),
			)
			skipped++
			continue
		}
		if err := b.checkDimension(vector); err != nil {
			return nil, skipped, err
		}
		embedded = append(embedded, &EmbeddedChunk{Index: c.Index, Chunk: c.Chunk, Vector: vector})
	}

	return embedded, skipped, nil
}

// checkDimension 校验向量维度与集合 schema 一致。
func (b *Batcher) checkDimension(vector []float32) error {
	if b.config.EmbeddingDim > 0 && len(vector) != b.config.EmbeddingDim {
		return fmt.Errorf("embedding dimension mismatch: expected %d, got %d", b.config.EmbeddingDim, len(vector))
	}
	return nil
}
