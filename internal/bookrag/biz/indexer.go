package biz

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/bookrag/internal/bookrag/metrics"
	"github.com/kart-io/bookrag/internal/bookrag/model"
	"github.com/kart-io/bookrag/internal/bookrag/store"
)

// IndexerConfig 索引器配置。
type IndexerConfig struct {
	// ChunkSize 文档块最大字符数。
	ChunkSize int
	// ChunkOverlap 块重叠字符数。
	ChunkOverlap int
	// MinChunkLength 有效内容最小字符数。
	MinChunkLength int
	// BatchSize 嵌入批大小。
	BatchSize int
	// Collection 集合名称。
	Collection string
	// EmbeddingDim 嵌入向量维度。
	EmbeddingDim int
}

// Indexer 负责文档的切分、过滤、增量嵌入和入库。
type Indexer struct {
	store   store.VectorStore
	chunker *Chunker
	batcher *Batcher
	config  *IndexerConfig
	metrics *metrics.RAGMetrics
}

// NewIndexer 创建索引器实例。
func NewIndexer(vectorStore store.VectorStore, batcher *Batcher, config *IndexerConfig) *Indexer {
	return &Indexer{
		store: vectorStore,
		chunker: NewChunker(&ChunkerConfig{
			ChunkSize:    config.ChunkSize,
			ChunkOverlap: config.ChunkOverlap,
		}),
		batcher: batcher,
		config:  config,
		metrics: metrics.GetRAGMetrics(),
	}
}

// IndexFile 读取 Markdown 文件并入库，来源标识为文件名。
func (i *Indexer) IndexFile(ctx context.Context, path string) (*model.IngestResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return i.IndexDocument(ctx, string(content), filepath.Base(path))
}

// IndexDocument 将 Markdown 文本增量入库。
// 相同来源、相同切分参数的文档重复入库时不会产生重复记录。
// 注意：chunk_index 语义依赖切分参数，参数变更后与已存储的索引集不兼容。
func (i *Indexer) IndexDocument(ctx context.Context, content, source string) (*model.IngestResult, error) {
	result := &model.IngestResult{Source: source}

	if err := i.store.EnsureCollection(ctx, &store.CollectionConfig{
		Name:        i.config.Collection,
		Description: "Book chapter embeddings for RAG",
		Dimension:   i.config.EmbeddingDim,
	}); err != nil {
		i.metrics.RecordIndexing(0, 0, err)
		return nil, fmt.Errorf("failed to ensure collection: %w", err)
	}
	logger.Infow("collection ready", "collection", i.config.Collection)

	// 1. 切分与过滤
	chunks := i.chunker.Split(content)
	result.TotalChunks = len(chunks)
	logger.Infof("Produced %d chunks from %s", len(chunks), source)

	filtered, skipped := FilterChunks(chunks, i.config.MinChunkLength)
	result.Filtered = skipped
	logger.Infof("%d chunks remain after filtering", len(filtered))

	// 2. 确认已存储的文档块
	// 索引查询失败时降级为"没有已存储记录"，可能造成重复插入，但保证可用性。
	existing, err := i.store.ExistingChunkIndexes(ctx, i.config.Collection, source)
	if err != nil {
		logger.Warnw("existing-chunk check failed, assuming empty", "error", err.Error(), "source", source)
		existing = map[int32]struct{}{}
	}
	result.Existing = len(existing)

	newChunks := make([]*IndexedChunk, 0, len(filtered))
	for idx, chunk := range filtered {
		if _, ok := existing[int32(idx)]; !ok {
			newChunks = append(newChunks, &IndexedChunk{Index: int32(idx), Chunk: chunk})
		}
	}
	result.New = len(newChunks)
	logger.Infof("Existing: %d, new: %d", len(existing), len(newChunks))

	if len(newChunks) == 0 {
		logger.Info("All chunks already stored")
		return i.finish(ctx, result)
	}

	// 3. 嵌入并立即入库
	start := time.Now()
	saved, embedSkipped, err := i.batcher.Process(ctx, newChunks, func(ctx context.Context, batch []*EmbeddedChunk) error {
		records := make([]*store.Record, len(batch))
		for j, e := range batch {
			records[j] = &store.Record{
				Chunk: store.Chunk{
					Text:    e.Chunk.Text,
					Heading: e.Chunk.Heading,
					Chapter: e.Chunk.Chapter,
					Index:   e.Index,
				},
				Source: source,
				Vector: e.Vector,
			}
		}
		_, err := i.store.Insert(ctx, i.config.Collection, records)
		return err
	})
	result.Saved = saved
	result.Skipped = embedSkipped
	result.ElapsedSeconds = time.Since(start).Seconds()
	if err != nil {
		i.metrics.RecordIndexing(0, 0, err)
		return nil, err
	}

	i.metrics.RecordIndexing(1, saved, nil)
	i.metrics.RecordChunksSkipped(embedSkipped)
	logger.Infof("Ingestion done in %.1fs (saved: %d, skipped: %d)", result.ElapsedSeconds, saved, embedSkipped)

	return i.finish(ctx, result)
}

// finish 补充集合统计后返回结果。
func (i *Indexer) finish(ctx context.Context, result *model.IngestResult) (*model.IngestResult, error) {
	count, err := i.store.Stats(ctx, i.config.Collection)
	if err != nil {
		logger.Warnw("failed to read collection stats", "error", err.Error())
		return result, nil
	}
	result.RowCount = count
	return result, nil
}
