package biz

import (
	"context"
	"time"

	"github.com/kart-io/logger"
	"github.com/oklog/ulid/v2"

	"github.com/kart-io/bookrag/internal/bookrag/metrics"
	"github.com/kart-io/bookrag/internal/bookrag/model"
	"github.com/kart-io/bookrag/internal/bookrag/store"
	"github.com/kart-io/bookrag/pkg/llm"
)

// QueryRequest 一次 RAG 查询请求。
type QueryRequest struct {
	// Query 查询文本。
	Query string
	// Collection 目标集合，为空时使用默认集合。
	Collection string
	// TopK 检索文档数量，非正时使用默认值。
	TopK int
	// ChapterFilter 可选的章节过滤标签。
	ChapterFilter string
	// History 调用方提供的对话历史。
	History []llm.Message
}

// Service 定义 RAG 服务接口。
type Service interface {
	// IngestFile 读取 Markdown 文件并增量入库。
	IngestFile(ctx context.Context, path string) (*model.IngestResult, error)
	// IngestDocument 将 Markdown 文本增量入库。
	IngestDocument(ctx context.Context, content, source string) (*model.IngestResult, error)
	// Query 执行 RAG 查询。
	Query(ctx context.Context, req *QueryRequest) (*model.QueryResult, error)
	// GetStats 获取知识库统计信息。
	GetStats(ctx context.Context) (map[string]any, error)
}

// ServiceConfig RAG 服务配置。
type ServiceConfig struct {
	IndexerConfig    *IndexerConfig
	RetrieverConfig  *RetrieverConfig
	GeneratorConfig  *GeneratorConfig
	QueryCacheConfig *QueryCacheConfig
}

// RAGService 组合 Indexer、Retriever 和 Generator 提供完整的 RAG 服务。
// 查询流程由线性状态图驱动：retrieve → generate。
type RAGService struct {
	indexer       *Indexer
	retriever     *Retriever
	generator     *Generator
	graph         *Graph
	cache         *QueryCache
	store         store.VectorStore
	embedProvider llm.EmbeddingProvider
	chatProvider  llm.ChatProvider
	config        *ServiceConfig
	metrics       *metrics.RAGMetrics
}

// NewRAGService 创建 RAG 服务实例。
func NewRAGService(
	vectorStore store.VectorStore,
	embedProvider llm.EmbeddingProvider,
	chatProvider llm.ChatProvider,
	cache *QueryCache,
	config *ServiceConfig,
) *RAGService {
	batcher := NewBatcher(embedProvider, &BatcherConfig{
		BatchSize:    config.IndexerConfig.BatchSize,
		EmbeddingDim: config.IndexerConfig.EmbeddingDim,
	})
	indexer := NewIndexer(vectorStore, batcher, config.IndexerConfig)
	retriever := NewRetriever(vectorStore, embedProvider, config.RetrieverConfig)
	generator := NewGenerator(chatProvider, config.GeneratorConfig)

	m := metrics.GetRAGMetrics()

	graph := NewGraph().
		AddNode("retrieve", func(ctx context.Context, state *RAGState) error {
			start := time.Now()
			err := retriever.Retrieve(ctx, state)
			m.RecordRetrieval(time.Since(start), err)
			return err
		}).
		AddNode("generate", func(ctx context.Context, state *RAGState) error {
			if len(state.Documents) == 0 {
				// 无文档短路，不计入 LLM 调用
				return generator.Generate(ctx, state)
			}
			start := time.Now()
			err := generator.Generate(ctx, state)
			m.RecordLLMCall(time.Since(start), err)
			return err
		})

	return &RAGService{
		indexer:       indexer,
		retriever:     retriever,
		generator:     generator,
		graph:         graph,
		cache:         cache,
		store:         vectorStore,
		embedProvider: embedProvider,
		chatProvider:  chatProvider,
		config:        config,
		metrics:       m,
	}
}

// IngestFile 读取 Markdown 文件并增量入库。
func (s *RAGService) IngestFile(ctx context.Context, path string) (*model.IngestResult, error) {
	return s.indexer.IndexFile(ctx, path)
}

// IngestDocument 将 Markdown 文本增量入库。
func (s *RAGService) IngestDocument(ctx context.Context, content, source string) (*model.IngestResult, error) {
	return s.indexer.IndexDocument(ctx, content, source)
}

// Query 执行 RAG 查询：检索、生成，结果带缓存。
func (s *RAGService) Query(ctx context.Context, req *QueryRequest) (*model.QueryResult, error) {
	requestID := ulid.Make().String()

	state := &RAGState{
		Query:         req.Query,
		Collection:    req.Collection,
		TopK:          req.TopK,
		ChapterFilter: req.ChapterFilter,
		History:       req.History,
	}
	if state.Collection == "" {
		state.Collection = s.config.RetrieverConfig.Collection
	}
	if state.TopK <= 0 {
		state.TopK = s.config.RetrieverConfig.TopK
	}

	logger.Infow("processing query",
		"request_id", requestID,
		"query", state.Query,
		"collection", state.Collection,
	)

	// 1. 尝试从缓存获取
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, state)
		if err == nil && cached != nil {
			s.metrics.RecordCacheLookup(true)
			s.metrics.RecordQuery(nil)
			return cached, nil
		}
		// 缓存未命中或出错，继续正常流程
		s.metrics.RecordCacheLookup(false)
	}

	// 2. 执行检索-生成状态图
	if err := s.graph.Run(ctx, state); err != nil {
		s.metrics.RecordQuery(err)
		return nil, err
	}

	// 3. 构建响应
	documents := make([]model.RetrievedDocument, len(state.Documents))
	for i, doc := range state.Documents {
		documents[i] = model.RetrievedDocument{
			Chapter:    doc.Chapter,
			Heading:    doc.Heading,
			Text:       doc.Text,
			ChunkIndex: doc.ChunkIndex,
			Score:      doc.Score,
		}
	}

	result := &model.QueryResult{
		Answer:    state.Answer,
		Documents: documents,
	}

	// 4. 写入缓存（失败不影响正常返回）
	if s.cache != nil {
		_ = s.cache.Set(ctx, state, result)
	}

	s.metrics.RecordQuery(nil)
	return result, nil
}

// GetStats 获取知识库统计信息。
func (s *RAGService) GetStats(ctx context.Context) (map[string]any, error) {
	count, err := s.store.Stats(ctx, s.config.IndexerConfig.Collection)
	if err != nil {
		return nil, err
	}

	stats := map[string]any{
		"collection":     s.config.IndexerConfig.Collection,
		"chunk_count":    count,
		"embedding_dim":  s.config.IndexerConfig.EmbeddingDim,
		"embed_provider": s.embedProvider.Name(),
		"chat_provider":  s.chatProvider.Name(),
	}

	if s.cache != nil {
		cacheStats, err := s.cache.GetStats(ctx)
		if err == nil {
			stats["cache"] = cacheStats
		}
	}

	stats["metrics"] = s.metrics.Stats()

	return stats, nil
}

// 确保 RAGService 实现了 Service 接口。
var _ Service = (*RAGService)(nil)
