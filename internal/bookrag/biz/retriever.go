package biz

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"

	"github.com/kart-io/bookrag/internal/bookrag/store"
	"github.com/kart-io/bookrag/pkg/llm"
)

// RetrieverConfig 检索器配置。
type RetrieverConfig struct {
	// TopK 默认返回的结果数量。
	TopK int
	// Collection 默认集合名称。
	Collection string
}

// Retriever 负责文档检索：嵌入查询并执行相似度搜索。
type Retriever struct {
	store         store.VectorStore
	embedProvider llm.EmbeddingProvider
	config        *RetrieverConfig
}

// NewRetriever 创建检索器实例。
func NewRetriever(vectorStore store.VectorStore, embedProvider llm.EmbeddingProvider, config *RetrieverConfig) *Retriever {
	return &Retriever{
		store:         vectorStore,
		embedProvider: embedProvider,
		config:        config,
	}
}

// Retrieve 嵌入查询并检索相似文档，写入 state.Documents。
// 结果按存储返回的相关性降序排列，不做重排序；
// chapterFilter 非空时仅返回章节精确匹配的记录。
// 嵌入或检索失败直接向调用方传播。
func (r *Retriever) Retrieve(ctx context.Context, state *RAGState) error {
	logger.Infow("retrieving documents",
		"query", state.Query,
		"collection", state.Collection,
		"top_k", state.TopK,
		"chapter_filter", state.ChapterFilter,
	)

	embedding, err := r.embedProvider.EmbedSingle(ctx, state.Query)
	if err != nil {
		return fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := r.store.Search(ctx, state.Collection, embedding, state.TopK, state.ChapterFilter)
	if err != nil {
		return fmt.Errorf("failed to search collection: %w", err)
	}

	state.Documents = hits
	logger.Infof("Retrieved %d documents", len(hits))
	return nil
}
