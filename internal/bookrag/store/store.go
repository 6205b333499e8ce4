// Package store 提供向量存储抽象及其 Milvus 实现。
package store

import (
	"context"
)

// Chunk 表示一个待入库的文档块。
type Chunk struct {
	// Text 文档块内容。
	Text string
	// Heading 最近的前置 Markdown 标题，前言部分为空。
	Heading string
	// Chapter 章节标签，例如 "Chapter 2"，前言为 "Front Matter"。
	Chapter string
	// Index 文档块在过滤后序列中的稳定位置，作为幂等键。
	Index int32
}

// Record 表示持久化到向量存储的一条记录。
type Record struct {
	Chunk
	// Source 来源文档标识（文件名）。
	Source string
	// Vector 嵌入向量。
	Vector []float32
}

// SearchHit 表示一条检索结果。
type SearchHit struct {
	// Text 文档块内容。
	Text string
	// Heading 所属标题。
	Heading string
	// Chapter 章节标签。
	Chapter string
	// ChunkIndex 文档块位置。
	ChunkIndex int32
	// Score 存储返回的相似度分数，不做归一化。
	Score float32
}

// CollectionConfig 集合配置。
type CollectionConfig struct {
	// Name 集合名称。
	Name string
	// Description 集合描述。
	Description string
	// Dimension 向量维度。
	Dimension int
}

// VectorStore 定义向量存储接口。
type VectorStore interface {
	// EnsureCollection 确保集合存在，已存在时直接复用（不校验 schema 兼容性）。
	EnsureCollection(ctx context.Context, config *CollectionConfig) error

	// ExistingChunkIndexes 分页扫描指定来源已存储的 chunk_index 集合。
	ExistingChunkIndexes(ctx context.Context, collection, source string) (map[int32]struct{}, error)

	// Insert 批量插入记录，不做去重。
	Insert(ctx context.Context, collection string, records []*Record) ([]int64, error)

	// Search 向量相似度搜索，chapterFilter 非空时按章节精确过滤。
	Search(ctx context.Context, collection string, embedding []float32, topK int, chapterFilter string) ([]*SearchHit, error)

	// Stats 返回集合中的记录总数。
	Stats(ctx context.Context, collection string) (int64, error)

	// Close 关闭连接。
	Close(ctx context.Context) error
}
