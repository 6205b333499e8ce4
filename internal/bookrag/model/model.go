// Package model 定义 RAG 服务的共享数据模型。
package model

// RetrievedDocument 表示一条检索到的文档引用。
type RetrievedDocument struct {
	// Chapter 章节标签。
	Chapter string `json:"chapter"`
	// Heading 所属标题。
	Heading string `json:"heading"`
	// Text 文档块内容。
	Text string `json:"text"`
	// ChunkIndex 文档块位置。
	ChunkIndex int32 `json:"chunk_index"`
	// Score 相似度分数。
	Score float32 `json:"score"`
}

// QueryResult 表示一次 RAG 查询的完整结果。
type QueryResult struct {
	// Answer 生成的答案。
	Answer string `json:"answer"`
	// Documents 检索到的文档引用，按相关性降序。
	Documents []RetrievedDocument `json:"documents"`
}

// IngestResult 表示一次文档入库的统计结果。
type IngestResult struct {
	// Source 来源文档标识。
	Source string `json:"source"`
	// TotalChunks 分块总数（过滤前）。
	TotalChunks int `json:"total_chunks"`
	// Filtered 被过滤掉的分块数。
	Filtered int `json:"filtered"`
	// Existing 已存在的分块数。
	Existing int `json:"existing"`
	// New 本次新增的分块数。
	New int `json:"new"`
	// Saved 成功保存的分块数。
	Saved int `json:"saved"`
	// Skipped 嵌入失败被跳过的分块数。
	Skipped int `json:"skipped"`
	// ElapsedSeconds 嵌入与保存耗时（秒）。
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	// RowCount 入库后集合记录总数。
	RowCount int64 `json:"row_count"`
}
