package biz

import (
	"context"
	"fmt"

	"github.com/kart-io/bookrag/internal/bookrag/store"
	"github.com/kart-io/bookrag/pkg/llm"
)

// RAGState 单次查询的工作状态，随请求创建，响应后丢弃。
type RAGState struct {
	// Query 查询文本。
	Query string
	// Collection 目标集合名称。
	Collection string
	// TopK 检索文档数量。
	TopK int
	// ChapterFilter 可选的章节精确过滤标签。
	ChapterFilter string
	// History 调用方提供的对话历史，用于提示词构造。
	History []llm.Message
	// Documents 检索到的文档，按相关性降序。
	Documents []*store.SearchHit
	// Answer 生成的答案。
	Answer string
}

// NodeFunc 图节点函数，读写 RAGState。
type NodeFunc func(ctx context.Context, state *RAGState) error

// node 命名的图节点。
type node struct {
	name string
	fn   NodeFunc
}

// Graph 线性执行的状态图：节点按添加顺序依次执行，无分支、无重试。
// 任一节点的错误立即中止执行并传播给调用方。
type Graph struct {
	nodes []node
}

// NewGraph 创建空图。
func NewGraph() *Graph {
	return &Graph{}
}

// AddNode 按执行顺序追加节点。
func (g *Graph) AddNode(name string, fn NodeFunc) *Graph {
	g.nodes = append(g.nodes, node{name: name, fn: fn})
	return g
}

// Run 依次执行所有节点。
func (g *Graph) Run(ctx context.Context, state *RAGState) error {
	for _, n := range g.nodes {
		if err := n.fn(ctx, state); err != nil {
			return fmt.Errorf("node %s failed: %w", n.name, err)
		}
	}
	return nil
}
