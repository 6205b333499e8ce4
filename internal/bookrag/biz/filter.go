package biz

import (
	"github.com/kart-io/logger"

	"github.com/kart-io/bookrag/internal/pkg/textutil"
)

// DefaultMinChunkLength 默认的有效内容最小字符数。
const DefaultMinChunkLength = 30

// FilterChunks 过滤掉有效内容不足的文档块。
// 移除 Markdown 噪声字符后剩余字符数低于 minLength 的块被丢弃，
// 返回保留的块（保持原有顺序）和被丢弃的数量。
func FilterChunks(chunks []*DocumentChunk, minLength int) ([]*DocumentChunk, int) {
	if minLength <= 0 {
		minLength = DefaultMinChunkLength
	}

	filtered := make([]*DocumentChunk, 0, len(chunks))
	skipped := 0
	for _, chunk := range chunks {
		if textutil.MeaningfulLength(chunk.Text) >= minLength {
			filtered = append(filtered, chunk)
		} else {
			skipped++
		}
	}

	if skipped > 0 {
		logger.Infof("Filtered %d chunks with insufficient text", skipped)
	}

	return filtered, skipped
}
