package biz

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterChunks(t *testing.T) {
	tests := []struct {
		name         string
		chunks       []*DocumentChunk
		minLength    int
		wantKept     int
		wantSkipped  int
	}{
		{
			name: "纯标记块被丢弃",
			chunks: []*DocumentChunk{
				{Text: "## --- \n\n"},
			},
			minLength:   30,
			wantKept:    0,
			wantSkipped: 1,
		},
		{
			name: "40 个字母数字字符被保留",
			chunks: []*DocumentChunk{
				{Text: strings.Repeat("a1b2", 10)},
			},
			minLength:   30,
			wantKept:    1,
			wantSkipped: 0,
		},
		{
			name: "混合块保持顺序",
			chunks: []*DocumentChunk{
				{Text: strings.Repeat("first chunk content ", 5), Heading: "A"},
				{Text: "# * - |"},
				{Text: strings.Repeat("second chunk content ", 5), Heading: "B"},
			},
			minLength:   30,
			wantKept:    2,
			wantSkipped: 1,
		},
		{
			name:        "空输入",
			chunks:      nil,
			minLength:   30,
			wantKept:    0,
			wantSkipped: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept, skipped := FilterChunks(tt.chunks, tt.minLength)
			assert.Len(t, kept, tt.wantKept)
			assert.Equal(t, tt.wantSkipped, skipped)
		})
	}
}

func TestFilterChunks_PreservesOrder(t *testing.T) {
	chunks := []*DocumentChunk{
		{Text: strings.Repeat("alpha content block ", 5), Heading: "A"},
		{Text: strings.Repeat("beta content block ", 5), Heading: "B"},
	}

	kept, skipped := FilterChunks(chunks, 30)
	assert.Equal(t, 0, skipped)
	assert.Equal(t, "A", kept[0].Heading)
	assert.Equal(t, "B", kept[1].Heading)
}

func TestFilterChunks_DefaultMinLength(t *testing.T) {
	chunks := []*DocumentChunk{
		{Text: "short"},
	}

	// minLength 非正时使用默认值 30
	kept, skipped := FilterChunks(chunks, 0)
	assert.Empty(t, kept)
	assert.Equal(t, 1, skipped)
}
