package textutil_test

import (
	"strings"
	"testing"

	"github.com/kart-io/bookrag/internal/pkg/textutil"
	"github.com/stretchr/testify/assert"
)

func TestCleanMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "纯标记文本",
			input:    "## --- \n\n",
			expected: "",
		},
		{
			name:     "标记与正文混合",
			input:    "# Heading\n\nSome **bold** text",
			expected: "HeadingSomeboldtext",
		},
		{
			name:     "表格与引用标记",
			input:    "| a | b |\n> quote",
			expected: "abquote",
		},
		{
			name:     "空字符串",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, textutil.CleanMarkdown(tt.input))
		})
	}
}

func TestMeaningfulLength(t *testing.T) {
	assert.Equal(t, 0, textutil.MeaningfulLength("## --- \n\n"))
	assert.Equal(t, 40, textutil.MeaningfulLength(strings.Repeat("a1b2", 10)))
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{"短字符串不截断", "hello", 10, "hello"},
		{"超长截断", "hello world", 5, "hello"},
		{"多字节字符", "音乐信号处理", 2, "音乐"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, textutil.TruncateString(tt.input, tt.maxLen))
		})
	}
}

func TestOverlapTail(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		overlap  int
		expected string
	}{
		{
			name:     "取末尾单词",
			input:    "one two three four five six seven eight nine ten",
			overlap:  20, // 20/5 = 4 个单词
			expected: "seven eight nine ten",
		},
		{
			name:     "单词数不足返回空",
			input:    "one two",
			overlap:  20,
			expected: "",
		},
		{
			name:     "overlap 为零",
			input:    "one two three",
			overlap:  0,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, textutil.OverlapTail(tt.input, tt.overlap))
		})
	}
}
