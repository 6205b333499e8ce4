// Package textutil 提供 RAG 相关的文本处理工具函数。
package textutil

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// markdownNoiseRegex 匹配 Markdown 标记、标点和空白噪声字符。
var markdownNoiseRegex = regexp.MustCompile(`[#*_\-\s\n\r\t|>]+`)

// CleanMarkdown 移除文本中的 Markdown 噪声字符，用于衡量有效内容长度。
func CleanMarkdown(s string) string {
	return markdownNoiseRegex.ReplaceAllString(s, "")
}

// MeaningfulLength 返回移除 Markdown 噪声后的 Unicode 字符数。
func MeaningfulLength(s string) int {
	return utf8.RuneCountInString(CleanMarkdown(s))
}

// TruncateString 截断字符串到指定的最大 Unicode 字符数。
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen])
}

// OverlapTail 返回文本末尾约 overlap 个字符的单词序列。
// 按平均单词长度 5 估算，取最后 overlap/5 个单词；单词数不足时返回空串。
func OverlapTail(s string, overlap int) string {
	n := overlap / 5
	if n <= 0 {
		return ""
	}
	words := strings.Fields(s)
	if len(words) <= n {
		return ""
	}
	return strings.Join(words[len(words)-n:], " ")
}
