// Package biz provides business logic for the book RAG service.
package biz

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kart-io/bookrag/internal/pkg/textutil"
)

// FrontMatterChapter 第一个章节标题出现前使用的哨兵章节标签。
const FrontMatterChapter = "Front Matter"

var (
	// chapterRegex 章节标题模式："Chapter 1"、"**Chapter 2**" 等。
	chapterRegex = regexp.MustCompile(`\*{0,2}Chapter\s+(\d+)\*{0,2}`)
	// headingRegex 匹配 Markdown 标题行。
	headingRegex = regexp.MustCompile(`^(#{1,6})\s+(.*)`)
)

// DocumentChunk 表示切分出的一个文档块，尚未分配入库索引。
type DocumentChunk struct {
	// Text 文档块内容。
	Text string
	// Heading 所在 section 的标题文本，前言部分为空。
	Heading string
	// Chapter 章节标签。
	Chapter string
}

// ChunkerConfig 切分器配置。
type ChunkerConfig struct {
	// ChunkSize 文档块最大字符数（Unicode 字符）。
	ChunkSize int
	// ChunkOverlap 相邻文档块的重叠字符数。
	ChunkOverlap int
}

// Chunker 按 Markdown 标题切分文档，超长 section 按段落继续切分。
type Chunker struct {
	config *ChunkerConfig
}

// NewChunker 创建切分器实例。
func NewChunker(config *ChunkerConfig) *Chunker {
	return &Chunker{config: config}
}

// Split 将 Markdown 文本切分为有序的文档块序列（未过滤）。
// 章节标签从最近的匹配标题继承，首个匹配前为 Front Matter。
func (c *Chunker) Split(text string) []*DocumentChunk {
	sections := splitByHeading(text)
	var chunks []*DocumentChunk
	currentChapter := FrontMatterChapter

	for _, section := range sections {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}

		heading := ""
		if m := headingRegex.FindStringSubmatch(section); m != nil {
			heading = strings.TrimSpace(m[2])
		}

		currentChapter = detectChapter(heading, currentChapter)

		if utf8.RuneCountInString(section) <= c.config.ChunkSize {
			chunks = append(chunks, &DocumentChunk{
				Text:    section,
				Heading: heading,
				Chapter: currentChapter,
			})
			continue
		}

		chunks = append(chunks, c.splitSection(section, heading, currentChapter)...)
	}

	return chunks
}

// splitSection 将超长 section 按段落贪心累积切分，块间保留重叠。
func (c *Chunker) splitSection(section, heading, chapter string) []*DocumentChunk {
	var chunks []*DocumentChunk
	paragraphs := strings.Split(section, "\n\n")
	current := ""

	emit := func(text string) {
		chunks = append(chunks, &DocumentChunk{
			Text:    text,
			Heading: heading,
			Chapter: chapter,
		})
	}

	for _, para := range paragraphs {
		if utf8.RuneCountInString(current)+utf8.RuneCountInString(para) > c.config.ChunkSize && current != "" {
			emit(strings.TrimSpace(current))
			current = textutil.OverlapTail(current, c.config.ChunkOverlap) + "\n\n" + para
		} else {
			if current == "" {
				current = para
			} else {
				current = current + "\n\n" + para
			}
		}
	}

	if strings.TrimSpace(current) != "" {
		emit(strings.TrimSpace(current))
	}

	return chunks
}

// splitByHeading 在每个 Markdown 标题行之前切分文本。
// 首个标题之前的内容作为独立的前言 section。
func splitByHeading(text string) []string {
	lines := strings.Split(text, "\n")
	var sections []string
	var current []string

	for _, line := range lines {
		if headingRegex.MatchString(line) && len(current) > 0 {
			sections = append(sections, strings.Join(current, "\n"))
			current = current[:0]
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		sections = append(sections, strings.Join(current, "\n"))
	}

	return sections
}

// detectChapter 从标题中提取章节标签，未匹配时沿用前一个章节。
func detectChapter(heading, prevChapter string) string {
	if m := chapterRegex.FindStringSubmatch(heading); m != nil {
		return "Chapter " + m[1]
	}
	return prevChapter
}
