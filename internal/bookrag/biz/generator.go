package biz

import (
	"context"
	"fmt"
	"strings"

	"github.com/kart-io/logger"

	"github.com/kart-io/bookrag/pkg/llm"
)

// NoDocumentsAnswer 没有检索到任何文档时返回的固定答案。
const NoDocumentsAnswer = "No relevant documents were found for this question."

// GeneratorConfig 生成器配置。
type GeneratorConfig struct {
	// SystemPrompt 提示词模板，包含 {{context}} 和 {{question}} 占位符。
	SystemPrompt string
}

// Generator 负责基于检索结果生成答案。
type Generator struct {
	chatProvider llm.ChatProvider
	config       *GeneratorConfig
}

// NewGenerator 创建生成器实例。
func NewGenerator(chatProvider llm.ChatProvider, config *GeneratorConfig) *Generator {
	return &Generator{
		chatProvider: chatProvider,
		config:       config,
	}
}

// Generate 根据 state.Documents 生成答案并写入 state.Answer。
// 文档为空时直接返回固定答案，不调用补全供应商；
// 调用方提供的对话历史会作为前置消息传入。
func (g *Generator) Generate(ctx context.Context, state *RAGState) error {
	if len(state.Documents) == 0 {
		state.Answer = NoDocumentsAnswer
		return nil
	}

	contextParts := make([]string, len(state.Documents))
	for i, doc := range state.Documents {
		contextParts[i] = fmt.Sprintf("[Document %d] (chapter: %s, heading: %s, score: %.3f)\n%s",
			i+1, doc.Chapter, doc.Heading, doc.Score, doc.Text)
	}
	contextBlock := strings.Join(contextParts, "\n\n---\n\n")

	prompt := strings.ReplaceAll(g.config.SystemPrompt, "{{context}}", contextBlock)
	prompt = strings.ReplaceAll(prompt, "{{question}}", state.Query)

	logger.Info("Calling LLM to generate answer...")

	var answer string
	var err error
	if len(state.History) > 0 {
		messages := make([]llm.Message, 0, len(state.History)+1)
		messages = append(messages, state.History...)
		messages = append(messages, llm.Message{Role: llm.RoleUser, Content: prompt})
		answer, err = g.chatProvider.Chat(ctx, messages)
	} else {
		answer, err = g.chatProvider.Generate(ctx, prompt, "")
	}
	if err != nil {
		return fmt.Errorf("failed to generate answer: %w", err)
	}

	logger.Infof("LLM answer generated (length: %d)", len(answer))
	state.Answer = answer
	return nil
}
