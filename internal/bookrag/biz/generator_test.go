package biz

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/bookrag/internal/bookrag/store"
	"github.com/kart-io/bookrag/pkg/llm"
)

const testPrompt = "Answer based on:\n{{context}}\n\nQuestion: {{question}}"

func testHits() []*store.SearchHit {
	return []*store.SearchHit{
		{Text: "Sampling converts continuous signals.", Heading: "Sampling", Chapter: "Chapter 1", ChunkIndex: 0, Score: 0.92},
		{Text: "Quantization maps amplitudes to levels.", Heading: "Quantization", Chapter: "Chapter 1", ChunkIndex: 1, Score: 0.87},
	}
}

func TestGeneratorGenerate_NoDocuments(t *testing.T) {
	// 没有命中任何文档时返回固定答案，不调用补全供应商
	chat := &mockChatProvider{response: "should not be used"}
	gen := NewGenerator(chat, &GeneratorConfig{SystemPrompt: testPrompt})

	state := &RAGState{Query: "什么是采样"}
	require.NoError(t, gen.Generate(context.Background(), state))

	assert.Equal(t, NoDocumentsAnswer, state.Answer)
	assert.Equal(t, 0, chat.generateCalls)
	assert.Equal(t, 0, chat.chatCalls)
}

func TestGeneratorGenerate_PromptSubstitution(t *testing.T) {
	chat := &mockChatProvider{response: "the answer"}
	gen := NewGenerator(chat, &GeneratorConfig{SystemPrompt: testPrompt})

	state := &RAGState{
		Query:     "What is sampling?",
		Documents: testHits(),
	}
	require.NoError(t, gen.Generate(context.Background(), state))

	assert.Equal(t, "the answer", state.Answer)
	assert.Equal(t, 1, chat.generateCalls)

	assert.NotContains(t, chat.lastPrompt, "{{context}}")
	assert.NotContains(t, chat.lastPrompt, "{{question}}")
	assert.Contains(t, chat.lastPrompt, "What is sampling?")
	assert.Contains(t, chat.lastPrompt, "[Document 1] (chapter: Chapter 1, heading: Sampling, score: 0.920)")
	assert.Contains(t, chat.lastPrompt, "[Document 2] (chapter: Chapter 1, heading: Quantization, score: 0.870)")
	assert.Contains(t, chat.lastPrompt, "\n\n---\n\n")
	assert.Contains(t, chat.lastPrompt, "Sampling converts continuous signals.")
}

func TestGeneratorGenerate_HistoryUsesChat(t *testing.T) {
	// 提供对话历史时走多轮 Chat 接口
	chat := &mockChatProvider{response: "with history"}
	gen := NewGenerator(chat, &GeneratorConfig{SystemPrompt: testPrompt})

	state := &RAGState{
		Query:     "And quantization?",
		Documents: testHits(),
		History: []llm.Message{
			{Role: llm.RoleUser, Content: "What is sampling?"},
			{Role: llm.RoleAssistant, Content: "Sampling converts continuous signals."},
		},
	}
	require.NoError(t, gen.Generate(context.Background(), state))

	assert.Equal(t, "with history", state.Answer)
	assert.Equal(t, 1, chat.chatCalls)
	assert.Equal(t, 0, chat.generateCalls)
}

func TestGeneratorGenerate_ProviderError(t *testing.T) {
	chat := &mockChatProvider{err: fmt.Errorf("model overloaded")}
	gen := NewGenerator(chat, &GeneratorConfig{SystemPrompt: testPrompt})

	state := &RAGState{Query: "q", Documents: testHits()}
	err := gen.Generate(context.Background(), state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate answer")
	assert.Empty(t, state.Answer)
}
