package biz

import (
	"context"
	"fmt"
	"sync"

	"github.com/kart-io/bookrag/internal/bookrag/store"
	"github.com/kart-io/bookrag/pkg/llm"
)

// === Mock 实现 ===

// mockVectorStore 模拟 VectorStore。
type mockVectorStore struct {
	mu sync.Mutex

	existing    map[int32]struct{}
	existingErr error

	inserted  [][]*store.Record
	insertErr error

	searchHits      []*store.SearchHit
	searchErr       error
	searchCalls     int
	lastTopK        int
	lastChapterExpr string

	statsCount int64
}

func (m *mockVectorStore) EnsureCollection(ctx context.Context, config *store.CollectionConfig) error {
	return nil
}

func (m *mockVectorStore) ExistingChunkIndexes(ctx context.Context, collection, source string) (map[int32]struct{}, error) {
	if m.existingErr != nil {
		return nil, m.existingErr
	}
	if m.existing == nil {
		return map[int32]struct{}{}, nil
	}
	return m.existing, nil
}

func (m *mockVectorStore) Insert(ctx context.Context, collection string, records []*store.Record) ([]int64, error) {
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserted = append(m.inserted, records)
	ids := make([]int64, len(records))
	for i := range records {
		ids[i] = int64(i)
	}
	return ids, nil
}

func (m *mockVectorStore) Search(ctx context.Context, collection string, embedding []float32, topK int, chapterFilter string) ([]*store.SearchHit, error) {
	m.mu.Lock()
	m.searchCalls++
	m.lastTopK = topK
	m.lastChapterExpr = chapterFilter
	m.mu.Unlock()

	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if chapterFilter != "" {
		var filtered []*store.SearchHit
		for _, hit := range m.searchHits {
			if hit.Chapter == chapterFilter {
				filtered = append(filtered, hit)
			}
		}
		return filtered, nil
	}
	return m.searchHits, nil
}

func (m *mockVectorStore) Stats(ctx context.Context, collection string) (int64, error) {
	return m.statsCount, nil
}

func (m *mockVectorStore) Close(ctx context.Context) error {
	return nil
}

// insertedRecords 返回所有批次插入的记录。
func (m *mockVectorStore) insertedRecords() []*store.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*store.Record
	for _, batch := range m.inserted {
		all = append(all, batch...)
	}
	return all
}

var _ store.VectorStore = (*mockVectorStore)(nil)

// mockEmbeddingProvider 模拟 EmbeddingProvider。
// failBatch 为 true 时所有批量调用失败；shortBatch 为 true 时批量调用少返回一个向量；
// failTexts 中的文本逐条嵌入也失败。
type mockEmbeddingProvider struct {
	mu sync.Mutex

	dim         int
	failBatch   bool
	shortBatch  bool
	failTexts   map[string]bool
	embedCalls  int
	singleCalls int
}

func (m *mockEmbeddingProvider) vector() []float32 {
	dim := m.dim
	if dim <= 0 {
		dim = 4
	}
	v := make([]float32, dim)
	for i := range v {
		v[i] = 0.1
	}
	return v
}

func (m *mockEmbeddingProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.embedCalls++
	m.mu.Unlock()

	if m.failBatch {
		return nil, fmt.Errorf("batch embedding unavailable")
	}
	n := len(texts)
	if m.shortBatch && n > 0 {
		n--
	}
	result := make([][]float32, n)
	for i := range result {
		result[i] = m.vector()
	}
	return result, nil
}

func (m *mockEmbeddingProvider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.singleCalls++
	m.mu.Unlock()

	if m.failTexts[text] {
		return nil, fmt.Errorf("embedding failed for text")
	}
	return m.vector(), nil
}

func (m *mockEmbeddingProvider) Name() string {
	return "mock-embedding"
}

var _ llm.EmbeddingProvider = (*mockEmbeddingProvider)(nil)

// mockChatProvider 模拟 ChatProvider，带调用计数。
type mockChatProvider struct {
	mu sync.Mutex

	response      string
	err           error
	generateCalls int
	chatCalls     int
	lastPrompt    string
}

func (m *mockChatProvider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	m.mu.Lock()
	m.chatCalls++
	m.mu.Unlock()

	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockChatProvider) Generate(ctx context.Context, prompt string, systemPrompt string) (string, error) {
	m.mu.Lock()
	m.generateCalls++
	m.lastPrompt = prompt
	m.mu.Unlock()

	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockChatProvider) Name() string {
	return "mock-chat"
}

var _ llm.ChatProvider = (*mockChatProvider)(nil)
