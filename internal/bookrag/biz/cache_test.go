package biz

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/bookrag/internal/bookrag/model"
)

// newCacheTestRedis 连接本地 Redis，不可用时跳过测试。
func newCacheTestRedis(t *testing.T) *goredis.Client {
	t.Helper()
	client := goredis.NewClient(&goredis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestQueryCacheDisabled(t *testing.T) {
	cache := NewQueryCache(nil, nil)
	ctx := context.Background()
	state := &RAGState{Query: "q", Collection: "c", TopK: 3}

	_, err := cache.Get(ctx, state)
	assert.Error(t, err)

	assert.NoError(t, cache.Set(ctx, state, &model.QueryResult{Answer: "a"}))
	assert.NoError(t, cache.Clear(ctx))

	stats, err := cache.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, false, stats["enabled"])
}

func TestQueryCacheKey(t *testing.T) {
	cache := NewQueryCache(nil, &QueryCacheConfig{KeyPrefix: "test:"})

	base := &RAGState{Query: "什么是采样", Collection: "books", TopK: 3}
	key := cache.cacheKey(base)
	assert.Equal(t, key, cache.cacheKey(base))

	// topK、集合和章节过滤都会影响结果，必须产生不同的键
	variants := []*RAGState{
		{Query: "什么是量化", Collection: "books", TopK: 3},
		{Query: "什么是采样", Collection: "other", TopK: 3},
		{Query: "什么是采样", Collection: "books", TopK: 5},
		{Query: "什么是采样", Collection: "books", TopK: 3, ChapterFilter: "Chapter 1"},
	}
	for _, v := range variants {
		assert.NotEqual(t, key, cache.cacheKey(v))
	}
}

func TestQueryCacheRoundTrip(t *testing.T) {
	client := newCacheTestRedis(t)
	cache := NewQueryCache(client, &QueryCacheConfig{
		Enabled:   true,
		TTL:       time.Minute,
		KeyPrefix: "bookrag:test:",
	})
	ctx := context.Background()
	t.Cleanup(func() {
		_ = cache.Clear(ctx)
	})

	state := &RAGState{Query: "采样定理", Collection: "books", TopK: 3}

	// 未命中
	cached, err := cache.Get(ctx, state)
	require.NoError(t, err)
	assert.Nil(t, cached)

	result := &model.QueryResult{
		Answer: "采样定理描述了无失真重建的条件。",
		Documents: []model.RetrievedDocument{
			{Chapter: "Chapter 1", Heading: "Sampling", Text: "content", ChunkIndex: 0, Score: 0.9},
		},
	}
	require.NoError(t, cache.Set(ctx, state, result))

	cached, err = cache.Get(ctx, state)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, result.Answer, cached.Answer)
	require.Len(t, cached.Documents, 1)
	assert.Equal(t, "Chapter 1", cached.Documents[0].Chapter)

	stats, err := cache.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, true, stats["enabled"])
}

func TestQueryCacheClear(t *testing.T) {
	client := newCacheTestRedis(t)
	cache := NewQueryCache(client, &QueryCacheConfig{
		Enabled:   true,
		TTL:       time.Minute,
		KeyPrefix: "bookrag:cleartest:",
	})
	ctx := context.Background()

	for _, q := range []string{"q1", "q2", "q3"} {
		state := &RAGState{Query: q, Collection: "books", TopK: 3}
		require.NoError(t, cache.Set(ctx, state, &model.QueryResult{Answer: q}))
	}

	require.NoError(t, cache.Clear(ctx))

	stats, err := cache.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats["key_count"])
}
