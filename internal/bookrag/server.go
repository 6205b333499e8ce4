package bookrag

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/bookrag/internal/bookrag/biz"
	"github.com/kart-io/bookrag/internal/bookrag/handler"
	"github.com/kart-io/bookrag/internal/bookrag/router"
	"github.com/kart-io/bookrag/internal/bookrag/store"
	"github.com/kart-io/bookrag/pkg/component/milvus"
	"github.com/kart-io/bookrag/pkg/llm"
	cacheopts "github.com/kart-io/bookrag/pkg/options/cache"
	llmopts "github.com/kart-io/bookrag/pkg/options/llm"
	milvusopts "github.com/kart-io/bookrag/pkg/options/milvus"
	ragopts "github.com/kart-io/bookrag/pkg/options/rag"

	// 导入 LLM 供应商以自动注册
	_ "github.com/kart-io/bookrag/pkg/llm/ollama"
	_ "github.com/kart-io/bookrag/pkg/llm/openai"
)

// shutdownTimeout 优雅停机的最长等待时间。
const shutdownTimeout = 10 * time.Second

// newVectorStore 初始化 Milvus 客户端和 store 层。
func newVectorStore(opts *milvusopts.Options) (store.VectorStore, func(), error) {
	milvusClient, err := milvus.New(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize milvus: %w", err)
	}
	logger.Infow("Milvus client initialized", "address", opts.Address)

	closeFn := func() { _ = milvusClient.Close(context.Background()) }
	return store.NewMilvusStore(milvusClient), closeFn, nil
}

// newQueryCache 初始化 Redis 查询缓存。
// Redis 不可达时降级为无缓存模式，不阻止服务启动。
func newQueryCache(opts *cacheopts.Options) (*biz.QueryCache, func()) {
	if !opts.Enabled {
		logger.Info("Query cache is disabled")
		return nil, nil
	}

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     opts.Redis.Addr,
		Password: opts.Redis.Password,
		DB:       opts.Redis.Database,
	})

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warnw("failed to connect to redis, cache will be disabled", "error", err.Error())
		_ = redisClient.Close()
		return nil, nil
	}

	queryCache := biz.NewQueryCache(redisClient, &biz.QueryCacheConfig{
		Enabled:   true,
		TTL:       opts.TTL,
		KeyPrefix: opts.KeyPrefix,
	})
	logger.Infow("Redis cache initialized", "addr", opts.Redis.Addr, "ttl", opts.TTL)
	return queryCache, func() { _ = redisClient.Close() }
}

// newProviders 初始化嵌入和补全供应商。chatOpts 为 nil 时只创建嵌入供应商。
func newProviders(embedOpts, chatOpts *llmopts.ProviderOptions) (llm.EmbeddingProvider, llm.ChatProvider, error) {
	embedProvider, err := llm.NewEmbeddingProvider(embedOpts.Provider, embedOpts.ToConfigMap())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	logger.Infow("Embedding provider initialized", "provider", embedOpts.Provider, "model", embedOpts.Model)

	if chatOpts == nil {
		return embedProvider, nil, nil
	}

	chatProvider, err := llm.NewChatProvider(chatOpts.Provider, chatOpts.ToConfigMap())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize chat provider: %w", err)
	}
	logger.Infow("Chat provider initialized", "provider", chatOpts.Provider, "model", chatOpts.Model)

	return embedProvider, chatProvider, nil
}

// newServiceConfig 从配置构建 biz 层服务配置。
func newServiceConfig(ragOpts *ragopts.Options, cacheOpts *cacheopts.Options) *biz.ServiceConfig {
	cfg := &biz.ServiceConfig{
		IndexerConfig: &biz.IndexerConfig{
			ChunkSize:      ragOpts.ChunkSize,
			ChunkOverlap:   ragOpts.ChunkOverlap,
			MinChunkLength: ragOpts.MinChunkLength,
			BatchSize:      ragOpts.BatchSize,
			Collection:     ragOpts.Collection,
			EmbeddingDim:   ragOpts.EmbeddingDim,
		},
		RetrieverConfig: &biz.RetrieverConfig{
			TopK:       ragOpts.TopK,
			Collection: ragOpts.Collection,
		},
		GeneratorConfig: &biz.GeneratorConfig{
			SystemPrompt: ragOpts.SystemPrompt,
		},
	}
	if cacheOpts != nil {
		cfg.QueryCacheConfig = &biz.QueryCacheConfig{
			Enabled:   cacheOpts.Enabled,
			TTL:       cacheOpts.TTL,
			KeyPrefix: cacheOpts.KeyPrefix,
		}
	}
	return cfg
}

// Run starts the bookrag HTTP service with the given options.
func Run(opts *Options) error {
	// 1. 初始化日志
	opts.Log.AddInitialField("service.name", appName)
	if err := opts.Log.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting bookrag service...")

	// 2. 初始化 Store 层
	vectorStore, closeMilvus, err := newVectorStore(opts.Milvus)
	if err != nil {
		return err
	}
	defer closeMilvus()

	// 3. 初始化查询缓存
	queryCache, closeRedis := newQueryCache(opts.Cache)
	if closeRedis != nil {
		defer closeRedis()
	}

	// 4. 初始化 LLM 供应商
	embedProvider, chatProvider, err := newProviders(opts.Embedding, opts.Chat)
	if err != nil {
		return err
	}

	// 5. 初始化 Biz 层
	ragService := biz.NewRAGService(vectorStore, embedProvider, chatProvider, queryCache,
		newServiceConfig(opts.RAG, opts.Cache))
	logger.Infow("RAG service initialized",
		"collection", opts.RAG.Collection,
		"cache.enabled", queryCache != nil,
	)

	// 6. 初始化 Handler 层与路由
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	router.Register(engine, handler.NewRAGHandler(ragService))

	// 7. 启动 HTTP 服务器
	srv := &http.Server{
		Addr:         opts.HTTP.Addr,
		Handler:      engine,
		ReadTimeout:  opts.HTTP.ReadTimeout,
		WriteTimeout: opts.HTTP.WriteTimeout,
		IdleTimeout:  opts.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("HTTP server listening", "addr", opts.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case sig := <-quit:
		logger.Infow("Shutting down server...", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}

	logger.Info("Server exited")
	return nil
}
