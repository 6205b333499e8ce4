package bookrag

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kart-io/bookrag/internal/bookrag/biz"
	"github.com/kart-io/bookrag/pkg/app"

	// 导入 LLM 供应商以自动注册
	_ "github.com/kart-io/bookrag/pkg/llm/ollama"
	_ "github.com/kart-io/bookrag/pkg/llm/openai"
)

const ingestDescription = `Bookrag Ingest

Splits a chapter-structured markdown book into chunks, embeds them and
stores the vectors in Milvus. Ingestion is incremental: chunks already
stored for the same source file are skipped, so an interrupted run can
be resumed by running the command again.`

// NewIngestApp creates the ingestion CLI application.
func NewIngestApp() *app.App {
	opts := NewIngestOptions()

	return app.NewApp(
		app.WithName("bookrag-ingest"),
		app.WithShortDescription("Ingest markdown books into the knowledge base"),
		app.WithDescription(ingestDescription),
		app.WithOptions(opts),
		app.WithArgs(cobra.MinimumNArgs(1)),
		app.WithRunFunc(func(args []string) error {
			return runIngest(opts, args)
		}),
	)
}

// runIngest ingests each markdown file given on the command line.
func runIngest(opts *IngestOptions, paths []string) error {
	if err := opts.Log.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	vectorStore, closeMilvus, err := newVectorStore(opts.Milvus)
	if err != nil {
		return err
	}
	defer closeMilvus()

	embedProvider, _, err := newProviders(opts.Embedding, nil)
	if err != nil {
		return err
	}

	batcher := biz.NewBatcher(embedProvider, &biz.BatcherConfig{
		BatchSize:    opts.RAG.BatchSize,
		EmbeddingDim: opts.RAG.EmbeddingDim,
	})
	indexer := biz.NewIndexer(vectorStore, batcher, &biz.IndexerConfig{
		ChunkSize:      opts.RAG.ChunkSize,
		ChunkOverlap:   opts.RAG.ChunkOverlap,
		MinChunkLength: opts.RAG.MinChunkLength,
		BatchSize:      opts.RAG.BatchSize,
		Collection:     opts.RAG.Collection,
		EmbeddingDim:   opts.RAG.EmbeddingDim,
	})

	ctx := context.Background()
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			fmt.Printf("File not found: %s\n", path)
			continue
		}

		fmt.Printf("Ingesting %s into collection %q...\n", path, opts.RAG.Collection)
		result, err := indexer.IndexFile(ctx, path)
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}

		fmt.Printf("Done: %d chunks (%d filtered out), %d already stored, %d new\n",
			result.TotalChunks, result.Filtered, result.Existing, result.New)
		if result.New > 0 {
			fmt.Printf("Saved %d chunks in %.1fs", result.Saved, result.ElapsedSeconds)
			if result.Skipped > 0 {
				fmt.Printf(" (%d skipped after embedding failures)", result.Skipped)
			}
			fmt.Println()
		}
		fmt.Printf("Collection now holds %d rows\n", result.RowCount)
	}

	return nil
}
