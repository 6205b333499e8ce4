package bookrag

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kart-io/bookrag/internal/bookrag/biz"
	"github.com/kart-io/bookrag/pkg/app"

	// 导入 LLM 供应商以自动注册
	_ "github.com/kart-io/bookrag/pkg/llm/ollama"
	_ "github.com/kart-io/bookrag/pkg/llm/openai"
)

const searchDescription = `Bookrag Search

Answers a question against the ingested book: the query is embedded,
similar chunks are retrieved from Milvus and an LLM generates the
answer grounded on the retrieved passages. Retrieval can optionally be
restricted to a single chapter with --chapter.`

// NewSearchApp creates the search CLI application.
func NewSearchApp() *app.App {
	opts := NewSearchOptions()

	return app.NewApp(
		app.WithName("bookrag-search"),
		app.WithShortDescription("Query the book knowledge base"),
		app.WithDescription(searchDescription),
		app.WithOptions(opts),
		app.WithArgs(cobra.MinimumNArgs(1)),
		app.WithRunFunc(func(args []string) error {
			return runSearch(opts, strings.Join(args, " "))
		}),
	)
}

// runSearch executes one RAG query and prints citations and answer.
func runSearch(opts *SearchOptions, question string) error {
	if err := opts.Log.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	vectorStore, closeMilvus, err := newVectorStore(opts.Milvus)
	if err != nil {
		return err
	}
	defer closeMilvus()

	embedProvider, chatProvider, err := newProviders(opts.Embedding, opts.Chat)
	if err != nil {
		return err
	}

	ragService := biz.NewRAGService(vectorStore, embedProvider, chatProvider, nil,
		newServiceConfig(opts.RAG, nil))

	result, err := ragService.Query(context.Background(), &biz.QueryRequest{
		Query:         question,
		ChapterFilter: opts.Chapter,
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if len(result.Documents) > 0 {
		fmt.Println("Sources:")
		for _, doc := range result.Documents {
			heading := doc.Heading
			if heading == "" {
				heading = "(no heading)"
			}
			fmt.Printf("  [%s] %s (score: %.3f)\n", doc.Chapter, heading, doc.Score)
		}
		fmt.Println()
	}

	fmt.Println(result.Answer)
	return nil
}
