package bookrag

import (
	"github.com/kart-io/bookrag/pkg/app"
)

const (
	appName        = "bookrag"
	appDescription = `Bookrag Service

A RAG (Retrieval-Augmented Generation) knowledge base service for
chapter-structured markdown books.

This server provides:
  - Incremental markdown ingestion with vector embeddings
  - Chapter-aware semantic similarity search
  - RAG-based question answering with LLM`
)

// NewApp creates the bookrag server application.
func NewApp() *app.App {
	opts := NewOptions()

	return app.NewApp(
		app.WithName(appName),
		app.WithShortDescription("Book knowledge base RAG service"),
		app.WithDescription(appDescription),
		app.WithOptions(opts),
		app.WithRunFunc(func(args []string) error {
			return Run(opts)
		}),
	)
}
