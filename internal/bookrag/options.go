// Package bookrag provides the book knowledge base service application.
package bookrag

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/bookrag/pkg/app"
	cacheopts "github.com/kart-io/bookrag/pkg/options/cache"
	llmopts "github.com/kart-io/bookrag/pkg/options/llm"
	logopts "github.com/kart-io/bookrag/pkg/options/logger"
	milvusopts "github.com/kart-io/bookrag/pkg/options/milvus"
	ragopts "github.com/kart-io/bookrag/pkg/options/rag"
	httpopts "github.com/kart-io/bookrag/pkg/options/server/http"
)

var _ app.CliOptions = (*Options)(nil)

// Options contains all bookrag service options.
type Options struct {
	// HTTP contains HTTP server configuration.
	HTTP *httpopts.Options `json:"http" mapstructure:"http"`

	// Log contains logger configuration.
	Log *logopts.Options `json:"log" mapstructure:"log"`

	// Milvus contains Milvus client configuration.
	Milvus *milvusopts.Options `json:"milvus" mapstructure:"milvus"`

	// Embedding contains embedding provider configuration.
	Embedding *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`

	// Chat contains chat provider configuration.
	Chat *llmopts.ProviderOptions `json:"chat" mapstructure:"chat"`

	// RAG contains pipeline configuration.
	RAG *ragopts.Options `json:"rag" mapstructure:"rag"`

	// Cache contains query cache configuration.
	Cache *cacheopts.Options `json:"cache" mapstructure:"cache"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		HTTP:      httpopts.NewOptions(),
		Log:       logopts.NewOptions(),
		Milvus:    milvusopts.NewOptions(),
		Embedding: llmopts.NewEmbeddingOptions(),
		Chat:      llmopts.NewChatOptions(),
		RAG:       ragopts.NewOptions(),
		Cache:     cacheopts.NewOptions(),
	}
}

// AddFlags adds all service flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	o.HTTP.AddFlags(fs)
	o.Log.AddFlags(fs)
	o.Milvus.AddFlags(fs)
	o.Embedding.AddFlags(fs, "embedding")
	o.Chat.AddFlags(fs, "chat")
	o.RAG.AddFlags(fs)
	o.Cache.AddFlags(fs)
}

// Validate validates all options.
func (o *Options) Validate() error {
	var errs []error
	errs = append(errs, o.HTTP.Validate()...)
	errs = append(errs, o.Milvus.Validate()...)
	errs = append(errs, o.Embedding.Validate()...)
	errs = append(errs, o.Chat.Validate()...)
	errs = append(errs, o.RAG.Validate()...)
	errs = append(errs, o.Cache.Validate()...)
	if err := o.Log.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %v", errs)
}

// Complete completes the options.
func (o *Options) Complete() error {
	if err := o.RAG.Complete(); err != nil {
		return err
	}
	return o.Cache.Complete()
}

// IngestOptions contains options for the ingestion CLI.
// It reuses the service configuration minus the HTTP server.
type IngestOptions struct {
	Log       *logopts.Options         `json:"log" mapstructure:"log"`
	Milvus    *milvusopts.Options      `json:"milvus" mapstructure:"milvus"`
	Embedding *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`
	RAG       *ragopts.Options         `json:"rag" mapstructure:"rag"`
}

// NewIngestOptions creates new IngestOptions with defaults.
func NewIngestOptions() *IngestOptions {
	return &IngestOptions{
		Log:       logopts.NewOptions(),
		Milvus:    milvusopts.NewOptions(),
		Embedding: llmopts.NewEmbeddingOptions(),
		RAG:       ragopts.NewOptions(),
	}
}

// AddFlags adds ingestion flags to the flagset.
func (o *IngestOptions) AddFlags(fs *pflag.FlagSet) {
	o.Log.AddFlags(fs)
	o.Milvus.AddFlags(fs)
	o.Embedding.AddFlags(fs, "embedding")
	o.RAG.AddFlags(fs)
}

// Validate validates the ingestion options.
func (o *IngestOptions) Validate() error {
	var errs []error
	errs = append(errs, o.Milvus.Validate()...)
	errs = append(errs, o.Embedding.Validate()...)
	errs = append(errs, o.RAG.Validate()...)
	if err := o.Log.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %v", errs)
}

// Complete completes the ingestion options.
func (o *IngestOptions) Complete() error {
	return o.RAG.Complete()
}

// SearchOptions contains options for the search CLI.
type SearchOptions struct {
	Log       *logopts.Options         `json:"log" mapstructure:"log"`
	Milvus    *milvusopts.Options      `json:"milvus" mapstructure:"milvus"`
	Embedding *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`
	Chat      *llmopts.ProviderOptions `json:"chat" mapstructure:"chat"`
	RAG       *ragopts.Options         `json:"rag" mapstructure:"rag"`

	// Chapter 可选的章节过滤标签，例如 "Chapter 5"。
	Chapter string `json:"chapter" mapstructure:"chapter"`
}

// NewSearchOptions creates new SearchOptions with defaults.
func NewSearchOptions() *SearchOptions {
	return &SearchOptions{
		Log:       logopts.NewOptions(),
		Milvus:    milvusopts.NewOptions(),
		Embedding: llmopts.NewEmbeddingOptions(),
		Chat:      llmopts.NewChatOptions(),
		RAG:       ragopts.NewOptions(),
	}
}

// AddFlags adds search flags to the flagset.
func (o *SearchOptions) AddFlags(fs *pflag.FlagSet) {
	o.Log.AddFlags(fs)
	o.Milvus.AddFlags(fs)
	o.Embedding.AddFlags(fs, "embedding")
	o.Chat.AddFlags(fs, "chat")
	o.RAG.AddFlags(fs)
	fs.StringVar(&o.Chapter, "chapter", o.Chapter, "Restrict retrieval to a chapter label, e.g. \"Chapter 5\".")
}

// Validate validates the search options.
func (o *SearchOptions) Validate() error {
	var errs []error
	errs = append(errs, o.Milvus.Validate()...)
	errs = append(errs, o.Embedding.Validate()...)
	errs = append(errs, o.Chat.Validate()...)
	errs = append(errs, o.RAG.Validate()...)
	if err := o.Log.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %v", errs)
}

// Complete completes the search options.
func (o *SearchOptions) Complete() error {
	return o.RAG.Complete()
}
