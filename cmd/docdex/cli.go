package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/docdex"
	"github.com/fwojciec/docdex/index"
)

// ConceptLister discovers concept documents by name. Implemented by the
// GitHub source.
type ConceptLister interface {
	ListConcepts(ctx context.Context) (map[string]string, error)
}

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *slog.Logger
	Source   docdex.Source
	Concepts ConceptLister
	Builder  *index.Builder
	Engine   *index.Engine
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Index    IndexCmd    `cmd:"" help:"Build or refresh the search index"`
	Search   SearchCmd   `cmd:"" help:"Search the documentation by semantic similarity"`
	Status   StatusCmd   `cmd:"" help:"Show the index status"`
	Docs     DocsCmd     `cmd:"" help:"List documents in the corpus"`
	Concepts ConceptsCmd `cmd:"" help:"List discovered concept documents"`

	// Corpus selection, shared by commands that touch the source.
	Local    string `help:"Read the corpus from a local directory instead of GitHub" type:"path"`
	Repo     string `default:"crewAIInc/crewAI" help:"GitHub repository (owner/name)"`
	DocsPath string `default:"docs/en" help:"Documentation path within the repository"`
	Ref      string `default:"main" help:"Git ref to read from"`

	Embedder string `default:"openai" enum:"openai,gemini" help:"Embedding provider"`
	Debug    bool   `help:"Enable debug logging"`
}

// IndexCmd is the "index" subcommand.
type IndexCmd struct {
	Force bool `short:"f" help:"Rebuild even if the index is fresh"`
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Query    string `arg:"" help:"Natural language query"`
	Category string `short:"c" help:"Restrict results to one category"`
	Limit    int    `short:"n" default:"10" help:"Maximum number of results"`
	JSON     bool   `help:"Emit the raw response as JSON"`
}

// StatusCmd is the "status" subcommand.
type StatusCmd struct{}

// DocsCmd is the "docs" subcommand.
type DocsCmd struct{}

// ConceptsCmd is the "concepts" subcommand.
type ConceptsCmd struct{}
