package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/docdex"
	"github.com/fwojciec/docdex/fs"
	"github.com/fwojciec/docdex/gemini"
	"github.com/fwojciec/docdex/github"
	"github.com/fwojciec/docdex/index"
	"github.com/fwojciec/docdex/lru"
	"github.com/fwojciec/docdex/openai"
	"github.com/fwojciec/docdex/retry"
	docdexslog "github.com/fwojciec/docdex/slog"
	"github.com/fwojciec/docdex/sqlite"
	"github.com/joho/godotenv"
	"google.golang.org/genai"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// SQLite database used by the persistent index store.
	DB *sqlite.DB
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// API keys are commonly kept in a local .env file.
	_ = godotenv.Load()

	// Initialize dependencies struct for Kong binding
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	// Create Kong parser with dependency binding
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("docdex"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	// Handle help flags using Kong
	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'docdex --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	// Parse arguments first to know which command and its flags
	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cli.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	deps.Logger = logger

	// Open database
	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set DOCDEX_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	defer m.Close()

	store := sqlite.NewIndexStore(m.DB)

	// Wire the document source. The GitHub source is the default; --local
	// reads markdown from a directory instead.
	var source docdex.Source
	if cli.Local != "" {
		source = fs.NewSource(cli.Local)
	} else {
		owner, repo, err := splitRepo(cli.Repo)
		if err != nil {
			return err
		}
		ghOpts := []github.Option{
			github.WithRef(cli.Ref),
			github.WithCache(lru.New[string](lru.DefaultMaxBytes, lru.DefaultTTL)),
		}
		if token := os.Getenv("GITHUB_TOKEN"); token != "" {
			ghOpts = append(ghOpts, github.WithToken(token))
		}
		gh := github.NewSource(owner, repo, cli.DocsPath, ghOpts...)
		source = gh
		deps.Concepts = gh
	}
	deps.Source = docdexslog.NewSource(source, logger)

	// The index and search commands call the embedding API; status and
	// docs only read local state. The command comes from the parsed
	// context so that root flags before the command name don't hide it.
	command, _, _ := strings.Cut(kongCtx.Command(), " ")
	needsEmbedder := command == "index" || command == "search"

	var embedder docdex.Embedder
	if needsEmbedder {
		embedder, err = newEmbedder(ctx, cli.Embedder, stderr)
		if err != nil {
			return err
		}
		embedder = retry.NewEmbedder(embedder, retry.WithLogger(logger))
		embedder = docdexslog.NewEmbedder(embedder, logger)
	}

	deps.Builder = &index.Builder{
		Source:   deps.Source,
		Embedder: embedder,
		Store:    store,
		Logger:   logger,
	}
	deps.Engine = &index.Engine{
		Embedder:   embedder,
		Tables:     deps.Builder,
		QueryCache: lru.New[[]float32](lru.DefaultMaxBytes, lru.DefaultTTL),
	}

	return kongCtx.Run(deps)
}

// newEmbedder constructs the embedding provider selected by the --embedder
// flag, reading its API key from the environment.
func newEmbedder(ctx context.Context, provider string, stderr io.Writer) (docdex.Embedder, error) {
	switch provider {
	case "gemini":
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			fmt.Fprintln(stderr, "GEMINI_API_KEY environment variable not set. Get an API key at https://aistudio.google.com/apikey")
			return nil, fmt.Errorf("GEMINI_API_KEY not set")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Check your GEMINI_API_KEY is valid")
			return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
		}
		return gemini.NewEmbedder(client), nil
	default:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			fmt.Fprintln(stderr, "OPENAI_API_KEY environment variable not set. Get an API key at https://platform.openai.com/api-keys")
			return nil, fmt.Errorf("OPENAI_API_KEY not set")
		}
		return openai.NewEmbedder(apiKey), nil
	}
}

func splitRepo(repo string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return "", "", fmt.Errorf("invalid repository %q: expected owner/name", repo)
	}
	return owner, name, nil
}

func defaultDBPath() string {
	if path := os.Getenv("DOCDEX_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "docdex.db"
	}
	dir := filepath.Join(home, ".docdex")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "docdex.db")
}
