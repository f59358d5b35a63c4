// Package main is the QueryTube CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/querytube/internal/catalog"
	"github.com/hyperjump/querytube/internal/cli"
	"github.com/hyperjump/querytube/internal/config"
	"github.com/hyperjump/querytube/internal/embedding"
	"github.com/hyperjump/querytube/internal/models"
	"github.com/hyperjump/querytube/internal/search"
	"github.com/hyperjump/querytube/internal/server"
	"github.com/hyperjump/querytube/internal/storage"
	"github.com/hyperjump/querytube/internal/watcher"
	"github.com/hyperjump/querytube/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/querytube/config.yaml"
	defaultServerURL  = "http://localhost:8000"
)

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "status":
		runStatus()
	case "reload":
		runReload()
	case "version", "--version", "-v":
		fmt.Printf("querytube version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid config", zap.Error(err))
	}

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	// A missing or broken catalog leaves the server up but unhealthy; an
	// encoder that cannot match the catalog is a configuration error.
	if err := components.Catalog.Load(context.Background()); errors.Is(err, catalog.ErrDimensions) {
		logger.Fatal("Encoder does not match catalog", zap.Error(err))
	} else if err != nil {
		logger.Error("Initial catalog load failed; serving /health as unavailable", zap.Error(err))
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Catalog.Watch {
		watchOpts := []watcher.WatcherOption{watcher.WithLogger(logger)}
		w := watcher.NewWatcher(cfg.Catalog.Path, func() {
			// Failures are logged by the manager; the previous catalog keeps serving.
			_ = components.Catalog.Load(watchCtx)
		}, watchOpts...)
		if err := w.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer w.Stop()
	}

	srv := server.NewServer(components.Engine, components.Catalog, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: querytube search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  querytube search gradient descent
  querytube search --top-k 10 "attention is all you need"
  querytube search --format json transformers
  querytube search --server "" --config ./config.yaml backprop   # no server, load the catalog locally
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchValueFlags are the search flags that take the next argument as their value.
var searchValueFlags = map[string]bool{"config": true, "server": true, "top-k": true, "format": true}

// searchArgsReorder moves flags (and their values) in front of the query words so
// that flag.Parse() sees them; Go's flag package stops at the first non-flag
// argument. Query words keep their order. Everything after "--" is query.
func searchArgsReorder(args []string) []string {
	flags := make([]string, 0, len(args))
	var words []string
	terminated := false
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			words = append(words, args[i+1:]...)
			terminated = true
			break
		}
		if len(a) < 2 || a[0] != '-' {
			words = append(words, a)
			continue
		}
		flags = append(flags, a)
		name := strings.TrimLeft(a, "-")
		if !strings.Contains(name, "=") && searchValueFlags[name] && i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}
	if terminated {
		flags = append(flags, "--")
	}
	return append(flags, words...)
}

// topKFromFlag turns the --top-k flag into a query value; negative means "server default".
func topKFromFlag(k int) *int {
	if k < 0 {
		return nil
	}
	return &k
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (used when --server is empty)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = load the catalog locally)")
	topK := fs.Int("top-k", -1, "number of results (default: the configured default_top_k)")
	outputFormat := fs.String("format", "text", "output format: text or json")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	query := &models.SearchQuery{Text: queryStr, TopK: topKFromFlag(*topK)}
	ctx := context.Background()

	var response *models.SearchResponse
	if *serverURL != "" {
		response, err = cli.NewClient(*serverURL, nil).Search(ctx, query)
	} else {
		response, err = searchLocally(ctx, *configPath, query)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchLocally(ctx context.Context, configPath string, query *models.SearchQuery) (*models.SearchResponse, error) {
	components, logger, err := loadLocal(ctx, configPath)
	if err != nil {
		return nil, err
	}
	defer logger.Sync()
	defer components.Close()
	return components.Engine.Search(ctx, query)
}

// loadLocal builds the components from config and loads the catalog, for
// commands that run without a server.
func loadLocal(ctx context.Context, configPath string) (*Components, *zap.Logger, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := components.Catalog.Load(ctx); err != nil {
		components.Close()
		return nil, nil, err
	}
	return components, logger, nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (used when --server is empty)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = load the catalog locally)")
	outputFormat := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctx := context.Background()

	var status *cli.Status
	if *serverURL != "" {
		status, err = cli.NewClient(*serverURL, nil).Status(ctx)
	} else {
		status, err = statusLocally(ctx, *configPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func statusLocally(ctx context.Context, configPath string) (*cli.Status, error) {
	components, logger, err := loadLocal(ctx, configPath)
	if err != nil {
		return nil, err
	}
	defer logger.Sync()
	defer components.Close()
	return localStatus(components), nil
}

func localStatus(c *Components) *cli.Status {
	store := c.Catalog.Current()
	status := &cli.Status{
		Ready:             store.IsReady(),
		CatalogVersion:    store.Version(),
		Rows:              store.Size(),
		Dimensions:        store.Dimensions(),
		EncoderDimensions: c.Embedder.Dimensions(),
	}
	if store.IsReady() {
		loadedAt := store.LoadedAt()
		status.LoadedAt = &loadedAt
	}
	if info, err := storage.StatSource(c.Catalog.Source()); err == nil && info != nil {
		status.Source = &cli.SourceInfo{Path: info.Path, SizeBytes: info.SizeBytes, ModTime: info.ModTime}
		status.DiskUsageBytes = info.SizeBytes
	}
	if err := c.Catalog.LastError(); err != nil {
		status.LastError = err.Error()
	}
	return status
}

func runReload() {
	fs := flag.NewFlagSet("reload", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	_ = fs.Parse(os.Args[2:])
	if *serverURL == "" {
		fmt.Fprintln(os.Stderr, "reload needs a running server (--server)")
		os.Exit(1)
	}
	result, err := cli.NewClient(*serverURL, nil).Reload(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Reload failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Reloaded catalog %s: %d rows, %d dimensions\n", result.CatalogVersion, result.Rows, result.Dimensions)
}

// Components holds initialized services.
type Components struct {
	Catalog  *catalog.Manager
	Embedder embedding.Embedder
	Engine   *search.Engine
}

func (c *Components) Close() {
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	src, err := storage.NewSource(cfg.Catalog.Format, cfg.Catalog.Path, storage.Options{
		Table: cfg.Catalog.Table,
		Sheet: cfg.Catalog.Sheet,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize catalog source: %w", err)
	}
	embedder, err := embedding.New(cfg.Embedding, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	manager := catalog.NewManager(src, columnsFromConfig(cfg.Catalog), logger,
		catalog.WithDimensions(embedder.Dimensions()))

	engine := search.NewEngine(manager, embedder, &cfg.Search, logger)
	return &Components{
		Catalog:  manager,
		Embedder: embedder,
		Engine:   engine,
	}, nil
}

func columnsFromConfig(c config.CatalogConfig) catalog.Columns {
	cols := catalog.DefaultColumns()
	if c.EmbeddingPrefix != "" {
		cols.EmbeddingPrefix = c.EmbeddingPrefix
	}
	if c.IDColumn != "" {
		cols.ID = c.IDColumn
	}
	if c.TitleColumn != "" {
		cols.Title = c.TitleColumn
	}
	if c.PublishedAtColumn != "" {
		cols.PublishedAt = c.PublishedAtColumn
	}
	if c.TranscriptColumn != "" {
		cols.Transcript = c.TranscriptColumn
	}
	return cols
}

func printUsage() {
	fmt.Println(`querytube - semantic search over video transcripts

Usage:
  querytube server [flags]           Start the HTTP server
  querytube search [flags] <query>   Search the catalog
  querytube status [flags]           Show catalog and encoder status
  querytube reload [flags]           Reload the catalog on a running server
  querytube version                  Show version
  querytube help                     Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/querytube/config.yaml)
  --debug            Enable debug logging

Search Flags:
  --config string    Config file path (when --server is empty)
  --server string    Server URL (default: http://localhost:8000). Use --server "" to load the catalog locally.
  --top-k int        Number of results (default from config, 5)
  --format string    Output format: text or json (default: text)

Status Flags:
  --config string    Config file path (when --server is empty)
  --server string    Server URL (default: http://localhost:8000)
  --format string    Output format: text or json (default: text)

Reload Flags:
  --server string    Server URL (default: http://localhost:8000)

Examples:
  querytube server
  querytube search "how do transformers work"
  querytube search --top-k 10 --format json backpropagation
  querytube status
  querytube reload`)
}
