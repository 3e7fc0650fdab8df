// sense indexes files by what they mean and finds them by description.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/senselabs/sense/builtin"
	"github.com/senselabs/sense/internal/bot"
	"github.com/senselabs/sense/internal/config"
	"github.com/senselabs/sense/internal/index"
	"github.com/senselabs/sense/internal/mcp"
	"github.com/senselabs/sense/internal/search"
	"github.com/senselabs/sense/internal/store"
	"github.com/senselabs/sense/internal/telegram"
	"github.com/senselabs/sense/pkg/provider"
)

var (
	version   = "0.1.0"
	logLevel  string
	logFormat string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sense",
	Short: "Semantic file search by label similarity",
	Long: `sense indexes the files under a directory by user-supplied labels,
embeds the labels with an embedding model and finds files again by
describing them.

It supports:
- OpenAI-compatible embedding APIs and external provider plugins
- Incremental reindexing based on content hashes
- A Telegram bot with inline sticker search
- An MCP server exposing the index to agent tooling`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sense %s\n", version)
		fmt.Printf("Go version: %s\n", runtime.Version())
		fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index files under a directory",
	Long:  `Reconcile the index with the file tree. If no path is provided, indexes the current directory.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := "."
		if len(args) > 0 {
			path = args[0]
		}
		labelMode, _ := cmd.Flags().GetString("labels")
		runIndex(path, labelMode)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed files",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		runSearch(args[0], limit)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index status",
	Run: func(cmd *cobra.Command, args []string) {
		runStatus()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP server",
	Run: func(cmd *cobra.Command, args []string) {
		stdio, _ := cmd.Flags().GetBool("stdio")
		runServe(stdio)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Watch for file changes and re-index automatically",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := "."
		if len(args) > 0 {
			path = args[0]
		}
		debounce, _ := cmd.Flags().GetInt("debounce")
		runWatch(path, debounce)
	},
}

var tgCmd = &cobra.Command{
	Use:   "tg",
	Short: "Run the Telegram bot",
	Long:  `Run the Telegram bot: answers /help and /search messages and serves inline sticker queries from registered files.`,
	Run: func(cmd *cobra.Command, args []string) {
		register, _ := cmd.Flags().GetBool("register")
		runTelegram(register)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration",
	Run: func(cmd *cobra.Command, args []string) {
		runConfigInit()
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Run: func(cmd *cobra.Command, args []string) {
		runConfigValidate()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	indexCmd.Flags().String("labels", "", "label mode (prompt, auto, none); overrides config")

	searchCmd.Flags().IntP("limit", "l", 10, "maximum results")

	serveCmd.Flags().Bool("stdio", false, "use stdio transport (for MCP)")

	watchCmd.Flags().Int("debounce", 500, "debounce time in milliseconds")

	tgCmd.Flags().Bool("register", false, "register unuploaded files before serving")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(tgCmd)
	rootCmd.AddCommand(configCmd)
}

func setupLogging() {
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if logFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// loadConfig loads the configuration for root, printing warnings.
func loadConfig(root string) *config.Config {
	cfg, warnings, err := config.Load(root)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	for _, w := range warnings {
		slog.Warn(w)
	}
	return cfg
}

// openEnv opens the store and embedding provider for root. The returned
// cleanup closes both.
func openEnv(root string, readOnly bool) (*config.Config, *store.Store, provider.Embedder, func()) {
	cfg := loadConfig(root)

	st, err := store.Open(config.IndexDBPath(root), readOnly)
	if err != nil {
		slog.Error("failed to open index", "error", err)
		os.Exit(1)
	}

	embedder, cleanup, err := builtin.NewEmbedder(builtin.EmbedderConfig{
		Provider:   cfg.API.Provider,
		Model:      cfg.API.Model,
		APIKey:     cfg.API.Key,
		Endpoint:   cfg.API.Endpoint,
		PluginPath: cfg.API.PluginPath,
	})
	if err != nil {
		st.Close()
		slog.Error("failed to create embedding provider", "error", err)
		os.Exit(1)
	}

	return cfg, st, embedder, func() {
		cleanup()
		st.Close()
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runIndex(root, labelMode string) {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, st, embedder, cleanup := openEnv(root, false)
	defer cleanup()

	if labelMode == "" {
		labelMode = cfg.Index.LabelMode
	}
	labeler := index.NewLabeler(labelMode, os.Stdin, os.Stdout)

	fmt.Println("Indexing files...")
	start := time.Now()

	idx := index.New(index.Config{
		Root:     root,
		Store:    st,
		Embedder: embedder,
		Labeler:  labeler,
	})
	summary, err := idx.Index(ctx)
	if err != nil {
		slog.Error("indexing failed", "error", err)
		os.Exit(1)
	}

	if summary.New == 0 && summary.Changed == 0 && summary.Deleted == 0 {
		fmt.Println("No changes detected.")
		return
	}
	fmt.Printf("Indexing complete! %d new, %d changed, %d deleted in %s.\n",
		summary.New, summary.Changed, summary.Deleted, time.Since(start).Round(time.Millisecond))
	if summary.Unlabeled > 0 {
		fmt.Printf("%d files are unlabeled and will not show up in searches. Re-run with --labels prompt to label them.\n",
			summary.Unlabeled)
	}
}

func runSearch(query string, limit int) {
	if query == "" {
		fmt.Fprintln(os.Stderr, "empty query")
		os.Exit(1)
	}

	ctx, cancel := signalContext()
	defer cancel()

	_, st, embedder, cleanup := openEnv(".", true)
	defer cleanup()

	matches, err := search.New(st, embedder).Search(ctx, query, limit)
	if err != nil {
		slog.Error("search failed", "error", err)
		os.Exit(1)
	}

	if len(matches) == 0 {
		fmt.Println("No results found.")
		return
	}
	for _, m := range matches {
		fmt.Printf("%.2f%%: %s\n", m.Score*100, m.Key)
	}
}

func runStatus() {
	_, st, _, cleanup := openEnv(".", true)
	defer cleanup()

	total, unlabeled, err := st.Count()
	if err != nil {
		slog.Error("failed to read index", "error", err)
		os.Exit(1)
	}
	unregistered, err := st.PathsWithoutFileID()
	if err != nil {
		slog.Error("failed to read index", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Indexed files: %d\n", total)
	fmt.Printf("Unlabeled:     %d\n", unlabeled)
	fmt.Printf("Unregistered:  %d\n", len(unregistered))
}

func runServe(stdio bool) {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, st, embedder, cleanup := openEnv(".", false)
	defer cleanup()

	searcher := search.New(st, embedder)
	idx := index.New(index.Config{
		Root:     ".",
		Store:    st,
		Embedder: embedder,
		Labeler:  index.NewLabeler("auto", os.Stdin, os.Stdout),
	})

	srv := mcp.New(mcp.Config{
		Root:     ".",
		Store:    st,
		Searcher: searcher,
		Indexer:  idx,
	})

	if !stdio {
		fmt.Printf("HTTP transport not implemented yet (configured port %d). Use --stdio for MCP.\n", cfg.Server.Port)
		os.Exit(1)
	}

	slog.Info("MCP server running (press Ctrl+C to stop)")
	if err := srv.ServeStdio(); err != nil {
		if ctx.Err() != nil {
			slog.Info("server stopped")
			return
		}
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func runWatch(root string, debounceMs int) {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, st, embedder, cleanup := openEnv(root, false)
	defer cleanup()

	// Watch mode cannot prompt; fall back to automatic labels.
	labelMode := cfg.Index.LabelMode
	if labelMode == "prompt" {
		labelMode = "auto"
	}

	idx := index.New(index.Config{
		Root:     root,
		Store:    st,
		Embedder: embedder,
		Labeler:  index.NewLabeler(labelMode, os.Stdin, os.Stdout),
	})

	// Catch up before watching.
	if _, err := idx.Index(ctx); err != nil {
		slog.Error("initial index pass failed", "error", err)
		os.Exit(1)
	}

	w, err := index.NewWatcher(index.WatcherConfig{
		Indexer:      idx,
		DebounceTime: time.Duration(debounceMs) * time.Millisecond,
	})
	if err != nil {
		slog.Error("failed to create watcher", "error", err)
		os.Exit(1)
	}

	if err := w.Watch(ctx); err != nil {
		slog.Error("watcher failed", "error", err)
		os.Exit(1)
	}
}

func runTelegram(register bool) {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, st, embedder, cleanup := openEnv(".", false)
	defer cleanup()

	searcher := search.New(st, embedder)
	tg, err := telegram.New(&cfg.Bot, searcher)
	if err != nil {
		slog.Error("failed to start bot", "error", err)
		os.Exit(1)
	}

	if register {
		n, err := bot.Backfill(ctx, st, tg.NewUploader("."))
		if err != nil {
			slog.Error("registration failed", "registered", n, "error", err)
			os.Exit(1)
		}
	}

	if err := tg.Run(ctx); err != nil {
		slog.Error("bot stopped with error", "error", err)
		os.Exit(1)
	}
}

func runConfigInit() {
	path := config.ConfigPath(".")
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config already exists at %s\n", path)
		return
	}

	if err := config.Save(".", config.DefaultConfig()); err != nil {
		slog.Error("failed to write config", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Created %s\n", path)
}

func runConfigValidate() {
	cfg := loadConfig(".")

	errs := config.Validate(cfg)
	if len(errs) == 0 {
		fmt.Println("Configuration is valid.")
		return
	}
	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "  - %v\n", err)
	}
	os.Exit(1)
}
