package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/catalogcrawl/internal/config"
	"github.com/IshaanNene/catalogcrawl/internal/engine"
	"github.com/IshaanNene/catalogcrawl/internal/fetcher"
	"github.com/IshaanNene/catalogcrawl/internal/observability"
	"github.com/IshaanNene/catalogcrawl/internal/storage"
)

var (
	cfgFile     string
	verbose     bool
	debugMode   bool
	concurrency int
	maxPages    int
	outputDir   string
	outputType  string
	fetcherType string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "catalogcrawl",
		Short: "Crawl a university course catalog into JSON",
		Long: `catalogcrawl harvests a course catalog: every course from the paginated
course listing and every program from the program directory, each with the
fields read from its detail page. Results are written as courses and
majors collections.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(crawlCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// crawlCmd creates the "crawl" subcommand.
func crawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl courses and programs",
		Long:  "Fetch every listing page and the program directory, then write the course and program collections.",
		Args:  cobra.NoArgs,
		RunE:  runCrawl,
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "fetch only one listing page, one course and one program")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "n", 0, "maximum concurrent top-level fetches (default from config)")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "maximum listing pages to crawl (default from config)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory")
	cmd.Flags().StringVarP(&outputType, "format", "f", "", "storage backends: json, jsonl, csv, mongodb (comma-separated)")
	cmd.Flags().StringVar(&fetcherType, "fetcher", "", "fetcher: http or browser")

	return cmd
}

// runCrawl executes the crawl command.
func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyCLIOverrides(cfg)

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics(logger)
	if cfg.Metrics.Enabled {
		metrics.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path)
	}

	f, err := fetcher.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	defer f.Close()

	store, err := storage.New(cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("close storage", "error", err)
		}
	}()

	runner, err := engine.NewRunner(cfg, f, store, metrics, logger)
	if err != nil {
		return err
	}

	logger.Info("starting crawl",
		"listing", cfg.Catalog.ListingURL(1),
		"directory", cfg.Catalog.ProgramDirectoryURL,
		"concurrency", cfg.Crawl.Concurrency,
		"max_pages", cfg.Crawl.MaxPages,
		"debug", cfg.Crawl.Debug,
		"storage", store.Name(),
	)

	sum, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	stats := metrics.Snapshot()
	fmt.Printf("\nCrawl complete in %s\n", sum.Duration.Round(time.Millisecond))
	fmt.Printf("   Courses:   %d (%d partial)\n", sum.Courses, sum.CoursesPartial)
	fmt.Printf("   Programs:  %d (%d partial)\n", sum.Programs, sum.ProgramsPartial)
	fmt.Printf("   Pages:     %d fetched, %d skipped\n", stats["pages_fetched"], stats["pages_skipped"])
	fmt.Printf("   Requests:  %d sent, %d failed\n", stats["requests_total"], stats["requests_failed"])
	fmt.Printf("   Output:    %s (%s)\n", cfg.Storage.OutputDir, cfg.Storage.Type)

	if seedErr := sum.SeedErr(); seedErr != nil {
		fmt.Printf("\nSome collections are empty because their first page was unavailable:\n   %v\n", seedErr)
	}
	return nil
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("catalogcrawl %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			crawl := cfg.Crawl.Effective()

			fmt.Printf("Catalog:\n")
			fmt.Printf("  Base URL:          %s\n", cfg.Catalog.BaseURL)
			fmt.Printf("  Listing (page 1):  %s\n", cfg.Catalog.ListingURL(1))
			fmt.Printf("  Program Directory: %s\n", cfg.Catalog.ProgramDirectoryURL)
			fmt.Printf("\nCrawl:\n")
			fmt.Printf("  Concurrency:       %d\n", crawl.Concurrency)
			fmt.Printf("  Max Pages:         %d\n", crawl.MaxPages)
			fmt.Printf("  Items Per Page:    %s\n", limitString(crawl.MaxItemsPerPage))
			fmt.Printf("  Max Programs:      %s\n", limitString(crawl.MaxPrograms))
			fmt.Printf("  Debug:             %v\n", crawl.Debug)
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Type:              %s\n", cfg.Fetcher.Type)
			fmt.Printf("  Request Timeout:   %s\n", timeoutString(cfg))
			fmt.Printf("  Max Body Size:     %d bytes\n", cfg.Fetcher.MaxBodySize)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Type:              %s\n", cfg.Storage.Type)
			fmt.Printf("  Output Dir:        %s\n", cfg.Storage.OutputDir)
			fmt.Printf("  Files:             %s, %s\n", cfg.Storage.CoursesFile, cfg.Storage.ProgramsFile)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:              %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}

func limitString(n int) string {
	if n <= 0 {
		return "all"
	}
	return fmt.Sprint(n)
}

func timeoutString(cfg *config.Config) string {
	if cfg.Fetcher.RequestTimeout <= 0 {
		return "none"
	}
	return cfg.Fetcher.RequestTimeout.String()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// setupLogger creates a structured logger.
func setupLogger(lc config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.EqualFold(lc.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if debugMode {
		cfg.Crawl.Debug = true
	}
	if concurrency > 0 {
		cfg.Crawl.Concurrency = concurrency
	}
	if maxPages > 0 {
		cfg.Crawl.MaxPages = maxPages
	}
	if outputDir != "" {
		cfg.Storage.OutputDir = outputDir
	}
	if outputType != "" {
		cfg.Storage.Type = strings.ToLower(outputType)
	}
	if fetcherType != "" {
		cfg.Fetcher.Type = strings.ToLower(fetcherType)
	}
}
