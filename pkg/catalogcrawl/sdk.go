// Package catalogcrawl provides a public SDK for embedding the catalog
// crawler as a library.
//
// Example usage:
//
//	crawler := catalogcrawl.NewCrawler(
//	    catalogcrawl.WithConcurrency(5),
//	    catalogcrawl.WithDebug(),
//	    catalogcrawl.WithOutput("json", "./output"),
//	)
//
//	result, err := crawler.Crawl(ctx)
//	for _, c := range result.Courses {
//	    fmt.Println(c.Code, c.Title)
//	}
package catalogcrawl

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/IshaanNene/catalogcrawl/internal/config"
	"github.com/IshaanNene/catalogcrawl/internal/engine"
	"github.com/IshaanNene/catalogcrawl/internal/fetcher"
	"github.com/IshaanNene/catalogcrawl/internal/observability"
	"github.com/IshaanNene/catalogcrawl/internal/storage"
	"github.com/IshaanNene/catalogcrawl/internal/types"
)

// Course and Program are the records a crawl produces.
type (
	Course  = types.CourseRecord
	Program = types.ProgramRecord
)

// Result holds everything one crawl produced.
type Result struct {
	Courses  []Course
	Programs []Program
	Summary  *engine.Summary
	Stats    map[string]int64
}

// Crawler is the high-level API for using catalogcrawl as a library.
type Crawler struct {
	cfg    *config.Config
	logger *slog.Logger
}

// Option configures a Crawler.
type Option func(*config.Config)

// WithCatalog points the crawler at another catalog. listingURL must
// contain the "{page}" placeholder.
func WithCatalog(baseURL, listingURL, directoryURL string) Option {
	return func(c *config.Config) {
		c.Catalog.BaseURL = baseURL
		c.Catalog.CourseListingURL = listingURL
		c.Catalog.ProgramDirectoryURL = directoryURL
	}
}

// WithConcurrency sets the number of concurrent top-level fetches.
func WithConcurrency(n int) Option {
	return func(c *config.Config) { c.Crawl.Concurrency = n }
}

// WithMaxPages caps the number of listing pages.
func WithMaxPages(n int) Option {
	return func(c *config.Config) { c.Crawl.MaxPages = n }
}

// WithDebug limits the crawl to one page, one course and one program.
func WithDebug() Option {
	return func(c *config.Config) { c.Crawl.Debug = true }
}

// WithOutput also writes the collections with the given storage backends
// (comma-separated) under dir.
func WithOutput(format, dir string) Option {
	return func(c *config.Config) {
		c.Storage.Type = format
		c.Storage.OutputDir = dir
	}
}

// WithUserAgent sets a custom User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *config.Config) { c.Fetcher.UserAgent = ua }
}

// WithBrowser fetches pages with a headless browser instead of plain HTTP.
func WithBrowser(stealth bool) Option {
	return func(c *config.Config) {
		c.Fetcher.Type = "browser"
		c.Fetcher.Stealth = stealth
	}
}

// WithVerbose enables debug-level logging.
func WithVerbose() Option {
	return func(c *config.Config) { c.Logging.Level = "debug" }
}

// NewCrawler creates a new Crawler with the given options. Nothing is
// written to disk unless WithOutput is given.
func NewCrawler(opts ...Option) *Crawler {
	cfg := config.DefaultConfig()
	cfg.Storage.Type = ""
	for _, opt := range opts {
		opt(cfg)
	}

	level := slog.LevelWarn
	if cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return &Crawler{
		cfg:    cfg,
		logger: logger,
	}
}

// Config returns the crawler's effective configuration.
func (c *Crawler) Config() config.Config {
	return *c.cfg
}

// Crawl runs one full crawl and returns the collected records. The error
// is non-nil only for setup or persistence failures; a seed page that
// could not be fetched shows up in Result.Summary.
func (c *Crawler) Crawl(ctx context.Context) (*Result, error) {
	validate := *c.cfg
	if validate.Storage.Type == "" {
		validate.Storage.Type = "json"
	}
	if err := config.Validate(&validate); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	f, err := fetcher.New(c.cfg, c.logger)
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}
	defer f.Close()

	mem := storage.NewMemoryStorage()
	var store storage.Storage = mem
	if c.cfg.Storage.Type != "" {
		out, err := storage.New(c.cfg.Storage, c.logger)
		if err != nil {
			return nil, fmt.Errorf("create storage: %w", err)
		}
		store = storage.NewMultiStorage([]storage.Storage{mem, out}, c.logger)
	}
	defer store.Close()

	metrics := observability.NewMetrics(c.logger)
	runner, err := engine.NewRunner(c.cfg, f, store, metrics, c.logger)
	if err != nil {
		return nil, err
	}

	sum, err := runner.Run(ctx)
	if err != nil {
		return nil, err
	}

	return &Result{
		Courses:  mem.Courses(),
		Programs: mem.Programs(),
		Summary:  sum,
		Stats:    metrics.Snapshot(),
	}, nil
}
