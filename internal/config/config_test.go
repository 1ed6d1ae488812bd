package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestListingURL(t *testing.T) {
	c := CatalogConfig{CourseListingURL: "https://example.com/list?cpage={page}&x=1"}
	if got := c.ListingURL(7); got != "https://example.com/list?cpage=7&x=1" {
		t.Errorf("unexpected listing URL %q", got)
	}
}

func TestEffectiveDebug(t *testing.T) {
	c := CrawlConfig{Concurrency: 5, MaxPages: 50, Debug: true}.Effective()
	if c.MaxPages != 1 || c.MaxItemsPerPage != 1 || c.MaxPrograms != 1 {
		t.Errorf("debug should restrict to one of each, got %+v", c)
	}
	if c.Concurrency != 5 {
		t.Errorf("debug should not change concurrency, got %d", c.Concurrency)
	}

	n := CrawlConfig{MaxPages: 50}.Effective()
	if n.MaxPages != 50 || n.MaxItemsPerPage != 0 {
		t.Errorf("non-debug config should be unchanged, got %+v", n)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero concurrency", func(c *Config) { c.Crawl.Concurrency = 0 }, "crawl.concurrency"},
		{"zero pages", func(c *Config) { c.Crawl.MaxPages = 0 }, "crawl.max_pages"},
		{"no placeholder", func(c *Config) { c.Catalog.CourseListingURL = "https://example.com/" }, "{page}"},
		{"bad fetcher", func(c *Config) { c.Fetcher.Type = "curl" }, "fetcher.type"},
		{"bad storage", func(c *Config) { c.Storage.Type = "json,xml" }, "xml"},
		{"mongo without uri", func(c *Config) { c.Storage.Type = "mongodb" }, "mongo_uri"},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"bad base url", func(c *Config) { c.Catalog.BaseURL = "ftp://example.com" }, "catalog.base_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestStorageTypes(t *testing.T) {
	s := StorageConfig{Type: " JSON, mongodb ,,"}
	got := s.Types()
	if len(got) != 2 || got[0] != "json" || got[1] != "mongodb" {
		t.Errorf("unexpected types %v", got)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalogcrawl.yaml")
	yaml := `
crawl:
  concurrency: 3
  max_pages: 10
storage:
  type: jsonl
  output_dir: /tmp/out
fetcher:
  request_timeout: 15s
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Crawl.Concurrency != 3 || cfg.Crawl.MaxPages != 10 {
		t.Errorf("crawl section not applied: %+v", cfg.Crawl)
	}
	if cfg.Storage.Type != "jsonl" || cfg.Storage.OutputDir != "/tmp/out" {
		t.Errorf("storage section not applied: %+v", cfg.Storage)
	}
	if cfg.Fetcher.RequestTimeout.Seconds() != 15 {
		t.Errorf("expected 15s timeout, got %s", cfg.Fetcher.RequestTimeout)
	}
	if cfg.Storage.CoursesFile != "courses.json" {
		t.Errorf("defaults should survive partial files, got %q", cfg.Storage.CoursesFile)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CATALOGCRAWL_CRAWL_CONCURRENCY", "8")
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Crawl.Concurrency != 8 {
		t.Errorf("env override not applied, got %d", cfg.Crawl.Concurrency)
	}
}
