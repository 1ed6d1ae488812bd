package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.Catalog.BaseURL); err != nil {
		return fmt.Errorf("catalog.base_url: %w", err)
	}
	if !strings.Contains(cfg.Catalog.CourseListingURL, PagePlaceholder) {
		return fmt.Errorf("catalog.course_listing_url must contain %s", PagePlaceholder)
	}
	if err := ValidateURL(cfg.Catalog.ListingURL(1)); err != nil {
		return fmt.Errorf("catalog.course_listing_url: %w", err)
	}
	if err := ValidateURL(cfg.Catalog.ProgramDirectoryURL); err != nil {
		return fmt.Errorf("catalog.program_directory_url: %w", err)
	}
	if cfg.Catalog.CourseLinkPattern == "" || cfg.Catalog.ProgramLinkPattern == "" {
		return fmt.Errorf("catalog link patterns must not be empty")
	}

	if cfg.Crawl.Concurrency < 1 {
		return fmt.Errorf("crawl.concurrency must be >= 1, got %d", cfg.Crawl.Concurrency)
	}
	if cfg.Crawl.Concurrency > 100 {
		return fmt.Errorf("crawl.concurrency must be <= 100, got %d", cfg.Crawl.Concurrency)
	}
	if cfg.Crawl.MaxPages < 1 {
		return fmt.Errorf("crawl.max_pages must be >= 1, got %d", cfg.Crawl.MaxPages)
	}
	if cfg.Crawl.MaxItemsPerPage < 0 {
		return fmt.Errorf("crawl.max_items_per_page must be >= 0, got %d", cfg.Crawl.MaxItemsPerPage)
	}
	if cfg.Crawl.MaxPrograms < 0 {
		return fmt.Errorf("crawl.max_programs must be >= 0, got %d", cfg.Crawl.MaxPrograms)
	}

	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return fmt.Errorf("fetcher.type must be 'http' or 'browser', got %q", cfg.Fetcher.Type)
	}
	if cfg.Fetcher.RequestTimeout < 0 {
		return fmt.Errorf("fetcher.request_timeout must be >= 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}

	validStorageTypes := map[string]bool{
		"json": true, "jsonl": true, "csv": true, "mongodb": true,
	}
	types := cfg.Storage.Types()
	if len(types) == 0 {
		return fmt.Errorf("storage.type must name at least one backend")
	}
	for _, t := range types {
		if !validStorageTypes[t] {
			return fmt.Errorf("storage.type %q is not supported (valid: json, jsonl, csv, mongodb)", t)
		}
		if t == "mongodb" && cfg.Storage.MongoURI == "" {
			return fmt.Errorf("storage.mongo_uri is required for the mongodb backend")
		}
	}
	if cfg.Storage.CoursesFile == "" || cfg.Storage.ProgramsFile == "" {
		return fmt.Errorf("storage.courses_file and storage.programs_file must be set")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks if a URL string is valid for crawling.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
