package config

import (
	"strconv"
	"strings"
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for catalogcrawl.
type Config struct {
	Catalog CatalogConfig `mapstructure:"catalog" yaml:"catalog"`
	Crawl   CrawlConfig   `mapstructure:"crawl"   yaml:"crawl"`
	Fetcher FetcherConfig `mapstructure:"fetcher" yaml:"fetcher"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// PagePlaceholder is replaced with the page number in CourseListingURL.
const PagePlaceholder = "{page}"

// CatalogConfig locates the catalog endpoints.
type CatalogConfig struct {
	BaseURL             string `mapstructure:"base_url"              yaml:"base_url"`
	CourseListingURL    string `mapstructure:"course_listing_url"    yaml:"course_listing_url"`
	ProgramDirectoryURL string `mapstructure:"program_directory_url" yaml:"program_directory_url"`
	CourseLinkPattern   string `mapstructure:"course_link_pattern"   yaml:"course_link_pattern"`
	ProgramLinkPattern  string `mapstructure:"program_link_pattern"  yaml:"program_link_pattern"`
}

// ListingURL returns the course listing URL for a page number.
func (c CatalogConfig) ListingURL(page int) string {
	return strings.ReplaceAll(c.CourseListingURL, PagePlaceholder, strconv.Itoa(page))
}

// CrawlConfig bounds how much of the catalog is visited.
type CrawlConfig struct {
	Concurrency     int  `mapstructure:"concurrency"        yaml:"concurrency"`
	MaxPages        int  `mapstructure:"max_pages"          yaml:"max_pages"`
	MaxItemsPerPage int  `mapstructure:"max_items_per_page" yaml:"max_items_per_page"` // 0 = all
	MaxPrograms     int  `mapstructure:"max_programs"       yaml:"max_programs"`       // 0 = all
	Debug           bool `mapstructure:"debug"              yaml:"debug"`
}

// Effective applies the debug toggle: one listing page, one course per page
// and one program.
func (c CrawlConfig) Effective() CrawlConfig {
	if !c.Debug {
		return c
	}
	c.MaxPages = 1
	c.MaxItemsPerPage = 1
	c.MaxPrograms = 1
	return c
}

// FetcherConfig controls the request fetcher.
type FetcherConfig struct {
	Type            string        `mapstructure:"type"              yaml:"type"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"   yaml:"request_timeout"` // 0 = none
	UserAgent       string        `mapstructure:"user_agent"        yaml:"user_agent"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	Stealth         bool          `mapstructure:"stealth"           yaml:"stealth"`
}

// StorageConfig controls output.
type StorageConfig struct {
	Type          string `mapstructure:"type"           yaml:"type"` // comma-separated for fan-out
	OutputDir     string `mapstructure:"output_dir"     yaml:"output_dir"`
	CoursesFile   string `mapstructure:"courses_file"   yaml:"courses_file"`
	ProgramsFile  string `mapstructure:"programs_file"  yaml:"programs_file"`
	MongoURI      string `mapstructure:"mongo_uri"      yaml:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database" yaml:"mongo_database"`
}

// Types returns the configured backends.
func (s StorageConfig) Types() []string {
	var out []string
	for _, t := range strings.Split(s.Type, ",") {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the Prometheus text endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config pointed at the UTK catalog.
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			BaseURL: "https://catalog.utk.edu/",
			CourseListingURL: "https://catalog.utk.edu/content.php?filter%5B27%5D=-1&filter%5B29%5D=&filter%5Bkeyword%5D=" +
				"&filter%5B32%5D=1&filter%5Bcpage%5D=" + PagePlaceholder +
				"&cur_cat_oid=52&expand=&navoid=10718&search_database=Filter#acalog_template_course_filter",
			ProgramDirectoryURL: "https://catalog.utk.edu/content.php?catoid=51&navoid=10453",
			CourseLinkPattern:   "preview_course_nopop.php",
			ProgramLinkPattern:  "preview_program.php",
		},
		Crawl: CrawlConfig{
			Concurrency: 5,
			MaxPages:    50,
		},
		Fetcher: FetcherConfig{
			Type:            "http",
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
		},
		Storage: StorageConfig{
			Type:          "json",
			OutputDir:     ".",
			CoursesFile:   "courses.json",
			ProgramsFile:  "majors.json",
			MongoDatabase: "catalog",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
