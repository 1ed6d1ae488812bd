package engine

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/catalogcrawl/internal/config"
	"github.com/IshaanNene/catalogcrawl/internal/fetcher"
	"github.com/IshaanNene/catalogcrawl/internal/observability"
	"github.com/IshaanNene/catalogcrawl/internal/parser"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeCatalog serves catalog-shaped pages. Listing pages are keyed by page
// number; each value is the anchor text of its course links. Course and
// program pages are keyed by id.
type fakeCatalog struct {
	mu          sync.Mutex
	pageCount   string // text after "Page:" on listing pages
	listings    map[int][]string
	courses     map[string]string
	programs    []fakeProgram
	failPaths   map[string]bool
	delay       time.Duration
	requests    map[string]int
	listingHits atomic.Int64

	inFlight    atomic.Int64
	maxInFlight atomic.Int64

	srv *httptest.Server
}

type fakeProgram struct {
	id, name, body string
}

func newFakeCatalog(t *testing.T) *fakeCatalog {
	t.Helper()
	fc := &fakeCatalog{
		pageCount: "1",
		listings:  map[int][]string{},
		courses:   map[string]string{},
		failPaths: map[string]bool{},
		requests:  map[string]int{},
	}
	fc.srv = httptest.NewServer(http.HandlerFunc(fc.serve))
	t.Cleanup(fc.srv.Close)
	return fc
}

func (fc *fakeCatalog) setPageCount(text string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.pageCount = text
}

func (fc *fakeCatalog) setListing(page int, anchors ...string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.listings[page] = anchors
}

// setCourse serves body for the i-th anchor of a listing page.
func (fc *fakeCatalog) setCourse(page, i int, body string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.courses[fmt.Sprintf("%d-%d", page, i)] = body
}

func (fc *fakeCatalog) addProgram(id, name, body string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.programs = append(fc.programs, fakeProgram{id: id, name: name, body: body})
}

func (fc *fakeCatalog) setDelay(d time.Duration) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.delay = d
}

// fail makes requests whose path and query equal target return 500.
func (fc *fakeCatalog) fail(target string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.failPaths[target] = true
}

func (fc *fakeCatalog) hits(target string) int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.requests[target]
}

func (fc *fakeCatalog) serve(w http.ResponseWriter, r *http.Request) {
	n := fc.inFlight.Add(1)
	defer fc.inFlight.Add(-1)
	for {
		m := fc.maxInFlight.Load()
		if n <= m || fc.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}

	target := r.URL.RequestURI()
	fc.mu.Lock()
	fc.requests[target]++
	failing := fc.failPaths[target]
	delay := fc.delay
	fc.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	if failing {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	switch r.URL.Path {
	case "/listing":
		fc.listingHits.Add(1)
		var page int
		_, _ = fmt.Sscan(r.URL.Query().Get("page"), &page)
		fmt.Fprint(w, fc.listingPage(page))
	case "/preview_course_nopop.php":
		fc.mu.Lock()
		body, ok := fc.courses[r.URL.Query().Get("coid")]
		fc.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, body)
	case "/directory":
		fmt.Fprint(w, fc.directoryPage())
	case "/preview_program.php":
		fc.mu.Lock()
		defer fc.mu.Unlock()
		for _, p := range fc.programs {
			if p.id == r.URL.Query().Get("poid") {
				fmt.Fprint(w, p.body)
				return
			}
		}
		http.NotFound(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (fc *fakeCatalog) listingPage(page int) string {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	var b strings.Builder
	b.WriteString("<html><body><table><tr><td>\n")
	for i, text := range fc.listings[page] {
		fmt.Fprintf(&b, `<a href="preview_course_nopop.php?coid=%d-%d">%s</a>`+"\n", page, i, text)
	}
	fmt.Fprintf(&b, "</td></tr><tr><td>Page: %s</td></tr></table></body></html>", fc.pageCount)
	return b.String()
}

func (fc *fakeCatalog) directoryPage() string {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	var b strings.Builder
	b.WriteString("<html><body><ul>\n")
	for _, p := range fc.programs {
		fmt.Fprintf(&b, `<li><a href="preview_program.php?poid=%s">%s</a></li>`+"\n", p.id, p.name)
	}
	b.WriteString("</ul></body></html>")
	return b.String()
}

func courseHTML(heading, credits, desc string) string {
	return fmt.Sprintf(`<html><body>
<h1 id="course_preview_title">%s</h1>
<strong>%s</strong> Credit Hours
<hr>%s<br>
<em>Repeatability:</em> <em>Not repeatable.</em>
</body></html>`, heading, credits, desc)
}

func programHTML(desc string, codes ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<html><body><div class="content"><h1>Program</h1><p>%s</p><table><tr><td>`, desc)
	for i, c := range codes {
		fmt.Fprintf(&b, `<a href="preview_course_nopop.php?coid=req-%d">%s - Required</a>`, i, c)
	}
	b.WriteString("</td></tr></table></div></body></html>")
	return b.String()
}

func (fc *fakeCatalog) config() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Catalog.BaseURL = fc.srv.URL + "/"
	cfg.Catalog.CourseListingURL = fc.srv.URL + "/listing?page=" + config.PagePlaceholder
	cfg.Catalog.ProgramDirectoryURL = fc.srv.URL + "/directory"
	return cfg
}

type harness struct {
	cfg     *config.Config
	fetcher fetcher.Fetcher
	parser  *parser.Parser
	limiter *Limiter
	metrics *observability.Metrics
}

func newHarness(t *testing.T, cfg *config.Config) *harness {
	t.Helper()
	f, err := fetcher.NewHTTPFetcher(cfg, testLogger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	p, err := parser.New(cfg.Catalog, testLogger)
	require.NoError(t, err)

	m := observability.NewMetrics(testLogger)
	return &harness{
		cfg:     cfg,
		fetcher: f,
		parser:  p,
		limiter: NewLimiter(cfg.Crawl.Concurrency, m),
		metrics: m,
	}
}

func (h *harness) coursePipeline() *CoursePipeline {
	return NewCoursePipeline(h.fetcher, h.parser, h.limiter, h.cfg.Catalog, h.cfg.Crawl.Effective(), h.metrics, testLogger)
}

func (h *harness) programPipeline() *ProgramPipeline {
	return NewProgramPipeline(h.fetcher, h.parser, h.limiter, h.cfg.Catalog, h.cfg.Crawl.Effective(), h.metrics, testLogger)
}
