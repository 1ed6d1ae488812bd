package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/IshaanNene/catalogcrawl/internal/config"
	"github.com/IshaanNene/catalogcrawl/internal/fetcher"
	"github.com/IshaanNene/catalogcrawl/internal/observability"
	"github.com/IshaanNene/catalogcrawl/internal/parser"
	"github.com/IshaanNene/catalogcrawl/internal/types"
)

// CoursePipeline fetches every listing page and, for each course link on
// it, the course's detail page.
type CoursePipeline struct {
	fetcher fetcher.Fetcher
	parser  *parser.Parser
	limiter *Limiter
	catalog config.CatalogConfig
	crawl   config.CrawlConfig
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewCoursePipeline creates a course pipeline. crawl should already have
// the debug toggle applied.
func NewCoursePipeline(
	f fetcher.Fetcher,
	p *parser.Parser,
	limiter *Limiter,
	catalog config.CatalogConfig,
	crawl config.CrawlConfig,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *CoursePipeline {
	return &CoursePipeline{
		fetcher: f,
		parser:  p,
		limiter: limiter,
		catalog: catalog,
		crawl:   crawl,
		metrics: metrics,
		logger:  logger.With("component", "course_pipeline"),
	}
}

// Run crawls all listing pages. It only returns an error when the first
// listing page cannot be fetched; every other failure is folded into the
// results as a skipped page or a partial record.
func (cp *CoursePipeline) Run(ctx context.Context) ([]types.CourseResult, error) {
	firstURL := cp.catalog.ListingURL(1)
	cp.logger.Info("fetching first listing page", "url", firstURL)

	var (
		first    *types.Response
		firstDoc *goquery.Document
		err      error
	)
	if lerr := cp.limiter.Do(ctx, func() {
		first, firstDoc, err = fetchDocument(ctx, cp.fetcher, cp.metrics, cp.logger, firstURL, types.TagListing)
	}); lerr != nil {
		err = lerr
	}
	if err != nil {
		cp.metrics.PagesSkipped.Add(1)
		cp.logger.Error("first listing page unavailable", "url", firstURL, "error", err)
		return nil, fmt.Errorf("%w: %w", types.ErrSeedUnavailable, err)
	}

	pages, _ := cp.parser.PageCount(first.Body, cp.crawl.MaxPages)
	cp.logger.Info("listing pages detected", "pages", pages)

	results := make([]types.PageResult, pages)
	var wg sync.WaitGroup
	for page := 1; page <= pages; page++ {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()

			var doc *goquery.Document
			if page == 1 {
				doc = firstDoc
			}
			err := cp.limiter.Do(ctx, func() {
				results[page-1] = cp.FetchPage(ctx, page, doc)
			})
			if err != nil {
				cp.metrics.PagesSkipped.Add(1)
				results[page-1] = types.PageResult{Page: page, Outcome: types.Skipped(err.Error())}
			}
		}(page)
	}
	wg.Wait()

	var all []types.CourseResult
	for _, pr := range results {
		all = append(all, pr.Courses...)
	}
	cp.logger.Info("course crawl complete", "pages", pages, "courses", len(all))
	return all, nil
}

// FetchPage processes one listing page. When doc is nil the page is
// fetched first. A page that cannot be fetched yields a skipped result with
// no courses.
func (cp *CoursePipeline) FetchPage(ctx context.Context, page int, doc *goquery.Document) (result types.PageResult) {
	result.Page = page
	logger := cp.logger.With("page", page)

	defer func() {
		if r := recover(); r != nil {
			cp.metrics.PagesSkipped.Add(1)
			logger.Error("page processing panicked", "error", recovered(r))
			result = types.PageResult{Page: page, Outcome: types.Skipped(recovered(r).Error())}
		}
	}()

	if doc == nil {
		pageURL := cp.catalog.ListingURL(page)
		logger.Debug("fetching listing page", "url", pageURL)

		var err error
		_, doc, err = fetchDocument(ctx, cp.fetcher, cp.metrics, cp.logger, pageURL, types.TagListing)
		if err != nil {
			cp.metrics.PagesSkipped.Add(1)
			logger.Error("skipping listing page", "url", pageURL, "error", err)
			result.Outcome = types.Skipped(err.Error())
			return result
		}
	}
	cp.metrics.PagesFetched.Add(1)

	links := cp.parser.CourseLinks(doc)
	if n := cp.crawl.MaxItemsPerPage; n > 0 && len(links) > n {
		links = links[:n]
	}
	logger.Debug("course links found", "count", len(links))

	// Detail fetches within a page are not separately limited.
	courses := make([]types.CourseResult, len(links))
	var g errgroup.Group
	for i, link := range links {
		g.Go(func() error {
			courses[i] = cp.FetchCourse(ctx, link)
			return nil
		})
	}
	_ = g.Wait()

	result.Courses = courses
	result.Outcome = types.Full()
	logger.Info("listing page parsed", "courses", len(courses))
	return result
}

// FetchCourse fetches one course's detail page. It always returns a record;
// when the detail page is unavailable the record carries only the code and
// title from the listing.
func (cp *CoursePipeline) FetchCourse(ctx context.Context, link parser.CourseLink) (result types.CourseResult) {
	logger := cp.logger.With("code", link.Code)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("course processing panicked", "error", recovered(r))
			result = cp.partialCourse(link, recovered(r).Error())
		}
	}()

	_, doc, err := fetchDocument(ctx, cp.fetcher, cp.metrics, cp.logger, link.URL, types.TagDetail)
	if err != nil {
		logger.Error("course detail unavailable", "url", link.URL, "error", err)
		return cp.partialCourse(link, err.Error())
	}

	d := cp.parser.CourseDetail(doc)
	rec := types.CourseRecord{
		Code:        link.Code,
		Title:       link.Title,
		CreditHours: d.CreditHours,
		Description: d.Description,

		CreditRestriction:       &d.CreditRestriction,
		GradingRestriction:      &d.GradingRestriction,
		RegistrationRestriction: &d.RegistrationRestriction,
		Repeatability:           &d.Repeatability,
	}
	if rec.Title == "" {
		// The detail heading repeats the code: "ABC 101 - Title".
		if _, title, err := parser.SplitLinkText(d.Title); err == nil {
			rec.Title = title
		}
	}

	if rec.CreditHours == nil {
		cp.metrics.CoursesPartial.Add(1)
		return types.CourseResult{
			Record:  rec,
			Outcome: types.Partial(fmt.Sprintf("unparsable credit hours %q", d.CreditHoursText), types.FieldCreditHours),
		}
	}

	cp.metrics.CoursesFull.Add(1)
	return types.CourseResult{Record: rec, Outcome: types.Full()}
}

func (cp *CoursePipeline) partialCourse(link parser.CourseLink, reason string) types.CourseResult {
	cp.metrics.CoursesPartial.Add(1)
	return types.CourseResult{
		Record: types.CourseRecord{Code: link.Code, Title: link.Title},
		Outcome: types.Partial(reason,
			types.FieldCreditHours, types.FieldDescription, types.FieldRestrictions),
	}
}
