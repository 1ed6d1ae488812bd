package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/catalogcrawl/internal/config"
	"github.com/IshaanNene/catalogcrawl/internal/fetcher"
	"github.com/IshaanNene/catalogcrawl/internal/observability"
	"github.com/IshaanNene/catalogcrawl/internal/parser"
	"github.com/IshaanNene/catalogcrawl/internal/types"
)

// ProgramPipeline fetches the program directory and every program page
// linked from it.
type ProgramPipeline struct {
	fetcher fetcher.Fetcher
	parser  *parser.Parser
	limiter *Limiter
	catalog config.CatalogConfig
	crawl   config.CrawlConfig
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewProgramPipeline creates a program pipeline sharing limiter with the
// course pipeline.
func NewProgramPipeline(
	f fetcher.Fetcher,
	p *parser.Parser,
	limiter *Limiter,
	catalog config.CatalogConfig,
	crawl config.CrawlConfig,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *ProgramPipeline {
	return &ProgramPipeline{
		fetcher: f,
		parser:  p,
		limiter: limiter,
		catalog: catalog,
		crawl:   crawl,
		metrics: metrics,
		logger:  logger.With("component", "program_pipeline"),
	}
}

// Run crawls the directory and all programs on it. Results keep directory
// order. An error is returned only when the directory itself is
// unavailable.
func (pp *ProgramPipeline) Run(ctx context.Context) ([]types.ProgramResult, error) {
	dirURL := pp.catalog.ProgramDirectoryURL
	pp.logger.Info("fetching program directory", "url", dirURL)

	var (
		doc *goquery.Document
		err error
	)
	if lerr := pp.limiter.Do(ctx, func() {
		_, doc, err = fetchDocument(ctx, pp.fetcher, pp.metrics, pp.logger, dirURL, types.TagDirectory)
	}); lerr != nil {
		err = lerr
	}
	if err != nil {
		pp.logger.Error("program directory unavailable", "url", dirURL, "error", err)
		return []types.ProgramResult{}, fmt.Errorf("%w: %w", types.ErrSeedUnavailable, err)
	}

	links := pp.parser.ProgramLinks(doc)
	if n := pp.crawl.MaxPrograms; n > 0 && len(links) > n {
		links = links[:n]
	}
	pp.logger.Info("programs found", "count", len(links))

	results := make([]types.ProgramResult, len(links))
	var wg sync.WaitGroup
	for i, link := range links {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := pp.limiter.Do(ctx, func() {
				results[i] = pp.FetchProgram(ctx, link)
			})
			if err != nil {
				results[i] = pp.partialProgram(link, err.Error())
			}
		}()
	}
	wg.Wait()

	pp.logger.Info("program crawl complete", "programs", len(results))
	return results, nil
}

// FetchProgram fetches one program page. A program whose page is
// unavailable is still returned, with an empty description and no required
// courses.
func (pp *ProgramPipeline) FetchProgram(ctx context.Context, link parser.ProgramLink) (result types.ProgramResult) {
	logger := pp.logger.With("program", link.Name)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("program processing panicked", "error", recovered(r))
			result = pp.partialProgram(link, recovered(r).Error())
		}
	}()

	_, doc, err := fetchDocument(ctx, pp.fetcher, pp.metrics, pp.logger, link.URL, types.TagProgram)
	if err != nil {
		logger.Error("program page unavailable", "url", link.URL, "error", err)
		return pp.partialProgram(link, err.Error())
	}

	rec := types.NewProgramRecord(link.Name, link.URL)
	rec.Description = pp.parser.ProgramDescription(doc)
	rec.RequiredCourses = pp.parser.CourseCodes(doc)

	pp.metrics.ProgramsFull.Add(1)
	logger.Debug("program parsed", "required_courses", len(rec.RequiredCourses))
	return types.ProgramResult{Record: rec, Outcome: types.Full()}
}

func (pp *ProgramPipeline) partialProgram(link parser.ProgramLink, reason string) types.ProgramResult {
	pp.metrics.ProgramsPartial.Add(1)
	return types.ProgramResult{
		Record:  types.NewProgramRecord(link.Name, link.URL),
		Outcome: types.Partial(reason, types.FieldDescription, types.FieldRequired),
	}
}
