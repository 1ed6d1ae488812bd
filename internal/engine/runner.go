package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IshaanNene/catalogcrawl/internal/config"
	"github.com/IshaanNene/catalogcrawl/internal/fetcher"
	"github.com/IshaanNene/catalogcrawl/internal/observability"
	"github.com/IshaanNene/catalogcrawl/internal/parser"
	"github.com/IshaanNene/catalogcrawl/internal/storage"
	"github.com/IshaanNene/catalogcrawl/internal/types"
)

// Summary describes a completed run.
type Summary struct {
	Courses         int
	CoursesPartial  int
	Programs        int
	ProgramsPartial int
	CourseSeedErr   error
	ProgramSeedErr  error
	Duration        time.Duration
}

// Runner runs the course pipeline then the program pipeline and persists
// each collection as soon as it is complete.
type Runner struct {
	courses  *CoursePipeline
	programs *ProgramPipeline
	storage  storage.Storage
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewRunner wires both pipelines around one shared limiter. The debug
// toggle in cfg.Crawl is applied here.
func NewRunner(cfg *config.Config, f fetcher.Fetcher, store storage.Storage, metrics *observability.Metrics, logger *slog.Logger) (*Runner, error) {
	p, err := parser.New(cfg.Catalog, logger)
	if err != nil {
		return nil, fmt.Errorf("create parser: %w", err)
	}

	crawl := cfg.Crawl.Effective()
	if crawl.Debug {
		logger.Info("debug mode: limiting to one page, one course and one program")
	}

	limiter := NewLimiter(crawl.Concurrency, metrics)
	return &Runner{
		courses:  NewCoursePipeline(f, p, limiter, cfg.Catalog, crawl, metrics, logger),
		programs: NewProgramPipeline(f, p, limiter, cfg.Catalog, crawl, metrics, logger),
		storage:  store,
		metrics:  metrics,
		logger:   logger.With("component", "runner"),
	}, nil
}

// Run crawls courses and programs. Both collections are always written,
// empty when their seed page was unavailable. A failure to store one
// collection does not stop the other; the returned error joins every
// persistence failure.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	sum := &Summary{}

	courses, err := r.courses.Run(ctx)
	if err != nil {
		sum.CourseSeedErr = err
		r.logger.Error("course crawl produced no records", "error", err)
	}
	for _, c := range courses {
		if c.Outcome.Status != types.StatusFull {
			sum.CoursesPartial++
			r.logger.Warn("partial course", "code", c.Record.Code, "outcome", c.Outcome.String())
		}
	}
	sum.Courses = len(courses)

	var storeErrs []error
	if err := r.storage.StoreCourses(ctx, types.CourseRecords(courses)); err != nil {
		r.logger.Error("failed to store courses", "error", err)
		storeErrs = append(storeErrs, fmt.Errorf("store courses: %w", err))
	} else {
		r.metrics.RecordsStored.Add(int64(len(courses)))
	}

	programs, err := r.programs.Run(ctx)
	if err != nil {
		sum.ProgramSeedErr = err
		r.logger.Error("program crawl produced no records", "error", err)
	}
	for _, p := range programs {
		if p.Outcome.Status != types.StatusFull {
			sum.ProgramsPartial++
			r.logger.Warn("partial program", "program", p.Record.Name, "outcome", p.Outcome.String())
		}
	}
	sum.Programs = len(programs)

	if err := r.storage.StorePrograms(ctx, types.ProgramRecords(programs)); err != nil {
		r.logger.Error("failed to store programs", "error", err)
		storeErrs = append(storeErrs, fmt.Errorf("store programs: %w", err))
	} else {
		r.metrics.RecordsStored.Add(int64(len(programs)))
	}

	sum.Duration = time.Since(start)
	r.logger.Info("run complete",
		"courses", sum.Courses,
		"courses_partial", sum.CoursesPartial,
		"programs", sum.Programs,
		"programs_partial", sum.ProgramsPartial,
		"duration", sum.Duration,
	)
	return sum, errors.Join(storeErrs...)
}

// SeedErr joins the seed failures of both pipelines, or returns nil.
func (s *Summary) SeedErr() error {
	return errors.Join(s.CourseSeedErr, s.ProgramSeedErr)
}
