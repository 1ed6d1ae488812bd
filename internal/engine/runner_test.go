package engine

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/catalogcrawl/internal/storage"
	"github.com/IshaanNene/catalogcrawl/internal/types"
)

func newTestRunner(t *testing.T, fc *fakeCatalog, debug bool) (*Runner, *storage.FileStorage) {
	t.Helper()
	cfg := fc.config()
	cfg.Crawl.Debug = debug
	cfg.Storage.OutputDir = t.TempDir()

	h := newHarness(t, cfg)
	store, err := storage.NewFileStorage("json", cfg.Storage.OutputDir, cfg.Storage.CoursesFile, cfg.Storage.ProgramsFile, testLogger)
	require.NoError(t, err)

	r, err := NewRunner(cfg, h.fetcher, store, h.metrics, testLogger)
	require.NoError(t, err)
	return r, store
}

func readJSON[T any](t *testing.T, path string) T {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestRunnerWritesBothArtifacts(t *testing.T) {
	fc := newFakeCatalog(t)
	fc.setListing(1, "ABC 101 - Intro Topic", "malformed-no-title")
	fc.setCourse(1, 0, courseHTML("ABC 101 - Intro Topic", "3", "An introduction."))
	fc.addProgram("1", "Mathematics, BS", programHTML("A fine program.", "MATH 100", "ENGL 100"))

	r, store := newTestRunner(t, fc, false)
	sum, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.NoError(t, sum.SeedErr())
	assert.Equal(t, 1, sum.Courses)
	assert.Equal(t, 1, sum.Programs)

	courses := readJSON[[]types.CourseRecord](t, store.CoursesPath())
	require.Len(t, courses, 1)
	assert.Equal(t, "ABC 101", courses[0].Code)
	assert.Equal(t, "Intro Topic", courses[0].Title)

	programs := readJSON[[]types.ProgramRecord](t, store.ProgramsPath())
	require.Len(t, programs, 1)
	assert.Equal(t, "A fine program.", programs[0].Description)
	assert.Equal(t, []string{"MATH 100", "ENGL 100"}, programs[0].RequiredCourses)
}

func TestRunnerSeedFailuresStillWrite(t *testing.T) {
	fc := newFakeCatalog(t)
	fc.fail("/listing?page=1")
	fc.fail("/directory")

	r, store := newTestRunner(t, fc, false)
	sum, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.ErrorIs(t, sum.CourseSeedErr, types.ErrSeedUnavailable)
	assert.ErrorIs(t, sum.ProgramSeedErr, types.ErrSeedUnavailable)
	assert.ErrorIs(t, sum.SeedErr(), types.ErrSeedUnavailable)

	for _, path := range []string{store.CoursesPath(), store.ProgramsPath()} {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "[]", strings.TrimSpace(string(data)))
	}
}

func TestRunnerCourseSeedFailureKeepsPrograms(t *testing.T) {
	fc := newFakeCatalog(t)
	fc.fail("/listing?page=1")
	fc.addProgram("1", "English, BA", programHTML("Words."))

	r, store := newTestRunner(t, fc, false)
	sum, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Error(t, sum.CourseSeedErr)
	assert.NoError(t, sum.ProgramSeedErr)

	programs := readJSON[[]types.ProgramRecord](t, store.ProgramsPath())
	require.Len(t, programs, 1)
	assert.Equal(t, "English, BA", programs[0].Name)
}

func TestRunnerDebugMode(t *testing.T) {
	fc := newFakeCatalog(t)
	fc.setPageCount("1 | 2")
	fc.setListing(1, "ABC 101 - One", "ABC 102 - Two")
	fc.setCourse(1, 0, courseHTML("", "3", "One."))
	fc.setCourse(1, 1, courseHTML("", "3", "Two."))
	fc.addProgram("1", "First", programHTML("One."))
	fc.addProgram("2", "Second", programHTML("Two."))

	r, store := newTestRunner(t, fc, true)
	sum, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Courses)
	assert.Equal(t, 1, sum.Programs)

	assert.Len(t, readJSON[[]types.CourseRecord](t, store.CoursesPath()), 1)
	assert.Len(t, readJSON[[]types.ProgramRecord](t, store.ProgramsPath()), 1)
	assert.Zero(t, fc.hits("/listing?page=2"))
}

func TestRunnerPartialCounts(t *testing.T) {
	fc := newFakeCatalog(t)
	fc.setListing(1, "ABC 101 - Present", "ABC 102 - Missing")
	fc.setCourse(1, 0, courseHTML("", "3", "Here."))
	fc.addProgram("1", "Gone", "")
	fc.fail("/preview_program.php?poid=1")

	r, store := newTestRunner(t, fc, false)
	sum, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Courses)
	assert.Equal(t, 1, sum.CoursesPartial)
	assert.Equal(t, 1, sum.ProgramsPartial)

	// The partial record omits the fields it could not fetch.
	data, err := os.ReadFile(store.CoursesPath())
	require.NoError(t, err)
	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 2)
	assert.NotContains(t, raw[1], "credit_hours")
	assert.Equal(t, "ABC 102", raw[1]["code"])
}

var errDiskFull = errors.New("disk full")

// courseWriteFailure rejects the course collection and keeps programs.
type courseWriteFailure struct {
	*storage.MemoryStorage
}

func (s courseWriteFailure) StoreCourses(context.Context, []types.CourseRecord) error {
	return errDiskFull
}

func TestRunnerStoresProgramsAfterCourseStoreFailure(t *testing.T) {
	fc := newFakeCatalog(t)
	fc.setListing(1, "ABC 101 - Intro Topic")
	fc.setCourse(1, 0, courseHTML("", "3", "Desc."))
	fc.addProgram("1", "Mathematics, BS", programHTML("A fine program.", "ABC 101"))

	cfg := fc.config()
	h := newHarness(t, cfg)
	store := courseWriteFailure{storage.NewMemoryStorage()}

	r, err := NewRunner(cfg, h.fetcher, store, h.metrics, testLogger)
	require.NoError(t, err)

	sum, err := r.Run(context.Background())
	require.ErrorIs(t, err, errDiskFull)
	require.NotNil(t, sum)
	assert.Equal(t, 1, sum.Programs)

	programs := store.Programs()
	require.Len(t, programs, 1)
	assert.Equal(t, "Mathematics, BS", programs[0].Name)
	assert.Equal(t, int64(1), h.metrics.RecordsStored.Load())
}
