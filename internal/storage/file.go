package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/IshaanNene/catalogcrawl/internal/types"
)

// FileStorage writes each record collection to its own file in the output
// directory. The format is json (an indented array), jsonl or csv.
type FileStorage struct {
	format       string
	coursesPath  string
	programsPath string
	mu           sync.Mutex
	logger       *slog.Logger
}

// NewFileStorage creates a file backend for format writing coursesFile and
// programsFile under outputDir.
func NewFileStorage(format, outputDir, coursesFile, programsFile string, logger *slog.Logger) (*FileStorage, error) {
	switch format {
	case "json", "jsonl", "csv":
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", format)
	}

	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, &types.StorageError{Backend: format, Err: fmt.Errorf("create output dir: %w", err)}
	}

	return &FileStorage{
		format:       format,
		coursesPath:  filepath.Join(outputDir, coursesFile),
		programsPath: filepath.Join(outputDir, programsFile),
		logger:       logger.With("component", format+"_storage"),
	}, nil
}

func (s *FileStorage) Name() string { return s.format }

// CoursesPath returns the file the course collection is written to.
func (s *FileStorage) CoursesPath() string { return s.coursesPath }

// ProgramsPath returns the file the program collection is written to.
func (s *FileStorage) ProgramsPath() string { return s.programsPath }

func (s *FileStorage) StoreCourses(_ context.Context, courses []types.CourseRecord) error {
	if courses == nil {
		courses = []types.CourseRecord{}
	}

	var err error
	switch s.format {
	case "json":
		err = s.write(s.coursesPath, func(f *os.File) error { return writeJSON(f, courses) })
	case "jsonl":
		err = s.write(s.coursesPath, func(f *os.File) error { return writeJSONL(f, courses) })
	case "csv":
		err = s.write(s.coursesPath, func(f *os.File) error { return writeCourseCSV(f, courses) })
	}
	if err != nil {
		return err
	}

	s.logger.Info("courses written", "path", s.coursesPath, "records", len(courses))
	return nil
}

func (s *FileStorage) StorePrograms(_ context.Context, programs []types.ProgramRecord) error {
	if programs == nil {
		programs = []types.ProgramRecord{}
	}

	var err error
	switch s.format {
	case "json":
		err = s.write(s.programsPath, func(f *os.File) error { return writeJSON(f, programs) })
	case "jsonl":
		err = s.write(s.programsPath, func(f *os.File) error { return writeJSONL(f, programs) })
	case "csv":
		err = s.write(s.programsPath, func(f *os.File) error { return writeProgramCSV(f, programs) })
	}
	if err != nil {
		return err
	}

	s.logger.Info("programs written", "path", s.programsPath, "records", len(programs))
	return nil
}

// Close is a no-op; every Store call writes and closes its file.
func (s *FileStorage) Close() error { return nil }

// write replaces path with the output of fn. The file is written next to
// path first and renamed, so a failed write leaves the old file in place.
func (s *FileStorage) write(path string, fn func(f *os.File) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return &types.StorageError{Backend: s.format, Err: fmt.Errorf("create output file: %w", err)}
	}
	defer os.Remove(tmp.Name())

	if err := fn(tmp); err != nil {
		tmp.Close()
		return &types.StorageError{Backend: s.format, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &types.StorageError{Backend: s.format, Err: fmt.Errorf("close output file: %w", err)}
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return &types.StorageError{Backend: s.format, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &types.StorageError{Backend: s.format, Err: fmt.Errorf("replace %s: %w", path, err)}
	}
	return nil
}

func writeJSON[T any](f *os.File, records []T) error {
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

func writeJSONL[T any](f *os.File, records []T) error {
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode JSONL: %w", err)
		}
	}
	return nil
}

var courseHeaders = []string{
	"code", "title", "credit_hours", "description",
	"creditRestriction", "gradingRestriction", "registrationRestriction", "repeatability",
}

func writeCourseCSV(f *os.File, courses []types.CourseRecord) error {
	w := csv.NewWriter(f)
	if err := w.Write(courseHeaders); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, c := range courses {
		hours := ""
		if c.CreditHours != nil {
			hours = strconv.FormatFloat(*c.CreditHours, 'f', -1, 64)
		}
		row := []string{
			c.Code, c.Title, hours, c.Description,
			deref(c.CreditRestriction), deref(c.GradingRestriction),
			deref(c.RegistrationRestriction), deref(c.Repeatability),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

func writeProgramCSV(f *os.File, programs []types.ProgramRecord) error {
	w := csv.NewWriter(f)
	if err := w.Write([]string{"name", "url", "description", "required_courses"}); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, p := range programs {
		row := []string{p.Name, p.URL, p.Description, strings.Join(p.RequiredCourses, ";")}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
