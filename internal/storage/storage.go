package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/IshaanNene/catalogcrawl/internal/config"
	"github.com/IshaanNene/catalogcrawl/internal/types"
)

// Storage is the interface for all storage backends. Each Store call
// replaces what the backend holds for that record kind.
type Storage interface {
	// StoreCourses persists the full course collection.
	StoreCourses(ctx context.Context, courses []types.CourseRecord) error

	// StorePrograms persists the full program collection.
	StorePrograms(ctx context.Context, programs []types.ProgramRecord) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// New builds the backends named in cfg.Type. Several backends are combined
// with a MultiStorage.
func New(cfg config.StorageConfig, logger *slog.Logger) (Storage, error) {
	names := cfg.Types()
	if len(names) == 0 {
		return nil, fmt.Errorf("no storage type configured")
	}

	var backends []Storage
	for _, name := range names {
		s, err := newBackend(name, cfg, logger)
		if err != nil {
			for _, b := range backends {
				_ = b.Close()
			}
			return nil, err
		}
		backends = append(backends, s)
	}

	if len(backends) == 1 {
		return backends[0], nil
	}
	return NewMultiStorage(backends, logger), nil
}

func newBackend(name string, cfg config.StorageConfig, logger *slog.Logger) (Storage, error) {
	switch name {
	case "mongodb":
		return NewMongoStorage(cfg.MongoURI, cfg.MongoDatabase, logger)
	case "json", "jsonl", "csv":
		return NewFileStorage(name, cfg.OutputDir,
			withExt(cfg.CoursesFile, name), withExt(cfg.ProgramsFile, name), logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", name)
	}
}

// withExt swaps the extension of file for the backend's format, so
// courses.json becomes courses.csv for the csv backend.
func withExt(file, format string) string {
	return strings.TrimSuffix(file, filepath.Ext(file)) + "." + format
}
