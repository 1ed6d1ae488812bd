package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/catalogcrawl/internal/types"
)

const (
	coursesCollection  = "courses"
	programsCollection = "programs"
)

// MongoStorage keeps each record kind in its own collection. A store
// replaces the collection's contents.
type MongoStorage struct {
	client *mongo.Client
	db     *mongo.Database
	logger *slog.Logger
}

// NewMongoStorage connects to uri and verifies the connection.
func NewMongoStorage(uri, database string, logger *slog.Logger) (*MongoStorage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("connect: %w", err)}
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("ping: %w", err)}
	}

	return &MongoStorage{
		client: client,
		db:     client.Database(database),
		logger: logger.With("component", "mongo_storage"),
	}, nil
}

func (s *MongoStorage) Name() string { return "mongodb" }

func (s *MongoStorage) StoreCourses(ctx context.Context, courses []types.CourseRecord) error {
	docs := make([]any, len(courses))
	for i, c := range courses {
		docs[i] = c
	}
	return s.replace(ctx, coursesCollection, docs)
}

func (s *MongoStorage) StorePrograms(ctx context.Context, programs []types.ProgramRecord) error {
	docs := make([]any, len(programs))
	for i, p := range programs {
		docs[i] = p
	}
	return s.replace(ctx, programsCollection, docs)
}

func (s *MongoStorage) replace(ctx context.Context, name string, docs []any) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	coll := s.db.Collection(name)
	if _, err := coll.DeleteMany(ctx, bson.M{}); err != nil {
		return &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("clear %s: %w", name, err)}
	}

	// InsertMany rejects an empty slice.
	if len(docs) > 0 {
		if _, err := coll.InsertMany(ctx, docs); err != nil {
			return &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("insert %s: %w", name, err)}
		}
	}

	s.logger.Info("collection replaced", "collection", name, "documents", len(docs))
	return nil
}

func (s *MongoStorage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// --- Multi-Storage Fan-Out ---

// MultiStorage writes records to multiple backends. Every backend is tried;
// the first error is returned.
type MultiStorage struct {
	backends []Storage
	logger   *slog.Logger
}

// NewMultiStorage creates a storage that fans out to multiple backends.
func NewMultiStorage(backends []Storage, logger *slog.Logger) *MultiStorage {
	return &MultiStorage{
		backends: backends,
		logger:   logger.With("component", "multi_storage"),
	}
}

func (s *MultiStorage) Name() string { return "multi" }

func (s *MultiStorage) StoreCourses(ctx context.Context, courses []types.CourseRecord) error {
	return s.each(func(b Storage) error { return b.StoreCourses(ctx, courses) })
}

func (s *MultiStorage) StorePrograms(ctx context.Context, programs []types.ProgramRecord) error {
	return s.each(func(b Storage) error { return b.StorePrograms(ctx, programs) })
}

func (s *MultiStorage) Close() error {
	return s.each(func(b Storage) error { return b.Close() })
}

func (s *MultiStorage) each(fn func(Storage) error) error {
	var firstErr error
	for _, backend := range s.backends {
		if err := fn(backend); err != nil {
			s.logger.Error("backend failed", "backend", backend.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
