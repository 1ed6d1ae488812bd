package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/IshaanNene/catalogcrawl/internal/types"
)

// MemoryStorage keeps the last stored collections in memory.
type MemoryStorage struct {
	mu       sync.Mutex
	courses  []types.CourseRecord
	programs []types.ProgramRecord
}

// NewMemoryStorage creates an empty in-memory backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		courses:  []types.CourseRecord{},
		programs: []types.ProgramRecord{},
	}
}

func (s *MemoryStorage) Name() string { return "memory" }

func (s *MemoryStorage) StoreCourses(_ context.Context, courses []types.CourseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses = append([]types.CourseRecord{}, courses...)
	return nil
}

func (s *MemoryStorage) StorePrograms(_ context.Context, programs []types.ProgramRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.programs = append([]types.ProgramRecord{}, programs...)
	return nil
}

func (s *MemoryStorage) Close() error { return nil }

// Courses returns a copy of the stored courses.
func (s *MemoryStorage) Courses() []types.CourseRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.courses)
}

// Programs returns a copy of the stored programs.
func (s *MemoryStorage) Programs() []types.ProgramRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.programs)
}
