// Package classroom groups students into teacher-owned classes and
// aggregates their progress for teacher dashboards.
package classroom

import (
	"context"
	"crypto/rand"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/revisehub/revisehub/internal/platform/errs"
)

// Class is one teacher-owned student group. Students join via the
// class code.
type Class struct {
	ID         string    `json:"class_id"`
	TeacherID  string    `json:"teacher_id"`
	Name       string    `json:"class_name"`
	Code       string    `json:"class_code"`
	StudentIDs []string  `json:"student_ids"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store persists classes.
type Store interface {
	Create(ctx context.Context, c Class) error
	Get(ctx context.Context, id string) (Class, error)
	GetByCode(ctx context.Context, code string) (Class, error)
	Update(ctx context.Context, c Class) error
	// ListByTeacher returns the teacher's classes ordered by creation
	// time, then ID.
	ListByTeacher(ctx context.Context, teacherID string) ([]Class, error)
	// ListByStudent returns every class the student is enrolled in,
	// ordered by creation time, then ID.
	ListByStudent(ctx context.Context, studentID string) ([]Class, error)
}

func newClassID() string {
	b := make([]byte, 4)
	rand.Read(b)
	return fmt.Sprintf("class_%x", b)
}

func newClassCode() string {
	b := make([]byte, 3)
	rand.Read(b)
	return strings.ToUpper(fmt.Sprintf("%x", b))
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	classes map[string]Class
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory class store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{classes: make(map[string]Class)}
}

func (s *MemoryStore) Create(_ context.Context, c Class) error {
	if c.ID == "" || c.TeacherID == "" {
		return fmt.Errorf("%w: class and teacher IDs are required", errs.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classes[c.ID] = cloneClass(c)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.classes[id]
	if !ok {
		return Class{}, fmt.Errorf("class %s: %w", id, errs.ErrNotFound)
	}
	return cloneClass(c), nil
}

func (s *MemoryStore) GetByCode(_ context.Context, code string) (Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.classes {
		if c.Code == code {
			return cloneClass(c), nil
		}
	}
	return Class{}, fmt.Errorf("class code %s: %w", code, errs.ErrNotFound)
}

func (s *MemoryStore) Update(_ context.Context, c Class) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.classes[c.ID]; !ok {
		return fmt.Errorf("class %s: %w", c.ID, errs.ErrNotFound)
	}
	s.classes[c.ID] = cloneClass(c)
	return nil
}

func (s *MemoryStore) ListByTeacher(_ context.Context, teacherID string) ([]Class, error) {
	return s.listWhere(func(c Class) bool { return c.TeacherID == teacherID }), nil
}

func (s *MemoryStore) ListByStudent(_ context.Context, studentID string) ([]Class, error) {
	return s.listWhere(func(c Class) bool { return slices.Contains(c.StudentIDs, studentID) }), nil
}

func (s *MemoryStore) listWhere(keep func(Class) bool) []Class {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var classes []Class
	for _, c := range s.classes {
		if keep(c) {
			classes = append(classes, cloneClass(c))
		}
	}
	sort.Slice(classes, func(i, j int) bool {
		if !classes[i].CreatedAt.Equal(classes[j].CreatedAt) {
			return classes[i].CreatedAt.Before(classes[j].CreatedAt)
		}
		return classes[i].ID < classes[j].ID
	})
	return classes
}

func cloneClass(c Class) Class {
	c.StudentIDs = slices.Clone(c.StudentIDs)
	return c
}
