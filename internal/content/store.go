package content

import (
	"context"
	"crypto/rand"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/revisehub/revisehub/internal/platform/errs"
)

// Store persists content items.
type Store interface {
	// Upsert inserts item or replaces the existing item with the same ID.
	// A missing ID is generated.
	Upsert(ctx context.Context, item Item) (Item, error)
	Get(ctx context.Context, id string) (Item, error)
	GetMany(ctx context.Context, ids []string) ([]Item, error)
	// List returns matching items in creation order, then by ID.
	List(ctx context.Context, f Filter) ([]Item, error)
	// ListExcluding is List minus the given item IDs, capped at limit.
	// limit <= 0 means no cap.
	ListExcluding(ctx context.Context, f Filter, exclude []string, limit int) ([]Item, error)
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	items map[string]Item
	mu    sync.RWMutex
}

// NewMemoryStore creates a new in-memory content store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Item)}
}

func (s *MemoryStore) Upsert(_ context.Context, item Item) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.QuestionText == "" || item.AnswerText == "" {
		return Item{}, fmt.Errorf("%w: question and answer text are required", errs.ErrInvalidInput)
	}
	if item.ID == "" {
		item.ID = NewID()
	}
	if existing, ok := s.items[item.ID]; ok && !existing.CreatedAt.IsZero() {
		item.CreatedAt = existing.CreatedAt
	} else if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	s.items[item.ID] = item
	return item, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return Item{}, fmt.Errorf("content %s: %w", id, errs.ErrNotFound)
	}
	return item, nil
}

func (s *MemoryStore) GetMany(_ context.Context, ids []string) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			items = append(items, item)
		}
	}
	return items, nil
}

func (s *MemoryStore) List(_ context.Context, f Filter) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []Item
	for _, item := range s.items {
		if f.matches(item) {
			items = append(items, item)
		}
	}
	sortItems(items)
	return items, nil
}

func (s *MemoryStore) ListExcluding(ctx context.Context, f Filter, exclude []string, limit int) ([]Item, error) {
	items, err := s.List(ctx, f)
	if err != nil {
		return nil, err
	}

	excluded := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	filtered := items[:0]
	for _, item := range items {
		if _, skip := excluded[item.ID]; skip {
			continue
		}
		filtered = append(filtered, item)
		if limit > 0 && len(filtered) == limit {
			break
		}
	}
	return filtered, nil
}

// sortItems orders by creation time, then ID, so list results are stable.
func sortItems(items []Item) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}

// NewID generates a content item identifier.
func NewID() string {
	b := make([]byte, 6)
	rand.Read(b)
	return fmt.Sprintf("content_%x", b)
}
