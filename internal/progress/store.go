// Package progress tracks per-(learner, item) mastery and schedules
// reinforcement with a simplified spaced-repetition policy.
package progress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/revisehub/revisehub/internal/platform/errs"
)

// Record is the mastery state for one learner-item pair.
type Record struct {
	LearnerID    string     `json:"learner_id"`
	ItemID       string     `json:"item_id"`
	Attempts     int        `json:"attempts"`
	CorrectCount int        `json:"correct_count"`
	LastSeen     *time.Time `json:"last_seen,omitempty"`
	NextReview   *time.Time `json:"next_review,omitempty"`
	Confidence   float64    `json:"confidence_score"`
}

// Store persists progress records. Exactly one record exists per
// (learnerID, itemID) pair.
type Store interface {
	Get(ctx context.Context, learnerID, itemID string) (Record, error)
	Put(ctx context.Context, rec Record) error
	ListByLearner(ctx context.Context, learnerID string) ([]Record, error)
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	records map[string]Record
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory progress store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func recordKey(learnerID, itemID string) string {
	return learnerID + "\x00" + itemID
}

func (s *MemoryStore) Get(_ context.Context, learnerID, itemID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[recordKey(learnerID, itemID)]
	if !ok {
		return Record{}, fmt.Errorf("progress for %s/%s: %w", learnerID, itemID, errs.ErrNotFound)
	}
	return rec, nil
}

func (s *MemoryStore) Put(_ context.Context, rec Record) error {
	if rec.LearnerID == "" || rec.ItemID == "" {
		return fmt.Errorf("%w: learner and item IDs are required", errs.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[recordKey(rec.LearnerID, rec.ItemID)] = rec
	return nil
}

func (s *MemoryStore) ListByLearner(_ context.Context, learnerID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var recs []Record
	for _, rec := range s.records {
		if rec.LearnerID == learnerID {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}
