// Package engagement tracks daily streak continuity and XP/level
// progression, updated when a quiz session completes.
package engagement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/revisehub/revisehub/internal/platform/errs"
)

// Streak records consecutive quiz days for one learner.
type Streak struct {
	LearnerID     string     `json:"learner_id"`
	CurrentStreak int        `json:"current_streak"`
	LongestStreak int        `json:"longest_streak"`
	LastQuizDate  *time.Time `json:"last_quiz_date,omitempty"`
}

// Rewards records XP, level and badges for one learner. XP and level
// only ever increase.
type Rewards struct {
	LearnerID string   `json:"learner_id"`
	XP        int      `json:"xp"`
	Level     int      `json:"level"`
	Badges    []string `json:"badges"`
}

// Store persists streak and rewards records, one of each per learner.
type Store interface {
	GetStreak(ctx context.Context, learnerID string) (Streak, error)
	PutStreak(ctx context.Context, s Streak) error
	GetRewards(ctx context.Context, learnerID string) (Rewards, error)
	PutRewards(ctx context.Context, r Rewards) error
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	streaks map[string]Streak
	rewards map[string]Rewards
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory engagement store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		streaks: make(map[string]Streak),
		rewards: make(map[string]Rewards),
	}
}

func (s *MemoryStore) GetStreak(_ context.Context, learnerID string) (Streak, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	streak, ok := s.streaks[learnerID]
	if !ok {
		return Streak{}, fmt.Errorf("streak for %s: %w", learnerID, errs.ErrNotFound)
	}
	return streak, nil
}

func (s *MemoryStore) PutStreak(_ context.Context, streak Streak) error {
	if streak.LearnerID == "" {
		return fmt.Errorf("%w: learner ID is required", errs.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streaks[streak.LearnerID] = streak
	return nil
}

func (s *MemoryStore) GetRewards(_ context.Context, learnerID string) (Rewards, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rewards, ok := s.rewards[learnerID]
	if !ok {
		return Rewards{}, fmt.Errorf("rewards for %s: %w", learnerID, errs.ErrNotFound)
	}
	return rewards, nil
}

func (s *MemoryStore) PutRewards(_ context.Context, rewards Rewards) error {
	if rewards.LearnerID == "" {
		return fmt.Errorf("%w: learner ID is required", errs.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rewards[rewards.LearnerID] = rewards
	return nil
}
