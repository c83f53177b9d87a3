// Package quiz assembles quiz sessions by mixing overdue reviews with
// new material, routes answers through validation, and closes sessions
// out into streak and reward updates.
package quiz

import (
	"context"
	"crypto/rand"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/revisehub/revisehub/internal/platform/errs"
)

// Session is one quiz run for one learner.
type Session struct {
	ID             string     `json:"session_id"`
	LearnerID      string     `json:"learner_id"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Score          int        `json:"score"`
	TotalQuestions int        `json:"total_questions"`
	ItemIDs        []string   `json:"item_ids"`
}

// Completed reports whether the session has reached its terminal state.
func (s Session) Completed() bool { return s.CompletedAt != nil }

// AnswerEvent is one submitted answer. Events are append-only.
type AnswerEvent struct {
	ID         string    `json:"answer_id"`
	SessionID  string    `json:"session_id"`
	ItemID     string    `json:"item_id"`
	RawAnswer  string    `json:"user_answer"`
	Correct    bool      `json:"correct"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"timestamp"`
}

// SessionStore persists quiz sessions.
type SessionStore interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Update(ctx context.Context, s Session) error
	// ListCompletedByLearner returns completed sessions, newest first.
	ListCompletedByLearner(ctx context.Context, learnerID string, limit int) ([]Session, error)
}

// EventStore persists the append-only answer log.
type EventStore interface {
	Append(ctx context.Context, evt AnswerEvent) error
	ListBySession(ctx context.Context, sessionID string) ([]AnswerEvent, error)
}

// MemorySessionStore is an in-memory SessionStore implementation.
type MemorySessionStore struct {
	sessions map[string]Session
	mu       sync.RWMutex
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]Session)}
}

func (s *MemorySessionStore) Create(_ context.Context, sess Session) error {
	if sess.ID == "" || sess.LearnerID == "" {
		return fmt.Errorf("%w: session and learner IDs are required", errs.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("session %s: %w", id, errs.ErrNotFound)
	}
	return sess, nil
}

func (s *MemorySessionStore) Update(_ context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; !ok {
		return fmt.Errorf("session %s: %w", sess.ID, errs.ErrNotFound)
	}
	s.sessions[sess.ID] = sess
	return nil
}

func (s *MemorySessionStore) ListCompletedByLearner(_ context.Context, learnerID string, limit int) ([]Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sessions []Session
	for _, sess := range s.sessions {
		if sess.LearnerID == learnerID && sess.Completed() {
			sessions = append(sessions, sess)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].StartedAt.Equal(sessions[j].StartedAt) {
			return sessions[i].StartedAt.After(sessions[j].StartedAt)
		}
		return sessions[i].ID < sessions[j].ID
	})
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

// MemoryEventStore is an in-memory EventStore implementation.
type MemoryEventStore struct {
	events []AnswerEvent
	mu     sync.RWMutex
}

// NewMemoryEventStore creates a new in-memory answer event store.
func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{}
}

func (s *MemoryEventStore) Append(_ context.Context, evt AnswerEvent) error {
	if evt.ID == "" || evt.SessionID == "" {
		return fmt.Errorf("%w: event and session IDs are required", errs.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	return nil
}

func (s *MemoryEventStore) ListBySession(_ context.Context, sessionID string) ([]AnswerEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []AnswerEvent
	for _, evt := range s.events {
		if evt.SessionID == sessionID {
			events = append(events, evt)
		}
	}
	return events, nil
}

func newSessionID() string {
	b := make([]byte, 6)
	rand.Read(b)
	return fmt.Sprintf("quiz_%x", b)
}

func newAnswerID() string {
	b := make([]byte, 6)
	rand.Read(b)
	return fmt.Sprintf("answer_%x", b)
}
