package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/revisehub/revisehub/internal/answer"
	"github.com/revisehub/revisehub/internal/content"
	"github.com/revisehub/revisehub/internal/engagement"
	"github.com/revisehub/revisehub/internal/platform/errs"
	"github.com/revisehub/revisehub/internal/progress"
)

const (
	defaultQuestionCount = 5
	defaultMaxQuestions  = 50
)

// EventSink receives answer events as they are recorded. Used for the
// live class feed; delivery is best-effort.
type EventSink interface {
	AnswerRecorded(learnerID string, evt AnswerEvent)
}

// Config holds dependencies for the quiz service.
type Config struct {
	Content    content.Store
	Progress   *progress.Tracker
	Engagement *engagement.Tracker
	Sessions   SessionStore
	Events     EventStore
	Sink       EventSink        // optional
	Now        func() time.Time // defaults to time.Now

	DefaultCount int // questions per session when unspecified (default 5)
	MaxCount     int // upper bound on requested question count (default 50)
}

// Service schedules quiz sessions and processes answers.
type Service struct {
	content    content.Store
	progress   *progress.Tracker
	engagement *engagement.Tracker
	sessions   SessionStore
	events     EventStore
	sink       EventSink
	now        func() time.Time

	defaultCount int
	maxCount     int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a quiz service.
func NewService(cfg Config) *Service {
	sessions := cfg.Sessions
	if sessions == nil {
		sessions = NewMemorySessionStore()
	}
	events := cfg.Events
	if events == nil {
		events = NewMemoryEventStore()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	defaultCount := cfg.DefaultCount
	if defaultCount <= 0 {
		defaultCount = defaultQuestionCount
	}
	maxCount := cfg.MaxCount
	if maxCount <= 0 {
		maxCount = defaultMaxQuestions
	}
	return &Service{
		content:      cfg.Content,
		progress:     cfg.Progress,
		engagement:   cfg.Engagement,
		sessions:     sessions,
		events:       events,
		sink:         cfg.Sink,
		now:          now,
		defaultCount: defaultCount,
		maxCount:     maxCount,
		locks:        make(map[string]*sync.Mutex),
	}
}

func (s *Service) learnerLock(learnerID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[learnerID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[learnerID] = lock
	}
	return lock
}

// StartParams narrows the fill query for a new session.
type StartParams struct {
	Grade      string
	Term       string
	Difficulty content.Difficulty
	Count      int
}

// Start assembles a new session: overdue reviews first (oldest due
// first), then new items matching the params, excluding anything the
// learner has ever attempted. An empty item list is not an error.
func (s *Service) Start(ctx context.Context, learnerID string, p StartParams) (Session, []content.Item, error) {
	if learnerID == "" {
		return Session{}, nil, fmt.Errorf("%w: learner ID is required", errs.ErrInvalidInput)
	}
	if p.Grade == "" {
		return Session{}, nil, fmt.Errorf("%w: grade is required", errs.ErrInvalidInput)
	}
	count := p.Count
	if count <= 0 {
		count = s.defaultCount
	}
	if count > s.maxCount {
		count = s.maxCount
	}

	lock := s.learnerLock(learnerID)
	lock.Lock()
	defer lock.Unlock()

	now := s.now()

	due, err := s.progress.DueItems(ctx, learnerID, now)
	if err != nil {
		return Session{}, nil, err
	}
	itemIDs := make([]string, 0, count)
	for _, rec := range due {
		itemIDs = append(itemIDs, rec.ItemID)
		if len(itemIDs) == count {
			break
		}
	}

	if len(itemIDs) < count {
		learned, err := s.progress.LearnedItemIDs(ctx, learnerID)
		if err != nil {
			return Session{}, nil, err
		}
		fill, err := s.content.ListExcluding(ctx, content.Filter{
			Grade:      p.Grade,
			Term:       p.Term,
			Difficulty: p.Difficulty,
		}, learned, count-len(itemIDs))
		if err != nil {
			return Session{}, nil, err
		}
		for _, item := range fill {
			itemIDs = append(itemIDs, item.ID)
		}
	}

	sess := Session{
		ID:             newSessionID(),
		LearnerID:      learnerID,
		StartedAt:      now,
		TotalQuestions: len(itemIDs),
		ItemIDs:        itemIDs,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return Session{}, nil, err
	}

	items, err := s.content.GetMany(ctx, itemIDs)
	if err != nil {
		return Session{}, nil, err
	}

	slog.Info("quiz session started",
		"session_id", sess.ID,
		"learner_id", learnerID,
		"review_items", len(due),
		"total_questions", sess.TotalQuestions,
	)
	return sess, items, nil
}

// AnswerResult is returned to the learner after each submission.
type AnswerResult struct {
	Correct       bool    `json:"correct"`
	Confidence    float64 `json:"confidence"`
	CorrectAnswer string  `json:"correct_answer"`
	Explanation   string  `json:"explanation,omitempty"`
}

// SubmitAnswer validates raw against the item, appends an answer event,
// updates the learner's progress record, and bumps the session score on
// a correct answer.
func (s *Service) SubmitAnswer(ctx context.Context, learnerID, sessionID, itemID, raw string) (AnswerResult, error) {
	lock := s.learnerLock(learnerID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return AnswerResult{}, err
	}
	if sess.LearnerID != learnerID {
		return AnswerResult{}, fmt.Errorf("session %s: %w", sessionID, errs.ErrForbidden)
	}
	if sess.Completed() {
		return AnswerResult{}, fmt.Errorf("session %s: %w", sessionID, errs.ErrAlreadyCompleted)
	}
	if !slices.Contains(sess.ItemIDs, itemID) {
		return AnswerResult{}, fmt.Errorf("%w: item %s is not part of session %s", errs.ErrInvalidInput, itemID, sessionID)
	}

	item, err := s.content.Get(ctx, itemID)
	if err != nil {
		return AnswerResult{}, err
	}

	verdict := answer.Validate(item, raw)

	evt := AnswerEvent{
		ID:         newAnswerID(),
		SessionID:  sessionID,
		ItemID:     itemID,
		RawAnswer:  raw,
		Correct:    verdict.Correct,
		Confidence: verdict.Confidence,
		CreatedAt:  s.now(),
	}
	if err := s.events.Append(ctx, evt); err != nil {
		return AnswerResult{}, err
	}

	if _, err := s.progress.RecordAnswer(ctx, learnerID, itemID, verdict.Correct); err != nil {
		return AnswerResult{}, err
	}

	if verdict.Correct {
		sess.Score++
		if err := s.sessions.Update(ctx, sess); err != nil {
			return AnswerResult{}, err
		}
	}

	if s.sink != nil {
		s.sink.AnswerRecorded(learnerID, evt)
	}

	return AnswerResult{
		Correct:       verdict.Correct,
		Confidence:    verdict.Confidence,
		CorrectAnswer: verdict.CanonicalAnswer,
		Explanation:   item.Explanation,
	}, nil
}

// CompletionResult summarizes a finished session.
type CompletionResult struct {
	Score    int `json:"score"`
	Total    int `json:"total"`
	XPEarned int `json:"xp_earned"`
}

// Complete transitions the session from active to completed and applies
// streak and reward updates. A second completion of the same session
// fails with ErrAlreadyCompleted rather than re-applying rewards.
func (s *Service) Complete(ctx context.Context, learnerID, sessionID string) (CompletionResult, error) {
	lock := s.learnerLock(learnerID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return CompletionResult{}, err
	}
	if sess.LearnerID != learnerID {
		return CompletionResult{}, fmt.Errorf("session %s: %w", sessionID, errs.ErrForbidden)
	}
	if sess.Completed() {
		return CompletionResult{}, fmt.Errorf("session %s: %w", sessionID, errs.ErrAlreadyCompleted)
	}

	now := s.now()
	sess.CompletedAt = &now
	if err := s.sessions.Update(ctx, sess); err != nil {
		return CompletionResult{}, err
	}

	outcome, err := s.engagement.SessionCompleted(ctx, learnerID, sess.Score, now)
	if err != nil {
		return CompletionResult{}, err
	}

	slog.Info("quiz session completed",
		"session_id", sessionID,
		"learner_id", learnerID,
		"score", sess.Score,
		"total", sess.TotalQuestions,
		"xp_earned", outcome.XPEarned,
	)
	return CompletionResult{
		Score:    sess.Score,
		Total:    sess.TotalQuestions,
		XPEarned: outcome.XPEarned,
	}, nil
}

// Recent returns the learner's most recent completed sessions.
func (s *Service) Recent(ctx context.Context, learnerID string, limit int) ([]Session, error) {
	return s.sessions.ListCompletedByLearner(ctx, learnerID, limit)
}
