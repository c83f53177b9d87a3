package progress

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/revisehub/revisehub/internal/platform/errs"
)

// Review intervals. The policy is a simplified spaced-repetition
// schedule keyed off the running accuracy ratio, not SM-2.
const (
	intervalStrong    = 7 * 24 * time.Hour // confidence >= 0.9
	intervalSteady    = 3 * 24 * time.Hour // confidence >= 0.7
	intervalWeak      = 24 * time.Hour
	intervalIncorrect = 12 * time.Hour

	strongThreshold = 0.9
	steadyThreshold = 0.7

	// MasteryThreshold is the confidence at which an item counts as mastered.
	MasteryThreshold = 0.8
)

// Config holds dependencies for the progress tracker.
type Config struct {
	Store Store
	Now   func() time.Time // defaults to time.Now
}

// Tracker applies the review policy on top of a Store. Writes for the
// same learner are serialized to keep the read-modify-write on
// attempts/correct counts safe under concurrent submissions.
type Tracker struct {
	store Store
	now   func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewTracker creates a progress tracker.
func NewTracker(cfg Config) *Tracker {
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		store: store,
		now:   now,
		locks: make(map[string]*sync.Mutex),
	}
}

// learnerLock returns the mutex guarding one learner's records.
func (t *Tracker) learnerLock(learnerID string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	lock, ok := t.locks[learnerID]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[learnerID] = lock
	}
	return lock
}

// RecordAnswer updates the learner's record for one item and computes
// the next review time. First attempt: one day out when correct,
// twelve hours when not. Later attempts follow the running confidence:
// correct answers push the review out 7d/3d/1d by confidence tier,
// incorrect answers always pull it in to twelve hours.
func (t *Tracker) RecordAnswer(ctx context.Context, learnerID, itemID string, wasCorrect bool) (Record, error) {
	if learnerID == "" || itemID == "" {
		return Record{}, fmt.Errorf("%w: learner and item IDs are required", errs.ErrInvalidInput)
	}

	lock := t.learnerLock(learnerID)
	lock.Lock()
	defer lock.Unlock()

	now := t.now()
	rec, err := t.store.Get(ctx, learnerID, itemID)
	switch {
	case errs.NotFound(err):
		rec = Record{
			LearnerID: learnerID,
			ItemID:    itemID,
			Attempts:  1,
		}
		if wasCorrect {
			rec.CorrectCount = 1
			rec.Confidence = 1.0
		}
		next := now.Add(intervalWeak)
		if !wasCorrect {
			next = now.Add(intervalIncorrect)
		}
		rec.LastSeen = &now
		rec.NextReview = &next
	case err != nil:
		return Record{}, err
	default:
		rec.Attempts++
		if wasCorrect {
			rec.CorrectCount++
		}
		rec.Confidence = float64(rec.CorrectCount) / float64(rec.Attempts)
		next := now.Add(nextInterval(wasCorrect, rec.Confidence))
		rec.LastSeen = &now
		rec.NextReview = &next
	}

	if err := t.store.Put(ctx, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func nextInterval(wasCorrect bool, confidence float64) time.Duration {
	if !wasCorrect {
		return intervalIncorrect
	}
	switch {
	case confidence >= strongThreshold:
		return intervalStrong
	case confidence >= steadyThreshold:
		return intervalSteady
	default:
		return intervalWeak
	}
}

// DueItems returns the learner's records whose next review is at or
// before asOf, ordered by next review time then item ID.
func (t *Tracker) DueItems(ctx context.Context, learnerID string, asOf time.Time) ([]Record, error) {
	recs, err := t.store.ListByLearner(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	var due []Record
	for _, rec := range recs {
		if rec.NextReview != nil && !rec.NextReview.After(asOf) {
			due = append(due, rec)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].NextReview.Equal(*due[j].NextReview) {
			return due[i].NextReview.Before(*due[j].NextReview)
		}
		return due[i].ItemID < due[j].ItemID
	})
	return due, nil
}

// LearnedItemIDs returns every item the learner has attempted at least
// once, regardless of mastery.
func (t *Tracker) LearnedItemIDs(ctx context.Context, learnerID string) ([]string, error) {
	recs, err := t.store.ListByLearner(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.ItemID)
	}
	sort.Strings(ids)
	return ids, nil
}

// Records returns all of the learner's progress records ordered by
// item ID.
func (t *Tracker) Records(ctx context.Context, learnerID string) ([]Record, error) {
	recs, err := t.store.ListByLearner(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ItemID < recs[j].ItemID })
	return recs, nil
}

// MasteredCount returns how many of the learner's items meet threshold.
// A non-positive threshold falls back to MasteryThreshold.
func (t *Tracker) MasteredCount(ctx context.Context, learnerID string, threshold float64) (int, error) {
	if threshold <= 0 {
		threshold = MasteryThreshold
	}
	recs, err := t.store.ListByLearner(ctx, learnerID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, rec := range recs {
		if rec.Attempts > 0 && rec.Confidence >= threshold {
			count++
		}
	}
	return count, nil
}

// Stats is the aggregate view used by the student dashboard.
type Stats struct {
	TotalItems   int `json:"total_items"`
	Mastered     int `json:"mastered"`
	DueForReview int `json:"due_for_review"`
}

// StatsFor computes the learner's aggregate progress as of asOf.
func (t *Tracker) StatsFor(ctx context.Context, learnerID string, asOf time.Time) (Stats, error) {
	recs, err := t.store.ListByLearner(ctx, learnerID)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{TotalItems: len(recs)}
	for _, rec := range recs {
		if rec.Attempts > 0 && rec.Confidence >= MasteryThreshold {
			stats.Mastered++
		}
		if rec.NextReview != nil && !rec.NextReview.After(asOf) {
			stats.DueForReview++
		}
	}
	return stats, nil
}

// WeakItems returns records below the steady-confidence threshold,
// most recently seen first. Backs the review bank.
func (t *Tracker) WeakItems(ctx context.Context, learnerID string, limit int) ([]Record, error) {
	recs, err := t.store.ListByLearner(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	var weak []Record
	for _, rec := range recs {
		if rec.Confidence < steadyThreshold {
			weak = append(weak, rec)
		}
	}
	sort.Slice(weak, func(i, j int) bool {
		ti, tj := weak[i].LastSeen, weak[j].LastSeen
		switch {
		case ti == nil && tj == nil:
			return weak[i].ItemID < weak[j].ItemID
		case ti == nil:
			return false
		case tj == nil:
			return true
		case !ti.Equal(*tj):
			return ti.After(*tj)
		}
		return weak[i].ItemID < weak[j].ItemID
	})
	if limit > 0 && len(weak) > limit {
		weak = weak[:limit]
	}
	return weak, nil
}
