package engagement

import (
	"context"
	"sync"
	"time"

	"github.com/revisehub/revisehub/internal/platform/errs"
)

const xpPerCorrect = 10

// Outcome reports the engagement updates applied for one completed session.
type Outcome struct {
	XPEarned int     `json:"xp_earned"`
	Streak   Streak  `json:"streak"`
	Rewards  Rewards `json:"rewards"`
}

// Tracker applies streak and reward updates at session completion.
// Updates for the same learner are serialized.
type Tracker struct {
	store Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewTracker creates an engagement tracker over store.
func NewTracker(store Store) *Tracker {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Tracker{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

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

// SessionCompleted updates the learner's streak and rewards for a
// session with the given score, completed at now. Missing records are
// initialized on first use.
func (t *Tracker) SessionCompleted(ctx context.Context, learnerID string, score int, now time.Time) (Outcome, error) {
	lock := t.learnerLock(learnerID)
	lock.Lock()
	defer lock.Unlock()

	streak, err := t.updateStreak(ctx, learnerID, now)
	if err != nil {
		return Outcome{}, err
	}

	rewards, xpEarned, err := t.updateRewards(ctx, learnerID, score)
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{XPEarned: xpEarned, Streak: streak, Rewards: rewards}, nil
}

func (t *Tracker) updateStreak(ctx context.Context, learnerID string, now time.Time) (Streak, error) {
	streak, err := t.store.GetStreak(ctx, learnerID)
	if err != nil && !errs.NotFound(err) {
		return Streak{}, err
	}
	streak.LearnerID = learnerID

	switch {
	case streak.LastQuizDate == nil:
		streak.CurrentStreak = 1
	default:
		switch daysBetween(*streak.LastQuizDate, now) {
		case 0:
			// Already quizzed today; streak unchanged.
		case 1:
			streak.CurrentStreak++
		default:
			streak.CurrentStreak = 1
		}
	}
	if streak.CurrentStreak > streak.LongestStreak {
		streak.LongestStreak = streak.CurrentStreak
	}
	streak.LastQuizDate = &now

	if err := t.store.PutStreak(ctx, streak); err != nil {
		return Streak{}, err
	}
	return streak, nil
}

func (t *Tracker) updateRewards(ctx context.Context, learnerID string, score int) (Rewards, int, error) {
	rewards, err := t.store.GetRewards(ctx, learnerID)
	if err != nil {
		if !errs.NotFound(err) {
			return Rewards{}, 0, err
		}
		rewards = Rewards{LearnerID: learnerID, Level: 1}
	}

	xpEarned := score * xpPerCorrect
	rewards.XP += xpEarned
	// Level thresholds use the current level each iteration, so each
	// level costs more total XP than the last.
	for rewards.XP >= rewards.Level*100 {
		rewards.Level++
	}

	if err := t.store.PutRewards(ctx, rewards); err != nil {
		return Rewards{}, 0, err
	}
	return rewards, xpEarned, nil
}

// daysBetween returns the calendar-date difference from a to b,
// ignoring time of day.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// StreakFor returns the learner's streak, zero-valued when absent.
func (t *Tracker) StreakFor(ctx context.Context, learnerID string) (Streak, error) {
	streak, err := t.store.GetStreak(ctx, learnerID)
	if err != nil {
		if errs.NotFound(err) {
			return Streak{LearnerID: learnerID}, nil
		}
		return Streak{}, err
	}
	return streak, nil
}

// RewardsFor returns the learner's rewards, initialized at level 1 when absent.
func (t *Tracker) RewardsFor(ctx context.Context, learnerID string) (Rewards, error) {
	rewards, err := t.store.GetRewards(ctx, learnerID)
	if err != nil {
		if errs.NotFound(err) {
			return Rewards{LearnerID: learnerID, Level: 1}, nil
		}
		return Rewards{}, err
	}
	return rewards, nil
}
