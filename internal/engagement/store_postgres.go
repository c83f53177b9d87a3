package engagement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/revisehub/revisehub/internal/platform/errs"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed engagement store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) GetStreak(ctx context.Context, learnerID string) (Streak, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var streak Streak
	err := s.pool.QueryRow(ctx,
		`SELECT learner_id, current_streak, longest_streak, last_quiz_date
		 FROM streaks WHERE learner_id = $1`,
		learnerID,
	).Scan(&streak.LearnerID, &streak.CurrentStreak, &streak.LongestStreak, &streak.LastQuizDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Streak{}, fmt.Errorf("streak for %s: %w", learnerID, errs.ErrNotFound)
		}
		return Streak{}, fmt.Errorf("get streak: %w: %w", errs.ErrStorageUnavailable, err)
	}
	return streak, nil
}

func (s *PostgresStore) PutStreak(ctx context.Context, streak Streak) error {
	if streak.LearnerID == "" {
		return fmt.Errorf("%w: learner ID is required", errs.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO streaks (learner_id, current_streak, longest_streak, last_quiz_date)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (learner_id) DO UPDATE SET
		   current_streak = EXCLUDED.current_streak,
		   longest_streak = EXCLUDED.longest_streak,
		   last_quiz_date = EXCLUDED.last_quiz_date`,
		streak.LearnerID, streak.CurrentStreak, streak.LongestStreak, streak.LastQuizDate,
	)
	if err != nil {
		return fmt.Errorf("put streak: %w: %w", errs.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) GetRewards(ctx context.Context, learnerID string) (Rewards, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var rewards Rewards
	err := s.pool.QueryRow(ctx,
		`SELECT learner_id, xp, level, badges FROM rewards WHERE learner_id = $1`,
		learnerID,
	).Scan(&rewards.LearnerID, &rewards.XP, &rewards.Level, &rewards.Badges)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Rewards{}, fmt.Errorf("rewards for %s: %w", learnerID, errs.ErrNotFound)
		}
		return Rewards{}, fmt.Errorf("get rewards: %w: %w", errs.ErrStorageUnavailable, err)
	}
	return rewards, nil
}

func (s *PostgresStore) PutRewards(ctx context.Context, rewards Rewards) error {
	if rewards.LearnerID == "" {
		return fmt.Errorf("%w: learner ID is required", errs.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	// The badges column is NOT NULL and a nil slice encodes as NULL.
	badges := rewards.Badges
	if badges == nil {
		badges = []string{}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO rewards (learner_id, xp, level, badges)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (learner_id) DO UPDATE SET
		   xp = EXCLUDED.xp,
		   level = EXCLUDED.level,
		   badges = EXCLUDED.badges`,
		rewards.LearnerID, rewards.XP, rewards.Level, badges,
	)
	if err != nil {
		return fmt.Errorf("put rewards: %w: %w", errs.ErrStorageUnavailable, err)
	}
	return nil
}
