package progress

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

// NewPostgresStore creates a PostgreSQL-backed progress store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Get(ctx context.Context, learnerID, itemID string) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var rec Record
	err := s.pool.QueryRow(ctx,
		`SELECT learner_id, item_id, attempts, correct_count, last_seen, next_review, confidence
		 FROM progress_records
		 WHERE learner_id = $1 AND item_id = $2`,
		learnerID, itemID,
	).Scan(&rec.LearnerID, &rec.ItemID, &rec.Attempts, &rec.CorrectCount,
		&rec.LastSeen, &rec.NextReview, &rec.Confidence)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, fmt.Errorf("progress for %s/%s: %w", learnerID, itemID, errs.ErrNotFound)
		}
		return Record{}, fmt.Errorf("get progress: %w: %w", errs.ErrStorageUnavailable, err)
	}
	return rec, nil
}

func (s *PostgresStore) Put(ctx context.Context, rec Record) error {
	if rec.LearnerID == "" || rec.ItemID == "" {
		return fmt.Errorf("%w: learner and item IDs are required", errs.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO progress_records
		 (learner_id, item_id, attempts, correct_count, last_seen, next_review, confidence)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (learner_id, item_id) DO UPDATE SET
		   attempts = EXCLUDED.attempts,
		   correct_count = EXCLUDED.correct_count,
		   last_seen = EXCLUDED.last_seen,
		   next_review = EXCLUDED.next_review,
		   confidence = EXCLUDED.confidence`,
		rec.LearnerID, rec.ItemID, rec.Attempts, rec.CorrectCount,
		rec.LastSeen, rec.NextReview, rec.Confidence,
	)
	if err != nil {
		return fmt.Errorf("put progress: %w: %w", errs.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) ListByLearner(ctx context.Context, learnerID string) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT learner_id, item_id, attempts, correct_count, last_seen, next_review, confidence
		 FROM progress_records
		 WHERE learner_id = $1`,
		learnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w: %w", errs.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.LearnerID, &rec.ItemID, &rec.Attempts, &rec.CorrectCount,
			&rec.LastSeen, &rec.NextReview, &rec.Confidence); err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress: %w: %w", errs.ErrStorageUnavailable, err)
	}
	return recs, nil
}
