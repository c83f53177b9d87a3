package quiz

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

// PostgresSessionStore is a PostgreSQL-backed SessionStore.
type PostgresSessionStore struct {
	pool *pgxpool.Pool
}

// NewPostgresSessionStore creates a PostgreSQL-backed session store.
func NewPostgresSessionStore(pool *pgxpool.Pool) (*PostgresSessionStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresSessionStore{pool: pool}, nil
}

func (s *PostgresSessionStore) Create(ctx context.Context, sess Session) error {
	if sess.ID == "" || sess.LearnerID == "" {
		return fmt.Errorf("%w: session and learner IDs are required", errs.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO quiz_sessions (id, learner_id, started_at, completed_at, score, total_questions, item_ids)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sess.ID, sess.LearnerID, sess.StartedAt, sess.CompletedAt,
		sess.Score, sess.TotalQuestions, sess.ItemIDs,
	)
	if err != nil {
		return fmt.Errorf("create session: %w: %w", errs.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *PostgresSessionStore) Get(ctx context.Context, id string) (Session, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var sess Session
	err := s.pool.QueryRow(ctx,
		`SELECT id, learner_id, started_at, completed_at, score, total_questions, item_ids
		 FROM quiz_sessions WHERE id = $1`,
		id,
	).Scan(&sess.ID, &sess.LearnerID, &sess.StartedAt, &sess.CompletedAt,
		&sess.Score, &sess.TotalQuestions, &sess.ItemIDs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, fmt.Errorf("session %s: %w", id, errs.ErrNotFound)
		}
		return Session{}, fmt.Errorf("get session: %w: %w", errs.ErrStorageUnavailable, err)
	}
	return sess, nil
}

func (s *PostgresSessionStore) Update(ctx context.Context, sess Session) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx,
		`UPDATE quiz_sessions
		 SET completed_at = $2, score = $3
		 WHERE id = $1`,
		sess.ID, sess.CompletedAt, sess.Score,
	)
	if err != nil {
		return fmt.Errorf("update session: %w: %w", errs.ErrStorageUnavailable, err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", sess.ID, errs.ErrNotFound)
	}
	return nil
}

func (s *PostgresSessionStore) ListCompletedByLearner(ctx context.Context, learnerID string, limit int) ([]Session, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	query := `SELECT id, learner_id, started_at, completed_at, score, total_questions, item_ids
		 FROM quiz_sessions
		 WHERE learner_id = $1 AND completed_at IS NOT NULL
		 ORDER BY started_at DESC, id`
	args := []any{learnerID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w: %w", errs.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.LearnerID, &sess.StartedAt, &sess.CompletedAt,
			&sess.Score, &sess.TotalQuestions, &sess.ItemIDs); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w: %w", errs.ErrStorageUnavailable, err)
	}
	return sessions, nil
}

// PostgresEventStore is a PostgreSQL-backed EventStore.
type PostgresEventStore struct {
	pool *pgxpool.Pool
}

// NewPostgresEventStore creates a PostgreSQL-backed answer event store.
func NewPostgresEventStore(pool *pgxpool.Pool) (*PostgresEventStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresEventStore{pool: pool}, nil
}

func (s *PostgresEventStore) Append(ctx context.Context, evt AnswerEvent) error {
	if evt.ID == "" || evt.SessionID == "" {
		return fmt.Errorf("%w: event and session IDs are required", errs.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO answer_events (id, session_id, item_id, raw_answer, correct, confidence, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		evt.ID, evt.SessionID, evt.ItemID, evt.RawAnswer, evt.Correct, evt.Confidence, evt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append answer event: %w: %w", errs.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *PostgresEventStore) ListBySession(ctx context.Context, sessionID string) ([]AnswerEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, item_id, raw_answer, correct, confidence, created_at
		 FROM answer_events
		 WHERE session_id = $1
		 ORDER BY created_at, id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list answer events: %w: %w", errs.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var events []AnswerEvent
	for rows.Next() {
		var evt AnswerEvent
		if err := rows.Scan(&evt.ID, &evt.SessionID, &evt.ItemID, &evt.RawAnswer,
			&evt.Correct, &evt.Confidence, &evt.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan answer event: %w", err)
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answer events: %w: %w", errs.ErrStorageUnavailable, err)
	}
	return events, nil
}
