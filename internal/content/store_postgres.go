package content

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

// NewPostgresStore creates a PostgreSQL-backed content store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

const itemColumns = `id, grade, term, topic, COALESCE(subtopic, ''), difficulty,
	question_text, answer_text, COALESCE(explanation, ''), COALESCE(source, ''),
	alternate_answers, tags, created_at`

func (s *PostgresStore) Upsert(ctx context.Context, item Item) (Item, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if item.QuestionText == "" || item.AnswerText == "" {
		return Item{}, fmt.Errorf("%w: question and answer text are required", errs.ErrInvalidInput)
	}
	if item.ID == "" {
		item.ID = NewID()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO content_items
		 (id, grade, term, topic, subtopic, difficulty, question_text, answer_text,
		  explanation, source, alternate_answers, tags, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (id) DO UPDATE SET
		   grade = EXCLUDED.grade,
		   term = EXCLUDED.term,
		   topic = EXCLUDED.topic,
		   subtopic = EXCLUDED.subtopic,
		   difficulty = EXCLUDED.difficulty,
		   question_text = EXCLUDED.question_text,
		   answer_text = EXCLUDED.answer_text,
		   explanation = EXCLUDED.explanation,
		   source = EXCLUDED.source,
		   alternate_answers = EXCLUDED.alternate_answers,
		   tags = EXCLUDED.tags`,
		item.ID, item.Grade, item.Term, item.Topic, nullIfEmpty(item.Subtopic),
		string(item.Difficulty), item.QuestionText, item.AnswerText,
		nullIfEmpty(item.Explanation), nullIfEmpty(item.Source),
		notNil(item.AlternateAnswers), notNil(item.Tags), item.CreatedAt,
	)
	if err != nil {
		return Item{}, fmt.Errorf("upsert content: %w: %w", errs.ErrStorageUnavailable, err)
	}
	return item, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Item, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := s.pool.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM content_items WHERE id = $1`, id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, fmt.Errorf("content %s: %w", id, errs.ErrNotFound)
		}
		return Item{}, fmt.Errorf("get content: %w: %w", errs.ErrStorageUnavailable, err)
	}
	return item, nil
}

func (s *PostgresStore) GetMany(ctx context.Context, ids []string) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT `+itemColumns+` FROM content_items WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get content items: %w: %w", errs.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	byID := make(map[string]Item, len(ids))
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		byID[item.ID] = item
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate content: %w: %w", errs.ErrStorageUnavailable, err)
	}

	// Preserve the requested order.
	items := make([]Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			items = append(items, item)
		}
	}
	return items, nil
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]Item, error) {
	return s.list(ctx, f, nil, 0)
}

func (s *PostgresStore) ListExcluding(ctx context.Context, f Filter, exclude []string, limit int) ([]Item, error) {
	return s.list(ctx, f, exclude, limit)
}

func (s *PostgresStore) list(ctx context.Context, f Filter, exclude []string, limit int) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	// A nil slice would be encoded as SQL NULL, and NOT (id = ANY(NULL))
	// rejects every row.
	query := `SELECT ` + itemColumns + ` FROM content_items
		 WHERE ($1 = '' OR grade = $1)
		   AND ($2 = '' OR term = $2)
		   AND ($3 = '' OR topic = $3)
		   AND ($4 = '' OR difficulty = $4)
		   AND NOT (id = ANY($5))
		 ORDER BY created_at, id`
	args := []any{f.Grade, f.Term, f.Topic, string(f.Difficulty), notNil(exclude)}
	if limit > 0 {
		query += ` LIMIT $6`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list content: %w: %w", errs.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate content: %w: %w", errs.ErrStorageUnavailable, err)
	}
	return items, nil
}

func scanItem(row pgx.Row) (Item, error) {
	var item Item
	var difficulty string
	err := row.Scan(
		&item.ID, &item.Grade, &item.Term, &item.Topic, &item.Subtopic,
		&difficulty, &item.QuestionText, &item.AnswerText, &item.Explanation,
		&item.Source, &item.AlternateAnswers, &item.Tags, &item.CreatedAt,
	)
	if err != nil {
		return Item{}, err
	}
	item.Difficulty = Difficulty(difficulty)
	return item, nil
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}

// notNil keeps array parameters from being encoded as SQL NULL.
func notNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
