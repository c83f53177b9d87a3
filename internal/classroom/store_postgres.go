package classroom

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

// NewPostgresStore creates a PostgreSQL-backed class store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Create(ctx context.Context, c Class) error {
	if c.ID == "" || c.TeacherID == "" {
		return fmt.Errorf("%w: class and teacher IDs are required", errs.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO classes (id, teacher_id, name, join_code, student_ids, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.TeacherID, c.Name, c.Code, c.StudentIDs, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create class: %w: %w", errs.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Class, error) {
	return s.getWhere(ctx, "id = $1", id)
}

func (s *PostgresStore) GetByCode(ctx context.Context, code string) (Class, error) {
	return s.getWhere(ctx, "join_code = $1", code)
}

func (s *PostgresStore) getWhere(ctx context.Context, where, arg string) (Class, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var c Class
	err := s.pool.QueryRow(ctx,
		`SELECT id, teacher_id, name, join_code, student_ids, created_at
		 FROM classes WHERE `+where,
		arg,
	).Scan(&c.ID, &c.TeacherID, &c.Name, &c.Code, &c.StudentIDs, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Class{}, fmt.Errorf("class %s: %w", arg, errs.ErrNotFound)
		}
		return Class{}, fmt.Errorf("get class: %w: %w", errs.ErrStorageUnavailable, err)
	}
	return c, nil
}

func (s *PostgresStore) Update(ctx context.Context, c Class) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := s.pool.Exec(ctx,
		`UPDATE classes SET name = $2, join_code = $3, student_ids = $4 WHERE id = $1`,
		c.ID, c.Name, c.Code, c.StudentIDs,
	)
	if err != nil {
		return fmt.Errorf("update class: %w: %w", errs.ErrStorageUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("class %s: %w", c.ID, errs.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListByTeacher(ctx context.Context, teacherID string) ([]Class, error) {
	return s.listWhere(ctx, "teacher_id = $1", teacherID)
}

func (s *PostgresStore) ListByStudent(ctx context.Context, studentID string) ([]Class, error) {
	return s.listWhere(ctx, "$1 = ANY(student_ids)", studentID)
}

func (s *PostgresStore) listWhere(ctx context.Context, where, arg string) ([]Class, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, teacher_id, name, join_code, student_ids, created_at
		 FROM classes
		 WHERE `+where+`
		 ORDER BY created_at, id`,
		arg,
	)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w: %w", errs.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var classes []Class
	for rows.Next() {
		var c Class
		if err := rows.Scan(&c.ID, &c.TeacherID, &c.Name, &c.Code, &c.StudentIDs, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		classes = append(classes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate classes: %w: %w", errs.ErrStorageUnavailable, err)
	}
	return classes, nil
}
