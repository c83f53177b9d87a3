package auth

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

// PostgresUserStore is a PostgreSQL-backed UserStore implementation.
type PostgresUserStore struct {
	pool *pgxpool.Pool
}

// NewPostgresUserStore creates a PostgreSQL-backed user store.
func NewPostgresUserStore(pool *pgxpool.Pool) (*PostgresUserStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresUserStore{pool: pool}, nil
}

func (s *PostgresUserStore) Upsert(ctx context.Context, u User) (User, error) {
	if u.Email == "" {
		return User{}, fmt.Errorf("%w: email is required", errs.ErrInvalidInput)
	}
	if !u.Role.Valid() {
		return User{}, fmt.Errorf("%w: unknown role %q", errs.ErrInvalidInput, u.Role)
	}
	if u.ID == "" {
		u.ID = NewUserID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, name, role, picture, grade, parent_email, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   email = EXCLUDED.email,
		   name = EXCLUDED.name,
		   role = EXCLUDED.role,
		   picture = EXCLUDED.picture,
		   grade = EXCLUDED.grade,
		   parent_email = EXCLUDED.parent_email`,
		u.ID, u.Email, u.Name, string(u.Role),
		nullIfEmpty(u.Picture), nullIfEmpty(u.Grade), nullIfEmpty(u.ParentEmail),
		u.CreatedAt,
	)
	if err != nil {
		return User{}, fmt.Errorf("upsert user: %w: %w", errs.ErrStorageUnavailable, err)
	}
	return u, nil
}

func (s *PostgresUserStore) Get(ctx context.Context, id string) (User, error) {
	return s.getBy(ctx, "id", id)
}

func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (User, error) {
	return s.getBy(ctx, "email", email)
}

func (s *PostgresUserStore) getBy(ctx context.Context, column, value string) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var (
		u                     User
		role                  string
		picture, grade, pmail *string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, name, role, picture, grade, parent_email, created_at
		 FROM users WHERE `+column+` = $1`,
		value,
	).Scan(&u.ID, &u.Email, &u.Name, &role, &picture, &grade, &pmail, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, fmt.Errorf("user %s: %w", value, errs.ErrNotFound)
		}
		return User{}, fmt.Errorf("get user: %w: %w", errs.ErrStorageUnavailable, err)
	}
	u.Role = Role(role)
	if picture != nil {
		u.Picture = *picture
	}
	if grade != nil {
		u.Grade = *grade
	}
	if pmail != nil {
		u.ParentEmail = *pmail
	}
	return u, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
