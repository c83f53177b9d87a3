package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/revisehub/revisehub/internal/platform/errs"
)

// User is one account. Grade and ParentEmail are only set for students.
type User struct {
	ID          string    `json:"user_id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Role        Role      `json:"role"`
	Picture     string    `json:"picture,omitempty"`
	Grade       string    `json:"grade,omitempty"`
	ParentEmail string    `json:"parent_email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserStore persists accounts.
type UserStore interface {
	Upsert(ctx context.Context, u User) (User, error)
	Get(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
}

// NewUserID generates an identifier for a new account.
func NewUserID() string {
	b := make([]byte, 6)
	rand.Read(b)
	return fmt.Sprintf("user_%x", b)
}

// MemoryUserStore is an in-memory UserStore implementation.
type MemoryUserStore struct {
	users map[string]User
	mu    sync.RWMutex
}

// NewMemoryUserStore creates a new in-memory user store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]User)}
}

func (s *MemoryUserStore) Upsert(_ context.Context, u User) (User, error) {
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
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return u, nil
}

func (s *MemoryUserStore) Get(_ context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, fmt.Errorf("user %s: %w", id, errs.ErrNotFound)
	}
	return u, nil
}

func (s *MemoryUserStore) GetByEmail(_ context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, fmt.Errorf("user %s: %w", email, errs.ErrNotFound)
}
