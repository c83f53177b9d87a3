package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/revisehub/revisehub/internal/platform/cache"
	"github.com/revisehub/revisehub/internal/platform/errs"
)

// TokenStore maps hashed session tokens to user IDs. Entries expire
// after the TTL passed to Put.
type TokenStore interface {
	Put(ctx context.Context, tokenHash, userID string, ttl time.Duration) error
	Get(ctx context.Context, tokenHash string) (string, error)
	Delete(ctx context.Context, tokenHash string) error
}

// hashToken digests a bearer token for storage. Raw tokens never touch
// the store.
func hashToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Manager issues, resolves and revokes bearer-token sessions.
type Manager struct {
	users  UserStore
	tokens TokenStore
	ttl    time.Duration
	now    func() time.Time
}

// ManagerConfig holds the dependencies for a session manager.
type ManagerConfig struct {
	Users  UserStore
	Tokens TokenStore
	TTL    time.Duration
	Now    func() time.Time
}

// NewManager creates a session manager. A nil token store falls back to
// an in-memory one; the default TTL is seven days.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Users == nil {
		cfg.Users = NewMemoryUserStore()
	}
	if cfg.Tokens == nil {
		cfg.Tokens = NewMemoryTokenStore(cfg.Now)
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 7 * 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{users: cfg.Users, tokens: cfg.Tokens, ttl: cfg.TTL, now: cfg.Now}
}

// SignIn upserts the account for an externally verified identity and
// issues a session token. New accounts default to the student role;
// existing accounts keep their role and profile fields get refreshed.
func (m *Manager) SignIn(ctx context.Context, email, name, picture string) (User, string, error) {
	if email == "" {
		return User{}, "", fmt.Errorf("%w: email is required", errs.ErrInvalidInput)
	}

	u, err := m.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		u.Name = name
		u.Picture = picture
	case errs.NotFound(err):
		u = User{Email: email, Name: name, Picture: picture, Role: RoleStudent}
	default:
		return User{}, "", err
	}
	u, err = m.users.Upsert(ctx, u)
	if err != nil {
		return User{}, "", err
	}

	token, err := m.Issue(ctx, u.ID)
	if err != nil {
		return User{}, "", err
	}
	return u, token, nil
}

// Issue creates a session token for the given user.
func (m *Manager) Issue(ctx context.Context, userID string) (string, error) {
	if _, err := m.users.Get(ctx, userID); err != nil {
		return "", err
	}
	token := newToken()
	if err := m.tokens.Put(ctx, hashToken(token), userID, m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve returns the user behind a session token. Unknown or expired
// tokens yield ErrUnauthenticated.
func (m *Manager) Resolve(ctx context.Context, token string) (User, error) {
	if token == "" {
		return User{}, errs.ErrUnauthenticated
	}
	userID, err := m.tokens.Get(ctx, hashToken(token))
	if err != nil {
		return User{}, err
	}
	u, err := m.users.Get(ctx, userID)
	if err != nil {
		if errs.NotFound(err) {
			return User{}, fmt.Errorf("session without account: %w", errs.ErrUnauthenticated)
		}
		return User{}, err
	}
	return u, nil
}

// Revoke invalidates a session token. Revoking an unknown token is not
// an error.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.tokens.Delete(ctx, hashToken(token))
}

// UpdateRole changes a user's role after first login. The grade is only
// applied to students.
func (m *Manager) UpdateRole(ctx context.Context, userID string, role Role, grade string) (User, error) {
	if !role.Valid() {
		return User{}, fmt.Errorf("%w: unknown role %q", errs.ErrInvalidInput, role)
	}
	u, err := m.users.Get(ctx, userID)
	if err != nil {
		return User{}, err
	}
	u.Role = role
	if role == RoleStudent {
		if grade != "" {
			u.Grade = grade
		}
	} else {
		u.Grade = ""
	}
	return m.users.Upsert(ctx, u)
}

// RequireRole checks that the user holds one of the allowed roles.
func RequireRole(u User, allowed ...Role) error {
	for _, role := range allowed {
		if u.Role == role {
			return nil
		}
	}
	return fmt.Errorf("%w: role %s may not perform this operation", errs.ErrForbidden, u.Role)
}

type memoryToken struct {
	userID    string
	expiresAt time.Time
}

// MemoryTokenStore is an in-memory TokenStore implementation.
type MemoryTokenStore struct {
	now    func() time.Time
	tokens map[string]memoryToken
	mu     sync.Mutex
}

// NewMemoryTokenStore creates an in-memory token store. A nil clock
// defaults to time.Now.
func NewMemoryTokenStore(now func() time.Time) *MemoryTokenStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryTokenStore{now: now, tokens: make(map[string]memoryToken)}
}

func (s *MemoryTokenStore) Put(_ context.Context, tokenHash, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenHash] = memoryToken{userID: userID, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryTokenStore) Get(_ context.Context, tokenHash string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.tokens[tokenHash]
	if !ok {
		return "", errs.ErrUnauthenticated
	}
	if s.now().After(tok.expiresAt) {
		delete(s.tokens, tokenHash)
		return "", fmt.Errorf("session expired: %w", errs.ErrUnauthenticated)
	}
	return tok.userID, nil
}

func (s *MemoryTokenStore) Delete(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, tokenHash)
	return nil
}

// RedisTokenStore keeps session tokens in Redis so sessions survive
// restarts and are shared across instances. Expiry is delegated to
// Redis key TTLs.
type RedisTokenStore struct {
	cache *cache.Cache
}

// NewRedisTokenStore creates a Redis-backed token store.
func NewRedisTokenStore(c *cache.Cache) *RedisTokenStore {
	return &RedisTokenStore{cache: c}
}

func sessionKey(tokenHash string) string { return "session:" + tokenHash }

func (s *RedisTokenStore) Put(ctx context.Context, tokenHash, userID string, ttl time.Duration) error {
	if err := s.cache.SetJSON(ctx, sessionKey(tokenHash), userID, ttl); err != nil {
		return fmt.Errorf("store session: %w: %w", errs.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *RedisTokenStore) Get(ctx context.Context, tokenHash string) (string, error) {
	var userID string
	err := s.cache.GetJSON(ctx, sessionKey(tokenHash), &userID)
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return "", errs.ErrUnauthenticated
		}
		return "", fmt.Errorf("load session: %w: %w", errs.ErrStorageUnavailable, err)
	}
	return userID, nil
}

func (s *RedisTokenStore) Delete(ctx context.Context, tokenHash string) error {
	return s.cache.Invalidate(ctx, sessionKey(tokenHash))
}
