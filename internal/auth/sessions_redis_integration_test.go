package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/revisehub/revisehub/internal/auth"
	"github.com/revisehub/revisehub/internal/platform/cache"
	"github.com/revisehub/revisehub/internal/platform/errs"
)

// TestRedisTokenStore runs the Redis-backed session store against a
// real Redis instance. Requires Docker; skipped in short mode.
func TestRedisTokenStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := t.Context()
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("starting redis container: %v", err)
	}

	endpoint, err := ctr.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("endpoint: %v", err)
	}

	c, err := cache.New(ctx, "redis://"+endpoint)
	if err != nil {
		t.Fatalf("cache.New() error = %v", err)
	}
	defer c.Close()

	store := auth.NewRedisTokenStore(c)

	if _, err := store.Get(ctx, "missing-hash"); !errors.Is(err, errs.ErrUnauthenticated) {
		t.Fatalf("Get() on absent hash = %v, want ErrUnauthenticated", err)
	}

	if err := store.Put(ctx, "hash-1", "user_1", time.Minute); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	userID, err := store.Get(ctx, "hash-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if userID != "user_1" {
		t.Errorf("Get() = %q, want user_1", userID)
	}

	if err := store.Delete(ctx, "hash-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, "hash-1"); !errors.Is(err, errs.ErrUnauthenticated) {
		t.Errorf("Get() after Delete() = %v, want ErrUnauthenticated", err)
	}

	// Sessions expire with their key TTL.
	if err := store.Put(ctx, "hash-2", "user_2", 50*time.Millisecond); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	if _, err := store.Get(ctx, "hash-2"); !errors.Is(err, errs.ErrUnauthenticated) {
		t.Errorf("Get() after TTL = %v, want ErrUnauthenticated", err)
	}
}
