package cache_test

import (
	"errors"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/revisehub/revisehub/internal/platform/cache"
)

// TestJSONHelpers runs the JSON round-trip helpers against a real Redis
// instance. Requires Docker; skipped in short mode.
func TestJSONHelpers(t *testing.T) {
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
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	type snapshot struct {
		Streak int    `json:"streak"`
		Name   string `json:"name"`
	}

	var got snapshot
	if err := c.GetJSON(ctx, "dashboard:user_1", &got); !errors.Is(err, cache.ErrMiss) {
		t.Fatalf("GetJSON() on absent key = %v, want ErrMiss", err)
	}

	want := snapshot{Streak: 3, Name: "Amara"}
	if err := c.SetJSON(ctx, "dashboard:user_1", want, time.Minute); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}
	if err := c.GetJSON(ctx, "dashboard:user_1", &got); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if got != want {
		t.Errorf("GetJSON() = %+v, want %+v", got, want)
	}

	// Invalidating absent keys is not an error.
	if err := c.Invalidate(ctx, "dashboard:nobody"); err != nil {
		t.Errorf("Invalidate() on absent key = %v", err)
	}
	if err := c.Invalidate(ctx, "dashboard:user_1"); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if err := c.GetJSON(ctx, "dashboard:user_1", &got); !errors.Is(err, cache.ErrMiss) {
		t.Errorf("GetJSON() after Invalidate() = %v, want ErrMiss", err)
	}

	// Keys expire per their TTL.
	if err := c.SetJSON(ctx, "dashboard:user_2", want, 50*time.Millisecond); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	if err := c.GetJSON(ctx, "dashboard:user_2", &got); !errors.Is(err, cache.ErrMiss) {
		t.Errorf("GetJSON() after TTL = %v, want ErrMiss", err)
	}
}
