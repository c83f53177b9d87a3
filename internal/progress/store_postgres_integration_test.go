package progress_test

import (
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/revisehub/revisehub/internal/platform/database"
	"github.com/revisehub/revisehub/internal/platform/errs"
	"github.com/revisehub/revisehub/internal/progress"
)

// TestPostgresStore_RoundTrip runs the progress store against a real
// PostgreSQL instance. Requires Docker; skipped in short mode.
func TestPostgresStore_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := t.Context()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("revise"),
		tcpostgres.WithUsername("revise"),
		tcpostgres.WithPassword("revise"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	db, err := database.New(ctx, url, 5, 1)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	store, err := progress.NewPostgresStore(db.Pool)
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}

	if _, err := store.Get(ctx, "learner_1", "content_1"); !errs.NotFound(err) {
		t.Fatalf("Get() on empty store = %v, want ErrNotFound", err)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	next := now.Add(24 * time.Hour)
	rec := progress.Record{
		LearnerID:    "learner_1",
		ItemID:       "content_1",
		Attempts:     3,
		CorrectCount: 2,
		LastSeen:     &now,
		NextReview:   &next,
		Confidence:   2.0 / 3.0,
	}
	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get(ctx, "learner_1", "content_1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Attempts != 3 || got.CorrectCount != 2 {
		t.Errorf("Get() = %+v, want attempts=3 correct=2", got)
	}
	if !got.NextReview.Equal(next) {
		t.Errorf("NextReview = %v, want %v", got.NextReview, next)
	}

	// Put on an existing pair updates in place: still one record.
	rec.Attempts = 4
	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("Put() update error = %v", err)
	}
	recs, err := store.ListByLearner(ctx, "learner_1")
	if err != nil {
		t.Fatalf("ListByLearner() error = %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("ListByLearner() = %d records, want 1", len(recs))
	}
	if recs[0].Attempts != 4 {
		t.Errorf("Attempts = %d, want 4", recs[0].Attempts)
	}
}
