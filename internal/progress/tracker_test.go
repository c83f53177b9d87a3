package progress_test

import (
	"sync"
	"testing"
	"time"

	"github.com/revisehub/revisehub/internal/progress"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTracker(now time.Time) *progress.Tracker {
	return progress.NewTracker(progress.Config{Now: fixedClock(now)})
}

func TestRecordAnswer_FirstAttempt(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		correct      bool
		wantCorrect  int
		wantConf     float64
		wantInterval time.Duration
	}{
		{"correct", true, 1, 1.0, 24 * time.Hour},
		{"incorrect", false, 0, 0.0, 12 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := newTracker(now)
			rec, err := tracker.RecordAnswer(t.Context(), "learner_1", "content_1", tt.correct)
			if err != nil {
				t.Fatalf("RecordAnswer() error = %v", err)
			}
			if rec.Attempts != 1 {
				t.Errorf("Attempts = %d, want 1", rec.Attempts)
			}
			if rec.CorrectCount != tt.wantCorrect {
				t.Errorf("CorrectCount = %d, want %d", rec.CorrectCount, tt.wantCorrect)
			}
			if rec.Confidence != tt.wantConf {
				t.Errorf("Confidence = %v, want %v", rec.Confidence, tt.wantConf)
			}
			if !rec.LastSeen.Equal(now) {
				t.Errorf("LastSeen = %v, want %v", rec.LastSeen, now)
			}
			if want := now.Add(tt.wantInterval); !rec.NextReview.Equal(want) {
				t.Errorf("NextReview = %v, want %v", rec.NextReview, want)
			}
		})
	}
}

func TestRecordAnswer_ConfidenceInvariant(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	tracker := newTracker(now)

	answers := []bool{true, false, true, true, false, true, true}
	correct := 0
	for i, ok := range answers {
		rec, err := tracker.RecordAnswer(t.Context(), "learner_1", "content_1", ok)
		if err != nil {
			t.Fatalf("RecordAnswer() error = %v", err)
		}
		if ok {
			correct++
		}
		if rec.Attempts != i+1 {
			t.Fatalf("Attempts = %d, want %d", rec.Attempts, i+1)
		}
		want := float64(correct) / float64(i+1)
		if rec.Confidence != want {
			t.Errorf("after %d answers: Confidence = %v, want %v", i+1, rec.Confidence, want)
		}
	}
}

func TestRecordAnswer_IntervalTiers(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("three straight correct reaches a week", func(t *testing.T) {
		tracker := newTracker(now)
		var rec progress.Record
		for range 3 {
			var err error
			rec, err = tracker.RecordAnswer(t.Context(), "learner_1", "content_1", true)
			if err != nil {
				t.Fatalf("RecordAnswer() error = %v", err)
			}
		}
		if want := now.Add(7 * 24 * time.Hour); !rec.NextReview.Equal(want) {
			t.Errorf("NextReview = %v, want %v", rec.NextReview, want)
		}
	})

	t.Run("middling confidence gets three days", func(t *testing.T) {
		tracker := newTracker(now)
		// correct, incorrect, correct, correct => 3/4 = 0.75.
		for _, ok := range []bool{true, false, true} {
			if _, err := tracker.RecordAnswer(t.Context(), "learner_1", "content_1", ok); err != nil {
				t.Fatal(err)
			}
		}
		rec, err := tracker.RecordAnswer(t.Context(), "learner_1", "content_1", true)
		if err != nil {
			t.Fatal(err)
		}
		if rec.Confidence != 0.75 {
			t.Fatalf("Confidence = %v, want 0.75", rec.Confidence)
		}
		if want := now.Add(3 * 24 * time.Hour); !rec.NextReview.Equal(want) {
			t.Errorf("NextReview = %v, want %v", rec.NextReview, want)
		}
	})

	t.Run("incorrect always pulls in twelve hours", func(t *testing.T) {
		tracker := newTracker(now)
		for range 9 {
			if _, err := tracker.RecordAnswer(t.Context(), "learner_1", "content_1", true); err != nil {
				t.Fatal(err)
			}
		}
		rec, err := tracker.RecordAnswer(t.Context(), "learner_1", "content_1", false)
		if err != nil {
			t.Fatal(err)
		}
		if want := now.Add(12 * time.Hour); !rec.NextReview.Equal(want) {
			t.Errorf("NextReview = %v, want %v", rec.NextReview, want)
		}
	})
}

func TestRecordAnswer_SeparateRecordsPerItem(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	tracker := newTracker(now)

	if _, err := tracker.RecordAnswer(t.Context(), "learner_1", "content_1", true); err != nil {
		t.Fatal(err)
	}
	rec, err := tracker.RecordAnswer(t.Context(), "learner_1", "content_2", false)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1 (fresh record per item)", rec.Attempts)
	}
}

func TestRecordAnswer_ConcurrentSameItem(t *testing.T) {
	tracker := progress.NewTracker(progress.Config{})

	const n = 50
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := tracker.RecordAnswer(t.Context(), "learner_1", "content_1", true); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	recs, err := tracker.DueItems(t.Context(), "learner_1", time.Now().Add(365*24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
	if recs[0].Attempts != n {
		t.Errorf("Attempts = %d, want %d (no lost updates)", recs[0].Attempts, n)
	}
}

func TestDueItems_OrderAndCutoff(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	store := progress.NewMemoryStore()
	tracker := progress.NewTracker(progress.Config{Store: store, Now: fixedClock(now)})

	put := func(itemID string, next time.Time) {
		t.Helper()
		if err := store.Put(t.Context(), progress.Record{
			LearnerID: "learner_1", ItemID: itemID,
			Attempts: 1, NextReview: &next,
		}); err != nil {
			t.Fatal(err)
		}
	}
	put("content_late", now.Add(-time.Hour))
	put("content_early", now.Add(-2*time.Hour))
	put("content_future", now.Add(time.Hour))
	put("content_boundary", now)

	due, err := tracker.DueItems(t.Context(), "learner_1", now)
	if err != nil {
		t.Fatalf("DueItems() error = %v", err)
	}
	if len(due) != 3 {
		t.Fatalf("due = %d records, want 3", len(due))
	}
	wantOrder := []string{"content_early", "content_late", "content_boundary"}
	for i, want := range wantOrder {
		if due[i].ItemID != want {
			t.Errorf("due[%d] = %s, want %s", i, due[i].ItemID, want)
		}
	}
}

func TestAggregates(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	store := progress.NewMemoryStore()
	tracker := progress.NewTracker(progress.Config{Store: store, Now: fixedClock(now)})

	past := now.Add(-time.Hour)
	future := now.Add(48 * time.Hour)
	recs := []progress.Record{
		{LearnerID: "learner_1", ItemID: "content_a", Attempts: 5, CorrectCount: 5, Confidence: 1.0, NextReview: &future},
		{LearnerID: "learner_1", ItemID: "content_b", Attempts: 5, CorrectCount: 4, Confidence: 0.8, NextReview: &past, LastSeen: &past},
		{LearnerID: "learner_1", ItemID: "content_c", Attempts: 4, CorrectCount: 1, Confidence: 0.25, NextReview: &past, LastSeen: &now},
		{LearnerID: "learner_2", ItemID: "content_a", Attempts: 1, CorrectCount: 0, Confidence: 0, NextReview: &past},
	}
	for _, rec := range recs {
		if err := store.Put(t.Context(), rec); err != nil {
			t.Fatal(err)
		}
	}

	mastered, err := tracker.MasteredCount(t.Context(), "learner_1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if mastered != 2 {
		t.Errorf("MasteredCount = %d, want 2 (threshold 0.8 inclusive)", mastered)
	}

	ids, err := tracker.LearnedItemIDs(t.Context(), "learner_1")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 {
		t.Errorf("LearnedItemIDs = %v, want 3 entries", ids)
	}

	stats, err := tracker.StatsFor(t.Context(), "learner_1", now)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalItems != 3 || stats.Mastered != 2 || stats.DueForReview != 2 {
		t.Errorf("StatsFor = %+v, want {3 2 2}", stats)
	}

	weak, err := tracker.WeakItems(t.Context(), "learner_1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(weak) != 1 || weak[0].ItemID != "content_c" {
		t.Errorf("WeakItems = %v, want [content_c]", weak)
	}
}
