package httpapi

import (
	"testing"
	"time"

	"github.com/revisehub/revisehub/internal/classroom"
	"github.com/revisehub/revisehub/internal/quiz"
)

func TestFeedFanOut(t *testing.T) {
	classes := classroom.NewMemoryStore()
	if err := classes.Create(t.Context(), classroom.Class{
		ID: "class_1", TeacherID: "user_t", Name: "Year 6 Maths",
		Code: "ABC123", StudentIDs: []string{"user_s"},
		CreatedAt: time.Now(),
	}); err != nil {
		t.Fatal(err)
	}

	feed := NewFeed(classes)
	ch := feed.subscribe("class_1")
	defer feed.unsubscribe("class_1", ch)

	feed.AnswerRecorded("user_s", quiz.AnswerEvent{
		ID: "answer_1", SessionID: "quiz_1", ItemID: "content_a",
		Correct: true, Confidence: 1.0, CreatedAt: time.Now(),
	})

	select {
	case evt := <-ch:
		if evt.ClassID != "class_1" || evt.LearnerID != "user_s" || !evt.Correct {
			t.Errorf("event = %+v", evt)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
	}
}

func TestFeedIgnoresUnenrolledLearners(t *testing.T) {
	classes := classroom.NewMemoryStore()
	if err := classes.Create(t.Context(), classroom.Class{
		ID: "class_1", TeacherID: "user_t", Name: "Year 6 Maths",
		Code: "ABC123", StudentIDs: []string{"user_s"},
		CreatedAt: time.Now(),
	}); err != nil {
		t.Fatal(err)
	}

	feed := NewFeed(classes)
	ch := feed.subscribe("class_1")
	defer feed.unsubscribe("class_1", ch)

	feed.AnswerRecorded("user_other", quiz.AnswerEvent{ID: "answer_1", SessionID: "quiz_1"})

	select {
	case evt := <-ch:
		t.Errorf("unexpected event %+v", evt)
	case <-time.After(100 * time.Millisecond):
	}
}
