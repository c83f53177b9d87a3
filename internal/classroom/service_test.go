package classroom_test

import (
	"testing"
	"time"

	"github.com/revisehub/revisehub/internal/auth"
	"github.com/revisehub/revisehub/internal/classroom"
	"github.com/revisehub/revisehub/internal/content"
	"github.com/revisehub/revisehub/internal/engagement"
	"github.com/revisehub/revisehub/internal/platform/errs"
	"github.com/revisehub/revisehub/internal/progress"
)

type fixture struct {
	users      *auth.MemoryUserStore
	content    *content.MemoryStore
	progress   *progress.Tracker
	engagement *engagement.Tracker
	service    *classroom.Service
	teacher    auth.User
	now        time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	users := auth.NewMemoryUserStore()
	contentStore := content.NewMemoryStore()
	tracker := progress.NewTracker(progress.Config{Now: func() time.Time { return now }})
	eng := engagement.NewTracker(nil)

	teacher, err := users.Upsert(t.Context(), auth.User{
		Email: "teacher@example.com", Name: "Ms Obi", Role: auth.RoleTeacher,
	})
	if err != nil {
		t.Fatal(err)
	}

	service := classroom.NewService(classroom.Config{
		Users:      users,
		Content:    contentStore,
		Progress:   tracker,
		Engagement: eng,
		Now:        func() time.Time { return now },
	})
	return &fixture{
		users: users, content: contentStore, progress: tracker,
		engagement: eng, service: service, teacher: teacher, now: now,
	}
}

func (f *fixture) addStudent(t *testing.T, email, name string) auth.User {
	t.Helper()
	u, err := f.users.Upsert(t.Context(), auth.User{Email: email, Name: name, Role: auth.RoleStudent, Grade: "Year6"})
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestCreateAndList(t *testing.T) {
	f := newFixture(t)

	c, err := f.service.Create(t.Context(), f.teacher, "Year 6 Maths")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if c.Code == "" || c.ID == "" {
		t.Errorf("class missing ID or join code: %+v", c)
	}
	if len(c.StudentIDs) != 0 {
		t.Errorf("new class has students: %v", c.StudentIDs)
	}

	classes, err := f.service.List(t.Context(), f.teacher)
	if err != nil {
		t.Fatal(err)
	}
	if len(classes) != 1 || classes[0].ID != c.ID {
		t.Errorf("List() = %v, want the created class", classes)
	}
}

func TestCreate_RoleGate(t *testing.T) {
	f := newFixture(t)
	student := f.addStudent(t, "amara@example.com", "Amara")

	if _, err := f.service.Create(t.Context(), student, "Sneaky Class"); !errs.Forbidden(err) {
		t.Errorf("Create() by student = %v, want ErrForbidden", err)
	}
}

func TestAddStudent(t *testing.T) {
	f := newFixture(t)
	student := f.addStudent(t, "amara@example.com", "Amara")
	c, err := f.service.Create(t.Context(), f.teacher, "Year 6 Maths")
	if err != nil {
		t.Fatal(err)
	}

	if err := f.service.AddStudent(t.Context(), f.teacher, c.ID, "amara@example.com"); err != nil {
		t.Fatalf("AddStudent() error = %v", err)
	}
	// Enrolling twice stays a single membership.
	if err := f.service.AddStudent(t.Context(), f.teacher, c.ID, "amara@example.com"); err != nil {
		t.Fatalf("second AddStudent() error = %v", err)
	}

	classes, err := f.service.List(t.Context(), f.teacher)
	if err != nil {
		t.Fatal(err)
	}
	if len(classes[0].StudentIDs) != 1 || classes[0].StudentIDs[0] != student.ID {
		t.Errorf("StudentIDs = %v, want [%s]", classes[0].StudentIDs, student.ID)
	}
}

func TestAddStudent_Guards(t *testing.T) {
	f := newFixture(t)
	c, err := f.service.Create(t.Context(), f.teacher, "Year 6 Maths")
	if err != nil {
		t.Fatal(err)
	}

	t.Run("unknown email", func(t *testing.T) {
		err := f.service.AddStudent(t.Context(), f.teacher, c.ID, "nobody@example.com")
		if !errs.NotFound(err) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
	t.Run("non-student account", func(t *testing.T) {
		err := f.service.AddStudent(t.Context(), f.teacher, c.ID, "teacher@example.com")
		if !errs.NotFound(err) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
	t.Run("someone else's class", func(t *testing.T) {
		other, err := f.users.Upsert(t.Context(), auth.User{
			Email: "other@example.com", Name: "Mr Ade", Role: auth.RoleTeacher,
		})
		if err != nil {
			t.Fatal(err)
		}
		f.addStudent(t, "kofi@example.com", "Kofi")
		if err := f.service.AddStudent(t.Context(), other, c.ID, "kofi@example.com"); !errs.Forbidden(err) {
			t.Errorf("error = %v, want ErrForbidden", err)
		}
	})
}

func TestJoinByCode(t *testing.T) {
	f := newFixture(t)
	student := f.addStudent(t, "amara@example.com", "Amara")
	c, err := f.service.Create(t.Context(), f.teacher, "Year 6 Maths")
	if err != nil {
		t.Fatal(err)
	}

	joined, err := f.service.Join(t.Context(), student, c.Code)
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if joined.ID != c.ID {
		t.Errorf("joined class = %s, want %s", joined.ID, c.ID)
	}

	if _, err := f.service.Join(t.Context(), student, "NOSUCH"); !errs.NotFound(err) {
		t.Errorf("Join(bad code) = %v, want ErrNotFound", err)
	}
}

func TestAnalytics(t *testing.T) {
	f := newFixture(t)
	amara := f.addStudent(t, "amara@example.com", "Amara")
	kofi := f.addStudent(t, "kofi@example.com", "Kofi")

	seed := func(id, topic string) {
		if _, err := f.content.Upsert(t.Context(), content.Item{
			ID: id, Grade: "Year6", Term: "Autumn", Topic: topic,
			Difficulty: content.DifficultyMedium, QuestionText: "q", AnswerText: "a",
			CreatedAt: f.now,
		}); err != nil {
			t.Fatal(err)
		}
	}
	seed("content_frac", "Fractions")
	seed("content_alg", "Algebra")

	// Amara: fractions right, algebra wrong. Kofi: fractions right.
	for _, answer := range []struct {
		learner, item string
		correct       bool
	}{
		{amara.ID, "content_frac", true},
		{amara.ID, "content_alg", false},
		{kofi.ID, "content_frac", true},
	} {
		if _, err := f.progress.RecordAnswer(t.Context(), answer.learner, answer.item, answer.correct); err != nil {
			t.Fatal(err)
		}
	}

	c, err := f.service.Create(t.Context(), f.teacher, "Year 6 Maths")
	if err != nil {
		t.Fatal(err)
	}
	for _, email := range []string{"amara@example.com", "kofi@example.com"} {
		if err := f.service.AddStudent(t.Context(), f.teacher, c.ID, email); err != nil {
			t.Fatal(err)
		}
	}

	got, err := f.service.Analytics(t.Context(), f.teacher, c.ID)
	if err != nil {
		t.Fatalf("Analytics() error = %v", err)
	}

	if len(got.Students) != 2 {
		t.Fatalf("students = %d, want 2", len(got.Students))
	}
	// Roster order: Amara first.
	if got.Students[0].UserID != amara.ID || got.Students[1].UserID != kofi.ID {
		t.Errorf("student order = %s, %s", got.Students[0].UserID, got.Students[1].UserID)
	}
	if got.Students[0].TotalItems != 2 || got.Students[0].Mastered != 1 || got.Students[0].AvgConfidence != 0.5 {
		t.Errorf("amara stats = %+v", got.Students[0])
	}
	if got.Students[1].TotalItems != 1 || got.Students[1].Mastered != 1 || got.Students[1].AvgConfidence != 1.0 {
		t.Errorf("kofi stats = %+v", got.Students[1])
	}

	// Topics alphabetical: Algebra before Fractions.
	if len(got.Topics) != 2 {
		t.Fatalf("topics = %v, want 2 entries", got.Topics)
	}
	if got.Topics[0].Topic != "Algebra" || got.Topics[0].Accuracy != 0 || got.Topics[0].TotalAttempts != 1 {
		t.Errorf("algebra stats = %+v", got.Topics[0])
	}
	if got.Topics[1].Topic != "Fractions" || got.Topics[1].Accuracy != 1.0 || got.Topics[1].TotalAttempts != 2 {
		t.Errorf("fractions stats = %+v", got.Topics[1])
	}
}

func TestAnalytics_EmptyClass(t *testing.T) {
	f := newFixture(t)
	c, err := f.service.Create(t.Context(), f.teacher, "Year 6 Maths")
	if err != nil {
		t.Fatal(err)
	}

	got, err := f.service.Analytics(t.Context(), f.teacher, c.ID)
	if err != nil {
		t.Fatalf("Analytics() error = %v", err)
	}
	if len(got.Students) != 0 || len(got.Topics) != 0 {
		t.Errorf("empty class analytics = %+v", got)
	}
}

func TestStudentProgress(t *testing.T) {
	f := newFixture(t)
	student := f.addStudent(t, "amara@example.com", "Amara")

	report, err := f.service.StudentProgress(t.Context(), f.teacher, student.ID)
	if err != nil {
		t.Fatalf("StudentProgress() error = %v", err)
	}
	if report.Student.ID != student.ID {
		t.Errorf("student = %s, want %s", report.Student.ID, student.ID)
	}
	if len(report.Progress) != 0 {
		t.Errorf("progress = %v, want empty", report.Progress)
	}
	if report.Rewards.Level != 1 {
		t.Errorf("rewards = %+v, want fresh level 1 record", report.Rewards)
	}

	t.Run("students cannot view each other", func(t *testing.T) {
		other := f.addStudent(t, "kofi@example.com", "Kofi")
		if _, err := f.service.StudentProgress(t.Context(), other, student.ID); !errs.Forbidden(err) {
			t.Errorf("error = %v, want ErrForbidden", err)
		}
	})
	t.Run("target must be a student", func(t *testing.T) {
		if _, err := f.service.StudentProgress(t.Context(), f.teacher, f.teacher.ID); !errs.NotFound(err) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}
