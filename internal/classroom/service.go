package classroom

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/revisehub/revisehub/internal/auth"
	"github.com/revisehub/revisehub/internal/content"
	"github.com/revisehub/revisehub/internal/engagement"
	"github.com/revisehub/revisehub/internal/platform/errs"
	"github.com/revisehub/revisehub/internal/progress"
)

// Service owns class membership and teacher-facing aggregation.
type Service struct {
	store      Store
	users      auth.UserStore
	content    content.Store
	progress   *progress.Tracker
	engagement *engagement.Tracker
	now        func() time.Time
}

// Config holds the dependencies for a classroom service.
type Config struct {
	Store      Store
	Users      auth.UserStore
	Content    content.Store
	Progress   *progress.Tracker
	Engagement *engagement.Tracker
	Now        func() time.Time
}

// NewService creates a classroom service.
func NewService(cfg Config) *Service {
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		store:      cfg.Store,
		users:      cfg.Users,
		content:    cfg.Content,
		progress:   cfg.Progress,
		engagement: cfg.Engagement,
		now:        cfg.Now,
	}
}

// Create opens a new class for the teacher with a fresh join code.
func (s *Service) Create(ctx context.Context, teacher auth.User, name string) (Class, error) {
	if err := auth.RequireRole(teacher, auth.RoleTeacher); err != nil {
		return Class{}, err
	}
	if name == "" {
		return Class{}, fmt.Errorf("%w: class name is required", errs.ErrInvalidInput)
	}

	c := Class{
		ID:         newClassID(),
		TeacherID:  teacher.ID,
		Name:       name,
		Code:       newClassCode(),
		StudentIDs: []string{},
		CreatedAt:  s.now(),
	}
	if err := s.store.Create(ctx, c); err != nil {
		return Class{}, err
	}
	slog.Info("class created", "class_id", c.ID, "teacher_id", teacher.ID)
	return c, nil
}

// List returns the teacher's classes.
func (s *Service) List(ctx context.Context, teacher auth.User) ([]Class, error) {
	if err := auth.RequireRole(teacher, auth.RoleTeacher); err != nil {
		return nil, err
	}
	return s.store.ListByTeacher(ctx, teacher.ID)
}

// AddStudent enrolls a student, looked up by email, into the teacher's
// class. Enrolling an already enrolled student is a no-op.
func (s *Service) AddStudent(ctx context.Context, teacher auth.User, classID, studentEmail string) error {
	if err := auth.RequireRole(teacher, auth.RoleTeacher); err != nil {
		return err
	}

	c, err := s.ownedClass(ctx, teacher, classID)
	if err != nil {
		return err
	}
	student, err := s.users.GetByEmail(ctx, studentEmail)
	if err != nil {
		return err
	}
	if student.Role != auth.RoleStudent {
		return fmt.Errorf("%s is not a student account: %w", studentEmail, errs.ErrNotFound)
	}

	if slices.Contains(c.StudentIDs, student.ID) {
		return nil
	}
	c.StudentIDs = append(c.StudentIDs, student.ID)
	return s.store.Update(ctx, c)
}

// Join enrolls the student into the class matching the join code.
func (s *Service) Join(ctx context.Context, student auth.User, code string) (Class, error) {
	if err := auth.RequireRole(student, auth.RoleStudent); err != nil {
		return Class{}, err
	}

	c, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return Class{}, err
	}
	if slices.Contains(c.StudentIDs, student.ID) {
		return c, nil
	}
	c.StudentIDs = append(c.StudentIDs, student.ID)
	if err := s.store.Update(ctx, c); err != nil {
		return Class{}, err
	}
	slog.Info("student joined class", "class_id", c.ID, "student_id", student.ID)
	return c, nil
}

// Class returns one of the teacher's classes. Another teacher's class
// yields ErrForbidden.
func (s *Service) Class(ctx context.Context, teacher auth.User, classID string) (Class, error) {
	if err := auth.RequireRole(teacher, auth.RoleTeacher); err != nil {
		return Class{}, err
	}
	return s.ownedClass(ctx, teacher, classID)
}

// ClassesOf returns every class the student is enrolled in.
func (s *Service) ClassesOf(ctx context.Context, studentID string) ([]Class, error) {
	return s.store.ListByStudent(ctx, studentID)
}

// StudentStats summarizes one student's progress inside a class.
type StudentStats struct {
	UserID        string  `json:"user_id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	TotalItems    int     `json:"total_items"`
	Mastered      int     `json:"mastered"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// TopicStats aggregates answer accuracy across a class per topic.
type TopicStats struct {
	Topic         string  `json:"topic"`
	Accuracy      float64 `json:"accuracy"`
	TotalAttempts int     `json:"total_attempts"`
}

// Analytics is the teacher's view of a class.
type Analytics struct {
	Class    Class          `json:"class"`
	Students []StudentStats `json:"students"`
	Topics   []TopicStats   `json:"topic_performance"`
}

// Analytics aggregates per-student and per-topic performance for a
// class. Students appear in roster order; topics alphabetically.
func (s *Service) Analytics(ctx context.Context, teacher auth.User, classID string) (Analytics, error) {
	if err := auth.RequireRole(teacher, auth.RoleTeacher); err != nil {
		return Analytics{}, err
	}
	c, err := s.ownedClass(ctx, teacher, classID)
	if err != nil {
		return Analytics{}, err
	}

	result := Analytics{Class: c, Students: []StudentStats{}, Topics: []TopicStats{}}
	if len(c.StudentIDs) == 0 {
		return result, nil
	}

	var allRecords []progress.Record
	for _, studentID := range c.StudentIDs {
		student, err := s.users.Get(ctx, studentID)
		if err != nil {
			if errs.NotFound(err) {
				continue
			}
			return Analytics{}, err
		}
		recs, err := s.progress.Records(ctx, studentID)
		if err != nil {
			return Analytics{}, err
		}
		allRecords = append(allRecords, recs...)

		stats := StudentStats{UserID: student.ID, Name: student.Name, Email: student.Email, TotalItems: len(recs)}
		var confidenceSum float64
		for _, rec := range recs {
			confidenceSum += rec.Confidence
			if rec.Confidence >= progress.MasteryThreshold {
				stats.Mastered++
			}
		}
		if len(recs) > 0 {
			stats.AvgConfidence = round2(confidenceSum / float64(len(recs)))
		}
		result.Students = append(result.Students, stats)
	}

	topics, err := s.topicPerformance(ctx, allRecords)
	if err != nil {
		return Analytics{}, err
	}
	result.Topics = topics
	return result, nil
}

func (s *Service) topicPerformance(ctx context.Context, recs []progress.Record) ([]TopicStats, error) {
	if len(recs) == 0 {
		return []TopicStats{}, nil
	}

	itemIDs := make([]string, 0, len(recs))
	seen := make(map[string]bool)
	for _, rec := range recs {
		if !seen[rec.ItemID] {
			seen[rec.ItemID] = true
			itemIDs = append(itemIDs, rec.ItemID)
		}
	}
	items, err := s.content.GetMany(ctx, itemIDs)
	if err != nil {
		return nil, err
	}
	topicByItem := make(map[string]string, len(items))
	for _, item := range items {
		topicByItem[item.ID] = item.Topic
	}

	type tally struct{ total, correct int }
	tallies := make(map[string]*tally)
	for _, rec := range recs {
		topic, ok := topicByItem[rec.ItemID]
		if !ok {
			continue
		}
		t := tallies[topic]
		if t == nil {
			t = &tally{}
			tallies[topic] = t
		}
		t.total += rec.Attempts
		t.correct += rec.CorrectCount
	}

	topics := make([]TopicStats, 0, len(tallies))
	for topic, t := range tallies {
		stats := TopicStats{Topic: topic, TotalAttempts: t.total}
		if t.total > 0 {
			stats.Accuracy = round2(float64(t.correct) / float64(t.total))
		}
		topics = append(topics, stats)
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Topic < topics[j].Topic })
	return topics, nil
}

// StudentReport is a teacher's or parent's view of one student.
type StudentReport struct {
	Student  auth.User          `json:"student"`
	Progress []progress.Record  `json:"progress"`
	Streak   engagement.Streak  `json:"streak"`
	Rewards  engagement.Rewards `json:"rewards"`
}

// StudentProgress returns one student's full record for a teacher or
// parent.
func (s *Service) StudentProgress(ctx context.Context, viewer auth.User, studentID string) (StudentReport, error) {
	if err := auth.RequireRole(viewer, auth.RoleTeacher, auth.RoleParent); err != nil {
		return StudentReport{}, err
	}

	student, err := s.users.Get(ctx, studentID)
	if err != nil {
		return StudentReport{}, err
	}
	if student.Role != auth.RoleStudent {
		return StudentReport{}, fmt.Errorf("%s is not a student account: %w", studentID, errs.ErrNotFound)
	}

	recs, err := s.progress.Records(ctx, studentID)
	if err != nil {
		return StudentReport{}, err
	}
	streak, err := s.engagement.StreakFor(ctx, studentID)
	if err != nil {
		return StudentReport{}, err
	}
	rewards, err := s.engagement.RewardsFor(ctx, studentID)
	if err != nil {
		return StudentReport{}, err
	}
	if recs == nil {
		recs = []progress.Record{}
	}
	return StudentReport{Student: student, Progress: recs, Streak: streak, Rewards: rewards}, nil
}

func (s *Service) ownedClass(ctx context.Context, teacher auth.User, classID string) (Class, error) {
	c, err := s.store.Get(ctx, classID)
	if err != nil {
		return Class{}, err
	}
	if c.TeacherID != teacher.ID {
		return Class{}, fmt.Errorf("%w: class %s belongs to another teacher", errs.ErrForbidden, classID)
	}
	return c, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
