package database

import (
	"context"
	"fmt"
)

// schema holds the table definitions for all persisted collections.
// Statements are idempotent so Migrate can run on every startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id           TEXT PRIMARY KEY,
		email        TEXT NOT NULL UNIQUE,
		name         TEXT NOT NULL,
		role         TEXT NOT NULL,
		picture      TEXT,
		grade        TEXT,
		parent_email TEXT,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS content_items (
		id             TEXT PRIMARY KEY,
		grade          TEXT NOT NULL,
		term           TEXT NOT NULL,
		topic          TEXT NOT NULL,
		subtopic       TEXT,
		difficulty     TEXT NOT NULL,
		question_text  TEXT NOT NULL,
		answer_text    TEXT NOT NULL,
		explanation    TEXT,
		source         TEXT,
		alternate_answers TEXT[] NOT NULL DEFAULT '{}',
		tags           TEXT[] NOT NULL DEFAULT '{}',
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_content_grade_term ON content_items (grade, term)`,

	`CREATE TABLE IF NOT EXISTS progress_records (
		learner_id     TEXT NOT NULL,
		item_id        TEXT NOT NULL,
		attempts       INT NOT NULL DEFAULT 0,
		correct_count  INT NOT NULL DEFAULT 0,
		last_seen      TIMESTAMPTZ,
		next_review    TIMESTAMPTZ,
		confidence     DOUBLE PRECISION NOT NULL DEFAULT 0,
		PRIMARY KEY (learner_id, item_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_progress_next_review ON progress_records (learner_id, next_review)`,

	`CREATE TABLE IF NOT EXISTS quiz_sessions (
		id              TEXT PRIMARY KEY,
		learner_id      TEXT NOT NULL,
		started_at      TIMESTAMPTZ NOT NULL,
		completed_at    TIMESTAMPTZ,
		score           INT NOT NULL DEFAULT 0,
		total_questions INT NOT NULL DEFAULT 0,
		item_ids        TEXT[] NOT NULL DEFAULT '{}'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_learner ON quiz_sessions (learner_id, started_at DESC)`,

	`CREATE TABLE IF NOT EXISTS answer_events (
		id         TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		item_id    TEXT NOT NULL,
		raw_answer TEXT NOT NULL,
		correct    BOOLEAN NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_answer_events_session ON answer_events (session_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS streaks (
		learner_id     TEXT PRIMARY KEY,
		current_streak INT NOT NULL DEFAULT 0,
		longest_streak INT NOT NULL DEFAULT 0,
		last_quiz_date TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS rewards (
		learner_id TEXT PRIMARY KEY,
		xp         INT NOT NULL DEFAULT 0,
		level      INT NOT NULL DEFAULT 1,
		badges     TEXT[] NOT NULL DEFAULT '{}'
	)`,

	`CREATE TABLE IF NOT EXISTS classes (
		id          TEXT PRIMARY KEY,
		teacher_id  TEXT NOT NULL,
		name        TEXT NOT NULL,
		join_code   TEXT NOT NULL,
		student_ids TEXT[] NOT NULL DEFAULT '{}',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_classes_teacher ON classes (teacher_id)`,
}

// Migrate creates any missing tables and indexes.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
