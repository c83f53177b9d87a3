// Package content holds the question bank: items tagged by grade,
// term, topic and difficulty, with canonical and alternate answers.
package content

import "time"

// Difficulty is the item difficulty tier.
type Difficulty string

const (
	DifficultyHigh   Difficulty = "High"
	DifficultyMedium Difficulty = "Medium"
	DifficultyLow    Difficulty = "Low"
)

// Valid reports whether d is one of the known tiers.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyHigh, DifficultyMedium, DifficultyLow:
		return true
	}
	return false
}

// Item is a single question/answer entry in the bank.
type Item struct {
	ID               string     `json:"id" yaml:"id"`
	Grade            string     `json:"grade" yaml:"grade"`
	Term             string     `json:"term" yaml:"term"`
	Topic            string     `json:"topic" yaml:"topic"`
	Subtopic         string     `json:"subtopic,omitempty" yaml:"subtopic"`
	Difficulty       Difficulty `json:"difficulty" yaml:"difficulty"`
	QuestionText     string     `json:"question_text" yaml:"question_text"`
	AnswerText       string     `json:"answer_text" yaml:"answer_text"`
	Explanation      string     `json:"explanation,omitempty" yaml:"explanation"`
	Source           string     `json:"source,omitempty" yaml:"source"`
	AlternateAnswers []string   `json:"alternate_answers,omitempty" yaml:"alternate_answers"`
	Tags             []string   `json:"tags,omitempty" yaml:"tags"`
	CreatedAt        time.Time  `json:"created_at" yaml:"-"`
}

// Filter narrows List queries. Empty fields match everything.
type Filter struct {
	Grade      string
	Term       string
	Topic      string
	Difficulty Difficulty
}

func (f Filter) matches(item Item) bool {
	if f.Grade != "" && item.Grade != f.Grade {
		return false
	}
	if f.Term != "" && item.Term != f.Term {
		return false
	}
	if f.Topic != "" && item.Topic != f.Topic {
		return false
	}
	if f.Difficulty != "" && item.Difficulty != f.Difficulty {
		return false
	}
	return true
}
