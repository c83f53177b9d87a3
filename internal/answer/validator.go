// Package answer compares a learner's free-text answer against an
// item's canonical and alternate answers with a tiered match policy.
package answer

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/revisehub/revisehub/internal/content"
)

// Match-tier confidences. First tier to match wins.
const (
	ConfidenceExact     = 1.0
	ConfidenceAlternate = 0.95
	ConfidenceContains  = 0.8
	ConfidenceNoMatch   = 0.0
)

// Verdict is the outcome of validating one answer.
type Verdict struct {
	Correct         bool    `json:"correct"`
	Confidence      float64 `json:"confidence"`
	CanonicalAnswer string  `json:"correct_answer"`
}

// Validate checks raw against item's canonical and alternate answers.
// It is total: every input yields a verdict, "no match" is a normal
// outcome rather than an error.
func Validate(item content.Item, raw string) Verdict {
	canonical := Normalize(item.AnswerText)
	given := Normalize(raw)

	verdict := Verdict{CanonicalAnswer: item.AnswerText}

	if given == canonical {
		verdict.Correct = true
		verdict.Confidence = ConfidenceExact
		return verdict
	}

	for _, alt := range item.AlternateAnswers {
		if given == Normalize(alt) {
			verdict.Correct = true
			verdict.Confidence = ConfidenceAlternate
			return verdict
		}
	}

	// Containment either direction, against the canonical answer and
	// every alternate. An empty input must not match a non-empty answer.
	if given != "" {
		known := make([]string, 0, 1+len(item.AlternateAnswers))
		known = append(known, canonical)
		for _, alt := range item.AlternateAnswers {
			known = append(known, Normalize(alt))
		}
		for _, k := range known {
			if k == "" {
				continue
			}
			if strings.Contains(given, k) || strings.Contains(k, given) {
				verdict.Correct = true
				verdict.Confidence = ConfidenceContains
				return verdict
			}
		}
	}

	verdict.Confidence = ConfidenceNoMatch
	return verdict
}

// Normalize prepares text for comparison: NFKC normalization, Unicode
// case folding and whitespace trimming.
func Normalize(s string) string {
	// cases.Caser carries state, so build one per call.
	return strings.TrimSpace(cases.Fold().String(norm.NFKC.String(s)))
}
