// Package teaching scores teach-back sessions, where a learner explains a
// health topic in their own words.
package teaching

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/medilearn/healthxp/internal/progress"
)

// Input is what the rules see.
type Input struct {
	Prompt    string
	Response  string
	words     []string
	sentences int
}

// Rule awards part of the quality score. Returns points in [0, Max()].
type Rule interface {
	Name() string
	Max() int
	Score(in *Input) int
}

// DefaultRules returns the scoring rules. Their maxima sum to 100.
func DefaultRules() []Rule {
	return []Rule{
		&LengthRule{},
		&CoverageRule{},
		&StructureRule{},
		&PlainLanguageRule{},
	}
}

// Score runs the rules over a prompt/response pair and returns 0-100.
func Score(rules []Rule, prompt, response string) int {
	in := newInput(prompt, response)
	if len(in.words) == 0 {
		return 0
	}
	total := 0
	for _, r := range rules {
		total += min(max(r.Score(in), 0), r.Max())
	}
	return min(total, 100)
}

// NewSession scores and records a teaching session.
func NewSession(prompt, response, specialty string, at time.Time) progress.TeachingSession {
	return progress.TeachingSession{
		ID:           uuid.NewString(),
		Prompt:       prompt,
		Response:     response,
		Specialty:    specialty,
		QualityScore: Score(DefaultRules(), prompt, response),
		CreatedAt:    at.UTC(),
	}
}

func newInput(prompt, response string) *Input {
	in := &Input{Prompt: prompt, Response: response}
	in.words = tokenize(response)
	for _, s := range strings.FieldsFunc(response, func(r rune) bool { return r == '.' || r == '!' || r == '?' }) {
		if len(tokenize(s)) >= 3 {
			in.sentences++
		}
	}
	return in
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
}
