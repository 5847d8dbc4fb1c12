// Package literacy computes the aggregate health literacy score from
// per-specialty progress.
package literacy

import (
	"math"
	"time"

	"github.com/medilearn/healthxp/internal/progress"
)

// Weights applied when a specialty has quiz results. Without quizzes the
// completion percentage carries the whole sub-score.
const (
	CompletionWeight = 0.6
	QuizWeight       = 0.4
)

// SpecialtyScore returns the [0,100] sub-score for one specialty.
func SpecialtyScore(sp *progress.SpecialtyProgress) float64 {
	if sp == nil {
		return 0
	}
	completion := clamp(sp.CompletionPercentage)
	score := completion
	if sp.QuizzesTaken > 0 {
		score = CompletionWeight*completion + QuizWeight*clamp(sp.AverageQuizScore)
	}
	return round1(clamp(score))
}

// Calculate aggregates the sub-scores of every specialty with recorded
// activity. Inactive specialties are excluded rather than scored as zero.
// The input is not modified.
func Calculate(specialties map[string]*progress.SpecialtyProgress, now time.Time) progress.HealthLiteracy {
	out := progress.HealthLiteracy{
		BySpecialty:    make(map[string]float64, len(specialties)),
		LastCalculated: now.UTC(),
	}
	sum, n := 0.0, 0
	for id, sp := range specialties {
		if sp == nil || !sp.HasActivity() {
			continue
		}
		s := SpecialtyScore(sp)
		out.BySpecialty[id] = s
		sum += s
		n++
	}
	if n > 0 {
		out.Overall = round1(clamp(sum / float64(n)))
	}
	return out
}

// Band is a coarse label for a literacy score.
type Band string

const (
	BandBeginner   Band = "beginner"
	BandDeveloping Band = "developing"
	BandProficient Band = "proficient"
	BandAdvanced   Band = "advanced"
)

// BandFor maps a score to its band.
func BandFor(score float64) Band {
	switch {
	case score >= 85:
		return BandAdvanced
	case score >= 60:
		return BandProficient
	case score >= 30:
		return BandDeveloping
	default:
		return BandBeginner
	}
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
