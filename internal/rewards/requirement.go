package rewards

import "sort"

// Context is what reward requirements are evaluated against.
type Context struct {
	Level         int
	CurrentStreak int
	LongestStreak int
	Achievements  map[string]bool
}

// RequirementKind tags the requirement variant.
type RequirementKind string

const (
	KindLevel        RequirementKind = "level"
	KindStreak       RequirementKind = "streak"
	KindAchievements RequirementKind = "achievements"
)

// Requirement is one condition of a reward. Exactly one of the payload
// fields is meaningful, selected by Kind.
type Requirement struct {
	Kind         RequirementKind
	MinLevel     int
	MinStreak    int
	Achievements []string
}

// RequireLevel needs the learner at or above level n.
func RequireLevel(n int) Requirement { return Requirement{Kind: KindLevel, MinLevel: n} }

// RequireStreak needs a current streak of at least n days.
func RequireStreak(n int) Requirement { return Requirement{Kind: KindStreak, MinStreak: n} }

// RequireAchievements needs every listed achievement unlocked.
func RequireAchievements(ids ...string) Requirement {
	return Requirement{Kind: KindAchievements, Achievements: ids}
}

// Met reports whether the requirement holds.
func (r Requirement) Met(c Context) bool {
	switch r.Kind {
	case KindLevel:
		return c.Level >= r.MinLevel
	case KindStreak:
		return c.CurrentStreak >= r.MinStreak
	case KindAchievements:
		return len(r.missing(c)) == 0
	default:
		return false
	}
}

func (r Requirement) missing(c Context) []string {
	var out []string
	for _, id := range r.Achievements {
		if !c.Achievements[id] {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// fraction is the share of the requirement already satisfied, in [0,1].
func (r Requirement) fraction(c Context) float64 {
	ratio := func(cur, target int) float64 {
		if target <= 0 || cur >= target {
			return 1
		}
		if cur <= 0 {
			return 0
		}
		return float64(cur) / float64(target)
	}
	switch r.Kind {
	case KindLevel:
		return ratio(c.Level, r.MinLevel)
	case KindStreak:
		return ratio(c.CurrentStreak, r.MinStreak)
	case KindAchievements:
		return ratio(len(r.Achievements)-len(r.missing(c)), len(r.Achievements))
	default:
		return 0
	}
}
