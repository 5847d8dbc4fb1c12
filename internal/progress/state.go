package progress

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
	_ "time/tzdata"

	"golang.org/x/mod/semver"
)

// SchemaVersion is the version written to every persisted or exported state.
const SchemaVersion = "v1.0.0"

// supportedMajor is the only schema major version this build understands.
const supportedMajor = "v1"

// MaxTeachingSessions bounds the teaching session history kept in state.
const MaxTeachingSessions = 50

// State is the persisted and exported document for one learner.
type State struct {
	SchemaVersion        string                `json:"schemaVersion"`
	LearnerID            string                `json:"learnerId"`
	Progress             GamificationProgress  `json:"progress"`
	UnlockedAchievements []UnlockedAchievement `json:"unlockedAchievements"`
	UnlockedRewards      []UnlockedReward      `json:"unlockedRewards"`
	Settings             Settings              `json:"settings"`
}

// DefaultSettings returns the settings a fresh learner starts with.
func DefaultSettings() Settings {
	return Settings{
		Timezone:             "UTC",
		NotificationsEnabled: true,
		Language:             "en",
	}
}

// NewState returns a freshly initialized state: every counter zero, level 1.
func NewState(learnerID string, now time.Time) State {
	now = now.UTC()
	return State{
		SchemaVersion: SchemaVersion,
		LearnerID:     learnerID,
		Progress: GamificationProgress{
			Specialties: make(map[string]*SpecialtyProgress),
			Streak: LearningStreak{
				StreakHistory: []StreakDay{},
			},
			TimeTracking: TimeTracking{
				History: make(map[string]int),
			},
			Level: LevelSystem{
				CurrentLevel: 1,
			},
			HealthLiteracy: HealthLiteracy{
				BySpecialty:    make(map[string]float64),
				LastCalculated: now,
			},
			TeachingSessions: []TeachingSession{},
			SyncedEvents:     make(map[string]bool),
			CreatedAt:        now,
			UpdatedAt:        now,
		},
		UnlockedAchievements: []UnlockedAchievement{},
		UnlockedRewards:      []UnlockedReward{},
		Settings:             DefaultSettings(),
	}
}

// IsSupportedVersion reports whether v is a schema version this build can load.
// Any valid semver with the supported major is accepted; everything else is
// unrecognized.
func IsSupportedVersion(v string) bool {
	return semver.IsValid(v) && semver.Major(v) == supportedMajor
}

// Location resolves the learner's timezone, falling back to UTC.
func (s *State) Location() *time.Location {
	if s.Settings.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Settings.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AchievementSet returns the ids of unlocked achievements.
func (s *State) AchievementSet() map[string]bool {
	set := make(map[string]bool, len(s.UnlockedAchievements))
	for _, u := range s.UnlockedAchievements {
		set[u.ID] = true
	}
	return set
}

// RewardSet returns the ids of unlocked rewards.
func (s *State) RewardSet() map[string]bool {
	set := make(map[string]bool, len(s.UnlockedRewards))
	for _, u := range s.UnlockedRewards {
		set[u.ID] = true
	}
	return set
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (s State) Clone() (State, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return State{}, fmt.Errorf("clone state: %w", err)
	}
	var out State
	if err := json.Unmarshal(b, &out); err != nil {
		return State{}, fmt.Errorf("clone state: %w", err)
	}
	out.Normalize()
	return out, nil
}

// Normalize fills nil collections left by decoding so the state is usable.
func (s *State) Normalize() {
	p := &s.Progress
	if p.Specialties == nil {
		p.Specialties = make(map[string]*SpecialtyProgress)
	}
	if p.Streak.StreakHistory == nil {
		p.Streak.StreakHistory = []StreakDay{}
	}
	if p.TimeTracking.History == nil {
		p.TimeTracking.History = make(map[string]int)
	}
	if p.HealthLiteracy.BySpecialty == nil {
		p.HealthLiteracy.BySpecialty = make(map[string]float64)
	}
	if p.TeachingSessions == nil {
		p.TeachingSessions = []TeachingSession{}
	}
	if p.SyncedEvents == nil {
		p.SyncedEvents = make(map[string]bool)
	}
	if s.UnlockedAchievements == nil {
		s.UnlockedAchievements = []UnlockedAchievement{}
	}
	if s.UnlockedRewards == nil {
		s.UnlockedRewards = []UnlockedReward{}
	}
	if p.Level.CurrentLevel < 1 {
		p.Level.CurrentLevel = 1
	}
}

// CheckInvariants verifies the structural invariants of a decoded state.
// The returned error names the offending field.
func (s *State) CheckInvariants() error {
	p := &s.Progress
	if s.LearnerID == "" {
		return &FieldError{Field: "learnerId", Reason: "must not be empty"}
	}
	if p.Streak.CurrentStreak < 0 {
		return &FieldError{Field: "progress.streak.currentStreak", Reason: "must be >= 0"}
	}
	if p.Streak.LongestStreak < p.Streak.CurrentStreak {
		return &FieldError{Field: "progress.streak.longestStreak", Reason: "must be >= currentStreak"}
	}
	seen := make(map[string]bool, len(p.Streak.StreakHistory))
	for i, d := range p.Streak.StreakHistory {
		if _, err := time.Parse(DateLayout, d.Date); err != nil {
			return &FieldError{Field: fmt.Sprintf("progress.streak.streakHistory[%d].date", i), Reason: "must be YYYY-MM-DD"}
		}
		if seen[d.Date] {
			return &FieldError{Field: fmt.Sprintf("progress.streak.streakHistory[%d].date", i), Reason: "duplicate date " + d.Date}
		}
		seen[d.Date] = true
	}
	if p.Level.CurrentLevel < 1 {
		return &FieldError{Field: "progress.level.currentLevel", Reason: "must be >= 1"}
	}
	if p.Level.TotalXP < 0 {
		return &FieldError{Field: "progress.level.totalXP", Reason: "must be >= 0"}
	}
	for id, sp := range p.Specialties {
		if sp == nil {
			return &FieldError{Field: "progress.specialties." + id, Reason: "must not be null"}
		}
		if sp.CompletionPercentage < 0 || sp.CompletionPercentage > 100 {
			return &FieldError{Field: "progress.specialties." + id + ".completionPercentage", Reason: "must be within [0,100]"}
		}
		if sp.AverageQuizScore < 0 || sp.AverageQuizScore > 100 {
			return &FieldError{Field: "progress.specialties." + id + ".averageQuizScore", Reason: "must be within [0,100]"}
		}
	}
	ids := make(map[string]bool, len(s.UnlockedAchievements))
	for i, u := range s.UnlockedAchievements {
		if ids[u.ID] {
			return &FieldError{Field: fmt.Sprintf("unlockedAchievements[%d].id", i), Reason: "duplicate id " + u.ID}
		}
		ids[u.ID] = true
	}
	ids = make(map[string]bool, len(s.UnlockedRewards))
	for i, u := range s.UnlockedRewards {
		if ids[u.ID] {
			return &FieldError{Field: fmt.Sprintf("unlockedRewards[%d].id", i), Reason: "duplicate id " + u.ID}
		}
		ids[u.ID] = true
	}
	if s.Settings.Timezone != "" {
		if _, err := time.LoadLocation(s.Settings.Timezone); err != nil {
			return &FieldError{Field: "settings.timezone", Reason: "unknown timezone " + s.Settings.Timezone}
		}
	}
	return nil
}

// SpecialtyIDs returns the specialty ids in sorted order.
func (p *GamificationProgress) SpecialtyIDs() []string {
	ids := make([]string, 0, len(p.Specialties))
	for id := range p.Specialties {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FieldError reports a state field that violates an invariant.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
