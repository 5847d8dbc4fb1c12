package achievements

import "github.com/medilearn/healthxp/internal/progress"

// Category groups achievements for display.
type Category string

const (
	CategoryMilestone  Category = "milestone"
	CategoryQuiz       Category = "quiz"
	CategoryEngagement Category = "engagement"
	CategorySocial     Category = "social"
	CategorySpecialty  Category = "specialty"
	CategoryLab        Category = "lab"
	CategoryExpert     Category = "expert"
)

// AllCategories returns all categories in display order.
func AllCategories() []Category {
	return []Category{
		CategoryMilestone, CategoryQuiz, CategoryEngagement, CategorySocial,
		CategorySpecialty, CategoryLab, CategoryExpert,
	}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, k := range AllCategories() {
		if c == k {
			return true
		}
	}
	return false
}

// Icon returns the display icon for the category.
func (c Category) Icon() string {
	switch c {
	case CategoryMilestone:
		return "🏁"
	case CategoryQuiz:
		return "🧠"
	case CategoryEngagement:
		return "🔥"
	case CategorySocial:
		return "🤝"
	case CategorySpecialty:
		return "🩺"
	case CategoryLab:
		return "🧪"
	case CategoryExpert:
		return "🎓"
	default:
		return "✦"
	}
}

// Snapshot is the read-only view an achievement condition is evaluated against.
type Snapshot struct {
	Progress *progress.GamificationProgress
}

// Progress is partial progress toward a locked achievement. Display only.
type Progress struct {
	Current int `json:"current"`
	Target  int `json:"target"`
}

// Percent returns completion of the target in [0,100].
func (p Progress) Percent() float64 {
	if p.Target <= 0 {
		return 100
	}
	if p.Current >= p.Target {
		return 100
	}
	if p.Current <= 0 {
		return 0
	}
	return float64(p.Current) * 100 / float64(p.Target)
}

// Condition decides whether an achievement holds for a snapshot.
type Condition func(Snapshot) bool

// Metric extracts the counter a threshold achievement compares against.
type Metric func(Snapshot) int

// Achievement is an immutable catalog entry.
type Achievement struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Category    Category
	Rarity      Rarity
	Points      int
	Condition   Condition
	// Metric and Target are set for threshold achievements and drive
	// partial-progress display.
	Metric Metric
	Target int
}

// Unlock is a newly earned achievement with its UI notification.
type Unlock struct {
	Achievement  Achievement
	Unlocked     progress.UnlockedAchievement
	Notification Notification
}

// Notification is the achievement-unlocked descriptor handed to the UI.
type Notification struct {
	AchievementID string `json:"achievementId"`
	Name          string `json:"name"`
	Rarity        Rarity `json:"rarity"`
	Points        int    `json:"points"`
	ShowConfetti  bool   `json:"showConfetti"`
	AutoDismiss   bool   `json:"autoDismiss"`
}
