package progress

import "time"

// DateLayout is the calendar-day key format used by streak and time history.
const DateLayout = "2006-01-02"

// SpecialtyProgress tracks a learner's progress within one medical specialty.
type SpecialtyProgress struct {
	CompletedModules     int       `json:"completedModules"`
	TotalModules         int       `json:"totalModules"`
	CompletionPercentage float64   `json:"completionPercentage"`
	QuizzesTaken         int       `json:"quizzesTaken"`
	AverageQuizScore     float64   `json:"averageQuizScore"`
	TimeSpentMinutes     int       `json:"timeSpentMinutes"`
	LastActivity         time.Time `json:"lastActivity"`
	Level                int       `json:"level"`
	ModuleIDs            []string  `json:"moduleIds,omitempty"`
}

// HasActivity reports whether any module, quiz or minute was recorded.
func (sp *SpecialtyProgress) HasActivity() bool {
	return sp.CompletedModules > 0 || sp.QuizzesTaken > 0 || sp.TimeSpentMinutes > 0
}

// HasModule reports whether moduleID was already completed.
func (sp *SpecialtyProgress) HasModule(moduleID string) bool {
	for _, id := range sp.ModuleIDs {
		if id == moduleID {
			return true
		}
	}
	return false
}

// StreakDay accumulates activity for a single calendar day.
type StreakDay struct {
	Date             string `json:"date"`
	ActivityMinutes  int    `json:"activityMinutes"`
	ModulesCompleted int    `json:"modulesCompleted"`
	QuizzesTaken     int    `json:"quizzesTaken"`
}

// LearningStreak is the calendar-day streak state.
type LearningStreak struct {
	CurrentStreak int         `json:"currentStreak"`
	LongestStreak int         `json:"longestStreak"`
	LastLoginDate *time.Time  `json:"lastLoginDate"`
	StreakHistory []StreakDay `json:"streakHistory"`
}

// TimeTracking holds running minute totals and a date-keyed history.
type TimeTracking struct {
	TotalMinutes int            `json:"totalMinutes"`
	WeekMinutes  int            `json:"weekMinutes"`
	MonthMinutes int            `json:"monthMinutes"`
	DailyAverage float64        `json:"dailyAverage"`
	History      map[string]int `json:"history"`
}

// LevelSystem is the derived level view of a learner's lifetime XP.
type LevelSystem struct {
	CurrentLevel  int    `json:"currentLevel"`
	CurrentXP     int    `json:"currentXP"`
	TotalXP       int    `json:"totalXP"`
	XPToNextLevel int    `json:"xpToNextLevel"`
	Title         string `json:"title"`
}

// HealthLiteracy is the weighted aggregate of completion and quiz performance.
type HealthLiteracy struct {
	Overall        float64            `json:"overall"`
	BySpecialty    map[string]float64 `json:"bySpecialty"`
	LastCalculated time.Time          `json:"lastCalculated"`
}

// ActivityCounters are lifetime counters consulted by achievement conditions.
type ActivityCounters struct {
	ModulesCompleted     int `json:"modulesCompleted"`
	QuizzesTaken         int `json:"quizzesTaken"`
	PerfectQuizzes       int `json:"perfectQuizzes"`
	LabReviews           int `json:"labReviews"`
	ContentShares        int `json:"contentShares"`
	Logins               int `json:"logins"`
	TeachingSessions     int `json:"teachingSessions"`
	TeachingQualityTotal int `json:"teachingQualityTotal"`
}

// AverageTeachingQuality returns the mean teaching session quality (0-100).
func (c ActivityCounters) AverageTeachingQuality() float64 {
	if c.TeachingSessions == 0 {
		return 0
	}
	return float64(c.TeachingQualityTotal) / float64(c.TeachingSessions)
}

// TeachingSession is an immutable record of a teach-back exercise.
type TeachingSession struct {
	ID           string    `json:"id"`
	Prompt       string    `json:"prompt"`
	Response     string    `json:"response"`
	Specialty    string    `json:"specialty,omitempty"`
	QualityScore int       `json:"qualityScore"`
	CreatedAt    time.Time `json:"createdAt"`
}

// GamificationProgress is the per-learner aggregate root.
type GamificationProgress struct {
	Specialties       map[string]*SpecialtyProgress `json:"specialties"`
	Streak            LearningStreak                `json:"streak"`
	TimeTracking      TimeTracking                  `json:"timeTracking"`
	Level             LevelSystem                   `json:"level"`
	HealthLiteracy    HealthLiteracy                `json:"healthLiteracy"`
	Activity          ActivityCounters              `json:"activity"`
	AchievementPoints int                           `json:"achievementPoints"`
	DailyBonusDate    string                        `json:"dailyBonusDate,omitempty"`
	TeachingSessions  []TeachingSession             `json:"teachingSessions"`
	SyncedEvents      map[string]bool               `json:"syncedEvents"`
	CreatedAt         time.Time                     `json:"createdAt"`
	UpdatedAt         time.Time                     `json:"updatedAt"`
}

// UnlockedAchievement records when a catalog achievement was earned.
type UnlockedAchievement struct {
	ID         string    `json:"id"`
	Category   string    `json:"category"`
	Rarity     string    `json:"rarity"`
	Points     int       `json:"points"`
	UnlockedAt time.Time `json:"unlockedAt"`
}

// UnlockedReward records when a catalog reward was earned.
type UnlockedReward struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Rarity     string    `json:"rarity"`
	UnlockedAt time.Time `json:"unlockedAt"`
}

// Settings are learner preferences stored with the state.
type Settings struct {
	Timezone             string `json:"timezone"`
	NotificationsEnabled bool   `json:"notificationsEnabled"`
	Language             string `json:"language"`
}
