package level

import (
	"errors"
	"fmt"
)

// ActivityType identifies an XP-earning activity.
type ActivityType string

const (
	ActivityModuleCompleted ActivityType = "MODULE_COMPLETED"
	ActivityQuizCompleted   ActivityType = "QUIZ_COMPLETED"
	ActivityPerfectQuiz     ActivityType = "PERFECT_QUIZ"
	ActivityDailyLogin      ActivityType = "DAILY_LOGIN"
	ActivityLabReviewed     ActivityType = "LAB_REVIEWED"
	ActivityContentShared   ActivityType = "CONTENT_SHARED"
	ActivityTeachingSession ActivityType = "TEACHING_SESSION"
)

// StreakBonusPerDay is added to DAILY_LOGIN XP for every day of the current streak.
const StreakBonusPerDay = 5

// ErrUnknownActivity is returned for activity types without an XP entry.
var ErrUnknownActivity = errors.New("unknown activity type")

var baseXP = map[ActivityType]int{
	ActivityModuleCompleted: 50,
	ActivityQuizCompleted:   25,
	ActivityPerfectQuiz:     50,
	ActivityDailyLogin:      10,
	ActivityLabReviewed:     30,
	ActivityContentShared:   15,
	ActivityTeachingSession: 40,
}

// AllActivityTypes returns every known activity type in a stable order.
func AllActivityTypes() []ActivityType {
	return []ActivityType{
		ActivityModuleCompleted,
		ActivityQuizCompleted,
		ActivityPerfectQuiz,
		ActivityDailyLogin,
		ActivityLabReviewed,
		ActivityContentShared,
		ActivityTeachingSession,
	}
}

// XPForActivity returns the XP reward for an activity. Only DAILY_LOGIN uses
// streakLength, adding an uncapped linear bonus.
func XPForActivity(t ActivityType, streakLength int) (int, error) {
	xp, ok := baseXP[t]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownActivity, t)
	}
	if t == ActivityDailyLogin && streakLength > 0 {
		xp += streakLength * StreakBonusPerDay
	}
	return xp, nil
}
