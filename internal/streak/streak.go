package streak

import (
	"time"

	"github.com/medilearn/healthxp/internal/progress"
)

// Transition names the edge taken by Update.
type Transition string

const (
	TransitionFirst     Transition = "first"
	TransitionSameDay   Transition = "same-day"
	TransitionContinued Transition = "continued"
	TransitionReset     Transition = "reset"
)

// CalendarDay truncates t to midnight of its calendar day in loc.
func CalendarDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DateKey returns the YYYY-MM-DD key of t's calendar day in loc.
func DateKey(t time.Time, loc *time.Location) string {
	return CalendarDay(t, loc).Format(progress.DateLayout)
}

// daysBetween counts calendar days from a to b. Both must be calendar days in
// the same location; computing via dates keeps DST days at length one.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// Update advances the streak state machine for activity at now.
//
// Dates are compared as calendar days in loc. An activity on a day before the
// last login is treated like a same-day re-entry so late events never move
// the streak backwards.
func Update(s progress.LearningStreak, now time.Time, loc *time.Location) (progress.LearningStreak, Transition) {
	var tr Transition
	backdated := false
	switch {
	case s.LastLoginDate == nil:
		s.CurrentStreak = 1
		tr = TransitionFirst
	default:
		gap := daysBetween(CalendarDay(*s.LastLoginDate, loc), CalendarDay(now, loc))
		switch {
		case gap <= 0:
			tr = TransitionSameDay
			backdated = gap < 0
		case gap == 1:
			s.CurrentStreak++
			tr = TransitionContinued
		default:
			s.CurrentStreak = 1
			tr = TransitionReset
		}
	}
	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	if !backdated {
		ts := now.UTC()
		s.LastLoginDate = &ts
	}
	return s, tr
}

// RecordDailyActivity adds activity to the StreakDay for date's calendar day,
// appending a new day when none exists. It never touches the streak counters.
func RecordDailyActivity(s progress.LearningStreak, minutes, modules, quizzes int, date time.Time, loc *time.Location) progress.LearningStreak {
	key := DateKey(date, loc)
	history := make([]progress.StreakDay, len(s.StreakHistory), len(s.StreakHistory)+1)
	copy(history, s.StreakHistory)
	for i := range history {
		if history[i].Date == key {
			history[i].ActivityMinutes += minutes
			history[i].ModulesCompleted += modules
			history[i].QuizzesTaken += quizzes
			s.StreakHistory = history
			return s
		}
	}
	s.StreakHistory = append(history, progress.StreakDay{
		Date:             key,
		ActivityMinutes:  minutes,
		ModulesCompleted: modules,
		QuizzesTaken:     quizzes,
	})
	return s
}
