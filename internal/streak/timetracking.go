package streak

import (
	"math"
	"time"

	"github.com/medilearn/healthxp/internal/progress"
)

// RecordTime adds minutes to the history entry for date and recomputes the
// week, month and daily-average totals relative to now.
func RecordTime(t progress.TimeTracking, minutes int, date, now time.Time, loc *time.Location) progress.TimeTracking {
	history := make(map[string]int, len(t.History)+1)
	for k, v := range t.History {
		history[k] = v
	}
	if minutes > 0 {
		history[DateKey(date, loc)] += minutes
	}
	t.History = history
	return Recompute(t, now, loc)
}

// Recompute derives the running totals from the history.
func Recompute(t progress.TimeTracking, now time.Time, loc *time.Location) progress.TimeTracking {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	nowYear, nowWeek := local.ISOWeek()

	total, week, month, activeDays := 0, 0, 0, 0
	for key, mins := range t.History {
		day, err := time.ParseInLocation(progress.DateLayout, key, loc)
		if err != nil {
			continue
		}
		total += mins
		if mins > 0 {
			activeDays++
		}
		if y, w := day.ISOWeek(); y == nowYear && w == nowWeek {
			week += mins
		}
		if day.Year() == local.Year() && day.Month() == local.Month() {
			month += mins
		}
	}

	t.TotalMinutes = total
	t.WeekMinutes = week
	t.MonthMinutes = month
	t.DailyAverage = 0
	if activeDays > 0 {
		t.DailyAverage = math.Round(float64(total)/float64(activeDays)*10) / 10
	}
	return t
}
