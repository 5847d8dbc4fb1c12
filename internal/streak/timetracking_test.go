package streak

import (
	"testing"
	"time"

	"github.com/medilearn/healthxp/internal/progress"
)

func TestRecordTimeTotals(t *testing.T) {
	// 2024-05-15 is a Wednesday in ISO week 20.
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	var tt progress.TimeTracking

	tt = RecordTime(tt, 30, time.Date(2024, 4, 30, 9, 0, 0, 0, time.UTC), now, time.UTC) // prior month
	tt = RecordTime(tt, 20, time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC), now, time.UTC)  // week 19
	tt = RecordTime(tt, 10, time.Date(2024, 5, 13, 9, 0, 0, 0, time.UTC), now, time.UTC) // week 20
	tt = RecordTime(tt, 15, time.Date(2024, 5, 15, 8, 0, 0, 0, time.UTC), now, time.UTC)
	tt = RecordTime(tt, 5, time.Date(2024, 5, 15, 20, 0, 0, 0, time.UTC), now, time.UTC)

	if tt.TotalMinutes != 80 {
		t.Errorf("TotalMinutes = %d, want 80", tt.TotalMinutes)
	}
	if tt.WeekMinutes != 30 {
		t.Errorf("WeekMinutes = %d, want 30", tt.WeekMinutes)
	}
	if tt.MonthMinutes != 50 {
		t.Errorf("MonthMinutes = %d, want 50", tt.MonthMinutes)
	}
	if tt.History["2024-05-15"] != 20 {
		t.Errorf("History[2024-05-15] = %d, want 20", tt.History["2024-05-15"])
	}
	if tt.DailyAverage != 20 {
		t.Errorf("DailyAverage = %v, want 20", tt.DailyAverage)
	}
}

func TestRecordTimeZeroMinutesKeepsHistory(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	tt := RecordTime(progress.TimeTracking{}, 0, now, now, time.UTC)
	if len(tt.History) != 0 {
		t.Errorf("History = %v, want empty", tt.History)
	}
	if tt.DailyAverage != 0 {
		t.Errorf("DailyAverage = %v, want 0", tt.DailyAverage)
	}
}

func TestCalendarDay(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatal(err)
	}
	in := time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC) // 05:00 Jan 2 in Tokyo
	if got := DateKey(in, tokyo); got != "2024-01-02" {
		t.Errorf("DateKey = %q, want 2024-01-02", got)
	}
	if got := DateKey(in, nil); got != "2024-01-01" {
		t.Errorf("DateKey(nil loc) = %q, want 2024-01-01", got)
	}
}
