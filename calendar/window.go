package calendar

import (
	"strconv"
	"time"
)

const (
	RangeCurrentWeek = "current-week"
	RangeRolling     = "rolling"

	defaultWindowDays = 14
	maxWindowDays     = 60
)

// Window is the half-open time interval a list operation queries.
type Window struct {
	Range string
	Days  int
	Start time.Time
	End   time.Time
}

// ComputeWindow turns an inbound range selector into a concrete interval.
// "current-week" means Monday 00:00:00 local through the following Monday;
// anything else is a rolling window of clamp(days, 1, 60) days starting at
// now, defaulting to 14 when days is unspecified or non-numeric.
func ComputeWindow(rangeSelector, days string, now time.Time) Window {
	if rangeSelector == RangeCurrentWeek {
		daysSinceMonday := (int(now.Weekday()) + 6) % 7
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
			AddDate(0, 0, -daysSinceMonday)
		return Window{
			Range: RangeCurrentWeek,
			Days:  7,
			Start: start,
			End:   start.AddDate(0, 0, 7),
		}
	}

	n := defaultWindowDays
	if v, err := strconv.Atoi(days); err == nil {
		n = v
	}
	if n < 1 {
		n = 1
	}
	if n > maxWindowDays {
		n = maxWindowDays
	}
	return Window{
		Range: RangeRolling,
		Days:  n,
		Start: now,
		End:   now.AddDate(0, 0, n),
	}
}
