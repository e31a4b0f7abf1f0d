package progression

import (
	"fmt"
	"time"

	"github.com/genyouth/wellness/internal/domain"
)

// CalendarDay returns midnight UTC of t's calendar date in t's own location.
// A user logging at 23:30 local time gets that local date, not the UTC one.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween counts whole calendar days from a to b. Both must be CalendarDay values.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// advanceStreak applies one logged activity on date to s.
// Same day: unchanged. Next day: extend. Gap of two or more days: restart at 1.
func advanceStreak(s domain.Streak, date time.Time) (domain.Streak, error) {
	day := CalendarDay(date)

	if s.LastDate.IsZero() {
		s.Current = 1
	} else {
		last := CalendarDay(s.LastDate)
		gap := daysBetween(last, day)
		switch {
		case gap < 0:
			return s, fmt.Errorf("log activity on %s after %s: %w",
				day.Format(time.DateOnly), last.Format(time.DateOnly), domain.ErrInvalidDate)
		case gap == 0:
			if s.Current == 0 {
				s.Current = 1
			}
		case gap == 1:
			s.Current++
		default:
			s.Current = 1
		}
	}

	s.LastDate = day
	if s.Current > s.Longest {
		s.Longest = s.Current
	}
	return s, nil
}
