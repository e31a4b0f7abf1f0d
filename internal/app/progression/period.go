package progression

import (
	"fmt"
	"time"

	"github.com/genyouth/wellness/internal/domain"
)

// PeriodKey identifies the reset window of a challenge category containing t.
// Windows are computed in UTC: daily "2006-01-02", weekly ISO "2006-W01",
// monthly "2006-01".
func PeriodKey(c domain.ChallengeCategory, t time.Time) string {
	t = t.UTC()
	switch c {
	case domain.ChallengeWeekly:
		return isoWeek(t)
	case domain.ChallengeMonthly:
		return t.Format("2006-01")
	default:
		return t.Format(time.DateOnly)
	}
}

// isoWeek returns "YYYY-Www" for the given time.
func isoWeek(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
