package checkin

import (
	"math"
	"time"

	"github.com/genyouth/wellness/internal/domain"
)

// Summarize averages entries per calendar day over the days ending on
// end's date, in end's location. Entries outside the window are ignored.
// Every day in the window appears in Days, empty ones with Count 0.
func Summarize(entries []domain.CheckIn, end time.Time, days int) domain.CheckInSummary {
	if days <= 0 {
		days = DefaultDays
	}
	last := startOfDay(end)
	first := last.AddDate(0, 0, -(days - 1))

	buckets := make([]acc, days)
	index := make(map[string]int, days)
	for i := range buckets {
		key := first.AddDate(0, 0, i).Format(time.DateOnly)
		index[key] = i
	}

	var total acc
	tags := make(map[domain.MoodTag]int)
	var topTag domain.MoodTag
	for _, c := range entries {
		i, ok := index[c.CreatedAt.In(end.Location()).Format(time.DateOnly)]
		if !ok {
			continue
		}
		buckets[i].add(c)
		total.add(c)
		if c.Tag != "" {
			tags[c.Tag]++
			if n := tags[c.Tag]; n > tags[topTag] || (n == tags[topTag] && c.Tag < topTag) {
				topTag = c.Tag
			}
		}
	}

	out := domain.CheckInSummary{
		From:     first.Format(time.DateOnly),
		To:       last.Format(time.DateOnly),
		Count:    total.n,
		Averages: total.day(""),
		Days:     make([]domain.CheckInDay, days),
		TopTag:   topTag,
	}
	firstMood, lastMood := math.NaN(), math.NaN()
	for i := range buckets {
		day := buckets[i].day(first.AddDate(0, 0, i).Format(time.DateOnly))
		out.Days[i] = day
		if day.Count == 0 {
			continue
		}
		if math.IsNaN(firstMood) {
			firstMood = day.Mood
		}
		lastMood = day.Mood
	}
	if !math.IsNaN(firstMood) {
		out.MoodChange = round(lastMood - firstMood)
	}
	return out
}

// acc sums scores for one bucket.
type acc struct {
	n, sleepN                   int
	mood, energy, stress, sleep int
}

func (a *acc) add(c domain.CheckIn) {
	a.n++
	a.mood += c.Mood
	a.energy += c.Energy
	a.stress += c.Stress
	if c.Sleep > 0 {
		a.sleepN++
		a.sleep += c.Sleep
	}
}

func (a acc) day(date string) domain.CheckInDay {
	d := domain.CheckInDay{Date: date, Count: a.n}
	if a.n == 0 {
		return d
	}
	d.Mood = avg(a.mood, a.n)
	d.Energy = avg(a.energy, a.n)
	d.Stress = avg(a.stress, a.n)
	if a.sleepN > 0 {
		d.Sleep = avg(a.sleep, a.sleepN)
	}
	return d
}

func avg(sum, n int) float64 { return round(float64(sum) / float64(n)) }

// round keeps one decimal place.
func round(v float64) float64 { return math.Round(v*10) / 10 }
