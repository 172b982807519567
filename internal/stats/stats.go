// Package stats computes the dashboard figures for tracked applications.
package stats

import (
	"strings"
	"time"

	"github.com/khrees2412/careerflow/pkg/models"
)

const (
	// PerfectMatchThreshold is exclusive: a score must be above it.
	PerfectMatchThreshold = 90
	// ActivityDays is the length of the daily activity window.
	ActivityDays = 30
	// RecentCount is how many of the newest applications the dashboard lists.
	RecentCount = 4
)

type Stats struct {
	Total           int
	Analyses        int
	SavedJDs        int
	PerfectMatches  int
	AverageScore    float64
	StatusBreakdown map[models.Status]int
	// Daily holds one entry per day of the activity window, oldest first.
	Daily  []Day
	Recent []models.Application
}

type Day struct {
	Date  time.Time
	Count int
}

// Tier buckets a match score for display.
type Tier int

const (
	TierLow Tier = iota
	TierFair
	TierGood
	TierExcellent
)

func ScoreTier(score int) Tier {
	switch {
	case score >= 90:
		return TierExcellent
	case score >= 75:
		return TierGood
	case score >= 60:
		return TierFair
	}
	return TierLow
}

// Calculate builds the dashboard for apps, which are newest first. now fixes
// the end of the activity window.
func Calculate(apps []models.Application, savedJDs int, now time.Time) Stats {
	stats := Stats{
		Total:           len(apps),
		Analyses:        len(apps),
		SavedJDs:        savedJDs,
		StatusBreakdown: make(map[models.Status]int, len(models.Statuses)),
	}

	perDay := make(map[string]int)
	sum := 0
	for _, app := range apps {
		stats.StatusBreakdown[app.Status]++
		if app.MatchScore > PerfectMatchThreshold {
			stats.PerfectMatches++
		}
		sum += app.MatchScore
		if day, ok := dayOf(app.DateApplied); ok {
			perDay[day]++
		}
	}
	if len(apps) > 0 {
		stats.AverageScore = float64(sum) / float64(len(apps))
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	stats.Daily = make([]Day, 0, ActivityDays)
	for i := ActivityDays - 1; i >= 0; i-- {
		d := today.AddDate(0, 0, -i)
		stats.Daily = append(stats.Daily, Day{Date: d, Count: perDay[d.Format("2006-01-02")]})
	}

	n := min(RecentCount, len(apps))
	stats.Recent = append([]models.Application(nil), apps[:n]...)
	return stats
}

// dayOf extracts the calendar day of a dateApplied value as YYYY-MM-DD. It
// reads "dd/mm/yyyy, hh:mm" and ISO dates; anything else is skipped.
func dayOf(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	datePart := strings.TrimSpace(strings.SplitN(s, ",", 2)[0])
	if t, err := time.Parse("02/01/2006", datePart); err == nil {
		return t.Format("2006-01-02"), true
	}
	if t, err := time.Parse("2/1/2006", datePart); err == nil {
		return t.Format("2006-01-02"), true
	}
	if i := strings.IndexByte(s, 'T'); i > 0 {
		s = s[:i]
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Format("2006-01-02"), true
	}
	return "", false
}
