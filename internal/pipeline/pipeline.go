// Package pipeline filters and orders applications for the pipeline view.
package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/khrees2412/careerflow/pkg/models"
)

// AllStatuses disables the status filter.
const AllStatuses = "All"

// SortKey names a sortable application field. The empty key keeps the
// collection order.
type SortKey string

const (
	SortNone        SortKey = ""
	SortJobTitle    SortKey = "jobTitle"
	SortCompanyName SortKey = "companyName"
	SortStatus      SortKey = "status"
	SortMatchScore  SortKey = "matchScore"
	SortDateApplied SortKey = "dateApplied"
)

var sortKeys = []SortKey{SortJobTitle, SortCompanyName, SortStatus, SortMatchScore, SortDateApplied}

// ParseSortKey accepts a field name case-insensitively.
func ParseSortKey(s string) (SortKey, error) {
	if strings.TrimSpace(s) == "" {
		return SortNone, nil
	}
	for _, k := range sortKeys {
		if strings.EqualFold(string(k), s) {
			return k, nil
		}
	}
	return SortNone, fmt.Errorf("unknown sort key %q", s)
}

// Query describes one pipeline view.
type Query struct {
	Search     string
	Status     string
	SortKey    SortKey
	Descending bool
}

// Apply returns the applications matching q in display order. The input is
// not modified.
func Apply(apps []models.Application, q Query) []models.Application {
	term := strings.ToLower(strings.TrimSpace(q.Search))
	status := strings.TrimSpace(q.Status)

	out := make([]models.Application, 0, len(apps))
	for _, app := range apps {
		if term != "" &&
			!strings.Contains(strings.ToLower(app.JobTitle), term) &&
			!strings.Contains(strings.ToLower(app.CompanyName), term) {
			continue
		}
		if status != "" && status != AllStatuses && string(app.Status) != status {
			continue
		}
		out = append(out, app)
	}

	if q.SortKey == SortNone {
		return out
	}
	less := comparator(q.SortKey)
	sort.SliceStable(out, func(i, j int) bool {
		if q.Descending {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

func comparator(key SortKey) func(a, b models.Application) bool {
	switch key {
	case SortJobTitle:
		return func(a, b models.Application) bool { return a.JobTitle < b.JobTitle }
	case SortCompanyName:
		return func(a, b models.Application) bool { return a.CompanyName < b.CompanyName }
	case SortStatus:
		return func(a, b models.Application) bool { return a.Status < b.Status }
	case SortMatchScore:
		return func(a, b models.Application) bool { return a.MatchScore < b.MatchScore }
	case SortDateApplied:
		return lessDateApplied
	}
	return func(a, b models.Application) bool { return false }
}

// lessDateApplied orders parseable dates chronologically. Anything that does
// not parse falls back to string order and sorts after parseable dates.
func lessDateApplied(a, b models.Application) bool {
	ta, okA := a.AppliedAt()
	tb, okB := b.AppliedAt()
	switch {
	case okA && okB:
		return ta.Before(tb)
	case okA != okB:
		return okA
	}
	return a.DateApplied < b.DateApplied
}
