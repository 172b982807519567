package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/khrees2412/careerflow/internal/analysis"
	"github.com/khrees2412/careerflow/internal/stats"
	"github.com/khrees2412/careerflow/pkg/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginTop(1).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("7"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

var tierColors = map[stats.Tier]lipgloss.Color{
	stats.TierExcellent: lipgloss.Color("10"),
	stats.TierGood:      lipgloss.Color("12"),
	stats.TierFair:      lipgloss.Color("11"),
	stats.TierLow:       lipgloss.Color("9"),
}

var statusColors = map[models.Status]lipgloss.Color{
	models.StatusWishlist:      lipgloss.Color("8"),
	models.StatusApplied:       lipgloss.Color("12"),
	models.StatusInterviewing:  lipgloss.Color("13"),
	models.StatusOfferReceived: lipgloss.Color("10"),
	models.StatusRejected:      lipgloss.Color("9"),
}

func renderScore(score int) string {
	return lipgloss.NewStyle().Bold(true).Foreground(tierColors[stats.ScoreTier(score)]).Render(fmt.Sprintf("%d%%", score))
}

// renderScoreBar draws score out of 100 in width cells.
func renderScoreBar(score, width int) string {
	filled := score * width / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return lipgloss.NewStyle().Foreground(tierColors[stats.ScoreTier(score)]).Render(bar)
}

// knownCompany is false for a blank name and for the placeholder recorded
// when an analysis had no company.
func knownCompany(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && name != analysis.UnknownCompany
}

// position renders "title at company", leaving out an unknown company.
func position(a models.Application) string {
	if !knownCompany(a.CompanyName) {
		return a.JobTitle
	}
	return a.JobTitle + " at " + strings.TrimSpace(a.CompanyName)
}

func renderStatus(s models.Status) string {
	color, ok := statusColors[s]
	if !ok {
		color = lipgloss.Color("7")
	}
	return lipgloss.NewStyle().Foreground(color).Render(string(s))
}
