package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/khrees2412/careerflow/internal/stats"
	"github.com/khrees2412/careerflow/pkg/models"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "View application statistics and insights",
	Long:  "Display the dashboard: totals, match quality, pipeline breakdown and recent activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		refresh(cmd, a)

		apps := a.Applications.List()
		out := cmd.OutOrStdout()
		if len(apps) == 0 {
			fmt.Fprintln(out, "No applications yet. Run 'careerflow analyze' to create one.")
			return nil
		}

		s := stats.Calculate(apps, a.JobDescriptions.Len(), time.Now())

		fmt.Fprintln(out, titleStyle.Render("Application Statistics"))

		fmt.Fprintf(out, "%s\n", labelStyle.Render("Overview"))
		fmt.Fprintf(out, "  Total Applications: %d\n", s.Total)
		fmt.Fprintf(out, "  Analyses Run: %d\n", s.Analyses)
		fmt.Fprintf(out, "  Saved Job Descriptions: %d\n", s.SavedJDs)
		fmt.Fprintf(out, "  Perfect Matches (>%d%%): %d\n", stats.PerfectMatchThreshold, s.PerfectMatches)
		fmt.Fprintf(out, "  Average Match: %s\n", renderScore(int(s.AverageScore+0.5)))

		fmt.Fprintf(out, "\n%s\n", labelStyle.Render("Status Breakdown"))
		for _, status := range models.Statuses {
			count := s.StatusBreakdown[status]
			percentage := float64(count) / float64(s.Total) * 100
			label := fmt.Sprintf("%-16s", string(status)+":")
			fmt.Fprintf(out, "  %s %d (%.1f%%)\n", lipgloss.NewStyle().Foreground(statusColors[status]).Render(label), count, percentage)
		}

		fmt.Fprintf(out, "\n%s\n", labelStyle.Render(fmt.Sprintf("Activity (last %d days)", stats.ActivityDays)))
		fmt.Fprintf(out, "  %s\n", sparkline(s.Daily))
		first, last := s.Daily[0].Date, s.Daily[len(s.Daily)-1].Date
		fmt.Fprintf(out, "  %s\n", mutedStyle.Render(first.Format("Jan 2")+" → "+last.Format("Jan 2")))

		fmt.Fprintf(out, "\n%s\n", labelStyle.Render("Recent Applications"))
		for _, application := range s.Recent {
			fmt.Fprintf(out, "  %s %s %s\n",
				renderScore(application.MatchScore),
				position(application),
				mutedStyle.Render(application.DateApplied))
		}
		return nil
	},
}

var sparkLevels = []rune(" ▁▂▃▄▅▆▇█")

// sparkline draws one cell per day scaled to the busiest day.
func sparkline(days []stats.Day) string {
	peak := 0
	for _, d := range days {
		peak = max(peak, d.Count)
	}
	var b strings.Builder
	for _, d := range days {
		level := 0
		if peak > 0 {
			level = d.Count * (len(sparkLevels) - 1) / peak
		}
		b.WriteRune(sparkLevels[level])
	}
	return b.String()
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
