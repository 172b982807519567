package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khrees2412/careerflow/internal/pipeline"
	"github.com/khrees2412/careerflow/pkg/models"
)

var appsCmd = &cobra.Command{
	Use:     "apps",
	Aliases: []string{"applications"},
	Short:   "Manage tracked applications",
	Long:    "List, inspect, move and remove the applications created by analyses",
}

var listAppsCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the application pipeline",
	Example: `  careerflow apps list --search acme
  careerflow apps list --status Interviewing --sort matchScore --desc`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}

		search, _ := cmd.Flags().GetString("search")
		status, _ := cmd.Flags().GetString("status")
		sortBy, _ := cmd.Flags().GetString("sort")
		desc, _ := cmd.Flags().GetBool("desc")

		if status != "" && !strings.EqualFold(status, pipeline.AllStatuses) {
			parsed, err := models.ParseStatus(status)
			if err != nil {
				return err
			}
			status = string(parsed)
		}
		key, err := pipeline.ParseSortKey(sortBy)
		if err != nil {
			return err
		}

		refresh(cmd, a)
		apps := pipeline.Apply(a.Applications.List(), pipeline.Query{
			Search:     search,
			Status:     status,
			SortKey:    key,
			Descending: desc,
		})

		out := cmd.OutOrStdout()
		if len(apps) == 0 {
			if a.Applications.Len() == 0 {
				fmt.Fprintln(out, "No applications yet. Run 'careerflow analyze' to create one.")
			} else {
				fmt.Fprintln(out, "No applications match the filters.")
			}
			return nil
		}

		fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Applications (%d)", len(apps))))
		for _, application := range apps {
			fmt.Fprintf(out, "%s %s\n", labelStyle.Render(application.ID.String()+"."), position(application))
			fmt.Fprintf(out, "   %s  %s  %s\n",
				renderStatus(application.Status),
				renderScore(application.MatchScore),
				mutedStyle.Render(application.DateApplied))
		}
		return nil
	},
}

var showAppCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an application with its analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		application, ok := a.Applications.Get(models.ID(args[0]))
		if !ok {
			refresh(cmd, a)
			if application, err = findApplication(a, args[0]); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render(application.JobTitle))
		if knownCompany(application.CompanyName) {
			fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Company:"), application.CompanyName)
		}
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Status:"), renderStatus(application.Status))
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Applied:"), application.DateApplied)

		if application.AnalysisResult.IsZero() {
			fmt.Fprintln(out, mutedStyle.Render("\nNo analysis stored for this application."))
		} else {
			printAnalysis(out, application.AnalysisResult.View(a.Locale.Current()))
		}

		if showJD, _ := cmd.Flags().GetBool("jd"); showJD && application.JDContent != "" {
			fmt.Fprintf(out, "\n%s\n%s\n", labelStyle.Render("Job description"), application.JDContent)
		}
		return nil
	},
}

var statusAppCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Move an application to another stage",
	Example: `  careerflow apps status 12 interviewing
  careerflow apps status 12 "Offer Received"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		status, err := models.ParseStatus(args[1])
		if err != nil {
			return err
		}

		updated, err := a.Applications.Update(cmd.Context(), models.ID(args[0]), models.ApplicationPatch{Status: &status})
		if err != nil {
			return failure("could not update status", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is now %s\n", position(updated), renderStatus(updated.Status))
		return nil
	},
}

var renameAppCmd = &cobra.Command{
	Use:   "rename <id> <title>",
	Short: "Change the job title of an application",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		title := strings.TrimSpace(args[1])

		updated, err := a.Applications.Update(cmd.Context(), models.ID(args[0]), models.ApplicationPatch{JobTitle: &title})
		if err != nil {
			return failure("could not rename application", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Renamed application %s to %s\n", updated.ID, updated.JobTitle)
		return nil
	},
}

var removeAppCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Delete an application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		id := models.ID(args[0])
		label := "application " + id.String()
		if application, ok := a.Applications.Get(id); ok {
			label = position(application)
		}

		if err := a.Applications.Remove(cmd.Context(), id); err != nil {
			return failure("could not remove application", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %s\n", label)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(appsCmd)
	appsCmd.AddCommand(listAppsCmd)
	appsCmd.AddCommand(showAppCmd)
	appsCmd.AddCommand(statusAppCmd)
	appsCmd.AddCommand(renameAppCmd)
	appsCmd.AddCommand(removeAppCmd)

	listAppsCmd.Flags().String("search", "", "Match job title or company (case-insensitive)")
	listAppsCmd.Flags().String("status", pipeline.AllStatuses, "Only show one stage")
	listAppsCmd.Flags().String("sort", "", "Sort by jobTitle, companyName, status, matchScore or dateApplied")
	listAppsCmd.Flags().Bool("desc", false, "Sort descending")

	showAppCmd.Flags().Bool("jd", false, "Also print the job description used for the analysis")
}
