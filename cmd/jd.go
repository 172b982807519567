package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khrees2412/careerflow/internal/scraper"
	"github.com/khrees2412/careerflow/pkg/models"
)

var jdCmd = &cobra.Command{
	Use:   "jd",
	Short: "Manage saved job descriptions",
	Long:  "Save job descriptions once and reuse them across analyses",
}

var listJDCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved job descriptions",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		refresh(cmd, a)

		out := cmd.OutOrStdout()
		jds := a.JobDescriptions.List()
		if len(jds) == 0 {
			fmt.Fprintln(out, "No saved job descriptions. Use 'careerflow jd add' to save one.")
			return nil
		}

		fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Job Descriptions (%d)", len(jds))))
		for _, jd := range jds {
			company := jd.Company
			if company == "" {
				company = "-"
			}
			fmt.Fprintf(out, "%s %s %s\n", labelStyle.Render(jd.ID.String()+"."), jd.Title, mutedStyle.Render("("+company+")"))
			fmt.Fprintf(out, "   %s\n", mutedStyle.Render(preview(jd.Content, 80)))
		}
		return nil
	},
}

var showJDCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a saved job description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		jd, ok := a.JobDescriptions.Get(models.ID(args[0]))
		if !ok {
			refresh(cmd, a)
			if jd, err = findJobDescription(a, args[0]); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render(jd.Title))
		if jd.Company != "" {
			fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Company:"), jd.Company)
		}
		if !jd.UpdatedAt.IsZero() {
			fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Updated:"), jd.UpdatedAt.Local().Format(models.DateLayout))
		}
		fmt.Fprintf(out, "\n%s\n", jd.Content)
		return nil
	},
}

var addJDCmd = &cobra.Command{
	Use:   "add",
	Short: "Save a job description",
	Example: `  careerflow jd add --title "Backend Engineer" --company Acme --file posting.txt
  careerflow jd add --url https://jobs.example.com/backend-engineer`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}

		title, _ := cmd.Flags().GetString("title")
		company, _ := cmd.Flags().GetString("company")
		content, _ := cmd.Flags().GetString("content")
		file, _ := cmd.Flags().GetString("file")
		pageURL, _ := cmd.Flags().GetString("url")

		if file != "" {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read job description: %w", err)
			}
			content = string(data)
		}

		if pageURL != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Fetching %s...\n", pageURL)
			posting, err := scraper.Fetch(cmd.Context(), a.Renderer, pageURL)
			if err != nil {
				return failure("could not fetch job posting", err)
			}
			// Flags win over what the page says.
			if title == "" {
				title = posting.Title
			}
			if company == "" {
				company = posting.Company
			}
			if content == "" {
				content = posting.Content
			}
		}

		jd, err := a.JobDescriptions.Create(cmd.Context(), models.JobDescriptionDraft{
			Title:   strings.TrimSpace(title),
			Company: strings.TrimSpace(company),
			Content: strings.TrimSpace(content),
		})
		if err != nil {
			return failure("could not save job description", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved job description %s: %s\n", jd.ID, jd.Title)
		return nil
	},
}

var editJDCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a saved job description",
	Example: `  careerflow jd edit 3 --company "Acme Corp"
  careerflow jd edit 3 --file updated.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}

		var patch models.JobDescriptionPatch
		flags := cmd.Flags()
		if flags.Changed("title") {
			title, _ := flags.GetString("title")
			title = strings.TrimSpace(title)
			patch.Title = &title
		}
		if flags.Changed("company") {
			company, _ := flags.GetString("company")
			company = strings.TrimSpace(company)
			patch.Company = &company
		}
		if flags.Changed("content") {
			content, _ := flags.GetString("content")
			content = strings.TrimSpace(content)
			patch.Content = &content
		}
		if flags.Changed("file") {
			file, _ := flags.GetString("file")
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read job description: %w", err)
			}
			content := strings.TrimSpace(string(data))
			patch.Content = &content
		}
		if patch.Title == nil && patch.Company == nil && patch.Content == nil {
			return fmt.Errorf("nothing to change: use --title, --company, --content or --file")
		}

		jd, err := a.JobDescriptions.Update(cmd.Context(), models.ID(args[0]), patch)
		if err != nil {
			return failure("could not update job description", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated job description %s: %s\n", jd.ID, jd.Title)
		return nil
	},
}

var removeJDCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Delete a saved job description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		if err := a.JobDescriptions.Remove(cmd.Context(), models.ID(args[0])); err != nil {
			return failure("could not remove job description", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed job description %s\n", args[0])
		return nil
	},
}

// preview flattens s to one line of at most n runes.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

func init() {
	rootCmd.AddCommand(jdCmd)
	jdCmd.AddCommand(listJDCmd)
	jdCmd.AddCommand(showJDCmd)
	jdCmd.AddCommand(addJDCmd)
	jdCmd.AddCommand(editJDCmd)
	jdCmd.AddCommand(removeJDCmd)

	for _, c := range []*cobra.Command{addJDCmd, editJDCmd} {
		c.Flags().String("title", "", "Job title")
		c.Flags().String("company", "", "Company name")
		c.Flags().String("content", "", "Job description text")
		c.Flags().String("file", "", "Read the job description text from a file")
	}
	addJDCmd.Flags().String("url", "", "Fetch the posting from a job page")
}
