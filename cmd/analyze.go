package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khrees2412/careerflow/internal/analysis"
	"github.com/khrees2412/careerflow/internal/app"
	"github.com/khrees2412/careerflow/internal/resume"
	"github.com/khrees2412/careerflow/pkg/models"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Match a CV against a job description",
	Long: `Upload a PDF CV together with a job description. The analysis runs on the
backend and can take a minute; when it succeeds the result is saved as a new
application with status Applied.`,
	Example: `  careerflow analyze --cv cv.pdf --jd-id 3
  careerflow analyze --cv cv.pdf --jd-file posting.txt
  careerflow analyze --cv cv.pdf --jd-text "Senior Go engineer, Kubernetes, Postgres"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}

		cvPath, _ := cmd.Flags().GetString("cv")
		jdText, _ := cmd.Flags().GetString("jd-text")
		jdFile, _ := cmd.Flags().GetString("jd-file")
		jdID, _ := cmd.Flags().GetString("jd-id")

		if jdFile != "" {
			data, err := os.ReadFile(jdFile)
			if err != nil {
				return fmt.Errorf("failed to read job description: %w", err)
			}
			jdText = string(data)
		}
		if strings.TrimSpace(jdText) == "" && jdID == "" {
			return app.ErrNoInput
		}

		cv, err := resume.Load(cvPath, int64(a.Config.MaxCVSizeMB)<<20)
		if err != nil {
			return err
		}

		req := analysis.Request{CV: cv, JDText: jdText, JDReferenceID: models.ID(jdID)}
		if jdID != "" {
			if _, ok := a.JobDescriptions.Get(req.JDReferenceID); !ok {
				refresh(cmd, a)
			}
		}

		job, err := a.Analyzer.Run(cmd.Context(), req)
		if err != nil {
			return failure("cannot start analysis", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Analyzing %s... this can take a minute.\n", cv.Name)
		if _, err := job.Wait(cmd.Context()); err != nil {
			return fmt.Errorf("stopped waiting for the analysis: %w", err)
		}

		outcome, _ := a.Analyzer.Observe()
		switch {
		case outcome.Failure == analysis.FailureSave:
			return failure("analysis succeeded but saving failed", outcome.Err)
		case outcome.State != analysis.Succeeded:
			return failure("analysis failed", outcome.Err)
		}

		application := *outcome.Application
		fmt.Fprintf(out, "✓ Saved application %s: %s\n", application.ID, position(application))
		printAnalysis(out, application.AnalysisResult.View(a.Locale.Current()))
		return nil
	},
}

// printAnalysis renders a resolved analysis.
func printAnalysis(w io.Writer, v models.AnalysisView) {
	fmt.Fprintln(w, titleStyle.Render("Match Analysis"))
	if v.PersonalInfo.Name != "" {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Candidate:"), v.PersonalInfo.Name)
	}
	if v.PersonalInfo.Position != "" {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Position:"), v.PersonalInfo.Position)
	}
	if v.PersonalInfo.Experience != "" {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Experience:"), v.PersonalInfo.Experience)
	}
	fmt.Fprintf(w, "%s %s %s\n", labelStyle.Render("Match:"), renderScore(v.Score), renderScoreBar(v.Score, 20))
	if v.Explanation != "" {
		fmt.Fprintf(w, "  %s\n", valueStyle.Render(v.Explanation))
	}
	if v.MustHaveRatio != "" || v.NiceToHaveRatio != "" {
		fmt.Fprintf(w, "%s must-have %s, nice-to-have %s\n", labelStyle.Render("Requirements:"), v.MustHaveRatio, v.NiceToHaveRatio)
	}
	if len(v.MatchedKeywords) > 0 {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Keywords:"), strings.Join(v.MatchedKeywords, ", "))
	}

	if len(v.Radar) > 0 {
		fmt.Fprintf(w, "\n%s\n", labelStyle.Render("Skills"))
		for _, r := range v.Radar {
			score := int(r.Score * 10)
			fmt.Fprintf(w, "  %-18s %s %.1f\n", r.Axis, renderScoreBar(min(max(score, 0), 100), 10), r.Score)
		}
	}

	if v.GeneralAssessment != "" {
		fmt.Fprintf(w, "\n%s\n  %s\n", labelStyle.Render("Assessment"), v.GeneralAssessment)
	}
	printList(w, "Strengths", v.Strengths)
	printList(w, "Gaps", v.Weaknesses)

	if len(v.ComparisonTable) > 0 {
		fmt.Fprintf(w, "\n%s\n", labelStyle.Render("Requirements vs CV"))
		for _, row := range v.ComparisonTable {
			fmt.Fprintf(w, "  • %s\n    %s %s\n", row.JDRequirement, mutedStyle.Render(row.Status+":"), row.CVEvidence)
		}
	}
	printList(w, "Interview questions", v.InterviewQuestions)
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", labelStyle.Render(title))
	for _, item := range items {
		fmt.Fprintf(w, "  • %s\n", item)
	}
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().String("cv", "", "Path to the CV (PDF)")
	analyzeCmd.Flags().String("jd-text", "", "Job description text")
	analyzeCmd.Flags().String("jd-file", "", "Read the job description from a file")
	analyzeCmd.Flags().String("jd-id", "", "Use a saved job description")
	_ = analyzeCmd.MarkFlagRequired("cv")
}
