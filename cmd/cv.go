package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khrees2412/careerflow/internal/config"
	"github.com/khrees2412/careerflow/internal/resume"
)

var cvCmd = &cobra.Command{
	Use:         "cv",
	Short:       "Work with CV files",
	Annotations: map[string]string{skipApp: "true"},
}

var inspectCVCmd = &cobra.Command{
	Use:         "inspect <file>",
	Short:       "Check that a CV can be uploaded for analysis",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{skipApp: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Initialize()
		if err != nil {
			return err
		}

		cv, err := resume.Load(args[0], int64(cfg.MaxCVSizeMB)<<20)
		if err != nil {
			return failure("cannot use CV", err)
		}
		info, err := resume.Inspect(cv)
		if err != nil {
			return failure("cannot use CV", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ %s is ready for analysis\n", info.Name)
		fmt.Fprintf(out, "%s %.1f KB\n", labelStyle.Render("Size:"), float64(info.Size)/1024)
		fmt.Fprintf(out, "%s %d\n", labelStyle.Render("Pages:"), info.Pages)

		if showText, _ := cmd.Flags().GetBool("text"); showText {
			text, err := resume.Text(cv)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", warnStyle.Render("Warning:"), err)
				return nil
			}
			fmt.Fprintf(out, "\n%s\n%s\n", labelStyle.Render("Extracted text"), preview(text, 600))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cvCmd)
	cvCmd.AddCommand(inspectCVCmd)

	inspectCVCmd.Flags().Bool("text", false, "Print a preview of the extracted text")
}
