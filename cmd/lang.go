package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khrees2412/careerflow/internal/locale"
)

var langCmd = &cobra.Command{
	Use:   "lang",
	Short: "Show the display language",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Language:"), a.Locale.Current())
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Supported:"), strings.Join(locale.Supported, ", "))
		return nil
	},
}

var setLangCmd = &cobra.Command{
	Use:   "set <tag>",
	Short: "Switch the display language",
	Example: `  careerflow lang set vi
  careerflow lang set en-GB`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		lang, err := a.Locale.Set(args[0])
		if err != nil {
			return failure("could not change language", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Language set to %s\n", lang)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(langCmd)
	langCmd.AddCommand(setLangCmd)
}
