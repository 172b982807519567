package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/khrees2412/careerflow/internal/config"
	"github.com/khrees2412/careerflow/internal/locale"
)

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Manage configuration",
	Long:        "View and update configuration settings",
	Annotations: map[string]string{skipApp: "true"},
}

var showConfigCmd = &cobra.Command{
	Use:         "show",
	Short:       "Display current configuration",
	Annotations: map[string]string{skipApp: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.Initialize(); err != nil {
			return err
		}

		data, err := yaml.Marshal(config.All())
		if err != nil {
			return fmt.Errorf("failed to render config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render("Configuration"))
		fmt.Fprintf(out, "%s %s\n\n", labelStyle.Render("Config File:"), config.GetConfigPath())
		fmt.Fprint(out, string(data))
		return nil
	},
}

var setConfigCmd = &cobra.Command{
	Use:         "set",
	Short:       "Update a configuration value",
	Annotations: map[string]string{skipApp: "true"},
	Example: `  careerflow config set --key api_url --value https://cv.example.com/api
  careerflow config set --key analysis_timeout --value 5m
  careerflow config set --key language --value vi`,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, _ := cmd.Flags().GetString("key")
		value, _ := cmd.Flags().GetString("value")

		if _, err := config.Initialize(); err != nil {
			return err
		}

		if key == "language" {
			lang, err := locale.Match(value)
			if err != nil {
				return failure("invalid language", err)
			}
			value = lang
		}

		if err := config.Set(key, value); err != nil {
			return fmt.Errorf("error updating config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Configuration updated: %s = %s\n", key, config.Get(key))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(showConfigCmd)
	configCmd.AddCommand(setConfigCmd)

	setConfigCmd.Flags().String("key", "", "Configuration key")
	setConfigCmd.Flags().String("value", "", "Configuration value")
	_ = setConfigCmd.MarkFlagRequired("key")
	_ = setConfigCmd.MarkFlagRequired("value")
}
