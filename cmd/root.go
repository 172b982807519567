package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/khrees2412/careerflow/internal/app"
	"github.com/khrees2412/careerflow/internal/apperr"
	"github.com/khrees2412/careerflow/pkg/models"
)

// skipApp marks commands that run without the app container.
const skipApp = "skip-app"

var rootCmd = &cobra.Command{
	Use:   "careerflow",
	Short: "Track job applications and CV match analyses",
	Long: `CareerFlow tracks your job applications against a resume analysis backend.
Upload a CV with a job description to get a bilingual match analysis; every
successful analysis becomes a tracked application in your pipeline.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[skipApp] == "true" {
			return nil
		}

		// Initialize app with all dependencies
		application, err := app.NewApp(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}

		// Store app in command context
		cmd.SetContext(app.WithApp(cmd.Root().Context(), application))
		return nil
	},
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		stop()
		os.Exit(1)
	}
}

// run executes args and releases the app the command opened.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	cmd, err := rootCmd.ExecuteContextC(ctx)
	if cmd != nil {
		if application, ok := app.FromContext(cmd.Context()); ok {
			application.Close()
		}
	}
	return err
}

func getApp(cmd *cobra.Command) (*app.App, error) {
	application, ok := app.FromContext(cmd.Context())
	if !ok {
		return nil, fmt.Errorf("application not initialized")
	}
	return application, nil
}

// refresh syncs the cached collections, warning instead of failing when the
// backend cannot be reached.
func refresh(cmd *cobra.Command, a *app.App) {
	if err := a.Refresh(cmd.Context()); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s Showing cached data.\n", warnStyle.Render("Warning:"), apperr.UserMessage(err))
	}
}

// failure describes err for the terminal. Classified errors use the
// user-facing message; anything else keeps its chain.
func failure(action string, err error) error {
	if apperr.KindOf(err) == apperr.KindUnknown {
		return fmt.Errorf("%s: %w", action, err)
	}
	return fmt.Errorf("%s: %s", action, apperr.UserMessage(err))
}

func findApplication(a *app.App, id string) (models.Application, error) {
	application, ok := a.Applications.Get(models.ID(id))
	if !ok {
		return models.Application{}, fmt.Errorf("application %s: %w", id, app.ErrNotFound)
	}
	return application, nil
}

func findJobDescription(a *app.App, id string) (models.JobDescription, error) {
	jd, ok := a.JobDescriptions.Get(models.ID(id))
	if !ok {
		return models.JobDescription{}, fmt.Errorf("job description %s: %w", id, app.ErrNotFound)
	}
	return jd, nil
}
