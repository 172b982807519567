package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khrees2412/careerflow/pkg/models"
)

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"inbox"},
	Short:   "Show analysis notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		entries := a.Notifications.List()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No notifications.")
			return nil
		}

		fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Notifications (%d unread)", a.Notifications.UnreadCount())))
		for _, n := range entries {
			marker := mutedStyle.Render("  ")
			if !n.Read {
				marker = warnStyle.Render("● ")
			}
			fmt.Fprintf(out, "%s%s %s\n", marker, labelStyle.Render(n.Title), mutedStyle.Render(n.Timestamp.Local().Format(models.DateLayout)))
			fmt.Fprintf(out, "  %s\n", n.Message)
			fmt.Fprintf(out, "  %s\n", mutedStyle.Render(n.ID))
		}

		if markRead, _ := cmd.Flags().GetBool("mark-read"); markRead {
			a.Notifications.MarkAllRead()
		}
		return nil
	},
}

var removeNotificationCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Dismiss a notification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		before := a.Notifications.Len()
		a.Notifications.Remove(args[0])
		if a.Notifications.Len() == before {
			fmt.Fprintln(cmd.OutOrStdout(), "No notification with that id.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Notification removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(notificationsCmd)
	notificationsCmd.AddCommand(removeNotificationCmd)

	notificationsCmd.Flags().Bool("mark-read", false, "Mark every notification read after listing")
}
