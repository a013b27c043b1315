package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meetmate/core/internal/output"
	"github.com/meetmate/core/internal/settings"
)

func NewSettingsCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage client settings",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "token <value>",
		Short: "Register the push notification token of this device (empty value unregisters it)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := settings.SetNotificationToken(deps.Settings, args[0]); err != nil {
				return err
			}
			a, err := deps.App(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Profiles.UpdateDeviceToken(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("token saved locally but not registered: %w", err)
			}
			formatter := output.NewFormatter(deps.Out)
			if args[0] == "" {
				formatter.Success("Notification token removed")
				return nil
			}
			formatter.Success("Notification token registered")
			return nil
		},
	})
	return cmd
}
