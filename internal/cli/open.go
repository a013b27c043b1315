package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meetmate/core/internal/notify"
	"github.com/meetmate/core/internal/output"
)

func NewOpenCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "open <link>",
		Short: "Show the meeting a notification link points to",
		Long:  "Accepts meetmate://meeting/<id> and https://meetmate.app/meeting/<id> links.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			link, ok := notify.ParseDeeplink(args[0])
			if !ok {
				return fmt.Errorf("not a meeting link: %q", args[0])
			}
			a, err := deps.App(cmd.Context())
			if err != nil {
				return err
			}
			m, err := a.Meetings.GetByID(cmd.Context(), link.MeetingID)
			if err != nil {
				return err
			}
			output.NewFormatter(deps.Out).MeetingDetail(m)
			return nil
		},
	}
}
