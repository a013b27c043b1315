package cli

import (
	"github.com/spf13/cobra"

	"github.com/meetmate/core/internal/notify"
	"github.com/meetmate/core/internal/output"
)

func NewListCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your meetings, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(deps.Out)
			a, err := deps.App(cmd.Context())
			if err != nil {
				return err
			}
			list, err := a.Meetings.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				formatter.Info("No meetings found")
				return nil
			}
			formatter.MeetingListHeader()
			for _, m := range list {
				formatter.MeetingListItem(m)
			}
			return nil
		},
	}
}

func NewShowCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a meeting with its summary and transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMeetingID(args[0])
			if err != nil {
				return err
			}
			a, err := deps.App(cmd.Context())
			if err != nil {
				return err
			}
			m, err := a.Meetings.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			formatter := output.NewFormatter(deps.Out)
			formatter.MeetingDetail(m)
			formatter.Info("Link: " + notify.Link{MeetingID: m.ID}.URL())
			return nil
		},
	}
}
