package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meetmate/core/internal/output"
)

func NewProcessCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "process <id>",
		Short: "Retry processing of a meeting",
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
			result, err := a.Pipeline.RetryProcessing(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !result.Success {
				output.NewFormatter(deps.Out).ProcessingFailed(result.Message, result.StatusCode)
				return fmt.Errorf("processing not started")
			}
			output.NewFormatter(deps.Out).ProcessingStarted(result.Message)
			return nil
		},
	}
}

func NewPlayURLCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "play-url <id>",
		Short: "Print a signed playback URL for a meeting recording",
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
			signed, err := a.Pipeline.Playback(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(deps.Out, signed.URL)
			return nil
		},
	}
}
