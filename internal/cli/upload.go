package cli

import (
	"github.com/spf13/cobra"

	"github.com/meetmate/core/internal/fileinfo"
	"github.com/meetmate/core/internal/models"
	"github.com/meetmate/core/internal/output"
	"github.com/meetmate/core/internal/pipeline"
)

func NewUploadCmd(deps *Dependencies) *cobra.Command {
	var (
		name   string
		simple bool
	)
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a recording, create its meeting and start processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(deps.Out)

			info, err := fileinfo.Inspect(args[0])
			if err != nil {
				return err
			}
			a, err := deps.App(cmd.Context())
			if err != nil {
				return err
			}

			formatter.Uploading(info)
			meeting, result, err := a.Pipeline.SaveRecording(cmd.Context(), args[0], name, pipeline.SaveOptions{
				Simple:     simple,
				OnProgress: func(p models.UploadProgress) { formatter.Progress(p) },
			})
			if err != nil {
				return err
			}
			formatter.MeetingSaved(meeting)
			if !result.Success {
				formatter.ProcessingFailed(result.Message, result.StatusCode)
				formatter.Info("Retry with: meeting process " + meeting.ID.String())
				return nil
			}
			formatter.ProcessingStarted(result.Message)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "meeting name (default: file name)")
	cmd.Flags().BoolVar(&simple, "simple", false, "upload in one request without resume support")
	return cmd
}
