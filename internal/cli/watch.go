package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meetmate/core/internal/models"
	"github.com/meetmate/core/internal/notify"
	"github.com/meetmate/core/internal/output"
)

func NewWatchCmd(deps *Dependencies) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch <id>",
		Short: "Wait until a meeting finished processing and show it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive, got %s", interval)
			}
			id, err := parseMeetingID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := deps.App(ctx)
			if err != nil {
				return err
			}
			formatter := output.NewFormatter(deps.Out)

			m, err := a.Meetings.GetByID(ctx, id)
			if err != nil {
				return err
			}

			wake := make(chan struct{}, 1)
			if a.Subscriber != nil {
				cancel, err := a.Subscriber.Subscribe(ctx, m.Owner, func(l notify.Link) {
					if l.MeetingID != id {
						return
					}
					select {
					case wake <- struct{}{}:
					default:
					}
				})
				if err != nil {
					deps.logger().Warn("notifications unavailable, polling only", zap.Error(err))
				} else {
					defer cancel()
				}
			}

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			formatter.Info("Waiting for " + m.Name + " to finish processing...")
			for {
				switch m.Status {
				case models.StatusCompleted:
					formatter.MeetingDetail(m)
					return nil
				case models.StatusNotSubmitted:
					formatter.Warning("Meeting is not being processed. Start it with: meeting process " + id.String())
					return nil
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-wake:
				case <-ticker.C:
				}
				if m, err = a.Meetings.GetByID(ctx, id); err != nil {
					return err
				}
			}
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 15*time.Second, "polling interval when no notification arrives")
	return cmd
}
