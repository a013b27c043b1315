// Package cli implements the meeting command line.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meetmate/core/config"
	"github.com/meetmate/core/internal/app"
	"github.com/meetmate/core/internal/output"
	"github.com/meetmate/core/internal/settings"
)

type Dependencies struct {
	Config   *config.Config
	Settings settings.Store
	Open     func(ctx context.Context) (*app.App, error)
	Out      io.Writer
	Logger   *zap.Logger

	app *app.App
}

// App opens the core components on first use.
func (d *Dependencies) App(ctx context.Context) (*app.App, error) {
	if d.app != nil {
		return d.app, nil
	}
	a, err := d.Open(ctx)
	if err != nil {
		return nil, err
	}
	d.app = a
	return a, nil
}

func (d *Dependencies) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// Close releases the core components if they were opened.
func (d *Dependencies) Close() {
	if d.app != nil {
		d.app.Close()
	}
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "meeting",
		Short:         "Upload meeting recordings and get transcripts and summaries",
		Long:          "A CLI that uploads meeting recordings to storage, starts transcription on the processing backend, and shows the results.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			first, err := settings.ConsumeFirstRun(deps.Settings)
			if err != nil {
				return fmt.Errorf("reading settings: %w", err)
			}
			if first {
				output.NewFormatter(deps.Out).Onboarding()
			}
			return nil
		},
	}

	rootCmd.AddCommand(NewUploadCmd(deps))
	rootCmd.AddCommand(NewListCmd(deps))
	rootCmd.AddCommand(NewShowCmd(deps))
	rootCmd.AddCommand(NewOpenCmd(deps))
	rootCmd.AddCommand(NewProcessCmd(deps))
	rootCmd.AddCommand(NewPlayURLCmd(deps))
	rootCmd.AddCommand(NewWatchCmd(deps))
	rootCmd.AddCommand(NewSettingsCmd(deps))

	return rootCmd
}

func parseMeetingID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid meeting id %q", arg)
	}
	return id, nil
}
