package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/slipstream/internal/layout"
	"github.com/roach88/slipstream/internal/settings"
)

// SetOptions holds flags for the set command.
type SetOptions struct {
	*RootOptions
	targetOptions
}

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set <settings-json>",
		Short: "Merge settings into the layout for a context",
		Long: `Merge a partial settings document into the layout for a context.

The argument is a flat JSON object of boolean, number or string values.
Keys it names are overwritten; all other stored keys are kept. A context
that was never saved starts from the default layout.

Example:
  slipstream set --db ./slipstream.db --path /docs '{"left_width":400}'
  slipstream set --user alice --device mobile '{"theme":"dark"}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(opts, args[0], cmd)
		},
	}

	addTargetFlags(cmd, &opts.targetOptions)

	return cmd
}

func runSet(opts *SetOptions, raw string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	partial, err := settings.Parse([]byte(raw))
	if err != nil {
		return reportError(formatter, "invalid settings JSON", err)
	}

	st, logger, err := openStore(opts.RootOptions, opts.Database, cmd)
	if err != nil {
		return err
	}
	defer closeStore(st, logger)

	svc := layout.NewService(st, logger)
	rec, err := svc.Update(commandContext(cmd), opts.request(), partial)
	if err != nil {
		return reportError(formatter, "failed to set layout", err)
	}
	return formatter.Record(rec)
}
