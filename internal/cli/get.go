package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/slipstream/internal/contextkey"
)

// GetOptions holds flags for the get command.
type GetOptions struct {
	*RootOptions
	targetOptions
	Key string
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show the stored layout for a context",
		Long: `Show the stored layout for a context.

The context is chosen by --path and --device, or directly by --key. Unlike
the HTTP API, get never creates a record; a context that was never saved is
reported as not found.

Example:
  slipstream get --db ./slipstream.db --path /docs --device mobile
  slipstream get --db ./slipstream.db --key 7aae646b4b7ca84c --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(opts, cmd)
		},
	}

	addTargetFlags(cmd, &opts.targetOptions)
	cmd.Flags().StringVar(&opts.Key, "key", "", "context key (16 hex characters) instead of --path/--device")
	cmd.MarkFlagsMutuallyExclusive("key", "path")
	cmd.MarkFlagsMutuallyExclusive("key", "device")

	return cmd
}

func runGet(opts *GetOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	userID, key := opts.request().Resolve()
	if opts.Key != "" {
		parsed, err := contextkey.Parse(opts.Key)
		if err != nil {
			_ = formatter.Error(CodeInvalidInput, "invalid --key", err.Error())
			return WrapExitError(ExitCommandError, "invalid --key", err)
		}
		key = parsed
	}

	st, logger, err := openStore(opts.RootOptions, opts.Database, cmd)
	if err != nil {
		return err
	}
	defer closeStore(st, logger)

	formatter.VerboseLog("Looking up user=%s context=%s", userID, key)
	rec, err := st.Get(commandContext(cmd), userID, key)
	if err != nil {
		return reportError(formatter, "failed to get layout", err)
	}
	return formatter.Record(rec)
}
