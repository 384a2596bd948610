package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/slipstream/internal/layout"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	Database string
}

// SeedResult is the JSON payload of the seed command.
type SeedResult struct {
	Seeded  bool `json:"seeded"`
	Records int  `json:"records"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the root layout into an empty database",
		Long: `Create the database if needed and, when it holds no layouts, insert the
default layout for user "default" at path "/" on "desktop".

Serve performs the same step at startup. Seeding a database that already
holds layouts changes nothing.

Example:
  slipstream seed --db ./slipstream.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")

	return cmd
}

func runSeed(opts *SeedOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, logger, err := openStore(opts.RootOptions, opts.Database, cmd)
	if err != nil {
		return err
	}
	defer closeStore(st, logger)

	ctx := commandContext(cmd)
	seeded, err := layout.NewService(st, logger).Bootstrap(ctx)
	if err != nil {
		return reportError(formatter, "failed to seed database", err)
	}
	count, err := st.Count(ctx)
	if err != nil {
		return reportError(formatter, "failed to count layouts", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(SeedResult{Seeded: seeded, Records: count})
	}
	if seeded {
		fmt.Fprintln(formatter.Writer, "Seeded root layout")
	} else {
		fmt.Fprintf(formatter.Writer, "Database already holds %d layout(s); nothing seeded\n", count)
	}
	return nil
}
