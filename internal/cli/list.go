package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/slipstream/internal/layout"
	"github.com/roach88/slipstream/internal/store"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Database string
	User     string
	AllUsers bool
}

// ListResult is the JSON payload of the list command.
type ListResult struct {
	Records []store.Record `json:"records"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored layouts",
		Long: `List the stored layouts of one user, or of every user with --all-users.

Records are ordered by user, then by context key.

Example:
  slipstream list --db ./slipstream.db
  slipstream list --db ./slipstream.db --all-users --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.User, "user", layout.DefaultUserID, "user ID")
	cmd.Flags().BoolVar(&opts.AllUsers, "all-users", false, "list records of every user")
	cmd.MarkFlagsMutuallyExclusive("user", "all-users")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, logger, err := openStore(opts.RootOptions, opts.Database, cmd)
	if err != nil {
		return err
	}
	defer closeStore(st, logger)

	ctx := commandContext(cmd)
	users := []string{opts.User}
	if opts.AllUsers {
		users, err = st.Users(ctx)
		if err != nil {
			return reportError(formatter, "failed to list users", err)
		}
	}

	result := ListResult{Records: []store.Record{}}
	for _, user := range users {
		records, err := st.List(ctx, user)
		if err != nil {
			return reportError(formatter, "failed to list layouts", err)
		}
		result.Records = append(result.Records, records...)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	if len(result.Records) == 0 {
		fmt.Fprintln(formatter.Writer, "No layouts stored")
		return nil
	}
	for _, rec := range result.Records {
		fmt.Fprintf(formatter.Writer, "%s  %s  %s  %d settings\n",
			rec.UserID, rec.ContextKey, rec.UpdatedAt.Format(time.RFC3339), len(rec.Settings))
	}
	return nil
}
