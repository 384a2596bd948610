package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/slipstream/internal/config"
	"github.com/roach88/slipstream/internal/layout"
	"github.com/roach88/slipstream/internal/store"
)

// targetOptions selects one layout context. Empty values take the layout
// package defaults.
type targetOptions struct {
	Database string
	User     string
	Path     string
	Device   string
}

func addTargetFlags(cmd *cobra.Command, t *targetOptions) {
	cmd.Flags().StringVar(&t.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&t.User, "user", "", "user ID (default \""+layout.DefaultUserID+"\")")
	cmd.Flags().StringVar(&t.Path, "path", "", "navigation path (default \""+layout.DefaultPath+"\")")
	cmd.Flags().StringVar(&t.Device, "device", "", "device class (default \""+layout.DefaultDevice+"\")")
}

func (t *targetOptions) request() layout.Request {
	return layout.Request{UserID: t.User, Path: t.Path, Device: t.Device}
}

// loadConfig loads the configuration named by --config or SLIPSTREAM_CONFIG.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}

// newLogger builds a text logger on w. --verbose forces debug level.
func newLogger(opts *RootOptions, cfg *config.Config, w io.Writer) *slog.Logger {
	level := cfg.SlogLevel()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openStore opens the database named by the --db flag, falling back to the
// configured one. The caller must close the returned store.
func openStore(opts *RootOptions, database string, cmd *cobra.Command) (*store.Store, *slog.Logger, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	if database != "" {
		cfg.Database = database
	}

	// Operator commands only log when asked to.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if opts.Verbose {
		logger = newLogger(opts, cfg, cmd.ErrOrStderr())
	}

	st, err := store.Open(cfg.Database, store.WithLogger(logger))
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, logger, nil
}

func closeStore(st *store.Store, logger *slog.Logger) {
	if err := st.Close(); err != nil {
		logger.Error("error closing database", "error", err)
	}
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// reportError writes err through the formatter and returns the matching
// ExitError.
func reportError(f *OutputFormatter, message string, err error) error {
	_ = f.Error(errorCode(err), message, err.Error())
	return storeExitError(message, err)
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
