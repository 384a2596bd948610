package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/slipstream/internal/httpapi"
	"github.com/roach88/slipstream/internal/layout"
	"github.com/roach88/slipstream/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Listen   string
	Database string

	// Ready, if set, receives the bound listen address once the server
	// accepts connections (for testing with ":0").
	Ready chan<- string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the layout HTTP API",
		Long: `Start the slipstream HTTP API.

Opens the SQLite database (creating it if it doesn't exist), seeds the root
layout if the database is empty, and serves GET/POST /api/layout until
interrupted. In-flight requests get shutdown_timeout to finish.

Example:
  slipstream serve --listen 127.0.0.1:3000 --db ./slipstream.db
  slipstream serve --config /etc/slipstream.yaml --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", "", "listen address (default from config, 0.0.0.0:3000)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config, slipstream.db)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if opts.Listen != "" {
		cfg.Listen = opts.Listen
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}

	logger := newLogger(opts.RootOptions, cfg, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	logger.Info("opening database", "path", cfg.Database)
	st, err := store.Open(cfg.Database, store.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer closeStore(st, logger)

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	svc := layout.NewService(st, logger)
	seeded, err := svc.Bootstrap(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to seed database", err)
	}
	logger.Info("database ready", "seeded", seeded)

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}

	srv := &http.Server{
		Handler:           httpapi.NewRouter(svc, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	addr := ln.Addr().String()
	logger.Info("server listening", "addr", addr)
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", addr)
	if opts.Ready != nil {
		opts.Ready <- addr
	}

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return WrapExitError(ExitFailure, "server error", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitFailure, "graceful shutdown failed", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
