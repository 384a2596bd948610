package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/slipstream/internal/contextkey"
	"github.com/roach88/slipstream/internal/layout"
)

// KeyResult is the JSON payload of the key command.
type KeyResult struct {
	Path       string         `json:"path"`
	Device     string         `json:"device"`
	ContextKey contextkey.Key `json:"context_key"`
}

// NewKeyCommand creates the key command.
func NewKeyCommand(rootOpts *RootOptions) *cobra.Command {
	var path, device string

	cmd := &cobra.Command{
		Use:   "key",
		Short: "Print the context key for a path and device",
		Long: `Print the context key derived from a navigation path and device class.

Defaults match the HTTP API: path "/" and device "desktop". The path is
NFC-normalized before hashing.

Example:
  slipstream key --path /docs --device mobile`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := layout.Request{Path: path, Device: device}
			_, key := req.Resolve()

			formatter := newFormatter(rootOpts, cmd)
			if formatter.Format == "json" {
				if path == "" {
					path = layout.DefaultPath
				}
				if device == "" {
					device = layout.DefaultDevice
				}
				return formatter.Success(KeyResult{Path: path, Device: device, ContextKey: key})
			}
			return formatter.Success(key)
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "navigation path (default \"/\")")
	cmd.Flags().StringVar(&device, "device", "", "device class (default \"desktop\")")

	return cmd
}
