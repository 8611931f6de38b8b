package main

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/jmgilman/go/config"
	"github.com/jmgilman/go/fs/billy"
	"github.com/spf13/cobra"
)

// Output formats.
const (
	formatText = "text"
	formatYAML = "yaml"
	formatJSON = "json"
)

var validFormats = []string{formatText, formatYAML, formatJSON}

// rootOptions holds the global flags.
type rootOptions struct {
	ConfigPath string
	Output     string
	LogLevel   string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "aggregator",
		Short: "Repository content aggregation engine",
		Long: `Serve, store and merge artifacts across hosted, remote and group stores.

Stores and engine settings come from a CUE or YAML file given with --config.
Without one the engine runs in memory with no stores.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(validFormats, opts.Output) {
				return fmt.Errorf("invalid output %q: must be one of %v", opts.Output, validFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "configuration file (.cue, .yaml or .json)")
	cmd.PersistentFlags().StringVarP(&opts.Output, "output", "o", formatText, "output format (text|yaml|json)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override the configured log level")

	cmd.AddCommand(
		newGetCommand(opts),
		newPutCommand(opts),
		newRemoveCommand(opts),
		newListCommand(opts),
		newExistsCommand(opts),
		newDigestCommand(opts),
		newResolveCommand(opts),
		newNFCCommand(opts),
		newRescanCommand(opts),
		newValidateCommand(opts),
	)
	return cmd
}

// outputFormat returns the --output flag of cmd's root, defaulting to text.
func outputFormat(cmd *cobra.Command) string {
	f := cmd.Root().PersistentFlags().Lookup("output")
	if f == nil || !slices.Contains(validFormats, f.Value.String()) {
		return formatText
	}
	return f.Value.String()
}

// loadConfig reads the configuration named by --config, or the defaults.
func (o *rootOptions) loadConfig(ctx context.Context) (*config.Config, error) {
	if o.ConfigPath == "" {
		loader, err := config.NewLoader(billy.NewMemory())
		if err != nil {
			return nil, err
		}
		return loader.Default(ctx)
	}

	abs, err := filepath.Abs(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	loader, err := config.NewLoader(billy.NewLocal(filepath.Dir(abs)))
	if err != nil {
		return nil, err
	}
	return loader.Load(ctx, filepath.Base(abs))
}
