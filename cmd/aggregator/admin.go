package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/jmgilman/go/config"
	"github.com/jmgilman/go/content"
	"github.com/jmgilman/go/store"
	"github.com/spf13/cobra"
)

type memberResult struct {
	Key         string `json:"key" yaml:"key"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	URL         string `json:"url,omitempty" yaml:"url,omitempty"`
}

func newResolveCommand(opts *rootOptions) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "resolve <group>",
		Short: "Print the ordered concrete members of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := store.ParseKey(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app, p *printer) error {
				members, err := a.registry.OrderedConcreteMembers(ctx, key, !all)
				if err != nil {
					return err
				}

				out := make([]memberResult, 0, len(members))
				for _, m := range members {
					out = append(out, memberResult{Key: m.Key.String(), Description: m.Description, URL: m.URL})
				}
				return p.print(out, func(w io.Writer) error {
					for i, m := range out {
						if _, err := fmt.Fprintf(w, "%d. %s\n", i+1, m.Key); err != nil {
							return err
						}
					}
					return nil
				})
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include disabled members")
	return cmd
}

func newNFCCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "nfc [<store> <path>...]",
		Short: "Probe paths and dump the not-found cache",
		Long: `Check each given path in store, recording misses in the not-found cache,
then print every cached miss grouped by store.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var key store.Key
			if len(args) > 0 {
				var err error
				if key, err = store.ParseKey(args[0]); err != nil {
					return err
				}
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app, p *printer) error {
				if len(args) > 1 {
					for _, path := range args[1:] {
						if _, err := a.manager.Exists(ctx, key, path); err != nil {
							return err
						}
					}
				}

				missing := a.manager.NFC().AllMissing()
				out := make(map[string][]string, len(missing))
				names := make([]string, 0, len(missing))
				for k, paths := range missing {
					out[k.String()] = paths
					names = append(names, k.String())
				}
				sort.Strings(names)
				return p.print(out, func(w io.Writer) error {
					for _, n := range names {
						if _, err := fmt.Fprintln(w, n); err != nil {
							return err
						}
						for _, path := range out[n] {
							if _, err := fmt.Fprintf(w, "  %s\n", path); err != nil {
								return err
							}
						}
					}
					return nil
				})
			})
		},
	}
}

type rescanResult struct {
	Store string   `json:"store" yaml:"store"`
	Files []string `json:"files" yaml:"files"`
	Error string   `json:"error,omitempty" yaml:"error,omitempty"`
}

func newRescanCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rescan [store]...",
		Short: "Re-index stores and clear stale merged content",
		Long: `Replay every stored file through the generators and clear the merged
content that depends on it. With no store, every configured store is
rescanned.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := make([]store.Key, 0, len(args))
			for _, s := range args {
				key, err := store.ParseKey(s)
				if err != nil {
					return err
				}
				keys = append(keys, key)
			}

			return withApp(cmd, opts, func(ctx context.Context, a *app, p *printer) error {
				if len(keys) == 0 {
					keys = store.Keys(a.registry.All())
				}

				finished := make(chan content.Event, len(keys))
				if err := a.manager.Subscribe(content.EventRescanFinished, func(e content.Event) { finished <- e }); err != nil {
					return err
				}
				for _, key := range keys {
					if err := a.manager.Rescan(ctx, key); err != nil {
						return err
					}
				}

				results := make([]rescanResult, 0, len(keys))
				for range keys {
					select {
					case e := <-finished:
						res := rescanResult{Store: e.Store.String(), Files: e.Paths}
						if e.Err != nil {
							res.Error = e.Err.Error()
						}
						results = append(results, res)
					case <-ctx.Done():
						return ctx.Err()
					}
				}
				sort.Slice(results, func(i, j int) bool { return results[i].Store < results[j].Store })

				return p.print(results, func(w io.Writer) error {
					for _, r := range results {
						status := fmt.Sprintf("%d files", len(r.Files))
						if r.Error != "" {
							status = "failed: " + r.Error
						}
						if _, err := fmt.Fprintf(w, "%s: %s\n", r.Store, status); err != nil {
							return err
						}
					}
					return nil
				})
			})
		},
	}
}

func newValidateCommand(opts *rootOptions) *cobra.Command {
	var show bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration",
		Long:  "Load and validate the configuration given with --config, reporting every schema violation.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg, err := opts.loadConfig(ctx)
			if err != nil {
				return err
			}

			p := newPrinter(opts.Output, cmd.OutOrStdout())
			if show {
				redacted := *cfg
				if redacted.Engine.Storage.SecretKey != "" {
					redacted.Engine.Storage.SecretKey = "REDACTED"
				}
				return p.print(redacted, func(w io.Writer) error {
					return newPrinter(formatYAML, w).print(redacted, nil)
				})
			}
			return p.print(summarize(cfg), func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "configuration is valid: %d stores, %s storage\n", len(cfg.Stores), cfg.Engine.Storage.Type)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&show, "show", false, "print the resolved configuration, defaults included")
	return cmd
}

type validateResult struct {
	Valid   bool           `json:"valid" yaml:"valid"`
	Storage string         `json:"storage" yaml:"storage"`
	Stores  map[string]int `json:"stores" yaml:"stores"`
}

func summarize(cfg *config.Config) validateResult {
	res := validateResult{Valid: true, Storage: cfg.Engine.Storage.Type, Stores: map[string]int{}}
	for _, s := range cfg.Stores {
		res.Stores[s.Type]++
	}
	return res
}
