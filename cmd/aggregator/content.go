package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/jmgilman/go/content"
	"github.com/jmgilman/go/generator"
	"github.com/jmgilman/go/store"
	"github.com/spf13/cobra"
)

// withApp opens the engine, runs fn and closes the engine.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app, p *printer) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := opts.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	return fn(ctx, a, newPrinter(opts.Output, cmd.OutOrStdout()))
}

func newGetCommand(opts *rootOptions) *cobra.Command {
	var dest string
	cmd := &cobra.Command{
		Use:   "get <store> <path>",
		Short: "Retrieve content",
		Long: `Retrieve the content at path from a store and write it to stdout or --dest.

A group serves generated files such as maven-metadata.xml by merging its
members' copies; anything else comes from the first member that has it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := store.ParseKey(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app, _ *printer) error {
				t, err := a.manager.Retrieve(ctx, key, args[1])
				if err != nil {
					return err
				}
				r, err := t.Open()
				if err != nil {
					return err
				}
				defer func() { _ = r.Close() }()

				var w io.Writer = cmd.OutOrStdout()
				if dest != "" {
					f, err := os.Create(dest)
					if err != nil {
						return err
					}
					defer func() { _ = f.Close() }()
					w = f
				}
				_, err = io.Copy(w, r)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&dest, "dest", "", "write content to this file instead of stdout")
	return cmd
}

type storeResult struct {
	Store string `json:"store" yaml:"store"`
	Path  string `json:"path" yaml:"path"`
	Size  int64  `json:"size" yaml:"size"`
}

func newPutCommand(opts *rootOptions) *cobra.Command {
	var bypass bool
	cmd := &cobra.Command{
		Use:   "put <store> <path> <file>",
		Short: "Store content",
		Long: `Store a local file at path. Storing to a group writes to the first hosted
member that accepts the path.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := store.ParseKey(args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[2])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app, p *printer) error {
				if bypass {
					ctx = content.WithMetadata(ctx, content.Metadata{content.MetaBypassReadonly: "true"})
				}
				t, err := a.manager.Store(ctx, key, args[1], data)
				if err != nil {
					return err
				}
				res := storeResult{Store: t.Key().String(), Path: t.Path(), Size: int64(len(data))}
				return p.print(res, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "stored %s in %s (%d bytes)\n", res.Path, res.Store, res.Size)
					return err
				})
			})
		},
	}
	cmd.Flags().BoolVar(&bypass, "bypass-readonly", false, "allow writes to readonly stores")
	return cmd
}

type deleteResult struct {
	Stores  []string `json:"stores" yaml:"stores"`
	Path    string   `json:"path" yaml:"path"`
	Removed bool     `json:"removed" yaml:"removed"`
}

func newRemoveCommand(opts *rootOptions) *cobra.Command {
	var bypass bool
	cmd := &cobra.Command{
		Use:     "rm <store>... <path>",
		Aliases: []string{"delete"},
		Short:   "Delete content",
		Long: `Delete path from one or more stores. Directory paths, ending in "/", are
removed recursively. On a group only generated files may be deleted, which
drops the cached merge.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[len(args)-1]
			keys := make([]store.Key, 0, len(args)-1)
			for _, s := range args[:len(args)-1] {
				key, err := store.ParseKey(s)
				if err != nil {
					return err
				}
				keys = append(keys, key)
			}

			return withApp(cmd, opts, func(ctx context.Context, a *app, p *printer) error {
				if bypass {
					ctx = content.WithMetadata(ctx, content.Metadata{content.MetaBypassReadonly: "true"})
				}
				removed, err := a.manager.DeleteAll(ctx, keys, path)
				if err != nil {
					return err
				}

				res := deleteResult{Path: path, Removed: removed}
				for _, k := range keys {
					res.Stores = append(res.Stores, k.String())
				}
				return p.print(res, func(w io.Writer) error {
					msg := "nothing to delete at %s\n"
					if removed {
						msg = "deleted %s\n"
					}
					_, err := fmt.Fprintf(w, msg, path)
					return err
				})
			})
		},
	}
	cmd.Flags().BoolVar(&bypass, "bypass-readonly", false, "allow deletes from readonly stores")
	return cmd
}

func newListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ls <store> [path]",
		Short: "List a directory",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := store.ParseKey(args[0])
			if err != nil {
				return err
			}
			path := ""
			if len(args) == 2 {
				path = args[1]
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app, p *printer) error {
				names, err := a.manager.List(ctx, key, path)
				if err != nil {
					return err
				}
				if names == nil {
					names = []string{}
				}
				return p.print(names, func(w io.Writer) error {
					for _, n := range names {
						if _, err := fmt.Fprintln(w, n); err != nil {
							return err
						}
					}
					return nil
				})
			})
		},
	}
}

func newExistsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "exists <store> <path>",
		Short: "Check whether content exists",
		Long:  "Check whether content exists. The exit status is 1 when it does not.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := store.ParseKey(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app, p *printer) error {
				ok, err := a.manager.Exists(ctx, key, args[1])
				if err != nil {
					return err
				}
				if err := p.print(map[string]bool{"exists": ok}, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, ok)
					return err
				}); err != nil {
					return err
				}
				if !ok {
					return errNotExist
				}
				return nil
			})
		},
	}
}

func newDigestCommand(opts *rootOptions) *cobra.Command {
	var algs []string
	var force bool
	cmd := &cobra.Command{
		Use:   "digest <store> <path>",
		Short: "Print checksums of content",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := store.ParseKey(args[0])
			if err != nil {
				return err
			}
			var selected []generator.Algorithm
			for _, s := range algs {
				alg, ok := generator.ParseAlgorithm(s)
				if !ok {
					return fmt.Errorf("unknown algorithm %q", s)
				}
				selected = append(selected, alg)
			}

			return withApp(cmd, opts, func(ctx context.Context, a *app, p *printer) error {
				if force {
					ctx = content.WithMetadata(ctx, content.Metadata{content.MetaForceChecksum: "true"})
				}
				sums, err := a.manager.Digest(ctx, key, args[1], selected...)
				if err != nil {
					return err
				}

				out := make(map[string]string, len(sums))
				names := make([]string, 0, len(sums))
				for alg, sum := range sums {
					out[string(alg)] = sum
					names = append(names, string(alg))
				}
				sort.Strings(names)
				return p.print(out, func(w io.Writer) error {
					for _, n := range names {
						if _, err := fmt.Fprintf(w, "%-7s %s\n", n, out[n]); err != nil {
							return err
						}
					}
					return nil
				})
			})
		},
	}
	cmd.Flags().StringSliceVarP(&algs, "algorithm", "a", nil, "md5, sha1 or sha256; repeatable (default all)")
	cmd.Flags().BoolVar(&force, "force", false, "hash the content even when checksum files exist")
	return cmd
}
