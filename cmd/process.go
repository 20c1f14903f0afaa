package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/EasterCompany/venkatesh-bot/cache"
	"github.com/spf13/cobra"
)

func newProcessCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Print the process record kept in the process store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), pingTimeout)
			defer cancel()

			store, err := cache.New(ctx, &cfg.Redis)
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("REDIS_ADDR is not configured")
			}
			defer func() { _ = store.Close() }()

			return printProcess(ctx, cmd, store)
		},
	}
}

func printProcess(ctx context.Context, cmd *cobra.Command, store *cache.Store) error {
	out := cmd.OutOrStdout()
	rec, err := store.Process(ctx)
	if err != nil {
		return err
	}
	if len(rec) == 0 {
		fmt.Fprintln(out, "No process record.")
		return nil
	}

	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "%s: %s\n", k, rec[k])
	}

	paths, err := store.Extensions(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "extensions: %d\n", len(paths))
	for _, p := range paths {
		fmt.Fprintf(out, "  - %s\n", p)
	}
	return nil
}
