package cmd

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/EasterCompany/venkatesh-bot/extensions"
	"github.com/spf13/cobra"
)

func newExtensionsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "extensions",
		Short: "List discovered and registered extensions",
		Long: `List every extension path that has a file under the extensions root or a
unit compiled into the binary. A file without a unit fails startup; a unit
without a file is never loaded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			fsys, root := extensionSource(cfg, opts.bundled)
			discovered, err := extensions.Discover(fsys, root)
			if err != nil {
				return err
			}

			found := make(map[string]bool, len(discovered))
			for _, p := range discovered {
				found[p] = true
			}
			all := append([]string(nil), discovered...)
			for _, p := range extensions.Default.Paths() {
				if !found[p] {
					all = append(all, p)
				}
			}
			sort.Strings(all)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PATH\tDISCOVERED\tREGISTERED")
			for _, p := range all {
				_, ok := extensions.Default.Lookup(p)
				fmt.Fprintf(w, "%s\t%t\t%t\n", p, found[p], ok)
			}
			return w.Flush()
		},
	}
}
