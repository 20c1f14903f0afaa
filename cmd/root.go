// Package cmd is the venkatesh command line.
package cmd

import (
	"io/fs"

	"github.com/EasterCompany/venkatesh-bot/config"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	envFile    string
	configFile string
	bundled    fs.FS
}

// NewRootCmd builds the command tree. bundled is the extension tree compiled
// into the binary, rooted so that "exts" is its top directory.
func NewRootCmd(bundled fs.FS) *cobra.Command {
	opts := &rootOptions{bundled: bundled}

	root := &cobra.Command{
		Use:           "venkatesh",
		Short:         "Discord bot shell with statically registered extensions",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd, opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.envFile, "env-file", "", "dotenv file to read (default .env, optional)")
	pf.StringVar(&opts.configFile, "config", "", "config file (yaml, json or toml)")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.String("status-addr", "", "address for the HTTP status server")
	pf.String("prefix", "", "prefix for text commands")

	root.AddCommand(
		newRunCmd(opts),
		newVerifyCmd(opts),
		newExtensionsCmd(opts),
		newProcessCmd(opts),
	)
	return root
}

// Execute runs the command line.
func Execute(bundled fs.FS) error {
	return NewRootCmd(bundled).Execute()
}

func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	return config.Load(config.LoadOptions{
		EnvFile:    opts.envFile,
		ConfigFile: opts.configFile,
		Flags:      cmd.Flags(),
	})
}
