package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/EasterCompany/venkatesh-bot/cache"
	"github.com/EasterCompany/venkatesh-bot/config"
	"github.com/EasterCompany/venkatesh-bot/extensions"
	"github.com/spf13/cobra"
)

// ANSI color codes for formatted output
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
)

const pingTimeout = 3 * time.Second

var errVerifyFailed = errors.New("some issues were found in the configuration")

type report struct {
	w      io.Writer
	failed bool
}

func (r *report) ok(format string, args ...interface{}) {
	fmt.Fprintf(r.w, "  %s[OK]%s %s\n", colorGreen, colorReset, fmt.Sprintf(format, args...))
}

func (r *report) warn(format string, args ...interface{}) {
	fmt.Fprintf(r.w, "  %s[WARN]%s %s\n", colorYellow, colorReset, fmt.Sprintf(format, args...))
}

func (r *report) fail(format string, args ...interface{}) {
	r.failed = true
	fmt.Fprintf(r.w, "  %s[FAIL]%s %s\n", colorRed, colorReset, fmt.Sprintf(format, args...))
}

func newVerifyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-config",
		Short: "Load and check the configuration without connecting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return verifyConfig(cmd, opts)
		},
	}
}

func verifyConfig(cmd *cobra.Command, opts *rootOptions) error {
	r := &report{w: cmd.OutOrStdout()}
	fmt.Fprintf(r.w, "%s--- Venkatesh Config Verifier ---%s\n", colorBlue, colorReset)

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		r.fail("Configuration could not be loaded: %v", err)
		return finish(r)
	}
	r.ok("Configuration loaded.")

	if err := config.Validate(cfg); err != nil {
		r.fail("%v", err)
	} else {
		r.ok("Bot token is set.")
	}

	if cfg.Channels.Log == "" {
		r.warn("LOG_CHANNEL is empty, the startup alert will not be sent.")
	} else {
		r.ok("Log channel: %s", cfg.Channels.Log)
	}
	if len(cfg.TestGuilds) == 0 {
		r.ok("Slash commands will be registered globally.")
	} else {
		r.ok("Slash commands will be registered in %d test guild(s).", len(cfg.TestGuilds))
	}
	r.ok("Startup delay: %s", cfg.StartupDelay)

	fsys, root := extensionSource(cfg, opts.bundled)
	paths, err := extensions.Discover(fsys, root)
	if err != nil {
		r.fail("Extensions could not be discovered: %v", err)
	} else {
		missing := 0
		for _, p := range paths {
			if _, ok := extensions.Default.Lookup(p); !ok {
				missing++
				r.fail("Extension %s has no registration.", p)
			}
		}
		if missing == 0 {
			r.ok("%d extension(s) discovered, all registered.", len(paths))
		}
	}

	if cfg.Redis.Addr == "" {
		r.warn("REDIS_ADDR is empty, the process store is disabled.")
	} else {
		ctx, cancel := context.WithTimeout(cmd.Context(), pingTimeout)
		defer cancel()
		store, err := cache.New(ctx, &cfg.Redis)
		if err != nil {
			r.fail("%v", err)
		} else {
			_ = store.Close()
			r.ok("Process store reachable at %s.", cfg.Redis.Addr)
		}
	}

	return finish(r)
}

func finish(r *report) error {
	fmt.Fprintln(r.w, "\n--------------------------")
	if r.failed {
		fmt.Fprintf(r.w, "%s❌ Some issues were found in the configuration.%s\n", colorRed, colorReset)
		return errVerifyFailed
	}
	fmt.Fprintf(r.w, "%s✅ Configuration looks correct.%s\n", colorGreen, colorReset)
	return nil
}
