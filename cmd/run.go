package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/EasterCompany/venkatesh-bot/bot"
	"github.com/EasterCompany/venkatesh-bot/cache"
	"github.com/EasterCompany/venkatesh-bot/config"
	applog "github.com/EasterCompany/venkatesh-bot/log"
	"github.com/EasterCompany/venkatesh-bot/services"
	"github.com/EasterCompany/venkatesh-bot/session"
	"github.com/EasterCompany/venkatesh-bot/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	bundledRoot     = "exts"
	shutdownTimeout = 5 * time.Second
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to Discord and run the bot (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd, opts)
		},
	}
}

func runBot(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger, err := applog.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := cache.New(ctx, &cfg.Redis)
	if err != nil {
		logger.Warn("process store unavailable, continuing without it", zap.Error(err))
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	s, err := session.NewSession(cfg)
	if err != nil {
		return err
	}
	if cfg.LogToDiscord {
		logger = applog.WithDiscord(logger, s, cfg.Channels.Log)
	}

	fsys, root := extensionSource(cfg, opts.bundled)
	botOpts := []bot.Option{
		bot.WithTransport(s),
		bot.WithLogger(logger),
		bot.WithExtensionSource(fsys, root),
	}
	var pinger services.Pinger
	if store != nil {
		botOpts = append(botOpts, bot.WithProcessReporter(store))
		pinger = store
	}

	b, err := bot.New(cfg, botOpts...)
	if err != nil {
		return err
	}

	if cfg.StatusAddr != "" {
		srv := services.NewStatusServer(cfg.StatusAddr, utils.GetVersion().Str, b, map[string]services.Check{
			"cache":   services.CacheCheck(pinger),
			"discord": services.DiscordCheck(b),
		}, logger.Named("status"))
		if err := srv.Start(); err != nil {
			return fmt.Errorf("could not start status server: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				logger.Warn("status server shutdown", zap.Error(err))
			}
		}()
	}

	logger.Info("Bot is now running. Press CTRL-C to exit.", zap.String("version", utils.GetVersion().Str))
	return b.Run(ctx)
}

// extensionSource prefers an extensions directory on disk and falls back to
// the tree compiled into the binary.
func extensionSource(cfg *config.Config, bundled fs.FS) (fs.FS, string) {
	dir := cfg.ExtensionsDir
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		abs, err := filepath.Abs(dir)
		if err == nil {
			return os.DirFS(filepath.Dir(abs)), filepath.Base(abs)
		}
	}
	if bundled != nil {
		return bundled, bundledRoot
	}
	return os.DirFS("."), filepath.ToSlash(dir)
}
