// Package bot is the shell around the Discord session: it wires handlers,
// runs the one-time startup sequence on the first Ready event and shuts the
// connection down.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/EasterCompany/venkatesh-bot/cache"
	"github.com/EasterCompany/venkatesh-bot/commands"
	"github.com/EasterCompany/venkatesh-bot/config"
	"github.com/EasterCompany/venkatesh-bot/extensions"
	"github.com/EasterCompany/venkatesh-bot/session"
	"github.com/EasterCompany/venkatesh-bot/utils"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	onlineMessage    = "The bot is online!"
	startupTitle     = "Bot Startup"
	startupBody      = "The bot is back online!"
	processOpTimeout = 5 * time.Second
)

var errStartupCancelled = errors.New("startup cancelled by shutdown")

// Transport is the part of *discordgo.Session the bot depends on.
type Transport interface {
	commands.Session
	Open() error
	Close() error
	AddHandler(handler interface{}) func()
	HeartbeatLatency() time.Duration
}

// ProcessReporter publishes lifecycle changes. *cache.Store implements it.
type ProcessReporter interface {
	ReportProcess(ctx context.Context, state string) error
	SetExtensions(ctx context.Context, paths []string) error
	ClearProcess(ctx context.Context) error
}

// Bot owns the session and the initialization state.
type Bot struct {
	cfg       *config.Config
	transport Transport
	logger    *zap.Logger
	registry  *extensions.Registry
	source    fs.FS
	root      string
	router    *commands.Router
	process   ProcessReporter
	startedAt time.Time

	initState   atomic.Int32
	connState   atomic.Int32
	readyEvents atomic.Int64

	mu     sync.RWMutex
	loaded []string

	ctx       context.Context
	cancel    context.CancelFunc
	errs      chan error
	closeOnce sync.Once
	closeErr  error
}

// Option customizes a Bot.
type Option func(*Bot)

// WithTransport replaces the Discord session, mainly for tests.
func WithTransport(t Transport) Option {
	return func(b *Bot) { b.transport = t }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(b *Bot) { b.logger = l }
}

// WithRegistry sets the extension registry. The default is
// extensions.Default.
func WithRegistry(r *extensions.Registry) Option {
	return func(b *Bot) { b.registry = r }
}

// WithExtensionSource sets the tree extensions are discovered in. The
// default is the working directory with cfg.ExtensionsDir as root.
func WithExtensionSource(fsys fs.FS, root string) Option {
	return func(b *Bot) {
		b.source = fsys
		b.root = root
	}
}

// WithProcessReporter publishes lifecycle changes to r.
func WithProcessReporter(r ProcessReporter) Option {
	return func(b *Bot) { b.process = r }
}

// New validates cfg and builds the bot. A missing token is reported as a
// *config.ConfigurationError before any session exists.
func New(cfg *config.Config, opts ...Option) (*Bot, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	b := &Bot{
		cfg:       cfg,
		registry:  extensions.Default,
		startedAt: time.Now(),
		errs:      make(chan error, 1),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	if b.source == nil {
		b.source = os.DirFS(".")
		b.root = cfg.ExtensionsDir
	}
	if b.transport == nil {
		s, err := session.NewSession(cfg)
		if err != nil {
			return nil, err
		}
		b.transport = s
	}

	b.ctx, b.cancel = context.WithCancel(context.Background())
	b.router = commands.NewRouter(b.transport, cfg.Prefix, cfg.Colors.Red, b.logger.Named("commands"))

	b.transport.AddHandler(b.Ready)
	b.transport.AddHandler(b.onConnect)
	b.transport.AddHandler(b.onDisconnect)
	b.transport.AddHandler(b.router.HandleMessage)
	b.transport.AddHandler(b.router.HandleInteraction)

	return b, nil
}

// Router exposes the command router.
func (b *Bot) Router() *commands.Router {
	return b.router
}

// Errors delivers the fatal startup error, if one occurs.
func (b *Bot) Errors() <-chan error {
	return b.errs
}

// Run opens the gateway connection and blocks until ctx is done or the
// startup sequence fails. The connection is closed before Run returns.
func (b *Bot) Run(ctx context.Context) error {
	b.connState.Store(int32(Connecting))
	b.report(cache.StateConnecting)

	if err := b.transport.Open(); err != nil {
		b.connState.Store(int32(Disconnected))
		return fmt.Errorf("error opening connection to Discord: %w", err)
	}

	var runErr error
	select {
	case <-ctx.Done():
		b.logger.Info("Bot shutting down.")
	case runErr = <-b.errs:
		b.logger.Error("Bot stopping after startup failure", zap.Error(runErr))
	}

	if err := b.Close(); err != nil {
		b.logger.Error("Error closing Discord session", zap.Error(err))
	}
	return runErr
}

// Close stops the startup sequence if it is waiting, closes the transport
// and clears the process record. Calls after the first return the first
// result.
func (b *Bot) Close() error {
	b.closeOnce.Do(func() {
		b.cancel()
		b.closeErr = b.transport.Close()
		b.connState.Store(int32(Disconnected))
		if b.process != nil {
			ctx, cancel := context.WithTimeout(context.Background(), processOpTimeout)
			defer cancel()
			if err := b.process.ClearProcess(ctx); err != nil {
				b.logger.Warn("failed to clear process record", zap.Error(err))
			}
		}
	})
	return b.closeErr
}

// Ready handles every Ready event. The first one to arrive runs the startup
// sequence; all of them log that the bot is online. Later ones are counted as
// reconnects.
func (b *Bot) Ready(_ *discordgo.Session, r *discordgo.Ready) {
	b.connState.Store(int32(Connected))
	if b.readyEvents.Add(1) > 1 {
		utils.IncrementReconnects()
	}

	if b.initState.CompareAndSwap(initUninitialized, initInProgress) {
		err := b.startup(r)
		switch {
		case errors.Is(err, errStartupCancelled):
			b.logger.Info("startup sequence cancelled by shutdown")
		case err != nil:
			b.logger.Error("startup sequence failed", zap.Error(err))
			b.fail(err)
		default:
			b.initState.Store(initDone)
			b.report(cache.StateInitialized)
		}
	}

	b.logger.Info(onlineMessage)
}

func (b *Bot) startup(r *discordgo.Ready) error {
	if b.cfg.StartupDelay > 0 {
		timer := time.NewTimer(b.cfg.StartupDelay)
		select {
		case <-timer.C:
		case <-b.ctx.Done():
			timer.Stop()
			return errStartupCancelled
		}
	}

	if _, err := b.LoadExtensions(); err != nil {
		return err
	}

	if r != nil && r.User != nil {
		if err := b.router.Sync(r.User.ID, b.cfg.TestGuilds); err != nil {
			b.logger.Error("failed to sync slash commands", zap.Error(err))
		}
	} else {
		b.logger.Warn("ready event without a user, slash commands not synced")
	}

	if err := b.StartupAlert(); err != nil {
		b.logger.Error("failed to send startup alert", zap.Error(err))
	}
	return nil
}

// LoadExtensions discovers extension files and sets up each registered
// extension in order. The first failure stops the run and is returned as an
// *extensions.RegistrationError; extensions after it are not loaded.
func (b *Bot) LoadExtensions() ([]string, error) {
	paths, err := extensions.Discover(b.source, b.root)
	if err != nil {
		return nil, &extensions.RegistrationError{Path: b.root, Err: err}
	}

	loaded := make([]string, 0, len(paths))
	defer func() {
		b.mu.Lock()
		b.loaded = append(b.loaded, loaded...)
		b.mu.Unlock()
	}()

	for _, p := range paths {
		if err := b.registry.Setup(p, &host{bot: b, path: p}); err != nil {
			return loaded, err
		}
		loaded = append(loaded, p)
		b.logger.Info("Extension loaded", zap.String("path", p))
	}

	if b.process != nil {
		ctx, cancel := context.WithTimeout(b.ctx, processOpTimeout)
		defer cancel()
		if err := b.process.SetExtensions(ctx, loaded); err != nil {
			b.logger.Warn("failed to publish loaded extensions", zap.Error(err))
		}
	}
	return loaded, nil
}

// StartupAlert announces the bot in the log channel.
func (b *Bot) StartupAlert() error {
	if b.cfg.Channels.Log == "" {
		return errors.New("no log channel configured")
	}
	embed := &discordgo.MessageEmbed{
		Title:       startupTitle,
		Description: startupBody,
		Color:       b.cfg.Colors.Green,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	_, err := b.send(b.cfg.Channels.Log, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
	return err
}

// Extensions returns the paths loaded so far.
func (b *Bot) Extensions() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.loaded...)
}

// Initialized reports whether the startup sequence has completed.
func (b *Bot) Initialized() bool {
	return b.initState.Load() == initDone
}

func (b *Bot) send(channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	m, err := b.transport.ChannelMessageSendComplex(channelID, session.WithMentionPolicy(msg))
	if err == nil {
		utils.IncrementMessagesSent()
	}
	return m, err
}

func (b *Bot) fail(err error) {
	select {
	case b.errs <- err:
	default:
	}
}

func (b *Bot) report(state string) {
	if b.process == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), processOpTimeout)
	defer cancel()
	if err := b.process.ReportProcess(ctx, state); err != nil {
		b.logger.Warn("failed to report process state", zap.String("state", state), zap.Error(err))
	}
}

func (b *Bot) onConnect(_ *discordgo.Session, _ *discordgo.Connect) {
	b.logger.Info("Gateway connection established")
	b.connState.Store(int32(Connected))
	b.report(cache.StateConnected)
}

func (b *Bot) onDisconnect(_ *discordgo.Session, _ *discordgo.Disconnect) {
	b.logger.Warn("Gateway connection lost, waiting for reconnect")
	b.connState.Store(int32(Disconnected))
	b.report(cache.StateDisconnected)
}
