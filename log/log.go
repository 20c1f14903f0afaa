// Package log builds the bot's zap loggers. Error entries can be mirrored
// into a Discord channel so operators see failures where the bot lives.
package log

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// maxDiscordMessage keeps mirrored entries under Discord's 2000 character
// limit once wrapped in a code block.
const maxDiscordMessage = 1900

// Poster is the subset of *discordgo.Session used to mirror log entries.
type Poster interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// New returns a console logger writing to stderr at the given level.
func New(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig()),
		zapcore.Lock(os.Stderr),
		lvl,
	)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.FatalLevel)), nil
}

// WithDiscord returns a logger that also posts error-level entries to
// channelID through poster.
func WithDiscord(base *zap.Logger, poster Poster, channelID string) *zap.Logger {
	if poster == nil || channelID == "" {
		return base
	}
	discordCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig()),
		zapcore.AddSync(&discordWriter{poster: poster, channelID: channelID}),
		zapcore.ErrorLevel,
	)
	return base.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, discordCore)
	}))
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

// discordWriter sends each entry to a channel. Send failures are dropped;
// logging them would loop back into this writer.
type discordWriter struct {
	poster    Poster
	channelID string
}

func (w *discordWriter) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\n")
	if len(msg) > maxDiscordMessage {
		cut := maxDiscordMessage
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut] + "..."
	}
	_, _ = w.poster.ChannelMessageSend(w.channelID, "```\n"+msg+"\n```")
	return len(p), nil
}
