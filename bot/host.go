package bot

import (
	"time"

	"github.com/EasterCompany/venkatesh-bot/commands"
	"github.com/EasterCompany/venkatesh-bot/config"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// host is the extensions.Host handed to a single extension.
type host struct {
	bot  *Bot
	path string
}

func (h *host) AddHandler(handler interface{}) func() {
	return h.bot.transport.AddHandler(handler)
}

func (h *host) AddCommand(cmd *commands.Command) error {
	return h.bot.router.Add(cmd)
}

func (h *host) Send(channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	return h.bot.send(channelID, msg)
}

func (h *host) Latency() time.Duration {
	return h.bot.transport.HeartbeatLatency()
}

func (h *host) Logger() *zap.Logger {
	return h.bot.logger.Named(h.path)
}

func (h *host) Config() *config.Config {
	return h.bot.cfg
}
