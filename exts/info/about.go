// Package info answers questions about the bot itself.
package info

import (
	"fmt"
	"time"

	"github.com/EasterCompany/venkatesh-bot/commands"
	"github.com/EasterCompany/venkatesh-bot/extensions"
	"github.com/EasterCompany/venkatesh-bot/system"
	"github.com/EasterCompany/venkatesh-bot/utils"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

var processUptime = system.GetProcessUptime

func init() {
	extensions.Register("exts.info.about", extensions.Func(setup))
}

func setup(h extensions.Host) error {
	log := h.Logger()
	h.AddHandler(func(_ *discordgo.Session, g *discordgo.GuildCreate) {
		if g == nil || g.Guild == nil {
			return
		}
		log.Info("Guild available",
			zap.String("guild_id", g.ID),
			zap.String("name", g.Name),
			zap.Int("members", g.MemberCount),
		)
	})

	return h.AddCommand(&commands.Command{
		Name:        "about",
		Description: "Show the bot's name, version and uptime",
		Run: func(c *commands.Context) error {
			return c.ReplyEmbed(aboutEmbed(h.Config().BotName, h.Config().Colors.Blue))
		},
	})
}

func aboutEmbed(name string, color int) *discordgo.MessageEmbed {
	uptime := "unknown"
	if d, err := processUptime(); err == nil {
		uptime = d.Round(time.Second).String()
	}
	v := utils.GetVersion()
	return &discordgo.MessageEmbed{
		Title:       name,
		Description: fmt.Sprintf("Watching over %s.", name),
		Color:       color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Version", Value: fmt.Sprintf("`%s`", v.Str), Inline: true},
			{Name: "Uptime", Value: uptime, Inline: true},
		},
	}
}
