package utility

import (
	"fmt"
	"time"

	"github.com/EasterCompany/venkatesh-bot/commands"
	"github.com/EasterCompany/venkatesh-bot/extensions"
	"github.com/EasterCompany/venkatesh-bot/system"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

var sample = system.Sample

func init() {
	extensions.Register("exts.utility.status", extensions.Func(setupStatus))
}

func setupStatus(h extensions.Host) error {
	return h.AddCommand(&commands.Command{
		Name:        "status",
		Description: "Show host CPU and memory usage",
		Run: func(c *commands.Context) error {
			snap, err := sample()
			if err != nil {
				// Partial samples are still worth showing.
				h.Logger().Warn("incomplete system sample", zap.Error(err))
			}
			return c.ReplyEmbed(statusEmbed(snap, h.Latency(), h.Config().Colors.Blue))
		},
	})
}

func statusEmbed(snap system.Snapshot, latency time.Duration, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "System Status",
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "CPU", Value: fmt.Sprintf("%.1f%%", snap.CPUPercent), Inline: true},
			{Name: "Memory", Value: fmt.Sprintf("%.1f%%", snap.MemoryPercent), Inline: true},
			{Name: "Latency", Value: fmt.Sprintf("%dms", latency.Milliseconds()), Inline: true},
			{Name: "Host uptime", Value: snap.HostUptime.Round(time.Second).String(), Inline: true},
			{Name: "Bot uptime", Value: snap.ProcessUptime.Round(time.Second).String(), Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}
