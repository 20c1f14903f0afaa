// Package utility holds the operator-facing diagnostic commands.
package utility

import (
	"fmt"

	"github.com/EasterCompany/venkatesh-bot/commands"
	"github.com/EasterCompany/venkatesh-bot/extensions"
)

func init() {
	extensions.Register("exts.utility.ping", extensions.Func(setupPing))
}

func setupPing(h extensions.Host) error {
	return h.AddCommand(&commands.Command{
		Name:        "ping",
		Description: "Show the gateway heartbeat latency",
		Run: func(c *commands.Context) error {
			return c.ReplyText(fmt.Sprintf("Pong! `%dms`", h.Latency().Milliseconds()))
		},
	})
}
