package commands

import (
	"github.com/EasterCompany/venkatesh-bot/session"
	"github.com/EasterCompany/venkatesh-bot/utils"
	"github.com/bwmarrin/discordgo"
)

// Context carries one command invocation. It is created either from a
// prefixed message or from a slash interaction.
type Context struct {
	Command   *Command
	Args      []string
	ChannelID string
	GuildID   string
	Author    *discordgo.User

	api         Session
	message     *discordgo.Message
	interaction *discordgo.Interaction
}

// IsInteraction reports whether the command was invoked as a slash command.
func (c *Context) IsInteraction() bool {
	return c.interaction != nil
}

// Reply answers the invocation. Prefix commands get a channel message that
// references the invoking message; slash commands get an interaction
// response. The bot's mention policy applies unless msg sets its own.
func (c *Context) Reply(msg *discordgo.MessageSend) error {
	msg = session.WithMentionPolicy(msg)

	if c.interaction != nil {
		err := c.api.InteractionRespond(c.interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content:         msg.Content,
				Embeds:          msg.Embeds,
				AllowedMentions: msg.AllowedMentions,
			},
		})
		if err == nil {
			utils.IncrementMessagesSent()
		}
		return err
	}

	if c.message != nil && msg.Reference == nil {
		msg.Reference = c.message.Reference()
	}
	if _, err := c.api.ChannelMessageSendComplex(c.ChannelID, msg); err != nil {
		return err
	}
	utils.IncrementMessagesSent()
	return nil
}

// ReplyText is Reply with a plain text body.
func (c *Context) ReplyText(content string) error {
	return c.Reply(&discordgo.MessageSend{Content: content})
}

// ReplyEmbed is Reply with a single embed.
func (c *Context) ReplyEmbed(embed *discordgo.MessageEmbed) error {
	return c.Reply(&discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}})
}
