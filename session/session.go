package session

import (
	"fmt"

	"github.com/EasterCompany/venkatesh-bot/config"
	"github.com/bwmarrin/discordgo"
)

// Intents covers the default gateway events plus the privileged member,
// message content and presence intents.
const Intents = discordgo.IntentsAllWithoutPrivileged |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsMessageContent |
	discordgo.IntentsGuildPresences

// NewSession creates a Discord session configured for the bot. It does not
// connect; call Open on the result.
func NewSession(cfg *config.Config) (*discordgo.Session, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	s.Identify.Intents = Intents
	s.Identify.Presence = Presence(cfg.BotName)
	s.ShouldReconnectOnError = true

	return s, nil
}

// Presence is the idle "Watching over <name>" status sent on identify.
func Presence(name string) discordgo.GatewayStatusUpdate {
	return discordgo.GatewayStatusUpdate{
		Status: string(discordgo.StatusIdle),
		Game: discordgo.Activity{
			Name: "over " + name,
			Type: discordgo.ActivityTypeWatching,
		},
	}
}

// AllowedMentions suppresses @everyone, @here and role pings while keeping
// direct user mentions and the reply ping.
func AllowedMentions() *discordgo.MessageAllowedMentions {
	return &discordgo.MessageAllowedMentions{
		Parse:       []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers},
		RepliedUser: true,
	}
}

// WithMentionPolicy sets AllowedMentions on msg unless the caller already
// chose one.
func WithMentionPolicy(msg *discordgo.MessageSend) *discordgo.MessageSend {
	if msg == nil {
		msg = &discordgo.MessageSend{}
	}
	if msg.AllowedMentions == nil {
		msg.AllowedMentions = AllowedMentions()
	}
	return msg
}
