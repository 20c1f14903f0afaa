package session

import (
	"errors"
	"testing"

	"github.com/EasterCompany/venkatesh-bot/config"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	s, err := NewSession(&config.Config{Token: "T", BotName: "CodeX."})
	require.NoError(t, err)

	assert.Equal(t, "Bot T", s.Token)
	assert.Equal(t, Intents, s.Identify.Intents)
	assert.NotZero(t, s.Identify.Intents&discordgo.IntentsGuildMembers)
	assert.NotZero(t, s.Identify.Intents&discordgo.IntentsMessageContent)
	assert.NotZero(t, s.Identify.Intents&discordgo.IntentsGuildPresences)
	assert.Equal(t, "idle", s.Identify.Presence.Status)
	assert.Equal(t, "over CodeX.", s.Identify.Presence.Game.Name)
	assert.Equal(t, discordgo.ActivityTypeWatching, s.Identify.Presence.Game.Type)
	assert.True(t, s.ShouldReconnectOnError)
}

func TestNewSession_MissingToken(t *testing.T) {
	s, err := NewSession(&config.Config{})

	var cfgErr *config.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
	assert.Nil(t, s)
}

func TestAllowedMentions(t *testing.T) {
	am := AllowedMentions()

	assert.Equal(t, []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers}, am.Parse)
	assert.NotContains(t, am.Parse, discordgo.AllowedMentionTypeEveryone)
	assert.NotContains(t, am.Parse, discordgo.AllowedMentionTypeRoles)
	assert.True(t, am.RepliedUser)
}

func TestWithMentionPolicy(t *testing.T) {
	msg := WithMentionPolicy(&discordgo.MessageSend{Content: "hi"})
	assert.Equal(t, AllowedMentions(), msg.AllowedMentions)

	custom := &discordgo.MessageAllowedMentions{}
	msg = WithMentionPolicy(&discordgo.MessageSend{AllowedMentions: custom})
	assert.Same(t, custom, msg.AllowedMentions)

	assert.NotNil(t, WithMentionPolicy(nil).AllowedMentions)
}
