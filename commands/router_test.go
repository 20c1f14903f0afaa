package commands

import (
	"errors"
	"sync"
	"testing"

	"github.com/EasterCompany/venkatesh-bot/utils"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type overwrite struct {
	appID   string
	guildID string
	names   []string
}

type fakeSession struct {
	mu         sync.Mutex
	sent       map[string][]*discordgo.MessageSend
	responses  []*discordgo.InteractionResponse
	overwrites []overwrite
	syncErr    error
}

func newFakeSession() *fakeSession {
	return &fakeSession{sent: make(map[string][]*discordgo.MessageSend)}
}

func (f *fakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[channelID] = append(f.sent[channelID], data)
	return &discordgo.Message{ChannelID: channelID}, nil
}

func (f *fakeSession) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeSession) ApplicationCommandBulkOverwrite(appID string, guildID string, cmds []*discordgo.ApplicationCommand, _ ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.syncErr != nil {
		return nil, f.syncErr
	}
	names := make([]string, 0, len(cmds))
	for _, c := range cmds {
		names = append(names, c.Name)
	}
	f.overwrites = append(f.overwrites, overwrite{appID: appID, guildID: guildID, names: names})
	return cmds, nil
}

func echoCommand(calls *[]*Context) *Command {
	return &Command{
		Name:        "echo",
		Description: "Repeat the arguments",
		Run: func(c *Context) error {
			*calls = append(*calls, c)
			return c.ReplyText("ok")
		},
	}
}

func messageCreate(content string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "m1",
		ChannelID: "c1",
		GuildID:   "g1",
		Content:   content,
		Author:    &discordgo.User{ID: "u1"},
	}}
}

func TestRouter_Add(t *testing.T) {
	r := NewRouter(newFakeSession(), "!", 0xff0000, nil)
	var calls []*Context

	require.NoError(t, r.Add(echoCommand(&calls)))
	assert.Error(t, r.Add(echoCommand(&calls)), "duplicate name")
	assert.Error(t, r.Add(&Command{Name: "Bad Name", Description: "x", Run: func(*Context) error { return nil }}))
	assert.Error(t, r.Add(&Command{Name: "nodesc", Run: func(*Context) error { return nil }}))
	assert.Error(t, r.Add(&Command{Name: "norun", Description: "x"}))
	assert.Error(t, r.Add(nil))

	cmd, ok := r.Lookup("echo")
	assert.True(t, ok)
	assert.Equal(t, "echo", cmd.Name)
}

func TestRouter_HandleMessage(t *testing.T) {
	api := newFakeSession()
	r := NewRouter(api, "!", 0xff0000, nil)
	var calls []*Context
	require.NoError(t, r.Add(echoCommand(&calls)))

	r.HandleMessage(nil, messageCreate("!echo hello world"))

	require.Len(t, calls, 1)
	assert.Equal(t, []string{"hello", "world"}, calls[0].Args)
	assert.Equal(t, "g1", calls[0].GuildID)
	assert.False(t, calls[0].IsInteraction())

	require.Len(t, api.sent["c1"], 1)
	reply := api.sent["c1"][0]
	assert.Equal(t, "ok", reply.Content)
	require.NotNil(t, reply.Reference)
	assert.Equal(t, "m1", reply.Reference.MessageID)
	require.NotNil(t, reply.AllowedMentions)
	assert.True(t, reply.AllowedMentions.RepliedUser)
}

func TestRouter_HandleMessage_Ignored(t *testing.T) {
	api := newFakeSession()
	r := NewRouter(api, "!", 0xff0000, nil)
	var calls []*Context
	require.NoError(t, r.Add(echoCommand(&calls)))

	r.HandleMessage(nil, messageCreate("echo no prefix"))
	r.HandleMessage(nil, messageCreate("!unknown"))
	r.HandleMessage(nil, messageCreate("!"))
	bot := messageCreate("!echo from a bot")
	bot.Author.Bot = true
	r.HandleMessage(nil, bot)
	r.HandleMessage(nil, nil)

	assert.Empty(t, calls)
	assert.Empty(t, api.sent)
}

func TestRouter_HandleInteraction(t *testing.T) {
	api := newFakeSession()
	r := NewRouter(api, "!", 0xff0000, nil)
	var calls []*Context
	require.NoError(t, r.Add(echoCommand(&calls)))

	r.HandleInteraction(nil, &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		ChannelID: "c1",
		GuildID:   "g1",
		Member:    &discordgo.Member{User: &discordgo.User{ID: "u1"}},
		Data: discordgo.ApplicationCommandInteractionData{
			Name: "echo",
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: "text", Type: discordgo.ApplicationCommandOptionString, Value: "hello"},
			},
		},
	}})

	require.Len(t, calls, 1)
	assert.True(t, calls[0].IsInteraction())
	assert.Equal(t, []string{"hello"}, calls[0].Args)
	assert.Equal(t, "u1", calls[0].Author.ID)
	require.Len(t, api.responses, 1)
	assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, api.responses[0].Type)
	assert.Equal(t, "ok", api.responses[0].Data.Content)
	assert.Empty(t, api.sent)
}

func TestRouter_CommandErrorIsReported(t *testing.T) {
	api := newFakeSession()
	r := NewRouter(api, "!", 0xff0000, nil)
	require.NoError(t, r.Add(&Command{
		Name:        "fail",
		Description: "Always fails",
		Run:         func(*Context) error { return errors.New("boom") },
	}))

	r.HandleMessage(nil, messageCreate("!fail"))

	require.Len(t, api.sent["c1"], 1)
	require.Len(t, api.sent["c1"][0].Embeds, 1)
	assert.Equal(t, "Command failed", api.sent["c1"][0].Embeds[0].Title)
	assert.Equal(t, 0xff0000, api.sent["c1"][0].Embeds[0].Color)
}

func TestRouter_Sync(t *testing.T) {
	var calls []*Context

	t.Run("global", func(t *testing.T) {
		api := newFakeSession()
		r := NewRouter(api, "!", 0, nil)
		require.NoError(t, r.Add(echoCommand(&calls)))

		require.NoError(t, r.Sync("app", nil))
		require.Len(t, api.overwrites, 1)
		assert.Equal(t, overwrite{appID: "app", guildID: "", names: []string{"echo"}}, api.overwrites[0])
	})

	t.Run("test guilds", func(t *testing.T) {
		api := newFakeSession()
		r := NewRouter(api, "!", 0, nil)
		require.NoError(t, r.Add(echoCommand(&calls)))

		require.NoError(t, r.Sync("app", []string{"g1", "g2"}))
		require.Len(t, api.overwrites, 2)
		assert.Equal(t, "g1", api.overwrites[0].guildID)
		assert.Equal(t, "g2", api.overwrites[1].guildID)
	})

	t.Run("errors", func(t *testing.T) {
		api := newFakeSession()
		api.syncErr = errors.New("401")
		r := NewRouter(api, "!", 0, nil)

		assert.Error(t, r.Sync("", nil))
		assert.ErrorContains(t, r.Sync("app", []string{"g1"}), "guild g1")
	})
}

func TestRouter_Metrics(t *testing.T) {
	r := NewRouter(newFakeSession(), "!", 0xff0000, nil)
	var calls []*Context
	require.NoError(t, r.Add(echoCommand(&calls)))
	before := utils.GetMetrics()

	r.HandleMessage(nil, messageCreate("!echo hi"))
	r.HandleMessage(nil, messageCreate("just chatting"))
	bot := messageCreate("!echo from a bot")
	bot.Author.Bot = true
	r.HandleMessage(nil, bot)

	after := utils.GetMetrics()
	assert.Equal(t, before["messages_received"]+2, after["messages_received"])
	assert.Equal(t, before["commands_invoked"]+1, after["commands_invoked"])
	assert.Equal(t, before["messages_sent"]+1, after["messages_sent"])
}
