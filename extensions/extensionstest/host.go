// Package extensionstest provides a recording Host for extension tests.
package extensionstest

import (
	"sync"
	"time"

	"github.com/EasterCompany/venkatesh-bot/commands"
	"github.com/EasterCompany/venkatesh-bot/config"
	"github.com/EasterCompany/venkatesh-bot/session"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Host records everything an extension registers during Setup. Commands are
// added to a real router so tests can dispatch to them through Session.
type Host struct {
	Cfg      *config.Config
	Log      *zap.Logger
	Session  *Session
	Router   *commands.Router
	Ping     time.Duration
	mu       sync.Mutex
	Handlers []interface{}
}

// NewHost returns a Host with a "!" prefix router backed by a recording
// Session.
func NewHost(cfg *config.Config) *Host {
	if cfg == nil {
		cfg = &config.Config{Token: "T", Prefix: "!", BotName: "CodeX."}
	}
	s := NewSession()
	return &Host{
		Cfg:     cfg,
		Log:     zap.NewNop(),
		Session: s,
		Router:  commands.NewRouter(s, cfg.Prefix, cfg.Colors.Red, nil),
	}
}

func (h *Host) AddHandler(handler interface{}) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Handlers = append(h.Handlers, handler)
	return func() {}
}

func (h *Host) AddCommand(cmd *commands.Command) error { return h.Router.Add(cmd) }

func (h *Host) Send(channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	return h.Session.ChannelMessageSendComplex(channelID, session.WithMentionPolicy(msg))
}

func (h *Host) Latency() time.Duration { return h.Ping }
func (h *Host) Logger() *zap.Logger { return h.Log }
func (h *Host) Config() *config.Config { return h.Cfg }

// Invoke dispatches a prefix message "<prefix><line>" from user u1 in
// channel c1 through the router.
func (h *Host) Invoke(line string) {
	h.Router.HandleMessage(nil, &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "m1",
		ChannelID: "c1",
		GuildID:   "g1",
		Content:   h.Cfg.Prefix + line,
		Author:    &discordgo.User{ID: "u1", Username: "tester"},
	}})
}

// Session records outbound messages.
type Session struct {
	mu        sync.Mutex
	Sent      map[string][]*discordgo.MessageSend
	Responses []*discordgo.InteractionResponse
}

func NewSession() *Session {
	return &Session{Sent: make(map[string][]*discordgo.MessageSend)}
}

func (s *Session) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Sent[channelID] = append(s.Sent[channelID], data)
	return &discordgo.Message{ChannelID: channelID, Content: data.Content, Embeds: data.Embeds}, nil
}

func (s *Session) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Responses = append(s.Responses, resp)
	return nil
}

func (s *Session) ApplicationCommandBulkOverwrite(_ string, _ string, cmds []*discordgo.ApplicationCommand, _ ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	return cmds, nil
}

// Messages returns what was sent to channelID.
func (s *Session) Messages(channelID string) []*discordgo.MessageSend {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*discordgo.MessageSend(nil), s.Sent[channelID]...)
}
