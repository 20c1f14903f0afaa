package commands

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/EasterCompany/venkatesh-bot/utils"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Session is the part of *discordgo.Session the router talks to.
type Session interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// Router holds every registered command and dispatches gateway events to
// them.
type Router struct {
	api        Session
	prefix     string
	errorColor int
	logger     *zap.Logger

	mu       sync.RWMutex
	commands map[string]*Command
}

// NewRouter creates a router answering commands that start with prefix.
// Failed commands are answered with an embed in errorColor.
func NewRouter(api Session, prefix string, errorColor int, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		api:        api,
		prefix:     prefix,
		errorColor: errorColor,
		logger:     logger,
		commands:   make(map[string]*Command),
	}
}

// Add registers cmd. Names are unique across all extensions.
func (r *Router) Add(cmd *Command) error {
	if err := cmd.validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.commands[cmd.Name]; ok {
		return fmt.Errorf("command %s already registered", cmd.Name)
	}
	r.commands[cmd.Name] = cmd
	return nil
}

// Lookup returns the command registered under name.
func (r *Router) Lookup(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Commands returns the registered commands sorted by name.
func (r *Router) Commands() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		out = append(out, cmd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Sync replaces the application's slash commands with the registered set.
// With guildIDs the commands are scoped to those guilds, otherwise they are
// registered globally.
func (r *Router) Sync(appID string, guildIDs []string) error {
	if appID == "" {
		return fmt.Errorf("cannot sync commands without an application ID")
	}
	cmds := r.Commands()
	defs := make([]*discordgo.ApplicationCommand, 0, len(cmds))
	for _, cmd := range cmds {
		defs = append(defs, cmd.ApplicationCommand())
	}

	scopes := guildIDs
	if len(scopes) == 0 {
		scopes = []string{""}
	}
	for _, guildID := range scopes {
		if _, err := r.api.ApplicationCommandBulkOverwrite(appID, guildID, defs); err != nil {
			if guildID == "" {
				return fmt.Errorf("failed to register global commands: %w", err)
			}
			return fmt.Errorf("failed to register commands in guild %s: %w", guildID, err)
		}
		r.logger.Debug("slash commands synced", zap.String("guild", guildID), zap.Int("count", len(defs)))
	}
	return nil
}

// HandleMessage is the MessageCreate handler for prefix commands.
func (r *Router) HandleMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil || m.Author == nil || m.Author.Bot {
		return
	}
	utils.IncrementMessagesReceived()
	if r.prefix == "" || !strings.HasPrefix(m.Content, r.prefix) {
		return
	}

	parts := strings.Fields(strings.TrimPrefix(m.Content, r.prefix))
	if len(parts) == 0 {
		return
	}
	cmd, ok := r.Lookup(strings.ToLower(parts[0]))
	if !ok {
		return
	}

	r.run(&Context{
		Command:   cmd,
		Args:      parts[1:],
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Author:    m.Author,
		api:       r.api,
		message:   m.Message,
	})
}

// HandleInteraction is the InteractionCreate handler for slash commands.
func (r *Router) HandleInteraction(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	if i == nil || i.Interaction == nil || i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	cmd, ok := r.Lookup(data.Name)
	if !ok {
		return
	}

	args := make([]string, 0, len(data.Options))
	for _, opt := range data.Options {
		args = append(args, fmt.Sprint(opt.Value))
	}

	author := i.User
	if i.Member != nil && i.Member.User != nil {
		author = i.Member.User
	}

	r.run(&Context{
		Command:     cmd,
		Args:        args,
		ChannelID:   i.ChannelID,
		GuildID:     i.GuildID,
		Author:      author,
		api:         r.api,
		interaction: i.Interaction,
	})
}

func (r *Router) run(c *Context) {
	user := ""
	if c.Author != nil {
		user = c.Author.ID
	}
	r.logger.Info("command invoked",
		zap.String("command", c.Command.Name),
		zap.String("user", user),
		zap.Strings("args", c.Args),
		zap.Bool("slash", c.IsInteraction()),
	)
	utils.IncrementCommandsInvoked()

	err := c.Command.Run(c)
	if err == nil {
		return
	}
	r.logger.Error("command failed", zap.String("command", c.Command.Name), zap.Error(err))

	replyErr := c.ReplyEmbed(&discordgo.MessageEmbed{
		Title:       "Command failed",
		Description: fmt.Sprintf("`%s%s` could not be completed.", r.prefix, c.Command.Name),
		Color:       r.errorColor,
	})
	if replyErr != nil {
		r.logger.Error("failed to send command error response", zap.Error(replyErr))
	}
}
