// Package commands routes prefix messages and slash interactions to the
// commands extensions register.
package commands

import (
	"fmt"
	"regexp"

	"github.com/bwmarrin/discordgo"
)

var namePattern = regexp.MustCompile(`^[a-z0-9_-]{1,32}$`)

// Command is a single bot command reachable as "<prefix><name>" and as the
// slash command "/<name>".
type Command struct {
	Name        string
	Description string
	Options     []*discordgo.ApplicationCommandOption
	Run         func(c *Context) error
}

func (cmd *Command) validate() error {
	if cmd == nil {
		return fmt.Errorf("nil command")
	}
	if !namePattern.MatchString(cmd.Name) {
		return fmt.Errorf("invalid command name %q", cmd.Name)
	}
	if cmd.Description == "" || len(cmd.Description) > 100 {
		return fmt.Errorf("command %s: description must be 1-100 characters", cmd.Name)
	}
	if cmd.Run == nil {
		return fmt.Errorf("command %s: no Run function", cmd.Name)
	}
	return nil
}

// ApplicationCommand is the slash command definition sent to Discord.
func (cmd *Command) ApplicationCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        cmd.Name,
		Description: cmd.Description,
		Options:     cmd.Options,
	}
}
