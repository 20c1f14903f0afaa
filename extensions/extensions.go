// Package extensions holds the statically linked extension registry and the
// discovery rules that decide which registered extensions a bot loads.
//
// Extension packages register themselves from init under the dotted path of
// their source file, e.g. exts/utility/ping.go registers "exts.utility.ping".
// At startup the bot lists the files under its extensions root and sets up
// each matching registration in order.
package extensions

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/EasterCompany/venkatesh-bot/commands"
	"github.com/EasterCompany/venkatesh-bot/config"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// ErrNotRegistered is wrapped by RegistrationError when a discovered file has
// no matching registration.
var ErrNotRegistered = errors.New("extension not registered")

// Host is what an extension sees of the running bot during Setup.
type Host interface {
	// AddHandler subscribes a discordgo event handler.
	AddHandler(handler interface{}) func()
	AddCommand(cmd *commands.Command) error
	// Send posts to a channel with the bot's mention policy applied.
	Send(channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error)
	Latency() time.Duration
	Logger() *zap.Logger
	Config() *config.Config
}

// Extension is a unit of commands and handlers.
type Extension interface {
	Setup(h Host) error
}

// Func adapts a function to Extension.
type Func func(h Host) error

func (f Func) Setup(h Host) error { return f(h) }

// RegistrationError reports the extension that stopped a load run.
type RegistrationError struct {
	Path string
	Err  error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("failed to load extension %s: %v", e.Path, e.Err)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// Registry maps dotted paths to extensions.
type Registry struct {
	mu   sync.RWMutex
	exts map[string]Extension
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{exts: make(map[string]Extension)}
}

// Register adds ext under path. It panics on an empty path, a nil extension
// or a duplicate, since all three are programming errors caught at init.
func (r *Registry) Register(path string, ext Extension) {
	if path == "" {
		panic("extensions: Register with empty path")
	}
	if ext == nil {
		panic("extensions: Register of nil extension " + path)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.exts[path]; dup {
		panic("extensions: Register called twice for " + path)
	}
	r.exts[path] = ext
}

// Lookup returns the extension registered under path.
func (r *Registry) Lookup(path string) (Extension, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ext, ok := r.exts[path]
	return ext, ok
}

// Paths returns every registered path, sorted.
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	paths := make([]string, 0, len(r.exts))
	for p := range r.exts {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Setup runs the Setup of the extension registered under path.
func (r *Registry) Setup(path string, h Host) error {
	ext, ok := r.Lookup(path)
	if !ok {
		return &RegistrationError{Path: path, Err: ErrNotRegistered}
	}
	if err := ext.Setup(h); err != nil {
		return &RegistrationError{Path: path, Err: err}
	}
	return nil
}

// Default is the registry extension packages register into from init.
var Default = NewRegistry()

// Register adds ext to the Default registry.
func Register(path string, ext Extension) {
	Default.Register(path, ext)
}
