package config

import (
	"fmt"
	"time"
)

// Config holds every setting the bot reads at startup. It is not modified
// after Load returns.
type Config struct {
	Token         string
	Prefix        string
	BotName       string
	TestGuilds    []string
	ExtensionsDir string
	StartupDelay  time.Duration
	Channels      ChannelConfig
	Colors        ColorConfig
	Redis         RedisConfig
	StatusAddr    string
	LogLevel      string
	LogToDiscord  bool
}

// ChannelConfig holds the channel IDs the bot posts to.
type ChannelConfig struct {
	Log string
}

// ColorConfig holds embed colors.
type ColorConfig struct {
	Green int
	Red   int
	Blue  int
}

// RedisConfig holds connection details for the process store. An empty Addr
// disables it.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
}

// ConfigurationError reports a setting that is missing or malformed.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Reason)
}
