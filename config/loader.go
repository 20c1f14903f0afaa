package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Keys as they appear in config files. The environment form is the upper-case
// version (BOT_TOKEN, LOG_CHANNEL, ...).
const (
	KeyToken         = "bot_token"
	KeyPrefix        = "prefix"
	KeyBotName       = "bot_name"
	KeyTestGuilds    = "test_guilds"
	KeyExtensionsDir = "extensions_dir"
	KeyStartupDelay  = "startup_delay"
	KeyLogChannel    = "log_channel"
	KeyColorGreen    = "color_green"
	KeyColorRed      = "color_red"
	KeyColorBlue     = "color_blue"
	KeyRedisAddr     = "redis_addr"
	KeyRedisUsername = "redis_username"
	KeyRedisPassword = "redis_password"
	KeyRedisDB       = "redis_db"
	KeyStatusAddr    = "status_addr"
	KeyLogLevel      = "log_level"
	KeyLogToDiscord  = "log_to_discord"
)

// DefaultEnvFile is read when LoadOptions.EnvFile is empty. A missing default
// file is not an error.
const DefaultEnvFile = ".env"

// flagBindings maps config keys to the CLI flags that may override them.
var flagBindings = map[string]string{
	KeyLogLevel:   "log-level",
	KeyStatusAddr: "status-addr",
	KeyPrefix:     "prefix",
}

// LoadOptions controls where Load looks for settings.
type LoadOptions struct {
	EnvFile    string
	ConfigFile string
	Flags      *pflag.FlagSet
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyToken, "")
	v.SetDefault(KeyPrefix, "!")
	v.SetDefault(KeyBotName, "CodeX.")
	v.SetDefault(KeyTestGuilds, "")
	v.SetDefault(KeyExtensionsDir, "exts")
	v.SetDefault(KeyStartupDelay, "2s")
	v.SetDefault(KeyLogChannel, "")
	v.SetDefault(KeyColorGreen, 0x2ECC71)
	v.SetDefault(KeyColorRed, 0xE74C3C)
	v.SetDefault(KeyColorBlue, 0x3498DB)
	v.SetDefault(KeyRedisAddr, "")
	v.SetDefault(KeyRedisUsername, "")
	v.SetDefault(KeyRedisPassword, "")
	v.SetDefault(KeyRedisDB, 0)
	v.SetDefault(KeyStatusAddr, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogToDiscord, false)
}

// Load resolves the configuration. Precedence, highest first: changed CLI
// flags, process environment, the env file, the config file, defaults.
// Load does not validate; call Validate before connecting.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("could not read config file %s: %w", opts.ConfigFile, err)
		}
	}

	if err := loadEnvFile(v, opts.EnvFile, opts.Flags); err != nil {
		return nil, err
	}

	if opts.Flags != nil {
		for key, name := range flagBindings {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("could not bind flag %s: %w", name, err)
				}
			}
		}
	}

	return fromViper(v)
}

// loadEnvFile copies the entries of a dotenv file into v without touching the
// process environment. Variables already present in the environment, and
// flags the user set explicitly, win.
func loadEnvFile(v *viper.Viper, path string, flags *pflag.FlagSet) error {
	optional := path == ""
	if optional {
		path = DefaultEnvFile
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("could not read env file %s: %w", path, err)
	}
	for name, value := range values {
		if _, ok := os.LookupEnv(name); ok {
			continue
		}
		key := strings.ToLower(name)
		if flagChanged(flags, key) {
			continue
		}
		v.Set(key, value)
	}
	return nil
}

func flagChanged(flags *pflag.FlagSet, key string) bool {
	name, ok := flagBindings[key]
	if !ok || flags == nil {
		return false
	}
	f := flags.Lookup(name)
	return f != nil && f.Changed
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Token:         strings.TrimSpace(v.GetString(KeyToken)),
		Prefix:        v.GetString(KeyPrefix),
		BotName:       v.GetString(KeyBotName),
		ExtensionsDir: v.GetString(KeyExtensionsDir),
		Channels: ChannelConfig{
			Log: v.GetString(KeyLogChannel),
		},
		Redis: RedisConfig{
			Addr:     v.GetString(KeyRedisAddr),
			Username: v.GetString(KeyRedisUsername),
			Password: v.GetString(KeyRedisPassword),
		},
		StatusAddr:   v.GetString(KeyStatusAddr),
		LogLevel:     v.GetString(KeyLogLevel),
		LogToDiscord: v.GetBool(KeyLogToDiscord),
	}

	guilds, err := parseList(v.Get(KeyTestGuilds))
	if err != nil {
		return nil, &ConfigurationError{Key: "TEST_GUILDS", Reason: err.Error()}
	}
	cfg.TestGuilds = guilds

	delay, err := cast.ToDurationE(v.Get(KeyStartupDelay))
	if err != nil || delay < 0 {
		return nil, &ConfigurationError{Key: "STARTUP_DELAY", Reason: fmt.Sprintf("invalid duration %q", v.GetString(KeyStartupDelay))}
	}
	cfg.StartupDelay = delay

	db, err := cast.ToIntE(v.Get(KeyRedisDB))
	if err != nil {
		return nil, &ConfigurationError{Key: "REDIS_DB", Reason: err.Error()}
	}
	cfg.Redis.DB = db

	for key, dst := range map[string]*int{
		KeyColorGreen: &cfg.Colors.Green,
		KeyColorRed:   &cfg.Colors.Red,
		KeyColorBlue:  &cfg.Colors.Blue,
	} {
		color, err := parseColor(v.Get(key))
		if err != nil {
			return nil, &ConfigurationError{Key: strings.ToUpper(key), Reason: err.Error()}
		}
		*dst = color
	}

	return cfg, nil
}

// parseList accepts a comma separated string or a list from a config file.
func parseList(raw interface{}) ([]string, error) {
	var items []string
	switch val := raw.(type) {
	case nil:
		return nil, nil
	case string:
		items = strings.Split(val, ",")
	default:
		list, err := cast.ToStringSliceE(val)
		if err != nil {
			return nil, err
		}
		items = list
	}

	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out, nil
}

// parseColor accepts decimal, 0x-prefixed hex or #-prefixed hex values.
func parseColor(raw interface{}) (int, error) {
	var color int
	if s, ok := raw.(string); ok {
		s = strings.TrimSpace(s)
		if strings.HasPrefix(s, "#") {
			s = "0x" + s[1:]
		}
		parsed, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid color %q", s)
		}
		color = int(parsed)
	} else {
		parsed, err := cast.ToIntE(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid color %v", raw)
		}
		color = parsed
	}
	if color < 0 || color > 0xFFFFFF {
		return 0, fmt.Errorf("color %#x out of range", color)
	}
	return color, nil
}

// Validate checks the settings the bot cannot start without.
func Validate(cfg *Config) error {
	if cfg == nil {
		return &ConfigurationError{Key: "BOT_TOKEN", Reason: "no configuration loaded"}
	}
	if cfg.Token == "" {
		return &ConfigurationError{
			Key:    "BOT_TOKEN",
			Reason: "token value is empty, make sure you have configured the BOT_TOKEN field in .env",
		}
	}
	return nil
}
