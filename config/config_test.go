package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment cannot
// leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BOT_TOKEN", "PREFIX", "BOT_NAME", "TEST_GUILDS", "EXTENSIONS_DIR",
		"STARTUP_DELAY", "LOG_CHANNEL", "COLOR_GREEN", "COLOR_RED", "COLOR_BLUE",
		"REDIS_ADDR", "REDIS_USERNAME", "REDIS_PASSWORD", "REDIS_DB",
		"STATUS_ADDR", "LOG_LEVEL", "LOG_TO_DISCORD",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(LoadOptions{EnvFile: writeFile(t, ".env", "")})

	require.NoError(t, err)
	assert.Equal(t, "", cfg.Token)
	assert.Equal(t, "!", cfg.Prefix)
	assert.Equal(t, "CodeX.", cfg.BotName)
	assert.Equal(t, "exts", cfg.ExtensionsDir)
	assert.Equal(t, 2*time.Second, cfg.StartupDelay)
	assert.Equal(t, 0x2ECC71, cfg.Colors.Green)
	assert.Equal(t, 0xE74C3C, cfg.Colors.Red)
	assert.Empty(t, cfg.TestGuilds)
	assert.Equal(t, "", cfg.Redis.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogToDiscord)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "T")
	t.Setenv("PREFIX", "?")
	t.Setenv("TEST_GUILDS", "111, 222,,333")
	t.Setenv("LOG_CHANNEL", "123")
	t.Setenv("COLOR_GREEN", "#00ff00")
	t.Setenv("STARTUP_DELAY", "150ms")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load(LoadOptions{EnvFile: writeFile(t, ".env", "")})

	require.NoError(t, err)
	assert.Equal(t, "T", cfg.Token)
	assert.Equal(t, "?", cfg.Prefix)
	assert.Equal(t, []string{"111", "222", "333"}, cfg.TestGuilds)
	assert.Equal(t, "123", cfg.Channels.Log)
	assert.Equal(t, 0x00FF00, cfg.Colors.Green)
	assert.Equal(t, 150*time.Millisecond, cfg.StartupDelay)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestLoad_EnvFileDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PREFIX", "$")
	envFile := writeFile(t, ".env", "BOT_TOKEN=from-file\nPREFIX=!\nLOG_CHANNEL=42\n")

	cfg, err := Load(LoadOptions{EnvFile: envFile})

	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Token)
	assert.Equal(t, "$", cfg.Prefix)
	assert.Equal(t, "42", cfg.Channels.Log)
	_, set := os.LookupEnv("BOT_TOKEN")
	assert.False(t, set, "env file must not leak into the process environment")
}

func TestLoad_MissingExplicitEnvFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(LoadOptions{EnvFile: filepath.Join(t.TempDir(), "missing.env")})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "could not read env file")
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)
	configFile := writeFile(t, "bot.yaml", "bot_token: yaml-token\ntest_guilds:\n  - \"1\"\n  - \"2\"\ncolor_blue: 255\n")

	cfg, err := Load(LoadOptions{EnvFile: writeFile(t, ".env", ""), ConfigFile: configFile})

	require.NoError(t, err)
	assert.Equal(t, "yaml-token", cfg.Token)
	assert.Equal(t, []string{"1", "2"}, cfg.TestGuilds)
	assert.Equal(t, 255, cfg.Colors.Blue)
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	clearEnv(t)
	configFile := writeFile(t, "bot.json", "{ not valid json }")

	_, err := Load(LoadOptions{EnvFile: writeFile(t, ".env", ""), ConfigFile: configFile})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "could not read config file")
}

func TestLoad_FlagsOverrideEnvFile(t *testing.T) {
	clearEnv(t)
	envFile := writeFile(t, ".env", "LOG_LEVEL=warn\n")
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	require.NoError(t, flags.Parse([]string{"--log-level=debug"}))

	cfg, err := Load(LoadOptions{EnvFile: envFile, Flags: flags})

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  string
		val  string
		key  string
	}{
		{name: "bad color", env: "COLOR_RED", val: "crimson", key: "COLOR_RED"},
		{name: "color out of range", env: "COLOR_RED", val: "0x1000000", key: "COLOR_RED"},
		{name: "bad delay", env: "STARTUP_DELAY", val: "soon", key: "STARTUP_DELAY"},
		{name: "bad redis db", env: "REDIS_DB", val: "first", key: "REDIS_DB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.env, tt.val)

			_, err := Load(LoadOptions{EnvFile: writeFile(t, ".env", "")})

			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tt.key, cfgErr.Key)
		})
	}
}

func TestValidate(t *testing.T) {
	var cfgErr *ConfigurationError

	err := Validate(&Config{})
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "BOT_TOKEN", cfgErr.Key)

	err = Validate(nil)
	assert.True(t, errors.As(err, &cfgErr))

	assert.NoError(t, Validate(&Config{Token: "T"}))
}
