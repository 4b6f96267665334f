package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[bot]
username = "SomeBot"
subreddit = "testsub"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "testsub", cfg.Bot.Subreddit)
	assert.Equal(t, 20, cfg.Bot.NumThreads)
	assert.Equal(t, DefaultFooter, cfg.Bot.Footer)
	assert.Equal(t, 20, cfg.Streamable.PollAttempts)
	assert.Equal(t, 5*time.Second, cfg.Streamable.PollInterval.Duration)
	assert.Equal(t, 2*time.Second, cfg.Options.ExtractTimeout.Duration)
	assert.Equal(t, LedgerFile, cfg.Options.Ledger)
	assert.Equal(t, "logs/comment_log.log", cfg.Options.ReplyLog)
}

func TestLoadConfigParsesDurations(t *testing.T) {
	path := writeConfig(t, `
[bot]
username = "SomeBot"
subreddit = "testsub"

[streamable]
poll_attempts = 12
poll_interval = "250ms"

[options]
extract_timeout = "1s"
ledger = "sqlite"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Streamable.PollAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Streamable.PollInterval.Duration)
	assert.Equal(t, time.Second, cfg.Options.ExtractTimeout.Duration)
	assert.Equal(t, LedgerSQLite, cfg.Options.Ledger)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("SUB_NAME", "fromenv")
	t.Setenv("NUM_THREADS", "7")
	t.Setenv("STREAMABLE_PASSWORD", "hunter2")

	path := writeConfig(t, `
[bot]
username = "SomeBot"
subreddit = "fromfile"
num_threads = 3
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "fromenv", cfg.Bot.Subreddit)
	assert.Equal(t, 7, cfg.Bot.NumThreads)
	assert.Equal(t, "hunter2", cfg.Streamable.Password)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "missing subreddit",
			body: "[bot]\nusername = \"SomeBot\"\n",
		},
		{
			name: "missing username",
			body: "[bot]\nsubreddit = \"testsub\"\n",
		},
		{
			name: "unknown ledger",
			body: "[bot]\nusername = \"SomeBot\"\nsubreddit = \"testsub\"\n[options]\nledger = \"redis\"\n",
		},
		{
			name: "negative poll interval",
			body: "[bot]\nusername = \"SomeBot\"\nsubreddit = \"testsub\"\n[streamable]\npoll_interval = \"-5s\"\n",
		},
		{
			name: "negative extract timeout",
			body: "[bot]\nusername = \"SomeBot\"\nsubreddit = \"testsub\"\n[options]\nextract_timeout = \"-1s\"\n",
		},
		{
			name: "negative interval",
			body: "[bot]\nusername = \"SomeBot\"\nsubreddit = \"testsub\"\ninterval = \"-10m\"\n",
		},
		{
			name: "bad duration",
			body: "[bot]\nusername = \"SomeBot\"\nsubreddit = \"testsub\"\n[options]\nextract_timeout = \"soon\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestEnsureConfigExistsWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	require.NoError(t, EnsureConfigExists(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, CreateDefaultConfig().Bot.Subreddit, cfg.Bot.Subreddit)
	assert.Equal(t, 5*time.Second, cfg.Streamable.PollInterval.Duration)
}

func TestEnsureConfigUpdatedAddsMissingKeys(t *testing.T) {
	path := writeConfig(t, `
[bot]
username = "SomeBot"
subreddit = "testsub"
`)

	require.NoError(t, EnsureConfigUpdated(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[streamable]")
	assert.Contains(t, string(data), "poll_attempts = 20")
	assert.Contains(t, string(data), `subreddit = "testsub"`)
}

func TestLoadConfigNotifications(t *testing.T) {
	t.Setenv("DISCORD_WEBHOOK", "https://discord.example/hook")

	path := writeConfig(t, `
[bot]
username = "SomeBot"
subreddit = "testsub"

[notifications]
enabled = true
telegram_chat_id = "42"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.Notifications.Enabled)
	assert.Equal(t, "https://discord.example/hook", cfg.Notifications.DiscordWebhook)
	assert.Equal(t, "42", cfg.Notifications.TelegramChatID)
	assert.Equal(t, "https://api.telegram.org", cfg.Notifications.TelegramAPIURL)
}
