package config

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const appName = "tweetbot"

type Config struct {
	Bot           BotConfig           `toml:"bot"`
	Reddit        RedditConfig        `toml:"reddit"`
	Twitter       TwitterConfig       `toml:"twitter"`
	Imgur         ImgurConfig         `toml:"imgur"`
	ClipHost      ClipHostConfig      `toml:"clip_host"`
	Streamable    StreamableConfig    `toml:"streamable"`
	Notifications NotificationsConfig `toml:"notifications"`
	Options       OptionsConfig       `toml:"options"`
}

type BotConfig struct {
	Username   string   `toml:"username"` // our reddit account, used to spot our own replies
	Subreddit  string   `toml:"subreddit"`
	NumThreads int      `toml:"num_threads"`
	Footer     string   `toml:"footer"`
	Interval   Duration `toml:"interval"` // only used in service mode
}

type RedditConfig struct {
	AppID     string `toml:"app_id"`
	AppSecret string `toml:"app_secret"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	UserAgent string `toml:"user_agent"`
	AuthURL   string `toml:"auth_url"`
	APIURL    string `toml:"api_url"`
}

type TwitterConfig struct {
	ConsumerKey    string `toml:"consumer_key"`
	ConsumerSecret string `toml:"consumer_secret"`
	APIURL         string `toml:"api_url"`
}

type ImgurConfig struct {
	ClientID string `toml:"client_id"`
	APIURL   string `toml:"api_url"`
}

type ClipHostConfig struct {
	UploadURL string `toml:"upload_url"`
	Token     string `toml:"token"`
}

type StreamableConfig struct {
	Username     string   `toml:"username"`
	Password     string   `toml:"password"`
	APIURL       string   `toml:"api_url"`
	PollAttempts int      `toml:"poll_attempts"`
	PollInterval Duration `toml:"poll_interval"`
}

type NotificationsConfig struct {
	Enabled          bool   `toml:"enabled"`
	NotifyOnReply    bool   `toml:"notify_on_reply"`
	NotifyOnError    bool   `toml:"notify_on_error"`
	DiscordWebhook   string `toml:"discord_webhook"`
	DiscordMentionID string `toml:"discord_mention_id"` // user id, or "role:<id>"
	TelegramBotToken string `toml:"telegram_bot_token"`
	TelegramChatID   string `toml:"telegram_chat_id"`
	TelegramAPIURL   string `toml:"telegram_api_url"`
}

type OptionsConfig struct {
	LogDir         string   `toml:"log_dir"`
	TempDir        string   `toml:"temp_dir"`
	ReplyLog       string   `toml:"reply_log"`
	Ledger         string   `toml:"ledger"` // "file" or "sqlite"
	ExtractTimeout Duration `toml:"extract_timeout"`
	ShowProgress   bool     `toml:"show_progress"`
	UserAgent      string   `toml:"user_agent"`
	Verbose        bool     `toml:"verbose"`
}

// Duration lets durations be written as "5s" in the config file.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

const DefaultFooter = "^I ^am ^a ^bot ^lubricated ^by ^Rick's ^slickness" +
	" ^| [^(message&nbsp;me)](https://www.reddit.com/message/compose?to=FleetFlotTheTweetBot)" +
	" ^| [^(source&nbsp;code)](https://github.com/JohnMTorgerson/FleetFlotTheTweetBot)" +
	" ^| ^Skål!"

func GetConfigPath() string {
	currentDirConfig := "config.toml"
	if _, err := os.Stat(currentDirConfig); err == nil {
		return currentDirConfig
	}
	return filepath.Join(GetConfigDir(), "config.toml")
}

func GetConfigDir() string {
	var configDir string
	var err error

	if runtime.GOOS == "darwin" {
		configDir, err = os.UserHomeDir()
		configDir = filepath.Join(configDir, ".config")
	} else {
		configDir, err = os.UserConfigDir()
	}
	if err != nil {
		return appName
	}

	return filepath.Join(configDir, appName)
}

// LoadEnv reads KEY=value pairs from the given .env files into the process
// environment. Missing files are not an error.
func LoadEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return errors.Wrapf(err, "failed to load %s", p)
		}
	}
	return nil
}

func SaveConfig(cfg *Config, configPath string) error {
	file, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	return encoder.Encode(cfg)
}

func LoadConfig(configPath string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(configPath, &config); err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", configPath)
	}

	applyDefaults(&config)
	applyEnv(&config)

	if err := config.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", configPath)
	}

	config.Options.LogDir = filepath.ToSlash(config.Options.LogDir)
	config.Options.TempDir = filepath.ToSlash(config.Options.TempDir)

	return &config, nil
}

// Validate checks the fields every run needs. Credentials are checked at
// login time instead so that "preview" can run without a reddit account.
func (c *Config) Validate() error {
	if c.Bot.Subreddit == "" {
		return fmt.Errorf("bot.subreddit is empty")
	}
	if c.Bot.Username == "" {
		return fmt.Errorf("bot.username is empty")
	}
	if c.Bot.NumThreads <= 0 {
		return fmt.Errorf("bot.num_threads must be positive, got %d", c.Bot.NumThreads)
	}
	if c.Bot.Interval.Duration <= 0 {
		return fmt.Errorf("bot.interval must be positive, got %s", c.Bot.Interval.Duration)
	}
	if c.Streamable.PollAttempts <= 0 {
		return fmt.Errorf("streamable.poll_attempts must be positive, got %d", c.Streamable.PollAttempts)
	}
	if c.Streamable.PollInterval.Duration <= 0 {
		return fmt.Errorf("streamable.poll_interval must be positive, got %s", c.Streamable.PollInterval.Duration)
	}
	if c.Options.ExtractTimeout.Duration <= 0 {
		return fmt.Errorf("options.extract_timeout must be positive, got %s", c.Options.ExtractTimeout.Duration)
	}
	switch c.Options.Ledger {
	case LedgerFile, LedgerSQLite:
	default:
		return fmt.Errorf("options.ledger must be %q or %q, got %q", LedgerFile, LedgerSQLite, c.Options.Ledger)
	}
	return nil
}

const (
	LedgerFile   = "file"
	LedgerSQLite = "sqlite"
)

func CreateDefaultConfig() *Config {
	return &Config{
		Bot: BotConfig{
			Username:   "FleetFlotTheTweetBot",
			Subreddit:  "minnesotavikings",
			NumThreads: 20,
			Footer:     DefaultFooter,
			Interval:   Duration{10 * time.Minute},
		},
		Reddit: RedditConfig{
			UserAgent: "linux:fleetflot-tweetbot:v2 (by /u/FleetFlotTheTweetBot)",
			AuthURL:   "https://www.reddit.com",
			APIURL:    "https://oauth.reddit.com",
		},
		Twitter: TwitterConfig{
			APIURL: "https://api.twitter.com",
		},
		Imgur: ImgurConfig{
			APIURL: "https://api.imgur.com",
		},
		ClipHost: ClipHostConfig{
			UploadURL: "https://api.gfycat.com/v1/gfycats/upload",
		},
		Streamable: StreamableConfig{
			APIURL:       "https://api.streamable.com",
			PollAttempts: 20,
			PollInterval: Duration{5 * time.Second},
		},
		Notifications: NotificationsConfig{
			NotifyOnReply:  true,
			NotifyOnError:  true,
			TelegramAPIURL: "https://api.telegram.org",
		},
		Options: OptionsConfig{
			LogDir:         "logs",
			TempDir:        "temp",
			ReplyLog:       "logs/comment_log.log",
			Ledger:         LedgerFile,
			ExtractTimeout: Duration{2 * time.Second},
			UserAgent:      "Mozilla/5.0 (compatible; FleetFlotTheTweetBot/2.0)",
		},
	}
}

// applyDefaults fills every zero value with its default so that older or
// partial config files keep working.
func applyDefaults(cfg *Config) {
	def := CreateDefaultConfig()

	if cfg.Bot.NumThreads == 0 {
		cfg.Bot.NumThreads = def.Bot.NumThreads
	}
	if cfg.Bot.Footer == "" {
		cfg.Bot.Footer = def.Bot.Footer
	}
	if cfg.Bot.Interval.Duration == 0 {
		cfg.Bot.Interval = def.Bot.Interval
	}
	if cfg.Reddit.UserAgent == "" {
		cfg.Reddit.UserAgent = def.Reddit.UserAgent
	}
	if cfg.Reddit.AuthURL == "" {
		cfg.Reddit.AuthURL = def.Reddit.AuthURL
	}
	if cfg.Reddit.APIURL == "" {
		cfg.Reddit.APIURL = def.Reddit.APIURL
	}
	if cfg.Twitter.APIURL == "" {
		cfg.Twitter.APIURL = def.Twitter.APIURL
	}
	if cfg.Imgur.APIURL == "" {
		cfg.Imgur.APIURL = def.Imgur.APIURL
	}
	if cfg.ClipHost.UploadURL == "" {
		cfg.ClipHost.UploadURL = def.ClipHost.UploadURL
	}
	if cfg.Streamable.APIURL == "" {
		cfg.Streamable.APIURL = def.Streamable.APIURL
	}
	if cfg.Streamable.PollAttempts == 0 {
		cfg.Streamable.PollAttempts = def.Streamable.PollAttempts
	}
	if cfg.Streamable.PollInterval.Duration == 0 {
		cfg.Streamable.PollInterval = def.Streamable.PollInterval
	}
	if cfg.Notifications.TelegramAPIURL == "" {
		cfg.Notifications.TelegramAPIURL = def.Notifications.TelegramAPIURL
	}
	if cfg.Options.LogDir == "" {
		cfg.Options.LogDir = def.Options.LogDir
	}
	if cfg.Options.TempDir == "" {
		cfg.Options.TempDir = def.Options.TempDir
	}
	if cfg.Options.ReplyLog == "" {
		cfg.Options.ReplyLog = filepath.Join(cfg.Options.LogDir, "comment_log.log")
	}
	if cfg.Options.Ledger == "" {
		cfg.Options.Ledger = def.Options.Ledger
	}
	if cfg.Options.ExtractTimeout.Duration == 0 {
		cfg.Options.ExtractTimeout = def.Options.ExtractTimeout
	}
	if cfg.Options.UserAgent == "" {
		cfg.Options.UserAgent = def.Options.UserAgent
	}
}

// applyEnv lets secrets and the two knobs the bot was historically driven by
// come from the environment (or a .env file) instead of config.toml.
func applyEnv(cfg *Config) {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&cfg.Bot.Subreddit, "SUB_NAME")
	if v := os.Getenv("NUM_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Bot.NumThreads = n
		}
	}

	setString(&cfg.Reddit.AppID, "REDDIT_APP_ID")
	setString(&cfg.Reddit.AppSecret, "REDDIT_APP_SECRET")
	setString(&cfg.Reddit.Username, "REDDIT_USERNAME")
	setString(&cfg.Reddit.Password, "REDDIT_PASSWORD")
	setString(&cfg.Twitter.ConsumerKey, "TWITTER_CONSUMER_KEY")
	setString(&cfg.Twitter.ConsumerSecret, "TWITTER_CONSUMER_SECRET")
	setString(&cfg.Imgur.ClientID, "IMGUR_CLIENT_ID")
	setString(&cfg.ClipHost.Token, "CLIP_HOST_TOKEN")
	setString(&cfg.Streamable.Username, "STREAMABLE_USERNAME")
	setString(&cfg.Streamable.Password, "STREAMABLE_PASSWORD")
	setString(&cfg.Notifications.DiscordWebhook, "DISCORD_WEBHOOK")
	setString(&cfg.Notifications.TelegramBotToken, "TELEGRAM_BOT_TOKEN")
}
