// Package core builds the long-lived clients once per process and hands
// them to whichever command is running.
package core

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/auth"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/compose"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/config"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/db"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/db/repository"
	dbservice "github.com/JohnMTorgerson/FleetFlotTheTweetBot/db/service"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/dedup"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/download"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/ledger"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/links"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/notifications"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/posts"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/reddit"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/rehost"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/service"
)

type Clients struct {
	HTTP      *http.Client
	Posts     *posts.Client
	Rehoster  *rehost.Rehoster
	Redirects *links.Redirects
	Extractor *links.Extractor
	Composer  *compose.Composer

	// Only set by New.
	Reddit   *reddit.Client
	Ledger   ledger.Ledger
	Guard    *dedup.Guard
	Notifier *notifications.NotificationService
	Bot      *service.BotService

	database *db.Database
}

// NewComposer logs in to twitter and the media hosts. It is enough to
// render replies without a reddit account.
func NewComposer(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Clients, error) {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	twitterHeaders, err := auth.TwitterBearer(ctx, cfg, httpClient)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("logged in to twitter")

	imgur := rehost.NewImgur(cfg.Imgur.APIURL, cfg.Imgur.ClientID, cfg.Options.UserAgent, httpClient)
	if err := auth.Verify(ctx, "imgur", imgur); err != nil {
		return nil, err
	}
	log.Info().Msg("logged in to imgur")

	streamable := rehost.NewStreamable(cfg.Streamable.APIURL, cfg.Streamable.Username, cfg.Streamable.Password, cfg.Options.UserAgent, httpClient)
	if err := streamable.Check(ctx); err != nil {
		// Videos degrade to a placeholder, so this is not worth stopping for.
		log.Warn().Err(err).Msg("could not verify streamable credentials")
	}

	clips := rehost.NewClipUploader(cfg.ClipHost.UploadURL, cfg.ClipHost.Token, cfg.Options.UserAgent, nil)
	files := download.NewDownloader(cfg, nil, log)

	c := &Clients{HTTP: httpClient}
	c.Posts = posts.NewClient(cfg.Twitter.APIURL, twitterHeaders, httpClient, log)
	c.Rehoster = rehost.New(imgur, clips, streamable, files,
		cfg.Streamable.PollAttempts, cfg.Streamable.PollInterval.Duration, log)
	c.Redirects = links.NewRedirects(&http.Client{Timeout: 10 * time.Second}, cfg.Options.UserAgent)
	c.Extractor = links.NewExtractor(cfg.Options.ExtractTimeout.Duration, c.Redirects, log)
	c.Composer = compose.New(c.Posts, c.Rehoster, c.Redirects, cfg.Bot.Footer, log)
	return c, nil
}

// New builds everything a posting run needs.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Clients, error) {
	c, err := NewComposer(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	c.Reddit, err = auth.RedditLogin(ctx, cfg, c.HTTP, log)
	if err != nil {
		return nil, err
	}

	if err := c.openLedger(ctx, cfg, log); err != nil {
		return nil, err
	}

	c.Guard = dedup.NewGuard(c.Reddit, c.Ledger, cfg.Bot.Username, log)
	c.Notifier = notifications.NewNotificationService(cfg.Notifications, nil, log)
	c.Bot = service.NewBotService(c.Reddit, c.Guard, c.Composer, c.Extractor, c.Ledger, c.Notifier, cfg.Bot, log)
	return c, nil
}

func (c *Clients) openLedger(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	file := ledger.NewFile(cfg.Options.ReplyLog)
	if cfg.Options.Ledger != config.LedgerSQLite {
		c.Ledger = file
		return nil
	}

	database, err := db.NewDatabase(filepath.Join(cfg.Options.LogDir, "replies.db"), log)
	if err != nil {
		return errors.Wrap(err, "failed to open reply database")
	}
	replies := dbservice.NewReplyService(repository.NewReplyRepository(database.DB), log)
	if err := replies.ImportFile(ctx, file); err != nil {
		database.Close()
		return errors.Wrap(err, "failed to import reply log")
	}

	c.database = database
	c.Ledger = replies
	return nil
}

func (c *Clients) Close() error {
	if c.database != nil {
		return c.database.Close()
	}
	return nil
}
