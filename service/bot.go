// Package service runs the bot: one pass over the newest submissions of the
// subreddit, or passes on an interval when running as a daemon.
package service

import (
	"context"
	"regexp"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/config"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/ledger"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/notifications"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/reddit"
)

var tweetDomainRe = regexp.MustCompile(`^https?://(?:www\.|mobile\.)?(?:twitter|x)\.com`)

type Forum interface {
	NewSubmissions(ctx context.Context, subreddit string, limit int) ([]*reddit.Submission, error)
	LoadComments(ctx context.Context, s *reddit.Submission) error
	Reply(ctx context.Context, parentFullname, text string) (string, error)
}

type DuplicateGuard interface {
	AlreadyReplied(ctx context.Context, s *reddit.Submission) bool
}

type ReplyComposer interface {
	Compose(ctx context.Context, tweetURL, replyTo string) (string, bool)
}

type LinkExtractor interface {
	Extract(ctx context.Context, body string) []string
}

type Notifier interface {
	NotifyReply(ctx context.Context, r notifications.Reply)
	NotifyError(ctx context.Context, err error)
}

type nopNotifier struct{}

func (nopNotifier) NotifyReply(context.Context, notifications.Reply) {}
func (nopNotifier) NotifyError(context.Context, error)               {}

type BotService struct {
	forum     Forum
	guard     DuplicateGuard
	composer  ReplyComposer
	extractor LinkExtractor
	ledger    ledger.Ledger
	notify    Notifier
	cfg       config.BotConfig
	log       zerolog.Logger

	stopOnce sync.Once
	stopChan chan struct{}
}

// NewBotService wires the bot. notify may be nil.
func NewBotService(forum Forum, guard DuplicateGuard, composer ReplyComposer, extractor LinkExtractor, l ledger.Ledger, notify Notifier, cfg config.BotConfig, log zerolog.Logger) *BotService {
	if notify == nil {
		notify = nopNotifier{}
	}
	return &BotService{
		forum:     forum,
		guard:     guard,
		composer:  composer,
		extractor: extractor,
		ledger:    l,
		notify:    notify,
		cfg:       cfg,
		log:       log,
		stopChan:  make(chan struct{}),
	}
}

// RunOnce replies to every new tweet submission and scans the comments of
// each submission for tweet links. Only a failure to list the subreddit is
// returned; everything else is logged and scoped to one submission.
func (b *BotService) RunOnce(ctx context.Context) error {
	subs, err := b.forum.NewSubmissions(ctx, b.cfg.Subreddit, b.cfg.NumThreads)
	if err != nil {
		return errors.Wrap(err, "could not get subreddit/submissions")
	}

	for _, s := range subs {
		if err := ctx.Err(); err != nil {
			return err
		}
		log := b.log.With().Str("submission", s.ID).Logger()
		log.Debug().Str("title", s.Title).Msg("----------------------------------")

		if tweetDomainRe.MatchString(s.URL) && !b.guard.AlreadyReplied(ctx, s) {
			b.replyToSubmission(ctx, s, log)
		}

		b.scanComments(ctx, s, log)
	}
	return nil
}

func (b *BotService) replyToSubmission(ctx context.Context, s *reddit.Submission, log zerolog.Logger) {
	text, ok := b.composer.Compose(ctx, s.URL, s.ID)
	if !ok {
		return
	}

	commentID, err := b.forum.Reply(ctx, s.Name, text)
	if err != nil {
		log.Error().Err(err).Msg("could not comment")
		return
	}
	log.Info().Str("comment", commentID).Msg("successfully added comment")

	rec := ledger.Record{SubmissionID: s.ID, TweetURL: s.URL, CommentID: commentID}
	if err := b.ledger.Append(ctx, rec); err != nil {
		log.Error().Err(err).Msg("could not record reply in the reply log")
	}

	b.notify.NotifyReply(ctx, notifications.Reply{
		SubmissionID: s.ID,
		Title:        s.Title,
		Permalink:    s.Permalink,
		TweetURL:     s.URL,
		CommentID:    commentID,
	})
}

// scanComments reports tweet links found in comments. Replying to them is
// not done yet: the reply log only knows submissions.
func (b *BotService) scanComments(ctx context.Context, s *reddit.Submission, log zerolog.Logger) {
	log.Debug().Msg("checking this submission's comments for twitter links")
	if !s.Loaded {
		if err := b.forum.LoadComments(ctx, s); err != nil {
			log.Error().Err(err).Msg("could not load comments")
			return
		}
	}

	for _, c := range s.Flatten() {
		tweetLinks := b.extractor.Extract(ctx, c.Body)
		if len(tweetLinks) == 0 {
			continue
		}
		log.Info().Str("comment", c.ID).Strs("tweet_links", tweetLinks).
			Msg("found tweet links! (not commenting yet though)")
	}
}

// Run does a pass immediately and then one per interval until ctx is done
// or Shutdown is called.
func (b *BotService) Run(ctx context.Context) {
	b.log.Info().Str("subreddit", b.cfg.Subreddit).Dur("interval", b.cfg.Interval.Duration).Msg("starting bot service")

	b.pass(ctx)

	ticker := time.NewTicker(b.cfg.Interval.Duration)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.pass(ctx)
		case <-ctx.Done():
			return
		case <-b.stopChan:
			return
		}
	}
}

func (b *BotService) pass(ctx context.Context) {
	if err := b.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		b.log.Error().Err(err).Msg("pass failed")
		b.notify.NotifyError(ctx, err)
	}
}

func (b *BotService) Shutdown() {
	b.stopOnce.Do(func() { close(b.stopChan) })
}
