// Package compose builds the reply text that mirrors a tweet.
package compose

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/links"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/markup"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/posts"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/rehost"
)

const lineSep = "--------------------"

type PostFetcher interface {
	GetPost(ctx context.Context, id string) (*posts.Post, error)
}

type MediaRehoster interface {
	Rehost(ctx context.Context, post *posts.Post) ([]rehost.Result, error)
}

type Composer struct {
	posts     PostFetcher
	rehoster  MediaRehoster
	redirects links.RedirectFollower
	footer    string
	log       zerolog.Logger
}

func New(p PostFetcher, r MediaRehoster, redirects links.RedirectFollower, footer string, log zerolog.Logger) *Composer {
	return &Composer{posts: p, rehoster: r, redirects: redirects, footer: footer, log: log}
}

// Compose returns the reply for the tweet at tweetURL. The bool is false
// when the tweet cannot be mirrored; the reason has already been logged.
// replyTo only labels the log lines.
func (c *Composer) Compose(ctx context.Context, tweetURL, replyTo string) (string, bool) {
	log := c.log.With().Str("reddit", replyTo).Str("twitter", tweetURL).Logger()
	log.Info().Msg("######## found new tweet ########")

	id, err := posts.StatusID(tweetURL)
	if err != nil {
		log.Error().Err(err).Msg("could not find tweet id in url")
		return "", false
	}

	post, err := c.posts.GetPost(ctx, id)
	if err != nil {
		log.Error().Err(err).Msg("could not get tweet")
		return "", false
	}

	media, err := c.rehoster.Rehost(ctx, post)
	if err != nil {
		log.Error().Err(err).Msg("could not post tweet due to error when finding/rehosting media")
		return "", false
	}

	log.Debug().Str("text", post.FullText).Msg("tweet text")
	text := links.NewResolver(post, c.redirects, log).ReplaceAll(ctx, post.FullText)
	log.Debug().Str("text", text).Msg("text after link replacement")

	var b strings.Builder
	b.WriteString("**[@" + post.AuthorHandle + "](https://www.twitter.com/" + post.AuthorHandle + ")** (" + post.AuthorName + "):\n\n")
	b.WriteString(markup.Quote(markup.Escape(text)) + "\n\n")

	if len(media) > 0 {
		b.WriteString("Rehosted Media:\n\n")
		for _, m := range media {
			b.WriteString("* " + renderMedia(m) + "\n\n")
		}
	}

	b.WriteString(lineSep + "\n\n")
	b.WriteString(c.footer)
	return b.String(), true
}

func renderMedia(m rehost.Result) string {
	switch m.Kind {
	case rehost.ResultQualities:
		var s strings.Builder
		for _, q := range m.Qualities {
			s.WriteString("[[" + q.Label + "]](" + q.URL + ") ")
		}
		if s.Len() == 0 {
			return "Video: error rehosting video. Sorry!"
		}
		return "Video: " + s.String()
	case rehost.ResultPlaceholder:
		return m.Placeholder
	default:
		return m.URL
	}
}
