package links

import (
	"context"
	"regexp"

	"github.com/rs/zerolog"

	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/posts"
)

// ErrorPlaceholder replaces a short link that could not be read at all.
const ErrorPlaceholder = "*[error resolving url]*"

var shortLinkRe = regexp.MustCompile(`\bhttps?://t\.co/\w+\b`)

// Resolver maps the t.co links of one tweet to reddit markdown links.
type Resolver struct {
	post      *posts.Post
	redirects RedirectFollower
	log       zerolog.Logger
}

func NewResolver(post *posts.Post, redirects RedirectFollower, log zerolog.Logger) *Resolver {
	return &Resolver{post: post, redirects: redirects, log: log}
}

// ReplaceAll substitutes every t.co link in text.
func (r *Resolver) ReplaceAll(ctx context.Context, text string) string {
	return shortLinkRe.ReplaceAllStringFunc(text, func(token string) string {
		return r.Resolve(ctx, token)
	})
}

// Resolve never fails: every problem degrades to a less resolved link.
// Tokens without a matching entity resolve to "". Twitter appends a t.co
// link to the tweet itself to every tweet with media and that link must not
// be shown.
func (r *Resolver) Resolve(ctx context.Context, token string) string {
	if token == "" {
		r.log.Error().Msg("short link match was empty, replacing it with an error message")
		return ErrorPlaceholder
	}

	var entity *posts.Entity
	for i := range r.post.Entities {
		if r.post.Entities[i].ShortLink == token {
			entity = &r.post.Entities[i]
			break
		}
	}
	if entity == nil {
		r.log.Debug().Str("short_link", token).Msg("short link not in tweet entities, probably a link to the tweet itself; dropping it")
		return ""
	}

	target := entity.ExpandedURL
	if target == "" {
		target = token
		r.log.Warn().Str("short_link", token).Msg("no expanded_url in tweet entities, resolving the short link manually")
	}

	resolved, err := r.redirects.Follow(ctx, target)
	if err != nil {
		r.log.Error().Err(err).Str("url", target).Msg("could not check where url redirects, posting it as is")
	} else {
		target = resolved
	}

	if entity.DisplayText == "" {
		r.log.Error().Str("short_link", token).Msg("no display_url for link, posting raw link")
		return target
	}
	return "[" + entity.DisplayText + "](" + target + ")"
}
