// Package dedup decides whether the bot already replied to a submission.
package dedup

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/ledger"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/reddit"
)

type CommentLoader interface {
	LoadComments(ctx context.Context, s *reddit.Submission) error
}

type Guard struct {
	comments CommentLoader
	ledger   ledger.Ledger
	botName  string
	log      zerolog.Logger
}

func NewGuard(comments CommentLoader, l ledger.Ledger, botName string, log zerolog.Logger) *Guard {
	return &Guard{comments: comments, ledger: l, botName: botName, log: log}
}

// AlreadyReplied checks the thread for a top-level comment by the bot and
// then the ledger, since reddit sometimes lists new comments late. When
// either check cannot be made the answer is true: a missed reply is
// cheaper than a double post.
func (g *Guard) AlreadyReplied(ctx context.Context, s *reddit.Submission) bool {
	log := g.log.With().Str("submission", s.ID).Logger()

	if !s.Loaded {
		if err := g.comments.LoadComments(ctx, s); err != nil {
			log.Error().Err(err).Msg("could not find comments in post (thread possibly too old?)")
			return true
		}
	}

	if !s.Complete {
		log.Warn().Msg("comment list is incomplete; relying on the reply log for this submission")
	}

	// Reddit usernames are case-insensitive.
	for _, c := range s.Comments {
		if c.Author != "" && strings.EqualFold(c.Author, g.botName) {
			log.Debug().Str("comment", c.ID).Msg("we posted a top-level comment on this thread already")
			return true
		}
	}

	found, err := g.ledger.Contains(ctx, s.ID)
	if err != nil {
		log.Error().Err(err).Msg("could not read the reply log; skipping this submission")
		return true
	}
	if found {
		log.Debug().Msg("submission is in the reply log")
		return true
	}

	log.Debug().Msg("we have not commented on this post yet")
	return false
}
