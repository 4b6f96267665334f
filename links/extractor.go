package links

import (
	"context"
	"regexp"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

var ErrExtractTimeout = errors.New("url scan did not finish in time")

// urlPattern is John Gruber's liberal url pattern (v2), which allows two
// levels of balanced parentheses inside a url. A trailing '*' is not
// matched so that urls wrapped in reddit bold/italics come out clean. The
// bare-domain alternative is an atomic group; letting the engine backtrack
// into it is what makes the pattern explode on long dotted runs.
const urlPattern = `\b((?:[a-z][\w-]+:(?:/{1,3}|[a-z0-9%])|www\d{0,3}[.]|(?>[a-z0-9.\-]+)[.][a-z]{2,4}/)` +
	`(?:[^\s()<>]+|\(([^\s()<>]+|(\([^\s()<>]+\)))*\))+` +
	`(?:\(([^\s()<>]+|(\([^\s()<>]+\)))*\)|[^\s` + "`" + `!()\[\]{};:'".,<>?«»“”‘’*]))`

var tweetLinkRe = regexp.MustCompile(`^https?://(?:www\.|mobile\.)?(?:twitter|x)\.com/\w{1,15}/status/\d+`)

// maxWorkers bounds scans still running after their caller gave up on them.
const maxWorkers = 4

type scanResult struct {
	urls []string
	err  error
}

// Extractor finds links to single tweets in free-form comment text.
type Extractor struct {
	deadline  time.Duration
	redirects RedirectFollower
	workers   *semaphore.Weighted
	log       zerolog.Logger

	// Each scan owns its pattern while it runs, because MatchTimeout is
	// reset before every match.
	patterns sync.Pool

	// find is swapped in tests to simulate a runaway scan.
	find func(ctx context.Context, text string) ([]string, error)
}

func NewExtractor(deadline time.Duration, redirects RedirectFollower, log zerolog.Logger) *Extractor {
	e := &Extractor{
		deadline:  deadline,
		redirects: redirects,
		workers:   semaphore.NewWeighted(maxWorkers),
		log:       log,
	}
	e.patterns.New = func() any {
		return regexp2.MustCompile(urlPattern, regexp2.IgnoreCase)
	}
	e.find = e.findURLs
	return e
}

// Extract returns the tweet links in body, in the order found, duplicates
// included. A scan that runs past the deadline is abandoned and the comment
// yields nothing.
func (e *Extractor) Extract(ctx context.Context, body string) []string {
	urls, err := e.scan(ctx, body)
	if err != nil {
		e.log.Error().Err(err).Msg("regex to find urls was taking too long; skipping this comment")
		return nil
	}
	e.log.Debug().Strs("urls", urls).Msg("found urls in comment")

	var tweetLinks []string
	for _, u := range urls {
		resolved, err := e.redirects.Follow(ctx, u)
		if err != nil {
			e.log.Debug().Err(err).Str("url", u).Msg("using url as found, problem with redirect detection")
			resolved = u
		}
		match := tweetLinkRe.FindString(resolved)
		if match == "" {
			e.log.Debug().Str("url", resolved).Msg("not a tweet link")
			continue
		}
		tweetLinks = append(tweetLinks, match)
	}
	return tweetLinks
}

func (e *Extractor) scan(ctx context.Context, body string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.deadline)
	defer cancel()

	if err := e.workers.Acquire(ctx, 1); err != nil {
		return nil, errors.Wrap(ErrExtractTimeout, "no free scan worker")
	}

	results := make(chan scanResult, 1)
	go func() {
		defer e.workers.Release(1)
		urls, err := e.find(ctx, body)
		results <- scanResult{urls: urls, err: err}
	}()

	select {
	case res := <-results:
		if res.err != nil {
			return nil, errors.Wrap(ErrExtractTimeout, res.err.Error())
		}
		return res.urls, nil
	case <-ctx.Done():
		return nil, errors.Wrapf(ErrExtractTimeout, "gave up after %s", e.deadline)
	}
}

// findURLs stops once ctx is done. Every match only gets the time left
// until the deadline of ctx, so the whole scan ends there too.
func (e *Extractor) findURLs(ctx context.Context, text string) ([]string, error) {
	pattern := e.patterns.Get().(*regexp2.Regexp)
	defer e.patterns.Put(pattern)

	var urls []string
	var m *regexp2.Match
	for {
		if err := ctx.Err(); err != nil {
			return urls, err
		}
		pattern.MatchTimeout = e.deadline
		if deadline, ok := ctx.Deadline(); ok {
			left := time.Until(deadline)
			if left <= 0 {
				return urls, context.DeadlineExceeded
			}
			pattern.MatchTimeout = left
		}

		var err error
		if m == nil {
			m, err = pattern.FindStringMatch(text)
		} else {
			m, err = pattern.FindNextMatch(m)
		}
		if err != nil || m == nil {
			return urls, err
		}
		urls = append(urls, m.GroupByNumber(1).String())
	}
}
