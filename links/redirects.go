// Package links turns the links found in tweets and comments into the urls
// the bot actually wants to show or act on.
package links

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/headers"
)

// RedirectFollower resolves a url to wherever its redirect chain ends.
type RedirectFollower interface {
	Follow(ctx context.Context, rawURL string) (string, error)
}

// Redirects follows redirects with HEAD requests. Intermediate shorteners
// (bit.ly and friends) land replies in reddit's spam filter, so every link
// is chased to its destination before it is posted.
type Redirects struct {
	client  *http.Client
	headers *headers.Headers
}

func NewRedirects(client *http.Client, userAgent string) *Redirects {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Redirects{client: client, headers: headers.Anonymous(userAgent)}
}

func (r *Redirects) Follow(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return rawURL, errors.Wrapf(err, "bad url %s", rawURL)
	}
	r.headers.AddHeadersToRequest(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return rawURL, errors.Wrapf(err, "HEAD %s failed", rawURL)
	}
	defer resp.Body.Close()

	return resp.Request.URL.String(), nil
}
