package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/headers"
)

var ErrArchived = errors.New("thread is archived or no longer available")

type Client struct {
	baseURL   string
	userAgent string
	tokens    TokenSource
	http      *http.Client
	limiter   *rate.Limiter
	log       zerolog.Logger
}

func NewClient(apiURL, userAgent string, tokens TokenSource, httpClient *http.Client, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:   strings.TrimRight(apiURL, "/"),
		userAgent: userAgent,
		tokens:    tokens,
		http:      httpClient,
		// reddit allows 60 requests a minute for oauth clients
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
		log:     log,
	}
}

// Me returns the name of the logged in account.
func (c *Client) Me(ctx context.Context) (string, error) {
	var me struct {
		Name string `json:"name"`
	}
	if err := c.getJSON(ctx, "/api/v1/me", nil, &me); err != nil {
		return "", err
	}
	if me.Name == "" {
		return "", fmt.Errorf("reddit did not return an account name")
	}
	return me.Name, nil
}

// NewSubmissions lists the newest limit submissions of a subreddit. The
// submissions come without comments.
func (c *Client) NewSubmissions(ctx context.Context, subreddit string, limit int) ([]*Submission, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("raw_json", "1")

	var l listing
	if err := c.getJSON(ctx, "/r/"+url.PathEscape(subreddit)+"/new", params, &l); err != nil {
		return nil, errors.Wrapf(err, "could not get submissions of r/%s", subreddit)
	}

	var subs []*Submission
	for _, child := range l.Data.Children {
		if child.Kind != "t3" {
			continue
		}
		var d linkData
		if err := json.Unmarshal(child.Data, &d); err != nil {
			return nil, errors.Wrap(err, "bad submission in listing")
		}
		s := &Submission{}
		s.fromLink(d)
		subs = append(subs, s)
	}
	return subs, nil
}

// Reply posts text as a reply to the thing with the given fullname and
// returns the id of the new comment.
func (c *Client) Reply(ctx context.Context, parentFullname, text string) (string, error) {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("thing_id", parentFullname)
	form.Set("text", text)

	resp, err := c.do(ctx, http.MethodPost, "/api/comment", nil, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("could not comment on %s: status %d", parentFullname, resp.StatusCode)
	}

	var body jsonErrors
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errors.Wrap(err, "unreadable comment response")
	}
	if len(body.JSON.Errors) > 0 {
		return "", fmt.Errorf("could not comment on %s: %v", parentFullname, body.JSON.Errors)
	}
	for _, t := range body.JSON.Data.Things {
		if t.Kind != "t1" {
			continue
		}
		var d commentData
		if err := json.Unmarshal(t.Data, &d); err == nil {
			return d.ID, nil
		}
	}
	return "", nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, dst any) error {
	resp, err := c.do(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusNotFound, http.StatusGone:
		return errors.Wrapf(ErrArchived, "GET %s: status %d", path, resp.StatusCode)
	default:
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return errors.Wrapf(err, "GET %s: unreadable response", path)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body io.Reader) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter wait error")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	headers.Bearer(token, c.userAgent).AddHeadersToRequest(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s failed", method, path)
	}
	return resp, nil
}
