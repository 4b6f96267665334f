package posts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/headers"
)

type tweetUser struct {
	ScreenName string `json:"screen_name"`
	Name       string `json:"name"`
}

type tweetURL struct {
	URL         string `json:"url"`
	ExpandedURL string `json:"expanded_url"`
	DisplayURL  string `json:"display_url"`
}

type tweetVariant struct {
	ContentType string `json:"content_type"`
	Bitrate     int    `json:"bitrate"`
	URL         string `json:"url"`
}

type tweetMedia struct {
	Type          string `json:"type"`
	URL           string `json:"url"`
	MediaURLHTTPS string `json:"media_url_https"`
	VideoInfo     *struct {
		Variants []tweetVariant `json:"variants"`
	} `json:"video_info,omitempty"`
}

// TweetResponse is the subset of statuses/show (tweet_mode=extended) we use.
type TweetResponse struct {
	IDStr    string    `json:"id_str"`
	FullText string    `json:"full_text"`
	User     tweetUser `json:"user"`
	Entities struct {
		URLs []tweetURL `json:"urls"`
	} `json:"entities"`
	ExtendedEntities *struct {
		Media []tweetMedia `json:"media"`
	} `json:"extended_entities,omitempty"`
}

type apiErrors struct {
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Client fetches tweets with an app-only bearer token.
type Client struct {
	baseURL string
	headers *headers.Headers
	http    *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

func NewClient(baseURL string, h *headers.Headers, httpClient *http.Client, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: h,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
		log:     log,
	}
}

// GetPost returns the tweet with the given id, or ErrNotFound.
func (c *Client) GetPost(ctx context.Context, id string) (*Post, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	endpoint := fmt.Sprintf("%s/1.1/statuses/show.json?id=%s&tweet_mode=extended", c.baseURL, url.QueryEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.headers.AddHeadersToRequest(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch tweet %s", id)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden {
		var apiErr apiErrors
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		if len(apiErr.Errors) > 0 {
			msg = fmt.Sprintf("%s (code %d: %s)", msg, apiErr.Errors[0].Code, apiErr.Errors[0].Message)
		}
		return nil, errors.Wrapf(ErrNotFound, "could not find tweet for id %s: %s", id, msg)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch tweet %s with status code %d", id, resp.StatusCode)
	}

	var tweet TweetResponse
	if err := json.NewDecoder(resp.Body).Decode(&tweet); err != nil {
		return nil, errors.Wrapf(err, "failed to decode tweet %s", id)
	}

	post := tweet.toPost()
	c.log.Debug().Str("tweet", id).Int("media", len(post.Media)).Msg("fetched tweet")
	return post, nil
}

func (t *TweetResponse) toPost() *Post {
	post := &Post{
		ID:           t.IDStr,
		AuthorHandle: t.User.ScreenName,
		AuthorName:   t.User.Name,
		FullText:     t.FullText,
	}

	for _, u := range t.Entities.URLs {
		post.Entities = append(post.Entities, Entity{
			ShortLink:   u.URL,
			ExpandedURL: u.ExpandedURL,
			DisplayText: u.DisplayURL,
		})
	}

	if t.ExtendedEntities == nil {
		return post
	}
	for _, m := range t.ExtendedEntities.Media {
		post.Media = append(post.Media, m.toMedia())
	}
	return post
}

func (m tweetMedia) toMedia() Media {
	media := Media{ShortLink: m.URL}

	switch {
	case m.VideoInfo != nil:
		for _, v := range m.VideoInfo.Variants {
			media.Variants = append(media.Variants, Variant{
				ContentType: v.ContentType,
				Bitrate:     v.Bitrate,
				URL:         v.URL,
			})
		}
		switch m.Type {
		case "animated_gif":
			media.Kind = KindAnimatedImage
		case "video":
			media.Kind = KindVideo
		}
	case m.MediaURLHTTPS != "":
		media.Kind = KindImage
		media.AssetURL = m.MediaURLHTTPS
	}

	return media
}
