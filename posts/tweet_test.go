package posts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/headers"
)

const sampleTweet = `{
  "id_str": "123",
  "full_text": "Skol! https://t.co/abc https://t.co/self",
  "user": {"screen_name": "Vikings", "name": "Minnesota Vikings"},
  "entities": {"urls": [
    {"url": "https://t.co/abc", "expanded_url": "https://vikings.com/news", "display_url": "vikings.com/news"}
  ]},
  "extended_entities": {"media": [
    {"type": "photo", "url": "https://t.co/self", "media_url_https": "https://pbs.twimg.com/media/x.jpg"},
    {"type": "animated_gif", "url": "https://t.co/self", "media_url_https": "https://pbs.twimg.com/thumb.jpg",
     "video_info": {"variants": [{"content_type": "video/mp4", "bitrate": 0, "url": "https://video.twimg.com/g.mp4"}]}},
    {"type": "video", "url": "https://t.co/self", "media_url_https": "https://pbs.twimg.com/thumb2.jpg",
     "video_info": {"variants": [
       {"content_type": "application/x-mpegURL", "url": "https://video.twimg.com/v.m3u8"},
       {"content_type": "video/mp4", "bitrate": 832000, "url": "https://video.twimg.com/v.mp4"}
     ]}},
    {"type": "photo", "url": "https://t.co/self"}
  ]}
}`

func TestStatusID(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
		wantErr  bool
	}{
		{name: "twitter", url: "https://twitter.com/Vikings/status/1234567890", expected: "1234567890"},
		{name: "mobile with query", url: "https://mobile.twitter.com/a/status/42?s=20", expected: "42"},
		{name: "x.com", url: "https://x.com/a/status/99", expected: "99"},
		{name: "no status", url: "https://twitter.com/Vikings", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := StatusID(tt.url)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrNoStatusID))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, id)
		})
	}
}

func TestGetPost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/1.1/statuses/show.json", r.URL.Path)
		assert.Equal(t, "123", r.URL.Query().Get("id"))
		assert.Equal(t, "extended", r.URL.Query().Get("tweet_mode"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(sampleTweet))
	}))
	defer server.Close()

	c := NewClient(server.URL, headers.Bearer("tok", "test"), server.Client(), zerolog.Nop())
	post, err := c.GetPost(context.Background(), "123")
	require.NoError(t, err)

	assert.Equal(t, "123", post.ID)
	assert.Equal(t, "Vikings", post.AuthorHandle)
	assert.Equal(t, "Minnesota Vikings", post.AuthorName)
	require.Len(t, post.Entities, 1)
	assert.Equal(t, Entity{
		ShortLink:   "https://t.co/abc",
		ExpandedURL: "https://vikings.com/news",
		DisplayText: "vikings.com/news",
	}, post.Entities[0])

	require.Len(t, post.Media, 4)
	assert.Equal(t, KindImage, post.Media[0].Kind)
	assert.Equal(t, "https://pbs.twimg.com/media/x.jpg", post.Media[0].AssetURL)
	assert.Equal(t, KindAnimatedImage, post.Media[1].Kind)
	assert.Equal(t, ContentTypeMP4, post.Media[1].Variants[0].ContentType)
	assert.Equal(t, KindVideo, post.Media[2].Kind)
	assert.Len(t, post.Media[2].Variants, 2)
	assert.Equal(t, 832000, post.Media[2].Variants[1].Bitrate)
	assert.Equal(t, KindUnknown, post.Media[3].Kind)
}

func TestGetPostNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errors":[{"code":144,"message":"No status found with that ID."}]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, headers.Bearer("tok", "test"), server.Client(), zerolog.Nop())
	_, err := c.GetPost(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "code 144")
}

func TestGetPostServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewClient(server.URL, headers.Bearer("tok", "test"), server.Client(), zerolog.Nop())
	_, err := c.GetPost(context.Background(), "1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}
