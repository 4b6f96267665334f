package compose

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/posts"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/rehost"
)

const footer = "^I ^am ^a ^bot"

type mockPosts struct{ mock.Mock }

func (m *mockPosts) GetPost(ctx context.Context, id string) (*posts.Post, error) {
	args := m.Called(id)
	p, _ := args.Get(0).(*posts.Post)
	return p, args.Error(1)
}

type mockRehoster struct{ mock.Mock }

func (m *mockRehoster) Rehost(ctx context.Context, post *posts.Post) ([]rehost.Result, error) {
	args := m.Called(post.ID)
	r, _ := args.Get(0).([]rehost.Result)
	return r, args.Error(1)
}

// identity follows no redirects.
type identity struct{}

func (identity) Follow(_ context.Context, u string) (string, error) { return u, nil }

func samplePost() *posts.Post {
	return &posts.Post{
		ID:           "123",
		AuthorHandle: "Vikings",
		AuthorName:   "Minnesota Vikings",
		FullText:     "#Skol\n  5. Jefferson https://t.co/abc\nline two https://t.co/self",
		Entities: []posts.Entity{
			{ShortLink: "https://t.co/abc", ExpandedURL: "https://vikings.com/news", DisplayText: "vikings.com/news"},
		},
	}
}

func TestCompose(t *testing.T) {
	p := &mockPosts{}
	p.On("GetPost", "123").Return(samplePost(), nil)
	r := &mockRehoster{}
	r.On("Rehost", "123").Return([]rehost.Result{
		rehost.Link("https://imgur.com/x.jpg"),
		rehost.Qualities(
			rehost.Quality{Label: rehost.LabelDesktop, URL: "https://cdn/d.mp4"},
			rehost.Quality{Label: rehost.LabelMobile, URL: "https://cdn/m.mp4"},
		),
		rehost.Qualities(),
		rehost.Placeholder(rehost.VideoPlaceholder),
	}, nil)

	c := New(p, r, identity{}, footer, zerolog.Nop())
	got, ok := c.Compose(context.Background(), "https://twitter.com/Vikings/status/123", "s1")
	require.True(t, ok)

	expected := "**[@Vikings](https://www.twitter.com/Vikings)** (Minnesota Vikings):\n\n" +
		"> \\#Skol\n> \n> 5\\. Jefferson [vikings.com/news](https://vikings.com/news)\n> \n> line two \n\n" +
		"Rehosted Media:\n\n" +
		"* https://imgur.com/x.jpg\n\n" +
		"* Video: [[desktop]](https://cdn/d.mp4) [[mobile]](https://cdn/m.mp4) \n\n" +
		"* Video: error rehosting video. Sorry!\n\n" +
		"* " + rehost.VideoPlaceholder + "\n\n" +
		"--------------------\n\n" +
		footer
	assert.Equal(t, expected, got)
}

func TestComposeWithoutMedia(t *testing.T) {
	p := &mockPosts{}
	p.On("GetPost", "9").Return(&posts.Post{ID: "9", AuthorHandle: "a", AuthorName: "A", FullText: "hi"}, nil)
	r := &mockRehoster{}
	r.On("Rehost", "9").Return(nil, nil)

	c := New(p, r, identity{}, footer, zerolog.Nop())
	got, ok := c.Compose(context.Background(), "https://mobile.twitter.com/a/status/9?s=20", "s1")
	require.True(t, ok)
	assert.Equal(t, "**[@a](https://www.twitter.com/a)** (A):\n\n> hi\n\n--------------------\n\n"+footer, got)
}

func TestComposeFailures(t *testing.T) {
	t.Run("no status id", func(t *testing.T) {
		p := &mockPosts{}
		c := New(p, &mockRehoster{}, identity{}, footer, zerolog.Nop())
		_, ok := c.Compose(context.Background(), "https://twitter.com/Vikings", "s1")
		assert.False(t, ok)
		p.AssertNotCalled(t, "GetPost", mock.Anything)
	})

	t.Run("tweet not found", func(t *testing.T) {
		p := &mockPosts{}
		p.On("GetPost", "1").Return(nil, posts.ErrNotFound)
		r := &mockRehoster{}
		c := New(p, r, identity{}, footer, zerolog.Nop())
		_, ok := c.Compose(context.Background(), "https://twitter.com/a/status/1", "s1")
		assert.False(t, ok)
		r.AssertNotCalled(t, "Rehost", mock.Anything)
	})

	t.Run("fatal media error", func(t *testing.T) {
		p := &mockPosts{}
		p.On("GetPost", "1").Return(&posts.Post{ID: "1"}, nil)
		r := &mockRehoster{}
		r.On("Rehost", "1").Return(nil, errors.Wrap(rehost.ErrUpload, "imgur"))
		c := New(p, r, identity{}, footer, zerolog.Nop())
		_, ok := c.Compose(context.Background(), "https://twitter.com/a/status/1", "s1")
		assert.False(t, ok)
	})
}
