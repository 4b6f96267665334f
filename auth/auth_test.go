package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/config"
)

func testConfig(serverURL string) *config.Config {
	cfg := config.CreateDefaultConfig()
	cfg.Reddit.AppID = "app"
	cfg.Reddit.AppSecret = "secret"
	cfg.Reddit.Username = "FleetFlotTheTweetBot"
	cfg.Reddit.Password = "pw"
	cfg.Reddit.AuthURL = serverURL
	cfg.Reddit.APIURL = serverURL
	cfg.Twitter.ConsumerKey = "key"
	cfg.Twitter.ConsumerSecret = "consumer secret"
	cfg.Twitter.APIURL = serverURL
	return cfg
}

func TestRedditLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/access_token":
			w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
		case "/api/v1/me":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			w.Write([]byte(`{"name":"FleetFlotTheTweetBot"}`))
		}
	}))
	defer server.Close()

	client, err := RedditLogin(context.Background(), testConfig(server.URL), server.Client(), zerolog.Nop())
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestRedditLoginFailureIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":401}`))
	}))
	defer server.Close()

	_, err := RedditLogin(context.Background(), testConfig(server.URL), server.Client(), zerolog.Nop())
	assert.True(t, errors.Is(err, ErrFatalStartup))

	cfg := testConfig(server.URL)
	cfg.Reddit.AppID = ""
	_, err = RedditLogin(context.Background(), cfg, server.Client(), zerolog.Nop())
	assert.True(t, errors.Is(err, ErrFatalStartup))
}

func TestTwitterBearer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth2/token", r.URL.Path)
		key, secret, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key", key)
		assert.Equal(t, "consumer+secret", secret)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		w.Write([]byte(`{"token_type":"bearer","access_token":"AAAA"}`))
	}))
	defer server.Close()

	h, err := TwitterBearer(context.Background(), testConfig(server.URL), server.Client())
	require.NoError(t, err)
	assert.Equal(t, "Bearer AAAA", h.Authorization)
}

func TestTwitterBearerRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"errors":[{"code":99,"message":"Unable to verify your credentials"}]}`))
	}))
	defer server.Close()

	_, err := TwitterBearer(context.Background(), testConfig(server.URL), server.Client())
	assert.True(t, errors.Is(err, ErrFatalStartup))
	assert.ErrorContains(t, err, "Unable to verify")
}

type checkerFunc func(context.Context) error

func (f checkerFunc) Check(ctx context.Context) error { return f(ctx) }

func TestVerify(t *testing.T) {
	assert.NoError(t, Verify(context.Background(), "imgur", checkerFunc(func(context.Context) error { return nil })))

	err := Verify(context.Background(), "imgur", checkerFunc(func(context.Context) error { return errors.New("403") }))
	assert.True(t, errors.Is(err, ErrFatalStartup))
	assert.ErrorContains(t, err, "imgur")
}
