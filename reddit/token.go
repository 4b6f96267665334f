package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/config"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/headers"
)

type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
}

// PasswordGrant logs in as a script app and refreshes the token shortly
// before it expires.
type PasswordGrant struct {
	cfg    config.RedditConfig
	client *http.Client

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func NewPasswordGrant(cfg config.RedditConfig, client *http.Client) *PasswordGrant {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &PasswordGrant{cfg: cfg, client: client}
}

func (g *PasswordGrant) Token(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.token != "" && time.Now().Before(g.expiry) {
		return g.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", g.cfg.Username)
	form.Set("password", g.cfg.Password)

	endpoint := strings.TrimRight(g.cfg.AuthURL, "/") + "/api/v1/access_token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	headers.Basic(g.cfg.AppID, g.cfg.AppSecret, g.cfg.UserAgent).AddHeadersToRequest(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "reddit token request failed")
	}
	defer resp.Body.Close()

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", errors.Wrapf(err, "reddit token response unreadable (status %d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK || tok.AccessToken == "" {
		return "", fmt.Errorf("reddit login failed: status %d: %s", resp.StatusCode, tok.Error)
	}

	g.token = tok.AccessToken
	lifetime := time.Duration(tok.ExpiresIn) * time.Second
	if lifetime > 2*time.Minute {
		lifetime -= time.Minute
	}
	g.expiry = time.Now().Add(lifetime)
	return g.token, nil
}
