// Package auth logs in to every service the bot talks to when it starts.
// A service that cannot be reached at startup stops the run.
package auth

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

	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/config"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/headers"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/reddit"
)

var ErrFatalStartup = errors.New("could not log in")

// Checker is anything that can verify its own credentials.
type Checker interface {
	Check(ctx context.Context) error
}

type twitterToken struct {
	TokenType   string `json:"token_type"`
	AccessToken string `json:"access_token"`
	Errors      []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// RedditLogin gets a token and confirms which account it belongs to. The
// returned client shares the token source and refreshes on its own.
func RedditLogin(ctx context.Context, cfg *config.Config, httpClient *http.Client, log zerolog.Logger) (*reddit.Client, error) {
	if cfg.Reddit.AppID == "" || cfg.Reddit.Username == "" {
		return nil, errors.Wrap(ErrFatalStartup, "reddit credentials are not configured")
	}

	tokens := reddit.NewPasswordGrant(cfg.Reddit, httpClient)
	client := reddit.NewClient(cfg.Reddit.APIURL, cfg.Reddit.UserAgent, tokens, httpClient, log)

	name, err := client.Me(ctx)
	if err != nil {
		return nil, errors.Wrapf(ErrFatalStartup, "could not log in to reddit: %v", err)
	}
	if !strings.EqualFold(name, cfg.Bot.Username) {
		log.Warn().Str("account", name).Str("configured", cfg.Bot.Username).
			Msg("logged in as a different account than bot.username; our own replies will not be recognised")
	}
	log.Info().Str("account", name).Msg("logged in to reddit")
	return client, nil
}

// TwitterBearer exchanges the consumer key and secret for an app-only
// bearer token.
func TwitterBearer(ctx context.Context, cfg *config.Config, httpClient *http.Client) (*headers.Headers, error) {
	if cfg.Twitter.ConsumerKey == "" {
		return nil, errors.Wrap(ErrFatalStartup, "twitter credentials are not configured")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	endpoint := strings.TrimRight(cfg.Twitter.APIURL, "/") + "/oauth2/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	headers.Basic(url.QueryEscape(cfg.Twitter.ConsumerKey), url.QueryEscape(cfg.Twitter.ConsumerSecret), cfg.Options.UserAgent).
		AddHeadersToRequest(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(ErrFatalStartup, "could not log in to twitter: %v", err)
	}
	defer resp.Body.Close()

	var tok twitterToken
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, errors.Wrapf(ErrFatalStartup, "could not log in to twitter: status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK || !strings.EqualFold(tok.TokenType, "bearer") || tok.AccessToken == "" {
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		if len(tok.Errors) > 0 {
			msg += ": " + tok.Errors[0].Message
		}
		return nil, errors.Wrapf(ErrFatalStartup, "could not log in to twitter: %s", msg)
	}

	return headers.Bearer(tok.AccessToken, cfg.Options.UserAgent), nil
}

// Verify runs a credential check and classifies failure as fatal.
func Verify(ctx context.Context, name string, c Checker) error {
	if err := c.Check(ctx); err != nil {
		return errors.Wrapf(ErrFatalStartup, "could not log in to %s: %v", name, err)
	}
	return nil
}
