package rehost

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/headers"
)

type imgurResponse struct {
	Data struct {
		ID    string `json:"id"`
		Error any    `json:"error"`
	} `json:"data"`
	Success bool `json:"success"`
	Status  int  `json:"status"`
}

// Imgur uploads static images anonymously, by url.
type Imgur struct {
	baseURL string
	headers *headers.Headers
	client  *http.Client
	limiter *rate.Limiter
}

func NewImgur(baseURL, clientID, userAgent string, client *http.Client) *Imgur {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Imgur{
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: headers.ClientID(clientID, userAgent),
		client:  client,
		limiter: rate.NewLimiter(rate.Every(time.Second), 3),
	}
}

// Check verifies the client id by asking for the remaining credits.
func (i *Imgur) Check(ctx context.Context) error {
	resp, err := i.do(ctx, http.MethodGet, "/3/credits", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("imgur rejected client id: status %d", resp.StatusCode)
	}
	return nil
}

func (i *Imgur) UploadImage(ctx context.Context, imageURL string) (string, error) {
	form := url.Values{}
	form.Set("image", imageURL)
	form.Set("type", "url")

	resp, err := i.do(ctx, http.MethodPost, "/3/image", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body imgurResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errors.Wrapf(ErrUpload, "imgur returned status %d and an unreadable body", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK || !body.Success || body.Data.ID == "" {
		return "", errors.Wrapf(ErrUpload, "imgur returned status %d: %v", resp.StatusCode, body.Data.Error)
	}
	return body.Data.ID, nil
}

func (i *Imgur) do(ctx context.Context, method, path string, body *strings.Reader) (*http.Response, error) {
	if err := i.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter wait error")
	}

	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, i.baseURL+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, i.baseURL+path, nil)
	}
	if err != nil {
		return nil, err
	}
	i.headers.AddHeadersToRequest(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s failed", method, path)
	}
	return resp, nil
}
