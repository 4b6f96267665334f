package rehost

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/headers"
)

type clipResponse struct {
	ContentURLs map[string]struct {
		URL string `json:"url"`
	} `json:"content_urls"`
}

// ClipUploader posts local mp4 files to a gfycat compatible upload endpoint.
type ClipUploader struct {
	uploadURL string
	headers   *headers.Headers
	client    *http.Client
	limiter   *rate.Limiter
}

func NewClipUploader(uploadURL, token, userAgent string, client *http.Client) *ClipUploader {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	h := headers.Anonymous(userAgent)
	if token != "" {
		h = headers.Bearer(token, userAgent)
	}
	return &ClipUploader{
		uploadURL: uploadURL,
		headers:   h,
		client:    client,
		limiter:   rate.NewLimiter(rate.Every(2*time.Second), 2),
	}
}

func (c *ClipUploader) UploadClip(ctx context.Context, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", errors.Wrap(err, "failed to open clip")
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", errors.Wrap(err, "failed to read clip")
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", errors.Wrap(err, "rate limiter wait error")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &buf)
	if err != nil {
		return "", err
	}
	c.headers.AddHeadersToRequest(req)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "clip upload request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read clip host response")
	}

	var body clipResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", errors.Wrapf(ErrUpload, "clip host returned status %d: %s", resp.StatusCode, raw)
	}
	mp4, ok := body.ContentURLs["mp4"]
	if !ok || mp4.URL == "" {
		return "", errors.Wrapf(ErrUpload, "probably a bad upload; no mp4 url in response: %s", raw)
	}
	return mp4.URL, nil
}
