// Package download fetches remote media into the temp directory so it can be
// re-uploaded to hosts that only accept file uploads.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/config"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/headers"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/utils"
)

const maxRetries = 3

type Downloader struct {
	client       *http.Client
	headers      *headers.Headers
	limiter      *rate.Limiter
	tempDir      string
	showProgress bool
	backoff      time.Duration
	log          zerolog.Logger
	mu           sync.Mutex
}

func NewDownloader(cfg *config.Config, client *http.Client, log zerolog.Logger) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Downloader{
		client:       client,
		headers:      headers.Anonymous(cfg.Options.UserAgent),
		limiter:      rate.NewLimiter(rate.Every(2*time.Second), 3),
		tempDir:      cfg.Options.TempDir,
		showProgress: cfg.Options.ShowProgress,
		backoff:      time.Second,
		log:          log,
	}
}

// Download saves mediaURL under the temp directory and returns the local
// path. The caller owns the file and should hand it to Remove when done.
func (d *Downloader) Download(ctx context.Context, mediaURL string) (string, error) {
	if err := os.MkdirAll(d.tempDir, os.ModePerm); err != nil {
		return "", errors.Wrap(err, "failed to create temp directory")
	}

	resp, err := d.downloadWithRetry(ctx, mediaURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	fileName := uuid.NewString() + filepath.Ext(utils.GetFileNameFromURL(mediaURL))
	filePath := filepath.Join(d.tempDir, fileName)

	out, err := os.Create(filePath)
	if err != nil {
		return "", errors.Wrapf(err, "failed to create %s", filePath)
	}
	defer out.Close()

	var dst io.Writer = out
	if d.showProgress {
		d.mu.Lock()
		defer d.mu.Unlock()
		bar := progressbar.NewOptions64(
			resp.ContentLength,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetDescription(fmt.Sprintf("[green]Downloading[reset] %s", fileName)),
			progressbar.OptionSetWidth(40),
			progressbar.OptionThrottle(15*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish()
		dst = io.MultiWriter(out, bar)
	}

	written, err := io.Copy(dst, resp.Body)
	if err != nil {
		os.Remove(filePath)
		return "", errors.Wrapf(err, "failed to write %s", filePath)
	}

	d.log.Debug().
		Str("url", mediaURL).
		Str("path", filePath).
		Str("size", humanize.Bytes(uint64(written))).
		Msg("downloaded media")
	return filePath, nil
}

// Remove deletes a file returned by Download. Failures are only logged.
func (d *Downloader) Remove(filePath string) {
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		d.log.Warn().Err(err).Str("path", filePath).Msg("could not delete temp file")
	}
}

func (d *Downloader) downloadWithRetry(ctx context.Context, mediaURL string) (*http.Response, error) {
	var resp *http.Response
	backoff := retry.WithMaxRetries(maxRetries-1, retry.NewExponential(d.backoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := d.limiter.Wait(ctx); err != nil {
			return errors.Wrap(err, "rate limiter wait error")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
		if err != nil {
			return errors.Wrap(err, "error creating request")
		}
		d.headers.AddHeadersToRequest(req)

		r, err := d.client.Do(req)
		if err != nil {
			return retry.RetryableError(errors.Wrapf(err, "GET %s failed", mediaURL))
		}
		if r.StatusCode >= http.StatusInternalServerError {
			r.Body.Close()
			return retry.RetryableError(fmt.Errorf("GET %s: server returned %d", mediaURL, r.StatusCode))
		}
		if r.StatusCode != http.StatusOK {
			r.Body.Close()
			return fmt.Errorf("GET %s: unexpected status %d", mediaURL, r.StatusCode)
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to download %s", mediaURL)
	}
	return resp, nil
}
