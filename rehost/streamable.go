package rehost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/headers"
)

type VideoState int

const (
	VideoPending VideoState = iota
	VideoReady
	VideoFailed
)

func (s VideoState) String() string {
	switch s {
	case VideoReady:
		return "ready"
	case VideoFailed:
		return "failed"
	default:
		return "pending"
	}
}

// VideoStatus is one poll of an imported video. Files maps a rendition name
// ("mp4", "mp4-mobile") to its url; renditions still processing are absent.
type VideoStatus struct {
	State VideoState
	Files map[string]string
}

type streamableFile struct {
	URL string `json:"url"`
}

type streamableVideo struct {
	Status json.RawMessage           `json:"status"`
	Files  map[string]streamableFile `json:"files"`
}

type streamableImport struct {
	Shortcode string `json:"shortcode"`
}

// Streamable imports videos by url and reports their transcoding progress.
type Streamable struct {
	baseURL string
	auth    *headers.Headers
	anon    *headers.Headers
	client  *http.Client
	limiter *rate.Limiter
}

func NewStreamable(baseURL, username, password, userAgent string, client *http.Client) *Streamable {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Streamable{
		baseURL: strings.TrimRight(baseURL, "/"),
		auth:    headers.Basic(username, password, userAgent),
		anon:    headers.Anonymous(userAgent),
		client:  client,
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
	}
}

// Check verifies the account credentials.
func (s *Streamable) Check(ctx context.Context) error {
	resp, err := s.get(ctx, s.baseURL+"/me", s.auth)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("streamable login failed: status %d", resp.StatusCode)
	}
	return nil
}

func (s *Streamable) Import(ctx context.Context, videoURL string) (string, error) {
	resp, err := s.get(ctx, s.baseURL+"/import?url="+url.QueryEscape(videoURL), s.auth)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var imp streamableImport
	if err := json.NewDecoder(resp.Body).Decode(&imp); err != nil || imp.Shortcode == "" {
		return "", errors.Wrapf(ErrUpload, "streamable account may have been suspended; import returned status %d", resp.StatusCode)
	}
	return imp.Shortcode, nil
}

func (s *Streamable) Status(ctx context.Context, shortcode string) (*VideoStatus, error) {
	resp, err := s.get(ctx, s.baseURL+"/videos/"+url.PathEscape(shortcode), s.anon)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("streamable video %s: status %d", shortcode, resp.StatusCode)
	}

	var v streamableVideo
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, errors.Wrap(err, "failed to decode streamable video")
	}

	status := &VideoStatus{State: parseVideoState(v.Status), Files: map[string]string{}}
	for name, f := range v.Files {
		if f.URL == "" {
			continue
		}
		u := f.URL
		if strings.HasPrefix(u, "//") {
			u = "https:" + u
		}
		status.Files[name] = u
	}
	return status, nil
}

// parseVideoState accepts both the numeric codes (2 ready, 3 error) and
// their string forms.
func parseVideoState(raw json.RawMessage) VideoState {
	raw = bytes.TrimSpace(raw)
	var code int
	if err := json.Unmarshal(raw, &code); err == nil {
		switch code {
		case 2:
			return VideoReady
		case 3:
			return VideoFailed
		}
		return VideoPending
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		switch strings.ToLower(text) {
		case "success", "2":
			return VideoReady
		case "error", "3":
			return VideoFailed
		}
	}
	return VideoPending
}

func (s *Streamable) get(ctx context.Context, target string, h *headers.Headers) (*http.Response, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter wait error")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	h.AddHeadersToRequest(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %s failed", target)
	}
	return resp, nil
}

var errStillProcessing = errors.New("video still processing")

// uploadVideo imports the video and polls until both renditions are ready.
// When the poll budget runs out with only one of them, that one is kept
// rather than failing the video; only an empty set is ErrPollTimeout.
func (r *Rehoster) uploadVideo(ctx context.Context, videoURL string) ([]Quality, error) {
	shortcode, err := r.videos.Import(ctx, videoURL)
	if err != nil {
		return nil, err
	}

	var desktop, mobile string
	polls := 0
	backoff := retry.WithMaxRetries(uint64(r.pollAttempts-1), retry.NewConstant(r.pollInterval))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		polls++
		status, err := r.videos.Status(ctx, shortcode)
		if err != nil {
			r.log.Warn().Err(err).Str("shortcode", shortcode).Msg("could not poll video status")
			return retry.RetryableError(err)
		}

		switch status.State {
		case VideoFailed:
			return errors.Wrapf(ErrTranscode, "shortcode %s", shortcode)
		case VideoReady:
			if u := status.Files["mp4"]; u != "" {
				desktop = u
			}
			if u := status.Files["mp4-mobile"]; u != "" {
				mobile = u
			}
			if desktop != "" && mobile != "" {
				return nil
			}
		}
		return retry.RetryableError(errStillProcessing)
	})

	r.log.Debug().Str("shortcode", shortcode).Int("polls", polls).Msg("finished polling video")

	if errors.Is(err, ErrTranscode) {
		return nil, err
	}

	var qualities []Quality
	if desktop != "" {
		qualities = append(qualities, Quality{Label: LabelDesktop, URL: desktop})
	}
	if mobile != "" {
		qualities = append(qualities, Quality{Label: LabelMobile, URL: mobile})
	}

	if err != nil {
		if len(qualities) == 0 {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, errors.Wrapf(ErrPollTimeout, "shortcode %s after %d polls", shortcode, polls)
		}
		r.log.Warn().Str("shortcode", shortcode).Msg("only some video renditions were ready in time")
	}
	return qualities, nil
}
