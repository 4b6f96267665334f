// Package rehost copies the media attached to a tweet onto third-party
// hosts so it stays viewable where twitter is blocked.
package rehost

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/posts"
	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/utils"
)

var (
	ErrUpload      = errors.New("upload failed")
	ErrNoExtension = errors.New("could not find file extension in url")
	ErrPollTimeout = errors.New("could not retrieve any video urls in time")
	ErrTranscode   = errors.New("video host reported an error")
)

// VideoPlaceholder is shown instead of a video that could not be rehosted.
const VideoPlaceholder = "*Sorry, there was an error trying to rehost a video in this tweet :(*"

const (
	LabelDesktop = "desktop"
	LabelMobile  = "mobile"
)

type ResultKind int

const (
	ResultLink ResultKind = iota
	ResultQualities
	ResultPlaceholder
)

type Quality struct {
	Label string
	URL   string
}

// Result is the outcome for one media item. Only the field matching Kind is
// set.
type Result struct {
	Kind        ResultKind
	URL         string
	Qualities   []Quality
	Placeholder string
}

func Link(url string) Result { return Result{Kind: ResultLink, URL: url} }

func Qualities(q ...Quality) Result { return Result{Kind: ResultQualities, Qualities: q} }

func Placeholder(msg string) Result { return Result{Kind: ResultPlaceholder, Placeholder: msg} }

type ImageHost interface {
	UploadImage(ctx context.Context, imageURL string) (id string, err error)
}

type ClipHost interface {
	UploadClip(ctx context.Context, filePath string) (url string, err error)
}

type VideoHost interface {
	Import(ctx context.Context, videoURL string) (shortcode string, err error)
	Status(ctx context.Context, shortcode string) (*VideoStatus, error)
}

// Fetcher is the part of download.Downloader the rehoster needs.
type Fetcher interface {
	Download(ctx context.Context, mediaURL string) (string, error)
	Remove(filePath string)
	HighestRendition(ctx context.Context, playlistURL string) (string, error)
}

type Rehoster struct {
	images       ImageHost
	clips        ClipHost
	videos       VideoHost
	files        Fetcher
	pollAttempts int
	pollInterval time.Duration
	log          zerolog.Logger
}

func New(images ImageHost, clips ClipHost, videos VideoHost, files Fetcher, pollAttempts int, pollInterval time.Duration, log zerolog.Logger) *Rehoster {
	return &Rehoster{
		images:       images,
		clips:        clips,
		videos:       videos,
		files:        files,
		pollAttempts: pollAttempts,
		pollInterval: pollInterval,
		log:          log,
	}
}

// Rehost returns one result per rehostable media item, in tweet order.
// Images and animated images must make it or the whole tweet is skipped;
// a video that fails is replaced by a placeholder instead.
func (r *Rehoster) Rehost(ctx context.Context, post *posts.Post) ([]Result, error) {
	if len(post.Media) == 0 {
		r.log.Debug().Str("tweet", post.ID).Msg("no media in tweet")
		return nil, nil
	}

	var results []Result
	for _, m := range post.Media {
		switch m.Kind {
		case posts.KindImage:
			res, err := r.rehostImage(ctx, m)
			if err != nil {
				return nil, errors.Wrap(err, "could not upload static image to imgur")
			}
			results = append(results, res)

		case posts.KindAnimatedImage:
			res, ok, err := r.rehostAnimated(ctx, m)
			if err != nil {
				return nil, errors.Wrap(err, "could not upload gif to clip host")
			}
			if ok {
				results = append(results, res)
			}

		case posts.KindVideo:
			if res, ok := r.rehostVideo(ctx, m); ok {
				results = append(results, res)
			}

		default:
			r.log.Error().Str("tweet", post.ID).Str("link", m.ShortLink).
				Msg("thought we found media, but could not find urls")
		}
	}
	return results, nil
}

func (r *Rehoster) rehostImage(ctx context.Context, m posts.Media) (Result, error) {
	ext := utils.GetExtension(m.AssetURL)
	if ext == "" {
		return Result{}, errors.Wrap(ErrNoExtension, m.AssetURL)
	}

	id, err := r.images.UploadImage(ctx, m.AssetURL)
	if err != nil {
		return Result{}, err
	}

	link := "https://imgur.com/" + id + "." + ext
	r.log.Debug().Str("url", link).Msg("successfully uploaded to imgur")
	return Link(link), nil
}

func (r *Rehoster) rehostAnimated(ctx context.Context, m posts.Media) (Result, bool, error) {
	var source string
	for _, v := range m.Variants {
		if v.ContentType == posts.ContentTypeMP4 {
			source = v.URL
			break
		}
	}
	if source == "" {
		r.log.Error().Str("link", m.ShortLink).Msg("gif found, but did not recognize content_type")
		return Result{}, false, nil
	}
	r.log.Debug().Str("url", source).Msg("gif")

	filePath, err := r.files.Download(ctx, source)
	if err != nil {
		return Result{}, false, err
	}
	defer r.files.Remove(filePath)

	clipURL, err := r.clips.UploadClip(ctx, filePath)
	if err != nil {
		return Result{}, false, err
	}
	return Link(clipURL), true, nil
}

func (r *Rehoster) rehostVideo(ctx context.Context, m posts.Media) (Result, bool) {
	source := SelectVideoVariant(m.Variants)
	if source == "" {
		source = r.playlistFallback(ctx, m.Variants)
	}
	if source == "" {
		r.log.Error().Str("link", m.ShortLink).Msg("video found, but did not recognize content_type")
		return Result{}, false
	}
	r.log.Debug().Str("url", source).Msg("video")

	qualities, err := r.uploadVideo(ctx, source)
	if err != nil {
		r.log.Error().Err(err).Msg("could not upload to streamable, commenting anyway")
		return Placeholder(VideoPlaceholder), true
	}
	return Qualities(qualities...), true
}

// SelectVideoVariant picks the mp4 variant with the highest bitrate. On a
// tie the earlier variant wins.
func SelectVideoVariant(variants []posts.Variant) string {
	var best *posts.Variant
	for i := range variants {
		v := &variants[i]
		if v.ContentType != posts.ContentTypeMP4 {
			continue
		}
		if best == nil || v.Bitrate > best.Bitrate {
			best = v
		}
	}
	if best == nil {
		return ""
	}
	return best.URL
}

func (r *Rehoster) playlistFallback(ctx context.Context, variants []posts.Variant) string {
	for _, v := range variants {
		if v.ContentType != posts.ContentTypeHLS {
			continue
		}
		rendition, err := r.files.HighestRendition(ctx, v.URL)
		if err != nil {
			r.log.Warn().Err(err).Str("url", v.URL).Msg("could not read video playlist")
			continue
		}
		return rendition
	}
	return ""
}
