package posts

import (
	"regexp"

	"github.com/pkg/errors"
)

var (
	ErrNotFound   = errors.New("tweet not found")
	ErrNoStatusID = errors.New("could not find tweet id in url")
)

var statusIDRe = regexp.MustCompile(`/status(?:es)?/(\d+)`)

// Kind is the closed set of media shapes a tweet can carry.
type Kind int

const (
	KindUnknown Kind = iota
	KindImage
	KindAnimatedImage
	KindVideo
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindAnimatedImage:
		return "animated_gif"
	case KindVideo:
		return "video"
	default:
		return "unknown"
	}
}

const (
	ContentTypeMP4 = "video/mp4"
	ContentTypeHLS = "application/x-mpegURL"
)

type Variant struct {
	ContentType string
	Bitrate     int
	URL         string
}

// Media is one entry of the tweet's extended entities. AssetURL is set for
// images, Variants for animated images and videos.
type Media struct {
	Kind      Kind
	ShortLink string
	AssetURL  string
	Variants  []Variant
}

// Entity pairs a t.co link found in the text with what it stands for.
// ExpandedURL and DisplayText are empty when twitter did not supply them.
type Entity struct {
	ShortLink   string
	ExpandedURL string
	DisplayText string
}

type Post struct {
	ID           string
	AuthorHandle string
	AuthorName   string
	FullText     string
	Entities     []Entity
	Media        []Media
}

// StatusID extracts the numeric tweet id from a status url.
func StatusID(url string) (string, error) {
	m := statusIDRe.FindStringSubmatch(url)
	if len(m) < 2 {
		return "", errors.Wrapf(ErrNoStatusID, "url %s", url)
	}
	return m[1], nil
}
