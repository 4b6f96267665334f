package download

import (
	"context"
	"fmt"

	"github.com/grafov/m3u8"
	"github.com/pkg/errors"

	"github.com/JohnMTorgerson/FleetFlotTheTweetBot/utils"
)

// HighestRendition fetches an HLS playlist and returns the url of its
// highest bandwidth variant. A media playlist has nothing to choose from and
// its own url is returned.
func (d *Downloader) HighestRendition(ctx context.Context, playlistURL string) (string, error) {
	resp, err := d.downloadWithRetry(ctx, playlistURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	playlist, listType, err := m3u8.DecodeFrom(resp.Body, false)
	if err != nil {
		return "", errors.Wrapf(err, "failed to parse playlist %s", playlistURL)
	}
	if listType != m3u8.MASTER {
		return playlistURL, nil
	}

	master := playlist.(*m3u8.MasterPlaylist)
	var best *m3u8.Variant
	for _, v := range master.Variants {
		if v == nil || v.URI == "" {
			continue
		}
		if best == nil || v.Bandwidth > best.Bandwidth {
			best = v
		}
	}
	if best == nil {
		return "", fmt.Errorf("master playlist %s has no variants", playlistURL)
	}

	resolved := utils.JoinURL(playlistURL, best.URI)
	if resolved == "" {
		return "", fmt.Errorf("bad variant uri %q in %s", best.URI, playlistURL)
	}

	d.log.Debug().
		Uint32("bandwidth", best.Bandwidth).
		Str("url", resolved).
		Msg("picked highest quality stream from master playlist")
	return resolved, nil
}
