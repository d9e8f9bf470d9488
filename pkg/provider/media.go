package provider

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/m1k1o/go-streamgate/pkg/playlistcache"
)

const defaultTitle = "Unknown Title"

// BuildMedia creates media from raw query values. Numbers are parsed
// leniently, anything that is not a number becomes 0.
func BuildMedia(tmdbID, mediaType, title, year, season, episode string) (Media, error) {
	if title == "" {
		title = defaultTitle
	}

	media := Media{
		Type:        mediaType,
		Title:       title,
		ReleaseYear: parseNumber(year),
		TmdbID:      tmdbID,
	}

	if mediaType == playlistcache.MediaShow {
		if season == "" || episode == "" {
			return media, fmt.Errorf("%w: season and episode parameters are required for TV shows", playlistcache.ErrInvalidRequest)
		}

		media.Season = &Number{Number: parseNumber(season)}
		media.Episode = &Number{Number: parseNumber(episode)}
	}

	return media, nil
}

// key under which media is looked up in static sources
func mediaKey(media Media) string {
	if media.Season != nil && media.Episode != nil {
		return fmt.Sprintf("%s:s%de%d", media.TmdbID, media.Season.Number, media.Episode.Number)
	}
	return media.TmdbID
}

func parseNumber(s string) int {
	// leading zeros would be treated as octal
	s = strings.TrimLeft(strings.TrimSpace(s), "0")
	if s == "" {
		return 0
	}
	return cast.ToInt(s)
}
