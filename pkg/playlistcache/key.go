package playlistcache

import (
	"fmt"
	"regexp"
)

const (
	MediaMovie = "movie"
	MediaShow  = "show"
)

var (
	// underscore separates content id from the rest of the key
	contentIDRegex = regexp.MustCompile(`^[0-9A-Za-z-]+$`)
	numberRegex    = regexp.MustCompile(`^[0-9]+$`)
)

// DeriveKey returns file name under which manifest for given content is stored.
// Season and episode are ignored for movies.
func DeriveKey(contentID, mediaType, season, episode string) (string, error) {
	if contentID == "" {
		return "", fmt.Errorf("%w: content id is required", ErrInvalidRequest)
	}

	if !contentIDRegex.MatchString(contentID) {
		return "", fmt.Errorf("%w: invalid content id %q", ErrInvalidRequest, contentID)
	}

	switch mediaType {
	case MediaMovie:
		return fmt.Sprintf("%s_movie.m3u8", contentID), nil
	case MediaShow:
		if season == "" || episode == "" {
			return "", fmt.Errorf("%w: season and episode are required for shows", ErrInvalidRequest)
		}

		if !numberRegex.MatchString(season) || !numberRegex.MatchString(episode) {
			return "", fmt.Errorf("%w: season and episode must be numbers", ErrInvalidRequest)
		}

		return fmt.Sprintf("%s_s%se%s.m3u8", contentID, season, episode), nil
	default:
		return "", fmt.Errorf("%w: unknown media type %q", ErrInvalidRequest, mediaType)
	}
}
