package api

import (
	"github.com/m1k1o/go-streamgate/pkg/provider"
)

const (
	storageDirectContent = "direct_content"
	unknown              = "unknown"
)

type Config struct {
	Proxy     bool   // trust X-Forwarded-Proto when building absolute URLs
	PublicUrl string // optional: base URL of locally served playlists
	Compress  bool   // gzip JSON and playlist responses
}

func (c Config) withDefaultValues() Config {
	return c
}

// Source describes one stream that was found for requested media.
type Source struct {
	EmbedID  string `json:"embedId"`
	StreamID string `json:"streamId"`
	Quality  string `json:"quality"`
	Type     string `json:"type"`

	PlaylistUrl      string `json:"playlistUrl,omitempty"`
	PlaylistFilename string `json:"playlistFilename,omitempty"`
	PlaylistPathname string `json:"playlistPathname,omitempty"`
	PlaylistFetched  *bool  `json:"playlistFetched,omitempty"`
	PlaylistError    string `json:"playlistError,omitempty"`
	PlaylistSize     int64  `json:"playlistSize,omitempty"`
	StorageType      string `json:"storageType,omitempty"`
	FromCache        *bool  `json:"fromCache,omitempty"`
	M3u8Content      string `json:"m3u8Content,omitempty"`
}

type ScrapeResponse struct {
	TmdbID  string           `json:"tmdbId"`
	Type    string           `json:"type"`
	Title   string           `json:"title"`
	Year    int              `json:"year"`
	Season  string           `json:"season,omitempty"`
	Episode string           `json:"episode,omitempty"`
	Sources []Source         `json:"sources"`
	Embeds  []provider.Embed `json:"embeds"`
	Cached  bool             `json:"cached"`
	Message string           `json:"message,omitempty"`
}

// result of single scrape, shared by all requests for the same key
type scrapeResult struct {
	sources []Source
	embeds  []provider.Embed
	cached  bool
}

func boolPtr(b bool) *bool {
	return &b
}
