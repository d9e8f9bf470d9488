package hlsproxy

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

type Config struct {
	Timeout         time.Duration // how long can it take for upstream to respond
	UserAgent       string
	MaxPlaylistSize int64 // maximum accepted manifest size in bytes

	// used when rewriting manifest URIs to go through this proxy
	PlaylistPath string
	SegmentPath  string

	Client *http.Client // optional: will be created from Timeout if nil
}

func (c Config) withDefaultValues() Config {
	if c.Timeout == 0 {
		c.Timeout = 15 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.MaxPlaylistSize == 0 {
		c.MaxPlaylistSize = 8 << 20
	}
	if c.PlaylistPath == "" {
		c.PlaylistPath = "/api/playlist"
	}
	if c.SegmentPath == "" {
		c.SegmentPath = "/api/segment"
	}
	// ensure it starts with single /
	c.PlaylistPath = "/" + strings.TrimLeft(c.PlaylistPath, "/")
	c.SegmentPath = "/" + strings.TrimLeft(c.SegmentPath, "/")
	if c.Client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		// segments are streamed, so only time to first byte is limited
		transport.ResponseHeaderTimeout = c.Timeout
		c.Client = &http.Client{Transport: transport}
	}
	return c
}

type Manager interface {
	FetchPlaylist(ctx context.Context, url string) (string, error)

	ServePlaylist(w http.ResponseWriter, r *http.Request, url string)
	ServeSegment(w http.ResponseWriter, r *http.Request, url string)
}
