package provider

import (
	"context"
	"errors"
)

// no stream is known for requested media
var ErrNotFound = errors.New("no stream found")

type Number struct {
	Number int `json:"number" yaml:"number"`
}

// Media identifies content that should be resolved.
type Media struct {
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	ReleaseYear int     `json:"releaseYear"`
	TmdbID      string  `json:"tmdbId"`
	Season      *Number `json:"season,omitempty"`
	Episode     *Number `json:"episode,omitempty"`
}

type Quality struct {
	Type string `json:"type" yaml:"type"`
	URL  string `json:"url" yaml:"url"`
}

type Stream struct {
	ID        string             `json:"id" yaml:"id"`
	Type      string             `json:"type" yaml:"type"`
	Playlist  string             `json:"playlist,omitempty" yaml:"playlist"`
	File      string             `json:"file,omitempty" yaml:"file"`
	Qualities map[string]Quality `json:"qualities,omitempty" yaml:"qualities"`
}

// URL returns playlist for HLS streams, file otherwise.
func (s *Stream) URL() string {
	if s.Playlist != "" {
		return s.Playlist
	}
	return s.File
}

type Embed struct {
	EmbedID string `json:"embedId" yaml:"embedId"`
	URL     string `json:"url,omitempty" yaml:"url"`
}

type Output struct {
	Stream *Stream `json:"stream,omitempty" yaml:"stream"`
	Embeds []Embed `json:"embeds" yaml:"embeds"`
}

type Info struct {
	Message     string `json:"message"`
	Target      string `json:"target"`
	Description string `json:"fetcher"`
}

type Provider interface {
	Resolve(ctx context.Context, media Media) (*Output, error)
	Info() Info
}
