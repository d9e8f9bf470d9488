package provider

import (
	"errors"
	"reflect"
	"testing"

	"github.com/m1k1o/go-streamgate/pkg/playlistcache"
)

func TestBuildMedia(t *testing.T) {
	type args struct {
		tmdbID, mediaType, title, year, season, episode string
	}
	tests := []struct {
		name    string
		args    args
		want    Media
		wantErr error
	}{
		{
			name: "movie with defaults",
			args: args{tmdbID: "603", mediaType: "movie"},
			want: Media{Type: "movie", Title: "Unknown Title", TmdbID: "603"},
		},
		{
			name: "movie with title and year",
			args: args{tmdbID: "603", mediaType: "movie", title: "The Matrix", year: "1999"},
			want: Media{Type: "movie", Title: "The Matrix", ReleaseYear: 1999, TmdbID: "603"},
		},
		{
			name: "invalid year",
			args: args{tmdbID: "603", mediaType: "movie", year: "nineteen"},
			want: Media{Type: "movie", Title: "Unknown Title", TmdbID: "603"},
		},
		{
			name: "show episode",
			args: args{tmdbID: "1399", mediaType: "show", season: "1", episode: "09"},
			want: Media{
				Type:    "show",
				Title:   "Unknown Title",
				TmdbID:  "1399",
				Season:  &Number{Number: 1},
				Episode: &Number{Number: 9},
			},
		},
		{
			name: "movie ignores season",
			args: args{tmdbID: "603", mediaType: "movie", season: "1", episode: "1"},
			want: Media{Type: "movie", Title: "Unknown Title", TmdbID: "603"},
		},
		{
			name:    "show without episode",
			args:    args{tmdbID: "1399", mediaType: "show", season: "1"},
			wantErr: playlistcache.ErrInvalidRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.args
			got, err := BuildMedia(a.tmdbID, a.mediaType, a.title, a.year, a.season, a.episode)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("BuildMedia() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildMedia() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BuildMedia() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMediaKey(t *testing.T) {
	movie, _ := BuildMedia("603", "movie", "", "", "", "")
	if got := mediaKey(movie); got != "603" {
		t.Errorf("mediaKey() = %q, want 603", got)
	}

	show, _ := BuildMedia("1399", "show", "", "", "1", "1")
	if got := mediaKey(show); got != "1399:s1e1" {
		t.Errorf("mediaKey() = %q, want 1399:s1e1", got)
	}
}
