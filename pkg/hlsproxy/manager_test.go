package hlsproxy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
)

const testPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-STREAM-INF:BANDWIDTH=1000000,RESOLUTION=1280x720
720p/index.m3u8
#EXT-X-KEY:METHOD=AES-128,URI="/keys/1"
#EXTINF:2,
seg-01.ts
`

func newUpstream(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/master.m3u8", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(testPlaylist))
	})
	mux.HandleFunc("/html", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>nope</html>"))
	})
	mux.HandleFunc("/seg.ts", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Range") == "bytes=0-3" {
			w.Header().Set("Content-Range", "bytes 0-3/10")
			w.Header().Set("Accept-Ranges", "bytes")
			w.WriteHeader(http.StatusPartialContent)
			_, _ = w.Write([]byte("0123"))
			return
		}
		_, _ = w.Write([]byte("0123456789"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchPlaylist(t *testing.T) {
	upstream := newUpstream(t)
	m := New(&Config{})

	content, err := m.FetchPlaylist(context.Background(), upstream.URL+"/master.m3u8")
	if err != nil {
		t.Fatalf("FetchPlaylist() error = %v", err)
	}
	if content != testPlaylist {
		t.Errorf("FetchPlaylist() = %q", content)
	}
}

func TestFetchPlaylistErrors(t *testing.T) {
	upstream := newUpstream(t)

	tests := []struct {
		name   string
		config Config
		url    string
	}{
		{"not found", Config{}, upstream.URL + "/missing.m3u8"},
		{"not a playlist", Config{}, upstream.URL + "/html"},
		{"too large", Config{MaxPlaylistSize: 10}, upstream.URL + "/master.m3u8"},
		{"unreachable", Config{}, "http://127.0.0.1:1/master.m3u8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(&tt.config)
			_, err := m.FetchPlaylist(context.Background(), tt.url)
			if !errors.Is(err, ErrUpstreamFetch) {
				t.Errorf("FetchPlaylist() error = %v, want ErrUpstreamFetch", err)
			}
		})
	}
}

func TestServePlaylistProxy(t *testing.T) {
	upstream := newUpstream(t)
	m := New(&Config{})

	playlistUrl := upstream.URL + "/master.m3u8"

	req := httptest.NewRequest(http.MethodGet, "/api/playlist?proxy=1&url="+url.QueryEscape(playlistUrl), nil)
	rec := httptest.NewRecorder()
	m.ServePlaylist(rec, req, playlistUrl)

	if rec.Code != http.StatusOK {
		t.Fatalf("ServePlaylist() status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/vnd.apple.mpegurl" {
		t.Errorf("Content-Type = %q", ct)
	}

	body := rec.Body.String()
	wants := []string{
		"/api/playlist?proxy=1&url=" + url.QueryEscape(upstream.URL+"/720p/index.m3u8"),
		`URI="/api/segment?url=` + url.QueryEscape(upstream.URL+"/keys/1") + `"`,
		"/api/segment?url=" + url.QueryEscape(upstream.URL+"/seg-01.ts"),
	}
	for _, want := range wants {
		if !strings.Contains(body, want) {
			t.Errorf("ServePlaylist() body missing %q:\n%s", want, body)
		}
	}
}

func TestServePlaylistProxyLongLine(t *testing.T) {
	long := `#EXT-X-SESSION-DATA:DATA-ID="com.example.data",VALUE="` + strings.Repeat("x", 2<<20) + `"`
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("#EXTM3U\n" + long + "\n#EXTINF:2,\nseg-01.ts\n"))
	}))
	t.Cleanup(upstream.Close)

	m := New(&Config{})
	playlistUrl := upstream.URL + "/index.m3u8"

	req := httptest.NewRequest(http.MethodGet, "/api/playlist?proxy=1&url="+url.QueryEscape(playlistUrl), nil)
	rec := httptest.NewRecorder()
	m.ServePlaylist(rec, req, playlistUrl)

	if rec.Code != http.StatusOK {
		t.Fatalf("ServePlaylist() status = %d", rec.Code)
	}

	want := "/api/segment?url=" + url.QueryEscape(upstream.URL+"/seg-01.ts") + "\n"
	if !strings.HasSuffix(rec.Body.String(), want) {
		t.Errorf("ServePlaylist() lost lines after long tag")
	}
	if rec.Header().Get("Content-Length") != strconv.Itoa(rec.Body.Len()) {
		t.Errorf("Content-Length = %s, body = %d", rec.Header().Get("Content-Length"), rec.Body.Len())
	}
}

func TestServePlaylistPassthrough(t *testing.T) {
	upstream := newUpstream(t)
	m := New(&Config{})

	req := httptest.NewRequest(http.MethodGet, "/api/playlist", nil)
	rec := httptest.NewRecorder()
	m.ServePlaylist(rec, req, upstream.URL+"/master.m3u8")

	if rec.Body.String() != testPlaylist {
		t.Errorf("ServePlaylist() = %q, want unchanged playlist", rec.Body.String())
	}
}

func TestServePlaylistFailure(t *testing.T) {
	upstream := newUpstream(t)
	m := New(&Config{})

	req := httptest.NewRequest(http.MethodGet, "/api/playlist", nil)
	rec := httptest.NewRecorder()
	m.ServePlaylist(rec, req, upstream.URL+"/html")

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("ServePlaylist() status = %d, want 500", rec.Code)
	}
}

func TestServeSegment(t *testing.T) {
	upstream := newUpstream(t)
	m := New(&Config{})

	t.Run("full", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/segment", nil)
		rec := httptest.NewRecorder()
		m.ServeSegment(rec, req, upstream.URL+"/seg.ts")

		if rec.Code != http.StatusOK || rec.Body.String() != "0123456789" {
			t.Errorf("ServeSegment() = %d %q", rec.Code, rec.Body.String())
		}
		if cc := rec.Header().Get("Cache-Control"); cc != "public, max-age=3600" {
			t.Errorf("Cache-Control = %q", cc)
		}
	})

	t.Run("range", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/segment", nil)
		req.Header.Set("Range", "bytes=0-3")
		rec := httptest.NewRecorder()
		m.ServeSegment(rec, req, upstream.URL+"/seg.ts")

		if rec.Code != http.StatusPartialContent || rec.Body.String() != "0123" {
			t.Errorf("ServeSegment() = %d %q", rec.Code, rec.Body.String())
		}
		if cr := rec.Header().Get("Content-Range"); cr != "bytes 0-3/10" {
			t.Errorf("Content-Range = %q", cr)
		}
	})

	t.Run("upstream error", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/segment", nil)
		rec := httptest.NewRecorder()
		m.ServeSegment(rec, req, upstream.URL+"/missing.ts")

		if rec.Code != http.StatusNotFound {
			t.Errorf("ServeSegment() status = %d, want 404", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Failed to fetch segment") {
			t.Errorf("ServeSegment() body = %q", rec.Body.String())
		}
	})
}
