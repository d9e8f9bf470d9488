package api

import (
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/go-chi/chi"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/m1k1o/go-streamgate/internal/utils"
	"github.com/m1k1o/go-streamgate/pkg/hlsproxy"
	"github.com/m1k1o/go-streamgate/pkg/playlistcache"
	"github.com/m1k1o/go-streamgate/pkg/provider"
)

type ModuleCtx struct {
	logger   zerolog.Logger
	config   Config
	configMu sync.RWMutex

	cache    playlistcache.Manager
	provider provider.Provider
	proxy    hlsproxy.Manager

	// concurrent scrapes of the same key share one provider call
	scrapes  singleflight.Group
	compress func(http.Handler) http.Handler
}

func New(config *Config, cache playlistcache.Manager, provider provider.Provider, proxy hlsproxy.Manager) *ModuleCtx {
	module := &ModuleCtx{
		logger:   log.With().Str("module", "api").Logger(),
		config:   config.withDefaultValues(),
		cache:    cache,
		provider: provider,
		proxy:    proxy,
	}

	if module.config.Compress {
		wrapper, err := gzhttp.NewWrapper(gzhttp.MinSize(1024))
		if err != nil {
			module.logger.Warn().Err(err).Msg("unable to create gzip wrapper, compression disabled")
		} else {
			module.compress = func(next http.Handler) http.Handler {
				return wrapper(next)
			}
		}
	}

	return module
}

func (m *ModuleCtx) Shutdown() {}

// ConfigReload applies new URL settings, compression is decided on start.
func (m *ModuleCtx) ConfigReload(config *Config) {
	m.configMu.Lock()
	m.config = config.withDefaultValues()
	m.configMu.Unlock()
}

func (m *ModuleCtx) Mount(r chi.Router) {
	r.Group(func(r chi.Router) {
		if m.compress != nil {
			r.Use(m.compress)
		}

		r.Get("/", m.index)
		r.Get("/api/test", m.test)
		r.Get("/api/search", m.search)
		r.Get("/api/scrape", m.scrape)
		r.Get("/api/playlist", m.playlist)
		r.Get("/api/movies", m.movies)
	})

	// segments are binary and may be ranged, never compress them
	r.Get("/api/segment", m.segment)
}

func (m *ModuleCtx) index(w http.ResponseWriter, r *http.Request) {
	utils.HttpJson(w, http.StatusOK, map[string]interface{}{
		"message": "Movie API is running!",
		"endpoints": map[string]string{
			"search":    "/api/search?query=movie_name&type=movie|show",
			"scrape":    "/api/scrape?tmdbId=123&type=movie|show&season=1&episode=1",
			"playlist":  "/api/playlist?url=https://example.com/stream.m3u8",
			"segment":   "/api/segment?url=https://example.com/segment.ts",
			"playlists": "/playlists/{filename}.m3u8 - Serve saved M3U8 files",
			"test":      "/api/test - Test content provider",
		},
		"usage": map[string]interface{}{
			"description": "HLS streams use predictable filenames and check for existing files before scraping",
			"workflow": []string{
				"1. Call /api/scrape with tmdbId to get stream sources",
				"2. API checks if M3U8 playlist already exists in storage",
				"3. If exists, returns cached URL immediately (fromCache: true)",
				"4. If not exists, fetches M3U8 playlist and uploads to storage",
				"5. Use the playlistUrl in your HLS player",
			},
			"filenames": "{tmdbId}_movie.m3u8 or {tmdbId}_s{season}e{episode}.m3u8",
		},
		"storageType": m.cache.StorageType(),
	})
}

func (m *ModuleCtx) test(w http.ResponseWriter, r *http.Request) {
	utils.HttpJson(w, http.StatusOK, m.provider.Info())
}

func (m *ModuleCtx) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		utils.HttpError(w, http.StatusBadRequest, "Query parameter is required")
		return
	}

	mediaType := r.URL.Query().Get("type")
	if mediaType == "" {
		mediaType = playlistcache.MediaMovie
	}

	utils.HttpJson(w, http.StatusOK, map[string]string{
		"message": "Search functionality would require additional TMDB integration",
		"query":   query,
		"type":    mediaType,
		"note":    "Use /api/scrape with known TMDB IDs to get streaming sources",
	})
}

func (m *ModuleCtx) playlist(w http.ResponseWriter, r *http.Request) {
	playlistUrl := r.URL.Query().Get("url")
	if playlistUrl == "" {
		utils.HttpJson(w, http.StatusBadRequest, map[string]string{
			"error":   "url parameter is required",
			"example": "/api/playlist?url=https://example.com/stream.m3u8",
		})
		return
	}

	if !strings.Contains(playlistUrl, ".m3u8") && !strings.Contains(playlistUrl, "playlist") {
		utils.HttpJson(w, http.StatusBadRequest, map[string]string{
			"error":    "URL must be a valid M3U8 playlist URL",
			"provided": playlistUrl,
		})
		return
	}

	m.proxy.ServePlaylist(w, r, playlistUrl)
}

func (m *ModuleCtx) segment(w http.ResponseWriter, r *http.Request) {
	segmentUrl := r.URL.Query().Get("url")
	if segmentUrl == "" {
		utils.HttpJson(w, http.StatusBadRequest, map[string]string{
			"error":   "url parameter is required",
			"example": "/api/segment?url=https://example.com/segment.ts",
		})
		return
	}

	m.proxy.ServeSegment(w, r, segmentUrl)
}

func (m *ModuleCtx) movies(w http.ResponseWriter, r *http.Request) {
	utils.HttpJson(w, http.StatusOK, map[string]string{
		"message": "This endpoint is deprecated. Use /api/search instead.",
		"example": "/api/search?query=inception&type=movie",
	})
}

// absolute returns location that can be used by clients, server relative
// paths of local store are prefixed with public or request base URL.
func (m *ModuleCtx) absolute(r *http.Request, location string) string {
	if u, err := url.Parse(location); err == nil && u.IsAbs() {
		return location
	}

	m.configMu.RLock()
	config := m.config
	m.configMu.RUnlock()

	if config.PublicUrl != "" {
		return strings.TrimRight(config.PublicUrl, "/") + location
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if config.Proxy {
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
	}

	return scheme + "://" + r.Host + location
}
