package hlsproxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/m1k1o/go-streamgate/internal/utils"
)

// upstream unreachable or content is not HLS manifest
var ErrUpstreamFetch = errors.New("upstream fetch failure")

type ManagerCtx struct {
	logger zerolog.Logger
	config Config
}

func New(config *Config) *ManagerCtx {
	return &ManagerCtx{
		logger: log.With().Str("module", "hlsproxy").Str("submodule", "manager").Logger(),
		config: config.withDefaultValues(),
	}
}

// FetchPlaylist downloads manifest and validates that it contains HLS markers.
func (m *ManagerCtx) FetchPlaylist(ctx context.Context, playlistUrl string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, playlistUrl, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstreamFetch, err)
	}

	req.Header.Set("User-Agent", m.config.UserAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := m.config.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstreamFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: HTTP %s", ErrUpstreamFetch, resp.Status)
	}

	// read one byte more to detect oversized manifests
	buf, err := io.ReadAll(io.LimitReader(resp.Body, m.config.MaxPlaylistSize+1))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstreamFetch, err)
	}

	if int64(len(buf)) > m.config.MaxPlaylistSize {
		return "", fmt.Errorf("%w: playlist exceeds %s", ErrUpstreamFetch, humanize.IBytes(uint64(m.config.MaxPlaylistSize)))
	}

	content := string(buf)
	if !IsPlaylist(content) {
		return "", fmt.Errorf("%w: URL does not contain valid M3U8 content", ErrUpstreamFetch)
	}

	m.logger.Debug().
		Str("url", playlistUrl).
		Str("size", humanize.Bytes(uint64(len(buf)))).
		Msg("playlist fetched")

	return content, nil
}

// ServePlaylist fetches manifest and writes it to client. If proxy query
// parameter is set, all URIs are rewritten to go through this proxy.
func (m *ManagerCtx) ServePlaylist(w http.ResponseWriter, r *http.Request, playlistUrl string) {
	content, err := m.FetchPlaylist(r.Context(), playlistUrl)
	if err != nil {
		m.logger.Warn().Err(err).Str("url", playlistUrl).Msg("unable to fetch playlist")
		utils.HttpJson(w, http.StatusInternalServerError, map[string]string{
			"error":   "Failed to fetch playlist",
			"details": err.Error(),
			"url":     playlistUrl,
		})
		return
	}

	if proxy, _ := strconv.ParseBool(r.URL.Query().Get("proxy")); proxy {
		base, err := url.Parse(playlistUrl)
		if err == nil {
			content, err = PlaylistUrlWalk(strings.NewReader(content), func(ref string) string {
				return m.proxyUrl(base, ref)
			})
		}

		if err != nil {
			m.logger.Warn().Err(err).Str("url", playlistUrl).Msg("unable to rewrite playlist")
			utils.HttpError(w, http.StatusInternalServerError, "Failed to rewrite playlist", err.Error())
			return
		}
	}

	utils.CorsHeaders(w)
	w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.WriteHeader(http.StatusOK)

	_, _ = io.WriteString(w, content)
}

// ServeSegment streams upstream resource to client, range requests are passed through.
func (m *ManagerCtx) ServeSegment(w http.ResponseWriter, r *http.Request, segmentUrl string) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, segmentUrl, nil)
	if err != nil {
		utils.HttpError(w, http.StatusBadRequest, "Invalid segment URL", err.Error())
		return
	}

	req.Header.Set("User-Agent", m.config.UserAgent)
	req.Header.Set("Accept", "*/*")
	if rng := r.Header.Get("Range"); rng != "" {
		req.Header.Set("Range", rng)
	}

	resp, err := m.config.Client.Do(req)
	if err != nil {
		m.logger.Warn().Err(err).Str("url", segmentUrl).Msg("unable to get segment")
		utils.HttpError(w, http.StatusInternalServerError, "Failed to fetch video segment", err.Error())
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		m.logger.Warn().Int("code", resp.StatusCode).Str("url", segmentUrl).Msg("invalid HTTP response")
		utils.HttpJson(w, resp.StatusCode, map[string]interface{}{
			"error":  "Failed to fetch segment",
			"status": resp.StatusCode,
			"url":    segmentUrl,
		})
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp2t"
	}

	utils.CorsHeaders(w)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	for _, key := range []string{"Content-Length", "Accept-Ranges", "Content-Range"} {
		if value := resp.Header.Get(key); value != "" {
			w.Header().Set(key, value)
		}
	}
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		// client went away or upstream broke, headers are already sent
		m.logger.Debug().Err(err).Str("url", segmentUrl).Msg("segment copy interrupted")
	}
}

func (m *ManagerCtx) proxyUrl(base *url.URL, ref string) string {
	u, err := base.Parse(ref)
	if err != nil {
		return ref
	}

	target := u.String()
	if strings.HasSuffix(u.Path, ".m3u8") {
		return m.config.PlaylistPath + "?proxy=1&url=" + url.QueryEscape(target)
	}

	return m.config.SegmentPath + "?url=" + url.QueryEscape(target)
}
