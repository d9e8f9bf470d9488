package api

import (
	"context"
	"net/http"

	"github.com/sourcegraph/conc/panics"

	"github.com/m1k1o/go-streamgate/internal/utils"
	"github.com/m1k1o/go-streamgate/pkg/blobstore"
	"github.com/m1k1o/go-streamgate/pkg/playlistcache"
	"github.com/m1k1o/go-streamgate/pkg/provider"
)

func (m *ModuleCtx) scrape(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	tmdbID := query.Get("tmdbId")
	if tmdbID == "" {
		utils.HttpError(w, http.StatusBadRequest, "tmdbId parameter is required")
		return
	}

	mediaType := query.Get("type")
	if mediaType == "" {
		mediaType = playlistcache.MediaMovie
	}

	if mediaType != playlistcache.MediaMovie && mediaType != playlistcache.MediaShow {
		utils.HttpError(w, http.StatusBadRequest, "type parameter must be movie or show")
		return
	}

	season, episode := query.Get("season"), query.Get("episode")
	if mediaType == playlistcache.MediaShow && (season == "" || episode == "") {
		utils.HttpError(w, http.StatusBadRequest, "season and episode parameters are required for TV shows")
		return
	}

	media, err := provider.BuildMedia(tmdbID, mediaType, query.Get("title"), query.Get("year"), season, episode)
	if err != nil {
		utils.HttpError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	key, err := playlistcache.DeriveKey(tmdbID, mediaType, season, episode)
	if err != nil {
		utils.HttpError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	logger := m.logger.With().Str("key", key).Logger()

	// shared work must not be cancelled when the first client goes away
	ch := m.scrapes.DoChan(key, func() (interface{}, error) {
		return m.resolve(context.WithoutCancel(r.Context()), key, media)
	})

	var res *scrapeResult
	select {
	case <-r.Context().Done():
		logger.Debug().Err(r.Context().Err()).Msg("client went away while scraping")
		return
	case out := <-ch:
		if out.Err != nil {
			logger.Warn().Err(out.Err).Msg("unable to get streaming sources")
			utils.HttpError(w, http.StatusInternalServerError, "Failed to get streaming sources", out.Err.Error())
			return
		}
		res = out.Val.(*scrapeResult)
	}

	// result is shared, make request specific copy
	sources := make([]Source, len(res.sources))
	copy(sources, res.sources)
	for i := range sources {
		if sources[i].PlaylistUrl != "" {
			sources[i].PlaylistUrl = m.absolute(r, sources[i].PlaylistUrl)
		}
	}

	embeds := res.embeds
	if embeds == nil {
		embeds = []provider.Embed{}
	}

	response := ScrapeResponse{
		TmdbID:  tmdbID,
		Type:    mediaType,
		Title:   media.Title,
		Year:    media.ReleaseYear,
		Sources: sources,
		Embeds:  embeds,
		Cached:  res.cached,
	}

	if mediaType == playlistcache.MediaShow {
		response.Season = season
		response.Episode = episode
	}

	if res.cached {
		response.Message = "Returned cached playlist without scraping"
	}

	utils.HttpJson(w, http.StatusOK, response)
}

func (m *ModuleCtx) resolve(ctx context.Context, key string, media provider.Media) (res *scrapeResult, err error) {
	var pc panics.Catcher
	pc.Try(func() {
		res, err = m.lookupOrScrape(ctx, key, media)
	})

	if r := pc.Recovered(); r != nil {
		m.logger.Error().Str("stack", string(r.Stack)).Msgf("scrape panicked: %v", r.Value)
		return nil, r.AsError()
	}

	return
}

func (m *ModuleCtx) lookupOrScrape(ctx context.Context, key string, media provider.Media) (*scrapeResult, error) {
	entry, err := m.cache.Lookup(ctx, key)
	if err != nil {
		// unreachable store must not prevent scraping
		m.logger.Warn().Err(err).Str("key", key).Msg("lookup failed, treating as cache miss")
	}

	if entry != nil {
		m.logger.Info().Str("key", key).Msg("using existing playlist without scraping")
		return &scrapeResult{
			sources: []Source{m.cachedSource(entry)},
			embeds:  []provider.Embed{},
			cached:  true,
		}, nil
	}

	m.logger.Info().Str("key", key).Msg("no cached playlist found, scraping")

	output, err := m.provider.Resolve(ctx, media)
	if err != nil {
		return nil, err
	}

	res := &scrapeResult{
		sources: []Source{},
		embeds:  output.Embeds,
	}

	stream := output.Stream
	if stream == nil {
		return res, nil
	}

	source := Source{
		EmbedID:  unknown,
		StreamID: stream.ID,
		Quality:  unknown,
		Type:     stream.Type,
	}

	if len(output.Embeds) > 0 && output.Embeds[0].EmbedID != "" {
		source.EmbedID = output.Embeds[0].EmbedID
	}
	if source.StreamID == "" {
		source.StreamID = unknown
	}
	if source.Type == "" {
		source.Type = unknown
	}
	if _, ok := stream.Qualities["1080"]; ok {
		source.Quality = "1080p"
	}

	streamUrl := stream.URL()
	if streamUrl == "" {
		return res, nil
	}

	if source.Type == "hls" {
		m.persist(ctx, key, streamUrl, &source)
	}

	res.sources = append(res.sources, source)
	return res, nil
}

// persist fetches manifest and stores it, failures are reported in source.
func (m *ModuleCtx) persist(ctx context.Context, key, streamUrl string, source *Source) {
	source.FromCache = boolPtr(false)

	content, err := m.proxy.FetchPlaylist(ctx, streamUrl)
	if err != nil {
		m.logger.Warn().Err(err).Str("url", streamUrl).Msg("unable to fetch playlist")
		source.PlaylistFetched = boolPtr(false)
		source.PlaylistError = err.Error()
		return
	}

	entry, err := m.cache.Store(ctx, key, []byte(content))
	if err != nil {
		m.logger.Warn().Err(err).Str("key", key).Msg("unable to store playlist, returning content directly")
		source.M3u8Content = content
		source.PlaylistFetched = boolPtr(false)
		source.PlaylistError = err.Error()
		source.StorageType = storageDirectContent
		return
	}

	source.PlaylistUrl = entry.URL
	source.PlaylistFilename = key
	source.PlaylistFetched = boolPtr(true)
	source.PlaylistSize = entry.SizeBytes
	source.StorageType = m.cache.StorageType()
	if source.StorageType == blobstore.KindVercel {
		source.PlaylistPathname = entry.Pathname
	}
}

func (m *ModuleCtx) cachedSource(entry *playlistcache.Entry) Source {
	source := Source{
		EmbedID:          "cached",
		StreamID:         "cached",
		Quality:          unknown,
		Type:             "hls",
		PlaylistUrl:      entry.URL,
		PlaylistFilename: entry.Key,
		PlaylistFetched:  boolPtr(true),
		StorageType:      m.cache.StorageType(),
		FromCache:        boolPtr(true),
	}

	if source.StorageType == blobstore.KindVercel {
		source.PlaylistPathname = entry.Pathname
	}

	return source
}
