package playlists

import (
	"net/http"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/m1k1o/go-streamgate/internal/utils"
)

var resourceRegex = regexp.MustCompile(`^[0-9A-Za-z_-]+\.m3u8$`)

// ModuleCtx serves manifests saved by local store. Files are expected at
// the same path in filesystem as they are requested.
type ModuleCtx struct {
	logger     zerolog.Logger
	pathPrefix string
	fs         afero.Fs
}

func New(pathPrefix string, fs afero.Fs) *ModuleCtx {
	return &ModuleCtx{
		logger:     log.With().Str("module", "playlists").Logger(),
		pathPrefix: "/" + strings.Trim(pathPrefix, "/") + "/",
		fs:         fs,
	}
}

func (m *ModuleCtx) Shutdown() {}

func (m *ModuleCtx) Mount(r chi.Router) {
	r.Get(m.pathPrefix+"*", m.ServeHTTP)
}

func (m *ModuleCtx) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, m.pathPrefix)

	// only flat manifest names, no directories
	if !resourceRegex.MatchString(name) {
		utils.HttpError(w, http.StatusNotFound, "Route not found")
		return
	}

	file, err := m.fs.Open(m.pathPrefix + name)
	if err != nil {
		if !os.IsNotExist(err) {
			m.logger.Warn().Err(err).Str("name", name).Msg("unable to open playlist")
		}
		utils.HttpError(w, http.StatusNotFound, "Route not found")
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil || info.IsDir() {
		utils.HttpError(w, http.StatusNotFound, "Route not found")
		return
	}

	utils.CorsHeaders(w)
	w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	w.Header().Set("Cache-Control", "no-cache")

	http.ServeContent(w, r, name, info.ModTime(), file)
}
