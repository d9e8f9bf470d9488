package blobstore

import (
	"context"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

type LocalConfig struct {
	Dir       string   // root directory, pathnames are stored relative to it
	Fs        afero.Fs // optional: os filesystem rooted at Dir will be used if nil
	UrlPrefix string   // optional: "/" will be used if empty
}

func (c LocalConfig) withDefaultValues() LocalConfig {
	if c.Fs == nil {
		c.Fs = afero.NewBasePathFs(afero.NewOsFs(), c.Dir)
	}
	// ensure it starts and ends with single /
	c.UrlPrefix = "/" + strings.Trim(c.UrlPrefix, "/")
	if c.UrlPrefix != "/" {
		c.UrlPrefix += "/"
	}
	return c
}

type LocalStore struct {
	logger zerolog.Logger
	config LocalConfig
	fs     afero.Fs
}

func NewLocal(config *LocalConfig) *LocalStore {
	c := config.withDefaultValues()

	return &LocalStore{
		logger: log.With().Str("module", "blobstore").Str("submodule", "local").Logger(),
		config: c,
		fs:     c.Fs,
	}
}

func (s *LocalStore) Kind() string {
	return KindLocal
}

// Fs exposes underlying filesystem, so that stored files can be served.
func (s *LocalStore) Fs() afero.Fs {
	return s.fs
}

func (s *LocalStore) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	dir := path.Dir(filePath(opts.Prefix + "_"))

	infos, err := afero.ReadDir(s.fs, dir)
	if os.IsNotExist(err) {
		return &ListResult{}, nil
	}
	if err != nil {
		return nil, err
	}

	result := &ListResult{}
	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if info.IsDir() || strings.HasPrefix(info.Name(), ".") {
			continue
		}

		pathname := strings.TrimPrefix(path.Join(dir, info.Name()), "/")
		if !strings.HasPrefix(pathname, opts.Prefix) {
			continue
		}

		// entries are sorted by name, cursor is last returned pathname
		if opts.Cursor != "" && pathname <= opts.Cursor {
			continue
		}

		if opts.Limit > 0 && len(result.Blobs) == opts.Limit {
			result.HasMore = true
			result.Cursor = result.Blobs[len(result.Blobs)-1].Pathname
			break
		}

		result.Blobs = append(result.Blobs, Blob{
			URL:        s.config.UrlPrefix + pathname,
			Pathname:   pathname,
			Size:       info.Size(),
			UploadedAt: info.ModTime(),
		})
	}

	return result, nil
}

func (s *LocalStore) Put(ctx context.Context, pathname string, body []byte, contentType string) (*Blob, error) {
	target := filePath(pathname)
	dir := path.Dir(target)

	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	// write to temporary file first, so that readers never see partial content
	tmp, err := afero.TempFile(s.fs, dir, ".tmp-*")
	if err != nil {
		return nil, err
	}

	_, err = tmp.Write(body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = ctx.Err()
	}
	if err == nil {
		err = s.fs.Rename(tmp.Name(), target)
	}
	if err != nil {
		_ = s.fs.Remove(tmp.Name())
		return nil, err
	}

	info, err := s.fs.Stat(target)
	if err != nil {
		return nil, err
	}

	pathname = strings.TrimPrefix(target, "/")
	s.logger.Debug().Str("pathname", pathname).Int64("size", info.Size()).Msg("file saved")

	return &Blob{
		URL:        s.config.UrlPrefix + pathname,
		Pathname:   pathname,
		Size:       info.Size(),
		UploadedAt: info.ModTime(),
	}, nil
}

func (s *LocalStore) Delete(ctx context.Context, blobUrl string) error {
	u, err := url.Parse(blobUrl)
	if err != nil {
		return err
	}

	pathname := strings.TrimPrefix(u.Path, s.config.UrlPrefix)

	err = s.fs.Remove(filePath(pathname))
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

// filePath returns cleaned absolute path that cannot escape the root.
func filePath(pathname string) string {
	return path.Clean("/" + pathname)
}
