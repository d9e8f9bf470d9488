package playlistcache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/m1k1o/go-streamgate/pkg/blobstore"
)

type ManagerCtx struct {
	logger zerolog.Logger
	config Config
	store  blobstore.Store

	memo *cache.Cache

	sweeper     bool
	sweeperMu   sync.Mutex
	sweepActive atomic.Bool
	shutdown    chan struct{}
	done        chan struct{}
	cancel      context.CancelFunc
}

func New(store blobstore.Store, config *Config) *ManagerCtx {
	m := &ManagerCtx{
		logger: log.With().Str("module", "playlistcache").Str("submodule", "manager").Logger(),
		config: config.withDefaultValues(),
		store:  store,
	}

	if m.config.LookupTTL > 0 {
		m.memo = cache.New(m.config.LookupTTL, 2*m.config.LookupTTL)
	}

	return m
}

func (m *ManagerCtx) StorageType() string {
	return m.store.Kind()
}

func (m *ManagerCtx) pathname(key string) string {
	return m.config.Namespace + key
}

// Lookup returns stored entry for given key or nil, if it does not exist.
func (m *ManagerCtx) Lookup(ctx context.Context, key string) (*Entry, error) {
	if entry, ok := m.getFromMemo(key); ok {
		return entry, nil
	}

	ctx, cancel := context.WithTimeout(ctx, m.config.StoreTimeout)
	defer cancel()

	pathname := m.pathname(key)
	res, err := m.store.List(ctx, blobstore.ListOptions{
		Prefix: pathname,
		Limit:  1,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	// prefix match, only exact pathname counts
	if len(res.Blobs) == 0 || res.Blobs[0].Pathname != pathname {
		m.logger.Debug().Str("key", key).Msg("cache miss")
		return nil, nil
	}

	entry := newEntry(key, res.Blobs[0])
	m.saveToMemo(entry)

	m.logger.Debug().Str("key", key).Str("url", entry.URL).Msg("cache hit")
	return entry, nil
}

// Store writes content under given key. It does not check whether entry already
// exists, callers are expected to Lookup first. Concurrent writers race and last
// write wins.
func (m *ManagerCtx) Store(ctx context.Context, key string, content []byte) (*Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, m.config.StoreTimeout)
	defer cancel()

	blob, err := m.store.Put(ctx, m.pathname(key), content, ContentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistFailure, err)
	}

	entry := newEntry(key, *blob)
	entry.SizeBytes = int64(len(content))
	m.saveToMemo(entry)

	m.logger.Info().
		Str("key", key).
		Str("url", entry.URL).
		Str("size", humanize.Bytes(uint64(entry.SizeBytes))).
		Msg("playlist stored")

	return entry, nil
}

func newEntry(key string, blob blobstore.Blob) *Entry {
	return &Entry{
		Key:       key,
		Pathname:  blob.Pathname,
		URL:       blob.URL,
		SizeBytes: blob.Size,
		CreatedAt: blob.UploadedAt,
	}
}
