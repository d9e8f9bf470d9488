package playlistcache

import (
	"context"
	"strings"
	"time"
)

const ContentType = "application/vnd.apple.mpegurl"

type Config struct {
	Namespace    string        // pathname prefix of all entries
	StoreTimeout time.Duration // how long can single backing store call take
	LookupTTL    time.Duration // how long is known location kept in memory, 0 disables memo

	SweepInterval   time.Duration // how often should be retention sweep called
	SweepOnStart    bool          // run sweep immediately when sweeper starts
	Retention       time.Duration // how long should be entries kept in store
	SweepPageSize   int           // how many entries are listed at once
	SweepDeleteRate float64       // maximum deletes per second, 0 means unlimited

	Clock func() time.Time // optional: time.Now will be used if nil
}

func (c Config) withDefaultValues() Config {
	if c.Namespace == "" {
		c.Namespace = "playlists/"
	}
	// ensure it ends with single /
	c.Namespace = strings.TrimRight(c.Namespace, "/") + "/"
	if c.StoreTimeout == 0 {
		c.StoreTimeout = 10 * time.Second
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = 15 * 24 * time.Hour
	}
	if c.Retention == 0 {
		c.Retention = 24 * time.Hour
	}
	if c.SweepPageSize == 0 {
		c.SweepPageSize = 1000
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	return c
}

// Entry describes one stored manifest.
type Entry struct {
	Key       string    `json:"key"`
	Pathname  string    `json:"pathname"`
	URL       string    `json:"url"` // remote URL or server relative path
	SizeBytes int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

type SweepReport struct {
	RunID   string
	Cutoff  time.Time
	Listed  int
	Expired int
	Deleted int
	Failed  int
	Err     error // all errors that occured during sweep
}

type Manager interface {
	StorageType() string

	Lookup(ctx context.Context, key string) (*Entry, error)
	Store(ctx context.Context, key string, content []byte) (*Entry, error)

	Sweep(ctx context.Context) (*SweepReport, error)
	StartSweeper()
	Shutdown()
}
