package config

import (
	"time"

	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type Cache struct {
	BlobToken  string
	BlobApiUrl string
	LocalDir   string
	PublicUrl  string

	Retention       time.Duration
	SweepInterval   time.Duration
	SweepOnStart    bool
	SweepDeleteRate float64
	LookupTTL       time.Duration
	StoreTimeout    time.Duration
}

func (Cache) Init(cmd *cobra.Command) error {
	cmd.PersistentFlags().String("cache.blob-token", "", "read-write token of remote blob store, local store is used if empty")
	if err := viper.BindPFlag("cache.blob-token", cmd.PersistentFlags().Lookup("cache.blob-token")); err != nil {
		return err
	}

	cmd.PersistentFlags().String("cache.blob-api-url", "", "remote blob store API URL")
	if err := viper.BindPFlag("cache.blob-api-url", cmd.PersistentFlags().Lookup("cache.blob-api-url")); err != nil {
		return err
	}

	cmd.PersistentFlags().String("cache.local-dir", "", "directory of local store (default user data directory)")
	if err := viper.BindPFlag("cache.local-dir", cmd.PersistentFlags().Lookup("cache.local-dir")); err != nil {
		return err
	}

	cmd.PersistentFlags().String("cache.public-url", "", "base URL of locally served playlists (default request host)")
	if err := viper.BindPFlag("cache.public-url", cmd.PersistentFlags().Lookup("cache.public-url")); err != nil {
		return err
	}

	cmd.PersistentFlags().Duration("cache.retention", 24*time.Hour, "how long are stored playlists kept")
	if err := viper.BindPFlag("cache.retention", cmd.PersistentFlags().Lookup("cache.retention")); err != nil {
		return err
	}

	cmd.PersistentFlags().Duration("cache.sweep-interval", 360*time.Hour, "how often are expired playlists deleted")
	if err := viper.BindPFlag("cache.sweep-interval", cmd.PersistentFlags().Lookup("cache.sweep-interval")); err != nil {
		return err
	}

	cmd.PersistentFlags().Bool("cache.sweep-on-start", false, "delete expired playlists on startup")
	if err := viper.BindPFlag("cache.sweep-on-start", cmd.PersistentFlags().Lookup("cache.sweep-on-start")); err != nil {
		return err
	}

	cmd.PersistentFlags().Float64("cache.sweep-delete-rate", 10, "maximum deletes per second during sweep, 0 is unlimited")
	if err := viper.BindPFlag("cache.sweep-delete-rate", cmd.PersistentFlags().Lookup("cache.sweep-delete-rate")); err != nil {
		return err
	}

	cmd.PersistentFlags().Duration("cache.lookup-ttl", time.Minute, "how long are found playlists remembered in memory, 0 disables it")
	if err := viper.BindPFlag("cache.lookup-ttl", cmd.PersistentFlags().Lookup("cache.lookup-ttl")); err != nil {
		return err
	}

	cmd.PersistentFlags().Duration("cache.store-timeout", 10*time.Second, "timeout of single store request")
	if err := viper.BindPFlag("cache.store-timeout", cmd.PersistentFlags().Lookup("cache.store-timeout")); err != nil {
		return err
	}

	return nil
}

func (c *Cache) Set() {
	c.BlobToken = viper.GetString("cache.blob-token")
	c.BlobApiUrl = viper.GetString("cache.blob-api-url")
	c.LocalDir = viper.GetString("cache.local-dir")
	c.PublicUrl = viper.GetString("cache.public-url")

	c.Retention = viper.GetDuration("cache.retention")
	c.SweepInterval = viper.GetDuration("cache.sweep-interval")
	c.SweepOnStart = viper.GetBool("cache.sweep-on-start")
	c.SweepDeleteRate = viper.GetFloat64("cache.sweep-delete-rate")
	c.LookupTTL = viper.GetDuration("cache.lookup-ttl")
	c.StoreTimeout = viper.GetDuration("cache.store-timeout")

	c.LocalDir = localDir(c.LocalDir)
}

// UseBlob reports whether remote blob store is configured.
func (c *Cache) UseBlob() bool {
	return c.BlobToken != ""
}

func localDir(dir string) string {
	if dir == "" {
		var err error
		scope := gap.NewScope(gap.User, "streamgate")
		if dir, err = scope.DataPath(""); err != nil {
			log.Warn().Err(err).Msg("unable to find user data directory, using current directory")
			return "."
		}
		return dir
	}

	expanded, err := homedir.Expand(dir)
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("unable to expand local directory")
		return dir
	}

	return expanded
}
