package config

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type Provider struct {
	Url        string
	StaticFile string
	Timeout    time.Duration
}

func (Provider) Init(cmd *cobra.Command) error {
	cmd.PersistentFlags().String("provider.url", "", "URL of content resolver accepting media as JSON")
	if err := viper.BindPFlag("provider.url", cmd.PersistentFlags().Lookup("provider.url")); err != nil {
		return err
	}

	cmd.PersistentFlags().String("provider.static-file", "", "YAML file with static stream sources, used instead of resolver")
	if err := viper.BindPFlag("provider.static-file", cmd.PersistentFlags().Lookup("provider.static-file")); err != nil {
		return err
	}

	cmd.PersistentFlags().Duration("provider.timeout", 60*time.Second, "how long can resolving take")
	if err := viper.BindPFlag("provider.timeout", cmd.PersistentFlags().Lookup("provider.timeout")); err != nil {
		return err
	}

	return nil
}

func (p *Provider) Set() {
	p.Url = viper.GetString("provider.url")
	p.StaticFile = viper.GetString("provider.static-file")
	p.Timeout = viper.GetDuration("provider.timeout")
}

type Upstream struct {
	Timeout         time.Duration
	UserAgent       string
	MaxPlaylistSize int64
}

func (Upstream) Init(cmd *cobra.Command) error {
	cmd.PersistentFlags().Duration("upstream.timeout", 15*time.Second, "timeout of upstream playlist and segment requests")
	if err := viper.BindPFlag("upstream.timeout", cmd.PersistentFlags().Lookup("upstream.timeout")); err != nil {
		return err
	}

	cmd.PersistentFlags().String("upstream.user-agent", "", "user agent sent to upstream servers")
	if err := viper.BindPFlag("upstream.user-agent", cmd.PersistentFlags().Lookup("upstream.user-agent")); err != nil {
		return err
	}

	cmd.PersistentFlags().Int64("upstream.max-playlist-size", 8<<20, "maximum accepted playlist size in bytes")
	if err := viper.BindPFlag("upstream.max-playlist-size", cmd.PersistentFlags().Lookup("upstream.max-playlist-size")); err != nil {
		return err
	}

	return nil
}

func (u *Upstream) Set() {
	u.Timeout = viper.GetDuration("upstream.timeout")
	u.UserAgent = viper.GetString("upstream.user-agent")
	u.MaxPlaylistSize = viper.GetInt64("upstream.max-playlist-size")
}
