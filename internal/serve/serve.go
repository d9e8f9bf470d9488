package serve

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/m1k1o/go-streamgate/internal/config"
	"github.com/m1k1o/go-streamgate/internal/server"
	"github.com/m1k1o/go-streamgate/modules"
	"github.com/m1k1o/go-streamgate/modules/api"
	"github.com/m1k1o/go-streamgate/modules/playlists"
	"github.com/m1k1o/go-streamgate/pkg/blobstore"
	"github.com/m1k1o/go-streamgate/pkg/hlsproxy"
	"github.com/m1k1o/go-streamgate/pkg/playlistcache"
	"github.com/m1k1o/go-streamgate/pkg/provider"
)

func NewCommand() *Main {
	return &Main{
		Config: &Config{
			Server:   &config.Server{},
			Cache:    &config.Cache{},
			Provider: &config.Provider{},
			Upstream: &config.Upstream{},
		},
	}
}

type Config struct {
	Server   *config.Server
	Cache    *config.Cache
	Provider *config.Provider
	Upstream *config.Upstream
}

// Configs returns all configuration sections that need to be registered.
func (c *Config) Configs() []config.Config {
	return []config.Config{c.Server, c.Cache, c.Provider, c.Upstream}
}

type Main struct {
	Config *Config

	// guards config and components against reloads while starting
	mu sync.Mutex

	logger   zerolog.Logger
	server   *server.ServerManagerCtx
	cache    *playlistcache.ManagerCtx
	provider provider.Provider
	api      *api.ModuleCtx
	modules  []modules.Module
}

func (main *Main) Preflight() {
	main.logger = log.With().Str("service", "main").Logger()
}

func (main *Main) newStore() (blobstore.Store, error) {
	config := main.Config.Cache

	if config.UseBlob() {
		main.logger.Info().Msg("using remote blob store")
		return blobstore.NewVercel(&blobstore.VercelConfig{
			Token:   config.BlobToken,
			ApiUrl:  config.BlobApiUrl,
			Timeout: config.StoreTimeout,
		}), nil
	}

	if err := os.MkdirAll(config.LocalDir, 0755); err != nil {
		return nil, err
	}

	main.logger.Info().Str("dir", config.LocalDir).Msg("remote blob store not configured, using local store")
	return blobstore.NewLocal(&blobstore.LocalConfig{
		Dir: config.LocalDir,
	}), nil
}

func (main *Main) newProvider() (provider.Provider, error) {
	config := main.Config.Provider

	if config.StaticFile != "" {
		main.logger.Info().Str("file", config.StaticFile).Msg("using static provider")

		static, err := provider.NewStatic(config.StaticFile)
		if err != nil {
			return nil, err
		}
		return static, nil
	}

	if config.Url == "" {
		main.logger.Warn().Msg("provider url not configured, every scrape will fail")
	}

	return provider.NewHttp(&provider.HttpConfig{
		Url:     config.Url,
		Timeout: config.Timeout,
	}), nil
}

func (main *Main) start() {
	main.mu.Lock()
	defer main.mu.Unlock()

	config := main.Config

	store, err := main.newStore()
	if err != nil {
		main.logger.Panic().Err(err).Msg("unable to create store")
	}

	main.provider, err = main.newProvider()
	if err != nil {
		main.logger.Panic().Err(err).Msg("unable to create provider")
	}

	main.cache = playlistcache.New(store, &playlistcache.Config{
		StoreTimeout:    config.Cache.StoreTimeout,
		LookupTTL:       config.Cache.LookupTTL,
		SweepInterval:   config.Cache.SweepInterval,
		SweepOnStart:    config.Cache.SweepOnStart,
		Retention:       config.Cache.Retention,
		SweepDeleteRate: config.Cache.SweepDeleteRate,
	})
	main.cache.StartSweeper()

	proxy := hlsproxy.New(&hlsproxy.Config{
		Timeout:         config.Upstream.Timeout,
		UserAgent:       config.Upstream.UserAgent,
		MaxPlaylistSize: config.Upstream.MaxPlaylistSize,
	})

	main.server = server.New(&server.Config{
		Bind:    config.Server.Bind,
		Static:  config.Server.Static,
		SSLCert: config.Server.Cert,
		SSLKey:  config.Server.Key,
		Proxy:   config.Server.Proxy,
		PProf:   config.Server.PProf,
		Cors:    config.Server.Cors,
	})

	main.api = api.New(main.apiConfig(), main.cache, main.provider, proxy)
	main.modules = append(main.modules, main.api)
	main.logger.Info().Msg("api registered")

	// local manifests are served by us, remote ones by blob store
	if local, ok := store.(*blobstore.LocalStore); ok {
		main.modules = append(main.modules, playlists.New("/playlists/", local.Fs()))
		main.logger.Info().Msg("playlists registered")
	}

	for _, module := range main.modules {
		main.server.Mount(module.Mount)
	}

	main.server.Start()
}

func (main *Main) apiConfig() *api.Config {
	return &api.Config{
		Proxy:     main.Config.Server.Proxy,
		PublicUrl: main.Config.Cache.PublicUrl,
		Compress:  main.Config.Server.Compress,
	}
}

func (main *Main) shutdown() {
	err := main.server.Shutdown()
	main.logger.Err(err).Msg("http manager shutdown")

	for i := len(main.modules) - 1; i >= 0; i-- {
		main.modules[i].Shutdown()
	}
	main.logger.Info().Msg("modules shutdown")

	main.cache.Shutdown()
	main.logger.Info().Msg("playlist cache shutdown")
}

// ConfigReload reads configuration again and applies it to running components.
func (main *Main) ConfigReload() {
	main.mu.Lock()
	defer main.mu.Unlock()

	for _, cfg := range main.Config.Configs() {
		cfg.Set()
	}

	if main.api != nil {
		main.api.ConfigReload(main.apiConfig())
	}

	if static, ok := main.provider.(*provider.StaticProvider); ok {
		if err := static.Reload(); err != nil {
			main.logger.Err(err).Msg("unable to reload static provider")
		}
	}
}

func (main *Main) Run(cmd *cobra.Command, args []string) {
	main.logger.Info().Msg("starting main server")
	main.start()
	main.logger.Info().Msg("main ready")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	sig := <-quit

	main.logger.Warn().Msgf("received %s, attempting graceful shutdown", sig)
	main.shutdown()
	main.logger.Info().Msg("shutdown complete")
}
