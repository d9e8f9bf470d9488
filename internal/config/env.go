package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// variables understood by previous deployments, without prefix
type legacyEnv struct {
	Port       string `env:"PORT"`
	BlobToken  string `env:"BLOB_READ_WRITE_TOKEN"`
	BlobApiUrl string `env:"VERCEL_BLOB_API_URL"`
}

func loadLegacyEnv() legacyEnv {
	cfg, err := env.ParseAs[legacyEnv]()
	if err != nil {
		log.Warn().Err(err).Msg("unable to parse legacy environment variables")
	}
	return cfg
}

// SetLegacyDefaults registers legacy environment variables as viper defaults,
// so flags, config file and prefixed environment still take precedence.
func SetLegacyDefaults() {
	legacy := loadLegacyEnv()

	if legacy.Port != "" {
		viper.SetDefault("bind", "0.0.0.0:"+legacy.Port)
	}
	if legacy.BlobToken != "" {
		viper.SetDefault("cache.blob-token", legacy.BlobToken)
	}
	if legacy.BlobApiUrl != "" {
		viper.SetDefault("cache.blob-api-url", legacy.BlobApiUrl)
	}
}
