package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/m1k1o/go-streamgate/internal/config"
)

const (
	// searched for config.yaml on linux, after explicit --config
	defCfgPath = "/etc/streamgate/"
	// STREAMGATE_CACHE_RETENTION maps to cache.retention
	envPrefix = "STREAMGATE"
)

var rootCmd = &cobra.Command{
	Use:     "streamgate",
	Short:   "Streamgate server CLI.",
	Long:    `Streamgate HTTP gateway caching HLS playlists of resolved movies and shows.`,
	Version: "1.0.0",
}

// called after configuration is read and every time config file changes
var onConfigLoad []func()

func init() {
	var cfgFile string
	var logging logConfig

	cobra.OnInitialize(func() {
		initConfiguration(cfgFile)

		logging.Set()
		initLogging(logging)

		if file := viper.ConfigFileUsed(); file != "" {
			watchConfiguration()
			log.Info().Str("config", file).Msg("preflight complete with config file")
		} else {
			log.Warn().Msg("preflight complete without config file")
		}

		loadConfiguration()
	})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "configuration file path")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	_ = logging.Init(rootCmd)
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfiguration(cfgFile string) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		if runtime.GOOS == "linux" {
			viper.AddConfigPath(defCfgPath)
		}
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// unprefixed variables of older deployments, lowest priority
	config.SetLegacyDefaults()

	// missing config file is fine unless it was requested explicitly
	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
}

func watchConfiguration() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		log.Info().Str("file", e.Name).Str("op", e.Op.String()).Msg("config file reloaded")
		loadConfiguration()
	})

	viper.WatchConfig()
}

func loadConfiguration() {
	for _, load := range onConfigLoad {
		load()
	}
}
