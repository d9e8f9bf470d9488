package cmd

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

type logConfig struct {
	Level      string
	Console    bool
	File       string
	MaxAge     int // days
	MaxSize    int // megabytes
	MaxBackups int
}

func (logConfig) Init(cmd *cobra.Command) error {
	flags := cmd.PersistentFlags()

	flags.String("log.level", "", "log level (trace, debug, info, warn, error)")
	flags.Bool("log.console", true, "write human readable logs to stderr")
	flags.String("log.file", "", "write JSON logs to this file, rotated on SIGHUP")
	flags.Int("log.maxage", 0, "days to keep rotated log files, 0 keeps all")
	flags.Int("log.maxsize", 100, "size in MB of log file before it is rotated")
	flags.Int("log.maxbackups", 0, "number of rotated log files to keep, 0 keeps all")

	for _, name := range []string{"log.level", "log.console", "log.file", "log.maxage", "log.maxsize", "log.maxbackups"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			return err
		}
	}

	return nil
}

func (c *logConfig) Set() {
	c.Level = viper.GetString("log.level")
	c.Console = viper.GetBool("log.console")
	c.File = viper.GetString("log.file")
	c.MaxAge = viper.GetInt("log.maxage")
	c.MaxSize = viper.GetInt("log.maxsize")
	c.MaxBackups = viper.GetInt("log.maxbackups")
}

func initLogging(config logConfig) {
	var writers []io.Writer

	if config.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr})
	}

	if config.File != "" {
		file := &lumberjack.Logger{
			Filename:   config.File,
			MaxAge:     config.MaxAge,
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
		}

		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		go func() {
			for range hup {
				if err := file.Rotate(); err != nil {
					log.Err(err).Msg("unable to rotate log file")
				}
			}
		}()

		writers = append(writers, file)
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(io.MultiWriter(writers...))

	level := zerolog.InfoLevel
	if config.Level != "" {
		parsed, err := zerolog.ParseLevel(config.Level)
		if err != nil {
			log.Warn().Str("level", config.Level).Msg("unknown log level, using info")
		} else {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("level", level.String()).
		Bool("console", config.Console).
		Str("file", config.File).
		Msg("logging configured")
}
