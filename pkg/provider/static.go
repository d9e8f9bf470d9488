package provider

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"
)

// StaticProvider serves streams from YAML file, keys are tmdb id for
// movies and {tmdbId}:s{season}e{episode} for show episodes.
type StaticProvider struct {
	logger zerolog.Logger
	path   string

	mu      sync.RWMutex
	sources map[string]Output
}

func NewStatic(path string) (*StaticProvider, error) {
	p := &StaticProvider{
		logger: log.With().Str("module", "provider").Str("submodule", "static").Logger(),
		path:   path,
	}

	if err := p.Reload(); err != nil {
		return nil, err
	}

	return p, nil
}

// Reload reads sources file again.
func (p *StaticProvider) Reload() error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return err
	}

	sources := map[string]Output{}
	if err := yaml.Unmarshal(data, &sources); err != nil {
		return fmt.Errorf("unable to parse %s: %w", p.path, err)
	}

	p.mu.Lock()
	p.sources = sources
	p.mu.Unlock()

	p.logger.Info().Str("path", p.path).Int("sources", len(sources)).Msg("static sources loaded")
	return nil
}

func (p *StaticProvider) Resolve(ctx context.Context, media Media) (*Output, error) {
	key := mediaKey(media)

	p.mu.RLock()
	output, ok := p.sources[key]
	p.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	return &output, nil
}

func (p *StaticProvider) Info() Info {
	return Info{
		Message:     "Static provider is working!",
		Target:      p.path,
		Description: "Static sources file loaded",
	}
}
