package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type HttpConfig struct {
	Url     string // resolver endpoint accepting media as JSON
	Timeout time.Duration

	Client *http.Client // optional
}

func (c HttpConfig) withDefaultValues() HttpConfig {
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	if c.Client == nil {
		c.Client = http.DefaultClient
	}
	return c
}

// HttpProvider delegates resolving to external resolver service.
type HttpProvider struct {
	logger zerolog.Logger
	config HttpConfig
}

func NewHttp(config *HttpConfig) *HttpProvider {
	return &HttpProvider{
		logger: log.With().Str("module", "provider").Str("submodule", "http").Logger(),
		config: config.withDefaultValues(),
	}
}

func (p *HttpProvider) Resolve(ctx context.Context, media Media) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	body, err := json.Marshal(map[string]Media{"media": media})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.Url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	p.logger.Debug().Interface("media", media).Msg("resolving media")

	resp, err := p.config.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resolver unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("resolver returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	output := &Output{}
	if err := json.NewDecoder(resp.Body).Decode(output); err != nil {
		return nil, fmt.Errorf("invalid resolver response: %w", err)
	}

	p.logger.Debug().
		Bool("stream", output.Stream != nil).
		Int("embeds", len(output.Embeds)).
		Msg("media resolved")

	return output, nil
}

func (p *HttpProvider) Info() Info {
	return Info{
		Message:     "Resolver provider is working!",
		Target:      p.config.Url,
		Description: "HTTP resolver client initialized",
	}
}
