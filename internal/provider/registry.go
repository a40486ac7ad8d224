package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/draftforge/proposal-agent/internal/config"
	agenterrors "github.com/draftforge/proposal-agent/internal/errors"
)

// Registry holds the constructed provider adapters keyed by backend name.
// Construction is all-at-startup: each adapter either exists fully
// configured or was never built.
type Registry struct {
	providers map[string]Provider
	logger    zerolog.Logger
}

// NewRegistry constructs every backend whose credentials are present.
func NewRegistry(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Registry, error) {
	r := &Registry{
		providers: make(map[string]Provider),
		logger:    logger.With().Str("component", "provider.registry").Logger(),
	}

	if cfg.OpenAIEnabled() {
		p, err := NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, logger)
		if err != nil {
			return nil, err
		}
		r.providers["openai"] = p
	}
	if cfg.AnthropicEnabled() {
		p, err := NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel, logger)
		if err != nil {
			return nil, err
		}
		r.providers["anthropic"] = p
	}
	if cfg.GeminiEnabled() {
		p, err := NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			return nil, err
		}
		r.providers["gemini"] = p
	}
	if cfg.OllamaEnabled() {
		p, err := NewOllamaProvider(cfg.OllamaHost, cfg.OllamaModel, logger)
		if err != nil {
			return nil, err
		}
		r.providers["ollama"] = p
	}

	for name := range r.providers {
		r.logger.Info().Str("provider", name).Msg("provider initialized")
	}
	return r, nil
}

// Register adds (or replaces) a provider; used by wiring and tests.
func (r *Registry) Register(p Provider) {
	r.providers[p.Name()] = p
}

// Get returns the named provider or a "not initialized" error — it never
// returns a silent no-op.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, agenterrors.ErrProviderNotInitialized)
	}
	return p, nil
}

// Names returns the configured backend names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
