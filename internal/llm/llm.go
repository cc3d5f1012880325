// Package llm provides the text generation providers used to draft and
// analyze notes. Every provider implements Generator; the one in use is
// selected by name from configuration.
package llm

import (
	"context"
	"fmt"
	"sort"

	"github.com/leonardotrapani/soapscribe/internal/logger"
	"github.com/leonardotrapani/soapscribe/internal/provider"
)

// Request is one non-streaming generation call
type Request struct {
	System      string
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int // 0 leaves the provider default
}

// Generator produces text for a prompt
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Config holds generation provider configuration
type Config struct {
	Provider string
	APIKey   string
	BaseURL  string // empty uses the provider's public endpoint
}

// Factory builds a Generator for a config
type Factory func(ctx context.Context, cfg Config, log *logger.Logger) (Generator, error)

var factories = map[string]Factory{
	provider.ProviderOpenAI: func(_ context.Context, cfg Config, log *logger.Logger) (Generator, error) {
		return NewOpenAIGenerator(cfg.APIKey, cfg.BaseURL, log), nil
	},
	provider.ProviderGroq: func(_ context.Context, cfg Config, log *logger.Logger) (Generator, error) {
		return NewGroqGenerator(cfg.APIKey, cfg.BaseURL, log), nil
	},
	provider.ProviderGemini: func(ctx context.Context, cfg Config, log *logger.Logger) (Generator, error) {
		return NewGeminiGenerator(ctx, cfg.APIKey, cfg.BaseURL, log)
	},
}

// Providers returns the names of the generation providers, sorted
func Providers() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewGenerator creates the generator for cfg.Provider
func NewGenerator(ctx context.Context, cfg Config, log *logger.Logger) (Generator, error) {
	if log == nil {
		log = logger.Nop()
	}
	factory, ok := factories[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported generation provider: %s", cfg.Provider)
	}
	if p := provider.GetProvider(cfg.Provider); p != nil && p.RequiresAPIKey() && cfg.APIKey == "" {
		return nil, fmt.Errorf("%s API key required", cfg.Provider)
	}
	return factory(ctx, cfg, log.Named("llm"))
}

// DefaultModel returns the provider's default generation model
func DefaultModel(providerName string) string {
	if p := provider.GetProvider(providerName); p != nil {
		return p.DefaultModel(provider.Generation, provider.TierAccurate)
	}
	return ""
}
