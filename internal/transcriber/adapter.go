package transcriber

import (
	"context"
	"fmt"

	"github.com/leonardotrapani/soapscribe/internal/provider"
)

// NewAdapter creates the adapter for cfg.Provider
func NewAdapter(ctx context.Context, cfg Config) (Adapter, error) {
	p := provider.GetProvider(cfg.Provider)
	if p == nil {
		return nil, fmt.Errorf("unsupported transcription provider: %s", cfg.Provider)
	}
	if p.RequiresAPIKey() && cfg.APIKey == "" {
		return nil, fmt.Errorf("%s API key required (set %s)", cfg.Provider, provider.EnvVarForProvider(cfg.Provider))
	}

	switch cfg.Provider {
	case provider.ProviderOpenAI:
		return NewOpenAIAdapter(cfg.APIKey, cfg.BaseURL), nil
	case provider.ProviderGroq:
		return NewGroqAdapter(cfg.APIKey, cfg.BaseURL), nil
	case provider.ProviderElevenLabs:
		return NewElevenLabsAdapter(endpointFor(cfg), cfg.APIKey, cfg.Keywords), nil
	case provider.ProviderWhisperCpp:
		return NewWhisperCppAdapter(cfg.WhisperBinary, cfg.WhisperModelsDir, cfg.Threads), nil
	case provider.ProviderGemini:
		return NewGeminiAdapter(ctx, cfg.APIKey, cfg.BaseURL, cfg.Keywords)
	}
	return nil, fmt.Errorf("provider %s does not offer transcription", cfg.Provider)
}

func endpointFor(cfg Config) *provider.EndpointConfig {
	p := provider.GetProvider(cfg.Provider)
	var endpoint provider.EndpointConfig
	for _, m := range provider.ModelsOfType(p, provider.Transcription) {
		if m.Endpoint != nil {
			endpoint = *m.Endpoint
			break
		}
	}
	if cfg.BaseURL != "" {
		endpoint.BaseURL = cfg.BaseURL
	}
	return &endpoint
}
