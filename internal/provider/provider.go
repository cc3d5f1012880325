package provider

import (
	"fmt"
	"sort"
)

// Provider describes a transcription and/or generation service
type Provider interface {
	Name() string
	RequiresAPIKey() bool
	ValidateAPIKey(key string) bool
	IsLocal() bool
	Models() []Model
	// DefaultModel returns the model used for a type and tier, "" if unsupported.
	// Generation models ignore the tier.
	DefaultModel(t ModelType, tier Tier) string
}

var registry = make(map[string]Provider)

func init() {
	Register(&OpenAIProvider{})
	Register(&GroqProvider{})
	Register(&ElevenLabsProvider{})
	Register(&WhisperCppProvider{})
	Register(&GeminiProvider{})
}

// Register adds a provider to the registry
func Register(p Provider) {
	registry[p.Name()] = p
}

// GetProvider returns a provider by name, or nil if not found
func GetProvider(name string) Provider {
	return registry[name]
}

// ListProviders returns all registered provider names, sorted
func ListProviders() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListProvidersFor returns sorted provider names offering models of type t
func ListProvidersFor(t ModelType) []string {
	var names []string
	for name, p := range registry {
		if len(ModelsOfType(p, t)) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ModelsOfType filters a provider's models by type
func ModelsOfType(p Provider, t ModelType) []Model {
	var out []Model
	for _, m := range p.Models() {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

// FindModel looks up a model by provider, type and id
func FindModel(providerName string, t ModelType, modelID string) (*Model, error) {
	p := GetProvider(providerName)
	if p == nil {
		return nil, fmt.Errorf("unknown provider: %s", providerName)
	}
	for _, m := range ModelsOfType(p, t) {
		if m.ID == modelID {
			return &m, nil
		}
	}
	return nil, fmt.Errorf("unknown %s model %q for provider %s", t, modelID, providerName)
}

// ResolveModel returns override when set, otherwise the provider default for t and tier
func ResolveModel(providerName string, t ModelType, tier Tier, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	p := GetProvider(providerName)
	if p == nil {
		return "", fmt.Errorf("unknown provider: %s", providerName)
	}
	id := p.DefaultModel(t, tier)
	if id == "" {
		return "", fmt.Errorf("provider %s has no %s models", providerName, t)
	}
	return id, nil
}
