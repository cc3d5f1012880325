package provider

import "fmt"

// ModelType represents the type of a model
type ModelType int

const (
	Transcription ModelType = iota
	Generation
)

func (t ModelType) String() string {
	switch t {
	case Transcription:
		return "transcription"
	case Generation:
		return "generation"
	}
	return "unknown"
}

// Tier selects the speed/accuracy trade-off for transcription
type Tier string

const (
	TierFast     Tier = "fast"
	TierAccurate Tier = "accurate"
)

// ParseTier parses a tier name; empty means accurate
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case "":
		return TierAccurate, nil
	case TierFast, TierAccurate:
		return Tier(s), nil
	}
	return "", fmt.Errorf("invalid tier: %q (must be fast or accurate)", s)
}

// Model represents a model with full metadata
type Model struct {
	ID                 string          // unique identifier (e.g., "whisper-1", "gpt-4o")
	Name               string          // display name
	Description        string          // short description
	Type               ModelType       // transcription or generation
	Local              bool            // runs locally (no API call)
	VerboseJSON        bool            // transcription response carries segment log-probabilities
	SupportedLanguages []string        // explicit list of language codes, nil means any
	Endpoint           *EndpointConfig // nil for local models
	LocalInfo          *LocalModelInfo // nil for cloud models
}

// EndpointConfig holds HTTP endpoint configuration
type EndpointConfig struct {
	BaseURL string // e.g., "https://api.openai.com"
	Path    string // e.g., "/v1/audio/transcriptions"
}

// URL joins base and path
func (e *EndpointConfig) URL() string {
	return e.BaseURL + e.Path
}

// LocalModelInfo holds metadata for downloadable local models
type LocalModelInfo struct {
	Filename    string // e.g., "ggml-base.en.bin"
	Size        string // human readable size (e.g., "142MB")
	DownloadURL string // full URL to download from
}

// SupportsLanguage returns true if the model supports the given language code.
// Auto-detect (empty string) is always supported.
func (m *Model) SupportsLanguage(code string) bool {
	if code == "" || m.SupportedLanguages == nil {
		return true
	}
	for _, supported := range m.SupportedLanguages {
		if supported == code {
			return true
		}
	}
	return false
}
