package provider

import "strings"

// GroqBaseURL is Groq's OpenAI-compatible API root
const GroqBaseURL = "https://api.groq.com/openai/v1"

// GroqProvider implements Provider for Groq services
type GroqProvider struct{}

func (p *GroqProvider) Name() string {
	return ProviderGroq
}

func (p *GroqProvider) RequiresAPIKey() bool {
	return true
}

func (p *GroqProvider) ValidateAPIKey(key string) bool {
	return strings.HasPrefix(key, "gsk_")
}

func (p *GroqProvider) IsLocal() bool {
	return false
}

func (p *GroqProvider) Models() []Model {
	transcribe := &EndpointConfig{BaseURL: "https://api.groq.com", Path: "/openai/v1/audio/transcriptions"}
	chat := &EndpointConfig{BaseURL: "https://api.groq.com", Path: "/openai/v1/chat/completions"}

	return []Model{
		{
			ID:          "whisper-large-v3",
			Name:        "Whisper Large V3",
			Description: "Best multilingual accuracy on Groq",
			Type:        Transcription,
			VerboseJSON: true,
			Endpoint:    transcribe,
		},
		{
			ID:          "whisper-large-v3-turbo",
			Name:        "Whisper Large V3 Turbo",
			Description: "Fastest Whisper on Groq",
			Type:        Transcription,
			VerboseJSON: true,
			Endpoint:    transcribe,
		},
		{
			ID:          "llama-3.3-70b-versatile",
			Name:        "Llama 3.3 70B",
			Description: "General purpose, strong instruction following",
			Type:        Generation,
			Endpoint:    chat,
		},
		{
			ID:          "llama-3.1-8b-instant",
			Name:        "Llama 3.1 8B Instant",
			Description: "Low latency, lower quality",
			Type:        Generation,
			Endpoint:    chat,
		},
	}
}

func (p *GroqProvider) DefaultModel(t ModelType, tier Tier) string {
	switch t {
	case Transcription:
		if tier == TierFast {
			return "whisper-large-v3-turbo"
		}
		return "whisper-large-v3"
	case Generation:
		return "llama-3.3-70b-versatile"
	}
	return ""
}
