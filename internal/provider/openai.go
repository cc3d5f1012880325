package provider

import "strings"

// OpenAIProvider implements Provider for OpenAI services
type OpenAIProvider struct{}

func (p *OpenAIProvider) Name() string {
	return ProviderOpenAI
}

func (p *OpenAIProvider) RequiresAPIKey() bool {
	return true
}

func (p *OpenAIProvider) ValidateAPIKey(key string) bool {
	return strings.HasPrefix(key, "sk-")
}

func (p *OpenAIProvider) IsLocal() bool {
	return false
}

func (p *OpenAIProvider) Models() []Model {
	transcribe := &EndpointConfig{BaseURL: "https://api.openai.com", Path: "/v1/audio/transcriptions"}
	chat := &EndpointConfig{BaseURL: "https://api.openai.com", Path: "/v1/chat/completions"}

	return []Model{
		{
			ID:          "whisper-1",
			Name:        "Whisper 1",
			Description: "Production speech-to-text with segment confidence",
			Type:        Transcription,
			VerboseJSON: true,
			Endpoint:    transcribe,
		},
		{
			ID:          "gpt-4o-mini-transcribe",
			Name:        "GPT-4o Mini Transcribe",
			Description: "Fast, low cost transcription",
			Type:        Transcription,
			Endpoint:    transcribe,
		},
		{
			ID:          "gpt-4o-transcribe",
			Name:        "GPT-4o Transcribe",
			Description: "Highest accuracy transcription",
			Type:        Transcription,
			Endpoint:    transcribe,
		},
		{
			ID:          "gpt-4o",
			Name:        "GPT-4o",
			Description: "Most capable GPT-4 model",
			Type:        Generation,
			Endpoint:    chat,
		},
		{
			ID:          "gpt-4o-mini",
			Name:        "GPT-4o Mini",
			Description: "Fast and affordable GPT-4 variant",
			Type:        Generation,
			Endpoint:    chat,
		},
		{
			ID:          "gpt-4.1",
			Name:        "GPT-4.1",
			Description: "Long context instruction following",
			Type:        Generation,
			Endpoint:    chat,
		},
	}
}

func (p *OpenAIProvider) DefaultModel(t ModelType, tier Tier) string {
	switch t {
	case Transcription:
		if tier == TierFast {
			return "gpt-4o-mini-transcribe"
		}
		return "gpt-4o-transcribe"
	case Generation:
		return "gpt-4o"
	}
	return ""
}
