package provider

// GeminiProvider implements Provider for Google Gemini (audio understanding and generation)
type GeminiProvider struct{}

func (p *GeminiProvider) Name() string {
	return ProviderGemini
}

func (p *GeminiProvider) RequiresAPIKey() bool {
	return true
}

func (p *GeminiProvider) ValidateAPIKey(key string) bool {
	return len(key) > 0
}

func (p *GeminiProvider) IsLocal() bool {
	return false
}

func (p *GeminiProvider) Models() []Model {
	endpoint := &EndpointConfig{BaseURL: "https://generativelanguage.googleapis.com", Path: "/v1beta/models"}

	return []Model{
		{
			ID:          "gemini-2.5-flash-lite",
			Name:        "Gemini 2.5 Flash Lite",
			Description: "Cheapest audio transcription",
			Type:        Transcription,
			Endpoint:    endpoint,
		},
		{
			ID:          "gemini-2.5-flash",
			Name:        "Gemini 2.5 Flash",
			Description: "Balanced audio transcription",
			Type:        Transcription,
			Endpoint:    endpoint,
		},
		{
			ID:          "gemini-2.5-flash",
			Name:        "Gemini 2.5 Flash",
			Description: "Fast generation with large context",
			Type:        Generation,
			Endpoint:    endpoint,
		},
		{
			ID:          "gemini-2.5-pro",
			Name:        "Gemini 2.5 Pro",
			Description: "Most capable Gemini model",
			Type:        Generation,
			Endpoint:    endpoint,
		},
	}
}

func (p *GeminiProvider) DefaultModel(t ModelType, tier Tier) string {
	switch t {
	case Transcription:
		if tier == TierFast {
			return "gemini-2.5-flash-lite"
		}
		return "gemini-2.5-flash"
	case Generation:
		return "gemini-2.5-flash"
	}
	return ""
}
