package provider

// ElevenLabsProvider implements Provider for ElevenLabs services (transcription only)
type ElevenLabsProvider struct{}

func (p *ElevenLabsProvider) Name() string {
	return ProviderElevenLabs
}

func (p *ElevenLabsProvider) RequiresAPIKey() bool {
	return true
}

func (p *ElevenLabsProvider) ValidateAPIKey(key string) bool {
	// no consistent prefix
	return len(key) > 0
}

func (p *ElevenLabsProvider) IsLocal() bool {
	return false
}

func (p *ElevenLabsProvider) Models() []Model {
	endpoint := &EndpointConfig{BaseURL: "https://api.elevenlabs.io", Path: "/v1/speech-to-text"}

	return []Model{
		{
			ID:          "scribe_v1",
			Name:        "Scribe v1",
			Description: "90+ languages, lower latency",
			Type:        Transcription,
			Endpoint:    endpoint,
		},
		{
			ID:          "scribe_v2",
			Name:        "Scribe v2",
			Description: "Best batch accuracy",
			Type:        Transcription,
			Endpoint:    endpoint,
		},
	}
}

func (p *ElevenLabsProvider) DefaultModel(t ModelType, tier Tier) string {
	if t != Transcription {
		return ""
	}
	if tier == TierFast {
		return "scribe_v1"
	}
	return "scribe_v2"
}
