package provider

// Provider name constants for config and registry
const (
	ProviderOpenAI     = "openai"
	ProviderGroq       = "groq"
	ProviderElevenLabs = "elevenlabs"
	ProviderWhisperCpp = "whisper-cpp"
	ProviderGemini     = "gemini"
)

// Environment variable names for API keys
const (
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvGroqKey       = "GROQ_API_KEY"
	EnvElevenLabsKey = "ELEVENLABS_API_KEY"
	EnvGeminiKey     = "GEMINI_API_KEY"
)

// EnvVarForProvider returns the environment variable name for a provider's API key
func EnvVarForProvider(name string) string {
	switch name {
	case ProviderOpenAI:
		return EnvOpenAIKey
	case ProviderGroq:
		return EnvGroqKey
	case ProviderElevenLabs:
		return EnvElevenLabsKey
	case ProviderGemini:
		return EnvGeminiKey
	default:
		return ""
	}
}
