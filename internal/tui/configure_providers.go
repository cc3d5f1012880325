package tui

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/soapscribe/internal/config"
	"github.com/leonardotrapani/soapscribe/internal/provider"
)

// providerDisplayNames maps provider IDs to human-readable names
var providerDisplayNames = map[string]string{
	provider.ProviderOpenAI:     "OpenAI",
	provider.ProviderGroq:       "Groq",
	provider.ProviderElevenLabs: "ElevenLabs",
	provider.ProviderGemini:     "Gemini",
	provider.ProviderWhisperCpp: "whisper.cpp (local)",
}

// keyedProviders returns the providers that take an API key, sorted
func keyedProviders() []string {
	var out []string
	for _, name := range provider.ListProviders() {
		if p := provider.GetProvider(name); p != nil && p.RequiresAPIKey() {
			out = append(out, name)
		}
	}
	return out
}

// getProviderDisplayName returns the display name for a provider
func getProviderDisplayName(providerName string) string {
	if name, ok := providerDisplayNames[providerName]; ok {
		return name
	}
	return providerName
}

// maskAPIKey returns a masked version of an API key for display
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:7] + "..." + key[len(key)-4:]
}

// getConfiguredProviders returns sorted providers with API keys in the config
func getConfiguredProviders(cfg *config.Config) []string {
	var providers []string
	for name, pc := range cfg.Providers {
		if pc.APIKey != "" {
			providers = append(providers, name)
		}
	}
	slices.Sort(providers)
	return providers
}

// editProviders handles the providers section with a submenu
func editProviders(cfg *config.Config, onboarding bool) error {
	exitLabel := "Done"
	if onboarding {
		exitLabel = "Next"
	}

	defaultToExit := false
	for {
		var options []huh.Option[string]
		for _, name := range keyedProviders() {
			options = append(options, huh.NewOption(formatProviderOption(cfg, name), name))
		}
		options = append(options, huh.NewOption(exitLabel, "back"))

		selected := ""
		if defaultToExit {
			selected = "back"
		}

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Provider Settings").
					Description("Select a provider to configure its API key. Keys may also come from the environment.").
					Options(options...).
					Value(&selected),
			),
		).WithTheme(getTheme())

		if err := form.Run(); err != nil {
			return err
		}
		if selected == "back" {
			return nil
		}

		apiKey, err := configureSingleProvider(cfg, selected)
		if err != nil {
			continue
		}
		if apiKey != "" {
			setAPIKey(cfg, selected, apiKey)
			defaultToExit = true
		}
	}
}

func setAPIKey(cfg *config.Config, providerName, apiKey string) {
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]config.ProviderConfig)
	}
	pc := cfg.Providers[providerName]
	pc.APIKey = apiKey
	cfg.Providers[providerName] = pc
}

// formatProviderOption formats a provider menu option with status
func formatProviderOption(cfg *config.Config, name string) string {
	status := "(not configured)"
	if pc, exists := cfg.Providers[name]; exists && pc.APIKey != "" {
		status = "(configured)"
	}

	switch name {
	case provider.ProviderOpenAI:
		return fmt.Sprintf("OpenAI - Whisper + GPT %s", status)
	case provider.ProviderGroq:
		return fmt.Sprintf("Groq - Whisper + Llama %s", status)
	case provider.ProviderElevenLabs:
		return fmt.Sprintf("ElevenLabs - Scribe %s", status)
	case provider.ProviderGemini:
		return fmt.Sprintf("Gemini - audio + notes %s", status)
	default:
		return fmt.Sprintf("%s %s", name, status)
	}
}

// configureSingleProvider asks whether to replace an existing key, then
// prompts for a new one. Returns "" when the user keeps the current key.
func configureSingleProvider(cfg *config.Config, providerName string) (string, error) {
	if pc, exists := cfg.Providers[providerName]; exists && pc.APIKey != "" {
		var update bool
		confirmForm := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("%s API Key", getProviderDisplayName(providerName))).
					Description(fmt.Sprintf("Current: %s", maskAPIKey(pc.APIKey))).
					Affirmative("Update key").
					Negative("Keep current").
					Value(&update),
			),
		).WithTheme(getTheme())

		if err := confirmForm.Run(); err != nil {
			return "", err
		}
		if !update {
			return "", nil
		}
	}

	return inputAPIKey(providerName)
}

func inputAPIKey(providerName string) (string, error) {
	p := provider.GetProvider(providerName)
	displayName := getProviderDisplayName(providerName)

	var apiKey string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("%s API Key", displayName)).
				Description(fmt.Sprintf("Enter your %s API key (or leave the config empty and set %s)", displayName, provider.EnvVarForProvider(providerName))).
				EchoMode(huh.EchoModePassword).
				Value(&apiKey).
				Validate(func(s string) error {
					return validateAPIKey(p, displayName, s)
				}),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return "", err
	}
	return apiKey, nil
}

func validateAPIKey(p provider.Provider, displayName, key string) error {
	if key == "" {
		return fmt.Errorf("API key is required")
	}
	if p != nil && !p.ValidateAPIKey(key) {
		return fmt.Errorf("invalid API key format for %s", displayName)
	}
	return nil
}

// ensureProviderConfigured prompts for an API key when a selected provider
// has none. Local providers pass through.
func ensureProviderConfigured(cfg *config.Config, providerName string, configured []string) []string {
	p := provider.GetProvider(providerName)
	if p == nil || !p.RequiresAPIKey() || slices.Contains(configured, providerName) {
		return configured
	}

	apiKey, err := configureSingleProvider(cfg, providerName)
	if err != nil || apiKey == "" {
		return configured
	}
	setAPIKey(cfg, providerName, apiKey)

	out := append(slices.Clone(configured), providerName)
	slices.Sort(out)
	return out
}
