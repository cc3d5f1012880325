package tui

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/soapscribe/internal/config"
	"github.com/leonardotrapani/soapscribe/internal/provider"
)

// editTranscription handles provider, tier and per-tier model selection
func editTranscription(cfg *config.Config, configured []string) ([]string, error) {
	providerOptions := transcriptionProviderOptions(configured)

	selectedProvider := cfg.Transcription.Provider
	if selectedProvider == "" && len(providerOptions) > 0 {
		selectedProvider = providerOptions[0].Value
	}
	selectedTier := cfg.Transcription.Tier
	if selectedTier == "" {
		selectedTier = string(provider.TierAccurate)
	}

	providerDesc := "Choose which service turns visit recordings into text"
	if cfg.Transcription.Provider != "" {
		providerDesc = fmt.Sprintf("Currently: %s", cfg.Transcription.Provider)
	}

	providerForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Transcription Provider").
				Description(providerDesc).
				Options(providerOptions...).
				Value(&selectedProvider),
			huh.NewSelect[string]().
				Title("Default Tier").
				Description("Requests may override this per recording").
				Options(tierOptions()...).
				Value(&selectedTier),
		),
	).WithTheme(getTheme())

	if err := providerForm.Run(); err != nil {
		return configured, err
	}

	configured = ensureProviderConfigured(cfg, selectedProvider, configured)
	if selectedProvider != cfg.Transcription.Provider {
		// models from the previous provider no longer apply
		cfg.Transcription.Models = config.TierModels{}
	}
	cfg.Transcription.Provider = selectedProvider
	cfg.Transcription.Tier = selectedTier

	fastModel := cfg.Transcription.Models.Fast
	accurateModel := cfg.Transcription.Models.Accurate

	modelForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Fast Tier Model").
				Options(transcriptionModelOptions(selectedProvider, provider.TierFast, fastModel)...).
				Value(&fastModel),
			huh.NewSelect[string]().
				Title("Accurate Tier Model").
				Options(transcriptionModelOptions(selectedProvider, provider.TierAccurate, accurateModel)...).
				Value(&accurateModel),
		),
	).WithTheme(getTheme())

	if err := modelForm.Run(); err != nil {
		return configured, err
	}

	cfg.Transcription.Models.Fast = fastModel
	cfg.Transcription.Models.Accurate = accurateModel
	return configured, nil
}

// transcriptionProviderOptions lists transcription providers, marking the
// ones that still need a key
func transcriptionProviderOptions(configured []string) []huh.Option[string] {
	isConfigured := make(map[string]bool, len(configured))
	for _, name := range configured {
		isConfigured[name] = true
	}

	var options []huh.Option[string]
	for _, name := range provider.ListProvidersFor(provider.Transcription) {
		label := getProviderDisplayName(name)
		if p := provider.GetProvider(name); p != nil && p.RequiresAPIKey() && !isConfigured[name] {
			label += " (not configured)"
		}
		options = append(options, huh.NewOption(label, name))
	}
	return options
}

func tierOptions() []huh.Option[string] {
	return []huh.Option[string]{
		huh.NewOption("Accurate - best quality for clinical notes", string(provider.TierAccurate)),
		huh.NewOption("Fast - lower latency", string(provider.TierFast)),
	}
}

// transcriptionModelOptions lists a provider's transcription models with the
// tier default first as an empty value, so the config keeps following the default
func transcriptionModelOptions(providerName string, tier provider.Tier, current string) []huh.Option[string] {
	p := provider.GetProvider(providerName)
	if p == nil {
		return nil
	}

	defaultLabel := fmt.Sprintf("Provider default (%s)", p.DefaultModel(provider.Transcription, tier))
	if current == "" {
		defaultLabel += " (current)"
	}
	options := []huh.Option[string]{huh.NewOption(defaultLabel, "")}

	for _, m := range provider.ModelsOfType(p, provider.Transcription) {
		label := m.ID
		if m.Description != "" {
			label = fmt.Sprintf("%s - %s", m.ID, m.Description)
		}
		if m.Local && m.LocalInfo != nil {
			label += fmt.Sprintf(" [%s]", m.LocalInfo.Size)
		}
		if m.ID == current {
			label += " (current)"
		}
		options = append(options, huh.NewOption(label, m.ID))
	}
	return options
}
