package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/soapscribe/internal/config"
	"github.com/leonardotrapani/soapscribe/internal/llm"
	"github.com/leonardotrapani/soapscribe/internal/notes"
	"github.com/leonardotrapani/soapscribe/internal/provider"
	"github.com/leonardotrapani/soapscribe/internal/templates"
)

// editGeneration configures note generation, the default template and note order
func editGeneration(cfg *config.Config, configured []string) ([]string, error) {
	selectedProvider := cfg.Generation.Provider
	if selectedProvider == "" {
		selectedProvider = provider.ProviderOpenAI
	}

	providerForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Note Generation Provider").
				Description("Model that turns transcripts into SOAP notes").
				Options(generationProviderOptions(configured)...).
				Value(&selectedProvider),
		),
	).WithTheme(getTheme())

	if err := providerForm.Run(); err != nil {
		return configured, err
	}

	configured = ensureProviderConfigured(cfg, selectedProvider, configured)
	if selectedProvider != cfg.Generation.Provider {
		cfg.Generation.Model = ""
	}
	cfg.Generation.Provider = selectedProvider

	model := cfg.Generation.Model
	temperature := strconv.FormatFloat(cfg.Generation.Temperature, 'f', -1, 64)
	template := cfg.Generation.Template
	analysisProvider := cfg.Analysis.Provider
	order := cfg.Notes.Order
	if order == "" {
		order = string(notes.OldestFirst)
	}

	registry, err := templates.NewDefaultRegistry(nil)
	if err != nil {
		return configured, err
	}
	if cfg.Templates.Dir != "" {
		// a broken user template should not block configuration
		_, _ = registry.LoadDir(cfg.Templates.Dir)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Model").
				Options(generationModelOptions(selectedProvider, model)...).
				Value(&model),
			huh.NewInput().
				Title("Temperature").
				Description("0 keeps notes reproducible; other values are logged as a deviation").
				Value(&temperature).
				Validate(validateTemperature),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default Template").
				Description("Requests may name another template or pin a version").
				Options(templateOptions(registry, template)...).
				Value(&template),
			huh.NewSelect[string]().
				Title("Note Order").
				Description("Order of a patient's notes in listings and case analysis").
				Options(orderOptions()...).
				Value(&order),
			huh.NewSelect[string]().
				Title("Case Analysis Provider").
				Description("Model that reviews all notes of a patient").
				Options(analysisProviderOptions(analysisProvider)...).
				Value(&analysisProvider),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return configured, err
	}

	cfg.Generation.Model = model
	cfg.Generation.Temperature, _ = strconv.ParseFloat(temperature, 64)
	cfg.Generation.Template = template
	cfg.Notes.Order = order
	if analysisProvider != cfg.Analysis.Provider {
		cfg.Analysis.Model = ""
	}
	cfg.Analysis.Provider = analysisProvider
	if analysisProvider != "" {
		configured = ensureProviderConfigured(cfg, analysisProvider, configured)
	}
	return configured, nil
}

func generationProviderOptions(configured []string) []huh.Option[string] {
	isConfigured := make(map[string]bool, len(configured))
	for _, name := range configured {
		isConfigured[name] = true
	}

	var options []huh.Option[string]
	for _, name := range llm.Providers() {
		label := getProviderDisplayName(name)
		if !isConfigured[name] {
			label += " (not configured)"
		}
		options = append(options, huh.NewOption(label, name))
	}
	return options
}

// generationModelOptions lists generation models, with "" standing for the provider default
func generationModelOptions(providerName, current string) []huh.Option[string] {
	defaultLabel := fmt.Sprintf("Provider default (%s)", llm.DefaultModel(providerName))
	if current == "" {
		defaultLabel += " (current)"
	}
	options := []huh.Option[string]{huh.NewOption(defaultLabel, "")}

	p := provider.GetProvider(providerName)
	if p == nil {
		return options
	}
	for _, m := range provider.ModelsOfType(p, provider.Generation) {
		label := m.ID
		if m.Description != "" {
			label = fmt.Sprintf("%s - %s", m.ID, m.Description)
		}
		if m.ID == current {
			label += " (current)"
		}
		options = append(options, huh.NewOption(label, m.ID))
	}
	return options
}

// templateOptions offers "<id>" (latest) for every template id plus each
// pinned "<id>@<version>"
func templateOptions(registry *templates.Registry, current string) []huh.Option[string] {
	var options []huh.Option[string]
	seen := make(map[string]bool)
	for _, t := range registry.List() {
		if !seen[t.ID] {
			seen[t.ID] = true
			options = append(options, huh.NewOption(markCurrent(fmt.Sprintf("%s (latest) - %s", t.ID, t.Title), t.ID, current), t.ID))
		}
		key := t.Key()
		options = append(options, huh.NewOption(markCurrent(fmt.Sprintf("%s (pinned)", key), key, current), key))
	}
	return options
}

// analysisProviderOptions offers "" for reusing the generation provider
func analysisProviderOptions(current string) []huh.Option[string] {
	options := []huh.Option[string]{huh.NewOption(markCurrent("Same as note generation", "", current), "")}
	for _, name := range llm.Providers() {
		options = append(options, huh.NewOption(markCurrent(getProviderDisplayName(name), name, current), name))
	}
	return options
}

func orderOptions() []huh.Option[string] {
	return []huh.Option[string]{
		huh.NewOption("Oldest first", string(notes.OldestFirst)),
		huh.NewOption("Newest first", string(notes.NewestFirst)),
	}
}

func markCurrent(label, value, current string) string {
	if value == current {
		return label + " (current)"
	}
	return label
}

func validateTemperature(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if v < 0 || v > 2 {
		return fmt.Errorf("must be between 0 and 2")
	}
	return nil
}
