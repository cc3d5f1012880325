package tui

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/soapscribe/internal/config"
	"github.com/leonardotrapani/soapscribe/internal/language"
	"github.com/leonardotrapani/soapscribe/internal/provider"
)

// editLanguage selects the default transcription language
func editLanguage(cfg *config.Config) error {
	selected := cfg.Transcription.Language

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Language").
				Description("Default spoken language of visit recordings").
				Options(languageOptions(selected)...).
				Filtering(true).
				Value(&selected),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	if model := incompatibleModel(cfg, selected); model != nil {
		fmt.Println()
		fmt.Println(StyleWarning.Render("Language-Model Compatibility Warning"))
		fmt.Printf("Model '%s' does not support %s.\n", model.Name, language.FromCode(selected).Name)
		fmt.Println()

		var action string
		actionForm := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("What would you like to do?").
					Options(
						huh.NewOption("Keep this language (change model later)", "keep"),
						huh.NewOption("Use Auto-detect instead", "auto"),
						huh.NewOption("Choose a different language", "retry"),
					).
					Value(&action),
			),
		).WithTheme(getTheme())

		if err := actionForm.Run(); err != nil {
			return err
		}
		switch action {
		case "auto":
			selected = ""
		case "retry":
			return editLanguage(cfg)
		}
	}

	cfg.Transcription.Language = selected
	return nil
}

func languageOptions(current string) []huh.Option[string] {
	autoLabel := "Auto-detect"
	if current == "" {
		autoLabel += " (current)"
	}
	options := []huh.Option[string]{huh.NewOption(autoLabel, "")}

	for _, lang := range language.List() {
		label := fmt.Sprintf("%s (%s)", lang.Name, lang.Code)
		if lang.Code == current {
			label += " (current)"
		}
		options = append(options, huh.NewOption(label, lang.Code))
	}
	return options
}

// incompatibleModel returns the first configured or default transcription
// model that cannot handle code, or nil
func incompatibleModel(cfg *config.Config, code string) *provider.Model {
	if code == "" {
		return nil
	}
	tiers := map[provider.Tier]string{
		provider.TierFast:     cfg.Transcription.Models.Fast,
		provider.TierAccurate: cfg.Transcription.Models.Accurate,
	}
	for _, tier := range []provider.Tier{provider.TierAccurate, provider.TierFast} {
		id, err := provider.ResolveModel(cfg.Transcription.Provider, provider.Transcription, tier, tiers[tier])
		if err != nil {
			continue
		}
		m, err := provider.FindModel(cfg.Transcription.Provider, provider.Transcription, id)
		if err == nil && !m.SupportsLanguage(code) {
			return m
		}
	}
	return nil
}
