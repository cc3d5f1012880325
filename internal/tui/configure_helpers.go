package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/soapscribe/internal/config"
	"github.com/leonardotrapani/soapscribe/internal/language"
)

func formatProvidersLabel(cfg *config.Config) string {
	configured := getConfiguredProviders(cfg)
	if len(configured) == 0 {
		return "Providers"
	}
	return fmt.Sprintf("Providers (%s)", strings.Join(configured, ", "))
}

// formatLanguageMenuLabel shows the current language setting
func formatLanguageMenuLabel(cfg *config.Config) string {
	if cfg.Transcription.Language == "" {
		return "Language (Auto-detect)"
	}
	return fmt.Sprintf("Language (%s)", language.FromCode(cfg.Transcription.Language).Name)
}

func formatTranscriptionLabel(cfg *config.Config) string {
	return fmt.Sprintf("Transcription (%s, %s)", cfg.Transcription.Provider, cfg.Transcription.Tier)
}

func formatGenerationLabel(cfg *config.Config) string {
	return fmt.Sprintf("Note Generation (%s, template %s)", cfg.Generation.Provider, cfg.Generation.Template)
}

func formatKeywordsLabel(cfg *config.Config) string {
	if len(cfg.Keywords) == 0 {
		return "Keywords"
	}
	return fmt.Sprintf("Keywords (%d)", len(cfg.Keywords))
}

func inputKeywords(existing []string) ([]string, error) {
	keywordsInput := strings.Join(existing, ", ")

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Keywords").
				Description("Comma-separated terms to help transcription spelling (drug names, clinician names)").
				Placeholder("e.g., metoprolol, lisinopril, Dr. Haddad").
				Value(&keywordsInput),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return nil, err
	}
	return parseKeywords(keywordsInput), nil
}

func parseKeywords(input string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keywords = append(keywords, p)
		}
	}
	return keywords
}

// summaryLines renders the configuration summary as label/value pairs
func summaryLines(cfg *config.Config) [][2]string {
	lines := [][2]string{
		{"Providers:", strings.Join(getConfiguredProviders(cfg), ", ")},
		{"Transcription:", fmt.Sprintf("%s (tier %s)", cfg.Transcription.Provider, cfg.Transcription.Tier)},
	}
	if m := cfg.Transcription.Models; m.Fast != "" || m.Accurate != "" {
		lines = append(lines, [2]string{"Models:", fmt.Sprintf("fast=%s accurate=%s", orDefault(m.Fast), orDefault(m.Accurate))})
	}
	lang := "auto-detect"
	if cfg.Transcription.Language != "" {
		lang = language.FromCode(cfg.Transcription.Language).Name
	}
	lines = append(lines,
		[2]string{"Language:", lang},
		[2]string{"Generation:", fmt.Sprintf("%s (%s, temperature %g)", cfg.Generation.Provider, orDefault(cfg.Generation.Model), cfg.Generation.Temperature)},
		[2]string{"Template:", cfg.Generation.Template},
		[2]string{"Note order:", cfg.Notes.Order},
		[2]string{"Database:", cfg.Storage.Path},
		[2]string{"Server:", cfg.Server.Addr},
	)
	if len(cfg.Keywords) > 0 {
		lines = append(lines, [2]string{"Keywords:", strings.Join(cfg.Keywords, ", ")})
	}
	return lines
}

func orDefault(s string) string {
	if s == "" {
		return "default"
	}
	return s
}

func showSummary(cfg *config.Config) (bool, error) {
	fmt.Println()
	fmt.Println(StyleHeader.Render("Configuration Summary"))
	fmt.Println()
	for _, line := range summaryLines(cfg) {
		fmt.Printf("  %s %s\n", StyleLabel.Render(line[0]), line[1])
	}
	fmt.Println()

	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save this configuration?").
				Affirmative("Save").
				Negative("Cancel").
				Value(&confirmed),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}
