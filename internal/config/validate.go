package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/leonardotrapani/soapscribe/internal/language"
	"github.com/leonardotrapani/soapscribe/internal/llm"
	"github.com/leonardotrapani/soapscribe/internal/notes"
	"github.com/leonardotrapani/soapscribe/internal/provider"
	"github.com/leonardotrapani/soapscribe/internal/templates"
)

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("invalid server.addr: empty")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("invalid server.request_timeout: %v", c.Server.RequestTimeout)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid server.shutdown_timeout: %v", c.Server.ShutdownTimeout)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid server.max_upload_mb: %d", c.Server.MaxUploadMB)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid logging.level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid logging.format: %s (must be console or json)", c.Logging.Format)
	}

	if c.Storage.Path == "" {
		return fmt.Errorf("invalid storage.path: empty")
	}

	if err := c.validateTranscription(); err != nil {
		return err
	}

	if err := c.validateGenerator("generation", c.Generation.Provider); err != nil {
		return err
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return fmt.Errorf("invalid generation.temperature: %v (must be between 0 and 2)", c.Generation.Temperature)
	}
	if c.Generation.MaxTokens < 0 {
		return fmt.Errorf("invalid generation.max_tokens: %d", c.Generation.MaxTokens)
	}
	if _, err := templates.ParseRef(c.Generation.Template); err != nil {
		return fmt.Errorf("invalid generation.template: %w", err)
	}

	if c.Analysis.Provider != "" {
		if err := c.validateGenerator("analysis", c.Analysis.Provider); err != nil {
			return err
		}
	}
	if t := c.Analysis.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("invalid analysis.temperature: %v (must be between 0 and 2)", *t)
	}
	if c.Analysis.MaxTokens < 0 {
		return fmt.Errorf("invalid analysis.max_tokens: %d", c.Analysis.MaxTokens)
	}

	if c.Templates.Watch && c.Templates.Dir == "" {
		return fmt.Errorf("templates.dir required when templates.watch = true")
	}

	if _, err := notes.ParseOrder(c.Notes.Order); err != nil {
		return fmt.Errorf("invalid notes.order: %w", err)
	}

	return nil
}

func (c *Config) validateTranscription() error {
	t := c.Transcription
	if t.Provider == "" {
		return fmt.Errorf("invalid transcription.provider: empty")
	}
	supported := provider.ListProvidersFor(provider.Transcription)
	if !slices.Contains(supported, t.Provider) {
		return fmt.Errorf("unsupported transcription.provider: %s (must be %s)", t.Provider, strings.Join(supported, ", "))
	}

	if err := c.requireAPIKey("transcription", t.Provider); err != nil {
		return err
	}

	if _, err := language.Validate(t.Language); err != nil {
		return fmt.Errorf("invalid transcription.language: %s (use empty string for auto-detect or ISO-639-1 codes like 'en', 'es', 'fr')", t.Language)
	}
	if _, err := provider.ParseTier(t.Tier); err != nil {
		return fmt.Errorf("invalid transcription.tier: %w", err)
	}

	for tier, model := range map[string]string{"fast": t.Models.Fast, "accurate": t.Models.Accurate} {
		if model == "" {
			continue
		}
		// whisper-cpp also accepts a path to a custom ggml file
		if t.Provider == provider.ProviderWhisperCpp && strings.ContainsRune(model, '/') {
			continue
		}
		if _, err := provider.FindModel(t.Provider, provider.Transcription, model); err != nil {
			return fmt.Errorf("invalid transcription.models.%s: %w", tier, err)
		}
	}

	if t.Threads < 0 {
		return fmt.Errorf("invalid transcription.threads: %d", t.Threads)
	}
	return nil
}

func (c *Config) validateGenerator(section, name string) error {
	if name == "" {
		return fmt.Errorf("invalid %s.provider: empty", section)
	}
	supported := llm.Providers()
	if !slices.Contains(supported, name) {
		return fmt.Errorf("unsupported %s.provider: %s (must be %s)", section, name, strings.Join(supported, ", "))
	}
	return c.requireAPIKey(section, name)
}

func (c *Config) requireAPIKey(section, name string) error {
	p := provider.GetProvider(name)
	if p == nil || !p.RequiresAPIKey() {
		return nil
	}
	if c.resolveAPIKey(name) == "" {
		return fmt.Errorf("%s API key required for %s: not found in config (providers.%s.api_key) or environment variable (%s)",
			name, section, name, provider.EnvVarForProvider(name))
	}
	return nil
}
