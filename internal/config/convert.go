package config

import (
	"os"

	"github.com/leonardotrapani/soapscribe/internal/llm"
	"github.com/leonardotrapani/soapscribe/internal/logger"
	"github.com/leonardotrapani/soapscribe/internal/notes"
	"github.com/leonardotrapani/soapscribe/internal/provider"
	"github.com/leonardotrapani/soapscribe/internal/synth"
	"github.com/leonardotrapani/soapscribe/internal/templates"
	"github.com/leonardotrapani/soapscribe/internal/transcriber"
)

func (c *Config) ToLoggerConfig() logger.Config {
	return logger.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
	}
}

func (c *Config) ToTranscriberConfig() transcriber.Config {
	t := c.Transcription
	models := make(map[provider.Tier]string)
	if t.Models.Fast != "" {
		models[provider.TierFast] = t.Models.Fast
	}
	if t.Models.Accurate != "" {
		models[provider.TierAccurate] = t.Models.Accurate
	}

	return transcriber.Config{
		Provider:         t.Provider,
		APIKey:           c.resolveAPIKey(t.Provider),
		BaseURL:          c.resolveBaseURL(t.Provider),
		Models:           models,
		SpoolDir:         c.Audio.SpoolDir,
		WhisperBinary:    t.WhisperBinary,
		WhisperModelsDir: t.WhisperModelsDir,
		Threads:          t.Threads,
		Keywords:         c.Keywords,
	}
}

// ToGenerationConfig returns the provider and settings used to draft notes
func (c *Config) ToGenerationConfig() (llm.Config, synth.Config) {
	g := c.Generation
	model := g.Model
	if model == "" {
		model = llm.DefaultModel(g.Provider)
	}
	return llm.Config{
			Provider: g.Provider,
			APIKey:   c.resolveAPIKey(g.Provider),
			BaseURL:  c.resolveBaseURL(g.Provider),
		}, synth.Config{
			Model:       model,
			Temperature: g.Temperature,
			MaxTokens:   g.MaxTokens,
		}
}

// ToAnalysisConfig returns the provider and settings used for case analysis.
// Unset fields fall back to the generation section.
func (c *Config) ToAnalysisConfig() (llm.Config, synth.Config) {
	genLLM, genSynth := c.ToGenerationConfig()
	a := c.Analysis

	llmCfg := genLLM
	synthCfg := genSynth
	if a.Provider != "" && a.Provider != c.Generation.Provider {
		llmCfg = llm.Config{
			Provider: a.Provider,
			APIKey:   c.resolveAPIKey(a.Provider),
			BaseURL:  c.resolveBaseURL(a.Provider),
		}
		synthCfg.Model = llm.DefaultModel(a.Provider)
	}
	if a.Model != "" {
		synthCfg.Model = a.Model
	}
	if a.Temperature != nil {
		synthCfg.Temperature = *a.Temperature
	}
	if a.MaxTokens > 0 {
		synthCfg.MaxTokens = a.MaxTokens
	}
	return llmCfg, synthCfg
}

// DefaultTemplate returns the configured template reference
func (c *Config) DefaultTemplate() templates.Ref {
	ref, err := templates.ParseRef(c.Generation.Template)
	if err != nil {
		return templates.Ref{ID: "soap"}
	}
	return ref
}

// NoteOrder returns the configured presentation order
func (c *Config) NoteOrder() notes.Order {
	order, err := notes.ParseOrder(c.Notes.Order)
	if err != nil {
		return notes.OldestFirst
	}
	return order
}

// resolveAPIKey returns the key from [providers.<name>] or the provider's env var
func (c *Config) resolveAPIKey(providerName string) string {
	if c.Providers != nil {
		if pc, ok := c.Providers[providerName]; ok && pc.APIKey != "" {
			return pc.APIKey
		}
	}
	if envVar := provider.EnvVarForProvider(providerName); envVar != "" {
		return os.Getenv(envVar)
	}
	return ""
}

func (c *Config) resolveBaseURL(providerName string) string {
	if c.Providers != nil {
		return c.Providers[providerName].BaseURL
	}
	return ""
}
