// Package synth turns transcripts into note drafts and patient cases into
// longitudinal analyses, using a text generation provider.
package synth

import (
	"context"
	"strings"
	"time"

	"github.com/leonardotrapani/soapscribe/internal/apperr"
	"github.com/leonardotrapani/soapscribe/internal/llm"
	"github.com/leonardotrapani/soapscribe/internal/logger"
	"github.com/leonardotrapani/soapscribe/internal/templates"
	"github.com/leonardotrapani/soapscribe/internal/transcriber"
)

// Config holds generation settings shared by the synthesizer and aggregator
type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Draft is a generated note not yet stored
type Draft struct {
	Content         string
	TemplateID      string
	TemplateVersion int
	Model           string
	// MissingSections lists template sections not found in Content.
	// Advisory only; a draft with missing sections is still returned.
	MissingSections []string
	Elapsed         time.Duration
}

// Synthesizer generates a note from a transcript and a template
type Synthesizer struct {
	registry *templates.Registry
	gen      llm.Generator
	cfg      Config
	log      *logger.Logger
}

// NewSynthesizer creates a synthesizer
func NewSynthesizer(registry *templates.Registry, gen llm.Generator, cfg Config, log *logger.Logger) *Synthesizer {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("synth")
	if cfg.Temperature != 0 {
		log.Warn("generation temperature is non-zero; notes will not be reproducible",
			logger.Float64("temperature", cfg.Temperature))
	}
	return &Synthesizer{registry: registry, gen: gen, cfg: cfg, log: log}
}

// Synthesize renders the template around the transcript and generates the
// note in a single call. The template is resolved before anything is sent.
func (s *Synthesizer) Synthesize(ctx context.Context, transcript *transcriber.Transcript, ref templates.Ref) (*Draft, error) {
	tmpl, err := s.registry.Resolve(ref)
	if err != nil {
		return nil, err
	}
	if transcript == nil || strings.TrimSpace(transcript.Text) == "" {
		return nil, apperr.New(apperr.InvalidRequest, "transcript is empty")
	}

	rendered := templates.RenderPrompt(tmpl, transcript.Text)

	start := time.Now()
	out, err := s.gen.Generate(ctx, llm.Request{
		System:      rendered.System,
		Prompt:      rendered.Prompt,
		Model:       s.cfg.Model,
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	})
	elapsed := time.Since(start)
	if err != nil {
		s.log.Error("note generation failed",
			logger.String("template", tmpl.Key()),
			logger.Duration("elapsed", elapsed),
			logger.Error(err))
		return nil, apperr.Wrap(apperr.GenerationFailure, "generate note", err)
	}

	content := strings.TrimSpace(out)
	if content == "" {
		return nil, apperr.Newf(apperr.GenerationFailure, "generator returned an empty note for %s", tmpl.Key())
	}

	draft := &Draft{
		Content:         content,
		TemplateID:      tmpl.ID,
		TemplateVersion: tmpl.Version,
		Model:           s.cfg.Model,
		MissingSections: tmpl.MissingSections(content),
		Elapsed:         elapsed,
	}
	if len(draft.MissingSections) > 0 {
		s.log.Warn("generated note is missing template sections",
			logger.String("template", tmpl.Key()),
			logger.Strings("missing", draft.MissingSections))
	}

	s.log.Info("note generated",
		logger.String("template", tmpl.Key()),
		logger.Int("transcript_chars", len(transcript.Text)),
		logger.Int("note_chars", len(content)),
		logger.Duration("elapsed", elapsed))
	return draft, nil
}
