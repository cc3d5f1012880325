package transcriber

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/leonardotrapani/soapscribe/internal/apperr"
	"github.com/leonardotrapani/soapscribe/internal/audio"
	"github.com/leonardotrapani/soapscribe/internal/language"
	"github.com/leonardotrapani/soapscribe/internal/logger"
	"github.com/leonardotrapani/soapscribe/internal/provider"
)

// NoConfidence marks a transcript whose service reported no quality score
const NoConfidence = -1.0

// Options are per-request transcription settings
type Options struct {
	Language string        // language tag, empty for auto-detect
	Tier     provider.Tier // fast or accurate, empty means accurate
}

// Transcript is the text recovered from one recording
type Transcript struct {
	Text       string
	Language   string
	Confidence float64 // 0..1, or NoConfidence
	Provider   string
	Model      string
	Duration   time.Duration // audio length when known
}

// Clip is a staged recording handed to an adapter
type Clip struct {
	Path     string
	Format   audio.Format
	Model    string
	Language string // already in the provider's spelling; "" for auto
}

// Result is what an adapter reads back from its service
type Result struct {
	Text       string
	Language   string
	Confidence float64
}

// Adapter talks to one transcription backend
type Adapter interface {
	Transcribe(ctx context.Context, clip Clip) (*Result, error)
}

// Config for the transcriber
type Config struct {
	Provider         string
	APIKey           string
	BaseURL          string                   // override for OpenAI-compatible/Gemini endpoints
	Models           map[provider.Tier]string // per-tier model overrides
	SpoolDir         string
	WhisperBinary    string
	WhisperModelsDir string
	Threads          int
	Keywords         []string
}

// Transcriber turns recordings into transcripts through one configured adapter
type Transcriber struct {
	cfg     Config
	adapter Adapter
	spool   *audio.Spool
	log     *logger.Logger
}

// New builds the adapter for cfg.Provider and the spool
func New(ctx context.Context, cfg Config, log *logger.Logger) (*Transcriber, error) {
	adapter, err := NewAdapter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewWithAdapter(cfg, adapter, log)
}

// NewWithAdapter wires a prebuilt adapter
func NewWithAdapter(cfg Config, adapter Adapter, log *logger.Logger) (*Transcriber, error) {
	if log == nil {
		log = logger.Nop()
	}
	spool, err := audio.NewSpool(cfg.SpoolDir)
	if err != nil {
		return nil, err
	}
	return &Transcriber{
		cfg:     cfg,
		adapter: adapter,
		spool:   spool,
		log:     log.Named("transcriber"),
	}, nil
}

// Transcribe stages the audio, sends it to the provider and returns the transcript.
// Every failure is kinded transcription_failure; the staged file is removed on all paths.
func (t *Transcriber) Transcribe(ctx context.Context, data []byte, opts Options) (*Transcript, error) {
	code, err := language.Validate(opts.Language)
	if err != nil {
		return nil, apperr.Wrap(apperr.TranscriptionFailure, "invalid language", err)
	}

	tier, err := provider.ParseTier(string(opts.Tier))
	if err != nil {
		return nil, apperr.Wrap(apperr.TranscriptionFailure, "invalid tier", err)
	}

	model, err := provider.ResolveModel(t.cfg.Provider, provider.Transcription, tier, t.cfg.Models[tier])
	if err != nil {
		return nil, apperr.Wrap(apperr.TranscriptionFailure, "resolve model", err)
	}
	if m, err := provider.FindModel(t.cfg.Provider, provider.Transcription, model); err == nil && !m.SupportsLanguage(code) {
		return nil, apperr.Newf(apperr.TranscriptionFailure, "model %s does not support %s", model, provider.LanguageLabel(code))
	}

	info, err := audio.Inspect(data)
	if err != nil {
		return nil, apperr.Wrap(apperr.TranscriptionFailure, "unreadable audio", err)
	}

	staged, err := t.spool.Stage(data, info)
	if err != nil {
		return nil, apperr.Wrap(apperr.TranscriptionFailure, "stage audio", err)
	}
	defer func() {
		if err := staged.Release(); err != nil {
			t.log.Warn("failed to remove staged audio", logger.String("path", staged.Path), logger.Error(err))
		}
	}()

	clip := Clip{
		Path:     staged.Path,
		Format:   staged.Info.Format,
		Model:    model,
		Language: language.ToProviderFormat(code, t.cfg.Provider),
	}

	start := time.Now()
	res, err := t.adapter.Transcribe(ctx, clip)
	elapsed := time.Since(start)
	if err != nil {
		t.log.Error("transcription failed",
			logger.String("provider", t.cfg.Provider),
			logger.String("model", model),
			logger.Duration("elapsed", elapsed),
			logger.Error(err))
		return nil, apperr.Wrap(apperr.TranscriptionFailure, fmt.Sprintf("%s request", t.cfg.Provider), err)
	}

	text := strings.TrimSpace(res.Text)
	if text == "" {
		return nil, apperr.New(apperr.TranscriptionFailure, "provider returned an empty transcript")
	}

	lang := code
	if lang == "" {
		lang = language.CodeForName(res.Language)
	}

	t.log.Info("transcribed",
		logger.String("provider", t.cfg.Provider),
		logger.String("model", model),
		logger.String("tier", string(tier)),
		logger.String("format", string(info.Format)),
		logger.Int("audio_bytes", len(data)),
		logger.Int("chars", len(text)),
		logger.Duration("elapsed", elapsed))

	return &Transcript{
		Text:       text,
		Language:   lang,
		Confidence: clampConfidence(res.Confidence),
		Provider:   t.cfg.Provider,
		Model:      model,
		Duration:   info.Duration,
	}, nil
}

func clampConfidence(c float64) float64 {
	if c < 0 || math.IsNaN(c) {
		return NoConfidence
	}
	if c > 1 {
		return 1
	}
	return c
}
