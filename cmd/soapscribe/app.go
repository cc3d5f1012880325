package main

import (
	"context"
	"fmt"

	"github.com/leonardotrapani/soapscribe/internal/config"
	"github.com/leonardotrapani/soapscribe/internal/llm"
	"github.com/leonardotrapani/soapscribe/internal/logger"
	"github.com/leonardotrapani/soapscribe/internal/notes"
	"github.com/leonardotrapani/soapscribe/internal/pipeline"
	"github.com/leonardotrapani/soapscribe/internal/synth"
	"github.com/leonardotrapani/soapscribe/internal/templates"
	"github.com/leonardotrapani/soapscribe/internal/transcriber"
)

// app holds the components a command needs. Fields a command did not ask
// for stay nil.
type app struct {
	cfg        *config.Config
	log        *logger.Logger
	registry   *templates.Registry
	store      *notes.SQLiteStore
	pipeline   *pipeline.Pipeline
	aggregator *synth.Aggregator
}

type needs struct {
	audio    bool // transcription
	generate bool // note generation
	analysis bool // case analysis
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	log, err := logger.New(cfg.ToLoggerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}

// loadRegistry publishes the built-in templates plus any in the configured directory
func loadRegistry(cfg *config.Config, log *logger.Logger) (*templates.Registry, error) {
	registry, err := templates.NewDefaultRegistry(log)
	if err != nil {
		return nil, err
	}
	if cfg.Templates.Dir != "" {
		if _, err := registry.LoadDir(cfg.Templates.Dir); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func openApp(ctx context.Context, n needs) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log}
	if a.registry, err = loadRegistry(cfg, log); err != nil {
		return nil, err
	}
	if a.store, err = notes.OpenSQLite(cfg.Storage.Path, cfg.NoteOrder(), log); err != nil {
		return nil, err
	}

	if n.audio || n.generate {
		llmCfg, synthCfg := cfg.ToGenerationConfig()
		gen, err := llm.NewGenerator(ctx, llmCfg, log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create generator: %w", err)
		}
		syn := synth.NewSynthesizer(a.registry, gen, synthCfg, log)

		var tr pipeline.AudioTranscriber
		if n.audio {
			t, err := transcriber.New(ctx, cfg.ToTranscriberConfig(), log)
			if err != nil {
				a.Close()
				return nil, fmt.Errorf("failed to create transcriber: %w", err)
			}
			tr = t
		}
		a.pipeline = pipeline.New(a.registry, tr, syn, a.store, log)
	}

	if n.analysis {
		llmCfg, synthCfg := cfg.ToAnalysisConfig()
		gen, err := llm.NewGenerator(ctx, llmCfg, log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create analysis generator: %w", err)
		}
		a.aggregator = synth.NewAggregator(gen, synthCfg, log)
	}
	return a, nil
}

func (a *app) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
	_ = a.log.Sync()
}
