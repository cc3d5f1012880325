// Package pipeline runs one note request end to end: audio to transcript,
// transcript to note draft, draft to the note store. The steps are strictly
// sequential and nothing is stored unless every step succeeds.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/leonardotrapani/soapscribe/internal/apperr"
	"github.com/leonardotrapani/soapscribe/internal/logger"
	"github.com/leonardotrapani/soapscribe/internal/notes"
	"github.com/leonardotrapani/soapscribe/internal/provider"
	"github.com/leonardotrapani/soapscribe/internal/synth"
	"github.com/leonardotrapani/soapscribe/internal/templates"
	"github.com/leonardotrapani/soapscribe/internal/transcriber"
)

type Stage string

const (
	Resolving    Stage = "resolving"
	Transcribing Stage = "transcribing"
	Generating   Stage = "generating"
	Storing      Stage = "storing"
	Done         Stage = "done"
)

// AudioTranscriber turns audio into a transcript
type AudioTranscriber interface {
	Transcribe(ctx context.Context, data []byte, opts transcriber.Options) (*transcriber.Transcript, error)
}

// NoteSynthesizer drafts a note from a transcript
type NoteSynthesizer interface {
	Synthesize(ctx context.Context, t *transcriber.Transcript, ref templates.Ref) (*synth.Draft, error)
}

// Patient identifies who a note belongs to
type Patient struct {
	ID   string
	Name string
}

// AudioRequest is a note request starting from a recording
type AudioRequest struct {
	Audio    []byte
	Language string
	Tier     provider.Tier
	Template templates.Ref
	Patient  Patient
}

// TextRequest is a note request starting from an existing transcript
type TextRequest struct {
	Transcript string
	Language   string
	Template   templates.Ref
	Patient    Patient
}

// Result is the outcome of a successful run
type Result struct {
	Transcript      *transcriber.Transcript
	Note            *notes.Note
	MissingSections []string
	Elapsed         time.Duration
}

// Pipeline wires the note-generation components together
type Pipeline struct {
	registry    *templates.Registry
	transcriber AudioTranscriber
	synth       NoteSynthesizer
	store       notes.Store
	onStage     func(Stage)
	log         *logger.Logger
}

type Option func(*Pipeline)

// WithStageHook reports each stage as it starts
func WithStageHook(fn func(Stage)) Option {
	return func(p *Pipeline) { p.onStage = fn }
}

// New creates a pipeline. tr may be nil when only text requests are served.
func New(registry *templates.Registry, tr AudioTranscriber, syn NoteSynthesizer, store notes.Store, log *logger.Logger, opts ...Option) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	p := &Pipeline{
		registry:    registry,
		transcriber: tr,
		synth:       syn,
		store:       store,
		log:         log.Named("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run transcribes the audio, generates a note and stores it
func (p *Pipeline) Run(ctx context.Context, req AudioRequest) (*Result, error) {
	start := time.Now()
	if p.transcriber == nil {
		return nil, apperr.New(apperr.Internal, "no transcriber configured")
	}
	if len(req.Audio) == 0 {
		return nil, apperr.New(apperr.InvalidRequest, "audio is empty")
	}
	ref, err := p.prepare(req.Template, req.Patient)
	if err != nil {
		return nil, err
	}

	p.stage(Transcribing)
	transcript, err := p.transcriber.Transcribe(ctx, req.Audio, transcriber.Options{
		Language: req.Language,
		Tier:     req.Tier,
	})
	if err != nil {
		return nil, err
	}

	return p.finish(ctx, transcript, ref, req.Patient, start)
}

// RunText generates and stores a note from a transcript already in hand
func (p *Pipeline) RunText(ctx context.Context, req TextRequest) (*Result, error) {
	start := time.Now()
	if strings.TrimSpace(req.Transcript) == "" {
		return nil, apperr.New(apperr.InvalidRequest, "transcript is empty")
	}
	ref, err := p.prepare(req.Template, req.Patient)
	if err != nil {
		return nil, err
	}

	transcript := &transcriber.Transcript{
		Text:       req.Transcript,
		Language:   req.Language,
		Confidence: transcriber.NoConfidence,
	}
	return p.finish(ctx, transcript, ref, req.Patient, start)
}

// prepare validates the patient and pins the template version so a
// template published mid-run cannot change which one is used
func (p *Pipeline) prepare(ref templates.Ref, patient Patient) (templates.Ref, error) {
	if strings.TrimSpace(patient.Name) == "" {
		return templates.Ref{}, apperr.New(apperr.InvalidRequest, "patient name is required")
	}
	p.stage(Resolving)
	tmpl, err := p.registry.Resolve(ref)
	if err != nil {
		return templates.Ref{}, err
	}
	return templates.Ref{ID: tmpl.ID, Version: tmpl.Version}, nil
}

func (p *Pipeline) finish(ctx context.Context, transcript *transcriber.Transcript, ref templates.Ref, patient Patient, start time.Time) (*Result, error) {
	p.stage(Generating)
	draft, err := p.synth.Synthesize(ctx, transcript, ref)
	if err != nil {
		return nil, err
	}

	p.stage(Storing)
	note, err := p.store.Create(ctx, notes.NewNote{
		PatientID:       patient.ID,
		PatientName:     patient.Name,
		Content:         draft.Content,
		TemplateID:      draft.TemplateID,
		TemplateVersion: draft.TemplateVersion,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreFailure, "store note", err)
	}
	p.stage(Done)

	elapsed := time.Since(start)
	p.log.Info("note created",
		logger.String("note_id", note.ID),
		logger.String("template", ref.String()),
		logger.Duration("elapsed", elapsed))

	return &Result{
		Transcript:      transcript,
		Note:            note,
		MissingSections: draft.MissingSections,
		Elapsed:         elapsed,
	}, nil
}

func (p *Pipeline) stage(s Stage) {
	p.log.Debug("stage", logger.String("stage", string(s)))
	if p.onStage != nil {
		p.onStage(s)
	}
}
