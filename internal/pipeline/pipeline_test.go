package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leonardotrapani/soapscribe/internal/apperr"
	"github.com/leonardotrapani/soapscribe/internal/notes"
	"github.com/leonardotrapani/soapscribe/internal/provider"
	"github.com/leonardotrapani/soapscribe/internal/synth"
	"github.com/leonardotrapani/soapscribe/internal/templates"
	"github.com/leonardotrapani/soapscribe/internal/testutil"
	"github.com/leonardotrapani/soapscribe/internal/transcriber"
)

const generatedNote = `## Subjective
Cough for 2 days.
## Objective
Not reported in transcript
## Assessment
Not reported in transcript
## Differential Considerations
Not reported in transcript
## Plan
Not reported in transcript
## Conclusion
Not reported in transcript`

type harness struct {
	pipeline *Pipeline
	adapter  *testutil.MockTranscriberAdapter
	gen      *testutil.MockGenerator
	store    *notes.SQLiteStore
	spoolDir string

	mu     sync.Mutex
	stages []Stage
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		adapter:  testutil.NewMockTranscriberAdapter("Patient reports a cough for 2 days."),
		gen:      testutil.NewMockGenerator(generatedNote),
		spoolDir: t.TempDir(),
	}

	registry, err := templates.NewDefaultRegistry(nil)
	require.NoError(t, err)

	tr, err := transcriber.NewWithAdapter(transcriber.Config{Provider: provider.ProviderOpenAI, SpoolDir: h.spoolDir}, h.adapter, nil)
	require.NoError(t, err)

	h.store, err = notes.OpenSQLite(filepath.Join(t.TempDir(), "notes.db"), notes.OldestFirst, nil)
	require.NoError(t, err)
	t.Cleanup(func() { h.store.Close() })

	syn := synth.NewSynthesizer(registry, h.gen, synth.Config{}, nil)
	h.pipeline = New(registry, tr, syn, h.store, nil, WithStageHook(func(s Stage) {
		h.mu.Lock()
		h.stages = append(h.stages, s)
		h.mu.Unlock()
	}))
	return h
}

func (h *harness) storedNotes(t *testing.T) []notes.Note {
	t.Helper()
	all, err := h.store.ListAll(context.Background())
	require.NoError(t, err)
	return all
}

func (h *harness) spoolEmpty(t *testing.T) bool {
	t.Helper()
	entries, err := os.ReadDir(h.spoolDir)
	require.NoError(t, err)
	return len(entries) == 0
}

func validRequest() AudioRequest {
	return AudioRequest{
		Audio:    testutil.WAV(1600, 1),
		Language: "en",
		Tier:     provider.TierFast,
		Template: templates.Ref{ID: "soap"},
		Patient:  Patient{ID: "P100", Name: "Ana Ruiz"},
	}
}

func TestRun_Success(t *testing.T) {
	h := newHarness(t)

	res, err := h.pipeline.Run(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, "Patient reports a cough for 2 days.", res.Transcript.Text)
	assert.Equal(t, generatedNote, res.Note.Content)
	assert.Equal(t, "soap", res.Note.TemplateID)
	assert.Equal(t, 2, res.Note.TemplateVersion, "latest is pinned to a concrete version")
	assert.Empty(t, res.MissingSections)

	stored := h.storedNotes(t)
	require.Len(t, stored, 1)
	assert.Equal(t, res.Note.ID, stored[0].ID)
	assert.Equal(t, "P100", stored[0].PatientID)

	clips := h.adapter.Clips()
	require.Len(t, clips, 1)
	assert.Equal(t, "gpt-4o-mini-transcribe", clips[0].Model)
	assert.True(t, h.adapter.SawStagedFile(0))
	assert.True(t, h.spoolEmpty(t), "staged audio removed after success")

	assert.Equal(t, []Stage{Resolving, Transcribing, Generating, Storing, Done}, h.stages)
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name          string
		setup         func(h *harness, req *AudioRequest)
		wantKind      apperr.Kind
		wantTranscrib int
		wantGenerate  int
	}{
		{
			name:          "unknown template fails before transcription",
			setup:         func(_ *harness, req *AudioRequest) { req.Template = templates.Ref{ID: "soap", Version: 9} },
			wantKind:      apperr.UnknownTemplate,
			wantTranscrib: 0,
			wantGenerate:  0,
		},
		{
			name:          "missing patient name",
			setup:         func(_ *harness, req *AudioRequest) { req.Patient.Name = "" },
			wantKind:      apperr.InvalidRequest,
			wantTranscrib: 0,
			wantGenerate:  0,
		},
		{
			name:          "empty audio",
			setup:         func(_ *harness, req *AudioRequest) { req.Audio = nil },
			wantKind:      apperr.InvalidRequest,
			wantTranscrib: 0,
			wantGenerate:  0,
		},
		{
			name:          "transcription provider error",
			setup:         func(h *harness, _ *AudioRequest) { h.adapter.Err = errors.New("401 unauthorized") },
			wantKind:      apperr.TranscriptionFailure,
			wantTranscrib: 1,
			wantGenerate:  0,
		},
		{
			name:          "generation error",
			setup:         func(h *harness, _ *AudioRequest) { h.gen.Err = errors.New("timeout") },
			wantKind:      apperr.GenerationFailure,
			wantTranscrib: 1,
			wantGenerate:  1,
		},
		{
			name:          "empty generation",
			setup:         func(h *harness, _ *AudioRequest) { h.gen.Output = "" },
			wantKind:      apperr.GenerationFailure,
			wantTranscrib: 1,
			wantGenerate:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			req := validRequest()
			tt.setup(h, &req)

			res, err := h.pipeline.Run(context.Background(), req)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Equal(t, tt.wantKind, apperr.KindOf(err))
			assert.Len(t, h.adapter.Clips(), tt.wantTranscrib)
			assert.Equal(t, tt.wantGenerate, h.gen.Calls())
			assert.Empty(t, h.storedNotes(t), "no partial note is stored")
			assert.True(t, h.spoolEmpty(t), "staged audio removed after failure")
		})
	}
}

func TestRunText(t *testing.T) {
	h := newHarness(t)

	res, err := h.pipeline.RunText(context.Background(), TextRequest{
		Transcript: "Doctor: any allergies? Patient: none.",
		Template:   templates.Ref{ID: "soap", Version: 1},
		Patient:    Patient{Name: "Walk-in"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Note.TemplateVersion)
	assert.Equal(t, transcriber.NoConfidence, res.Transcript.Confidence)
	assert.Empty(t, h.adapter.Clips(), "text requests skip transcription")
	assert.Contains(t, h.gen.LastRequest().Prompt, "Doctor: any allergies? Patient: none.")
	assert.NotEmpty(t, res.MissingSections, "soap@1 headings are absent from the canned note")

	_, err = h.pipeline.RunText(context.Background(), TextRequest{Transcript: " ", Patient: Patient{Name: "x"}, Template: templates.Ref{ID: "soap"}})
	assert.Equal(t, apperr.InvalidRequest, apperr.KindOf(err))
}

func TestRun_NoTranscriber(t *testing.T) {
	registry, err := templates.NewDefaultRegistry(nil)
	require.NoError(t, err)
	p := New(registry, nil, nil, nil, nil)

	_, err = p.Run(context.Background(), validRequest())
	assert.Equal(t, apperr.Internal, apperr.KindOf(err))
}

func TestRun_ConcurrentRequests(t *testing.T) {
	h := newHarness(t)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.pipeline.Run(context.Background(), validRequest())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Len(t, h.storedNotes(t), 8)
	assert.True(t, h.spoolEmpty(t))
}
