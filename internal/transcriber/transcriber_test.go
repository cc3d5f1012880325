package transcriber

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leonardotrapani/soapscribe/internal/apperr"
	"github.com/leonardotrapani/soapscribe/internal/provider"
)

// recordingAdapter checks the staged file while the call is in flight
type recordingAdapter struct {
	result      *Result
	err         error
	calls       int
	clip        Clip
	existedMid  bool
	stagedBytes []byte
}

func (a *recordingAdapter) Transcribe(ctx context.Context, clip Clip) (*Result, error) {
	a.calls++
	a.clip = clip
	if data, err := os.ReadFile(clip.Path); err == nil {
		a.existedMid = true
		a.stagedBytes = data
	}
	return a.result, a.err
}

func newTestTranscriber(t *testing.T, providerName string, adapter Adapter) (*Transcriber, string) {
	t.Helper()
	dir := t.TempDir()
	tr, err := NewWithAdapter(Config{Provider: providerName, SpoolDir: dir}, adapter, nil)
	require.NoError(t, err)
	return tr, dir
}

func assertSpoolEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staged audio left in spool")
}

func TestNewAdapter(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"openai", Config{Provider: "openai", APIKey: "sk-test"}, false},
		{"openai without key", Config{Provider: "openai"}, true},
		{"groq", Config{Provider: "groq", APIKey: "gsk_test"}, false},
		{"elevenlabs", Config{Provider: "elevenlabs", APIKey: "xi-test"}, false},
		{"elevenlabs without key", Config{Provider: "elevenlabs"}, true},
		{"whisper-cpp needs no key", Config{Provider: "whisper-cpp", WhisperModelsDir: "/tmp"}, false},
		{"gemini", Config{Provider: "gemini", APIKey: "test-key"}, false},
		{"unknown", Config{Provider: "assemblyai", APIKey: "x"}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			adapter, err := NewAdapter(context.Background(), tc.config)
			if (err != nil) != tc.wantErr {
				t.Fatalf("NewAdapter() error = %v, wantErr %v", err, tc.wantErr)
			}
			if !tc.wantErr && adapter == nil {
				t.Error("NewAdapter() returned nil adapter")
			}
		})
	}
}

func TestTranscribe_Success(t *testing.T) {
	adapter := &recordingAdapter{result: &Result{Text: "  Patient reports chest pain.  ", Confidence: 0.91}}
	tr, dir := newTestTranscriber(t, "openai", adapter)

	pcm := make([]byte, 32000)
	got, err := tr.Transcribe(context.Background(), pcm, Options{Language: "en-US", Tier: provider.TierFast})
	require.NoError(t, err)

	assert.Equal(t, "Patient reports chest pain.", got.Text)
	assert.Equal(t, "en", got.Language)
	assert.InDelta(t, 0.91, got.Confidence, 1e-9)
	assert.Equal(t, "openai", got.Provider)
	assert.Equal(t, "gpt-4o-mini-transcribe", got.Model)
	assert.Equal(t, int64(1e9), got.Duration.Nanoseconds())

	assert.True(t, adapter.existedMid, "staged file should exist during the provider call")
	assert.Equal(t, "RIFF", string(adapter.stagedBytes[:4]), "raw PCM should be wrapped as WAV")
	assert.Equal(t, "en", adapter.clip.Language)
	assertSpoolEmpty(t, dir)
}

func TestTranscribe_StagedAudioRemovedOnFailure(t *testing.T) {
	adapter := &recordingAdapter{err: errors.New("quota exceeded")}
	tr, dir := newTestTranscriber(t, "openai", adapter)

	_, err := tr.Transcribe(context.Background(), make([]byte, 3200), Options{})
	require.Error(t, err)
	assert.Equal(t, apperr.TranscriptionFailure, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.True(t, adapter.existedMid)
	assertSpoolEmpty(t, dir)
}

func TestTranscribe_Failures(t *testing.T) {
	tests := []struct {
		name      string
		provider  string
		audio     []byte
		opts      Options
		result    *Result
		wantCalls int
	}{
		{"empty audio", "openai", nil, Options{}, &Result{Text: "x"}, 0},
		{"corrupt audio", "openai", []byte{1, 2, 3}, Options{}, &Result{Text: "x"}, 0},
		{"unknown language", "openai", make([]byte, 64), Options{Language: "klingon"}, &Result{Text: "x"}, 0},
		{"unknown tier", "openai", make([]byte, 64), Options{Tier: "turbo"}, &Result{Text: "x"}, 0},
		{"empty transcript", "openai", make([]byte, 64), Options{}, &Result{Text: "   "}, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			adapter := &recordingAdapter{result: tc.result}
			tr, dir := newTestTranscriber(t, tc.provider, adapter)

			_, err := tr.Transcribe(context.Background(), tc.audio, tc.opts)
			require.Error(t, err)
			assert.Equal(t, apperr.TranscriptionFailure, apperr.KindOf(err))
			assert.Equal(t, tc.wantCalls, adapter.calls)
			assertSpoolEmpty(t, dir)
		})
	}
}

func TestTranscribe_ModelLanguageMismatch(t *testing.T) {
	adapter := &recordingAdapter{result: &Result{Text: "hola"}}
	dir := t.TempDir()
	tr, err := NewWithAdapter(Config{
		Provider: "whisper-cpp",
		SpoolDir: dir,
		Models:   map[provider.Tier]string{provider.TierAccurate: "base.en"},
	}, adapter, nil)
	require.NoError(t, err)

	_, err = tr.Transcribe(context.Background(), make([]byte, 64), Options{Language: "es"})
	require.Error(t, err)
	assert.Equal(t, apperr.TranscriptionFailure, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "Spanish")
	assert.Zero(t, adapter.calls)
}

func TestTranscribe_DetectedLanguage(t *testing.T) {
	adapter := &recordingAdapter{result: &Result{Text: "Guten Tag", Language: "german", Confidence: NoConfidence}}
	tr, _ := newTestTranscriber(t, "groq", adapter)

	got, err := tr.Transcribe(context.Background(), make([]byte, 64), Options{})
	require.NoError(t, err)
	assert.Equal(t, "de", got.Language)
	assert.Equal(t, NoConfidence, got.Confidence)
	assert.Equal(t, "whisper-large-v3", got.Model)
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, NoConfidence, clampConfidence(-1))
	assert.Equal(t, 1.0, clampConfidence(1.2))
	assert.Equal(t, 0.5, clampConfidence(0.5))
}
