package testutil

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/leonardotrapani/soapscribe/internal/llm"
	"github.com/leonardotrapani/soapscribe/internal/transcriber"
)

// CreateTempConfigFile creates a temporary config file for testing
func CreateTempConfigFile(t *testing.T, configContent string) string {
	t.Helper()

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.toml")

	err := os.WriteFile(configPath, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}

	return configPath
}

// TestContext returns a context with timeout for testing
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// WaitForCondition waits for a condition to be true or times out
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			t.Fatalf("Condition not met within %v", timeout)
		default:
			if condition() {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// PCM returns n samples of 16-bit little-endian mono silence with a faint ramp
func PCM(n int) []byte {
	buf := make([]byte, n*2)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(i%64))
	}
	return buf
}

// WAV returns a minimal RIFF/WAVE file holding n 16 kHz 16-bit samples
// on the given number of channels
func WAV(n, channels int) []byte {
	const sampleRate = 16000
	data := PCM(n * channels)

	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(36+len(data)))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1))
	binary.Write(&b, binary.LittleEndian, uint16(channels))
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate*channels*2))
	binary.Write(&b, binary.LittleEndian, uint16(channels*2))
	binary.Write(&b, binary.LittleEndian, uint16(16))
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(len(data)))
	b.Write(data)
	return b.Bytes()
}

// MockGenerator implements llm.Generator for testing
type MockGenerator struct {
	Output       string
	Err          error
	GenerateFunc func(ctx context.Context, req llm.Request) (string, error)

	mu       sync.Mutex
	requests []llm.Request
}

// NewMockGenerator creates a generator that always returns output
func NewMockGenerator(output string) *MockGenerator {
	return &MockGenerator{Output: output}
}

func (m *MockGenerator) Generate(ctx context.Context, req llm.Request) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Output, nil
}

// Calls returns how many times Generate was called
func (m *MockGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of the received requests
func (m *MockGenerator) Requests() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]llm.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// LastRequest returns the most recent request, or the zero value
func (m *MockGenerator) LastRequest() llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return llm.Request{}
	}
	return m.requests[len(m.requests)-1]
}

// MockTranscriberAdapter implements transcriber.Adapter for testing. It
// records the staged clip and whether the staged file existed during the call.
type MockTranscriberAdapter struct {
	Text           string
	Language       string
	Confidence     float64
	Err            error
	TranscribeFunc func(ctx context.Context, clip transcriber.Clip) (*transcriber.Result, error)

	mu       sync.Mutex
	clips    []transcriber.Clip
	sawFiles []bool
}

// NewMockTranscriberAdapter creates an adapter returning text
func NewMockTranscriberAdapter(text string) *MockTranscriberAdapter {
	return &MockTranscriberAdapter{Text: text, Confidence: transcriber.NoConfidence}
}

func (m *MockTranscriberAdapter) Transcribe(ctx context.Context, clip transcriber.Clip) (*transcriber.Result, error) {
	_, statErr := os.Stat(clip.Path)

	m.mu.Lock()
	m.clips = append(m.clips, clip)
	m.sawFiles = append(m.sawFiles, statErr == nil)
	m.mu.Unlock()

	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, clip)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &transcriber.Result{Text: m.Text, Language: m.Language, Confidence: m.Confidence}, nil
}

// Clips returns the clips received so far
func (m *MockTranscriberAdapter) Clips() []transcriber.Clip {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]transcriber.Clip, len(m.clips))
	copy(out, m.clips)
	return out
}

// SawStagedFile reports whether the staged file existed during call i
func (m *MockTranscriberAdapter) SawStagedFile(i int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return i < len(m.sawFiles) && m.sawFiles[i]
}
