package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/leonardotrapani/soapscribe/internal/provider"
)

// WhisperCppAdapter implements Adapter by running the local whisper-cli
type WhisperCppAdapter struct {
	binary    string
	modelsDir string
	threads   int
}

// NewWhisperCppAdapter creates a whisper.cpp adapter.
// binary defaults to "whisper-cli"; threads 0 lets whisper choose.
func NewWhisperCppAdapter(binary, modelsDir string, threads int) *WhisperCppAdapter {
	if binary == "" {
		binary = "whisper-cli"
	}
	return &WhisperCppAdapter{
		binary:    binary,
		modelsDir: modelsDir,
		threads:   threads,
	}
}

// ModelPath resolves a model id ("base.en") or absolute file path
func (a *WhisperCppAdapter) ModelPath(model string) string {
	if filepath.IsAbs(model) {
		return model
	}
	return filepath.Join(a.modelsDir, provider.WhisperModelFilename(model))
}

func (a *WhisperCppAdapter) Transcribe(ctx context.Context, clip Clip) (*Result, error) {
	modelPath := a.ModelPath(clip.Model)
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file not found: %s", modelPath)
	}

	whisperPath, err := exec.LookPath(a.binary)
	if err != nil {
		return nil, fmt.Errorf("%s not found: install whisper.cpp first", a.binary)
	}

	lang := clip.Language
	if lang == "" {
		lang = "auto"
	}
	args := []string{
		"-m", modelPath,
		"-l", lang,
		"-nt", // no timestamps
		"-np", // no progress
		"-f", clip.Path,
	}
	if a.threads > 0 {
		args = append(args, "-t", fmt.Sprintf("%d", a.threads))
	}

	cmd := exec.CommandContext(ctx, whisperPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("whisper-cli failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	text := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(stdout.String()), "[BLANK_AUDIO]"))
	return &Result{Text: text, Confidence: NoConfidence}, nil
}
