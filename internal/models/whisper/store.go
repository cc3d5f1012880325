package whisper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/leonardotrapani/soapscribe/internal/logger"
	"github.com/leonardotrapani/soapscribe/internal/provider"
)

// ProgressFunc is called during download with bytes downloaded and total
type ProgressFunc func(downloaded, total int64)

// Store manages ggml model files for the local whisper-cpp provider
type Store struct {
	dir     string
	baseURL string // overrides the download host; empty uses the catalog URL
	client  *http.Client
	logger  *logger.Logger
}

// NewStore creates a store rooted at dir
func NewStore(dir string, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		dir:    dir,
		client: http.DefaultClient,
		logger: log.Named("whisper-models"),
	}
}

// WithBaseURL downloads from baseURL + "/" + filename instead of the catalog URL
func (s *Store) WithBaseURL(baseURL string) *Store {
	s.baseURL = strings.TrimRight(baseURL, "/")
	return s
}

func (s *Store) Dir() string {
	return s.dir
}

// Models returns the downloadable whisper-cpp models
func (s *Store) Models() []provider.Model {
	p := provider.GetProvider(provider.ProviderWhisperCpp)
	if p == nil {
		return nil
	}
	return provider.ModelsOfType(p, provider.Transcription)
}

func (s *Store) model(id string) (*provider.Model, error) {
	m, err := provider.FindModel(provider.ProviderWhisperCpp, provider.Transcription, id)
	if err != nil {
		return nil, fmt.Errorf("unknown model: %s", id)
	}
	if m.LocalInfo == nil {
		return nil, fmt.Errorf("model %s has no local file", id)
	}
	return m, nil
}

// Path returns where the model file lives, installed or not
func (s *Store) Path(id string) (string, error) {
	m, err := s.model(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, m.LocalInfo.Filename), nil
}

// IsInstalled returns true if the model file exists and is non-empty
func (s *Store) IsInstalled(id string) bool {
	path, err := s.Path(id)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

// Installed returns the ids of installed models in catalog order
func (s *Store) Installed() []string {
	var installed []string
	for _, m := range s.Models() {
		if s.IsInstalled(m.ID) {
			installed = append(installed, m.ID)
		}
	}
	return installed
}

// Download fetches a model into the store. The file only appears under its
// final name once fully written.
func (s *Store) Download(ctx context.Context, id string, onProgress ProgressFunc) error {
	m, err := s.model(id)
	if err != nil {
		return err
	}

	url := m.LocalInfo.DownloadURL
	if s.baseURL != "" {
		url = s.baseURL + "/" + m.LocalInfo.Filename
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}

	destPath := filepath.Join(s.dir, m.LocalInfo.Filename)
	tempPath := destPath + ".downloading"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	s.logger.Info("downloading model", logger.String("model", id), logger.String("url", url))
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %s", resp.Status)
	}

	out, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tempPath)

	pw := &progressWriter{total: resp.ContentLength, onProgress: onProgress}
	if _, err := io.Copy(io.MultiWriter(out, pw), resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tempPath, destPath); err != nil {
		return fmt.Errorf("failed to finalize download: %w", err)
	}
	s.logger.Info("model installed", logger.String("model", id), logger.Int64("bytes", pw.written))
	return nil
}

// Remove deletes a downloaded model
func (s *Store) Remove(id string) error {
	path, err := s.Path(id)
	if err != nil {
		return err
	}
	if !s.IsInstalled(id) {
		return fmt.Errorf("model not installed: %s", id)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove model: %w", err)
	}
	return nil
}

type progressWriter struct {
	written    int64
	total      int64
	onProgress ProgressFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.onProgress != nil {
		p.onProgress(p.written, p.total)
	}
	return len(b), nil
}
