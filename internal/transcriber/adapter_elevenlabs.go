package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/leonardotrapani/soapscribe/internal/provider"
)

// ElevenLabsAdapter implements Adapter for the ElevenLabs Scribe API
type ElevenLabsAdapter struct {
	client   *http.Client
	endpoint *provider.EndpointConfig
	apiKey   string
	keywords []string
}

type elevenLabsResponse struct {
	Text                string  `json:"text"`
	LanguageCode        string  `json:"language_code"`
	LanguageProbability float64 `json:"language_probability"`
}

// NewElevenLabsAdapter creates an adapter for the Scribe endpoint.
// The request is bounded by the caller's context only.
func NewElevenLabsAdapter(endpoint *provider.EndpointConfig, apiKey string, keywords []string) *ElevenLabsAdapter {
	return &ElevenLabsAdapter{
		client:   &http.Client{},
		endpoint: endpoint,
		apiKey:   apiKey,
		keywords: keywords,
	}
}

func (a *ElevenLabsAdapter) Transcribe(ctx context.Context, clip Clip) (*Result, error) {
	body, contentType, err := a.buildForm(clip)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint.URL(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("xi-api-key", a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("elevenlabs API status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var out elevenLabsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	confidence := NoConfidence
	if out.LanguageProbability > 0 {
		confidence = out.LanguageProbability
	}
	return &Result{Text: out.Text, Language: out.LanguageCode, Confidence: confidence}, nil
}

func (a *ElevenLabsAdapter) buildForm(clip Clip) (io.Reader, string, error) {
	f, err := os.Open(clip.Path)
	if err != nil {
		return nil, "", fmt.Errorf("open staged audio: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filepath.Base(clip.Path))
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("copy audio data: %w", err)
	}
	if err := writer.WriteField("model_id", clip.Model); err != nil {
		return nil, "", fmt.Errorf("write model_id: %w", err)
	}
	if clip.Language != "" {
		if err := writer.WriteField("language_code", clip.Language); err != nil {
			return nil, "", fmt.Errorf("write language_code: %w", err)
		}
	}
	if len(a.keywords) > 0 {
		keyterms, err := json.Marshal(a.keywords)
		if err != nil {
			return nil, "", fmt.Errorf("marshal keyterms: %w", err)
		}
		if err := writer.WriteField("keyterms", string(keyterms)); err != nil {
			return nil, "", fmt.Errorf("write keyterms: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close writer: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
