package transcriber

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/leonardotrapani/soapscribe/internal/provider"
)

// OpenAIAdapter implements Adapter for the OpenAI audio API and
// OpenAI-compatible services (Groq)
type OpenAIAdapter struct {
	client *openai.Client
	name   string
}

// NewOpenAIAdapter creates an adapter; empty baseURL uses api.openai.com
func NewOpenAIAdapter(apiKey, baseURL string) *OpenAIAdapter {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	return &OpenAIAdapter{
		client: openai.NewClientWithConfig(clientConfig),
		name:   provider.ProviderOpenAI,
	}
}

// NewGroqAdapter creates an adapter for Groq's Whisper endpoint
func NewGroqAdapter(apiKey, baseURL string) *OpenAIAdapter {
	if baseURL == "" {
		baseURL = provider.GroqBaseURL
	}
	a := NewOpenAIAdapter(apiKey, baseURL)
	a.name = provider.ProviderGroq
	return a
}

func (a *OpenAIAdapter) Transcribe(ctx context.Context, clip Clip) (*Result, error) {
	req := openai.AudioRequest{
		Model:    clip.Model,
		FilePath: clip.Path,
		Language: clip.Language,
	}
	verbose := a.verbose(clip.Model)
	if verbose {
		req.Format = openai.AudioResponseFormatVerboseJSON
	}

	resp, err := a.client.CreateTranscription(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s transcription: %w", a.name, err)
	}

	result := &Result{
		Text:       resp.Text,
		Language:   resp.Language,
		Confidence: NoConfidence,
	}
	if verbose && len(resp.Segments) > 0 {
		var sum float64
		for _, seg := range resp.Segments {
			sum += seg.AvgLogprob
		}
		result.Confidence = math.Exp(sum / float64(len(resp.Segments)))
	}
	return result, nil
}

// verbose reports whether the model returns segment log-probabilities
func (a *OpenAIAdapter) verbose(model string) bool {
	if m, err := provider.FindModel(a.name, provider.Transcription, model); err == nil {
		return m.VerboseJSON
	}
	return strings.HasPrefix(model, "whisper")
}
