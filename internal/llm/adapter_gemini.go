package llm

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/leonardotrapani/soapscribe/internal/logger"
	"github.com/leonardotrapani/soapscribe/internal/provider"
)

// GeminiGenerator implements Generator with the Gemini API
type GeminiGenerator struct {
	client *genai.Client
	log    *logger.Logger
}

// NewGeminiGenerator creates a Gemini client; empty baseURL uses Google's endpoint
func NewGeminiGenerator(ctx context.Context, apiKey, baseURL string, log *logger.Logger) (*GeminiGenerator, error) {
	clientCfg := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  apiKey,
	}
	if baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &GeminiGenerator{
		client: client,
		log:    log.With(logger.String("provider", provider.ProviderGemini)),
	}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = DefaultModel(provider.ProviderGemini)
	}

	temp := float32(req.Temperature)
	config := &genai.GenerateContentConfig{Temperature: &temp}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, model, contents, config)
	elapsed := time.Since(start)
	if err != nil {
		g.log.Warn("generate content failed", logger.String("model", model), logger.Duration("elapsed", elapsed), logger.Error(err))
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	out := resp.Text()
	g.log.Debug("generate content",
		logger.String("model", model),
		logger.Duration("elapsed", elapsed),
		logger.Int("prompt_chars", len(req.Prompt)),
		logger.Int("output_chars", len(out)))
	return out, nil
}
