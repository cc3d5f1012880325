package llm

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/leonardotrapani/soapscribe/internal/logger"
	"github.com/leonardotrapani/soapscribe/internal/provider"
)

// OpenAIGenerator implements Generator using chat completions. It also
// serves OpenAI-compatible services (Groq).
type OpenAIGenerator struct {
	client *openai.Client
	name   string
	log    *logger.Logger
}

// NewOpenAIGenerator creates an OpenAI generator; empty baseURL uses api.openai.com
func NewOpenAIGenerator(apiKey, baseURL string, log *logger.Logger) *OpenAIGenerator {
	return newChatGenerator(provider.ProviderOpenAI, apiKey, baseURL, log)
}

// NewGroqGenerator creates a generator for Groq's OpenAI-compatible API
func NewGroqGenerator(apiKey, baseURL string, log *logger.Logger) *OpenAIGenerator {
	if baseURL == "" {
		baseURL = provider.GroqBaseURL
	}
	return newChatGenerator(provider.ProviderGroq, apiKey, baseURL, log)
}

func newChatGenerator(name, apiKey, baseURL string, log *logger.Logger) *OpenAIGenerator {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientConfig),
		name:   name,
		log:    log.With(logger.String("provider", name)),
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = DefaultModel(g.name)
	}

	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	chatReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	}
	// go-openai drops a zero temperature from the request body
	if req.Temperature == 0 {
		chatReq.Temperature = math.SmallestNonzeroFloat32
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, chatReq)
	elapsed := time.Since(start)
	if err != nil {
		g.log.Warn("chat completion failed", logger.String("model", model), logger.Duration("elapsed", elapsed), logger.Error(err))
		return "", fmt.Errorf("%s chat completion: %w", g.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s chat completion: no response choices", g.name)
	}

	out := resp.Choices[0].Message.Content
	g.log.Debug("chat completion",
		logger.String("model", model),
		logger.Duration("elapsed", elapsed),
		logger.Int("prompt_chars", len(req.Prompt)),
		logger.Int("output_chars", len(out)))
	return out, nil
}
