package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"openai", Config{Provider: "openai", APIKey: "sk-test"}, false},
		{"groq", Config{Provider: "groq", APIKey: "gsk_test"}, false},
		{"gemini", Config{Provider: "gemini", APIKey: "AIza-test"}, false},
		{"missing key", Config{Provider: "openai"}, true},
		{"transcription only provider", Config{Provider: "elevenlabs", APIKey: "k"}, true},
		{"unknown provider", Config{Provider: "nope", APIKey: "k"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGenerator(context.Background(), tt.cfg, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, g)
		})
	}
}

func TestProviders(t *testing.T) {
	assert.Equal(t, []string{"gemini", "groq", "openai"}, Providers())
}

type chatRequest struct {
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   int      `json:"max_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func chatServer(t *testing.T, reply string, got *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": reply}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIGenerator_Generate(t *testing.T) {
	var got chatRequest
	srv := chatServer(t, "SUBJECTIVE: chest pain", &got)

	g := NewOpenAIGenerator("sk-test", srv.URL+"/v1", nil)
	out, err := g.Generate(context.Background(), Request{
		System:    "You are a scribe.",
		Prompt:    "Transcript: chest pain",
		MaxTokens: 512,
	})
	require.NoError(t, err)
	assert.Equal(t, "SUBJECTIVE: chest pain", out)

	assert.Equal(t, "gpt-4o", got.Model, "empty model falls back to the provider default")
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "Transcript: chest pain", got.Messages[1].Content)
	require.NotNil(t, got.Temperature, "zero temperature must still be sent")
	assert.InDelta(t, 0, *got.Temperature, 1e-9)
	assert.Equal(t, 512, got.MaxTokens)
}

func TestOpenAIGenerator_NoSystemMessage(t *testing.T) {
	var got chatRequest
	srv := chatServer(t, "ok", &got)

	g := NewGroqGenerator("gsk_test", srv.URL+"/openai/v1", nil)
	_, err := g.Generate(context.Background(), Request{Prompt: "hi", Temperature: 0.7, Model: "llama-3.1-8b-instant"})
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "llama-3.1-8b-instant", got.Model)
	assert.InDelta(t, 0.7, *got.Temperature, 1e-6)
}

func TestOpenAIGenerator_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr string
	}{
		{
			name: "api error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				io.WriteString(w, `{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`)
			},
			wantErr: "groq chat completion",
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, `{"id":"x","choices":[]}`)
			},
			wantErr: "no response choices",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			g := NewGroqGenerator("gsk_test", srv.URL, nil)
			_, err := g.Generate(context.Background(), Request{Prompt: "hi"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGeminiGenerator_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "gemini-2.5-flash:generateContent"), r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "systemInstruction")
		assert.Contains(t, string(body), "Transcript: cough")

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Subjective: cough"}]}}]}`)
	}))
	defer srv.Close()

	g, err := NewGeminiGenerator(context.Background(), "test-key", srv.URL, nil)
	require.NoError(t, err)

	out, err := g.Generate(context.Background(), Request{System: "scribe", Prompt: "Transcript: cough"})
	require.NoError(t, err)
	assert.Equal(t, "Subjective: cough", out)
}

func TestGeminiGenerator_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":{"code":500,"message":"backend down","status":"INTERNAL"}}`)
	}))
	defer srv.Close()

	g, err := NewGeminiGenerator(context.Background(), "test-key", srv.URL, nil)
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), Request{Prompt: "x", Model: "gemini-2.5-flash"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini generate content")
}
